package fingerprint

import (
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"eduledger/internal/domain"
)

// FingerprintSuite covers the digest and codec contracts the verification
// flows depend on: determinism, fixed width, and strict hex parsing.
type FingerprintSuite struct {
	suite.Suite
}

func TestFingerprintSuite(t *testing.T) {
	suite.Run(t, new(FingerprintSuite))
}

func (s *FingerprintSuite) TestDocument() {
	s.Run("matches sha256 of raw bytes", func() {
		data := []byte("Test Document Content")
		want := sha256.Sum256(data)
		s.Equal(domain.DocHash(want), Document(data))
	})

	s.Run("is deterministic", func() {
		data := []byte("transcript.pdf bytes")
		s.Equal(Document(data), Document(data))
	})

	s.Run("differs for different content", func() {
		s.NotEqual(Document([]byte("file A")), Document([]byte("file B")))
	})

	s.Run("empty input still yields a non-zero digest", func() {
		s.False(Document(nil).IsZero())
	})
}

func (s *FingerprintSuite) TestIdentifier() {
	s.Run("keccak256 of the raw string", func() {
		// keccak256("") is a fixed well-known vector.
		got := Hex(Identifier(""))
		s.Equal("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", got)
	})

	s.Run("distinct identifiers do not collide", func() {
		s.NotEqual(Identifier("EDU-2024-001"), Identifier("EDU-2024-002"))
	})
}

func (s *FingerprintSuite) TestHexRoundTrip() {
	h := Document([]byte("diploma"))

	rendered := Hex(h)
	s.True(strings.HasPrefix(rendered, "0x"))
	s.Len(rendered, 2+64)
	s.Equal(strings.ToLower(rendered), rendered)

	parsed, err := Parse(rendered)
	s.Require().NoError(err)
	s.Equal(h, parsed)
}

func (s *FingerprintSuite) TestParseRejections() {
	s.Run("missing prefix", func() {
		_, err := Parse(strings.Repeat("ab", 32))
		s.Error(err)
	})

	s.Run("wrong length", func() {
		_, err := Parse("0xabcd")
		s.Error(err)
	})

	s.Run("non-hex payload", func() {
		_, err := Parse("0x" + strings.Repeat("zz", 32))
		s.Error(err)
	})
}
