// Package fingerprint computes the fixed-width digests the registry keys on.
//
// Two transforms exist by convention with the hosting ledger environment:
// documents are fingerprinted with SHA-256 so any copy of the same file
// verifies identically without the file ever leaving the client, and string
// identifiers map to keccak-256 digests for fixed-width indexed lookups. The
// registry's business rules only ever see the document digest; the identifier
// digest exists for parity with ledger-side tooling.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	"eduledger/internal/domain"
)

// HexPrefix marks serialized digests in transport and display form.
const HexPrefix = "0x"

// Document returns the SHA-256 fingerprint of raw document bytes.
func Document(data []byte) domain.DocHash {
	return domain.DocHash(sha256.Sum256(data))
}

// Identifier returns the keccak-256 fingerprint of a certificate identifier,
// matching the ledger environment's transform for string keys.
func Identifier(id string) domain.DocHash {
	var out domain.DocHash
	d := sha3.NewLegacyKeccak256()
	d.Write([]byte(id))
	d.Sum(out[:0])
	return out
}

// Hex renders a fingerprint as 0x-prefixed lowercase hex.
func Hex(h domain.DocHash) string {
	return HexPrefix + hex.EncodeToString(h[:])
}

// Parse decodes a 0x-prefixed hex fingerprint. The prefix is required and the
// payload must be exactly 32 bytes.
func Parse(s string) (domain.DocHash, error) {
	var out domain.DocHash
	if !strings.HasPrefix(s, HexPrefix) {
		return out, fmt.Errorf("fingerprint %q missing %s prefix", s, HexPrefix)
	}
	raw, err := hex.DecodeString(s[len(HexPrefix):])
	if err != nil {
		return out, fmt.Errorf("decode fingerprint: %w", err)
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("fingerprint must be %d bytes, got %d", len(out), len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
