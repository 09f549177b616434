package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"eduledger/internal/domain"
	"eduledger/pkg/fingerprint"
	"eduledger/pkg/platform/sentinel"
)

// MemoryStoreSuite enforces the ledger-state invariants at the store layer:
// identifier uniqueness for the registry's whole lifetime, atomic dual-write
// of record and index, revocation monotonicity, and index consistency.
type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func testRecord(id, content string) domain.CertificateRecord {
	return domain.CertificateRecord{
		ID:          id,
		DocHash:     fingerprint.Document([]byte(content)),
		Recipient:   domain.Address("0x70997970c51812dc3a010c7d01b50e0d17dc79c8"),
		MetadataURI: "ipfs://QmTestMetadata",
		IssuedAt:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *MemoryStoreSuite) TestInsertAndLookup() {
	ctx := context.Background()
	record := testRecord("EDU-2024-001", "transcript A")

	s.Require().NoError(s.store.Insert(ctx, record))

	s.Run("get by id returns the stored record", func() {
		got, err := s.store.Get(ctx, record.ID)
		s.Require().NoError(err)
		s.Equal(record, got)
	})

	s.Run("get by hash resolves to the same record", func() {
		got, err := s.store.GetByHash(ctx, record.DocHash)
		s.Require().NoError(err)
		s.Equal(record.ID, got.ID)
	})

	s.Run("unknown id is ErrNotFound", func() {
		_, err := s.store.Get(ctx, "EDU-MISSING")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("unknown hash is ErrNotFound", func() {
		_, err := s.store.GetByHash(ctx, fingerprint.Document([]byte("never issued")))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestIDUniqueness() {
	ctx := context.Background()
	first := testRecord("EDU-2024-001", "transcript A")
	s.Require().NoError(s.store.Insert(ctx, first))

	// Same id, different content: identifiers are never reused.
	err := s.store.Insert(ctx, testRecord("EDU-2024-001", "transcript B"))
	s.Require().ErrorIs(err, sentinel.ErrAlreadyExists)

	got, err := s.store.Get(ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(first, got, "failed insert must not disturb the first record")
}

func (s *MemoryStoreSuite) TestHashUniqueness() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, testRecord("EDU-2024-001", "same content")))

	err := s.store.Insert(ctx, testRecord("EDU-2024-002", "same content"))
	s.Require().ErrorIs(err, sentinel.ErrAlreadyExists)

	_, err = s.store.Get(ctx, "EDU-2024-002")
	s.Require().ErrorIs(err, sentinel.ErrNotFound, "rejected insert must leave no partial write")
}

func (s *MemoryStoreSuite) TestRevocation() {
	ctx := context.Background()
	record := testRecord("EDU-2024-001", "transcript A")
	s.Require().NoError(s.store.Insert(ctx, record))

	s.Run("marks revoked with reason, other fields untouched", func() {
		s.Require().NoError(s.store.MarkRevoked(ctx, record.ID, "plagiarism"))

		got, err := s.store.Get(ctx, record.ID)
		s.Require().NoError(err)
		s.True(got.Revoked)
		s.Equal("plagiarism", got.RevokedReason)
		s.Equal(record.DocHash, got.DocHash)
		s.Equal(record.Recipient, got.Recipient)
		s.Equal(record.MetadataURI, got.MetadataURI)
		s.Equal(record.IssuedAt, got.IssuedAt)
	})

	s.Run("second revocation fails and keeps the first reason", func() {
		err := s.store.MarkRevoked(ctx, record.ID, "changed my mind")
		s.Require().ErrorIs(err, sentinel.ErrAlreadyRevoked)

		got, err := s.store.Get(ctx, record.ID)
		s.Require().NoError(err)
		s.Equal("plagiarism", got.RevokedReason)
	})

	s.Run("revoking an absent record is ErrNotFound", func() {
		s.Require().ErrorIs(s.store.MarkRevoked(ctx, "EDU-MISSING", "x"), sentinel.ErrNotFound)
	})

	s.Run("revoked record still resolves through the hash index", func() {
		got, err := s.store.GetByHash(ctx, record.DocHash)
		s.Require().NoError(err)
		s.True(got.Revoked)
	})
}

func (s *MemoryStoreSuite) TestInsertBatch() {
	ctx := context.Background()

	s.Run("commits all records when no collision", func() {
		batch := []domain.CertificateRecord{
			testRecord("EDU-2024-010", "batch doc 1"),
			testRecord("EDU-2024-011", "batch doc 2"),
			testRecord("EDU-2024-012", "batch doc 3"),
		}
		s.Require().NoError(s.store.InsertBatch(ctx, batch))
		for _, record := range batch {
			_, err := s.store.Get(ctx, record.ID)
			s.Require().NoError(err)
		}
	})

	s.Run("one collision aborts the whole batch", func() {
		store := NewInMemoryStore()
		s.Require().NoError(store.Insert(ctx, testRecord("EDU-2024-020", "existing")))

		batch := []domain.CertificateRecord{
			testRecord("EDU-2024-021", "new doc 1"),
			testRecord("EDU-2024-020", "colliding id"),
			testRecord("EDU-2024-022", "new doc 2"),
		}
		s.Require().ErrorIs(store.InsertBatch(ctx, batch), sentinel.ErrAlreadyExists)

		_, err := store.Get(ctx, "EDU-2024-021")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		_, err = store.Get(ctx, "EDU-2024-022")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("duplicate ids inside the batch abort it", func() {
		store := NewInMemoryStore()
		batch := []domain.CertificateRecord{
			testRecord("EDU-2024-030", "doc A"),
			testRecord("EDU-2024-030", "doc B"),
		}
		s.Require().ErrorIs(store.InsertBatch(ctx, batch), sentinel.ErrAlreadyExists)
		_, err := store.Get(ctx, "EDU-2024-030")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}
