package registry_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"eduledger/internal/domain"
	"eduledger/internal/ledgerlog"
	"eduledger/internal/registry"
	"eduledger/internal/registry/cache"
	"eduledger/internal/registry/mocks"
	domainerrors "eduledger/pkg/domain-errors"
	"eduledger/pkg/fingerprint"
	"eduledger/pkg/platform/sentinel"
	"eduledger/pkg/requestcontext"
)

//go:generate mockgen -source=store.go -destination=mocks/store_mock.go -package=mocks Store

// ServiceSuite covers the workflow contracts end to end against the
// in-memory store: issue-then-verify, double issue, revoke-then-verify,
// double revoke, hash lookups, and the event journal.
type ServiceSuite struct {
	suite.Suite
	svc     *registry.Service
	journal *ledgerlog.InMemoryStore
	ctx     context.Context
	now     time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.journal = ledgerlog.NewInMemoryStore()
	s.svc = registry.NewService(
		registry.NewInMemoryStore(),
		ledgerlog.NewPublisher(s.journal),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	s.now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func issueReq(id, content string) registry.IssueRequest {
	return registry.IssueRequest{
		ID:          id,
		DocHash:     fingerprint.Document([]byte(content)),
		Recipient:   domain.Address("0x70997970c51812dc3a010c7d01b50e0d17dc79c8"),
		MetadataURI: "ipfs://QmCertMetadata",
	}
}

func (s *ServiceSuite) TestIssueThenVerify() {
	req := issueReq("EDU-2024-001", "fileA")

	record, err := s.svc.Issue(s.ctx, req)
	s.Require().NoError(err)
	s.Equal(s.now, record.IssuedAt, "issuedAt comes from the ledger clock")

	s.Run("verify by id returns the issued fields", func() {
		got, err := s.svc.VerifyByID(s.ctx, req.ID)
		s.Require().NoError(err)
		s.True(got.IsValid)
		s.True(got.Exists)
		s.Equal(req.DocHash, got.DocHash)
		s.Equal(req.Recipient, got.Recipient)
		s.Equal(s.now, got.IssuedAt)
	})

	s.Run("verify by hash returns the same certificate", func() {
		got, err := s.svc.VerifyByHash(s.ctx, req.DocHash)
		s.Require().NoError(err)
		s.True(got.IsValid)
		s.Equal(req.ID, got.ID)
	})

	s.Run("repeated verifies are identical", func() {
		first, err := s.svc.VerifyByID(s.ctx, req.ID)
		s.Require().NoError(err)
		second, err := s.svc.VerifyByID(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(first, second)
	})

	s.Run("issuance event journaled with public fields", func() {
		events, err := s.journal.ListByCertificate(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(ledgerlog.TypeCertificateIssued, events[0].Type)
		s.Equal(req.Recipient, events[0].Recipient)
		s.Equal(fingerprint.Hex(req.DocHash), events[0].DocHash)
		s.Equal("ipfs://QmCertMetadata", events[0].MetadataURI)
		s.Equal(s.now, events[0].IssuedAt)
	})
}

func (s *ServiceSuite) TestIssueRejections() {
	s.Run("empty id", func() {
		_, err := s.svc.Issue(s.ctx, registry.IssueRequest{DocHash: fingerprint.Document([]byte("x"))})
		s.True(domainerrors.Is(err, domainerrors.CodeInvalidInput))
	})

	s.Run("zero document hash", func() {
		_, err := s.svc.Issue(s.ctx, registry.IssueRequest{ID: "EDU-2024-001"})
		s.True(domainerrors.Is(err, domainerrors.CodeInvalidInput))
	})

	s.Run("duplicate id leaves the first record unchanged", func() {
		first := issueReq("EDU-2024-002", "original content")
		_, err := s.svc.Issue(s.ctx, first)
		s.Require().NoError(err)

		_, err = s.svc.Issue(s.ctx, issueReq("EDU-2024-002", "different content"))
		s.True(domainerrors.Is(err, domainerrors.CodeAlreadyExists))

		got, err := s.svc.VerifyByID(s.ctx, first.ID)
		s.Require().NoError(err)
		s.Equal(first.DocHash, got.DocHash)
	})

	s.Run("zero address recipient is allowed", func() {
		req := issueReq("EDU-2024-003", "unassigned holder doc")
		req.Recipient = domain.ZeroAddress
		_, err := s.svc.Issue(s.ctx, req)
		s.Require().NoError(err)
	})
}

func (s *ServiceSuite) TestRevocation() {
	req := issueReq("EDU-2024-001", "fileA")
	_, err := s.svc.Issue(s.ctx, req)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Revoke(s.ctx, req.ID, "plagiarism"))

	s.Run("verify flips to invalid but record still exists", func() {
		got, err := s.svc.VerifyByID(s.ctx, req.ID)
		s.Require().NoError(err)
		s.False(got.IsValid)
		s.True(got.Exists)
	})

	s.Run("second revocation is AlreadyRevoked, not success", func() {
		err := s.svc.Revoke(s.ctx, req.ID, "again")
		s.True(domainerrors.Is(err, domainerrors.CodeAlreadyRevoked))
	})

	s.Run("re-issuing a revoked id still collides", func() {
		_, err := s.svc.Issue(s.ctx, issueReq("EDU-2024-001", "fresh content"))
		s.True(domainerrors.Is(err, domainerrors.CodeAlreadyExists))
	})

	s.Run("revoking an unknown id is NotFound", func() {
		err := s.svc.Revoke(s.ctx, "EDU-MISSING", "x")
		s.True(domainerrors.Is(err, domainerrors.CodeNotFound))
	})

	s.Run("revocation event journaled with reason", func() {
		events, err := s.journal.ListByCertificate(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 2)
		s.Equal(ledgerlog.TypeCertificateRevoked, events[1].Type)
		s.Equal("plagiarism", events[1].Reason)
	})

	s.Run("inspect exposes the revocation reason", func() {
		record, err := s.svc.Inspect(s.ctx, req.ID)
		s.Require().NoError(err)
		s.True(record.Revoked)
		s.Equal("plagiarism", record.RevokedReason)
		s.Equal("ipfs://QmCertMetadata", record.MetadataURI)
	})
}

func (s *ServiceSuite) TestVerifyAbsent() {
	s.Run("unknown id is invalid with zeroed fields, no error", func() {
		got, err := s.svc.VerifyByID(s.ctx, "EDU-NEVER-ISSUED")
		s.Require().NoError(err)
		s.Equal(registry.Verification{}, got)
	})

	s.Run("unknown hash is invalid with zeroed fields", func() {
		got, err := s.svc.VerifyByHash(s.ctx, fingerprint.Document([]byte("fileB")))
		s.Require().NoError(err)
		s.False(got.IsValid)
		s.False(got.Exists)
		s.Empty(got.ID)
		s.Equal(domain.ZeroAddress, got.Recipient)
		s.True(got.IssuedAt.IsZero())
	})

	s.Run("all-zero hash query is invalid without a lookup", func() {
		got, err := s.svc.VerifyByHash(s.ctx, domain.DocHash{})
		s.Require().NoError(err)
		s.False(got.IsValid)
	})
}

func (s *ServiceSuite) TestIssueBatch() {
	s.Run("all-or-nothing on collision", func() {
		_, err := s.svc.Issue(s.ctx, issueReq("EDU-2024-050", "taken"))
		s.Require().NoError(err)

		_, err = s.svc.IssueBatch(s.ctx, []registry.IssueRequest{
			issueReq("EDU-2024-051", "batch 1"),
			issueReq("EDU-2024-050", "collides"),
		})
		s.True(domainerrors.Is(err, domainerrors.CodeAlreadyExists))

		got, err := s.svc.VerifyByID(s.ctx, "EDU-2024-051")
		s.Require().NoError(err)
		s.False(got.Exists, "no record from the aborted batch may exist")
	})

	s.Run("successful batch shares one ledger time", func() {
		records, err := s.svc.IssueBatch(s.ctx, []registry.IssueRequest{
			issueReq("EDU-2024-060", "batch doc A"),
			issueReq("EDU-2024-061", "batch doc B"),
		})
		s.Require().NoError(err)
		s.Require().Len(records, 2)
		s.Equal(s.now, records[0].IssuedAt)
		s.Equal(s.now, records[1].IssuedAt)
	})

	s.Run("empty batch is InvalidInput", func() {
		_, err := s.svc.IssueBatch(s.ctx, nil)
		s.True(domainerrors.Is(err, domainerrors.CodeInvalidInput))
	})
}

// fakeCache is a map-backed RecordCache double so the suite can observe
// exactly which keys the workflows populate and invalidate.
type fakeCache struct {
	byID   map[string]domain.CertificateRecord
	byHash map[domain.DocHash]domain.CertificateRecord
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		byID:   make(map[string]domain.CertificateRecord),
		byHash: make(map[domain.DocHash]domain.CertificateRecord),
	}
}

func (c *fakeCache) GetByID(_ context.Context, id string) (domain.CertificateRecord, error) {
	if record, ok := c.byID[id]; ok {
		return record, nil
	}
	return domain.CertificateRecord{}, cache.ErrMiss
}

func (c *fakeCache) GetByHash(_ context.Context, hash domain.DocHash) (domain.CertificateRecord, error) {
	if record, ok := c.byHash[hash]; ok {
		return record, nil
	}
	return domain.CertificateRecord{}, cache.ErrMiss
}

func (c *fakeCache) Put(_ context.Context, record domain.CertificateRecord) error {
	c.byID[record.ID] = record
	c.byHash[record.DocHash] = record
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, record domain.CertificateRecord) error {
	delete(c.byID, record.ID)
	delete(c.byHash, record.DocHash)
	return nil
}

// ServiceCacheSuite covers the service/cache interplay: issuance populates
// both keys, verification serves from the cache, and revocation invalidates
// both keys so the next read observes the flip instead of a stale valid
// record.
type ServiceCacheSuite struct {
	suite.Suite
	svc   *registry.Service
	cache *fakeCache
	ctx   context.Context
}

func TestServiceCacheSuite(t *testing.T) {
	suite.Run(t, new(ServiceCacheSuite))
}

func (s *ServiceCacheSuite) SetupTest() {
	s.cache = newFakeCache()
	s.svc = registry.NewService(
		registry.NewInMemoryStore(),
		ledgerlog.NewPublisher(ledgerlog.NewInMemoryStore()),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		registry.WithCache(s.cache),
	)
	s.ctx = requestcontext.WithTime(context.Background(),
		time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
}

func (s *ServiceCacheSuite) TestIssuePopulatesBothKeys() {
	req := issueReq("EDU-2024-001", "fileA")
	_, err := s.svc.Issue(s.ctx, req)
	s.Require().NoError(err)

	s.Contains(s.cache.byID, req.ID)
	s.Contains(s.cache.byHash, req.DocHash)
}

func (s *ServiceCacheSuite) TestVerifyServesFromCache() {
	req := issueReq("EDU-2024-001", "fileA")
	_, err := s.svc.Issue(s.ctx, req)
	s.Require().NoError(err)

	// Poison the cached copy; a cache-served read will reveal it.
	poisoned := s.cache.byID[req.ID]
	poisoned.Recipient = domain.Address("0xcafe")
	s.cache.byID[req.ID] = poisoned

	got, err := s.svc.VerifyByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(domain.Address("0xcafe"), got.Recipient)
}

func (s *ServiceCacheSuite) TestVerifyMissFallsThroughAndBackfills() {
	req := issueReq("EDU-2024-001", "fileA")
	_, err := s.svc.Issue(s.ctx, req)
	s.Require().NoError(err)

	delete(s.cache.byID, req.ID)
	delete(s.cache.byHash, req.DocHash)

	got, err := s.svc.VerifyByHash(s.ctx, req.DocHash)
	s.Require().NoError(err)
	s.True(got.IsValid)
	s.Contains(s.cache.byID, req.ID, "store read backfills the cache")
	s.Contains(s.cache.byHash, req.DocHash)
}

func (s *ServiceCacheSuite) TestRevokeInvalidatesBothKeys() {
	req := issueReq("EDU-2024-001", "fileA")
	_, err := s.svc.Issue(s.ctx, req)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Revoke(s.ctx, req.ID, "plagiarism"))

	s.NotContains(s.cache.byID, req.ID)
	s.NotContains(s.cache.byHash, req.DocHash)

	s.Run("next verify by id observes the flip", func() {
		got, err := s.svc.VerifyByID(s.ctx, req.ID)
		s.Require().NoError(err)
		s.False(got.IsValid)
		s.True(got.Exists)
	})

	s.Run("next verify by hash observes the flip", func() {
		got, err := s.svc.VerifyByHash(s.ctx, req.DocHash)
		s.Require().NoError(err)
		s.False(got.IsValid)
		s.True(got.Exists)
	})
}

// ServiceStoreFailureSuite verifies error translation when the store itself
// fails, using the generated mock.
type ServiceStoreFailureSuite struct {
	suite.Suite
}

func TestServiceStoreFailureSuite(t *testing.T) {
	suite.Run(t, new(ServiceStoreFailureSuite))
}

func (s *ServiceStoreFailureSuite) newService(t *testing.T) (*mocks.MockStore, *registry.Service) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	svc := registry.NewService(store,
		ledgerlog.NewPublisher(ledgerlog.NewInMemoryStore()),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return store, svc
}

func (s *ServiceStoreFailureSuite) TestInfrastructureErrorsSurfaceAsInternal() {
	s.T().Run("verify by id", func(t *testing.T) {
		store, svc := s.newService(t)
		store.EXPECT().Get(gomock.Any(), "EDU-1").Return(domain.CertificateRecord{}, errors.New("connection reset"))

		_, err := svc.VerifyByID(context.Background(), "EDU-1")
		if !domainerrors.Is(err, domainerrors.CodeInternal) {
			t.Fatalf("expected internal error, got %v", err)
		}
	})

	s.T().Run("issue", func(t *testing.T) {
		store, svc := s.newService(t)
		store.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		_, err := svc.Issue(context.Background(), issueReq("EDU-2", "doc"))
		if !domainerrors.Is(err, domainerrors.CodeInternal) {
			t.Fatalf("expected internal error, got %v", err)
		}
	})

	s.T().Run("store sentinel passes through as coded error", func(t *testing.T) {
		store, svc := s.newService(t)
		store.EXPECT().MarkRevoked(gomock.Any(), "EDU-3", "x").Return(sentinel.ErrNotFound)

		err := svc.Revoke(context.Background(), "EDU-3", "x")
		if !domainerrors.Is(err, domainerrors.CodeNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}
