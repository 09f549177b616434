package registry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"eduledger/internal/domain"
	"eduledger/internal/ledgerlog"
	"eduledger/internal/platform/metrics"
	domainerrors "eduledger/pkg/domain-errors"
	"eduledger/pkg/fingerprint"
	"eduledger/pkg/platform/sentinel"
	"eduledger/pkg/requestcontext"
)

// EventPublisher journals state changes. Emission is fail-closed: an
// operation whose event cannot be journaled reports failure.
type EventPublisher interface {
	Emit(ctx context.Context, event ledgerlog.Event) error
}

// RecordCache is the optional read-through cache for verification lookups.
// Cache errors degrade to store reads and are only logged.
type RecordCache interface {
	GetByID(ctx context.Context, id string) (domain.CertificateRecord, error)
	GetByHash(ctx context.Context, hash domain.DocHash) (domain.CertificateRecord, error)
	Put(ctx context.Context, record domain.CertificateRecord) error
	Invalidate(ctx context.Context, record domain.CertificateRecord) error
}

// Service implements the issuance, revocation, and verification workflows
// over an injected Store. It owns input validation and the translation of
// store sentinels into coded domain errors; atomicity and ordering are the
// store's contract.
type Service struct {
	store   Store
	events  EventPublisher
	cache   RecordCache
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// ServiceOption configures optional collaborators.
type ServiceOption func(*Service)

// WithCache attaches a verification read cache.
func WithCache(cache RecordCache) ServiceOption {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithMetrics attaches the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(store Store, events EventPublisher, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		events: events,
		logger: logger,
		tracer: otel.Tracer("eduledger/registry"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue validates and inserts a new certificate record, stamping IssuedAt
// from the ledger clock, then journals the issuance.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (domain.CertificateRecord, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Issue",
		trace.WithAttributes(attribute.String("certificate.id", req.ID)))
	defer span.End()

	if err := validateIssue(req); err != nil {
		return domain.CertificateRecord{}, err
	}

	record := newRecord(req, requestcontext.Now(ctx))
	if err := s.store.Insert(ctx, record); err != nil {
		return domain.CertificateRecord{}, translateStoreErr(err)
	}

	if err := s.events.Emit(ctx, issuedEvent(ctx, record)); err != nil {
		// The insert is durable but unjournaled; surface the failure so the
		// caller does not treat the issuance as fully committed.
		s.logger.ErrorContext(ctx, "issuance journal failed",
			"certificate_id", record.ID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return domain.CertificateRecord{}, domainerrors.Wrap(domainerrors.CodeInternal, "journal issuance", err)
	}

	s.metrics.IncIssued()
	s.cachePut(ctx, record)
	s.logger.InfoContext(ctx, "certificate issued",
		"certificate_id", record.ID,
		"recipient", string(record.Recipient),
		"issuer", requestcontext.IssuerID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	return record, nil
}

// IssueBatch issues all requests atomically: any collision or invalid input
// anywhere in the batch commits nothing. All records share one ledger time.
func (s *Service) IssueBatch(ctx context.Context, reqs []IssueRequest) ([]domain.CertificateRecord, error) {
	ctx, span := s.tracer.Start(ctx, "registry.IssueBatch",
		trace.WithAttributes(attribute.Int("batch.size", len(reqs))))
	defer span.End()

	if len(reqs) == 0 {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "empty batch")
	}
	for _, req := range reqs {
		if err := validateIssue(req); err != nil {
			return nil, err
		}
	}

	now := requestcontext.Now(ctx)
	records := make([]domain.CertificateRecord, len(reqs))
	for i, req := range reqs {
		records[i] = newRecord(req, now)
	}

	if err := s.store.InsertBatch(ctx, records); err != nil {
		return nil, translateStoreErr(err)
	}

	for _, record := range records {
		if err := s.events.Emit(ctx, issuedEvent(ctx, record)); err != nil {
			return nil, domainerrors.Wrap(domainerrors.CodeInternal, "journal issuance", err)
		}
		s.metrics.IncIssued()
		s.cachePut(ctx, record)
	}
	s.logger.InfoContext(ctx, "certificate batch issued",
		"count", len(records),
		"issuer", requestcontext.IssuerID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	return records, nil
}

// Revoke flips a record to revoked and journals the transition. The flip is
// terminal; only Revoked and RevokedReason change.
func (s *Service) Revoke(ctx context.Context, id, reason string) error {
	ctx, span := s.tracer.Start(ctx, "registry.Revoke",
		trace.WithAttributes(attribute.String("certificate.id", id)))
	defer span.End()

	if id == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "certificate id is required")
	}

	if err := s.store.MarkRevoked(ctx, id, reason); err != nil {
		return translateStoreErr(err)
	}

	record, err := s.store.Get(ctx, id)
	if err != nil {
		return domainerrors.Wrap(domainerrors.CodeInternal, "reload revoked record", err)
	}

	event := ledgerlog.Event{
		Type:          ledgerlog.TypeCertificateRevoked,
		Timestamp:     requestcontext.Now(ctx),
		CertificateID: record.ID,
		Reason:        record.RevokedReason,
		IssuerID:      requestcontext.IssuerID(ctx),
		RequestID:     requestcontext.RequestID(ctx),
	}
	if err := s.events.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "revocation journal failed",
			"certificate_id", id,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return domainerrors.Wrap(domainerrors.CodeInternal, "journal revocation", err)
	}

	s.metrics.IncRevoked()
	s.cacheInvalidate(ctx, record)
	s.logger.InfoContext(ctx, "certificate revoked",
		"certificate_id", id,
		"reason", reason,
		"issuer", requestcontext.IssuerID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// VerifyByID checks one certificate by identifier. It never returns a domain
// error: absent and revoked both collapse to IsValid=false, distinguished by
// Exists.
func (s *Service) VerifyByID(ctx context.Context, id string) (Verification, error) {
	ctx, span := s.tracer.Start(ctx, "registry.VerifyByID")
	defer span.End()

	start := time.Now()
	record, err := s.lookupByID(ctx, id)
	s.metrics.ObserveLookupDuration("id", time.Since(start).Seconds())

	if errors.Is(err, sentinel.ErrNotFound) {
		s.metrics.RecordVerification("id", "not_found")
		return Verification{}, nil
	}
	if err != nil {
		return Verification{}, domainerrors.Wrap(domainerrors.CodeInternal, "verify by id", err)
	}
	return s.judge(record, "id"), nil
}

// VerifyByHash checks one certificate by document fingerprint. The all-zero
// hash is the absent sentinel and is invalid without a lookup.
func (s *Service) VerifyByHash(ctx context.Context, hash domain.DocHash) (Verification, error) {
	ctx, span := s.tracer.Start(ctx, "registry.VerifyByHash")
	defer span.End()

	if hash.IsZero() {
		s.metrics.RecordVerification("hash", "not_found")
		return Verification{}, nil
	}

	start := time.Now()
	record, err := s.lookupByHash(ctx, hash)
	s.metrics.ObserveLookupDuration("hash", time.Since(start).Seconds())

	if errors.Is(err, sentinel.ErrNotFound) {
		s.metrics.RecordVerification("hash", "not_found")
		return Verification{}, nil
	}
	if err != nil {
		return Verification{}, domainerrors.Wrap(domainerrors.CodeInternal, "verify by hash", err)
	}
	return s.judge(record, "hash"), nil
}

// Inspect returns the full record, including MetadataURI and RevokedReason.
// Issuer-facing; verification callers use VerifyByID instead.
func (s *Service) Inspect(ctx context.Context, id string) (domain.CertificateRecord, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Inspect")
	defer span.End()

	record, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.CertificateRecord{}, translateStoreErr(err)
	}
	return record, nil
}

func (s *Service) lookupByID(ctx context.Context, id string) (domain.CertificateRecord, error) {
	if s.cache != nil {
		if record, err := s.cache.GetByID(ctx, id); err == nil {
			return record, nil
		}
	}
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.CertificateRecord{}, err
	}
	s.cachePut(ctx, record)
	return record, nil
}

func (s *Service) lookupByHash(ctx context.Context, hash domain.DocHash) (domain.CertificateRecord, error) {
	if s.cache != nil {
		if record, err := s.cache.GetByHash(ctx, hash); err == nil {
			return record, nil
		}
	}
	record, err := s.store.GetByHash(ctx, hash)
	if err != nil {
		return domain.CertificateRecord{}, err
	}
	s.cachePut(ctx, record)
	return record, nil
}

func (s *Service) judge(record domain.CertificateRecord, path string) Verification {
	result := "valid"
	if record.Revoked {
		result = "revoked"
	}
	s.metrics.RecordVerification(path, result)
	return Verification{
		IsValid:   !record.Revoked,
		Exists:    true,
		ID:        record.ID,
		DocHash:   record.DocHash,
		Recipient: record.Recipient,
		IssuedAt:  record.IssuedAt,
	}
}

func (s *Service) cachePut(ctx context.Context, record domain.CertificateRecord) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "record cache put failed",
			"certificate_id", record.ID, "error", err)
	}
}

func (s *Service) cacheInvalidate(ctx context.Context, record domain.CertificateRecord) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "record cache invalidate failed",
			"certificate_id", record.ID, "error", err)
	}
}

func validateIssue(req IssueRequest) error {
	if req.ID == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "certificate id is required")
	}
	if req.DocHash.IsZero() {
		return domainerrors.New(domainerrors.CodeInvalidInput, "document hash is required")
	}
	return nil
}

func newRecord(req IssueRequest, issuedAt time.Time) domain.CertificateRecord {
	return domain.CertificateRecord{
		ID:          req.ID,
		DocHash:     req.DocHash,
		Recipient:   req.Recipient,
		MetadataURI: req.MetadataURI,
		IssuedAt:    issuedAt,
	}
}

func issuedEvent(ctx context.Context, record domain.CertificateRecord) ledgerlog.Event {
	return ledgerlog.Event{
		Type:          ledgerlog.TypeCertificateIssued,
		Timestamp:     record.IssuedAt,
		CertificateID: record.ID,
		Recipient:     record.Recipient,
		DocHash:       fingerprint.Hex(record.DocHash),
		MetadataURI:   record.MetadataURI,
		IssuedAt:      record.IssuedAt,
		IssuerID:      requestcontext.IssuerID(ctx),
		RequestID:     requestcontext.RequestID(ctx),
	}
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrAlreadyExists):
		return domainerrors.Wrap(domainerrors.CodeAlreadyExists, "certificate already exists", err)
	case errors.Is(err, sentinel.ErrNotFound):
		return domainerrors.Wrap(domainerrors.CodeNotFound, "certificate not found", err)
	case errors.Is(err, sentinel.ErrAlreadyRevoked):
		return domainerrors.Wrap(domainerrors.CodeAlreadyRevoked, "certificate already revoked", err)
	default:
		return domainerrors.Wrap(domainerrors.CodeInternal, "registry store", err)
	}
}
