package registry

import (
	"context"

	"eduledger/internal/domain"
)

// Store is the authoritative ledger state: the id → record mapping plus the
// docHash → id secondary index. It is interface-driven so the workflows stay
// testable against the in-memory implementation without a real backend.
//
// State-changing operations are atomic: Insert writes the primary entry and
// the index entry together or not at all, and no reader ever observes a
// partial write. Records are never deleted.
type Store interface {
	// Get returns the record for id, or sentinel.ErrNotFound.
	Get(ctx context.Context, id string) (domain.CertificateRecord, error)

	// GetByHash resolves through the secondary index and fetches the primary
	// record. It never returns a record whose DocHash differs from the query,
	// so a stale index entry reads as sentinel.ErrNotFound.
	GetByHash(ctx context.Context, hash domain.DocHash) (domain.CertificateRecord, error)

	// Insert writes a new record and its index entry atomically. Returns
	// sentinel.ErrAlreadyExists if the id or the document hash is occupied.
	Insert(ctx context.Context, record domain.CertificateRecord) error

	// InsertBatch writes all records or none. Any id or hash collision,
	// including within the batch itself, aborts the whole batch with
	// sentinel.ErrAlreadyExists.
	InsertBatch(ctx context.Context, records []domain.CertificateRecord) error

	// MarkRevoked flips the revoked flag and sets the reason. Returns
	// sentinel.ErrNotFound if the record is absent, sentinel.ErrAlreadyRevoked
	// if the flag is already set. No other field changes.
	MarkRevoked(ctx context.Context, id, reason string) error
}
