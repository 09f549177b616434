package ledgerlog

import "context"

// Store is the durable sink for emitted events. Implementations are
// append-only; nothing ever rewrites or deletes a journal entry.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCertificate(ctx context.Context, certificateID string) ([]Event, error)
}

// Sink receives events already journaled by the Store, for fan-out to
// external consumers. Delivery is at-least-once; consumers dedupe on
// Event.ID.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
