package ledgerlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher journals registry events with fail-closed semantics: the caller
// blocks until the store write succeeds, and if it fails the state-changing
// operation must fail with it. Forwarding to sinks is asynchronous and
// best-effort on top of the durable journal.
type Publisher struct {
	store  Store
	logger *slog.Logger
	inbox  chan<- Event
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for drop reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithForwarding attaches the channel drained by a Worker. Sends never block;
// a full channel drops the forward (the journal already holds the event).
func WithForwarding(inbox chan<- Event) Option {
	return func(p *Publisher) {
		p.inbox = inbox
	}
}

// NewPublisher creates a journaling publisher over the given store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit journals one event. Returns error if persistence fails - the caller
// must fail its operation.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := p.store.Append(ctx, event); err != nil {
		return fmt.Errorf("ledger event persistence failed: %w", err)
	}

	if p.inbox != nil {
		select {
		case p.inbox <- event:
		default:
			if p.logger != nil {
				p.logger.WarnContext(ctx, "event forward dropped, sink lagging",
					"event_id", event.ID,
					"type", event.Type,
					"certificate_id", event.CertificateID,
				)
			}
		}
	}
	return nil
}

// List returns the journal entries for one certificate in append order.
func (p *Publisher) List(ctx context.Context, certificateID string) ([]Event, error) {
	return p.store.ListByCertificate(ctx, certificateID)
}
