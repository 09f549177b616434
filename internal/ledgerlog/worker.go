package ledgerlog

import (
	"context"
	"log/slog"
)

// Worker drains the publisher's forwarding channel into a Sink. It keeps
// external delivery off the state-change critical path; a sink failure is
// logged and the loop continues, since the journal remains the source of
// truth.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "event sink publish failed",
					"event_id", event.ID,
					"type", event.Type,
					"certificate_id", event.CertificateID,
					"error", err,
				)
			}
		}
	}
}
