package ledgerlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	txcontext "eduledger/pkg/platform/tx"
)

// PostgresStore implements Store with a transactional outbox: events land in
// the outbox table in the same database as registry state, and the channel
// worker forwards them to the Kafka sink. The outbox row is the durability
// guarantee; Kafka delivery may lag but never gates a state change.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const outboxSchema = `
CREATE TABLE IF NOT EXISTS ledger_events (
    id             UUID PRIMARY KEY,
    event_type     TEXT NOT NULL,
    certificate_id TEXT NOT NULL,
    payload        JSONB NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS ledger_events_certificate_idx ON ledger_events (certificate_id, created_at);
`

// EnsureSchema creates the outbox table.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, outboxSchema); err != nil {
		return fmt.Errorf("ensure ledger_events schema: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execer prefers a caller-managed transaction from context so an event can
// commit atomically with the state change it records.
func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ledger event: %w", err)
	}
	_, err = s.execer(ctx).ExecContext(ctx,
		`INSERT INTO ledger_events (id, event_type, certificate_id, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.ID, string(event.Type), event.CertificateID, payload, event.Timestamp)
	if err != nil {
		return fmt.Errorf("append ledger event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByCertificate(ctx context.Context, certificateID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM ledger_events WHERE certificate_id = $1 ORDER BY created_at`,
		certificateID)
	if err != nil {
		return nil, fmt.Errorf("list ledger events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("unmarshal ledger event: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
