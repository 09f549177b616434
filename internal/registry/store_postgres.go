package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"eduledger/internal/domain"
	"eduledger/pkg/platform/sentinel"
)

// PostgresStore persists ledger state in PostgreSQL. The unique index on
// doc_hash is the secondary mapping: because the row carries both key and
// hash, the primary entry and the index entry commit in the same statement
// and can never diverge.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL-backed registry store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS certificates (
    id             TEXT PRIMARY KEY,
    doc_hash       BYTEA NOT NULL,
    recipient      TEXT NOT NULL,
    metadata_uri   TEXT NOT NULL,
    issued_at      TIMESTAMPTZ NOT NULL,
    revoked        BOOLEAN NOT NULL DEFAULT FALSE,
    revoked_reason TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS certificates_doc_hash_idx ON certificates (doc_hash);
`

// EnsureSchema creates the certificates table and its hash index.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure certificates schema: %w", err)
	}
	return nil
}

const selectColumns = `id, doc_hash, recipient, metadata_uri, issued_at, revoked, revoked_reason`

func (s *PostgresStore) Get(ctx context.Context, id string) (domain.CertificateRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM certificates WHERE id = $1`, id)
	return scanRecord(row)
}

func (s *PostgresStore) GetByHash(ctx context.Context, hash domain.DocHash) (domain.CertificateRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM certificates WHERE doc_hash = $1`, hash[:])
	record, err := scanRecord(row)
	if err != nil {
		return domain.CertificateRecord{}, err
	}
	if record.DocHash != hash {
		return domain.CertificateRecord{}, sentinel.ErrNotFound
	}
	return record, nil
}

func (s *PostgresStore) Insert(ctx context.Context, record domain.CertificateRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO certificates (id, doc_hash, recipient, metadata_uri, issued_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.DocHash[:], string(record.Recipient), record.MetadataURI, record.IssuedAt)
	if err != nil {
		return translateInsertErr(record.ID, err)
	}
	return nil
}

func (s *PostgresStore) InsertBatch(ctx context.Context, records []domain.CertificateRecord) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, record := range records {
		_, err := tx.Exec(ctx,
			`INSERT INTO certificates (id, doc_hash, recipient, metadata_uri, issued_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			record.ID, record.DocHash[:], string(record.Recipient), record.MetadataURI, record.IssuedAt)
		if err != nil {
			return translateInsertErr(record.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkRevoked(ctx context.Context, id, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE certificates SET revoked = TRUE, revoked_reason = $2
		 WHERE id = $1 AND NOT revoked`, id, reason)
	if err != nil {
		return fmt.Errorf("mark revoked %q: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Zero rows: either absent or already revoked.
	var revoked bool
	err = s.pool.QueryRow(ctx, `SELECT revoked FROM certificates WHERE id = $1`, id).Scan(&revoked)
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("mark revoked %q: %w", id, err)
	}
	if revoked {
		return sentinel.ErrAlreadyRevoked
	}
	return fmt.Errorf("mark revoked %q: concurrent state change", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.CertificateRecord, error) {
	var (
		record    domain.CertificateRecord
		hash      []byte
		recipient string
	)
	err := row.Scan(&record.ID, &hash, &recipient, &record.MetadataURI,
		&record.IssuedAt, &record.Revoked, &record.RevokedReason)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CertificateRecord{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.CertificateRecord{}, fmt.Errorf("scan certificate: %w", err)
	}
	copy(record.DocHash[:], hash)
	record.Recipient = domain.Address(recipient)
	return record, nil
}

func translateInsertErr(id string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "certificates_doc_hash_idx" {
			return fmt.Errorf("certificate %q document hash: %w", id, sentinel.ErrAlreadyExists)
		}
		return fmt.Errorf("certificate %q: %w", id, sentinel.ErrAlreadyExists)
	}
	return fmt.Errorf("insert certificate %q: %w", id, err)
}
