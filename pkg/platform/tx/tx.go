// Package tx carries a database/sql transaction through context so the
// ledger-event outbox can commit an event in the same transaction as the
// state change it records.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx binds a transaction to the context. Outbox appends performed under
// this context become visible only when the caller commits.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From returns the bound transaction, if any. Stores that support atomic
// appends prefer it over their own connection.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}
