package tx

import (
	"context"
	"database/sql"
)

type sqlTxKey struct{}

// WithTx binds an open SQL transaction to ctx. A nil tx leaves ctx as is.
func WithTx(ctx context.Context, sqlTx *sql.Tx) context.Context {
	if sqlTx == nil {
		return ctx
	}
	return context.WithValue(ctx, sqlTxKey{}, sqlTx)
}

// From returns the SQL transaction bound by the Runner, if any. Stores route
// their statements through it so they commit with the ledger mutation.
func From(ctx context.Context) (*sql.Tx, bool) {
	sqlTx, ok := ctx.Value(sqlTxKey{}).(*sql.Tx)
	return sqlTx, ok
}
