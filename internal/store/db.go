package store

import (
	"context"
	"database/sql"
)

// DBTX abstracts the SQL access layer. It is implemented by both *sql.DB and
// *sql.Tx, so SQL-backed stores run unchanged inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
