package repository

import (
	"context"
	"database/sql"

	"github.com/dealdesk/dealdesk/internal/infrastructure/persistence/sqlite"
)

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// executorFrom returns the context transaction when one is running,
// otherwise the plain connection
func executorFrom(ctx context.Context, db *sql.DB) executor {
	if tx := sqlite.TxFrom(ctx); tx != nil {
		return tx
	}
	return db
}
