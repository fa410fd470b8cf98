package repository

import (
	"context"
	"database/sql"
)

// DBExecutor abstracts over *sqlx.DB and *sqlx.Tx so the service layer owns
// transaction boundaries and repositories stay stateless.
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}
