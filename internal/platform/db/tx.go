package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const connKey contextKey = "db_conn"

// Queryable is the subset of pgx operations shared by pools, connections and
// transactions. Repositories accept it so they can run either directly
// against the pool or inside a caller-managed transaction.
type Queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// WithConn returns a context carrying the given connection or transaction.
func WithConn(ctx context.Context, conn Queryable) context.Context {
	return context.WithValue(ctx, connKey, conn)
}

// ConnFromContext retrieves a transaction-scoped connection from the context,
// or nil when none is set.
func ConnFromContext(ctx context.Context) Queryable {
	conn, _ := ctx.Value(connKey).(Queryable)
	return conn
}

// RunInTx executes fn inside a transaction whose connection is made available
// through the context, committing on success and rolling back on error.
func RunInTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(WithConn(ctx, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
