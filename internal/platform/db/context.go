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

// Queryable is the subset of pgx operations shared by pools, connections
// and transactions.
type Queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// WithConn returns a context carrying q. Repositories that receive this
// context issue their statements through q instead of the shared pool,
// which is how a transaction spans multiple repository calls.
func WithConn(ctx context.Context, q Queryable) context.Context {
	return context.WithValue(ctx, connKey, q)
}

// ConnFromContext retrieves the scoped connection from context, or nil.
func ConnFromContext(ctx context.Context) Queryable {
	q, _ := ctx.Value(connKey).(Queryable)
	return q
}

// TxRunner starts transactions on a pool and scopes them into contexts.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// InTx runs fn inside a single transaction. The context passed to fn
// carries the transaction, so repository calls made with it join it.
// The transaction commits when fn returns nil and rolls back otherwise.
func (r *TxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(WithConn(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
