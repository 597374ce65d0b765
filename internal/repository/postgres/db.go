package postgresrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store implements the per-service repository interfaces over a pgx pool.
// RunTx carries the transaction in the context, so the same methods work
// inside and outside a transaction.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type txKey struct{}

func (s *Store) handle(ctx context.Context) DB {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

// RunTx runs fn inside a serializable transaction. Nested calls join the
// surrounding transaction. A serialization failure is retried once; the
// seat-conflict unique index resolves the rest.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	const op = "postgresrepo.Store.RunTx"

	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		lastErr = s.runTxOnce(ctx, fn)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
	}
	if lastErr != nil {
		return fmt.Errorf("%s: %w", op, lastErr)
	}

	return nil
}

func (s *Store) runTxOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}
