package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solutions-liquify/tms/internal/platform/httpx"
)

// maxTxAttempts bounds how often a RepeatableRead transaction is replayed
// after a serialization failure.
const maxTxAttempts = 3

// ErrTxConflict is returned when every attempt hit a serialization failure.
var ErrTxConflict = fmt.Errorf("%w: concurrent update, retry the request", httpx.ErrConflict)

// WithTx runs fn inside a RepeatableRead transaction. fn is replayed from the
// start when Postgres reports a serialization failure, so it must not keep
// state across calls.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := runTx(ctx, pool, fn)
		if err == nil || !IsSerializationFailure(err) {
			return err
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("%w: %v", ErrTxConflict, lastErr)
}

func runTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}
	return nil
}
