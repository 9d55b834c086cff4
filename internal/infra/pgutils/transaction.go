package pgutils

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type TxOptions struct {
	// LockTimeout bounds every lock wait inside the transaction
	// (SET LOCAL lock_timeout). Zero keeps the server default.
	LockTimeout time.Duration
	Isolation   sql.IsolationLevel
}

// WithTx runs fn inside a transaction.
// It commits if fn returns nil, otherwise it rolls back.
// Errors are passed through Classify so callers can test for ErrLockTimeout
// and ErrUnavailable.
func WithTx(ctx context.Context, db *sql.DB, opts TxOptions, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: opts.Isolation})
	if err != nil {
		return fmt.Errorf("begin tx: %w", Classify(err))
	}

	if opts.LockTimeout > 0 {
		_, err = tx.ExecContext(ctx,
			`SELECT set_config('lock_timeout', $1, true)`,
			lockTimeoutSetting(opts.LockTimeout),
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("set lock timeout: %w", Classify(err))
		}
	}

	err = fn(tx)
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			return fmt.Errorf("rollback after fn error: %v (fn err: %w)", rbErr, Classify(err))
		}

		return fmt.Errorf("fn: %w", Classify(err))
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", Classify(err))
	}

	return nil
}

// lockTimeoutSetting renders d for lock_timeout in whole milliseconds,
// rounding up. Postgres reads 0 as "no timeout", so any positive d
// becomes at least 1ms.
func lockTimeoutSetting(d time.Duration) string {
	ms := (d + time.Millisecond - 1) / time.Millisecond

	return fmt.Sprintf("%dms", max(ms, 1))
}
