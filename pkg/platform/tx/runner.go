package tx

import (
	"context"
	"database/sql"
	"time"
)

const defaultTimeout = 5 * time.Second

// Runner executes fn atomically. Stores that honor a context-carried
// transaction see every write inside fn as one all-or-nothing unit.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PostgresRunner wraps fn in a database transaction and carries it on the
// context for tx-aware stores.
type PostgresRunner struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresRunner(db *sql.DB) *PostgresRunner {
	return &PostgresRunner{db: db}
}

func (r *PostgresRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = dbtx.Rollback()
	}()

	if err := fn(WithTx(ctx, dbtx)); err != nil {
		return err
	}
	return dbtx.Commit()
}

// NopRunner calls fn directly. In-memory stores take a coarse lock per
// store, which is enough for tests and single-process use.
type NopRunner struct{}

func (NopRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
