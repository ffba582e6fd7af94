package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "candlepin/pkg/domain-errors"
	txcontext "candlepin/pkg/platform/tx"
)

const defaultComplianceTxTimeout = 5 * time.Second

// compliancePostgresTx runs a status update and its outbox event in one
// transaction. Stores pick the transaction up from context.
type compliancePostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newCompliancePostgresTx(db *sql.DB, timeout time.Duration) *compliancePostgresTx {
	return &compliancePostgresTx{db: db, timeout: timeout}
}

func (t *compliancePostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, nested := txcontext.From(ctx); nested {
		return fn(ctx)
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultComplianceTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
