// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/dicebot/dicebot/internal/sheet"
)

// Default retry policy for transient transaction conflicts.
const (
	defaultMaxRetries  = 3
	defaultRetryBase   = 10 * time.Millisecond
	defaultRetryJitter = 5 * time.Millisecond
)

// Transactor implements sheet.Transactor on a pgx pool. It stores the active
// pgx.Tx in the context so repository methods called from fn join the same
// transaction. Serialization failures and deadlocks roll back and rerun fn;
// any other error is returned as is.
type Transactor struct {
	db         DB
	maxRetries uint64
}

// NewTransactor creates a Transactor backed by db.
func NewTransactor(db DB) *Transactor {
	return &Transactor{db: db, maxRetries: defaultMaxRetries}
}

// InTransaction begins a transaction, stores it in context, and calls fn.
// If fn returns nil, the transaction is committed. Otherwise it is rolled
// back. A call made inside an active transaction joins it.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	backoff := retry.WithJitter(defaultRetryJitter,
		retry.WithMaxRetries(t.maxRetries, retry.NewExponential(defaultRetryBase)))

	//nolint:wrapcheck // errors from fn carry their own codes
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := t.once(ctx, fn)
		if isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (t *Transactor) once(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// isTransient reports whether err is a conflict that succeeds on rerun.
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}

// isUniqueViolation reports whether err violates the named unique constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == constraint
}

// Compile-time interface check.
var _ sheet.Transactor = (*Transactor)(nil)
