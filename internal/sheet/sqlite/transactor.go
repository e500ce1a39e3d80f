// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dicebot/dicebot/internal/sheet"
)

const (
	defaultMaxRetries  = 5
	defaultRetryBase   = 10 * time.Millisecond
	defaultRetryJitter = 5 * time.Millisecond
)

// Transactor implements sheet.Transactor on a *sql.DB. The active *sql.Tx
// travels in the context; nested calls join it. A transaction that fails
// because the database is busy is rolled back and rerun.
type Transactor struct {
	db         *sql.DB
	maxRetries uint64
}

// NewTransactor creates a Transactor backed by db.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db, maxRetries: defaultMaxRetries}
}

// InTransaction runs fn in a transaction, committing when fn returns nil.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	backoff := retry.WithJitter(defaultRetryJitter,
		retry.WithMaxRetries(t.maxRetries, retry.NewExponential(defaultRetryBase)))

	//nolint:wrapcheck // errors from fn carry their own codes
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := t.once(ctx, fn)
		if isBusy(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (t *Transactor) once(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// isBusy reports whether err is lock contention that succeeds on rerun.
func isBusy(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code() & 0xff
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY conflict.
func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// Compile-time interface check.
var _ sheet.Transactor = (*Transactor)(nil)
