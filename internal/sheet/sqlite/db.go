// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

// Package sqlite implements the sheet repositories on an embedded SQLite
// database, for single-node deployments and tests.
package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/oops"
	// Register the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

// DSN builds a connection string for the database file at path.
// Every connection enforces foreign keys and takes the write lock when a
// transaction begins, so read-modify-write sequences never interleave.
func DSN(path string) string {
	return "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_txlock=immediate"
}

// Open opens the database at path and verifies it with a ping.
// The schema is applied separately by store.NewSQLiteMigrator.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, oops.Code("DB_CONNECT_FAILED").With("driver", "sqlite").Errorf("database path is required")
	}
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("driver", "sqlite").With("path", path).Wrap(err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // ping error takes precedence
		return nil, oops.Code("DB_CONNECT_FAILED").With("driver", "sqlite").With("operation", "ping").Wrap(err)
	}
	return db, nil
}

// querier abstracts query execution for both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// querierFromCtx returns the transaction stored by Transactor, or db when
// the call is not inside a transaction.
func querierFromCtx(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// nullableString maps "" to SQL NULL; absent and empty descriptions are the same.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
