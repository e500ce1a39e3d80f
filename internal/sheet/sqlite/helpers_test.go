// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dicebot/dicebot/internal/sheet"
	"github.com/dicebot/dicebot/internal/sheet/sqlite"
	"github.com/dicebot/dicebot/internal/store"
)

// openTestDB returns a migrated database in a fresh temp directory.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sheet.db")

	migrationDB, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	migrator, err := store.NewSQLiteMigrator(migrationDB)
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Close())

	db, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fixture struct {
	db     *sql.DB
	owners *sqlite.OwnerRepository
	attrs  *sqlite.AttributeStore
	aria   *sheet.Owner
}

func newFixture(t *testing.T, policy sheet.NamePolicy) *fixture {
	t.Helper()
	db := openTestDB(t)
	owners := sqlite.NewOwnerRepository(db)
	aria, err := owners.Bind(context.Background(), "caller-1", "guild-1", "Aria")
	require.NoError(t, err)
	return &fixture{
		db:     db,
		owners: owners,
		attrs:  sqlite.NewAttributeStore(db, policy),
		aria:   aria,
	}
}
