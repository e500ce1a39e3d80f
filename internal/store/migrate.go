// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

// Package store applies the embedded dicebot schema to PostgreSQL or SQLite.
package store

import (
	"cmp"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Dialect selects the migration set for a database engine.
type Dialect string

// Supported dialects.
const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

func (d Dialect) dir() string {
	return path.Join("migrations", string(d))
}

// Migration is one embedded schema step.
type Migration struct {
	Version uint
	Name    string // e.g. "000001_initial"
}

type catalogEntry struct {
	once       sync.Once
	migrations []Migration
	err        error
}

// catalogs holds each dialect's parsed migration list; the embedded FS never changes.
var catalogs = map[Dialect]*catalogEntry{
	Postgres: {},
	SQLite:   {},
}

// Migrations lists the dialect's embedded migrations by ascending version.
// The returned slice is the caller's to modify.
func Migrations(d Dialect) ([]Migration, error) {
	c, ok := catalogs[d]
	if !ok {
		return nil, oops.Code("MIGRATION_UNKNOWN_DIALECT").With("dialect", string(d)).Errorf("unknown dialect %q", d)
	}
	c.once.Do(func() {
		c.migrations, c.err = readCatalog(d)
	})
	if c.err != nil {
		return nil, c.err
	}
	return slices.Clone(c.migrations), nil
}

// readCatalog parses NNNNNN_name.up.sql file names. Any other .up.sql name
// is an error so a misnamed file cannot be silently skipped.
func readCatalog(d Dialect) ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, d.dir())
	if err != nil {
		return nil, oops.Code("MIGRATION_LIST_FAILED").With("dialect", string(d)).Wrap(err)
	}
	var out []Migration
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".up.sql")
		if !ok {
			continue
		}
		var version uint
		if _, err := fmt.Sscanf(name, "%06d_", &version); err != nil {
			return nil, oops.Code("MIGRATION_LIST_FAILED").
				With("dialect", string(d)).
				With("file", entry.Name()).
				Wrapf(err, "migration file must be named NNNNNN_name.up.sql")
		}
		out = append(out, Migration{Version: version, Name: name})
	}
	slices.SortFunc(out, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return out, nil
}

// MigrationName returns the name of the dialect's migration at version,
// or "" when there is none.
func MigrationName(d Dialect, version uint) (string, error) {
	all, err := Migrations(d)
	if err != nil {
		return "", err
	}
	for _, m := range all {
		if m.Version == version {
			return m.Name, nil
		}
	}
	return "", nil
}

// engine is the part of *migrate.Migrate the Migrator drives.
type engine interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator applies one dialect's embedded migrations to a database.
type Migrator struct {
	m       engine
	dialect Dialect
}

// NewMigrator creates a PostgreSQL Migrator. postgres:// and postgresql://
// URLs are accepted and rewritten to the pgx5:// scheme golang-migrate expects.
func NewMigrator(databaseURL string) (*Migrator, error) {
	return newMigrator(Postgres, func(src source.Driver) (*migrate.Migrate, error) {
		return migrate.NewWithSourceInstance("iofs", src, pgx5URL(databaseURL))
	})
}

// NewSQLiteMigrator creates a SQLite Migrator over db.
// The migrator takes ownership of db: Close closes it.
func NewSQLiteMigrator(db *sql.DB) (*Migrator, error) {
	return newMigrator(SQLite, func(src source.Driver) (*migrate.Migrate, error) {
		driver, err := sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			return nil, err
		}
		return migrate.NewWithInstance("iofs", src, "sqlite", driver)
	})
}

func newMigrator(d Dialect, open func(source.Driver) (*migrate.Migrate, error)) (*Migrator, error) {
	src, err := iofs.New(migrationsFS, d.dir())
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").With("dialect", string(d)).Wrap(err)
	}
	m, err := open(src)
	if err != nil {
		_ = src.Close() //nolint:errcheck // init error takes precedence
		return nil, oops.Code("MIGRATION_INIT_FAILED").With("dialect", string(d)).Wrap(err)
	}
	return &Migrator{m: m, dialect: d}, nil
}

func pgx5URL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(databaseURL, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

// Dialect returns the database engine the migrator targets.
func (m *Migrator) Dialect() Dialect {
	return m.dialect
}

// wrap turns golang-migrate's "nothing to do" into success and codes the rest.
func (m *Migrator) wrap(code string, err error) error {
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return oops.Code(code).With("dialect", string(m.dialect)).Wrap(err)
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	return m.wrap("MIGRATION_UP_FAILED", m.m.Up())
}

// Down rolls back every migration, dropping all dicebot tables.
func (m *Migrator) Down() error {
	return m.wrap("MIGRATION_DOWN_FAILED", m.m.Down())
}

// Steps applies n migrations: up when n > 0, down when n < 0.
func (m *Migrator) Steps(n int) error {
	return oops.With("steps", n).Wrap(m.wrap("MIGRATION_STEPS_FAILED", m.m.Steps(n)))
}

// Version returns the applied version and whether the last migration
// failed halfway. An empty database is version 0.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").With("dialect", string(m.dialect)).Wrap(err)
	}
	return version, dirty, nil
}

// Force records version as applied and clean without running anything.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("INVALID_VERSION").With("version", version).Errorf("version must be non-negative")
	}
	if err := m.m.Force(version); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("version", version).Wrap(err)
	}
	return nil
}

// Close releases the migration source and the database handle.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		return oops.Code("MIGRATION_CLOSE_FAILED").With("dialect", string(m.dialect)).Wrap(err)
	}
	return nil
}

// PendingMigrations returns the versions Up would apply, ascending.
func (m *Migrator) PendingMigrations() ([]uint, error) {
	_, pending, err := m.split()
	return pending, oops.With("operation", "get pending migrations").Wrap(err)
}

// AppliedMigrations returns the versions already applied, ascending.
func (m *Migrator) AppliedMigrations() ([]uint, error) {
	applied, _, err := m.split()
	return applied, oops.With("operation", "get applied migrations").Wrap(err)
}

// split partitions the embedded versions around the database's current version.
func (m *Migrator) split() (applied, pending []uint, err error) {
	current, _, err := m.Version()
	if err != nil {
		return nil, nil, err
	}
	all, err := Migrations(m.dialect)
	if err != nil {
		return nil, nil, err
	}
	for _, mig := range all {
		if mig.Version <= current {
			applied = append(applied, mig.Version)
		} else {
			pending = append(pending, mig.Version)
		}
	}
	return applied, pending, nil
}
