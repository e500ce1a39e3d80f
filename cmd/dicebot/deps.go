// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package main

import (
	"context"
	"io"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/oops"

	"github.com/dicebot/dicebot/internal/observability"
	"github.com/dicebot/dicebot/internal/sheet"
	sheetpg "github.com/dicebot/dicebot/internal/sheet/postgres"
	"github.com/dicebot/dicebot/internal/sheet/sqlite"
	"github.com/dicebot/dicebot/internal/store"
	"github.com/dicebot/dicebot/internal/xdg"
)

// Deps contains injectable dependencies for the subcommands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// BackendFactory opens the configured database and builds a sheet service.
	// Default: openBackend
	BackendFactory func(ctx context.Context, cfg *Config) (*Backend, error)

	// MigratorFactory opens a schema migrator for the configured database.
	// Default: openMigrator
	MigratorFactory func(ctx context.Context, cfg *Config) (Migrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, registrars ...observability.Registrar) ObservabilityServer

	// Stdin is the console's input.
	// Default: os.Stdin
	Stdin io.Reader
}

func (d *Deps) withDefaults() *Deps {
	out := &Deps{}
	if d != nil {
		*out = *d
	}
	if out.BackendFactory == nil {
		out.BackendFactory = openBackend
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = openMigrator
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, registrars ...observability.Registrar) ObservabilityServer {
			return observability.NewServer(addr, ready, registrars...)
		}
	}
	if out.Stdin == nil {
		out.Stdin = os.Stdin
	}
	return out
}

// Backend is an open database with the service built over it.
type Backend struct {
	Service *sheet.Service
	Ping    func(ctx context.Context) error
	Close   func()
}

// AutoMigrator applies pending migrations before a long-running command starts.
type AutoMigrator interface {
	Up() error
	Close() error
}

// Migrator wraps the methods the migrate subcommands use from store.Migrator.
type Migrator interface {
	AutoMigrator
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	AppliedMigrations() ([]uint, error)
	Dialect() store.Dialect
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

func namePolicy(cfg *Config) sheet.NamePolicy {
	if cfg.CaseInsensitive {
		return sheet.CaseInsensitive
	}
	return sheet.CaseSensitive
}

// openBackend connects to the configured driver.
func openBackend(ctx context.Context, cfg *Config) (*Backend, error) {
	policy := namePolicy(cfg)
	switch cfg.Driver {
	case "postgres":
		pool, err := sheetpg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		svc := sheet.NewService(sheet.ServiceConfig{
			Owners:     sheetpg.NewOwnerRepository(pool),
			Attributes: sheetpg.NewAttributeStore(pool, policy),
			NamePolicy: policy,
			Logger:     slog.Default(),
		})
		return &Backend{Service: svc, Ping: pool.Ping, Close: pool.Close}, nil
	case "sqlite":
		db, err := openSQLite(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		svc := sheet.NewService(sheet.ServiceConfig{
			Owners:     sqlite.NewOwnerRepository(db),
			Attributes: sqlite.NewAttributeStore(db, policy),
			NamePolicy: policy,
			Logger:     slog.Default(),
		})
		return &Backend{
			Service: svc,
			Ping:    db.PingContext,
			Close: func() {
				if err := db.Close(); err != nil {
					slog.Debug("error closing database", "error", err)
				}
			},
		}, nil
	default:
		return nil, oops.Code("CONFIG_INVALID").With("driver", cfg.Driver).Errorf("unsupported driver %q", cfg.Driver)
	}
}

// openMigrator builds a migrator for the configured driver. The sqlite
// migrator owns a connection of its own, closed with the migrator.
func openMigrator(ctx context.Context, cfg *Config) (Migrator, error) {
	switch cfg.Driver {
	case "postgres":
		m, err := store.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "sqlite":
		db, err := openSQLite(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		m, err := store.NewSQLiteMigrator(db)
		if err != nil {
			_ = db.Close() //nolint:errcheck // init error takes precedence
			return nil, err
		}
		return m, nil
	default:
		return nil, oops.Code("CONFIG_INVALID").With("driver", cfg.Driver).Errorf("unsupported driver %q", cfg.Driver)
	}
}

// openSQLite creates the database's parent directory before opening it.
func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return sqlite.Open(ctx, path)
}
