// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rodaine/table"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dicebot/dicebot/internal/store"
)

// newMigrateCmd creates the migrate subcommand.
func newMigrateCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Apply, roll back, and inspect schema migrations for the configured driver.`,
	}

	var steps int
	var all bool

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m Migrator) error {
				return migrateUp(cmd, m)
			})
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (one step by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m Migrator) error {
				return migrateDown(cmd, m, steps, all)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	down.Flags().BoolVar(&all, "all", false, "roll back every migration")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m Migrator) error {
				return migrateStatus(cmd, m)
			})
		},
	}

	force := &cobra.Command{
		Use:   "force <version>",
		Short: "Mark a version as applied without running it",
		Long: `Set the schema version without running migrations. Use only to
recover from a dirty state after repairing the database by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, deps, func(m Migrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				cmd.Printf("Forced schema version to %d\n", version)
				return nil
			})
		},
	}

	cmd.AddCommand(up, down, status, force)
	return cmd
}

// withMigrator loads configuration, opens a migrator, and runs fn with it.
func withMigrator(cmd *cobra.Command, deps *Deps, fn func(m Migrator) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}
	deps = deps.withDefaults()

	ctx, cancel := context.WithTimeout(commandContext(cmd), cfg.Timeout)
	defer cancel()

	m, err := deps.MigratorFactory(ctx, cfg)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").With("driver", cfg.Driver).Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			slog.Debug("error closing migrator", "error", closeErr)
		}
	}()
	return fn(m)
}

func migrateUp(cmd *cobra.Command, m Migrator) error {
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		cmd.Println("Schema is up to date")
		return nil
	}
	cmd.Printf("Applying %d migration(s)...\n", len(pending))
	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func migrateDown(cmd *cobra.Command, m Migrator, steps int, all bool) error {
	if all {
		if err := m.Down(); err != nil {
			return err
		}
		cmd.Println("Rolled back all migrations")
		return nil
	}
	if steps < 1 {
		return oops.Code("INVALID_STEPS").With("steps", steps).Errorf("steps must be at least 1")
	}
	if err := m.Steps(-steps); err != nil {
		return err
	}
	cmd.Printf("Rolled back %d migration(s)\n", steps)
	return nil
}

func migrateStatus(cmd *cobra.Command, m Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	applied, err := m.AppliedMigrations()
	if err != nil {
		return err
	}
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}

	cmd.Printf("Driver: %s\n", m.Dialect())
	state := fmt.Sprintf("Version: %d", version)
	if dirty {
		state += " (dirty)"
	}
	cmd.Println(state)

	tbl := table.New("Version", "Name", "State").WithWriter(cmd.OutOrStdout())
	for _, group := range []struct {
		versions []uint
		state    string
	}{{applied, "applied"}, {pending, "pending"}} {
		for _, v := range group.versions {
			name, err := store.MigrationName(m.Dialect(), v)
			if err != nil {
				return err
			}
			tbl.AddRow(v, name, group.state)
		}
	}
	tbl.Print()
	return nil
}

// parseForceVersion reads the version argument of migrate force.
func parseForceVersion(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, oops.Code("INVALID_VERSION").Errorf("version is required")
	}
	var version int
	if _, err := fmt.Sscanf(s, "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Wrap(err)
	}
	return version, nil
}

// commandContext returns the command's context, or Background outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
