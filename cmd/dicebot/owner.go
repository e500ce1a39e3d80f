// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package main

import (
	"context"
	"strings"
	"time"

	"github.com/rodaine/table"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dicebot/dicebot/internal/logging"
	"github.com/dicebot/dicebot/internal/sheet"
)

// identity is the caller a one-shot CLI command acts as.
type identity struct {
	callerID string
	scopeID  string
}

func (id *identity) addFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&id.callerID, "caller", "", "caller (chat user) ID")
	cmd.PersistentFlags().StringVar(&id.scopeID, "scope", "", "scope (chat server) ID")
}

func (id *identity) requireScope() error {
	if strings.TrimSpace(id.scopeID) == "" {
		return oops.Code("CONFIG_INVALID").Errorf("--scope is required")
	}
	return nil
}

func (id *identity) requireCaller() error {
	if err := id.requireScope(); err != nil {
		return err
	}
	if strings.TrimSpace(id.callerID) == "" {
		return oops.Code("CONFIG_INVALID").Errorf("--caller is required")
	}
	return nil
}

// withService loads configuration, opens the backend, and runs fn with
// the sheet service under the configured timeout.
func withService(cmd *cobra.Command, deps *Deps, id *identity, fn func(ctx context.Context, svc *sheet.Service) error) error {
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
	ctx = logging.WithRequest(ctx, id.callerID, id.scopeID)

	backend, err := deps.BackendFactory(ctx, cfg)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Driver).Wrap(err)
	}
	defer backend.Close()
	return fn(ctx, backend.Service)
}

// newOwnerCmd creates the owner subcommand.
func newOwnerCmd(deps *Deps) *cobra.Command {
	id := &identity{}
	cmd := &cobra.Command{
		Use:     "owner",
		Aliases: []string{"character"},
		Short:   "Manage characters and caller bindings",
	}
	id.addFlags(cmd)

	bind := &cobra.Command{
		Use:   "bind <name...>",
		Short: "Bind the caller to a character, creating it if needed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := id.requireCaller(); err != nil {
				return err
			}
			return withService(cmd, deps, id, func(ctx context.Context, svc *sheet.Service) error {
				owner, err := svc.BindOwner(ctx, id.callerID, id.scopeID, strings.Join(args, " "))
				if err != nil {
					return err
				}
				cmd.Printf("Caller %s now plays %s in %s\n", id.callerID, owner.Name, id.scopeID)
				return nil
			})
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the character bound to the caller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := id.requireCaller(); err != nil {
				return err
			}
			return withService(cmd, deps, id, func(ctx context.Context, svc *sheet.Service) error {
				owner, err := svc.ResolveOwner(ctx, id.callerID, id.scopeID)
				if err != nil {
					return err
				}
				printOwners(cmd, []*sheet.Owner{owner})
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the characters in a scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := id.requireScope(); err != nil {
				return err
			}
			return withService(cmd, deps, id, func(ctx context.Context, svc *sheet.Service) error {
				owners, err := svc.ListOwners(ctx, id.scopeID)
				if err != nil {
					return err
				}
				if len(owners) == 0 {
					cmd.Println("No characters yet.")
					return nil
				}
				printOwners(cmd, owners)
				return nil
			})
		},
	}

	cmd.AddCommand(bind, show, list)
	return cmd
}

func printOwners(cmd *cobra.Command, owners []*sheet.Owner) {
	tbl := table.New("Name", "ID", "Created").WithWriter(cmd.OutOrStdout())
	for _, o := range owners {
		tbl.AddRow(o.Name, o.ID.String(), o.CreatedAt.UTC().Format(time.RFC3339))
	}
	tbl.Print()
}
