// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the dicebot CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

// newRootCmd builds the command tree with deps shared by every subcommand.
func newRootCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dicebot",
		Short: "Dicebot - character sheets for chat role-play",
		Long: `Dicebot keeps per-character constants, variables, spells, and
information blocks for players on chat servers.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	addStoreFlags(cmd)

	cmd.AddCommand(newMigrateCmd(deps))
	cmd.AddCommand(newOwnerCmd(deps))
	cmd.AddCommand(newAttrCmd(deps))
	cmd.AddCommand(newConsoleCmd(deps))

	return cmd
}
