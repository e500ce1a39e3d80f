// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

// Package command provides the chat command registry, parser, and dispatch
// system that fronts the character sheet service.
package command

import (
	"context"
	"io"

	"github.com/dicebot/dicebot/internal/sheet"
)

// Handler is the function signature for command handlers.
type Handler func(ctx context.Context, exec *Execution) error

// Entry is a subcommand registered under one or more groups.
type Entry struct {
	Name    string   // canonical subcommand name (e.g., "rename")
	Aliases []string // alternative names (e.g., "delete" for "remove")
	Groups  []string // canonical groups the subcommand belongs to
	Usage   string   // argument pattern (e.g., "<name> <new name>")
	Help    string   // short description (one line)
	Handler Handler
}

// Execution carries everything a handler needs for one command.
type Execution struct {
	CallerID  string
	ScopeID   string
	Group     string     // canonical group the command was invoked under
	Kind      sheet.Kind // set when Group names an attribute kind
	InvokedAs string     // subcommand word as typed
	Args      []string
	Rest      string // argument text as typed, for free-form input
	Output    io.Writer
	Service   *sheet.Service
	PageSize  int    // listing block size in characters
	UsageLine string // full usage, set by the dispatcher
}

// Owner resolves the caller's active character.
func (e *Execution) Owner(ctx context.Context) (*sheet.Owner, error) {
	return e.Service.ResolveOwner(ctx, e.CallerID, e.ScopeID)
}

// InvalidArgs returns the usage error for the running command.
func (e *Execution) InvalidArgs() error {
	return ErrInvalidArgs(e.Group+" "+e.InvokedAs, e.UsageLine)
}
