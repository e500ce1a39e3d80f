// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package command

import (
	"context"
)

func handleBind(ctx context.Context, exec *Execution) error {
	name, err := restName(exec, 0)
	if err != nil {
		return err
	}
	owner, err := exec.Service.BindOwner(ctx, exec.CallerID, exec.ScopeID, name)
	if err != nil {
		return err
	}
	writeOutputf(ctx, exec, "You are now playing %s.", owner.Name)
	return nil
}

func handleShow(ctx context.Context, exec *Execution) error {
	if len(exec.Args) != 0 {
		return exec.InvalidArgs()
	}
	owner, err := exec.Owner(ctx)
	if err != nil {
		return err
	}
	writeOutputf(ctx, exec, "You are playing %s.", owner.Name)
	return nil
}

func handleCharacters(ctx context.Context, exec *Execution) error {
	if len(exec.Args) != 0 {
		return exec.InvalidArgs()
	}
	owners, err := exec.Service.ListOwners(ctx, exec.ScopeID)
	if err != nil {
		return err
	}
	if len(owners) == 0 {
		writeOutput(ctx, exec, "No characters yet.")
		return nil
	}
	lines := make([]string, 0, len(owners)+1)
	lines = append(lines, "Characters:")
	for _, o := range owners {
		lines = append(lines, "  "+o.Name)
	}
	writeLines(ctx, exec.Output, "character list", lines, exec.PageSize)
	return nil
}
