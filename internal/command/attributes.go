// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dicebot/dicebot/internal/sheet"
	"github.com/dicebot/dicebot/internal/sheet/query"
)

// payloadUsage is the argument pattern for add and create.
func payloadUsage(kind sheet.Kind) string {
	switch kind {
	case sheet.KindSpell:
		return "<name> <level> [description...]"
	case sheet.KindInformation:
		return "<name> <description...>"
	default:
		return "<name> <value>"
	}
}

// parsePayload reads "<name> <payload...>" for kind.
func parsePayload(exec *Execution) (string, sheet.Fields, error) {
	args := exec.Args
	if len(args) < 2 {
		return "", sheet.Fields{}, exec.InvalidArgs()
	}
	name := args[0]
	switch exec.Kind {
	case sheet.KindSpell:
		level, err := strconv.Atoi(args[1])
		if err != nil {
			return "", sheet.Fields{}, exec.InvalidArgs()
		}
		f := sheet.WithLevel(level)
		if len(args) > 2 {
			f.Description = sheet.Ptr(strings.Join(args[2:], " "))
		}
		return name, f, nil
	case sheet.KindInformation:
		return name, sheet.WithDescription(strings.Join(args[1:], " ")), nil
	default:
		if len(args) != 2 {
			return "", sheet.Fields{}, exec.InvalidArgs()
		}
		value, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return "", sheet.Fields{}, exec.InvalidArgs()
		}
		return name, sheet.WithValue(value), nil
	}
}

// restName joins all arguments into one name, so quotes are optional:
// `spell check Magic Missile` and `spell check "Magic Missile"` agree.
func restName(exec *Execution, from int) (string, error) {
	if len(exec.Args) <= from {
		return "", exec.InvalidArgs()
	}
	return strings.Join(exec.Args[from:], " "), nil
}

func handleAdd(ctx context.Context, exec *Execution) error {
	return write(ctx, exec, exec.Service.UpsertAttribute)
}

func handleCreate(ctx context.Context, exec *Execution) error {
	return write(ctx, exec, exec.Service.CreateAttribute)
}

type writeFunc func(ctx context.Context, owner *sheet.Owner, kind sheet.Kind, name string, f sheet.Fields) (*sheet.Attribute, error)

func write(ctx context.Context, exec *Execution, fn writeFunc) error {
	name, f, err := parsePayload(exec)
	if err != nil {
		return err
	}
	owner, err := exec.Owner(ctx)
	if err != nil {
		return err
	}
	attr, err := fn(ctx, owner, exec.Kind, name, f)
	if err != nil {
		return withOwner(err, owner)
	}
	writeOutputf(ctx, exec, "%s now has %s", owner.Name, attr)
	return nil
}

func handleCheck(ctx context.Context, exec *Execution) error {
	name, err := restName(exec, 0)
	if err != nil {
		return err
	}
	owner, err := exec.Owner(ctx)
	if err != nil {
		return err
	}
	attr, err := exec.Service.GetAttribute(ctx, owner, exec.Kind, name)
	if err != nil {
		return withOwner(err, owner)
	}
	if attr == nil {
		return withOwner(sheet.NotFound(owner.ID, exec.Kind, name), owner)
	}
	lines := []string{attr.String()}
	if attr.Description != "" {
		lines = append(lines, attr.Description)
	}
	writeLines(ctx, exec.Output, exec.Group+" check", lines, exec.PageSize)
	return nil
}

func handleList(ctx context.Context, exec *Execution) error {
	if len(exec.Args) != 0 {
		return exec.InvalidArgs()
	}
	owner, err := exec.Owner(ctx)
	if err != nil {
		return err
	}
	return listFor(ctx, exec, owner, nil, "")
}

// listFor renders owner's attributes of the execution's kind matching p.
func listFor(ctx context.Context, exec *Execution, owner *sheet.Owner, p sheet.Predicate, qualifier string) error {
	attrs, err := exec.Service.FilterAttributes(ctx, owner, exec.Kind, p)
	if err != nil {
		return withOwner(err, owner)
	}
	plural := pluralNoun(exec.Kind)
	if qualifier != "" {
		plural = qualifier + " " + plural
	}
	if len(attrs) == 0 {
		writeOutputf(ctx, exec, "%s has no %s.", owner.Name, plural)
		return nil
	}
	lines := []string{fmt.Sprintf("%s's %s:", owner.Name, plural)}
	for _, a := range attrs {
		lines = append(lines, a.String())
		for _, d := range strings.Split(a.Description, "\n") {
			if d != "" {
				lines = append(lines, "    "+d)
			}
		}
	}
	writeLines(ctx, exec.Output, exec.Group+" "+exec.InvokedAs, lines, exec.PageSize)
	return nil
}

func pluralNoun(kind sheet.Kind) string {
	return kind.Noun() + "s"
}

func handleRename(ctx context.Context, exec *Execution) error {
	if len(exec.Args) != 2 {
		return exec.InvalidArgs()
	}
	owner, err := exec.Owner(ctx)
	if err != nil {
		return err
	}
	attr, err := exec.Service.RenameAttribute(ctx, owner, exec.Kind, exec.Args[0], exec.Args[1])
	if err != nil {
		return withOwner(err, owner)
	}
	writeOutputf(ctx, exec, "%s now has %s", owner.Name, attr)
	return nil
}

func handleRemove(ctx context.Context, exec *Execution) error {
	name, err := restName(exec, 0)
	if err != nil {
		return err
	}
	owner, err := exec.Owner(ctx)
	if err != nil {
		return err
	}
	attr, err := exec.Service.RemoveAttribute(ctx, owner, exec.Kind, name)
	if err != nil {
		return withOwner(err, owner)
	}
	writeOutputf(ctx, exec, "%s no longer has %s", owner.Name, attr)
	return nil
}

func handleSetLevel(ctx context.Context, exec *Execution) error {
	if len(exec.Args) < 2 {
		return exec.InvalidArgs()
	}
	level, err := strconv.Atoi(exec.Args[0])
	if err != nil {
		return exec.InvalidArgs()
	}
	name, err := restName(exec, 1)
	if err != nil {
		return err
	}
	return update(ctx, exec, name, sheet.WithLevel(level))
}

func handleLevel(ctx context.Context, exec *Execution) error {
	if len(exec.Args) != 1 {
		return exec.InvalidArgs()
	}
	level, err := strconv.Atoi(exec.Args[0])
	if err != nil {
		return exec.InvalidArgs()
	}
	owner, err := exec.Owner(ctx)
	if err != nil {
		return err
	}
	return listFor(ctx, exec, owner, sheet.AtLevel(level), fmt.Sprintf("level %d", level))
}

func handleDescription(ctx context.Context, exec *Execution) error {
	if len(exec.Args) < 2 {
		return exec.InvalidArgs()
	}
	return update(ctx, exec, exec.Args[0], sheet.WithDescription(strings.Join(exec.Args[1:], " ")))
}

func handleRemoveDescription(ctx context.Context, exec *Execution) error {
	name, err := restName(exec, 0)
	if err != nil {
		return err
	}
	return update(ctx, exec, name, sheet.WithDescription(""))
}

func update(ctx context.Context, exec *Execution, name string, f sheet.Fields) error {
	owner, err := exec.Owner(ctx)
	if err != nil {
		return err
	}
	attr, err := exec.Service.UpdateAttribute(ctx, owner, exec.Kind, name, f)
	if err != nil {
		return withOwner(err, owner)
	}
	writeOutputf(ctx, exec, "%s now has %s", owner.Name, attr)
	return nil
}

func handleFilter(ctx context.Context, exec *Execution) error {
	if strings.TrimSpace(exec.Rest) == "" {
		return exec.InvalidArgs()
	}
	p, err := query.Compile(exec.Rest, exec.Service.NamePolicy())
	if err != nil {
		return err
	}
	owner, err := exec.Owner(ctx)
	if err != nil {
		return err
	}
	return listFor(ctx, exec, owner, p, "matching")
}

func handleInspect(ctx context.Context, exec *Execution) error {
	name, err := restName(exec, 0)
	if err != nil {
		return err
	}
	target, err := exec.Service.FindOwnerByName(ctx, name, exec.ScopeID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNoSuchCharacter(name)
	}
	return listFor(ctx, exec, target, nil, "")
}
