// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package main

import (
	"context"
	"strings"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/dicebot/dicebot/internal/sheet"
	"github.com/dicebot/dicebot/internal/sheet/query"
)

// payloadFlags collects the optional attribute payload of a write.
type payloadFlags struct {
	value       int64
	level       int
	description string
	clearDesc   bool
}

func (p *payloadFlags) add(cmd *cobra.Command, allowClear bool) {
	cmd.Flags().Int64Var(&p.value, "value", 0, "integer value (constant, variable)")
	cmd.Flags().IntVar(&p.level, "level", 0, "spell level")
	cmd.Flags().StringVar(&p.description, "description", "", "description (spell, information)")
	if allowClear {
		cmd.Flags().BoolVar(&p.clearDesc, "clear-description", false, "remove the description")
	}
}

// fields returns only what the user supplied, so an update leaves the
// rest untouched.
func (p *payloadFlags) fields(cmd *cobra.Command) sheet.Fields {
	var f sheet.Fields
	if cmd.Flags().Changed("value") {
		f.Value = sheet.Ptr(p.value)
	}
	if cmd.Flags().Changed("level") {
		f.Level = sheet.Ptr(p.level)
	}
	if cmd.Flags().Changed("description") {
		f.Description = sheet.Ptr(p.description)
	}
	if p.clearDesc {
		f.Description = sheet.Ptr("")
	}
	return f
}

// newAttrCmd creates the attr subcommand.
func newAttrCmd(deps *Deps) *cobra.Command {
	id := &identity{}
	cmd := &cobra.Command{
		Use:   "attr",
		Short: "Read and edit the caller's character sheet",
		Long: `Read and edit the constants, variables, spells, and information
blocks of the character bound to --caller in --scope.`,
	}
	id.addFlags(cmd)

	// run resolves the caller's character and the kind argument before fn.
	run := func(cmd *cobra.Command, kindArg string, fn func(ctx context.Context, svc *sheet.Service, owner *sheet.Owner, kind sheet.Kind) error) error {
		if err := id.requireCaller(); err != nil {
			return err
		}
		kind, err := sheet.ParseKind(kindArg)
		if err != nil {
			return err
		}
		return withService(cmd, deps, id, func(ctx context.Context, svc *sheet.Service) error {
			owner, err := svc.ResolveOwner(ctx, id.callerID, id.scopeID)
			if err != nil {
				return err
			}
			return fn(ctx, svc, owner, kind)
		})
	}

	write := func(use, short string, allowClear bool, op func(svc *sheet.Service) writeOp) *cobra.Command {
		payload := &payloadFlags{}
		c := &cobra.Command{
			Use:   use + " <kind> <name>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, args[0], func(ctx context.Context, svc *sheet.Service, owner *sheet.Owner, kind sheet.Kind) error {
					attr, err := op(svc)(ctx, owner, kind, args[1], payload.fields(cmd))
					if err != nil {
						return err
					}
					printAttributes(cmd, kind, []*sheet.Attribute{attr})
					return nil
				})
			},
		}
		payload.add(c, allowClear)
		return c
	}

	set := write("set", "Create or replace an attribute", false, func(svc *sheet.Service) writeOp { return svc.UpsertAttribute })
	create := write("create", "Create an attribute, failing if the name is taken", false, func(svc *sheet.Service) writeOp { return svc.CreateAttribute })
	update := write("update", "Change the supplied fields of an existing attribute", true, func(svc *sheet.Service) writeOp { return svc.UpdateAttribute })

	get := &cobra.Command{
		Use:   "get <kind> <name>",
		Short: "Show one attribute",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], func(ctx context.Context, svc *sheet.Service, owner *sheet.Owner, kind sheet.Kind) error {
				attr, err := svc.GetAttribute(ctx, owner, kind, args[1])
				if err != nil {
					return err
				}
				if attr == nil {
					return sheet.NotFound(owner.ID, kind, args[1])
				}
				printAttributes(cmd, kind, []*sheet.Attribute{attr})
				return nil
			})
		},
	}

	rename := &cobra.Command{
		Use:   "rename <kind> <name> <new name>",
		Short: "Rename an attribute",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], func(ctx context.Context, svc *sheet.Service, owner *sheet.Owner, kind sheet.Kind) error {
				attr, err := svc.RenameAttribute(ctx, owner, kind, args[1], args[2])
				if err != nil {
					return err
				}
				printAttributes(cmd, kind, []*sheet.Attribute{attr})
				return nil
			})
		},
	}

	rm := &cobra.Command{
		Use:     "rm <kind> <name>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete an attribute",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], func(ctx context.Context, svc *sheet.Service, owner *sheet.Owner, kind sheet.Kind) error {
				attr, err := svc.RemoveAttribute(ctx, owner, kind, args[1])
				if err != nil {
					return err
				}
				cmd.Printf("Removed %s %s\n", kind.Noun(), attr.Name)
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list <kind>",
		Short: "List attributes of one kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], func(ctx context.Context, svc *sheet.Service, owner *sheet.Owner, kind sheet.Kind) error {
				attrs, err := svc.ListAttributes(ctx, owner, kind)
				if err != nil {
					return err
				}
				printAttributes(cmd, kind, attrs)
				return nil
			})
		},
	}

	filter := &cobra.Command{
		Use:   "filter <kind> <expression...>",
		Short: "List attributes matching an expression",
		Long: `List attributes matching a filter expression, for example:

  dicebot attr filter spell 'level >= 2 and name ~ "fire*"'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], func(ctx context.Context, svc *sheet.Service, owner *sheet.Owner, kind sheet.Kind) error {
				p, err := query.Compile(strings.Join(args[1:], " "), svc.NamePolicy())
				if err != nil {
					return err
				}
				attrs, err := svc.FilterAttributes(ctx, owner, kind, p)
				if err != nil {
					return err
				}
				printAttributes(cmd, kind, attrs)
				return nil
			})
		},
	}

	cmd.AddCommand(set, create, update, get, rename, rm, list, filter)
	return cmd
}

type writeOp func(ctx context.Context, owner *sheet.Owner, kind sheet.Kind, name string, f sheet.Fields) (*sheet.Attribute, error)

// printAttributes renders attrs as a table with the columns kind carries.
func printAttributes(cmd *cobra.Command, kind sheet.Kind, attrs []*sheet.Attribute) {
	if len(attrs) == 0 {
		cmd.Printf("No %ss.\n", kind.Noun())
		return
	}
	headers := []interface{}{"Name"}
	if kind.HasValue() {
		headers = append(headers, "Value")
	}
	if kind.HasLevel() {
		headers = append(headers, "Level")
	}
	if kind.HasDescription() {
		headers = append(headers, "Description")
	}
	tbl := table.New(headers...).WithWriter(cmd.OutOrStdout())
	for _, a := range attrs {
		row := []interface{}{a.Name}
		if kind.HasValue() {
			row = append(row, a.Value)
		}
		if kind.HasLevel() {
			row = append(row, a.Level)
		}
		if kind.HasDescription() {
			row = append(row, strings.ReplaceAll(a.Description, "\n", " "))
		}
		tbl.AddRow(row...)
	}
	tbl.Print()
}
