// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package command

import (
	"github.com/dicebot/dicebot/internal/sheet"
)

// GroupCharacter is the group for binding and listing characters.
const GroupCharacter = "character"

var kindGroupAliases = map[sheet.Kind][]string{
	sheet.KindConstant:    {"const"},
	sheet.KindVariable:    {"var"},
	sheet.KindSpell:       nil,
	sheet.KindInformation: {"info"},
}

// NewDefaultRegistry returns a registry holding every character sheet command.
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := RegisterDefaults(r); err != nil {
		return nil, err
	}
	return r, nil
}

// RegisterDefaults registers the attribute groups (one per kind) and the
// character group.
func RegisterDefaults(r *Registry) error {
	if err := r.RegisterGroup(GroupCharacter, "char"); err != nil {
		return err
	}
	for _, kind := range sheet.Kinds {
		if err := r.RegisterGroup(string(kind), kindGroupAliases[kind]...); err != nil {
			return err
		}
		for _, e := range kindEntries(kind) {
			e.Groups = []string{string(kind)}
			if err := r.Register(e); err != nil {
				return err
			}
		}
	}

	for _, e := range []Entry{
		{Name: "bind", Usage: "<name...>", Help: "Play the named character, creating it if needed", Handler: handleBind},
		{Name: "show", Help: "Show which character you are playing", Handler: handleShow},
		Entry{Name: "list", Help: "List the characters on this server", Handler: handleCharacters},
	} {
		e.Groups = []string{GroupCharacter}
		if err := r.Register(e); err != nil {
			return err
		}
	}
	return nil
}

func kindEntries(kind sheet.Kind) []Entry {
	noun := kind.Noun()
	plural := pluralNoun(kind)
	var entries []Entry
	if kind == sheet.KindInformation {
		// Adding an information block never overwrites one; set replaces the text.
		entries = []Entry{
			{Name: "add", Aliases: []string{"create"}, Usage: payloadUsage(kind), Help: "Add a new " + noun + ", failing if the name is taken", Handler: handleCreate},
			{Name: "set", Aliases: []string{"update"}, Usage: payloadUsage(kind), Help: "Add or replace " + withArticle(noun), Handler: handleAdd},
		}
	} else {
		entries = []Entry{
			{Name: "add", Aliases: []string{"set", "update"}, Usage: payloadUsage(kind), Help: "Add or update " + withArticle(noun), Handler: handleAdd},
			{Name: "create", Usage: payloadUsage(kind), Help: "Add a new " + noun + ", failing if the name is taken", Handler: handleCreate},
		}
	}
	entries = append(entries,
		Entry{Name: "check", Aliases: []string{"get"}, Usage: "<name...>", Help: "Show " + withArticle(noun), Handler: handleCheck},
		Entry{Name: "list", Help: "List your " + plural, Handler: handleList},
		Entry{Name: "rename", Usage: "<name> <new name>", Help: "Rename " + withArticle(noun), Handler: handleRename},
		Entry{Name: "remove", Aliases: []string{"delete"}, Usage: "<name...>", Help: "Delete " + withArticle(noun), Handler: handleRemove},
		Entry{Name: "filter", Usage: "<expression>", Help: "List your " + plural + " matching an expression, e.g. name ~ \"fire*\"", Handler: handleFilter},
		Entry{Name: "inspect", Usage: "<character...>", Help: "List another character's " + plural, Handler: handleInspect},
	)
	if kind.HasLevel() {
		entries = append(entries,
			Entry{Name: "setlevel", Usage: "<level> <name...>", Help: "Change " + withArticle(noun) + "'s level", Handler: handleSetLevel},
			Entry{Name: "level", Usage: "<level>", Help: "List your " + plural + " of one level", Handler: handleLevel},
		)
	}
	if kind.HasDescription() {
		entries = append(entries,
			Entry{Name: "description", Aliases: []string{"desc"}, Usage: "<name> <description...>", Help: "Set " + withArticle(noun) + "'s description", Handler: handleDescription},
			Entry{Name: "removedescription", Aliases: []string{"rmdesc"}, Usage: "<name...>", Help: "Clear " + withArticle(noun) + "'s description", Handler: handleRemoveDescription},
		)
	}
	return entries
}
