// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package command

import (
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"

	"github.com/dicebot/dicebot/internal/sheet"
	"github.com/dicebot/dicebot/pkg/errutil"
)

func TestErrorConstructors(t *testing.T) {
	err := ErrUnknownCommand("potion")
	errutil.AssertErrorCode(t, err, CodeUnknownCommand)
	errutil.AssertErrorContext(t, err, "command", "potion")

	err = ErrInvalidArgs("spell rename", "spell rename <name> <new name>")
	errutil.AssertErrorCode(t, err, CodeInvalidArgs)
	errutil.AssertErrorContext(t, err, "usage", "spell rename <name> <new name>")

	err = ErrRateLimited(1500)
	errutil.AssertErrorCode(t, err, CodeRateLimited)
	errutil.AssertErrorContext(t, err, "cooldown_ms", int64(1500))

	err = ErrNoSuchCharacter("Nobody")
	errutil.AssertErrorCode(t, err, CodeNoSuchCharacter)
	errutil.AssertErrorContext(t, err, "name", "Nobody")
}

func TestPlayerMessage(t *testing.T) {
	owner := &sheet.Owner{ID: ulid.Make(), Name: "Aria"}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "Something went wrong. Try again."},
		{"plain error", errors.New("boom"), "Something went wrong. Try again."},
		{"uncoded oops error", oops.Errorf("boom"), "Something went wrong. Try again."},
		{"unknown command", ErrUnknownCommand("potion"), "Unknown command. Try 'help'."},
		{"usage", ErrInvalidArgs("spell add", "spell add <name> <level>"), "Usage: spell add <name> <level>"},
		{"usage without text", ErrInvalidArgs("spell add", ""), "Invalid arguments."},
		{"rate limited", ErrRateLimited(10), "Too many commands. Please slow down."},
		{"not bound", sheet.NotBound("caller-1", "guild-1"), "You have no character here. Use 'character bind <name>' first."},
		{
			"not found names the owner",
			withOwner(sheet.NotFound(owner.ID, sheet.KindSpell, "Icebolt"), owner),
			"Aria has no spell named Icebolt",
		},
		{
			"not found without owner",
			sheet.NotFound(owner.ID, sheet.KindConstant, "Luck"),
			"Your character has no constant named Luck",
		},
		{
			"duplicate spell",
			withOwner(sheet.DuplicateName(owner.ID, sheet.KindSpell, "Icebolt"), owner),
			"Aria already has a spell named Icebolt",
		},
		{
			"duplicate information block takes an",
			withOwner(sheet.DuplicateName(owner.ID, sheet.KindInformation, "Backstory"), owner),
			"Aria already has an information block named Backstory",
		},
		{"validation", sheet.ValidateName(""), "Invalid name: cannot be empty"},
		{"owner name validation", sheet.ValidateOwnerName(" Aria"), "Invalid owner name: cannot have leading or trailing spaces"},
		{"wrong field for kind", sheet.WithLevel(2).Validate(sheet.KindConstant), "Invalid level: not supported for constant"},
		{
			"invalid filter",
			oops.Code(sheet.CodeInvalidFilter).With("filter", "level ~").Errorf("unexpected end of input"),
			"Invalid filter: unexpected end of input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlayerMessage(tt.err))
		})
	}
}

func TestWithOwner(t *testing.T) {
	assert.NoError(t, withOwner(nil, &sheet.Owner{Name: "Aria"}))

	err := errors.New("boom")
	assert.Same(t, err, withOwner(err, nil))

	wrapped := withOwner(sheet.NotBound("c", "s"), &sheet.Owner{Name: "Aria"})
	errutil.AssertErrorCode(t, wrapped, sheet.CodeOwnerNotBound)
	errutil.AssertErrorContext(t, wrapped, "owner_name", "Aria")
}
