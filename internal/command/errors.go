// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"

	"github.com/dicebot/dicebot/internal/sheet"
)

// Error codes for command dispatch failures.
const (
	CodeEmptyInput      = "EMPTY_INPUT"
	CodeUnknownCommand  = "UNKNOWN_COMMAND"
	CodeUnknownGroup    = "UNKNOWN_GROUP"
	CodeInvalidArgs     = "INVALID_ARGS"
	CodeInvalidName     = "INVALID_NAME"
	CodeRateLimited     = "RATE_LIMITED"
	CodeNilDependency   = "NIL_DEPENDENCY"
	CodeNoSuchCharacter = "NO_SUCH_CHARACTER"
)

// ErrUnknownCommand creates an error for an unknown group or subcommand.
func ErrUnknownCommand(cmd string) error {
	return oops.Code(CodeUnknownCommand).
		With("command", cmd).
		Errorf("unknown command: %s", cmd)
}

// ErrUnknownGroup creates an error for registering under an undeclared group.
func ErrUnknownGroup(group string) error {
	return oops.Code(CodeUnknownGroup).
		With("group", group).
		Errorf("unknown command group: %s", group)
}

// ErrInvalidArgs creates an error for invalid arguments.
func ErrInvalidArgs(cmd, usage string) error {
	return oops.Code(CodeInvalidArgs).
		With("command", cmd).
		With("usage", usage).
		Errorf("invalid arguments")
}

// ErrRateLimited creates an error for rate limiting.
func ErrRateLimited(cooldownMs int64) error {
	return oops.Code(CodeRateLimited).
		With("cooldown_ms", cooldownMs).
		Errorf("Too many commands. Please slow down.")
}

// ErrNoSuchCharacter creates an error for inspecting a name the scope lacks.
func ErrNoSuchCharacter(name string) error {
	return oops.Code(CodeNoSuchCharacter).
		With("name", name).
		Errorf("no character named %s", name)
}

// ErrNilService is returned when a dispatcher is built without a service.
var ErrNilService = oops.Code(CodeNilDependency).Errorf("sheet service is required")

// ErrNilRegistry is returned when a dispatcher is built without a registry.
var ErrNilRegistry = oops.Code(CodeNilDependency).Errorf("command registry is required")

// withOwner attaches the character name to err so PlayerMessage can name it.
func withOwner(err error, owner *sheet.Owner) error {
	if err == nil || owner == nil {
		return err
	}
	return oops.With("owner_name", owner.Name).Wrap(err)
}

// PlayerMessage extracts a player-facing message from an error.
func PlayerMessage(err error) string {
	const fallback = "Something went wrong. Try again."
	if err == nil {
		return fallback
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return fallback
	}
	ctx := oopsErr.Context()
	str := func(key string) string {
		s, _ := ctx[key].(string) //nolint:errcheck // missing keys render empty
		return s
	}

	switch oopsErr.Code() {
	case CodeEmptyInput, CodeUnknownCommand:
		return "Unknown command. Try 'help'."
	case CodeInvalidArgs:
		if usage := str("usage"); usage != "" {
			return "Usage: " + usage
		}
		return "Invalid arguments."
	case CodeRateLimited:
		return "Too many commands. Please slow down."
	case CodeNoSuchCharacter:
		return fmt.Sprintf("There is no character named %s here.", str("name"))
	case sheet.CodeOwnerNotBound:
		return "You have no character here. Use 'character bind <name>' first."
	case sheet.CodeAttributeNotFound:
		return fmt.Sprintf("%s has no %s named %s", ownerName(str("owner_name")), sheet.Kind(str("kind")).Noun(), str("name"))
	case sheet.CodeDuplicateName:
		noun := sheet.Kind(str("kind")).Noun()
		return fmt.Sprintf("%s already has %s %s named %s", ownerName(str("owner_name")), article(noun), noun, str("name"))
	case sheet.CodeInvalidFilter:
		return "Invalid filter: " + rootMessage(err)
	case sheet.CodeInvalidKind, sheet.CodeInvalidField, sheet.CodeAttributeInvalid, sheet.CodeOwnerInvalid:
		var verr *sheet.ValidationError
		if errors.As(err, &verr) {
			return fmt.Sprintf("Invalid %s: %s", strings.ReplaceAll(verr.Field, "_", " "), verr.Message)
		}
		return "Invalid input."
	default:
		return fallback
	}
}

func ownerName(name string) string {
	if name == "" {
		return "Your character"
	}
	return name
}

func withArticle(noun string) string {
	return article(noun) + " " + noun
}

func article(noun string) string {
	if noun != "" && strings.ContainsRune("aeiou", rune(noun[0])) {
		return "an"
	}
	return "a"
}

// rootMessage returns the innermost error's message.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
