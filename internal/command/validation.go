// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package command

import (
	"regexp"
	"strings"

	"github.com/samber/oops"
)

// MaxNameLength is the maximum length for group, command, and alias words.
const MaxNameLength = 20

// namePattern: a lowercase letter followed by lowercase letters or digits.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9]{0,19}$`)

// ValidateCommandName validates a group or subcommand name.
func ValidateCommandName(name string) error {
	return validateName(name, "command")
}

// ValidateAliasName validates an alias word.
func ValidateAliasName(name string) error {
	return validateName(name, "alias")
}

func validateName(name, kind string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return oops.Code(CodeInvalidName).
			With("kind", kind).
			Errorf("%s name cannot be empty", kind)
	}

	if len(trimmed) > MaxNameLength {
		return oops.Code(CodeInvalidName).
			With("kind", kind).
			With("length", len(trimmed)).
			With("max", MaxNameLength).
			Errorf("%s name exceeds maximum length of %d", kind, MaxNameLength)
	}

	if !namePattern.MatchString(trimmed) {
		return oops.Code(CodeInvalidName).
			With("kind", kind).
			With("name", trimmed).
			Errorf("%s name must be a lowercase letter followed by lowercase letters or digits", kind)
	}

	return nil
}
