// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package sheet

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/oops"
)

// Validation limits.
const (
	MaxNameLength        = 100
	MaxOwnerNameLength   = 64
	MaxDescriptionLength = 4000
	MaxScopeIDLength     = 64
)

// MaxLevel is the largest spell level the level column can hold.
const MaxLevel = math.MaxInt32

// ValidationError represents an input validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(code, field, message string) error {
	return oops.Code(code).With("field", field).Wrap(&ValidationError{Field: field, Message: message})
}

// ValidateName checks an attribute name: non-empty, valid UTF-8, no
// surrounding whitespace, no control characters, within length limit.
func ValidateName(name string) error {
	return validateLabel("name", name, MaxNameLength)
}

// ValidateOwnerName checks a character name with the same rules as
// attribute names but a shorter limit.
func ValidateOwnerName(name string) error {
	return validateLabel("owner_name", name, MaxOwnerNameLength)
}

// ValidateIdentity checks the external caller and scope identifiers.
func ValidateIdentity(callerID, scopeID string) error {
	if strings.TrimSpace(callerID) == "" {
		return invalid(CodeOwnerInvalid, "caller_id", "cannot be empty")
	}
	if strings.TrimSpace(scopeID) == "" {
		return invalid(CodeOwnerInvalid, "scope_id", "cannot be empty")
	}
	if len(scopeID) > MaxScopeIDLength {
		return invalid(CodeOwnerInvalid, "scope_id", fmt.Sprintf("exceeds maximum length of %d", MaxScopeIDLength))
	}
	return nil
}

func validateLabel(field, s string, limit int) error {
	if s == "" {
		return invalid(CodeAttributeInvalid, field, "cannot be empty")
	}
	if !utf8.ValidString(s) {
		return invalid(CodeAttributeInvalid, field, "must be valid UTF-8")
	}
	if s != strings.TrimSpace(s) {
		return invalid(CodeAttributeInvalid, field, "cannot have leading or trailing spaces")
	}
	if utf8.RuneCountInString(s) > limit {
		return invalid(CodeAttributeInvalid, field, fmt.Sprintf("exceeds maximum length of %d", limit))
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return invalid(CodeAttributeInvalid, field, "cannot contain control characters")
		}
	}
	return nil
}

// ValidateDescription checks a description. Empty is allowed; newlines and
// tabs are the only permitted control characters.
func ValidateDescription(desc string) error {
	if desc == "" {
		return nil
	}
	if !utf8.ValidString(desc) {
		return invalid(CodeAttributeInvalid, "description", "must be valid UTF-8")
	}
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return invalid(CodeAttributeInvalid, "description", fmt.Sprintf("exceeds maximum length of %d", MaxDescriptionLength))
	}
	for _, r := range desc {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return invalid(CodeAttributeInvalid, "description", "cannot contain control characters")
		}
	}
	return nil
}
