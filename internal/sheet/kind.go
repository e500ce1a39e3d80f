// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package sheet

import (
	"fmt"
	"strings"
)

// Kind identifies an attribute category.
type Kind string

// Attribute kinds.
const (
	KindConstant    Kind = "constant"
	KindVariable    Kind = "variable"
	KindSpell       Kind = "spell"
	KindInformation Kind = "information"
)

// Kinds lists every attribute kind in display order.
var Kinds = []Kind{KindConstant, KindVariable, KindSpell, KindInformation}

var kindAliases = map[string]Kind{
	"constant":    KindConstant,
	"const":       KindConstant,
	"variable":    KindVariable,
	"var":         KindVariable,
	"spell":       KindSpell,
	"information": KindInformation,
	"info":        KindInformation,
}

// ParseKind resolves a kind name or alias (case-insensitive).
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", invalid(CodeInvalidKind, "kind", fmt.Sprintf("unknown attribute kind %q", s))
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindConstant, KindVariable, KindSpell, KindInformation:
		return true
	}
	return false
}

// HasValue reports whether attributes of this kind carry an integer value.
func (k Kind) HasValue() bool {
	return k == KindConstant || k == KindVariable
}

// HasLevel reports whether attributes of this kind carry a level.
func (k Kind) HasLevel() bool {
	return k == KindSpell
}

// HasDescription reports whether attributes of this kind carry a description.
func (k Kind) HasDescription() bool {
	return k == KindSpell || k == KindInformation
}

// Noun returns the user-facing noun for the kind, e.g. "information block".
func (k Kind) Noun() string {
	if k == KindInformation {
		return "information block"
	}
	return string(k)
}

func (k Kind) String() string {
	return string(k)
}
