// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package sheet

import (
	"golang.org/x/text/cases"
)

// folder is safe for concurrent use.
var folder = cases.Fold()

// NamePolicy decides which attribute names collide. It is fixed when a
// store is constructed; changing it on a populated database would leave
// stored keys inconsistent.
type NamePolicy int

// Name policies.
const (
	// CaseSensitive treats "Fireball" and "fireball" as different names.
	CaseSensitive NamePolicy = iota
	// CaseInsensitive folds case, so "Fireball" and "FIREBALL" collide.
	CaseInsensitive
)

// Key returns the normalized lookup key for name.
func (p NamePolicy) Key(name string) string {
	if p == CaseInsensitive {
		return folder.String(name)
	}
	return name
}

func (p NamePolicy) String() string {
	if p == CaseInsensitive {
		return "case-insensitive"
	}
	return "case-sensitive"
}
