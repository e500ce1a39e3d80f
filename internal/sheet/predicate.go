// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package sheet

import (
	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Predicate selects attributes in FilterAttributes.
type Predicate func(a *Attribute) bool

// AtLevel matches spells of exactly the given level.
func AtLevel(level int) Predicate {
	return func(a *Attribute) bool {
		return a.Kind == KindSpell && a.Level == level
	}
}

// ValueBetween matches constants and variables with lo <= value <= hi.
func ValueBetween(lo, hi int64) Predicate {
	return func(a *Attribute) bool {
		return a.Kind.HasValue() && a.Value >= lo && a.Value <= hi
	}
}

// HasDescription matches attributes with a non-empty description.
func HasDescription() Predicate {
	return func(a *Attribute) bool {
		return a.Description != ""
	}
}

// NameMatches compiles a glob pattern ("fire*", "?ce*") into a predicate
// over attribute names. Matching honours policy, so a case-insensitive
// store matches "FIRE*" against "Fireball".
func NameMatches(pattern string, policy NamePolicy) (Predicate, error) {
	g, err := glob.Compile(policy.Key(pattern))
	if err != nil {
		return nil, oops.Code(CodeInvalidFilter).With("pattern", pattern).Wrap(err)
	}
	return func(a *Attribute) bool {
		return g.Match(policy.Key(a.Name))
	}, nil
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(a *Attribute) bool {
		return !p(a)
	}
}

// All matches when every predicate matches. All() matches everything.
func All(ps ...Predicate) Predicate {
	return func(a *Attribute) bool {
		for _, p := range ps {
			if !p(a) {
				return false
			}
		}
		return true
	}
}

// Any matches when at least one predicate matches. Any() matches nothing.
func Any(ps ...Predicate) Predicate {
	return func(a *Attribute) bool {
		for _, p := range ps {
			if p(a) {
				return true
			}
		}
		return false
	}
}

// Apply returns the attributes matching p, preserving order. A nil
// predicate matches everything. The result is never nil.
func (p Predicate) Apply(attrs []*Attribute) []*Attribute {
	out := make([]*Attribute, 0, len(attrs))
	for _, a := range attrs {
		if p == nil || p(a) {
			out = append(out, a)
		}
	}
	return out
}
