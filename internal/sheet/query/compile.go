// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package query

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/dicebot/dicebot/internal/sheet"
)

// Fields a filter may reference.
const (
	FieldName        = "name"
	FieldLevel       = "level"
	FieldValue       = "value"
	FieldDescription = "description"
)

// Compile parses text and builds the predicate it describes. Name
// comparisons follow policy.
func Compile(text string, policy sheet.NamePolicy) (sheet.Predicate, error) {
	f, err := Parse(text)
	if err != nil {
		return nil, err
	}
	p, err := compileDisjunction(f.Expr, policy)
	if err != nil {
		return nil, oops.With("filter", text).Wrap(err)
	}
	return p, nil
}

func compileDisjunction(d *Disjunction, policy sheet.NamePolicy) (sheet.Predicate, error) {
	ps := make([]sheet.Predicate, 0, len(d.Conjunctions))
	for _, c := range d.Conjunctions {
		p, err := compileConjunction(c, policy)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	if len(ps) == 1 {
		return ps[0], nil
	}
	return sheet.Any(ps...), nil
}

func compileConjunction(c *Conjunction, policy sheet.NamePolicy) (sheet.Predicate, error) {
	ps := make([]sheet.Predicate, 0, len(c.Terms))
	for _, t := range c.Terms {
		p, err := compileTerm(t, policy)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	if len(ps) == 1 {
		return ps[0], nil
	}
	return sheet.All(ps...), nil
}

func compileTerm(t *Term, policy sheet.NamePolicy) (sheet.Predicate, error) {
	switch {
	case t.Negation != nil:
		p, err := compileTerm(t.Negation, policy)
		if err != nil {
			return nil, err
		}
		return sheet.Not(p), nil
	case t.Group != nil:
		return compileDisjunction(t.Group, policy)
	default:
		return compileComparison(t.Comparison, policy)
	}
}

func compileComparison(c *Comparison, policy sheet.NamePolicy) (sheet.Predicate, error) {
	field := strings.ToLower(c.Field)
	switch field {
	case FieldLevel:
		n, err := intOperand(c)
		if err != nil {
			return nil, err
		}
		cmp, err := intComparator(c)
		if err != nil {
			return nil, err
		}
		return func(a *sheet.Attribute) bool {
			return a.Kind.HasLevel() && cmp(int64(a.Level), n)
		}, nil

	case FieldValue:
		n, err := intOperand(c)
		if err != nil {
			return nil, err
		}
		cmp, err := intComparator(c)
		if err != nil {
			return nil, err
		}
		return func(a *sheet.Attribute) bool {
			return a.Kind.HasValue() && cmp(a.Value, n)
		}, nil

	case FieldName:
		s, err := stringOperand(c)
		if err != nil {
			return nil, err
		}
		switch c.Op {
		case "~":
			return sheet.NameMatches(s, policy)
		case "=", "==":
			key := policy.Key(s)
			return func(a *sheet.Attribute) bool { return policy.Key(a.Name) == key }, nil
		case "!=":
			key := policy.Key(s)
			return func(a *sheet.Attribute) bool { return policy.Key(a.Name) != key }, nil
		}

	case FieldDescription:
		s, err := stringOperand(c)
		if err != nil {
			return nil, err
		}
		switch c.Op {
		case "~":
			g, err := glob.Compile(s)
			if err != nil {
				return nil, compileError(c, err.Error())
			}
			return func(a *sheet.Attribute) bool { return g.Match(a.Description) }, nil
		case "=", "==":
			return func(a *sheet.Attribute) bool { return a.Description == s }, nil
		case "!=":
			return func(a *sheet.Attribute) bool { return a.Description != s }, nil
		}

	default:
		return nil, compileError(c, "unknown field "+c.Field)
	}
	return nil, compileError(c, "operator "+c.Op+" cannot be used with "+field)
}

func intOperand(c *Comparison) (int64, error) {
	if c.Operand.Int == nil {
		return 0, compileError(c, c.Field+" must be compared with a number")
	}
	return *c.Operand.Int, nil
}

func stringOperand(c *Comparison) (string, error) {
	if c.Operand.Str == nil {
		return "", compileError(c, c.Field+" must be compared with a quoted string")
	}
	return *c.Operand.Str, nil
}

func intComparator(c *Comparison) (func(x, y int64) bool, error) {
	switch c.Op {
	case "=", "==":
		return func(x, y int64) bool { return x == y }, nil
	case "!=":
		return func(x, y int64) bool { return x != y }, nil
	case "<":
		return func(x, y int64) bool { return x < y }, nil
	case "<=":
		return func(x, y int64) bool { return x <= y }, nil
	case ">":
		return func(x, y int64) bool { return x > y }, nil
	case ">=":
		return func(x, y int64) bool { return x >= y }, nil
	}
	return nil, compileError(c, "operator "+c.Op+" cannot be used with "+c.Field)
}

func compileError(c *Comparison, msg string) error {
	return oops.Code(sheet.CodeInvalidFilter).
		With("field", c.Field).
		With("position", c.Pos.String()).
		Errorf("%s", msg)
}
