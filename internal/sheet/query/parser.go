// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package query

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/samber/oops"

	"github.com/dicebot/dicebot/internal/sheet"
)

// MaxNestingDepth bounds parentheses and negations.
const MaxNestingDepth = 16

// MaxFilterLength bounds the filter text accepted by Parse.
const MaxFilterLength = 512

var parser *participle.Parser[Filter]

func init() {
	var err error
	parser, err = NewParser()
	if err != nil {
		panic(fmt.Sprintf("failed to build filter parser: %v", err))
	}
}

// NewParser constructs a participle parser for the filter grammar.
func NewParser() (*participle.Parser[Filter], error) {
	return participle.Build[Filter](
		participle.Lexer(filterLexer),
		participle.Unquote("String"),
		participle.CaseInsensitive("Ident"),
		participle.UseLookahead(2),
	)
}

// Parse parses filter text into an AST.
func Parse(text string) (*Filter, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalidFilter(text, "filter is empty")
	}
	if len(text) > MaxFilterLength {
		return nil, invalidFilter(text, fmt.Sprintf("filter exceeds %d characters", MaxFilterLength))
	}
	f, err := parser.ParseString("", text)
	if err != nil {
		return nil, oops.Code(sheet.CodeInvalidFilter).With("filter", text).Wrap(err)
	}
	if err := checkDepth(f.Expr, 0); err != nil {
		return nil, oops.Code(sheet.CodeInvalidFilter).With("filter", text).Wrap(err)
	}
	return f, nil
}

func checkDepth(d *Disjunction, depth int) error {
	if depth > MaxNestingDepth {
		return fmt.Errorf("nesting depth exceeds maximum of %d", MaxNestingDepth)
	}
	for _, c := range d.Conjunctions {
		for _, t := range c.Terms {
			if err := checkTermDepth(t, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkTermDepth(t *Term, depth int) error {
	switch {
	case t.Negation != nil:
		if depth+1 > MaxNestingDepth {
			return fmt.Errorf("nesting depth exceeds maximum of %d", MaxNestingDepth)
		}
		return checkTermDepth(t.Negation, depth+1)
	case t.Group != nil:
		return checkDepth(t.Group, depth+1)
	}
	return nil
}

func invalidFilter(text, msg string) error {
	return oops.Code(sheet.CodeInvalidFilter).With("filter", text).Errorf("%s", msg)
}
