// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

// Package query parses the attribute filter language used by the console
// filter commands and compiles it into a sheet.Predicate.
//
//	level = 3
//	name ~ "fire*" and level >= 2
//	not (value < 0 or description = "")
package query

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// filterLexer splits filter text into tokens. Multi-character operators
// come first so "<=" is not read as "<" followed by "=".
var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Int", Pattern: `-?\d+`},
	{Name: "Op", Pattern: `==|!=|<=|>=|[=<>~]`},
	{Name: "Ident", Pattern: `[a-zA-Z_]\w*`},
	{Name: "Punct", Pattern: `[()]`},
	{Name: "whitespace", Pattern: `\s+`},
})

// Filter is the root of a parsed filter expression.
type Filter struct {
	Pos  lexer.Position `parser:""`
	Expr *Disjunction   `parser:"@@"`
}

// Disjunction holds terms separated by "or".
type Disjunction struct {
	Pos          lexer.Position `parser:""`
	Conjunctions []*Conjunction `parser:"@@ ( 'or' @@ )*"`
}

// Conjunction holds terms separated by "and".
type Conjunction struct {
	Pos   lexer.Position `parser:""`
	Terms []*Term        `parser:"@@ ( 'and' @@ )*"`
}

// Term is a negation, a parenthesized expression, or a comparison.
type Term struct {
	Pos        lexer.Position `parser:""`
	Negation   *Term          `parser:"  'not' @@"`
	Group      *Disjunction   `parser:"| '(' @@ ')'"`
	Comparison *Comparison    `parser:"| @@"`
}

// Comparison is field op operand, e.g. level >= 2.
type Comparison struct {
	Pos     lexer.Position `parser:""`
	Field   string         `parser:"@Ident"`
	Op      string         `parser:"@Op"`
	Operand *Operand       `parser:"@@"`
}

// Operand is a quoted string or an integer literal.
type Operand struct {
	Pos lexer.Position `parser:""`
	Str *string        `parser:"  @String"`
	Int *int64         `parser:"| @Int"`
}
