// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package command

import (
	"strings"

	"github.com/buildkite/shellwords"
	"github.com/samber/oops"
)

// ParsedCommand represents a tokenized command line.
type ParsedCommand struct {
	Group string   // first word (e.g., "spell")
	Sub   string   // second word, empty when absent (e.g., "add")
	Args  []string // remaining words with quotes removed
	Rest  string   // remaining text exactly as typed
	Raw   string   // original input
}

// Parse tokenizes a command line with POSIX shell quoting, so
// `spell add "Magic Missile" 1` yields the name as a single argument.
// A line with unbalanced quotes, as in `info add Notes it's late`, is
// split on whitespace instead and keeps its apostrophes.
func Parse(input string) (*ParsedCommand, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, oops.Code(CodeEmptyInput).Errorf("no command provided")
	}

	words, err := shellwords.SplitPosix(trimmed)
	if err != nil {
		words = strings.Fields(trimmed)
	}
	if len(words) == 0 {
		return nil, oops.Code(CodeEmptyInput).Errorf("no command provided")
	}

	parsed := &ParsedCommand{Group: words[0], Raw: input, Args: []string{}}
	if len(words) > 1 {
		parsed.Sub = words[1]
		parsed.Args = words[2:]
		parsed.Rest = restAfter(trimmed, 2)
	}
	return parsed, nil
}

// restAfter returns s with its first n space-separated words removed.
// Group and subcommand words never contain quotes, so a plain scan is exact.
func restAfter(s string, n int) string {
	for range n {
		s = strings.TrimLeft(s, " \t")
		i := strings.IndexAny(s, " \t")
		if i < 0 {
			return ""
		}
		s = s[i:]
	}
	return strings.TrimLeft(s, " \t")
}
