// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package command

import (
	"strings"
	"unicode/utf8"
)

// DefaultPageSize is the largest message a chat platform accepts, in characters.
const DefaultPageSize = 2000

// Paginate joins lines into newline-separated blocks of at most limit
// characters each. Lines are never reordered, and a line is only split
// when it alone exceeds limit. A non-positive limit selects DefaultPageSize.
func Paginate(lines []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	pages := []string{}
	var page strings.Builder
	size, open := 0, false
	flush := func() {
		if open {
			pages = append(pages, page.String())
			page.Reset()
			size, open = 0, false
		}
	}

	for _, line := range lines {
		for _, chunk := range splitRunes(line, limit) {
			n := utf8.RuneCountInString(chunk)
			if open {
				if size+1+n <= limit {
					page.WriteByte('\n')
					size++
				} else {
					flush()
				}
			}
			page.WriteString(chunk)
			size += n
			open = true
		}
	}
	flush()
	return pages
}

// splitRunes cuts s into pieces of at most limit runes. An empty s yields
// a single empty piece.
func splitRunes(s string, limit int) []string {
	if utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}
	var out []string
	for s != "" {
		i, count := 0, 0
		for i < len(s) && count < limit {
			_, w := utf8.DecodeRuneInString(s[i:])
			i += w
			count++
		}
		out = append(out, s[:i])
		s = s[i:]
	}
	return out
}
