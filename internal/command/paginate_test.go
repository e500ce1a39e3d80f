// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package command

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		limit int
		want  []string
	}{
		{
			name:  "no lines",
			lines: nil,
			limit: 10,
			want:  []string{},
		},
		{
			name:  "fits one block",
			lines: []string{"abc", "de"},
			limit: 10,
			want:  []string{"abc\nde"},
		},
		{
			name:  "exact fit counts the newline",
			lines: []string{"abcd", "efgh"},
			limit: 9,
			want:  []string{"abcd\nefgh"},
		},
		{
			name:  "breaks between lines",
			lines: []string{"abcd", "efgh", "ij"},
			limit: 8,
			want:  []string{"abcd", "efgh\nij"},
		},
		{
			name:  "splits a line longer than the limit",
			lines: []string{"abcdefghij", "k"},
			limit: 4,
			want:  []string{"abcd", "efgh", "ij\nk"},
		},
		{
			name:  "keeps empty lines",
			lines: []string{"a", "", "b"},
			limit: 10,
			want:  []string{"a\n\nb"},
		},
		{
			name:  "counts characters not bytes",
			lines: []string{"ééé", "üü"},
			limit: 6,
			want:  []string{"ééé\nüü"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paginate(tt.lines, tt.limit))
		})
	}
}

func TestPaginate_DefaultLimit(t *testing.T) {
	lines := make([]string, 300)
	for i := range lines {
		lines[i] = strings.Repeat("x", 19)
	}

	pages := Paginate(lines, 0)
	assert.Len(t, pages, 3)
	for _, p := range pages {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), DefaultPageSize)
	}
	assert.Equal(t, strings.Join(lines, "\n"), strings.Join(pages, "\n"))
}
