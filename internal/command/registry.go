// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package command

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Registry maps group and subcommand words, aliases included, to entries.
// It is thread-safe for concurrent access.
type Registry struct {
	groups   map[string]string // word -> canonical group
	commands map[string]Entry  // "group sub" -> entry
	mu       sync.RWMutex
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		groups:   make(map[string]string),
		commands: make(map[string]Entry),
	}
}

// RegisterGroup declares a group and the words that select it.
func (r *Registry) RegisterGroup(name string, aliases ...string) error {
	if err := ValidateCommandName(name); err != nil {
		return err
	}
	for _, a := range aliases {
		if err := ValidateAliasName(a); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, word := range append([]string{name}, aliases...) {
		word = strings.ToLower(word)
		if existing, ok := r.groups[word]; ok && existing != name {
			slog.Warn("group conflict: overwriting existing group word",
				"word", word,
				"previous_group", existing,
				"new_group", name)
		}
		r.groups[word] = name
	}
	return nil
}

// Register adds a subcommand to each of its groups. If a word is already
// taken in a group, it is overwritten and a warning is logged.
func (r *Registry) Register(entry Entry) error {
	if err := ValidateCommandName(entry.Name); err != nil {
		return err
	}
	for _, a := range entry.Aliases {
		if err := ValidateAliasName(a); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, group := range entry.Groups {
		if _, ok := r.groups[group]; !ok {
			return ErrUnknownGroup(group)
		}
		for _, word := range append([]string{entry.Name}, entry.Aliases...) {
			key := group + " " + strings.ToLower(word)
			if existing, ok := r.commands[key]; ok {
				slog.Warn("command conflict: overwriting existing command",
					"group", group,
					"command", word,
					"previous", existing.Name,
					"new", entry.Name)
			}
			r.commands[key] = entry
		}
	}
	return nil
}

// Group resolves a group word (case-insensitive) to its canonical name.
func (r *Registry) Group(word string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	group, ok := r.groups[strings.ToLower(word)]
	return group, ok
}

// Get retrieves a subcommand of a canonical group by name or alias.
func (r *Registry) Get(group, word string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.commands[group+" "+strings.ToLower(word)]
	return entry, ok
}

// Commands returns the distinct entries of a group ordered by name.
func (r *Registry) Commands(group string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var entries []Entry
	for key, e := range r.commands {
		g, _, _ := strings.Cut(key, " ")
		if g != group || seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Groups returns the canonical group names, sorted.
func (r *Registry) Groups() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var groups []string
	for _, g := range r.groups {
		if !seen[g] {
			seen[g] = true
			groups = append(groups, g)
		}
	}
	sort.Strings(groups)
	return groups
}
