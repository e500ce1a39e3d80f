// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

// Package sheet holds the character sheet domain: owners (characters bound to a
// caller within a scope) and the named attributes they own.
//
// All four attribute kinds share one store contract. A name is unique per
// (owner, kind) under the store's NamePolicy; backends enforce that with a
// database constraint and report collisions as DuplicateNameError instead of
// leaking driver errors.
package sheet
