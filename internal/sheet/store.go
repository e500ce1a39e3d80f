// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package sheet

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// AttributeStore is the only component that reads or writes attribute
// records. Every mutating method runs as a single transaction: it either
// fully applies or leaves prior state untouched.
type AttributeStore interface {
	// Upsert creates the attribute from fields merged over kind defaults, or
	// applies the supplied fields to the existing one. Never fails with a
	// name collision; a concurrent create of the same name is coalesced into
	// an update.
	Upsert(ctx context.Context, ownerID ulid.ULID, kind Kind, name string, f Fields) (*Attribute, error)

	// Create inserts a new attribute. Returns ATTRIBUTE_DUPLICATE_NAME if the
	// name is taken.
	Create(ctx context.Context, ownerID ulid.ULID, kind Kind, name string, f Fields) (*Attribute, error)

	// Update applies fields to an existing attribute.
	// Returns ATTRIBUTE_NOT_FOUND if it does not exist.
	Update(ctx context.Context, ownerID ulid.ULID, kind Kind, name string, f Fields) (*Attribute, error)

	// Get returns the attribute, or (nil, nil) when absent.
	Get(ctx context.Context, ownerID ulid.ULID, kind Kind, name string) (*Attribute, error)

	// Rename changes an attribute's name. Returns ATTRIBUTE_NOT_FOUND when
	// oldName is absent and ATTRIBUTE_DUPLICATE_NAME when newName is taken;
	// in both cases nothing is written.
	Rename(ctx context.Context, ownerID ulid.ULID, kind Kind, oldName, newName string) (*Attribute, error)

	// Remove deletes the attribute and returns its final state.
	// Returns ATTRIBUTE_NOT_FOUND if it does not exist.
	Remove(ctx context.Context, ownerID ulid.ULID, kind Kind, name string) (*Attribute, error)

	// List returns all attributes of kind for the owner ordered by name.
	List(ctx context.Context, ownerID ulid.ULID, kind Kind) ([]*Attribute, error)
}

// Transactor runs fn inside a database transaction. The transaction travels
// in the context passed to fn; fn's error rolls it back.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
