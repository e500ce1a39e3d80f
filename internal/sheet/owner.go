// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package sheet

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Owner is a character: the entity that exclusively holds a set of
// attributes. Names are unique within a scope (a chat server).
type Owner struct {
	ID        ulid.ULID
	ScopeID   string
	Name      string
	CreatedAt time.Time
}

func (o *Owner) String() string {
	return o.Name
}

// NewOwner creates a validated Owner with a generated ID.
func NewOwner(scopeID, name string) (*Owner, error) {
	if err := ValidateOwnerName(name); err != nil {
		return nil, err
	}
	o := &Owner{
		ID:        ulid.Make(),
		ScopeID:   scopeID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	return o, nil
}

// OwnerRepository resolves callers to their characters.
type OwnerRepository interface {
	// Resolve returns the owner bound to callerID within scopeID.
	// Returns an OWNER_NOT_BOUND error wrapping ErrNotBound when no binding exists.
	Resolve(ctx context.Context, callerID, scopeID string) (*Owner, error)

	// FindByName returns the owner with the given name in scopeID,
	// or (nil, nil) when there is none.
	FindByName(ctx context.Context, scopeID, name string) (*Owner, error)

	// Bind points the caller's binding in scopeID at the owner called name,
	// creating that owner first if the scope has none.
	Bind(ctx context.Context, callerID, scopeID, name string) (*Owner, error)

	// ListByScope returns the scope's owners ordered by name.
	ListByScope(ctx context.Context, scopeID string) ([]*Owner, error)
}
