// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/samber/oops"

	"github.com/dicebot/dicebot/internal/sheet"
)

const ownerColumns = `o.id, o.scope_id, o.name, o.created_at`

// OwnerRepository implements sheet.OwnerRepository using SQLite.
type OwnerRepository struct {
	db *sql.DB
	tx *Transactor
}

// NewOwnerRepository creates a new SQLite owner repository.
func NewOwnerRepository(db *sql.DB) *OwnerRepository {
	return &OwnerRepository{db: db, tx: NewTransactor(db)}
}

// Resolve returns the owner bound to callerID within scopeID.
func (r *OwnerRepository) Resolve(ctx context.Context, callerID, scopeID string) (*sheet.Owner, error) {
	row := querierFromCtx(ctx, r.db).QueryRowContext(ctx, `
		SELECT `+ownerColumns+`
		FROM owner_bindings b JOIN owners o ON o.id = b.owner_id
		WHERE b.caller_id = ? AND b.scope_id = ?
	`, callerID, scopeID)

	owner, err := scanOwnerRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sheet.NotBound(callerID, scopeID)
	}
	if err != nil {
		return nil, oops.Code("OWNER_RESOLVE_FAILED").
			With("caller_id", callerID).With("scope_id", scopeID).
			Wrap(err)
	}
	return owner, nil
}

// FindByName returns the named owner in scopeID, or (nil, nil).
func (r *OwnerRepository) FindByName(ctx context.Context, scopeID, name string) (*sheet.Owner, error) {
	row := querierFromCtx(ctx, r.db).QueryRowContext(ctx, `
		SELECT `+ownerColumns+`
		FROM owners o WHERE o.scope_id = ? AND o.name = ?
	`, scopeID, name)

	owner, err := scanOwnerRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("OWNER_GET_FAILED").With("scope_id", scopeID).With("name", name).Wrap(err)
	}
	return owner, nil
}

// Bind creates the owner if needed and points the caller's binding at it,
// in one transaction.
func (r *OwnerRepository) Bind(ctx context.Context, callerID, scopeID, name string) (*sheet.Owner, error) {
	candidate, err := sheet.NewOwner(scopeID, name)
	if err != nil {
		return nil, err
	}

	var out *sheet.Owner
	err = r.tx.InTransaction(ctx, func(ctx context.Context) error {
		q := querierFromCtx(ctx, r.db)
		_, err := q.ExecContext(ctx, `
			INSERT INTO owners (id, scope_id, name, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (scope_id, name) DO NOTHING
		`, candidate.ID.String(), candidate.ScopeID, candidate.Name, toMillis(candidate.CreatedAt))
		if err != nil {
			return oops.Code("OWNER_CREATE_FAILED").With("scope_id", scopeID).With("name", name).Wrap(err)
		}

		owner, err := r.FindByName(ctx, scopeID, name)
		if err != nil {
			return err
		}
		if owner == nil {
			return oops.Code("OWNER_CREATE_FAILED").With("scope_id", scopeID).With("name", name).
				Errorf("owner missing after insert")
		}

		_, err = q.ExecContext(ctx, `
			INSERT INTO owner_bindings (caller_id, scope_id, owner_id, bound_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (caller_id, scope_id)
			DO UPDATE SET owner_id = excluded.owner_id, bound_at = excluded.bound_at
		`, callerID, scopeID, owner.ID.String(), toMillis(time.Now()))
		if err != nil {
			return oops.Code("OWNER_BIND_FAILED").
				With("caller_id", callerID).With("scope_id", scopeID).With("owner_id", owner.ID.String()).
				Wrap(err)
		}
		out = owner
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByScope returns the scope's owners ordered by name.
func (r *OwnerRepository) ListByScope(ctx context.Context, scopeID string) ([]*sheet.Owner, error) {
	rows, err := querierFromCtx(ctx, r.db).QueryContext(ctx, `
		SELECT `+ownerColumns+`
		FROM owners o WHERE o.scope_id = ?
		ORDER BY o.name
	`, scopeID)
	if err != nil {
		return nil, oops.Code("OWNER_QUERY_FAILED").With("scope_id", scopeID).Wrap(err)
	}
	defer rows.Close()

	return scanOwners(rows)
}

// Compile-time interface check.
var _ sheet.OwnerRepository = (*OwnerRepository)(nil)
