// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/dicebot/dicebot/internal/sheet"
)

// attributesNameUnique is the constraint backing per-owner name uniqueness.
const attributesNameUnique = "attributes_owner_kind_name_unique"

const attributeColumns = `id, owner_id, kind, name, value, level, description, created_at, updated_at`

// AttributeStore implements sheet.AttributeStore using PostgreSQL.
// Mutations lock the target row with SELECT ... FOR UPDATE inside a
// Transactor transaction, so operations on one key are linearized.
type AttributeStore struct {
	db     DB
	tx     *Transactor
	policy sheet.NamePolicy
	now    func() time.Time
}

// NewAttributeStore creates a new PostgreSQL attribute store.
func NewAttributeStore(db DB, policy sheet.NamePolicy) *AttributeStore {
	return &AttributeStore{
		db:     db,
		tx:     NewTransactor(db),
		policy: policy,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Upsert creates the attribute or applies fields to the existing one.
func (s *AttributeStore) Upsert(ctx context.Context, ownerID ulid.ULID, kind sheet.Kind, name string, f sheet.Fields) (*sheet.Attribute, error) {
	if err := s.check(kind, name, f); err != nil {
		return nil, err
	}
	key := s.policy.Key(name)

	var out *sheet.Attribute
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		q := querierFromCtx(ctx, s.db)
		now := s.now()

		existing, err := s.lock(ctx, q, ownerID, kind, key)
		if err != nil {
			return err
		}
		if existing == nil {
			attr, err := sheet.NewAttribute(ownerID, kind, name, f, now)
			if err != nil {
				return err
			}
			inserted, err := s.insert(ctx, q, attr, key)
			if err != nil {
				return err
			}
			if inserted {
				out = attr
				return nil
			}
			// A concurrent upsert created the row first; merge into it.
			existing, err = s.lock(ctx, q, ownerID, kind, key)
			if err != nil {
				return err
			}
			if existing == nil {
				return oops.Code("ATTRIBUTE_UPSERT_FAILED").
					With("owner_id", ownerID.String()).With("kind", string(kind)).With("name", name).
					Errorf("conflicting row vanished during upsert")
			}
		}

		f.ApplyTo(existing, now)
		if err := s.writePayload(ctx, q, existing); err != nil {
			return err
		}
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new attribute, failing if the name is taken.
func (s *AttributeStore) Create(ctx context.Context, ownerID ulid.ULID, kind sheet.Kind, name string, f sheet.Fields) (*sheet.Attribute, error) {
	if err := s.check(kind, name, f); err != nil {
		return nil, err
	}
	attr, err := sheet.NewAttribute(ownerID, kind, name, f, s.now())
	if err != nil {
		return nil, err
	}
	inserted, err := s.insert(ctx, querierFromCtx(ctx, s.db), attr, s.policy.Key(name))
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, sheet.DuplicateName(ownerID, kind, name)
	}
	return attr, nil
}

// Update applies fields to an existing attribute.
func (s *AttributeStore) Update(ctx context.Context, ownerID ulid.ULID, kind sheet.Kind, name string, f sheet.Fields) (*sheet.Attribute, error) {
	if err := s.check(kind, name, f); err != nil {
		return nil, err
	}
	var out *sheet.Attribute
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		q := querierFromCtx(ctx, s.db)
		existing, err := s.lock(ctx, q, ownerID, kind, s.policy.Key(name))
		if err != nil {
			return err
		}
		if existing == nil {
			return sheet.NotFound(ownerID, kind, name)
		}
		f.ApplyTo(existing, s.now())
		if err := s.writePayload(ctx, q, existing); err != nil {
			return err
		}
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the attribute, or (nil, nil) when absent.
func (s *AttributeStore) Get(ctx context.Context, ownerID ulid.ULID, kind sheet.Kind, name string) (*sheet.Attribute, error) {
	row := querierFromCtx(ctx, s.db).QueryRow(ctx, `
		SELECT `+attributeColumns+`
		FROM attributes WHERE owner_id = $1 AND kind = $2 AND name_key = $3
	`, ownerID.String(), string(kind), s.policy.Key(name))

	attr, err := scanAttributeRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("ATTRIBUTE_GET_FAILED").
			With("owner_id", ownerID.String()).With("kind", string(kind)).With("name", name).
			Wrap(err)
	}
	return attr, nil
}

// Rename changes an attribute's name. The collision check runs before the
// write; a unique violation from a concurrent writer is mapped to the same
// error. Either way the transaction rolls back and nothing changes.
func (s *AttributeStore) Rename(ctx context.Context, ownerID ulid.ULID, kind sheet.Kind, oldName, newName string) (*sheet.Attribute, error) {
	if err := sheet.ValidateName(newName); err != nil {
		return nil, err
	}
	oldKey, newKey := s.policy.Key(oldName), s.policy.Key(newName)

	var out *sheet.Attribute
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		q := querierFromCtx(ctx, s.db)
		attr, err := s.lock(ctx, q, ownerID, kind, oldKey)
		if err != nil {
			return err
		}
		if attr == nil {
			return sheet.NotFound(ownerID, kind, oldName)
		}
		if attr.Name == newName {
			out = attr
			return nil
		}
		if newKey != oldKey {
			taken, err := s.exists(ctx, q, ownerID, kind, newKey)
			if err != nil {
				return err
			}
			if taken {
				return sheet.DuplicateName(ownerID, kind, newName)
			}
		}

		attr.Name = newName
		attr.UpdatedAt = s.now()
		_, err = q.Exec(ctx, `
			UPDATE attributes SET name = $2, name_key = $3, updated_at = $4
			WHERE id = $1
		`, attr.ID.String(), attr.Name, newKey, attr.UpdatedAt)
		if isUniqueViolation(err, attributesNameUnique) {
			return sheet.DuplicateName(ownerID, kind, newName)
		}
		if err != nil {
			return oops.Code("ATTRIBUTE_RENAME_FAILED").With("id", attr.ID.String()).Wrap(err)
		}
		out = attr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Remove deletes the attribute and returns its final state.
func (s *AttributeStore) Remove(ctx context.Context, ownerID ulid.ULID, kind sheet.Kind, name string) (*sheet.Attribute, error) {
	row := querierFromCtx(ctx, s.db).QueryRow(ctx, `
		DELETE FROM attributes WHERE owner_id = $1 AND kind = $2 AND name_key = $3
		RETURNING `+attributeColumns,
		ownerID.String(), string(kind), s.policy.Key(name))

	attr, err := scanAttributeRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sheet.NotFound(ownerID, kind, name)
	}
	if err != nil {
		return nil, oops.Code("ATTRIBUTE_DELETE_FAILED").
			With("owner_id", ownerID.String()).With("kind", string(kind)).With("name", name).
			Wrap(err)
	}
	return attr, nil
}

// List returns all attributes of kind for the owner in byte order of name.
func (s *AttributeStore) List(ctx context.Context, ownerID ulid.ULID, kind sheet.Kind) ([]*sheet.Attribute, error) {
	rows, err := querierFromCtx(ctx, s.db).Query(ctx, `
		SELECT `+attributeColumns+`
		FROM attributes WHERE owner_id = $1 AND kind = $2
		ORDER BY name_key COLLATE "C", name COLLATE "C"
	`, ownerID.String(), string(kind))
	if err != nil {
		return nil, oops.Code("ATTRIBUTE_QUERY_FAILED").
			With("owner_id", ownerID.String()).With("kind", string(kind)).
			Wrap(err)
	}
	defer rows.Close()

	return scanAttributes(rows)
}

func (s *AttributeStore) check(kind sheet.Kind, name string, f sheet.Fields) error {
	if err := sheet.ValidateName(name); err != nil {
		return err
	}
	return f.Validate(kind)
}

// lock selects the row FOR UPDATE. Returns (nil, nil) when absent.
func (s *AttributeStore) lock(ctx context.Context, q querier, ownerID ulid.ULID, kind sheet.Kind, key string) (*sheet.Attribute, error) {
	row := q.QueryRow(ctx, `
		SELECT `+attributeColumns+`
		FROM attributes WHERE owner_id = $1 AND kind = $2 AND name_key = $3
		FOR UPDATE
	`, ownerID.String(), string(kind), key)

	attr, err := scanAttributeRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("ATTRIBUTE_GET_FAILED").
			With("owner_id", ownerID.String()).With("kind", string(kind)).With("name_key", key).
			Wrap(err)
	}
	return attr, nil
}

func (s *AttributeStore) exists(ctx context.Context, q querier, ownerID ulid.ULID, kind sheet.Kind, key string) (bool, error) {
	var found bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM attributes WHERE owner_id = $1 AND kind = $2 AND name_key = $3)
	`, ownerID.String(), string(kind), key).Scan(&found)
	if err != nil {
		return false, oops.Code("ATTRIBUTE_GET_FAILED").
			With("owner_id", ownerID.String()).With("kind", string(kind)).With("name_key", key).
			Wrap(err)
	}
	return found, nil
}

// insert writes attr unless its name is taken. Reports whether a row was written.
func (s *AttributeStore) insert(ctx context.Context, q querier, attr *sheet.Attribute, key string) (bool, error) {
	tag, err := q.Exec(ctx, `
		INSERT INTO attributes (id, owner_id, kind, name, name_key, value, level, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT ON CONSTRAINT `+attributesNameUnique+` DO NOTHING
	`, attr.ID.String(), attr.OwnerID.String(), string(attr.Kind), attr.Name, key,
		attr.Value, attr.Level, nullableString(attr.Description), attr.CreatedAt, attr.UpdatedAt)
	if err != nil {
		return false, oops.Code("ATTRIBUTE_CREATE_FAILED").
			With("owner_id", attr.OwnerID.String()).With("kind", string(attr.Kind)).With("name", attr.Name).
			Wrap(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *AttributeStore) writePayload(ctx context.Context, q querier, attr *sheet.Attribute) error {
	_, err := q.Exec(ctx, `
		UPDATE attributes SET value = $2, level = $3, description = $4, updated_at = $5
		WHERE id = $1
	`, attr.ID.String(), attr.Value, attr.Level, nullableString(attr.Description), attr.UpdatedAt)
	if err != nil {
		return oops.Code("ATTRIBUTE_UPDATE_FAILED").With("id", attr.ID.String()).Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ sheet.AttributeStore = (*AttributeStore)(nil)
