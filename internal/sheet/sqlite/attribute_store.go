// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/dicebot/dicebot/internal/sheet"
)

const attributeColumns = `id, owner_id, kind, name, value, level, description, created_at, updated_at`

// AttributeStore implements sheet.AttributeStore using SQLite.
// Mutations run inside immediate transactions, which hold the database
// write lock from BEGIN, so operations on one key are linearized.
type AttributeStore struct {
	db     *sql.DB
	tx     *Transactor
	policy sheet.NamePolicy
	now    func() time.Time
}

// NewAttributeStore creates a new SQLite attribute store.
func NewAttributeStore(db *sql.DB, policy sheet.NamePolicy) *AttributeStore {
	return &AttributeStore{
		db:     db,
		tx:     NewTransactor(db),
		policy: policy,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
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

		existing, err := s.find(ctx, q, ownerID, kind, key)
		if err != nil {
			return err
		}
		if existing == nil {
			attr, err := sheet.NewAttribute(ownerID, kind, name, f, now)
			if err != nil {
				return err
			}
			err = s.insert(ctx, q, attr, key)
			if isUniqueViolation(err) {
				return oops.Code("ATTRIBUTE_UPSERT_FAILED").
					With("owner_id", ownerID.String()).With("kind", string(kind)).With("name", name).
					Wrap(err)
			}
			if err != nil {
				return err
			}
			out = attr
			return nil
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
	err = s.insert(ctx, querierFromCtx(ctx, s.db), attr, s.policy.Key(name))
	if isUniqueViolation(err) {
		return nil, sheet.DuplicateName(ownerID, kind, name)
	}
	if err != nil {
		return nil, err
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
		existing, err := s.find(ctx, q, ownerID, kind, s.policy.Key(name))
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
	return s.find(ctx, querierFromCtx(ctx, s.db), ownerID, kind, s.policy.Key(name))
}

// Rename changes an attribute's name. A taken target name fails with
// DuplicateName and rolls back, leaving both rows as they were.
func (s *AttributeStore) Rename(ctx context.Context, ownerID ulid.ULID, kind sheet.Kind, oldName, newName string) (*sheet.Attribute, error) {
	if err := sheet.ValidateName(newName); err != nil {
		return nil, err
	}
	oldKey, newKey := s.policy.Key(oldName), s.policy.Key(newName)

	var out *sheet.Attribute
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		q := querierFromCtx(ctx, s.db)
		attr, err := s.find(ctx, q, ownerID, kind, oldKey)
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
			taken, err := s.find(ctx, q, ownerID, kind, newKey)
			if err != nil {
				return err
			}
			if taken != nil {
				return sheet.DuplicateName(ownerID, kind, newName)
			}
		}

		attr.Name = newName
		attr.UpdatedAt = s.now()
		_, err = q.ExecContext(ctx, `
			UPDATE attributes SET name = ?, name_key = ?, updated_at = ?
			WHERE id = ?
		`, attr.Name, newKey, toMillis(attr.UpdatedAt), attr.ID.String())
		if isUniqueViolation(err) {
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
	row := querierFromCtx(ctx, s.db).QueryRowContext(ctx, `
		DELETE FROM attributes WHERE owner_id = ? AND kind = ? AND name_key = ?
		RETURNING `+attributeColumns,
		ownerID.String(), string(kind), s.policy.Key(name))

	attr, err := scanAttributeRow(row)
	if errors.Is(err, sql.ErrNoRows) {
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
	rows, err := querierFromCtx(ctx, s.db).QueryContext(ctx, `
		SELECT `+attributeColumns+`
		FROM attributes WHERE owner_id = ? AND kind = ?
		ORDER BY name_key, name
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

// find returns the row at key, or (nil, nil) when absent.
func (s *AttributeStore) find(ctx context.Context, q querier, ownerID ulid.ULID, kind sheet.Kind, key string) (*sheet.Attribute, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+attributeColumns+`
		FROM attributes WHERE owner_id = ? AND kind = ? AND name_key = ?
	`, ownerID.String(), string(kind), key)

	attr, err := scanAttributeRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("ATTRIBUTE_GET_FAILED").
			With("owner_id", ownerID.String()).With("kind", string(kind)).With("name_key", key).
			Wrap(err)
	}
	return attr, nil
}

// insert writes attr. A unique violation is returned unwrapped so callers
// can map it.
func (s *AttributeStore) insert(ctx context.Context, q querier, attr *sheet.Attribute, key string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO attributes (id, owner_id, kind, name, name_key, value, level, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, attr.ID.String(), attr.OwnerID.String(), string(attr.Kind), attr.Name, key,
		attr.Value, attr.Level, nullableString(attr.Description), toMillis(attr.CreatedAt), toMillis(attr.UpdatedAt))
	if isUniqueViolation(err) {
		return err
	}
	if err != nil {
		return oops.Code("ATTRIBUTE_CREATE_FAILED").
			With("owner_id", attr.OwnerID.String()).With("kind", string(attr.Kind)).With("name", attr.Name).
			Wrap(err)
	}
	return nil
}

func (s *AttributeStore) writePayload(ctx context.Context, q querier, attr *sheet.Attribute) error {
	_, err := q.ExecContext(ctx, `
		UPDATE attributes SET value = ?, level = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, attr.Value, attr.Level, nullableString(attr.Description), toMillis(attr.UpdatedAt), attr.ID.String())
	if err != nil {
		return oops.Code("ATTRIBUTE_UPDATE_FAILED").With("id", attr.ID.String()).Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ sheet.AttributeStore = (*AttributeStore)(nil)
