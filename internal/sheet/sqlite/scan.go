// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package sqlite

import (
	"database/sql"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/dicebot/dicebot/internal/sheet"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

type attributeScanFields struct {
	idStr       string
	ownerIDStr  string
	kind        string
	description sql.NullString
	createdAt   int64
	updatedAt   int64
}

func (f *attributeScanFields) targets(attr *sheet.Attribute) []any {
	return []any{
		&f.idStr, &f.ownerIDStr, &f.kind, &attr.Name, &attr.Value, &attr.Level,
		&f.description, &f.createdAt, &f.updatedAt,
	}
}

// scanAttributeRow scans a single attribute. sql.ErrNoRows is returned
// unwrapped so callers can test for it.
func scanAttributeRow(row rowScanner) (*sheet.Attribute, error) {
	var attr sheet.Attribute
	var f attributeScanFields

	if err := row.Scan(f.targets(&attr)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, oops.Code("ATTRIBUTE_SCAN_FAILED").Wrap(err)
	}
	if err := parseAttributeFromFields(&f, &attr); err != nil {
		return nil, err
	}
	return &attr, nil
}

func scanAttributes(rows *sql.Rows) ([]*sheet.Attribute, error) {
	attrs := make([]*sheet.Attribute, 0)
	for rows.Next() {
		attr, err := scanAttributeRow(rows)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ATTRIBUTE_ITERATE_FAILED").Wrap(err)
	}
	return attrs, nil
}

func parseAttributeFromFields(f *attributeScanFields, attr *sheet.Attribute) error {
	var err error
	attr.ID, err = ulid.Parse(f.idStr)
	if err != nil {
		return oops.Code("ATTRIBUTE_PARSE_FAILED").With("field", "id").With("value", f.idStr).Wrap(err)
	}
	attr.OwnerID, err = ulid.Parse(f.ownerIDStr)
	if err != nil {
		return oops.Code("ATTRIBUTE_PARSE_FAILED").With("field", "owner_id").With("value", f.ownerIDStr).Wrap(err)
	}
	attr.Kind = sheet.Kind(f.kind)
	if !attr.Kind.Valid() {
		return oops.Code("ATTRIBUTE_PARSE_FAILED").With("field", "kind").With("value", f.kind).Errorf("unknown kind")
	}
	attr.Description = f.description.String
	attr.CreatedAt = fromMillis(f.createdAt)
	attr.UpdatedAt = fromMillis(f.updatedAt)
	return nil
}

func scanOwnerRow(row rowScanner) (*sheet.Owner, error) {
	var owner sheet.Owner
	var idStr string
	var createdAt int64

	if err := row.Scan(&idStr, &owner.ScopeID, &owner.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, oops.Code("OWNER_SCAN_FAILED").Wrap(err)
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("OWNER_PARSE_FAILED").With("field", "id").With("value", idStr).Wrap(err)
	}
	owner.ID = id
	owner.CreatedAt = fromMillis(createdAt)
	return &owner, nil
}

func scanOwners(rows *sql.Rows) ([]*sheet.Owner, error) {
	owners := make([]*sheet.Owner, 0)
	for rows.Next() {
		owner, err := scanOwnerRow(rows)
		if err != nil {
			return nil, err
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("OWNER_ITERATE_FAILED").Wrap(err)
	}
	return owners, nil
}
