// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/dicebot/dicebot/internal/sheet"
)

// attributeScanFields holds intermediate scan values for attribute parsing.
type attributeScanFields struct {
	idStr       string
	ownerIDStr  string
	kind        string
	description *string
}

func (f *attributeScanFields) targets(attr *sheet.Attribute) []any {
	return []any{
		&f.idStr, &f.ownerIDStr, &f.kind, &attr.Name, &attr.Value, &attr.Level,
		&f.description, &attr.CreatedAt, &attr.UpdatedAt,
	}
}

// scanAttributeRow scans a single attribute. pgx.ErrNoRows is returned
// unwrapped so callers can test for it.
func scanAttributeRow(row pgx.Row) (*sheet.Attribute, error) {
	var attr sheet.Attribute
	var f attributeScanFields

	if err := row.Scan(f.targets(&attr)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, oops.Code("ATTRIBUTE_SCAN_FAILED").Wrap(err)
	}
	if err := parseAttributeFromFields(&f, &attr); err != nil {
		return nil, err
	}
	return &attr, nil
}

func scanAttributes(rows pgx.Rows) ([]*sheet.Attribute, error) {
	attrs := make([]*sheet.Attribute, 0)
	for rows.Next() {
		var attr sheet.Attribute
		var f attributeScanFields

		if err := rows.Scan(f.targets(&attr)...); err != nil {
			return nil, oops.Code("ATTRIBUTE_SCAN_FAILED").Wrap(err)
		}
		if err := parseAttributeFromFields(&f, &attr); err != nil {
			return nil, err
		}
		attrs = append(attrs, &attr)
	}

	if err := rows.Err(); err != nil {
		return nil, oops.Code("ATTRIBUTE_ITERATE_FAILED").Wrap(err)
	}
	return attrs, nil
}

// parseAttributeFromFields converts scan fields to attribute fields.
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
	if f.description != nil {
		attr.Description = *f.description
	}
	attr.CreatedAt = attr.CreatedAt.UTC()
	attr.UpdatedAt = attr.UpdatedAt.UTC()
	return nil
}

// ownerScanFields holds intermediate scan values for owner parsing.
type ownerScanFields struct {
	idStr string
}

func scanOwnerRow(row pgx.Row) (*sheet.Owner, error) {
	var owner sheet.Owner
	var f ownerScanFields

	if err := row.Scan(&f.idStr, &owner.ScopeID, &owner.Name, &owner.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, oops.Code("OWNER_SCAN_FAILED").Wrap(err)
	}
	return parseOwner(&f, &owner)
}

func scanOwners(rows pgx.Rows) ([]*sheet.Owner, error) {
	owners := make([]*sheet.Owner, 0)
	for rows.Next() {
		var owner sheet.Owner
		var f ownerScanFields
		if err := rows.Scan(&f.idStr, &owner.ScopeID, &owner.Name, &owner.CreatedAt); err != nil {
			return nil, oops.Code("OWNER_SCAN_FAILED").Wrap(err)
		}
		parsed, err := parseOwner(&f, &owner)
		if err != nil {
			return nil, err
		}
		owners = append(owners, parsed)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("OWNER_ITERATE_FAILED").Wrap(err)
	}
	return owners, nil
}

func parseOwner(f *ownerScanFields, owner *sheet.Owner) (*sheet.Owner, error) {
	id, err := ulid.Parse(f.idStr)
	if err != nil {
		return nil, oops.Code("OWNER_PARSE_FAILED").With("field", "id").With("value", f.idStr).Wrap(err)
	}
	owner.ID = id
	owner.CreatedAt = owner.CreatedAt.UTC()
	return owner, nil
}

// nullableString maps "" to SQL NULL; absent and empty descriptions are the same.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
