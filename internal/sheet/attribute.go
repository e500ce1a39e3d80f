// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package sheet

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Attribute is a named value owned by exactly one Owner.
// Which payload fields are meaningful depends on Kind.
type Attribute struct {
	ID          ulid.ULID
	OwnerID     ulid.ULID
	Kind        Kind
	Name        string
	Value       int64  // constant, variable
	Level       int    // spell
	Description string // spell, information; "" means no description
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// String renders the attribute the way it is shown in chat.
func (a *Attribute) String() string {
	switch a.Kind {
	case KindConstant, KindVariable:
		return fmt.Sprintf("%s: %d", a.Name, a.Value)
	case KindSpell:
		return fmt.Sprintf("%s (level %d)", a.Name, a.Level)
	default:
		return a.Name
	}
}

// Fields is a partial attribute payload. Nil pointers are "not supplied" and
// leave the stored value untouched on update. A non-nil empty Description
// clears the description.
type Fields struct {
	Value       *int64
	Level       *int
	Description *string
}

// Ptr returns a pointer to v, for building Fields literals.
func Ptr[T any](v T) *T {
	return &v
}

// WithValue returns Fields carrying only a value.
func WithValue(v int64) Fields {
	return Fields{Value: &v}
}

// WithLevel returns Fields carrying only a level.
func WithLevel(level int) Fields {
	return Fields{Level: &level}
}

// WithDescription returns Fields carrying only a description.
func WithDescription(desc string) Fields {
	return Fields{Description: &desc}
}

// Validate checks that every supplied field applies to kind and is in range.
func (f Fields) Validate(kind Kind) error {
	if !kind.Valid() {
		return invalid(CodeInvalidKind, "kind", fmt.Sprintf("unknown attribute kind %q", kind))
	}
	if f.Value != nil && !kind.HasValue() {
		return invalidField(kind, "value")
	}
	if f.Level != nil {
		if !kind.HasLevel() {
			return invalidField(kind, "level")
		}
		if *f.Level < 0 {
			return invalid(CodeAttributeInvalid, "level", "cannot be negative")
		}
		if *f.Level > MaxLevel {
			return invalid(CodeAttributeInvalid, "level", fmt.Sprintf("exceeds maximum of %d", MaxLevel))
		}
	}
	if f.Description != nil {
		if !kind.HasDescription() {
			return invalidField(kind, "description")
		}
		if err := ValidateDescription(*f.Description); err != nil {
			return err
		}
	}
	return nil
}

func invalidField(kind Kind, field string) error {
	return oops.Code(CodeInvalidField).
		With("kind", string(kind)).
		With("field", field).
		Wrap(&ValidationError{Field: field, Message: fmt.Sprintf("not supported for %s", kind.Noun())})
}

// NewAttribute builds a new attribute from fields merged over the kind
// defaults (zero value, level 0, no description). Information blocks must be
// created with a non-empty description.
func NewAttribute(ownerID ulid.ULID, kind Kind, name string, f Fields, now time.Time) (*Attribute, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := f.Validate(kind); err != nil {
		return nil, err
	}
	if kind == KindInformation && (f.Description == nil || *f.Description == "") {
		return nil, invalid(CodeAttributeInvalid, "description", "is required for a new information block")
	}
	a := &Attribute{
		ID:        ulid.Make(),
		OwnerID:   ownerID,
		Kind:      kind,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.ApplyTo(a, now)
	return a, nil
}

// ApplyTo copies the supplied fields onto a and stamps UpdatedAt.
// Fields must already be validated for a.Kind.
func (f Fields) ApplyTo(a *Attribute, now time.Time) {
	if f.Value != nil {
		a.Value = *f.Value
	}
	if f.Level != nil {
		a.Level = *f.Level
	}
	if f.Description != nil {
		a.Description = *f.Description
	}
	a.UpdatedAt = now
}
