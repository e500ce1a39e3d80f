// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package sheet

import (
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Error codes attached to every error returned by the sheet packages.
const (
	CodeOwnerNotBound     = "OWNER_NOT_BOUND"
	CodeOwnerInvalid      = "OWNER_INVALID"
	CodeInvalidKind       = "ATTRIBUTE_INVALID_KIND"
	CodeInvalidField      = "ATTRIBUTE_INVALID_FIELD"
	CodeAttributeInvalid  = "ATTRIBUTE_INVALID"
	CodeAttributeNotFound = "ATTRIBUTE_NOT_FOUND"
	CodeDuplicateName     = "ATTRIBUTE_DUPLICATE_NAME"
	CodeInvalidFilter     = "ATTRIBUTE_INVALID_FILTER"
)

// Sentinel errors. The typed errors below match them with errors.Is.
var (
	ErrNotBound      = errors.New("no character bound")
	ErrNotFound      = errors.New("attribute not found")
	ErrDuplicateName = errors.New("duplicate attribute name")
)

// NotFoundError reports that no attribute exists at (owner, kind, name).
type NotFoundError struct {
	Kind Kind
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind.Noun(), e.Name)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DuplicateNameError reports that a create or rename would give an owner two
// attributes of the same kind with the same name.
type DuplicateNameError struct {
	OwnerID ulid.ULID
	Kind    Kind
	Name    string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind.Noun(), e.Name)
}

// Is reports whether target is ErrDuplicateName.
func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}

// NotBound returns the error for a caller with no character in the scope.
func NotBound(callerID, scopeID string) error {
	return oops.Code(CodeOwnerNotBound).
		With("caller_id", callerID).
		With("scope_id", scopeID).
		Wrap(ErrNotBound)
}

// NotFound returns a coded NotFoundError.
func NotFound(ownerID ulid.ULID, kind Kind, name string) error {
	return oops.Code(CodeAttributeNotFound).
		With("owner_id", ownerID.String()).
		With("kind", string(kind)).
		With("name", name).
		Wrap(&NotFoundError{Kind: kind, Name: name})
}

// DuplicateName returns a coded DuplicateNameError.
func DuplicateName(ownerID ulid.ULID, kind Kind, name string) error {
	return oops.Code(CodeDuplicateName).
		With("owner_id", ownerID.String()).
		With("kind", string(kind)).
		With("name", name).
		Wrap(&DuplicateNameError{OwnerID: ownerID, Kind: kind, Name: name})
}

// IsNotFound reports whether err is (or wraps) a missing-attribute error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateName reports whether err is (or wraps) a name collision.
func IsDuplicateName(err error) bool {
	return errors.Is(err, ErrDuplicateName)
}

// IsInvalid reports whether err is a rejected input: a ValidationError or
// an unparsable filter.
func IsInvalid(err error) bool {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return true
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Code() == CodeInvalidFilter
	}
	return false
}

// IsNotBound reports whether err is (or wraps) ErrNotBound.
func IsNotBound(err error) bool {
	return errors.Is(err, ErrNotBound)
}
