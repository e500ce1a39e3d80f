// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package sheet

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("dicebot/sheet")

// ServiceConfig holds dependencies for Service.
type ServiceConfig struct {
	Owners     OwnerRepository
	Attributes AttributeStore
	NamePolicy NamePolicy
	Logger     *slog.Logger // defaults to slog.Default()
}

// Service is the contract the command layer uses: owner resolution plus the
// attribute operations, each scoped to a resolved Owner.
//
// The service never logs or swallows domain errors. It records metrics and
// spans, validates input, and hands everything else to the store.
type Service struct {
	owners     OwnerRepository
	attributes AttributeStore
	policy     NamePolicy
	logger     *slog.Logger
}

// NewService creates a new Service with the given configuration.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		owners:     cfg.Owners,
		attributes: cfg.Attributes,
		policy:     cfg.NamePolicy,
		logger:     logger,
	}
}

// NamePolicy returns the policy names are compared under.
func (s *Service) NamePolicy() NamePolicy {
	return s.policy
}

// ResolveOwner returns the character bound to the caller in the scope.
// Returns OWNER_NOT_BOUND when the caller has none.
func (s *Service) ResolveOwner(ctx context.Context, callerID, scopeID string) (*Owner, error) {
	var owner *Owner
	err := s.observe(ctx, "resolve_owner", "", func(ctx context.Context) error {
		if err := ValidateIdentity(callerID, scopeID); err != nil {
			return err
		}
		var err error
		owner, err = s.owners.Resolve(ctx, callerID, scopeID)
		return err
	})
	return owner, err
}

// FindOwnerByName looks up another character for read-only inspection.
// Returns (nil, nil) when the scope has no character with that name.
func (s *Service) FindOwnerByName(ctx context.Context, name, scopeID string) (*Owner, error) {
	var owner *Owner
	err := s.observe(ctx, "find_owner", "", func(ctx context.Context) error {
		var err error
		owner, err = s.owners.FindByName(ctx, scopeID, name)
		return err
	})
	return owner, err
}

// BindOwner makes name the caller's active character in the scope, creating
// it if needed.
func (s *Service) BindOwner(ctx context.Context, callerID, scopeID, name string) (*Owner, error) {
	var owner *Owner
	err := s.observe(ctx, "bind_owner", "", func(ctx context.Context) error {
		if err := ValidateIdentity(callerID, scopeID); err != nil {
			return err
		}
		if err := ValidateOwnerName(name); err != nil {
			return err
		}
		var err error
		owner, err = s.owners.Bind(ctx, callerID, scopeID, name)
		if err == nil {
			s.logger.DebugContext(ctx, "owner bound",
				"caller_id", callerID, "scope_id", scopeID, "owner_id", owner.ID.String())
		}
		return err
	})
	return owner, err
}

// ListOwners returns the scope's characters ordered by name.
func (s *Service) ListOwners(ctx context.Context, scopeID string) ([]*Owner, error) {
	var owners []*Owner
	err := s.observe(ctx, "list_owners", "", func(ctx context.Context) error {
		var err error
		owners, err = s.owners.ListByScope(ctx, scopeID)
		return err
	})
	return owners, err
}

// UpsertAttribute creates or partially updates the named attribute.
func (s *Service) UpsertAttribute(ctx context.Context, owner *Owner, kind Kind, name string, f Fields) (*Attribute, error) {
	return s.mutate(ctx, "upsert", owner, kind, name, f, s.attributes.Upsert)
}

// CreateAttribute inserts a new attribute, failing on a name collision.
func (s *Service) CreateAttribute(ctx context.Context, owner *Owner, kind Kind, name string, f Fields) (*Attribute, error) {
	return s.mutate(ctx, "create", owner, kind, name, f, s.attributes.Create)
}

// UpdateAttribute applies fields to an existing attribute.
func (s *Service) UpdateAttribute(ctx context.Context, owner *Owner, kind Kind, name string, f Fields) (*Attribute, error) {
	return s.mutate(ctx, "update", owner, kind, name, f, s.attributes.Update)
}

type mutation func(ctx context.Context, ownerID ulid.ULID, kind Kind, name string, f Fields) (*Attribute, error)

func (s *Service) mutate(ctx context.Context, op string, owner *Owner, kind Kind, name string, f Fields, fn mutation) (*Attribute, error) {
	var attr *Attribute
	err := s.observe(ctx, op, kind, func(ctx context.Context) error {
		if err := checkTarget(owner, kind, name); err != nil {
			return err
		}
		if err := f.Validate(kind); err != nil {
			return err
		}
		var err error
		attr, err = fn(ctx, owner.ID, kind, name, f)
		if err == nil {
			s.logger.DebugContext(ctx, "attribute written",
				"operation", op, "owner_id", owner.ID.String(), "kind", string(kind), "name", attr.Name)
		}
		return err
	})
	return attr, err
}

// GetAttribute returns the attribute, or (nil, nil) when absent.
func (s *Service) GetAttribute(ctx context.Context, owner *Owner, kind Kind, name string) (*Attribute, error) {
	var attr *Attribute
	err := s.observe(ctx, "get", kind, func(ctx context.Context) error {
		if err := checkTarget(owner, kind, name); err != nil {
			return err
		}
		var err error
		attr, err = s.attributes.Get(ctx, owner.ID, kind, name)
		return err
	})
	return attr, err
}

// RenameAttribute renames an attribute. A failed rename leaves both the
// source and any attribute already holding newName untouched.
func (s *Service) RenameAttribute(ctx context.Context, owner *Owner, kind Kind, oldName, newName string) (*Attribute, error) {
	var attr *Attribute
	err := s.observe(ctx, "rename", kind, func(ctx context.Context) error {
		if err := checkTarget(owner, kind, oldName); err != nil {
			return err
		}
		if err := ValidateName(newName); err != nil {
			return err
		}
		var err error
		attr, err = s.attributes.Rename(ctx, owner.ID, kind, oldName, newName)
		if err == nil {
			s.logger.DebugContext(ctx, "attribute renamed",
				"owner_id", owner.ID.String(), "kind", string(kind), "from", oldName, "to", newName)
		}
		return err
	})
	return attr, err
}

// RemoveAttribute deletes the attribute and returns what was removed.
func (s *Service) RemoveAttribute(ctx context.Context, owner *Owner, kind Kind, name string) (*Attribute, error) {
	var attr *Attribute
	err := s.observe(ctx, "remove", kind, func(ctx context.Context) error {
		if err := checkTarget(owner, kind, name); err != nil {
			return err
		}
		var err error
		attr, err = s.attributes.Remove(ctx, owner.ID, kind, name)
		if err == nil {
			s.logger.DebugContext(ctx, "attribute removed",
				"owner_id", owner.ID.String(), "kind", string(kind), "name", attr.Name)
		}
		return err
	})
	return attr, err
}

// ListAttributes returns the owner's attributes of kind ordered by name.
// An owner with none yields an empty, non-nil slice.
func (s *Service) ListAttributes(ctx context.Context, owner *Owner, kind Kind) ([]*Attribute, error) {
	return s.FilterAttributes(ctx, owner, kind, nil)
}

// FilterAttributes returns the owner's attributes of kind matching p,
// ordered by name. A nil predicate matches everything.
func (s *Service) FilterAttributes(ctx context.Context, owner *Owner, kind Kind, p Predicate) ([]*Attribute, error) {
	op := "list"
	if p != nil {
		op = "filter"
	}
	var attrs []*Attribute
	err := s.observe(ctx, op, kind, func(ctx context.Context) error {
		if owner == nil {
			return invalid(CodeOwnerInvalid, "owner", "is required")
		}
		if !kind.Valid() {
			return (Fields{}).Validate(kind)
		}
		all, err := s.attributes.List(ctx, owner.ID, kind)
		if err != nil {
			return err
		}
		attrs = p.Apply(all)
		return nil
	})
	return attrs, err
}

func checkTarget(owner *Owner, kind Kind, name string) error {
	if owner == nil {
		return invalid(CodeOwnerInvalid, "owner", "is required")
	}
	if !kind.Valid() {
		return (Fields{}).Validate(kind)
	}
	return ValidateName(name)
}

// observe wraps an operation in a span and records its metrics. Domain
// failures are expected outcomes and do not mark the span as errored.
func (s *Service) observe(ctx context.Context, op string, kind Kind, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "sheet."+op,
		trace.WithAttributes(attribute.String("attribute.kind", string(kind))),
	)
	defer span.End()

	err := fn(ctx)
	status := StatusOf(err)
	RecordOperation(op, kind, status, time.Since(start))
	span.SetAttributes(attribute.String("sheet.status", status))
	if status == StatusError {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
