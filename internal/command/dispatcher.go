// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dicebot/dicebot/internal/logging"
	"github.com/dicebot/dicebot/internal/sheet"
)

var tracer = otel.Tracer("dicebot/command")

// Caller identifies who sent a command and from which chat server.
type Caller struct {
	ID      string
	ScopeID string
}

// Dispatcher handles command parsing, lookup, and execution.
type Dispatcher struct {
	registry    *Registry
	service     *sheet.Service
	rateLimiter *RateLimiter // optional, can be nil
	pageSize    int
}

// DispatcherOption configures a Dispatcher during construction.
type DispatcherOption func(*Dispatcher)

// WithRateLimiter enables per-caller rate limiting.
func WithRateLimiter(rl *RateLimiter) DispatcherOption {
	return func(d *Dispatcher) {
		d.rateLimiter = rl
	}
}

// WithPageSize sets the listing block size in characters.
func WithPageSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		d.pageSize = n
	}
}

// NewDispatcher creates a dispatcher over the registry and service.
func NewDispatcher(registry *Registry, service *sheet.Service, opts ...DispatcherOption) (*Dispatcher, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if service == nil {
		return nil, ErrNilService
	}
	d := &Dispatcher{
		registry: registry,
		service:  service,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch parses and executes one command line, writing replies to out.
// The returned error is for the caller to render with PlayerMessage.
func (d *Dispatcher) Dispatch(ctx context.Context, caller Caller, input string, out io.Writer) (err error) {
	ctx = logging.WithRequest(ctx, caller.ID, caller.ScopeID)
	rec := NewMetricsRecorder()
	defer func() {
		rec.SetStatus(StatusOf(err))
		rec.Record()
	}()

	parsed, err := Parse(input)
	if err != nil {
		return err
	}

	if strings.EqualFold(parsed.Group, "help") {
		return d.help(ctx, out, parsed.Sub)
	}

	group, ok := d.registry.Group(parsed.Group)
	if !ok {
		return ErrUnknownCommand(parsed.Group)
	}
	if parsed.Sub == "" {
		return ErrInvalidArgs(group, group+" <"+strings.Join(d.subcommandNames(group), "|")+">")
	}
	entry, ok := d.registry.Get(group, parsed.Sub)
	if !ok {
		return ErrUnknownCommand(group + " " + parsed.Sub)
	}
	rec.SetCommand(group, entry.Name)
	if !strings.EqualFold(parsed.Group, group) {
		RecordAliasResolution(strings.ToLower(parsed.Group))
	}
	if !strings.EqualFold(parsed.Sub, entry.Name) {
		RecordAliasResolution(strings.ToLower(parsed.Sub))
	}

	ctx, span := tracer.Start(ctx, "command.execute",
		trace.WithAttributes(
			attribute.String("command.group", group),
			attribute.String("command.name", entry.Name),
			attribute.String("caller.id", caller.ID),
			attribute.String("scope.id", caller.ScopeID),
		),
	)
	defer func() {
		span.SetAttributes(attribute.String("command.status", StatusOf(err)))
		if err != nil && StatusOf(err) == sheet.StatusError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if d.rateLimiter != nil {
		if allowed, cooldownMs := d.rateLimiter.Allow(caller.ID, caller.ScopeID); !allowed {
			span.SetAttributes(attribute.Bool("command.rate_limited", true))
			span.SetAttributes(attribute.Int64("command.cooldown_ms", cooldownMs))
			RateLimitedCommands.Inc()
			return ErrRateLimited(cooldownMs)
		}
	}

	exec := &Execution{
		CallerID:  caller.ID,
		ScopeID:   caller.ScopeID,
		Group:     group,
		InvokedAs: strings.ToLower(parsed.Sub),
		Args:      parsed.Args,
		Rest:      parsed.Rest,
		Output:    out,
		Service:   d.service,
		PageSize:  d.pageSize,
	}
	exec.UsageLine = group + " " + exec.InvokedAs
	if entry.Usage != "" {
		exec.UsageLine += " " + entry.Usage
	}
	if kind, kerr := sheet.ParseKind(group); kerr == nil {
		exec.Kind = kind
	}

	err = entry.Handler(ctx, exec)
	if err != nil && StatusOf(err) == sheet.StatusError {
		slog.WarnContext(ctx, "command execution failed",
			"group", group,
			"command", entry.Name,
			"error", err,
		)
	}
	return err
}

func (d *Dispatcher) subcommandNames(group string) []string {
	entries := d.registry.Commands(group)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

// help lists every group, or one group's subcommands.
func (d *Dispatcher) help(ctx context.Context, out io.Writer, word string) error {
	var lines []string
	if word == "" {
		lines = append(lines, "Command groups:")
		for _, g := range d.registry.Groups() {
			lines = append(lines, fmt.Sprintf("  %s <%s>", g, strings.Join(d.subcommandNames(g), "|")))
		}
		lines = append(lines, "Use 'help <group>' for details.")
	} else {
		group, ok := d.registry.Group(word)
		if !ok {
			return ErrUnknownCommand(word)
		}
		lines = append(lines, group+" commands:")
		for _, e := range d.registry.Commands(group) {
			usage := strings.TrimSpace(group + " " + e.Name + " " + e.Usage)
			if len(e.Aliases) > 0 {
				usage += " (also: " + strings.Join(e.Aliases, ", ") + ")"
			}
			lines = append(lines, "  "+usage, "      "+e.Help)
		}
	}
	writeLines(ctx, out, "help", lines, d.pageSize)
	return nil
}
