// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

// Package logging provides structured logging with OpenTelemetry trace
// context and the chat request identity.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/trace"
)

type requestKey struct{}

type request struct {
	callerID string
	scopeID  string
}

// WithRequest returns a context whose log records carry caller_id and scope_id.
func WithRequest(ctx context.Context, callerID, scopeID string) context.Context {
	return context.WithValue(ctx, requestKey{}, request{callerID: callerID, scopeID: scopeID})
}

// contextHandler adds the span and request identity found in the record's
// context. Service and version are attached once, at Setup.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if req, ok := ctx.Value(requestKey{}).(request); ok {
		r.AddAttrs(
			slog.String("caller_id", req.callerID),
			slog.String("scope_id", req.scopeID),
		)
	}
	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// ParseLevel converts "debug", "info", "warn" or "error" to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, oops.Code("INVALID_LOG_LEVEL").With("level", s).Wrap(err)
	}
	return level, nil
}

// Setup builds a logger writing "text" or JSON (any other format) records
// to w, or to stderr when w is nil.
func Setup(service, version, format string, level slog.Level, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	var base slog.Handler = slog.NewJSONHandler(w, opts)
	if format == "text" {
		base = slog.NewTextHandler(w, opts)
	}
	base = base.WithAttrs([]slog.Attr{
		slog.String("service", service),
		slog.String("version", version),
	})
	return slog.New(contextHandler{base})
}

// SetDefault sets up and configures the default logger.
func SetDefault(service, version, format string, level slog.Level) {
	slog.SetDefault(Setup(service, version, format, level, nil))
}
