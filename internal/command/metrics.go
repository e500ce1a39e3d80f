// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package command

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/dicebot/dicebot/internal/sheet"
)

// Status labels for command execution metrics beyond those of sheet.StatusOf.
const (
	StatusUnknownCommand = "unknown_command"
	StatusInvalidArgs    = "invalid_args"
	StatusRateLimited    = "rate_limited"
)

// CommandExecutions is the counter for command executions.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandExecutions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dicebot_command_executions_total",
		Help: "Total number of command executions",
	},
	[]string{"group", "command", "status"},
)

// CommandDuration is the histogram for command execution duration.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "dicebot_command_duration_seconds",
		Help:    "Command execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"group", "command"},
)

// AliasResolutions counts commands invoked through an alias word.
// Use RegisterMetrics to register this with a Prometheus registry.
var AliasResolutions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dicebot_command_alias_resolutions_total",
		Help: "Total number of commands invoked through an alias",
	},
	[]string{"alias"},
)

// RateLimitedCommands counts commands rejected by the rate limiter.
// Use RegisterMetrics to register this with a Prometheus registry.
var RateLimitedCommands = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "dicebot_command_rate_limited_total",
		Help: "Total number of commands rejected by rate limiting",
	},
)

// RegisterMetrics registers command package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CommandExecutions)
	reg.MustRegister(CommandDuration)
	reg.MustRegister(AliasResolutions)
	reg.MustRegister(RateLimitedCommands)
}

// RecordCommandExecution increments the command execution counter.
func RecordCommandExecution(group, command, status string) {
	CommandExecutions.WithLabelValues(group, command, status).Inc()
}

// RecordCommandDuration records the duration of a command execution.
func RecordCommandDuration(group, command string, duration time.Duration) {
	CommandDuration.WithLabelValues(group, command).Observe(duration.Seconds())
}

// RecordAliasResolution increments the alias counter.
func RecordAliasResolution(alias string) {
	AliasResolutions.WithLabelValues(alias).Inc()
}

// StatusOf classifies a dispatch error into a metrics status label.
func StatusOf(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		switch oopsErr.Code() {
		case CodeUnknownCommand, CodeEmptyInput:
			return StatusUnknownCommand
		case CodeInvalidArgs:
			return StatusInvalidArgs
		case CodeRateLimited:
			return StatusRateLimited
		case CodeNoSuchCharacter:
			return sheet.StatusNotFound
		}
	}
	return sheet.StatusOf(err)
}
