// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package sheet

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status labels for operation metrics.
const (
	StatusSuccess   = "success"
	StatusNotFound  = "not_found"
	StatusDuplicate = "duplicate"
	StatusNotBound  = "not_bound"
	StatusInvalid   = "invalid"
	StatusError     = "error"
)

// Operations counts store operations by operation, kind and outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var Operations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dicebot_sheet_operations_total",
		Help: "Total number of character sheet operations",
	},
	[]string{"operation", "kind", "status"},
)

// OperationDuration observes store operation latency.
// Use RegisterMetrics to register this with a Prometheus registry.
var OperationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "dicebot_sheet_operation_duration_seconds",
		Help:    "Character sheet operation duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation", "kind"},
)

// RegisterMetrics registers sheet metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Operations)
	reg.MustRegister(OperationDuration)
}

// RecordOperation records one finished operation.
func RecordOperation(operation string, kind Kind, status string, d time.Duration) {
	Operations.WithLabelValues(operation, string(kind), status).Inc()
	OperationDuration.WithLabelValues(operation, string(kind)).Observe(d.Seconds())
}

// StatusOf classifies an operation error into a metrics status label.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case IsNotFound(err):
		return StatusNotFound
	case IsDuplicateName(err):
		return StatusDuplicate
	case IsNotBound(err):
		return StatusNotBound
	case IsInvalid(err):
		return StatusInvalid
	default:
		return StatusError
	}
}
