// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package command

import "time"

// MetricsRecorder tracks command execution metrics for a single dispatch.
type MetricsRecorder struct {
	startTime time.Time
	group     string
	command   string
	status    string
}

// NewMetricsRecorder initializes a recorder for a single dispatch.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{startTime: time.Now()}
}

// SetCommand sets the canonical group and subcommand for metrics.
func (m *MetricsRecorder) SetCommand(group, command string) {
	m.group = group
	m.command = command
}

// SetStatus sets the execution status for metrics.
func (m *MetricsRecorder) SetStatus(status string) {
	m.status = status
}

// Record writes the collected metrics if a group was resolved. Unknown
// words are not recorded so arbitrary chat input cannot grow label cardinality.
func (m *MetricsRecorder) Record() {
	if m.group == "" {
		return
	}

	RecordCommandExecution(m.group, m.command, m.status)
	RecordCommandDuration(m.group, m.command, time.Since(m.startTime))
}
