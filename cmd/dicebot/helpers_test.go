// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dicebot/dicebot/internal/observability"
	"github.com/dicebot/dicebot/internal/store"
)

// cli runs the command tree against a fresh sqlite database.
type cli struct {
	t    *testing.T
	path string
	deps *Deps
}

func newCLI(t *testing.T, deps *Deps) *cli {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Cleanup(func() { configFile = "" })
	return &cli{t: t, path: filepath.Join(t.TempDir(), "dicebot.db"), deps: deps}
}

// run executes args with the test database and returns the combined output.
func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	configFile = ""
	root := newRootCmd(c.deps)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append(args, "--database-path", c.path, "--log-level", "error"))
	err := root.Execute()
	return buf.String(), err
}

// mockMigrator implements Migrator for testing.
type mockMigrator struct {
	upErr       error
	upCalled    bool
	closeCalled bool
	downCalled  bool
	steps       int
	forced      int
	version     uint
	dirty       bool
	applied     []uint
	pending     []uint
}

func (m *mockMigrator) Up() error {
	m.upCalled = true
	return m.upErr
}

func (m *mockMigrator) Close() error {
	m.closeCalled = true
	return nil
}

func (m *mockMigrator) Down() error {
	m.downCalled = true
	return nil
}

func (m *mockMigrator) Steps(n int) error {
	m.steps = n
	return nil
}

func (m *mockMigrator) Version() (uint, bool, error) {
	return m.version, m.dirty, nil
}

func (m *mockMigrator) Force(version int) error {
	m.forced = version
	return nil
}

func (m *mockMigrator) PendingMigrations() ([]uint, error) {
	return m.pending, nil
}

func (m *mockMigrator) AppliedMigrations() ([]uint, error) {
	return m.applied, nil
}

func (m *mockMigrator) Dialect() store.Dialect {
	return store.SQLite
}

func migratorDeps(m *mockMigrator) *Deps {
	return &Deps{
		MigratorFactory: func(context.Context, *Config) (Migrator, error) {
			return m, nil
		},
	}
}

// mockObservabilityServer implements ObservabilityServer for testing.
type mockObservabilityServer struct {
	startErr     error
	startCalled  bool
	stopCalled   bool
	registrars   int
	readyAtStart bool
	ready        observability.ReadinessChecker
	metrics      *observability.Metrics
}

func newMockObservabilityServer() *mockObservabilityServer {
	return &mockObservabilityServer{metrics: observability.NewMetrics(prometheus.NewRegistry())}
}

func (m *mockObservabilityServer) Start() (<-chan error, error) {
	m.startCalled = true
	m.readyAtStart = m.ready(context.Background()) == nil
	if m.startErr != nil {
		return nil, m.startErr
	}
	return make(chan error, 1), nil
}

func (m *mockObservabilityServer) Stop(context.Context) error {
	m.stopCalled = true
	return nil
}

func (m *mockObservabilityServer) Addr() string {
	return "127.0.0.1:9100"
}

func (m *mockObservabilityServer) Metrics() *observability.Metrics {
	return m.metrics
}

// onFirstRead calls hook once, just before the first read from r.
type onFirstRead struct {
	r    io.Reader
	hook func()
	done bool
}

func (o *onFirstRead) Read(p []byte) (int, error) {
	if !o.done {
		o.done = true
		o.hook()
	}
	return o.r.Read(p)
}
