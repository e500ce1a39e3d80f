// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

// Package observability serves Prometheus metrics and health probes for a
// running dicebot front end.
package observability

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// ReadinessChecker reports why the front end cannot serve requests yet,
// or nil when it can. A typical checker pings the database.
type ReadinessChecker func(ctx context.Context) error

// readinessTimeout bounds a single readiness probe.
const readinessTimeout = 2 * time.Second

// commandOutputFailures counts replies that could not be written, by command.
// It is package-level so command handlers can record without a Server.
var commandOutputFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dicebot_command_output_failures_total",
		Help: "Replies that could not be written, by command",
	},
	[]string{"command"},
)

// RecordCommandOutputFailure counts a reply that was lost after its command ran.
func RecordCommandOutputFailure(command string) {
	commandOutputFailures.WithLabelValues(command).Inc()
}

// Metrics are the counters a front end records per session and request.
type Metrics struct {
	SessionsTotal *prometheus.CounterVec
	RequestsTotal *prometheus.CounterVec
}

// NewMetrics builds the front-end counters and registers them on reg
// together with the command output failure counter.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dicebot_sessions_total",
			Help: "Front-end sessions started, by front end",
		}, []string{"frontend"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dicebot_requests_total",
			Help: "Chat requests handled, by front end and status",
		}, []string{"frontend", "status"}),
	}
	reg.MustRegister(m.SessionsTotal, m.RequestsTotal, commandOutputFailures)
	return m
}

// Registrar adds a package's collectors to a registry, e.g. sheet.RegisterMetrics.
type Registrar func(prometheus.Registerer)

// Server exposes /metrics, /healthz/liveness and /healthz/readiness.
type Server struct {
	addr     string
	registry *prometheus.Registry
	metrics  *Metrics
	ready    ReadinessChecker

	mu       sync.Mutex
	listener net.Listener
	http     *http.Server
}

// NewServer creates a server that will listen on addr ("127.0.0.1:9100",
// ":0", ...). The registry is private to the server: Go runtime and process
// collectors, the front-end Metrics, and whatever each registrar adds.
// A nil ready checker always reports ready.
func NewServer(addr string, ready ReadinessChecker, registrars ...Registrar) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := NewMetrics(registry)
	for _, register := range registrars {
		register(registry)
	}
	return &Server{addr: addr, registry: registry, metrics: metrics, ready: ready}
}

// Metrics returns the counters front ends record into.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/healthz/liveness", func(w http.ResponseWriter, _ *http.Request) {
		writeProbe(w, http.StatusOK, "ok")
	})
	mux.HandleFunc("/healthz/readiness", s.handleReadiness)
	return mux
}

// Start listens and serves in the background. The returned channel receives
// a serve failure, if any, and is closed when serving ends.
func (s *Server) Start() (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.http != nil {
		return nil, oops.Code("OBSERVABILITY_ALREADY_RUNNING").With("addr", s.addr).Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, oops.Code("OBSERVABILITY_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	s.listener = listener
	s.http = srv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- oops.Code("OBSERVABILITY_SERVE_FAILED").With("addr", listener.Addr().String()).Wrap(serveErr)
		}
	}()
	slog.Debug("observability server listening", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop shuts the server down. Stopping a server that is not running is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.http == nil {
		return nil
	}
	if err := s.http.Shutdown(ctx); err != nil {
		return oops.Code("OBSERVABILITY_STOP_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.http = nil
	s.listener = nil
	return nil
}

// Addr returns the bound address, or "" when not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.ready == nil {
		writeProbe(w, http.StatusOK, "ok")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		writeProbe(w, http.StatusServiceUnavailable, "not ready: "+err.Error())
		return
	}
	writeProbe(w, http.StatusOK, "ok")
}

func writeProbe(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // the prober may have gone away
	w.Write([]byte(body + "\n"))
}
