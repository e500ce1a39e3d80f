// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dicebot/dicebot/internal/command"
	"github.com/dicebot/dicebot/internal/observability"
	"github.com/dicebot/dicebot/internal/sheet"
	"github.com/dicebot/dicebot/pkg/errutil"
)

// consoleFrontend labels console sessions and requests in metrics.
const consoleFrontend = "console"

// consoleConfig holds the flags specific to the console command.
type consoleConfig struct {
	id          identity
	autoMigrate bool
}

// newConsoleCmd creates the console subcommand.
func newConsoleCmd(deps *Deps) *cobra.Command {
	cc := &consoleConfig{}
	d := defaultConfig()

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Run chat commands from standard input",
		Long: `Read chat-style commands such as 'spell add Fireball 3' from standard
input, one per line, and print the bot's replies. Each line runs as the
caller given by --caller in the scope given by --scope.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsoleWithDeps(commandContext(cmd), cc, cmd, deps)
		},
	}

	cc.id.addFlags(cmd)
	cmd.Flags().BoolVar(&cc.autoMigrate, "auto-migrate", true, "apply pending migrations before starting")
	cmd.Flags().String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().Int("rate-burst", d.RateBurst, "commands a caller may send at once (0 = unlimited)")
	cmd.Flags().Float64("rate-per-second", d.RatePerSecond, "sustained commands per second per caller")
	cmd.Flags().Int("page-size", d.PageSize, "largest reply block in characters")

	return cmd
}

// runConsoleWithDeps runs the console loop with injectable dependencies.
// If deps is nil, default implementations are used.
func runConsoleWithDeps(ctx context.Context, cc *consoleConfig, cmd *cobra.Command, deps *Deps) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cc.id.requireCaller(); err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}
	deps = deps.withDefaults()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cc.autoMigrate {
		if err := autoMigrate(ctx, cfg, deps); err != nil {
			return err
		}
	}

	backend, err := deps.BackendFactory(ctx, cfg)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Driver).Wrap(err)
	}
	defer backend.Close()

	dispatcher, closeDispatcher, err := newConsoleDispatcher(cfg, backend.Service)
	if err != nil {
		return err
	}
	defer closeDispatcher()

	var ready atomic.Bool
	readiness := func(ctx context.Context) error {
		if !ready.Load() {
			return oops.Code("CONSOLE_NOT_READY").Errorf("console session not started")
		}
		return backend.Ping(ctx)
	}
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obsServer := deps.ObservabilityServerFactory(cfg.MetricsAddr, readiness,
			sheet.RegisterMetrics, command.RegisterMetrics)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", cfg.MetricsAddr).Wrap(err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if stopErr := obsServer.Stop(shutdownCtx); stopErr != nil {
				slog.Warn("failed to stop observability server", "error", stopErr)
			}
		}()
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		metrics = obsServer.Metrics()
		slog.Info("observability server started", "addr", obsServer.Addr())
	}

	ready.Store(true)
	defer ready.Store(false)
	if metrics != nil {
		metrics.SessionsTotal.WithLabelValues(consoleFrontend).Inc()
	}
	slog.Info("console session started",
		"caller_id", cc.id.callerID,
		"scope_id", cc.id.scopeID,
		"driver", cfg.Driver,
	)

	loop := &consoleLoop{
		dispatcher: dispatcher,
		caller:     command.Caller{ID: cc.id.callerID, ScopeID: cc.id.scopeID},
		out:        cmd.OutOrStdout(),
		timeout:    cfg.Timeout,
		metrics:    metrics,
	}
	return loop.run(ctx, deps.Stdin)
}

// autoMigrate applies pending migrations and releases the migrator.
func autoMigrate(ctx context.Context, cfg *Config, deps *Deps) error {
	m, err := deps.MigratorFactory(ctx, cfg)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").With("driver", cfg.Driver).Wrap(err)
	}
	upErr := m.Up()
	if closeErr := m.Close(); closeErr != nil {
		slog.Debug("error closing migrator", "error", closeErr)
	}
	if upErr != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "auto-migrate").Wrap(upErr)
	}
	return nil
}

// newConsoleDispatcher builds the dispatcher and returns a func that stops
// its rate limiter.
func newConsoleDispatcher(cfg *Config, svc *sheet.Service) (*command.Dispatcher, func(), error) {
	registry, err := command.NewDefaultRegistry()
	if err != nil {
		return nil, nil, err
	}
	opts := []command.DispatcherOption{command.WithPageSize(cfg.PageSize)}
	closeFn := func() {}
	if cfg.RateBurst > 0 {
		limiter := command.NewRateLimiter(command.RateLimiterConfig{
			BurstCapacity: cfg.RateBurst,
			SustainedRate: cfg.RatePerSecond,
		})
		opts = append(opts, command.WithRateLimiter(limiter))
		closeFn = limiter.Close
	}
	d, err := command.NewDispatcher(registry, svc, opts...)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return d, closeFn, nil
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string) {
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok && err != nil {
			slog.Error("server failed", "server", name, "error", err)
			cancel()
		}
	}
}

// consoleLoop feeds input lines to the dispatcher one at a time.
type consoleLoop struct {
	dispatcher *command.Dispatcher
	caller     command.Caller
	out        io.Writer
	timeout    time.Duration
	metrics    *observability.Metrics
}

// run reads until EOF, "quit", or ctx is done.
func (l *consoleLoop) run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return oops.Code("CONSOLE_READ_FAILED").Wrap(err)
					}
				default:
				}
				return nil
			}
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if strings.EqualFold(trimmed, "quit") || strings.EqualFold(trimmed, "exit") {
				return nil
			}
			l.handle(ctx, trimmed)
		}
	}
}

func (l *consoleLoop) handle(ctx context.Context, line string) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	err := l.dispatcher.Dispatch(ctx, l.caller, line, l.out)
	status := command.StatusOf(err)
	if l.metrics != nil {
		l.metrics.RequestsTotal.WithLabelValues(consoleFrontend, status).Inc()
	}
	if err == nil {
		return
	}
	if status == sheet.StatusError {
		errutil.LogErrorContext(ctx, slog.Default(), "console command failed", err)
	}
	if _, werr := fmt.Fprintln(l.out, command.PlayerMessage(err)); werr != nil {
		slog.WarnContext(ctx, "failed to write console reply", "error", werr)
	}
}
