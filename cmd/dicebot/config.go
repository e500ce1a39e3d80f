// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package main

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dicebot/dicebot/internal/command"
	"github.com/dicebot/dicebot/internal/logging"
	"github.com/dicebot/dicebot/internal/xdg"
)

// envPrefix namespaces every environment override, e.g. DICEBOT_DRIVER.
const envPrefix = "DICEBOT_"

// Config is the resolved configuration shared by every subcommand.
//
// Sources apply in order: built-in defaults, the YAML file named by
// --config (or config.yaml in the XDG config directory when it exists),
// DICEBOT_* environment variables, then flags the user set.
type Config struct {
	Driver          string        `koanf:"driver" env:"DRIVER" validate:"oneof=postgres sqlite"`
	DatabaseURL     string        `koanf:"database_url" env:"DATABASE_URL" validate:"required_if=Driver postgres"`
	DatabasePath    string        `koanf:"database_path" env:"DATABASE_PATH" validate:"required_if=Driver sqlite"`
	CaseInsensitive bool          `koanf:"case_insensitive" env:"CASE_INSENSITIVE"`
	LogFormat       string        `koanf:"log_format" env:"LOG_FORMAT" validate:"oneof=json text"`
	LogLevel        string        `koanf:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Timeout         time.Duration `koanf:"timeout" env:"TIMEOUT" validate:"gt=0"`
	MetricsAddr     string        `koanf:"metrics_addr" env:"METRICS_ADDR" validate:"omitempty,hostname_port"`
	RateBurst       int           `koanf:"rate_burst" env:"RATE_BURST" validate:"gte=0"`
	RatePerSecond   float64       `koanf:"rate_per_second" env:"RATE_PER_SECOND" validate:"gte=0"`
	PageSize        int           `koanf:"page_size" env:"PAGE_SIZE" validate:"gt=0"`
}

// Default configuration values.
const (
	defaultDriver    = "sqlite"
	defaultLogFormat = "text"
	defaultLogLevel  = "info"
	defaultTimeout   = 5 * time.Second
)

func defaultConfig() Config {
	return Config{
		Driver:        defaultDriver,
		DatabasePath:  xdg.DatabasePath(),
		LogFormat:     defaultLogFormat,
		LogLevel:      defaultLogLevel,
		Timeout:       defaultTimeout,
		RateBurst:     command.DefaultBurstCapacity,
		RatePerSecond: command.DefaultSustainedRate,
		PageSize:      command.DefaultPageSize,
	}
}

var validate = validator.New()

// addStoreFlags registers the flags every subcommand shares.
func addStoreFlags(cmd *cobra.Command) {
	d := defaultConfig()
	fs := cmd.PersistentFlags()
	fs.String("driver", d.Driver, "storage driver (postgres or sqlite)")
	fs.String("database-url", "", "PostgreSQL connection URL (postgres driver)")
	fs.String("database-path", d.DatabasePath, "database file (sqlite driver)")
	fs.Bool("case-insensitive", false, "treat names differing only in case as the same name")
	fs.String("log-format", d.LogFormat, "log format (json or text)")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.Duration("timeout", d.Timeout, "per-operation timeout")
}

// loadConfig resolves the configuration for cmd from file, environment and flags.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	cfg := defaultConfig()

	path := configFile
	if path == "" {
		if p, ok := xdg.ConfigFile(); ok {
			path = p
		}
	}
	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("source", "environment").Wrap(err)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if err := applyFlags(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyFlags overlays only the flags the user actually set, so a flag's
// default never hides a value from the file or the environment.
func applyFlags(fs *pflag.FlagSet, cfg *Config) error {
	k := koanf.New(".")
	provider := posflag.ProviderWithFlag(fs, ".", nil, func(f *pflag.Flag) (string, interface{}) {
		if !f.Changed {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
	})
	if err := k.Load(provider, nil); err != nil {
		return oops.Code("CONFIG_INVALID").With("source", "flags").Wrap(err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return oops.Code("CONFIG_INVALID").With("source", "flags").Wrap(err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return oops.Code("CONFIG_INVALID").Wrapf(err, "invalid configuration")
	}
	return nil
}

// setupLogging installs the default logger described by cfg.
func setupLogging(cfg *Config) error {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.SetDefault("dicebot", version, cfg.LogFormat, level)
	return nil
}
