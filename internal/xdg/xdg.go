// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

// Package xdg provides XDG Base Directory paths for dicebot.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "dicebot"

// ConfigDir returns the XDG config directory for dicebot.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() (string, error) {
	return dir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for dicebot.
// Checks XDG_DATA_HOME first, falls back to ~/.local/share.
func DataDir() (string, error) {
	return dir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func dir(envVar, homeRel string) (string, error) {
	if base := os.Getenv(envVar); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", oops.Code("XDG_DIR_UNAVAILABLE").With("env", envVar).Wrap(err)
	}
	return filepath.Join(home, homeRel, appName), nil
}

// ConfigFile returns the path of config.yaml in the config directory and
// whether the file exists.
func ConfigFile() (string, bool) {
	d, err := ConfigDir()
	if err != nil {
		return "", false
	}
	path := filepath.Join(d, "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return path, false
	}
	return path, true
}

// DatabasePath returns the default sqlite database file, or a file in the
// working directory when no data directory can be determined.
func DatabasePath() string {
	d, err := DataDir()
	if err != nil {
		return "dicebot.db"
	}
	return filepath.Join(d, "dicebot.db")
}

// EnsureDir creates a directory and all parent directories if they don't exist.
// Directories are created with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil && !errors.Is(err, fs.ErrExist) {
		return oops.Code("XDG_DIR_CREATE_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
