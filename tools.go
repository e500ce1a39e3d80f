// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

//go:build tools

// Package main pins tool dependencies to go.mod.
// See https://go.dev/wiki/Modules#how-can-i-track-tool-dependencies-for-a-module
package main

import (
	// ginkgo CLI for the integration suites under test/integration
	_ "github.com/onsi/ginkgo/v2/ginkgo"
)
