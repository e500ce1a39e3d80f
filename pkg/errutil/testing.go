// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireOops(t *testing.T, err error) oops.OopsError {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	return oopsErr
}

// AssertErrorCode asserts that err is an oops error whose deepest code is code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	assert.Equal(t, code, requireOops(t, err).Code())
}

// AssertErrorContext asserts that err carries key=value in its oops context.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	ctx := requireOops(t, err).Context()
	if assert.Contains(t, ctx, key) {
		assert.Equal(t, value, ctx[key])
	}
}

// AssertCodedError asserts both the oops code of err and that it matches
// target through errors.Is, e.g. a store NotFound wrapping sheet.ErrNotFound.
func AssertCodedError(t *testing.T, err error, code string, target error) {
	t.Helper()
	AssertErrorCode(t, err, code)
	assert.ErrorIs(t, err, target)
}
