// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dicebot/dicebot/internal/sheet"
	"github.com/dicebot/dicebot/internal/sheet/postgres"
	"github.com/dicebot/dicebot/pkg/errutil"
)

var ownerCols = []string{"id", "scope_id", "name", "created_at"}

func TestOwnerRepository_ResolveNotBound(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`FROM owner_bindings b JOIN owners o`).
		WithArgs("user-1", "guild-1").
		WillReturnRows(pgxmock.NewRows(ownerCols))

	_, err := postgres.NewOwnerRepository(mock).Resolve(context.Background(), "user-1", "guild-1")
	require.Error(t, err)
	errutil.AssertCodedError(t, err, sheet.CodeOwnerNotBound, sheet.ErrNotBound)
	assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
}

func TestOwnerRepository_Resolve(t *testing.T) {
	mock := newMock(t)
	id := ulid.Make()

	mock.ExpectQuery(`FROM owner_bindings b JOIN owners o`).
		WithArgs("user-1", "guild-1").
		WillReturnRows(pgxmock.NewRows(ownerCols).AddRow(id.String(), "guild-1", "Aria", time.Now()))

	owner, err := postgres.NewOwnerRepository(mock).Resolve(context.Background(), "user-1", "guild-1")
	require.NoError(t, err)
	assert.Equal(t, id, owner.ID)
	assert.Equal(t, "Aria", owner.Name)
	assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
}

func TestOwnerRepository_Bind(t *testing.T) {
	mock := newMock(t)
	id := ulid.Make()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO owners`).
		WithArgs(pgxmock.AnyArg(), "guild-1", "Aria", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`FROM owners o WHERE o.scope_id = \$1 AND o.name = \$2`).
		WithArgs("guild-1", "Aria").
		WillReturnRows(pgxmock.NewRows(ownerCols).AddRow(id.String(), "guild-1", "Aria", time.Now()))
	mock.ExpectExec(`INSERT INTO owner_bindings`).
		WithArgs("user-2", "guild-1", id.String()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	owner, err := postgres.NewOwnerRepository(mock).Bind(context.Background(), "user-2", "guild-1", "Aria")
	require.NoError(t, err)
	assert.Equal(t, id, owner.ID, "existing character is reused")
	assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
}
