// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package sqlite_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dicebot/dicebot/internal/sheet"
	"github.com/dicebot/dicebot/pkg/errutil"
)

func TestAttributeStore_UpsertOverwritesSuppliedFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sheet.CaseSensitive)

	first, err := f.attrs.Upsert(ctx, f.aria.ID, sheet.KindSpell, "Fireball", sheet.WithLevel(3))
	require.NoError(t, err)
	assert.Equal(t, 3, first.Level)

	second, err := f.attrs.Upsert(ctx, f.aria.ID, sheet.KindSpell, "Fireball", sheet.WithLevel(5))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Fireball", second.Name)
	assert.Equal(t, 5, second.Level)

	got, err := f.attrs.Get(ctx, f.aria.ID, sheet.KindSpell, "Fireball")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 5, got.Level)
	assert.Equal(t, first.CreatedAt, got.CreatedAt)
}

func TestAttributeStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sheet.CaseSensitive)
	fields := sheet.Fields{Level: sheet.Ptr(2), Description: sheet.Ptr("a cone of frost")}

	a, err := f.attrs.Upsert(ctx, f.aria.ID, sheet.KindSpell, "Icebolt", fields)
	require.NoError(t, err)
	b, err := f.attrs.Upsert(ctx, f.aria.ID, sheet.KindSpell, "Icebolt", fields)
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.Level, b.Level)
	assert.Equal(t, a.Description, b.Description)
}

func TestAttributeStore_UpsertLeavesAbsentFieldsUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sheet.CaseSensitive)

	_, err := f.attrs.Upsert(ctx, f.aria.ID, sheet.KindSpell, "Shield",
		sheet.Fields{Level: sheet.Ptr(1), Description: sheet.Ptr("+5 AC")})
	require.NoError(t, err)

	got, err := f.attrs.Upsert(ctx, f.aria.ID, sheet.KindSpell, "Shield", sheet.WithLevel(2))
	require.NoError(t, err)
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, "+5 AC", got.Description)
}

func TestAttributeStore_UpsertRejectsFieldForWrongKind(t *testing.T) {
	f := newFixture(t, sheet.CaseSensitive)

	_, err := f.attrs.Upsert(context.Background(), f.aria.ID, sheet.KindConstant, "Luck", sheet.WithLevel(1))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, sheet.CodeInvalidField)
}

func TestAttributeStore_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sheet.CaseSensitive)

	_, err := f.attrs.Create(ctx, f.aria.ID, sheet.KindVariable, "HP", sheet.WithValue(10))
	require.NoError(t, err)

	_, err = f.attrs.Create(ctx, f.aria.ID, sheet.KindVariable, "HP", sheet.WithValue(3))
	require.Error(t, err)
	errutil.AssertCodedError(t, err, sheet.CodeDuplicateName, sheet.ErrDuplicateName)

	got, err := f.attrs.Get(ctx, f.aria.ID, sheet.KindVariable, "HP")
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Value)
}

func TestAttributeStore_SameNameDifferentKind(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sheet.CaseSensitive)

	_, err := f.attrs.Create(ctx, f.aria.ID, sheet.KindConstant, "Strength", sheet.WithValue(14))
	require.NoError(t, err)
	_, err = f.attrs.Create(ctx, f.aria.ID, sheet.KindVariable, "Strength", sheet.WithValue(12))
	require.NoError(t, err)
}

func TestAttributeStore_SameNameDifferentOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sheet.CaseSensitive)
	bram, err := f.owners.Bind(ctx, "caller-2", "guild-1", "Bram")
	require.NoError(t, err)

	_, err = f.attrs.Create(ctx, f.aria.ID, sheet.KindSpell, "Fireball", sheet.WithLevel(3))
	require.NoError(t, err)
	_, err = f.attrs.Create(ctx, bram.ID, sheet.KindSpell, "Fireball", sheet.WithLevel(1))
	require.NoError(t, err)

	list, err := f.attrs.List(ctx, bram.ID, sheet.KindSpell)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Level)
}

func TestAttributeStore_UpdateMissing(t *testing.T) {
	f := newFixture(t, sheet.CaseSensitive)

	_, err := f.attrs.Update(context.Background(), f.aria.ID, sheet.KindVariable, "HP", sheet.WithValue(1))
	require.Error(t, err)
	assert.True(t, sheet.IsNotFound(err))
}

func TestAttributeStore_RenameDuplicateLeavesBothRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sheet.CaseSensitive)

	fireball, err := f.attrs.Create(ctx, f.aria.ID, sheet.KindSpell, "Fireball", sheet.WithLevel(3))
	require.NoError(t, err)
	icebolt, err := f.attrs.Create(ctx, f.aria.ID, sheet.KindSpell, "Icebolt", sheet.WithLevel(2))
	require.NoError(t, err)

	_, err = f.attrs.Rename(ctx, f.aria.ID, sheet.KindSpell, "Fireball", "Icebolt")
	require.Error(t, err)
	assert.True(t, sheet.IsDuplicateName(err))

	gotFire, err := f.attrs.Get(ctx, f.aria.ID, sheet.KindSpell, "Fireball")
	require.NoError(t, err)
	assert.Equal(t, fireball, gotFire)

	gotIce, err := f.attrs.Get(ctx, f.aria.ID, sheet.KindSpell, "Icebolt")
	require.NoError(t, err)
	assert.Equal(t, icebolt, gotIce)
}

func TestAttributeStore_Rename(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sheet.CaseSensitive)

	orig, err := f.attrs.Create(ctx, f.aria.ID, sheet.KindConstant, "Str", sheet.WithValue(16))
	require.NoError(t, err)

	renamed, err := f.attrs.Rename(ctx, f.aria.ID, sheet.KindConstant, "Str", "Strength")
	require.NoError(t, err)
	assert.Equal(t, orig.ID, renamed.ID)
	assert.Equal(t, "Strength", renamed.Name)
	assert.Equal(t, int64(16), renamed.Value)

	old, err := f.attrs.Get(ctx, f.aria.ID, sheet.KindConstant, "Str")
	require.NoError(t, err)
	assert.Nil(t, old)

	got, err := f.attrs.Get(ctx, f.aria.ID, sheet.KindConstant, "Strength")
	require.NoError(t, err)
	assert.Equal(t, renamed, got)
}

func TestAttributeStore_RenameMissing(t *testing.T) {
	f := newFixture(t, sheet.CaseSensitive)

	_, err := f.attrs.Rename(context.Background(), f.aria.ID, sheet.KindSpell, "Nope", "Other")
	require.Error(t, err)
	assert.True(t, sheet.IsNotFound(err))
}

func TestAttributeStore_RenameToSameNameIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sheet.CaseSensitive)

	orig, err := f.attrs.Create(ctx, f.aria.ID, sheet.KindSpell, "Fireball", sheet.WithLevel(3))
	require.NoError(t, err)

	got, err := f.attrs.Rename(ctx, f.aria.ID, sheet.KindSpell, "Fireball", "Fireball")
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestAttributeStore_RemoveThenGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sheet.CaseSensitive)

	created, err := f.attrs.Create(ctx, f.aria.ID, sheet.KindConstant, "Luck", sheet.WithValue(3))
	require.NoError(t, err)

	removed, err := f.attrs.Remove(ctx, f.aria.ID, sheet.KindConstant, "Luck")
	require.NoError(t, err)
	assert.Equal(t, created, removed)

	got, err := f.attrs.Get(ctx, f.aria.ID, sheet.KindConstant, "Luck")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAttributeStore_RemoveMissing(t *testing.T) {
	f := newFixture(t, sheet.CaseSensitive)

	_, err := f.attrs.Remove(context.Background(), f.aria.ID, sheet.KindConstant, "Luck")
	require.Error(t, err)
	errutil.AssertCodedError(t, err, sheet.CodeAttributeNotFound, sheet.ErrNotFound)
}

func TestAttributeStore_ListEmpty(t *testing.T) {
	f := newFixture(t, sheet.CaseSensitive)

	list, err := f.attrs.List(context.Background(), f.aria.ID, sheet.KindVariable)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestAttributeStore_ListOrderedAndStable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sheet.CaseSensitive)

	for _, name := range []string{"charisma", "Wisdom", "Agility", "agility", "Zeal"} {
		_, err := f.attrs.Create(ctx, f.aria.ID, sheet.KindConstant, name, sheet.WithValue(1))
		require.NoError(t, err)
	}

	first, err := f.attrs.List(ctx, f.aria.ID, sheet.KindConstant)
	require.NoError(t, err)
	second, err := f.attrs.List(ctx, f.aria.ID, sheet.KindConstant)
	require.NoError(t, err)

	names := make([]string, len(first))
	for i, a := range first {
		names[i] = a.Name
	}
	assert.Equal(t, []string{"Agility", "Wisdom", "Zeal", "agility", "charisma"}, names)
	assert.Equal(t, first, second)
}

func TestAttributeStore_CaseInsensitivePolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sheet.CaseInsensitive)

	_, err := f.attrs.Create(ctx, f.aria.ID, sheet.KindSpell, "Fireball", sheet.WithLevel(3))
	require.NoError(t, err)

	_, err = f.attrs.Create(ctx, f.aria.ID, sheet.KindSpell, "FIREBALL", sheet.WithLevel(1))
	assert.True(t, sheet.IsDuplicateName(err))

	got, err := f.attrs.Get(ctx, f.aria.ID, sheet.KindSpell, "fireball")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Fireball", got.Name)

	// A case-only rename changes the display name in place.
	renamed, err := f.attrs.Rename(ctx, f.aria.ID, sheet.KindSpell, "fireball", "FireBall")
	require.NoError(t, err)
	assert.Equal(t, got.ID, renamed.ID)
	assert.Equal(t, "FireBall", renamed.Name)
}

// Absent and empty descriptions are stored the same way.
func TestAttributeStore_EmptyDescriptionEqualsAbsent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sheet.CaseSensitive)

	_, err := f.attrs.Create(ctx, f.aria.ID, sheet.KindSpell, "Light", sheet.WithDescription("glows"))
	require.NoError(t, err)

	cleared, err := f.attrs.Update(ctx, f.aria.ID, sheet.KindSpell, "Light", sheet.WithDescription(""))
	require.NoError(t, err)
	assert.Empty(t, cleared.Description)

	_, err = f.attrs.Create(ctx, f.aria.ID, sheet.KindSpell, "Dark", sheet.Fields{})
	require.NoError(t, err)

	var nulls int
	require.NoError(t, f.db.QueryRowContext(ctx,
		`SELECT count(*) FROM attributes WHERE description IS NULL`).Scan(&nulls))
	assert.Equal(t, 2, nulls)

	light, err := f.attrs.Get(ctx, f.aria.ID, sheet.KindSpell, "Light")
	require.NoError(t, err)
	dark, err := f.attrs.Get(ctx, f.aria.ID, sheet.KindSpell, "Dark")
	require.NoError(t, err)
	assert.Equal(t, light.Description, dark.Description)
}

func TestAttributeStore_InformationRequiresDescription(t *testing.T) {
	f := newFixture(t, sheet.CaseSensitive)

	_, err := f.attrs.Upsert(context.Background(), f.aria.ID, sheet.KindInformation, "Backstory", sheet.Fields{})
	require.Error(t, err)
	assert.True(t, sheet.IsInvalid(err))
}

func TestAttributeStore_ConcurrentUpsertsOfNewName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sheet.CaseSensitive)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.attrs.Upsert(ctx, f.aria.ID, sheet.KindVariable, "Gold", sheet.WithValue(int64(i)))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}
	list, err := f.attrs.List(ctx, f.aria.ID, sheet.KindVariable)
	require.NoError(t, err)
	assert.Len(t, list, 1, "concurrent upserts coalesce into one record")
}

func TestAttributeStore_ConcurrentOwnersDoNotInterfere(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, sheet.CaseSensitive)

	const owners = 4
	var wg sync.WaitGroup
	for i := range owners {
		owner, err := f.owners.Bind(ctx, fmt.Sprintf("caller-%d", i+10), "guild-1", fmt.Sprintf("Hero%d", i))
		require.NoError(t, err)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 5 {
				_, err := f.attrs.Create(ctx, owner.ID, sheet.KindConstant, fmt.Sprintf("Stat%d", j), sheet.WithValue(int64(j)))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	var n int
	require.NoError(t, f.db.QueryRowContext(ctx, `SELECT count(*) FROM attributes`).Scan(&n))
	assert.Equal(t, owners*5, n)
}
