// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

//go:build integration

package sheet_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dicebot/dicebot/internal/sheet"
	sheetpg "github.com/dicebot/dicebot/internal/sheet/postgres"
	"github.com/dicebot/dicebot/internal/store"
)

func TestSheet(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Character Sheet Integration Suite")
}

// testEnv holds the container and the services under test.
type testEnv struct {
	ctx       context.Context
	pool      *pgxpool.Pool
	container testcontainers.Container

	// One service per name policy, sharing the database.
	Service        *sheet.Service
	FoldingService *sheet.Service
}

var env *testEnv

var _ = BeforeSuite(func() {
	var err error
	env, err = setupSheetTestEnv()
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	if env != nil {
		env.cleanup()
	}
})

func setupSheetTestEnv() (*testEnv, error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("dicebot_test"),
		postgres.WithUsername("dicebot"),
		postgres.WithPassword("dicebot"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}
	_ = migrator.Close()

	pool, err := sheetpg.Connect(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	owners := sheetpg.NewOwnerRepository(pool)
	return &testEnv{
		ctx:       ctx,
		pool:      pool,
		container: container,
		Service: sheet.NewService(sheet.ServiceConfig{
			Owners:     owners,
			Attributes: sheetpg.NewAttributeStore(pool, sheet.CaseSensitive),
			NamePolicy: sheet.CaseSensitive,
		}),
		FoldingService: sheet.NewService(sheet.ServiceConfig{
			Owners:     owners,
			Attributes: sheetpg.NewAttributeStore(pool, sheet.CaseInsensitive),
			NamePolicy: sheet.CaseInsensitive,
		}),
	}, nil
}

func (e *testEnv) cleanup() {
	e.pool.Close()
	_ = e.container.Terminate(e.ctx)
}

// cleanupAll removes every row between specs.
func cleanupAll(ctx context.Context) {
	_, err := env.pool.Exec(ctx, `TRUNCATE owners, owner_bindings, attributes CASCADE`)
	Expect(err).NotTo(HaveOccurred())
}
