// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

//go:build integration

package sheet_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/dicebot/dicebot/internal/sheet"
)

var _ = Describe("Owner resolution", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupAll(ctx)
	})

	It("reports NotBound for a caller with no character", func() {
		_, err := env.Service.ResolveOwner(ctx, "user-1", "guild-1")
		Expect(sheet.IsNotBound(err)).To(BeTrue())
	})

	It("resolves the bound character per scope", func() {
		aria, err := env.Service.BindOwner(ctx, "user-1", "guild-1", "Aria")
		Expect(err).NotTo(HaveOccurred())

		got, err := env.Service.ResolveOwner(ctx, "user-1", "guild-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(aria.ID))

		_, err = env.Service.ResolveOwner(ctx, "user-1", "guild-2")
		Expect(sheet.IsNotBound(err)).To(BeTrue())
	})

	It("rebinding switches the caller's character", func() {
		_, err := env.Service.BindOwner(ctx, "user-1", "guild-1", "Aria")
		Expect(err).NotTo(HaveOccurred())
		bram, err := env.Service.BindOwner(ctx, "user-1", "guild-1", "Bram")
		Expect(err).NotTo(HaveOccurred())

		got, err := env.Service.ResolveOwner(ctx, "user-1", "guild-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(bram.ID))

		owners, err := env.Service.ListOwners(ctx, "guild-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(owners).To(HaveLen(2))
	})

	It("cascades owner deletion to attributes and bindings", func() {
		aria, err := env.Service.BindOwner(ctx, "user-1", "guild-1", "Aria")
		Expect(err).NotTo(HaveOccurred())
		_, err = env.Service.CreateAttribute(ctx, aria, sheet.KindSpell, "Fireball", sheet.WithLevel(3))
		Expect(err).NotTo(HaveOccurred())

		_, err = env.pool.Exec(ctx, `DELETE FROM owners WHERE id = $1`, aria.ID.String())
		Expect(err).NotTo(HaveOccurred())

		var n int
		Expect(env.pool.QueryRow(ctx, `SELECT count(*) FROM attributes`).Scan(&n)).To(Succeed())
		Expect(n).To(BeZero())
		_, err = env.Service.ResolveOwner(ctx, "user-1", "guild-1")
		Expect(sheet.IsNotBound(err)).To(BeTrue())
	})
})
