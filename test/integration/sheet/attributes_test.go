// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

//go:build integration

package sheet_test

import (
	"context"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/dicebot/dicebot/internal/sheet"
)

var _ = Describe("Attribute store", func() {
	var (
		ctx  context.Context
		aria *sheet.Owner
	)

	BeforeEach(func() {
		ctx = context.Background()
		cleanupAll(ctx)
		var err error
		aria, err = env.Service.BindOwner(ctx, "user-1", "guild-1", "Aria")
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("UpsertAttribute", func() {
		It("overwrites supplied fields and keeps the name", func() {
			_, err := env.Service.UpsertAttribute(ctx, aria, sheet.KindSpell, "Fireball", sheet.WithLevel(3))
			Expect(err).NotTo(HaveOccurred())

			got, err := env.Service.UpsertAttribute(ctx, aria, sheet.KindSpell, "Fireball", sheet.WithLevel(5))
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Level).To(Equal(5))
			Expect(got.Name).To(Equal("Fireball"))
		})

		It("is idempotent", func() {
			fields := sheet.Fields{Level: sheet.Ptr(2), Description: sheet.Ptr("frost")}
			first, err := env.Service.UpsertAttribute(ctx, aria, sheet.KindSpell, "Icebolt", fields)
			Expect(err).NotTo(HaveOccurred())
			second, err := env.Service.UpsertAttribute(ctx, aria, sheet.KindSpell, "Icebolt", fields)
			Expect(err).NotTo(HaveOccurred())

			Expect(second.ID).To(Equal(first.ID))
			Expect(second.Level).To(Equal(first.Level))
			Expect(second.Description).To(Equal(first.Description))
		})

		It("coalesces concurrent upserts of a new name into one record", func() {
			const workers = 10
			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for i := range workers {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := env.Service.UpsertAttribute(ctx, aria, sheet.KindVariable, "Gold", sheet.WithValue(int64(i)))
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				Expect(err).NotTo(HaveOccurred())
			}

			list, err := env.Service.ListAttributes(ctx, aria, sheet.KindVariable)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
		})
	})

	Describe("RenameAttribute", func() {
		It("fails on a taken name and leaves both records untouched", func() {
			fire, err := env.Service.CreateAttribute(ctx, aria, sheet.KindSpell, "Fireball", sheet.WithLevel(3))
			Expect(err).NotTo(HaveOccurred())
			ice, err := env.Service.CreateAttribute(ctx, aria, sheet.KindSpell, "Icebolt", sheet.WithLevel(2))
			Expect(err).NotTo(HaveOccurred())

			_, err = env.Service.RenameAttribute(ctx, aria, sheet.KindSpell, "Fireball", "Icebolt")
			Expect(sheet.IsDuplicateName(err)).To(BeTrue())

			gotFire, err := env.Service.GetAttribute(ctx, aria, sheet.KindSpell, "Fireball")
			Expect(err).NotTo(HaveOccurred())
			Expect(gotFire).To(Equal(fire))
			gotIce, err := env.Service.GetAttribute(ctx, aria, sheet.KindSpell, "Icebolt")
			Expect(err).NotTo(HaveOccurred())
			Expect(gotIce).To(Equal(ice))
		})

		It("allows at most one winner when two renames race for one name", func() {
			for _, name := range []string{"A", "B"} {
				_, err := env.Service.CreateAttribute(ctx, aria, sheet.KindConstant, name, sheet.WithValue(1))
				Expect(err).NotTo(HaveOccurred())
			}

			var wg sync.WaitGroup
			results := make(chan error, 2)
			for _, from := range []string{"A", "B"} {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := env.Service.RenameAttribute(ctx, aria, sheet.KindConstant, from, "C")
					results <- err
				}()
			}
			wg.Wait()
			close(results)

			var ok, dup int
			for err := range results {
				switch {
				case err == nil:
					ok++
				case sheet.IsDuplicateName(err):
					dup++
				default:
					Fail(fmt.Sprintf("unexpected error: %v", err))
				}
			}
			Expect(ok).To(Equal(1))
			Expect(dup).To(Equal(1))

			list, err := env.Service.ListAttributes(ctx, aria, sheet.KindConstant)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
		})
	})

	Describe("RemoveAttribute", func() {
		It("returns NotFound for a name that never existed", func() {
			_, err := env.Service.RemoveAttribute(ctx, aria, sheet.KindConstant, "Luck")
			Expect(sheet.IsNotFound(err)).To(BeTrue())
		})

		It("makes a later get return nothing", func() {
			_, err := env.Service.CreateAttribute(ctx, aria, sheet.KindConstant, "Luck", sheet.WithValue(2))
			Expect(err).NotTo(HaveOccurred())
			_, err = env.Service.RemoveAttribute(ctx, aria, sheet.KindConstant, "Luck")
			Expect(err).NotTo(HaveOccurred())

			got, err := env.Service.GetAttribute(ctx, aria, sheet.KindConstant, "Luck")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeNil())
		})
	})

	Describe("ListAttributes", func() {
		It("returns an empty list for a kind with no records", func() {
			list, err := env.Service.ListAttributes(ctx, aria, sheet.KindVariable)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).NotTo(BeNil())
			Expect(list).To(BeEmpty())
		})

		It("orders by name bytes and is stable", func() {
			for _, name := range []string{"wisdom", "Charisma", "Agility", "agility"} {
				_, err := env.Service.CreateAttribute(ctx, aria, sheet.KindConstant, name, sheet.WithValue(1))
				Expect(err).NotTo(HaveOccurred())
			}
			first, err := env.Service.ListAttributes(ctx, aria, sheet.KindConstant)
			Expect(err).NotTo(HaveOccurred())
			second, err := env.Service.ListAttributes(ctx, aria, sheet.KindConstant)
			Expect(err).NotTo(HaveOccurred())

			names := make([]string, len(first))
			for i, a := range first {
				names[i] = a.Name
			}
			Expect(names).To(Equal([]string{"Agility", "Charisma", "agility", "wisdom"}))
			Expect(second).To(Equal(first))
		})
	})

	Describe("case-insensitive policy", func() {
		It("treats names differing only in case as one attribute", func() {
			_, err := env.FoldingService.CreateAttribute(ctx, aria, sheet.KindSpell, "Fireball", sheet.WithLevel(3))
			Expect(err).NotTo(HaveOccurred())

			_, err = env.FoldingService.CreateAttribute(ctx, aria, sheet.KindSpell, "FIREBALL", sheet.WithLevel(1))
			Expect(sheet.IsDuplicateName(err)).To(BeTrue())

			got, err := env.FoldingService.GetAttribute(ctx, aria, sheet.KindSpell, "fireball")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).NotTo(BeNil())
			Expect(got.Level).To(Equal(3))
		})
	})
})
