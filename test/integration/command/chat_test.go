// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

//go:build integration

package command_test

import (
	"fmt"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/dicebot/dicebot/internal/command"
)

var _ = Describe("Chat commands over PostgreSQL", func() {
	var aria, bram player

	BeforeEach(func() {
		d := newDispatcher()
		aria = player{dispatcher: d, caller: command.Caller{ID: "caller-1", ScopeID: "guild-1"}}
		bram = player{dispatcher: d, caller: command.Caller{ID: "caller-2", ScopeID: "guild-1"}}
	})

	It("asks unbound callers to bind a character first", func() {
		Expect(aria.say("spell list")).To(ContainSubstring("character bind"))
	})

	It("keeps each character's sheet separate", func() {
		Expect(aria.say("character bind Aria")).To(ContainSubstring("You are now playing Aria."))
		Expect(bram.say("char bind Bram")).To(ContainSubstring("You are now playing Bram."))

		Expect(aria.say("spell add Fireball 3 Big boom")).To(ContainSubstring("Aria now has Fireball (level 3)"))
		Expect(bram.say("spell list")).To(ContainSubstring("Bram has no spells."))
		Expect(bram.say("spell inspect Aria")).To(ContainSubstring("Fireball (level 3)"))
		Expect(bram.say("spell inspect Nobody")).To(Equal("There is no character named Nobody here."))
	})

	It("folds case when comparing names", func() {
		aria.say("character bind Aria")
		aria.say("const add Strength 16")

		Expect(aria.say("const create STRENGTH 18")).To(ContainSubstring("Aria already has a constant named"))
		Expect(aria.say("const check strength")).To(ContainSubstring("Strength: 16"))
	})

	It("renames without losing the payload and rejects collisions", func() {
		aria.say("character bind Aria")
		aria.say("spell add Fireball 3")
		aria.say("spell add Shield 1")

		Expect(aria.say("spell rename Fireball Shield")).To(ContainSubstring("already has a spell named Shield"))
		Expect(aria.say("spell rename Fireball Flamestrike")).To(ContainSubstring("Flamestrike (level 3)"))
		Expect(aria.say("spell check Fireball")).To(Equal("Aria has no spell named Fireball"))
	})

	It("filters with the query language", func() {
		aria.say("character bind Aria")
		aria.say("spell add Fireball 3")
		aria.say("spell add \"Fire Bolt\" 0")
		aria.say("spell add Shield 1")

		out := aria.say(`spell filter name ~ "fire*" and level > 0`)
		Expect(out).To(ContainSubstring("Fireball"))
		Expect(out).NotTo(ContainSubstring("Fire Bolt"))
		Expect(out).NotTo(ContainSubstring("Shield"))
	})

	It("serializes concurrent writes from many callers", func() {
		const players = 8
		var wg sync.WaitGroup
		for i := range players {
			wg.Add(1)
			go func(i int) {
				defer GinkgoRecover()
				defer wg.Done()
				p := player{dispatcher: aria.dispatcher, caller: command.Caller{ID: fmt.Sprintf("caller-%d", i+10), ScopeID: "guild-2"}}
				Expect(p.say(fmt.Sprintf("character bind Hero%d", i))).To(ContainSubstring("You are now playing"))
				for j := range 5 {
					Expect(p.say(fmt.Sprintf("var set Round %d", j))).To(ContainSubstring("now has Round"))
				}
			}(i)
		}
		wg.Wait()

		watcher := player{dispatcher: aria.dispatcher, caller: command.Caller{ID: "caller-99", ScopeID: "guild-2"}}
		out := watcher.say("character list")
		Expect(strings.Count(out, "Hero")).To(Equal(players))
	})
})

var _ = Describe("Rate limiting over PostgreSQL", func() {
	var (
		limiter *command.RateLimiter
		aria    player
	)

	BeforeEach(func() {
		limiter = command.NewRateLimiter(command.RateLimiterConfig{
			BurstCapacity: 3,
			SustainedRate: 10.0,
		})
		aria = player{
			dispatcher: newDispatcher(command.WithRateLimiter(limiter)),
			caller:     command.Caller{ID: "caller-1", ScopeID: "guild-1"},
		}
	})

	AfterEach(func() {
		limiter.Close()
	})

	It("blocks commands after the burst is spent and recovers", func() {
		Expect(aria.say("character bind Aria")).To(ContainSubstring("You are now playing Aria."))
		aria.say("character show")
		aria.say("character show")
		Expect(aria.say("character show")).To(ContainSubstring("slow down"))

		Eventually(func() string {
			return aria.say("character show")
		}).Should(ContainSubstring("You are playing Aria."))
	})
})
