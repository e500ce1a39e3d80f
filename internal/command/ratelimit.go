// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dicebot Contributors

package command

import (
	"sync"
	"time"
)

// Default rate limiting values.
const (
	DefaultBurstCapacity   = 10
	DefaultSustainedRate   = 2.0 // commands per second
	MinSustainedRate       = 0.1
	DefaultCleanupInterval = 5 * time.Minute
	DefaultCallerMaxAge    = time.Hour
)

// RateLimiterConfig configures the rate limiter. Zero values select defaults.
type RateLimiterConfig struct {
	BurstCapacity   int
	SustainedRate   float64
	CleanupInterval time.Duration
	CallerMaxAge    time.Duration
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// RateLimiter is a per-caller token bucket. Buckets are keyed by caller and
// scope together, so a noisy caller in one chat server does not throttle
// them elsewhere. It is safe for concurrent use.
//
// A background goroutine drops idle buckets. Call Close to stop it.
type RateLimiter struct {
	mu            sync.Mutex
	buckets       map[string]*bucket
	burstCapacity int
	sustainedRate float64
	maxAge        time.Duration
	now           func() time.Time

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewRateLimiter creates a rate limiter and starts its cleanup goroutine.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	burst := cfg.BurstCapacity
	if burst <= 0 {
		burst = DefaultBurstCapacity
	}
	rate := cfg.SustainedRate
	if rate <= 0 {
		rate = DefaultSustainedRate
	}
	if rate < MinSustainedRate {
		rate = MinSustainedRate
	}
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	maxAge := cfg.CallerMaxAge
	if maxAge <= 0 {
		maxAge = DefaultCallerMaxAge
	}

	rl := &RateLimiter{
		buckets:       make(map[string]*bucket),
		burstCapacity: burst,
		sustainedRate: rate,
		maxAge:        maxAge,
		now:           time.Now,
		stopChan:      make(chan struct{}),
	}
	rl.wg.Add(1)
	go rl.cleanupLoop(interval)
	return rl
}

// Allow consumes one token for the caller in scope. When none is available
// it returns false and the milliseconds until the next token.
func (rl *RateLimiter) Allow(callerID, scopeID string) (allowed bool, cooldownMs int64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	key := scopeID + "\x00" + callerID
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(rl.burstCapacity), lastCheck: now}
		rl.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastCheck).Seconds() * rl.sustainedRate
	if b.tokens > float64(rl.burstCapacity) {
		b.tokens = float64(rl.burstCapacity)
	}
	b.lastCheck = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true, 0
	}
	deficit := 1.0 - b.tokens
	return false, int64(deficit / rl.sustainedRate * 1000)
}

// CallerCount returns the number of tracked buckets.
func (rl *RateLimiter) CallerCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Cleanup drops buckets idle for longer than maxAge.
func (rl *RateLimiter) Cleanup(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := rl.now().Add(-maxAge)
	for key, b := range rl.buckets {
		if b.lastCheck.Before(threshold) {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	defer rl.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			rl.Cleanup(rl.maxAge)
		}
	}
}

// Close stops the cleanup goroutine and waits for it to exit.
func (rl *RateLimiter) Close() {
	close(rl.stopChan)
	rl.wg.Wait()
}
