// Package rateguard implements an in-memory sliding-window rate limiter
// keyed by (subject, action). Windows are tracked per key with a fixed
// event capacity; old events age out as the window slides.
package rateguard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"repairmatch/internal/pkg/clock"
)

var ErrLimited = errors.New("rate limited")

type Limit struct {
	Events int
	Window time.Duration
}

type Guard struct {
	mu     sync.Mutex
	clock  clock.Clock
	limits map[string]Limit
	events map[string][]time.Time
}

func New(clk clock.Clock) *Guard {
	return &Guard{
		clock:  clk,
		limits: make(map[string]Limit),
		events: make(map[string][]time.Time),
	}
}

// Configure registers the limit for an action. Actions without a configured
// limit are never throttled.
func (g *Guard) Configure(action string, limit Limit) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.limits[action] = limit
}

// Allow records one event for (subject, action) and reports ErrLimited when
// the window already holds the configured number of events. A denied call is
// not recorded, so it does not extend the throttle.
func (g *Guard) Allow(subject, action string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	limit, ok := g.limits[action]
	if !ok || limit.Events <= 0 {
		return nil
	}

	now := g.clock.Now()
	key := fmt.Sprintf("%s|%s", action, subject)
	cutoff := now.Add(-limit.Window)

	kept := g.events[key][:0]
	for _, ts := range g.events[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit.Events {
		g.events[key] = kept
		return ErrLimited
	}

	g.events[key] = append(kept, now)
	return nil
}

// Sweep drops keys whose entire window has expired. Callers run it
// periodically; the guard stays correct without it but holds memory for
// idle subjects.
func (g *Guard) Sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	for key, times := range g.events {
		limit, ok := g.limits[actionOf(key)]
		if !ok {
			delete(g.events, key)
			continue
		}
		cutoff := now.Add(-limit.Window)
		live := false
		for _, ts := range times {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(g.events, key)
		}
	}
}

func actionOf(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == '|' {
			return key[:i]
		}
	}
	return key
}
