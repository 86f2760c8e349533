// Package ratelimiter implements a per-key sliding-window request limiter,
// used to bound POST /api/create-room per client IP.
package ratelimiter

import (
	"sync"
	"time"

	"meetingd/internal/config"
)

// sweepInterval bounds how often a stale-key GC pass runs, in number of
// Allow calls, so a limiter fielding many distinct keys (one per client IP)
// doesn't grow forever just because most of them never come back.
const sweepInterval = 256

// Limiter tracks recent hit timestamps per key and rejects once a key
// exceeds limit hits inside window.
type Limiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
	calls  int
}

// New builds a Limiter with an explicit budget.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
}

// NewFromConfig derives the create-room throttle straight from cfg
// (CREATE_ROOM_LIMIT_PER_MINUTE over a one-minute window), the way every
// other tuning knob this server reads is sourced from config.Config rather
// than passed around as bare literals.
func NewFromConfig(cfg config.Config) *Limiter {
	return New(cfg.CreateRoomLimit, time.Minute)
}

// Allow reports whether key may proceed, recording the attempt only when
// it's allowed. Every sweepInterval calls across all keys it also drops any
// key whose entire hit history has aged out of the window.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	live := liveHits(l.hits[key], cutoff)
	allowed := len(live) < l.limit
	if allowed {
		live = append(live, now)
	}
	if len(live) == 0 {
		delete(l.hits, key)
	} else {
		l.hits[key] = live
	}

	l.calls++
	if l.calls >= sweepInterval {
		l.calls = 0
		l.sweepLocked(cutoff)
	}
	return allowed
}

// liveHits returns the suffix of hits strictly after cutoff, reusing hits'
// backing array. hits is assumed sorted ascending, which holds because
// every insertion appends time.Now() and calls only ever move forward.
func liveHits(hits []time.Time, cutoff time.Time) []time.Time {
	start := 0
	for start < len(hits) && !hits[start].After(cutoff) {
		start++
	}
	return append(hits[:0], hits[start:]...)
}

// sweepLocked drops every key whose hit history has entirely aged out as of
// cutoff. Called with mu held.
func (l *Limiter) sweepLocked(cutoff time.Time) {
	for key, hits := range l.hits {
		trimmed := liveHits(hits, cutoff)
		if len(trimmed) == 0 {
			delete(l.hits, key)
		} else {
			l.hits[key] = trimmed
		}
	}
}
