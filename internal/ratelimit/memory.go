package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps sliding windows in process memory. It serves
// single-instance deployments and acts as the fallback when Redis
// is unreachable.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

// NewMemoryLimiter returns an in-memory sliding-window limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string][]time.Time)}
}

// Check records the request and reports whether it fits within limit
// per window for the key.
func (m *MemoryLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Decision, error) {
	now := time.Now()
	cutoff := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	recent := trimBefore(m.windows[key], cutoff)

	allowed := len(recent) < limit
	if allowed {
		recent = append(recent, now)
	}
	m.windows[key] = recent

	remaining := limit - len(recent)
	if remaining < 0 {
		remaining = 0
	}

	decision := &Decision{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   cutoff.Add(window),
	}

	if !allowed {
		return decision, ErrLimitExceeded
	}
	return decision, nil
}

// Prune drops windows with no activity since maxAge ago, bounding memory
// on long-running processes.
func (m *MemoryLimiter) Prune(maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}

	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, reqs := range m.windows {
		if len(reqs) == 0 || reqs[len(reqs)-1].Before(cutoff) {
			delete(m.windows, key)
		}
	}
}

func trimBefore(reqs []time.Time, cutoff time.Time) []time.Time {
	first := 0
	for first < len(reqs) && reqs[first].Before(cutoff) {
		first++
	}
	if first == 0 {
		return reqs
	}
	return append(reqs[:0], reqs[first:]...)
}
