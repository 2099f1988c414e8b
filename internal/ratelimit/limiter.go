// Package ratelimit provides sliding-window per-user rate limiting with
// Redis and in-memory backends.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter evaluates whether a keyed request fits within limit per window.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Decision, error)
}

// ErrLimitExceeded is returned alongside a denying Decision.
var ErrLimitExceeded = errors.New("rate limit exceeded")
