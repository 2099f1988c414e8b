package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_ratelimit_checks_total",
		Help: "Rate limit checks by backend and verdict.",
	}, []string{"backend", "verdict"})

	backendErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_ratelimit_backend_errors_total",
		Help: "Primary rate limit backend failures.",
	})
)

// AdaptiveLimiter checks against the primary backend and, when it errors,
// falls back to the secondary at half the limit. The tighter fallback limit
// compensates for the fallback seeing only this replica's traffic.
type AdaptiveLimiter struct {
	primary  Limiter
	fallback Limiter
	log      *slog.Logger
}

var _ Limiter = (*AdaptiveLimiter)(nil)

// NewAdaptiveLimiter composes a primary limiter with a degraded-mode fallback.
func NewAdaptiveLimiter(primary, fallback Limiter, log *slog.Logger) *AdaptiveLimiter {
	if log == nil {
		log = slog.Default()
	}
	return &AdaptiveLimiter{primary: primary, fallback: fallback, log: log}
}

func (a *AdaptiveLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Decision, error) {
	decision, err := a.primary.Check(ctx, key, limit, window)
	if err == nil || errors.Is(err, ErrLimitExceeded) {
		checksTotal.WithLabelValues("primary", verdict(decision)).Inc()
		return decision, err
	}

	backendErrorsTotal.Inc()
	a.log.Warn("primary rate limiter failed, using fallback",
		slog.String("key", key), slog.Any("error", err))

	fallbackLimit := limit / 2
	if fallbackLimit < 1 {
		fallbackLimit = 1
	}

	decision, err = a.fallback.Check(ctx, key, fallbackLimit, window)
	checksTotal.WithLabelValues("fallback", verdict(decision)).Inc()
	return decision, err
}

func verdict(d *Decision) string {
	if d != nil && d.Allowed {
		return "allowed"
	}
	return "rejected"
}
