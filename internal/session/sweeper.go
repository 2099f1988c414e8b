package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper evicts idle in-memory sessions on a schedule. The Redis backend
// relies on key TTLs instead, so the sweeper only applies to MemoryStore.
// A non-positive ttl disables eviction entirely.
type Sweeper struct {
	store    *MemoryStore
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
}

// NewSweeper constructs a Sweeper instance.
func NewSweeper(store *MemoryStore, log *slog.Logger, ttl, interval time.Duration) *Sweeper {
	if log == nil {
		log = slog.Default()
	}

	return &Sweeper{
		store:    store,
		log:      log,
		ttl:      ttl,
		interval: interval,
	}
}

// Run starts the sweep loop until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if s == nil || s.store == nil || s.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.ttl)

	for _, sess := range s.store.Snapshot() {
		if ctx.Err() != nil {
			return
		}

		if sess.UpdatedAt.Before(cutoff) {
			if err := s.store.Clear(ctx, sess.UserID); err != nil {
				s.log.Error("failed to evict idle session", slog.Int64("user_id", sess.UserID), slog.Any("error", err))
				continue
			}
			s.log.Info("idle session evicted", slog.Int64("user_id", sess.UserID))
		}
	}
}
