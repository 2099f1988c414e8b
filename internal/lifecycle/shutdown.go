// Package lifecycle coordinates ordered teardown of application
// components.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

// Shutdown runs registered hooks concurrently on Execute. Hooks must be
// independent of each other; ordering is not guaranteed.
type Shutdown struct {
	mu    sync.Mutex
	hooks []hook
	log   *slog.Logger
}

// NewShutdown returns an empty coordinator.
func NewShutdown(log *slog.Logger) *Shutdown {
	if log == nil {
		log = slog.Default()
	}
	return &Shutdown{log: log}
}

// Register adds a named hook.
func (s *Shutdown) Register(name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook{name: name, fn: fn})
}

// Execute runs all hooks and waits for them, collecting failures.
func (s *Shutdown) Execute(ctx context.Context) error {
	s.mu.Lock()
	hooks := append([]hook(nil), s.hooks...)
	s.mu.Unlock()

	start := time.Now()
	s.log.Info("shutdown started", slog.Int("hooks", len(hooks)))

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		fails []string
	)

	for _, h := range hooks {
		h := h
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := h.fn(ctx); err != nil {
				s.log.Error("shutdown hook failed", slog.String("hook", h.name), slog.Any("error", err))
				errMu.Lock()
				fails = append(fails, fmt.Sprintf("%s: %v", h.name, err))
				errMu.Unlock()
				return
			}
			s.log.Debug("shutdown hook completed", slog.String("hook", h.name))
		}()
	}

	wg.Wait()
	s.log.Info("shutdown finished", slog.Duration("elapsed", time.Since(start)))

	if len(fails) > 0 {
		return errors.New(strings.Join(fails, "; "))
	}
	return nil
}
