package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/arctis-labs/lumen-bot/internal/orchestrator"
)

// ErrRequestInProgress indicates the same confirmation is already
// executing; the press is dropped rather than queued.
var ErrRequestInProgress = errors.New("request with this key is already in progress")

const executionLockTTL = 5 * time.Minute

// Operation is one guarded execution producing an outcome.
type Operation func(ctx context.Context) (*orchestrator.Outcome, error)

// Result wraps an outcome with its provenance.
type Result struct {
	Outcome   *orchestrator.Outcome
	FromCache bool
}

// Manager executes operations at most once per key.
type Manager interface {
	Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error)
}

type manager struct {
	store Store
	log   *slog.Logger
}

// NewManager builds a Manager over the provided store.
func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store: store,
		log:   log,
	}
}

// Execute runs fn under the key's lock. A concurrent duplicate gets
// ErrRequestInProgress; a duplicate after completion gets the cached
// outcome without re-executing. A failed fn releases the key so the user
// can adjust and confirm again.
func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	if fn == nil {
		return nil, errors.New("operation fn cannot be nil")
	}

	// A completed record wins over everything, even after the execution
	// lock has expired.
	if record, err := m.store.Get(ctx, key); err == nil && record != nil && record.Status == StatusCompleted {
		return m.cached(record)
	}

	locked, err := m.store.Lock(ctx, key, executionLockTTL)
	if err != nil {
		return nil, err
	}

	if !locked {
		record, err := m.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}

		if record != nil && record.Status == StatusCompleted {
			return m.cached(record)
		}

		return nil, ErrRequestInProgress
	}

	// Mark the key as in flight so duplicates and operators see why it is
	// held. Only a completed record ever short-circuits execution.
	if err := m.store.Set(ctx, key, &Record{Status: StatusProcessing}, executionLockTTL); err != nil {
		if releaseErr := m.store.ReleaseLock(ctx, key); releaseErr != nil {
			m.log.Error("failed to release idempotency lock",
				slog.String("key", key), slog.Any("error", releaseErr))
		}
		return nil, err
	}

	outcome, err := fn(ctx)
	if err != nil {
		// Release so a corrected retry is possible; the orchestrator decides
		// whether the flow data survives.
		if releaseErr := m.store.ReleaseLock(ctx, key); releaseErr != nil {
			m.log.Error("failed to release idempotency lock after failure",
				slog.String("key", key), slog.Any("error", releaseErr))
		}
		return nil, err
	}

	response, err := json.Marshal(outcome)
	if err != nil {
		return nil, err
	}

	if err := m.store.Set(ctx, key, &Record{
		Status:   StatusCompleted,
		Response: response,
	}, ttl); err != nil {
		return nil, err
	}

	return &Result{Outcome: outcome, FromCache: false}, nil
}

func (m *manager) cached(record *Record) (*Result, error) {
	var outcome orchestrator.Outcome
	if len(record.Response) > 0 {
		if err := json.Unmarshal(record.Response, &outcome); err != nil {
			return nil, err
		}
	}

	return &Result{Outcome: &outcome, FromCache: true}, nil
}
