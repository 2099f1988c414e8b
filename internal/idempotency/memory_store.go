package idempotency

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

// MemoryStore is the in-process Store used when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryEntry
	locks   map[string]time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]memoryEntry),
		locks:   make(map[string]time.Time),
	}
}

func (m *MemoryStore) Lock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if deadline, held := m.locks[key]; held && time.Now().Before(deadline) {
		return false, nil
	}

	m.locks[key] = time.Now().Add(lockTTL)
	return true, nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.records[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}

	record := entry.record
	return &record, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, record *Record, ttl time.Duration) error {
	if record == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[key] = memoryEntry{
		record:    *record,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

func (m *MemoryStore) ReleaseLock(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.locks, key)
	return nil
}
