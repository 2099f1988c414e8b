package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the default in-process Store. A restart loses all
// in-flight flows; transitions that find required flow data missing report
// an expired session rather than failing hard.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]*Session),
	}
}

// Get returns a detached copy of the user's session. Updates for the same
// user are dispatched concurrently, so handing out the live record would
// race against Mutate.
func (m *MemoryStore) Get(ctx context.Context, userID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}

	return sess.Clone(), nil
}

// Mutate applies fn under the store lock, creating the session lazily.
func (m *MemoryStore) Mutate(ctx context.Context, userID int64, fn func(*Session)) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		sess = &Session{UserID: userID}
		m.sessions[userID] = sess
	}

	if fn != nil {
		fn(sess)
	}
	sess.UpdatedAt = time.Now()

	return sess.Clone(), nil
}

// Clear removes the entire session for a user.
func (m *MemoryStore) Clear(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	return nil
}

// ClearFlow drops flow state and data while preserving caches.
func (m *MemoryStore) ClearFlow(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[userID]; ok {
		sess.ResetFlow()
		sess.UpdatedAt = time.Now()
	}

	return nil
}

// Snapshot returns detached copies of every live session, for the expiry
// sweeper and metrics.
func (m *MemoryStore) Snapshot() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess.Clone())
	}

	return out
}
