package session

import (
	"context"
	"errors"
)

// ErrNotFound indicates the user has no session yet.
var ErrNotFound = errors.New("session not found")

// Store is the injected session backend. Mutate runs fn inside the store's
// per-user critical section: fn receives the current session (created
// lazily for new users) and its edits are persisted before Mutate returns.
// Serialization only covers a single Mutate call; two full read-mutate
// exchanges for the same user may still interleave, which is a documented
// hazard of the conversational model.
type Store interface {
	// Get returns the session or ErrNotFound.
	Get(ctx context.Context, userID int64) (*Session, error)
	// Mutate applies fn to the user's session, creating it if absent, and
	// returns the resulting session.
	Mutate(ctx context.Context, userID int64, fn func(*Session)) (*Session, error)
	// Clear deletes the whole session, caches included.
	Clear(ctx context.Context, userID int64) error
	// ClearFlow drops only the flow state and data, preserving caches.
	ClearFlow(ctx context.Context, userID int64) error
}
