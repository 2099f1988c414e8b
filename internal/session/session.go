// Package session holds per-user conversation sessions: the current flow
// state, the flow-scoped data, and the long-lived list caches used for
// pagination.
package session

import (
	"time"

	"github.com/arctis-labs/lumen-bot/internal/flow"
	"github.com/arctis-labs/lumen-bot/internal/wallet"
)

// Session is the mutable per-user record. Flow is scoped to the current
// flow only and is dropped on completion, cancellation, or expiry; Cache
// survives across flows so the user can keep paging without re-fetching.
type Session struct {
	UserID    int64
	State     flow.State
	Flow      flow.Data
	Cache     Cache
	UpdatedAt time.Time
}

// Cache maps cache keys to fetched lists.
type Cache map[string]*CachedList

// CachedList is one fetched list plus the pagination position shown last.
// Wallet records which wallet the list was fetched for, so a wallet switch
// invalidates it.
type CachedList struct {
	Items     []wallet.Asset `json:"items"`
	Wallet    string         `json:"wallet,omitempty"`
	Page      int            `json:"page"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// EnterFlow resets the session onto the first state of a flow family with
// fresh flow data, leaving caches untouched.
func (s *Session) EnterFlow(state flow.State) {
	s.State = state
	s.Flow = flow.NewData(flow.FamilyOf(state))
}

// ResetFlow returns the session to idle and drops flow data, preserving
// caches.
func (s *Session) ResetFlow() {
	s.State = flow.StateIdle
	s.Flow = nil
}

// List returns the cached list under key, or nil.
func (s *Session) List(key string) *CachedList {
	if s == nil || s.Cache == nil {
		return nil
	}

	return s.Cache[key]
}

// PutList stores a list under key, creating the cache map lazily.
func (s *Session) PutList(key string, list *CachedList) {
	if s.Cache == nil {
		s.Cache = make(Cache)
	}

	s.Cache[key] = list
}

// DropList removes the cached list under key, forcing the next fetch.
func (s *Session) DropList(key string) {
	if s.Cache != nil {
		delete(s.Cache, key)
	}
}

// clone copies the list record. Items is shared: cached items are never
// edited in place, only the whole list is replaced or dropped.
func (l *CachedList) clone() *CachedList {
	if l == nil {
		return nil
	}

	c := *l
	return &c
}

// Clone returns a copy detached from store-held state, safe to read while
// other updates for the same user mutate the stored session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	c := &Session{
		UserID:    s.UserID,
		State:     s.State,
		UpdatedAt: s.UpdatedAt,
	}

	if s.Flow != nil {
		c.Flow = s.Flow.Clone()
	}

	if s.Cache != nil {
		c.Cache = make(Cache, len(s.Cache))
		for key, list := range s.Cache {
			c.Cache[key] = list.clone()
		}
	}

	return c
}
