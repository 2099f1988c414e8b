package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arctis-labs/lumen-bot/internal/flow"
)

const (
	sessionKeyPattern = "session:%d"
	lockKeyPattern    = "session:lock:%d"
	lockTTL           = 5 * time.Second
)

// ErrLocked indicates a concurrent mutation already holds the per-user
// lock.
var ErrLocked = errors.New("session is locked, try again later")

// RedisStore persists sessions in Redis so flows survive a process restart.
// It is an optional backend; the memory store is the default.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed Store. A non-positive ttl stores
// sessions without expiry.
func NewRedisStore(client *redis.Client, log *slog.Logger, ttl time.Duration) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

// sessionDoc is the wire form of Session. The flow union is stored as a
// family tag plus raw JSON and revived on load.
type sessionDoc struct {
	UserID    int64           `json:"user_id"`
	State     flow.State      `json:"state"`
	Family    flow.Family     `json:"family,omitempty"`
	Flow      json.RawMessage `json:"flow,omitempty"`
	Cache     Cache           `json:"cache,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func encodeSession(sess *Session) ([]byte, error) {
	doc := sessionDoc{
		UserID:    sess.UserID,
		State:     sess.State,
		Cache:     sess.Cache,
		UpdatedAt: sess.UpdatedAt,
	}

	if sess.Flow != nil {
		raw, err := json.Marshal(sess.Flow)
		if err != nil {
			return nil, fmt.Errorf("encode flow data: %w", err)
		}
		doc.Family = sess.Flow.Family()
		doc.Flow = raw
	}

	return json.Marshal(doc)
}

func decodeSession(data []byte) (*Session, error) {
	var doc sessionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	sess := &Session{
		UserID:    doc.UserID,
		State:     doc.State,
		Cache:     doc.Cache,
		UpdatedAt: doc.UpdatedAt,
	}

	if doc.Family != "" {
		variant := flow.EmptyData(doc.Family)
		if variant == nil {
			return nil, fmt.Errorf("unknown flow family %q", doc.Family)
		}
		if len(doc.Flow) > 0 {
			if err := json.Unmarshal(doc.Flow, variant); err != nil {
				return nil, fmt.Errorf("decode flow data: %w", err)
			}
		}
		sess.Flow = variant
	}

	return sess, nil
}

// Get loads and decodes the user's session.
func (s *RedisStore) Get(ctx context.Context, userID int64) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session from redis: %w", err)
	}

	return decodeSession(data)
}

// Mutate loads, mutates, and writes back the session under a per-user
// SetNX lock.
func (s *RedisStore) Mutate(ctx context.Context, userID int64, fn func(*Session)) (*Session, error) {
	if err := s.lock(ctx, userID); err != nil {
		return nil, err
	}
	defer s.unlock(ctx, userID)

	sess, err := s.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		sess = &Session{UserID: userID}
	}

	if fn != nil {
		fn(sess)
	}
	sess.UpdatedAt = time.Now()

	payload, err := encodeSession(sess)
	if err != nil {
		return nil, err
	}

	if err := s.client.Set(ctx, sessionKey(userID), payload, s.expiry()).Err(); err != nil {
		return nil, fmt.Errorf("set session in redis: %w", err)
	}

	return sess, nil
}

// Clear removes the session key.
func (s *RedisStore) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete session from redis: %w", err)
	}

	return nil
}

// ClearFlow resets flow state while preserving caches.
func (s *RedisStore) ClearFlow(ctx context.Context, userID int64) error {
	_, err := s.Mutate(ctx, userID, func(sess *Session) {
		sess.ResetFlow()
	})

	return err
}

func (s *RedisStore) expiry() time.Duration {
	if s.ttl <= 0 {
		return 0
	}

	return s.ttl
}

func (s *RedisStore) lock(ctx context.Context, userID int64) error {
	acquired, err := s.client.SetNX(ctx, lockKey(userID), 1, lockTTL).Result()
	if err != nil {
		s.log.Error("failed to acquire session lock", "user_id", userID, "error", err)
		return err
	}

	if !acquired {
		s.log.Warn("session lock already held", "user_id", userID)
		return ErrLocked
	}

	return nil
}

func (s *RedisStore) unlock(ctx context.Context, userID int64) {
	if err := s.client.Del(ctx, lockKey(userID)).Err(); err != nil {
		s.log.Error("failed to release session lock", "user_id", userID, "error", err)
	}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf(sessionKeyPattern, userID)
}

func lockKey(userID int64) string {
	return fmt.Sprintf(lockKeyPattern, userID)
}
