package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestRedisLimiter_AllowsWithinLimit(t *testing.T) {
	client, _ := setupTestRedis(t)
	limiter := NewRedisLimiter(client, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		decision, err := limiter.Check(ctx, "user:1", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, decision.Allowed)
	}
}

func TestRedisLimiter_BlocksWhenExceeded(t *testing.T) {
	client, _ := setupTestRedis(t)
	limiter := NewRedisLimiter(client, testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		decision, err := limiter.Check(ctx, "user:2", 2, time.Minute)
		assert.NoError(t, err)
		assert.True(t, decision.Allowed)
	}

	decision, err := limiter.Check(ctx, "user:2", 2, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	if assert.NotNil(t, decision) {
		assert.False(t, decision.Allowed)
	}
}

func TestRedisLimiter_WindowSlides(t *testing.T) {
	client, _ := setupTestRedis(t)
	limiter := NewRedisLimiter(client, testLogger())
	ctx := context.Background()

	window := 50 * time.Millisecond

	_, err := limiter.Check(ctx, "user:3", 1, window)
	assert.NoError(t, err)

	_, err = limiter.Check(ctx, "user:3", 1, window)
	assert.ErrorIs(t, err, ErrLimitExceeded)

	// Old entries age out of the sorted-set window.
	time.Sleep(2 * window)

	decision, err := limiter.Check(ctx, "user:3", 1, window)
	assert.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestAdaptiveLimiter_FallsBackOnRedisFailure(t *testing.T) {
	client, mr := setupTestRedis(t)
	primary := NewRedisLimiter(client, testLogger())
	fallback := NewMemoryLimiter()
	limiter := NewAdaptiveLimiter(primary, fallback, testLogger())
	ctx := context.Background()

	decision, err := limiter.Check(ctx, "user:4", 4, time.Minute)
	assert.NoError(t, err)
	assert.True(t, decision.Allowed)

	// Take Redis down; the memory fallback keeps limiting at half rate.
	mr.Close()

	decision, err = limiter.Check(ctx, "user:4", 4, time.Minute)
	assert.NoError(t, err)
	if assert.NotNil(t, decision) {
		assert.True(t, decision.Allowed)
	}

	_, err = limiter.Check(ctx, "user:4", 4, time.Minute)
	assert.NoError(t, err)

	_, err = limiter.Check(ctx, "user:4", 4, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded, "the fallback enforces the halved limit")
}

func TestAdaptiveLimiter_PassesThroughDenials(t *testing.T) {
	client, _ := setupTestRedis(t)
	limiter := NewAdaptiveLimiter(NewRedisLimiter(client, testLogger()), NewMemoryLimiter(), testLogger())
	ctx := context.Background()

	_, err := limiter.Check(ctx, "user:5", 1, time.Minute)
	assert.NoError(t, err)

	decision, err := limiter.Check(ctx, "user:5", 1, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	if assert.NotNil(t, decision) {
		assert.False(t, decision.Allowed)
	}
}
