package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arctis-labs/lumen-bot/internal/flow"
	"github.com/arctis-labs/lumen-bot/internal/wallet"
)

func TestMemoryStore_GetNotFound(t *testing.T) {
	store := NewMemoryStore()

	sess, err := store.Get(context.Background(), 42)
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_MutateCreatesLazily(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess, err := store.Mutate(ctx, 42, func(sess *Session) {
		sess.EnterFlow(flow.StateImportSecret)
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(42), sess.UserID)
	assert.Equal(t, flow.StateImportSecret, sess.State)
	assert.IsType(t, &flow.ImportData{}, sess.Flow)
	assert.False(t, sess.UpdatedAt.IsZero())

	loaded, err := store.Get(ctx, 42)
	assert.NoError(t, err)
	assert.Equal(t, flow.StateImportSecret, loaded.State)
}

func TestMemoryStore_ClearFlowPreservesCache(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Mutate(ctx, 7, func(sess *Session) {
		sess.EnterFlow(flow.StateTransferAsset)
		sess.PutList(CacheKeyAssets, &CachedList{
			Items: []wallet.Asset{{Symbol: "SOL", Balance: "10"}},
			Page:  2,
		})
	})
	assert.NoError(t, err)

	assert.NoError(t, store.ClearFlow(ctx, 7))

	sess, err := store.Get(ctx, 7)
	assert.NoError(t, err)
	assert.True(t, sess.State.IsIdle())
	assert.Nil(t, sess.Flow)
	if assert.NotNil(t, sess.List(CacheKeyAssets)) {
		assert.Equal(t, 2, sess.List(CacheKeyAssets).Page)
	}
}

func TestMemoryStore_ClearDropsEverything(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Mutate(ctx, 7, func(sess *Session) {
		sess.PutList(CacheKeyAssets, &CachedList{Page: 1})
	})
	assert.NoError(t, err)

	assert.NoError(t, store.Clear(ctx, 7))

	_, err = store.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Snapshot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		_, err := store.Mutate(ctx, id, nil)
		assert.NoError(t, err)
	}

	snapshot := store.Snapshot()
	assert.Len(t, snapshot, 3)
}

func TestMemoryStore_GetReturnsDetachedCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Mutate(ctx, 9, func(sess *Session) {
		sess.EnterFlow(flow.StateTransferAmount)
		if data, ok := sess.Flow.(*flow.TransferData); ok {
			data.Recipient = "somewhere"
		}
		sess.PutList(CacheKeyAssets, &CachedList{
			Items: []wallet.Asset{{Symbol: "SOL", Balance: "10"}},
			Page:  1,
		})
	})
	assert.NoError(t, err)

	snapshot, err := store.Get(ctx, 9)
	assert.NoError(t, err)

	// Writing through the snapshot must not reach the stored session.
	snapshot.State = flow.StateIdle
	snapshot.List(CacheKeyAssets).Page = 99
	snapshot.Flow.(*flow.TransferData).Recipient = "elsewhere"

	stored, err := store.Get(ctx, 9)
	assert.NoError(t, err)
	assert.Equal(t, flow.StateTransferAmount, stored.State)
	assert.Equal(t, 1, stored.List(CacheKeyAssets).Page)
	assert.Equal(t, "somewhere", stored.Flow.(*flow.TransferData).Recipient)

	// And later store mutations must not show up in an older snapshot.
	_, err = store.Mutate(ctx, 9, func(sess *Session) {
		sess.List(CacheKeyAssets).Page = 3
	})
	assert.NoError(t, err)
	assert.Equal(t, 99, snapshot.List(CacheKeyAssets).Page)
}

func TestMemoryStore_ConcurrentGetAndMutate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Mutate(ctx, 11, func(sess *Session) {
		sess.EnterFlow(flow.StateTransferAsset)
		sess.PutList(CacheKeyAssets, &CachedList{
			Items: []wallet.Asset{{Symbol: "SOL", Balance: "10"}},
			Page:  1,
		})
	})
	assert.NoError(t, err)

	// Two updates for the same user arrive on separate goroutines; readers
	// must never observe the maps mid-write.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				sess, err := store.Get(ctx, 11)
				if err != nil {
					continue
				}
				_ = sess.List(CacheKeyAssets)
				_ = sess.State
			}
		}()
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_, _ = store.Mutate(ctx, 11, func(sess *Session) {
					sess.PutList(CacheKeyAssets, &CachedList{Page: n})
				})
			}
		}(i)
	}
	wg.Wait()
}
