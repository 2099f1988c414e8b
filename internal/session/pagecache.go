package session

import (
	"context"
	"time"

	"github.com/arctis-labs/lumen-bot/internal/wallet"
)

// CacheKeyAssets is the cache key for the asset list browsed page by page.
const CacheKeyAssets = "assets"

// AssetPageSize is how many assets one page shows while browsing.
const AssetPageSize = 1

// Fetcher loads a list from a downstream capability. It may be slow and
// may fail; the result is cached until invalidated.
type Fetcher func(ctx context.Context) ([]wallet.Asset, string, error)

// PageCache implements fetch-once pagination on top of a Store.
type PageCache struct {
	store Store
}

// NewPageCache binds a PageCache to the session store.
func NewPageCache(store Store) *PageCache {
	return &PageCache{store: store}
}

// GetOrFetch returns the cached list under key, calling fetch only when the
// cache is empty. The fetched list and the wallet it belongs to are stored
// in the same mutation, so a page is never shown against a different list
// than the one cached.
func (p *PageCache) GetOrFetch(ctx context.Context, userID int64, key string, fetch Fetcher) (*CachedList, error) {
	if sess, err := p.store.Get(ctx, userID); err == nil {
		if list := sess.List(key); list != nil {
			return list, nil
		}
	}

	items, walletAddr, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	list := &CachedList{
		Items:     items,
		Wallet:    walletAddr,
		Page:      1,
		FetchedAt: time.Now(),
	}

	if _, err := p.store.Mutate(ctx, userID, func(sess *Session) {
		sess.PutList(key, list)
	}); err != nil {
		return nil, err
	}

	// The stored record stays with the session; the caller gets its own copy.
	return list.clone(), nil
}

// Invalidate drops the cached list so the next GetOrFetch re-fetches.
func (p *PageCache) Invalidate(ctx context.Context, userID int64, key string) error {
	_, err := p.store.Mutate(ctx, userID, func(sess *Session) {
		sess.DropList(key)
	})

	return err
}

// SetPage records the page currently shown for key.
func (p *PageCache) SetPage(ctx context.Context, userID int64, key string, page int) error {
	_, err := p.store.Mutate(ctx, userID, func(sess *Session) {
		if list := sess.List(key); list != nil {
			list.Page = page
		}
	})

	return err
}

// PageWindow is one page sliced out of a cached list.
type PageWindow struct {
	Items       []wallet.Asset
	CurrentPage int
	TotalPages  int
}

// Page slices page n out of items, clamping n into [1, totalPages]. It
// never mutates items and never returns an empty window while items exist.
func Page(items []wallet.Asset, page, pageSize int) PageWindow {
	if pageSize < 1 {
		pageSize = 1
	}

	total := (len(items) + pageSize - 1) / pageSize
	if total < 1 {
		total = 1
	}

	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	return PageWindow{
		Items:       items[start:end],
		CurrentPage: page,
		TotalPages:  total,
	}
}
