package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/arctis-labs/lumen-bot/internal/errors"
	"github.com/arctis-labs/lumen-bot/internal/flow"
	"github.com/arctis-labs/lumen-bot/internal/session"
	"github.com/arctis-labs/lumen-bot/internal/wallet"
	"github.com/arctis-labs/lumen-bot/pkg/metrics"
)

// pickMode controls what the per-asset button does on the current page.
type pickMode int

const (
	// pickNone browses: the page offers send/buy/sell shortcuts.
	pickNone pickMode = iota
	// pickSelect selects the asset for the flow awaiting one.
	pickSelect
)

// assetList returns the cached token list, fetching it once when absent.
func (e *Engine) assetList(ctx context.Context, userID int64) (*session.CachedList, error) {
	if sess, err := e.store.Get(ctx, userID); err == nil {
		if list := sess.List(session.CacheKeyAssets); list != nil {
			metrics.RecordPageCache(true)
			return list, nil
		}
	}

	metrics.RecordPageCache(false)

	return e.pages.GetOrFetch(ctx, userID, session.CacheKeyAssets, func(ctx context.Context) ([]wallet.Asset, string, error) {
		address, err := e.directory.WalletAddress(ctx, userID)
		if err != nil {
			return nil, "", apperrors.NewExternalError("wallet lookup", err)
		}

		items, err := e.balances.ListAssets(ctx, userID)
		if err != nil {
			return nil, "", apperrors.NewExternalError("asset list", err)
		}

		return items, address, nil
	})
}

// showAssets renders one page of the user's assets. page <= 0 means the
// page recorded in the session from the last view.
func (e *Engine) showAssets(ctx context.Context, userID int64, page int, mode pickMode) *Reply {
	list, err := e.assetList(ctx, userID)
	if err != nil {
		return e.fail(ctx, userID, err)
	}

	if len(list.Items) == 0 {
		return prompt("You don't hold any assets yet.",
			row(actionOf("Refresh", ActionAssetsRefresh, ""), actionOf("Main menu", ActionMenu, "")))
	}

	if page <= 0 {
		page = list.Page
	}

	window := session.Page(list.Items, page, session.AssetPageSize)

	if err := e.pages.SetPage(ctx, userID, session.CacheKeyAssets, window.CurrentPage); err != nil {
		return e.fail(ctx, userID, err)
	}

	return renderAssetPage(window, mode)
}

func renderAssetPage(window session.PageWindow, mode pickMode) *Reply {
	asset := window.Items[0]

	var text strings.Builder
	fmt.Fprintf(&text, "%s (%s)\nBalance: %s", asset.Name, asset.Symbol, asset.Balance)
	if asset.PriceUSD > 0 {
		fmt.Fprintf(&text, "\nPrice: $%.4f", asset.PriceUSD)
	}

	var top []Action
	if mode == pickSelect {
		top = row(actionOf("Select "+asset.Symbol, ActionAssetPick, asset.Symbol))
	} else {
		top = row(
			actionOf("Send", ActionSend, ""),
			actionOf("Buy", ActionTradeBuy, asset.Symbol),
			actionOf("Sell", ActionTradeSell, asset.Symbol),
		)
	}

	nav := make([]Action, 0, 3)
	if window.CurrentPage > 1 {
		nav = append(nav, actionOf("‹ Prev", ActionAssetsPage, strconv.Itoa(window.CurrentPage-1)))
	}
	nav = append(nav, actionOf(pageLabel(window.CurrentPage, window.TotalPages), ActionAssetsPage, strconv.Itoa(window.CurrentPage)))
	if window.CurrentPage < window.TotalPages {
		nav = append(nav, actionOf("Next ›", ActionAssetsPage, strconv.Itoa(window.CurrentPage+1)))
	}

	return prompt(text.String(),
		top,
		nav,
		row(actionOf("Refresh", ActionAssetsRefresh, ""), actionOf("Main menu", ActionMenu, "")),
	)
}

// turnAssetPage handles prev/next presses. The page number arrives in the
// token and is parsed defensively; clamping happens in Page.
func (e *Engine) turnAssetPage(ctx context.Context, userID int64, data string) *Reply {
	page, err := strconv.Atoi(data)
	if err != nil {
		return failure("That action is not valid anymore.")
	}

	return e.showAssets(ctx, userID, page, e.currentPickMode(ctx, userID))
}

func (e *Engine) refreshAssets(ctx context.Context, userID int64) *Reply {
	if err := e.pages.Invalidate(ctx, userID, session.CacheKeyAssets); err != nil {
		return e.fail(ctx, userID, err)
	}

	return e.showAssets(ctx, userID, 1, e.currentPickMode(ctx, userID))
}

func (e *Engine) currentPickMode(ctx context.Context, userID int64) pickMode {
	sess, err := e.store.Get(ctx, userID)
	if err != nil {
		return pickNone
	}

	switch sess.State {
	case flow.StateTransferAsset, flow.StatePeerAsset:
		return pickSelect
	default:
		return pickNone
	}
}

// pickAsset records the selected asset for the flow awaiting one and
// advances it.
func (e *Engine) pickAsset(ctx context.Context, userID int64, symbol string) *Reply {
	sess, err := e.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return e.expired(ctx, userID)
		}
		return e.fail(ctx, userID, err)
	}

	asset, ok := findCachedAsset(sess, symbol)
	if !ok {
		// The pick referenced a list no longer cached; treat as expired.
		return e.expired(ctx, userID)
	}

	switch sess.State {
	case flow.StateTransferAsset:
		next, err := e.transition(ctx, userID, flow.StateTransferRecipient, func(sess *session.Session) {
			if data, ok := sess.Flow.(*flow.TransferData); ok {
				data.Asset = &asset
			}
		})
		if err != nil {
			return e.fail(ctx, userID, err)
		}
		if _, ok := next.Flow.(*flow.TransferData); !ok {
			return e.expired(ctx, userID)
		}
		return prompt(fmt.Sprintf("Sending %s. What address should receive it?", asset.Symbol),
			row(actionOf("Cancel", ActionCancel, "")))

	case flow.StatePeerAsset:
		next, err := e.transition(ctx, userID, flow.StatePeerAmount, func(sess *session.Session) {
			if data, ok := sess.Flow.(*flow.PeerData); ok {
				data.Asset = &asset
			}
		})
		if err != nil {
			return e.fail(ctx, userID, err)
		}
		data, ok := next.Flow.(*flow.PeerData)
		if !ok || data.RecipientAddress == "" {
			return e.expired(ctx, userID)
		}
		return prompt(fmt.Sprintf("How much %s should %s receive? You have %s.",
			asset.Symbol, data.RecipientName, asset.Balance),
			row(actionOf("Cancel", ActionCancel, "")))

	default:
		return failure("That action is not valid anymore.")
	}
}

func findCachedAsset(sess *session.Session, symbol string) (wallet.Asset, bool) {
	list := sess.List(session.CacheKeyAssets)
	if list == nil {
		return wallet.Asset{}, false
	}

	for _, asset := range list.Items {
		if asset.Symbol == symbol {
			return asset, true
		}
	}

	return wallet.Asset{}, false
}
