package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Action uniques. Tokens are "<unique>" or "<unique>:<data>"; the data part
// carries at most a page number or an asset symbol, never an amount — the
// confirmation step re-derives every value from the session.
const (
	ActionMenu          = "menu"
	ActionCancel        = "cancel"
	ActionImport        = "import"
	ActionSend          = "send"
	ActionPay           = "pay"
	ActionAssets        = "assets"
	ActionAssetsPage    = "assets_page"
	ActionAssetsRefresh = "assets_refresh"
	ActionAssetPick     = "asset_pick"
	ActionTradeBuy      = "trade_buy"
	ActionTradeSell     = "trade_sell"
	ActionTradeAmount   = "trade_amount"
	ActionTradeSlippage = "trade_slippage"
	ActionTradeRefresh  = "trade_refresh"
	ActionConfirm       = "confirm"
	ActionEventNew      = "event_new"
	ActionMintNew       = "mint_new"
)

const (
	actionSeparator  = ":"
	actionLimitBytes = 64
)

var errBadAction = errors.New("malformed action token")

// encodeAction packs a unique and optional data into a callback-safe token.
func encodeAction(unique, data string) string {
	token := unique
	if data != "" {
		token = unique + actionSeparator + data
	}

	if len(token) > actionLimitBytes {
		// Oversized tokens are a programming error; degrade to the bare
		// unique so the button still routes somewhere safe.
		return unique
	}

	return token
}

// decodeAction splits a raw token defensively. Unknown or malformed input
// is reported as errBadAction, never panicking on user-supplied bytes.
func decodeAction(raw string) (unique, data string, err error) {
	token := strings.TrimSpace(raw)
	if token == "" || len(token) > actionLimitBytes {
		return "", "", errBadAction
	}

	if idx := strings.Index(token, actionSeparator); idx >= 0 {
		unique, data = token[:idx], token[idx+len(actionSeparator):]
	} else {
		unique = token
	}

	if unique == "" {
		return "", "", errBadAction
	}

	return unique, data, nil
}

func actionOf(label, unique, data string) Action {
	return Action{Label: label, Token: encodeAction(unique, data)}
}

func pageLabel(page, total int) string {
	return fmt.Sprintf("%d/%d", page, total)
}
