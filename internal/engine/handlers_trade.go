package engine

import (
	"context"
	"fmt"

	"github.com/arctis-labs/lumen-bot/internal/flow"
	"github.com/arctis-labs/lumen-bot/internal/session"
	"github.com/arctis-labs/lumen-bot/internal/wallet"
)

// startTrade enters the trade flow for a pair. The flow begins at amount
// entry; the quote display doubles as the confirmation gate.
func (e *Engine) startTrade(ctx context.Context, userID int64, inputSymbol, outputSymbol, side string) *Reply {
	if inputSymbol == "" || outputSymbol == "" || inputSymbol == outputSymbol {
		return failure("That action is not valid anymore.")
	}

	slippage := e.defaultSlippage()

	sess, err := e.enterFlow(ctx, userID, flow.StateTradeAmount, func(sess *session.Session) {
		data, ok := sess.Flow.(*flow.TradeData)
		if !ok {
			return
		}

		data.InputSymbol = inputSymbol
		data.OutputSymbol = outputSymbol
		data.Side = side
		data.SlippageBps = slippage

		if asset, found := findCachedAsset(sess, inputSymbol); found {
			data.InputDecimals = asset.Decimals
		}
	})
	if err != nil {
		return e.fail(ctx, userID, err)
	}

	balanceHint := ""
	if balance, ok := cachedBalance(sess, inputSymbol); ok {
		balanceHint = fmt.Sprintf(" You have %s.", wallet.FormatAmount(balance))
	}

	return prompt(fmt.Sprintf("How much %s do you want to swap into %s?%s", inputSymbol, outputSymbol, balanceHint),
		row(actionOf("Cancel", ActionCancel, "")))
}

func (e *Engine) handleTradeAmount(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	data, ok := sess.Flow.(*flow.TradeData)
	if !ok || data.InputSymbol == "" {
		return e.expired(ctx, userID)
	}

	balance, known := cachedBalance(sess, data.InputSymbol)
	if !known {
		// No cached balance to check against; the orchestrator re-checks a
		// fresh one before execution anyway.
		amount, err := wallet.ParseAmount(text)
		if err != nil {
			return failure("Enter a positive number, e.g. 1.5", row(actionOf("Cancel", ActionCancel, "")))
		}
		return e.applyTradeAmount(ctx, userID, amount)
	}

	amount, err := flow.ValidateAmount(text, balance)
	if err != nil {
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	return e.applyTradeAmount(ctx, userID, amount)
}

func (e *Engine) applyTradeAmount(ctx context.Context, userID int64, amount float64) *Reply {
	next, err := e.transition(ctx, userID, flow.StateTradeQuote, func(sess *session.Session) {
		if data, ok := sess.Flow.(*flow.TradeData); ok {
			data.Amount = amount
		}
	})
	if err != nil {
		return e.fail(ctx, userID, err)
	}

	return e.showQuote(ctx, userID, next)
}

func (e *Engine) handleTradeSlippage(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	if _, ok := sess.Flow.(*flow.TradeData); !ok {
		return e.expired(ctx, userID)
	}

	bps, err := flow.ValidateSlippageBps(text)
	if err != nil {
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	next, err := e.transition(ctx, userID, flow.StateTradeQuote, func(sess *session.Session) {
		if data, ok := sess.Flow.(*flow.TradeData); ok {
			data.SlippageBps = bps
		}
	})
	if err != nil {
		return e.fail(ctx, userID, err)
	}

	return e.showQuote(ctx, userID, next)
}

// showQuote fetches a fresh quote and renders the quote display. Called on
// first entry, amount change, slippage change, and explicit refresh; the
// state tag stays trade_quote throughout.
func (e *Engine) showQuote(ctx context.Context, userID int64, sess *session.Session) *Reply {
	data, ok := sess.Flow.(*flow.TradeData)
	if !ok || !data.Ready() {
		return e.expired(ctx, userID)
	}

	preview, _, err := e.orch.QuoteTrade(ctx, data)
	if err != nil {
		return e.fail(ctx, userID, err)
	}

	text := fmt.Sprintf(
		"Swap %s %s → %s %s (est.)\nPrice impact: %.2f%%\nSlippage tolerance: %d bps",
		wallet.FormatAmount(preview.InAmount), preview.InSymbol,
		wallet.FormatAmount(preview.OutAmount), preview.OutSymbol,
		preview.PriceImpactPct, preview.SlippageBps,
	)

	return prompt(text,
		row(actionOf("Confirm ✅", ActionConfirm, "")),
		row(
			actionOf("Amount", ActionTradeAmount, ""),
			actionOf("Slippage", ActionTradeSlippage, ""),
			actionOf("Refresh", ActionTradeRefresh, ""),
		),
		row(actionOf("Cancel ❌", ActionCancel, "")),
	)
}

// refreshTradeQuote re-fetches the quote in place without advancing the
// state.
func (e *Engine) refreshTradeQuote(ctx context.Context, userID int64) *Reply {
	sess, err := e.transition(ctx, userID, flow.StateTradeQuote, nil)
	if err != nil {
		return e.fail(ctx, userID, err)
	}

	return e.showQuote(ctx, userID, sess)
}

// changeTradeAmount steps back to amount entry, keeping the rest of the
// trade parameters.
func (e *Engine) changeTradeAmount(ctx context.Context, userID int64) *Reply {
	sess, err := e.transition(ctx, userID, flow.StateTradeAmount, nil)
	if err != nil {
		return e.fail(ctx, userID, err)
	}

	data, ok := sess.Flow.(*flow.TradeData)
	if !ok {
		return e.expired(ctx, userID)
	}

	return prompt(fmt.Sprintf("New amount of %s to swap:", data.InputSymbol),
		row(actionOf("Cancel", ActionCancel, "")))
}

// changeTradeSlippage steps to slippage entry.
func (e *Engine) changeTradeSlippage(ctx context.Context, userID int64) *Reply {
	sess, err := e.transition(ctx, userID, flow.StateTradeSlippage, nil)
	if err != nil {
		return e.fail(ctx, userID, err)
	}

	data, ok := sess.Flow.(*flow.TradeData)
	if !ok {
		return e.expired(ctx, userID)
	}

	return prompt(fmt.Sprintf("New slippage tolerance in basis points (currently %d):", data.SlippageBps),
		row(actionOf("Cancel", ActionCancel, "")))
}
