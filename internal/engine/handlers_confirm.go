package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/arctis-labs/lumen-bot/internal/flow"
	"github.com/arctis-labs/lumen-bot/internal/idempotency"
	"github.com/arctis-labs/lumen-bot/internal/orchestrator"
	"github.com/arctis-labs/lumen-bot/internal/session"
)

// confirm executes the operation the session is waiting on. Every value is
// re-derived from the session snapshot: the button token carries nothing,
// so a tampered or stale payload cannot change what executes.
func (e *Engine) confirm(ctx context.Context, userID int64) *Reply {
	sess, err := e.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return e.expired(ctx, userID)
		}
		return e.fail(ctx, userID, err)
	}

	switch sess.State {
	case flow.StateTransferConfirm:
		data, ok := sess.Flow.(*flow.TransferData)
		if !ok || !data.Ready() {
			return e.expired(ctx, userID)
		}

		key := idempotency.GenerateKey(userID, "transfer", data.Nonce, data.Asset.Symbol, data.Recipient, data.Amount)
		return e.execute(ctx, userID, key, func(ctx context.Context) (*orchestrator.Outcome, error) {
			return e.orch.ExecuteTransfer(ctx, userID, data)
		}, func(outcome *orchestrator.Outcome) string {
			return fmt.Sprintf("Sent %s %s to %s.", outcome.Amount, outcome.Symbol, outcome.Recipient)
		})

	case flow.StatePeerConfirm:
		data, ok := sess.Flow.(*flow.PeerData)
		if !ok || !data.Ready() {
			return e.expired(ctx, userID)
		}

		key := idempotency.GenerateKey(userID, "peer", data.Nonce, data.Asset.Symbol, data.RecipientAddress, data.Amount)
		return e.execute(ctx, userID, key, func(ctx context.Context) (*orchestrator.Outcome, error) {
			return e.orch.ExecutePeerTransfer(ctx, userID, data)
		}, func(outcome *orchestrator.Outcome) string {
			return fmt.Sprintf("Sent %s %s to %s.", outcome.Amount, outcome.Symbol, data.RecipientName)
		})

	case flow.StateTradeQuote:
		data, ok := sess.Flow.(*flow.TradeData)
		if !ok || !data.Ready() {
			return e.expired(ctx, userID)
		}

		key := idempotency.GenerateKey(userID, "trade", data.Nonce, data.InputSymbol, data.OutputSymbol, data.Amount, data.SlippageBps)
		return e.execute(ctx, userID, key, func(ctx context.Context) (*orchestrator.Outcome, error) {
			return e.orch.ExecuteTrade(ctx, userID, data)
		}, func(outcome *orchestrator.Outcome) string {
			return fmt.Sprintf("Swapped %s %s into %s.", outcome.Amount, outcome.Symbol, data.OutputSymbol)
		})

	default:
		return failure("There is nothing to confirm right now.")
	}
}

// execute runs one guarded execution: the idempotency key pins the flow
// instance (via its nonce) plus the exact confirmed snapshot, so a replay
// with different values cannot reuse it and a later flow with the same
// values gets a key of its own.
func (e *Engine) execute(
	ctx context.Context,
	userID int64,
	key string,
	op idempotency.Operation,
	render func(*orchestrator.Outcome) string,
) *Reply {
	result, err := e.idem.Execute(ctx, key, outcomeCacheTTL, op)
	if err != nil {
		if errors.Is(err, idempotency.ErrRequestInProgress) {
			return prompt("Hold on — that operation is already being processed.")
		}
		return e.fail(ctx, userID, err)
	}

	// Execution succeeded (now or earlier): drop the flow and invalidate
	// the balance-bearing cache, which a mutating action has outdated.
	if clearErr := e.store.ClearFlow(ctx, userID); clearErr != nil {
		return e.fail(ctx, userID, clearErr)
	}
	if invErr := e.pages.Invalidate(ctx, userID, session.CacheKeyAssets); invErr != nil {
		return e.fail(ctx, userID, invErr)
	}

	text := render(result.Outcome)
	if result.Outcome.ViewerLink != "" {
		text += "\n" + result.Outcome.ViewerLink
	}
	if result.FromCache {
		text = "Already done. " + text
	}

	return success(text, result.Outcome, row(actionOf("Main menu", ActionMenu, "")))
}
