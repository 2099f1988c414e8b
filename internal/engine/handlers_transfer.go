package engine

import (
	"context"
	"fmt"

	"github.com/arctis-labs/lumen-bot/internal/flow"
	"github.com/arctis-labs/lumen-bot/internal/session"
	"github.com/arctis-labs/lumen-bot/internal/wallet"
)

func (e *Engine) startTransfer(ctx context.Context, userID int64) *Reply {
	if _, err := e.enterFlow(ctx, userID, flow.StateTransferAsset, nil); err != nil {
		return e.fail(ctx, userID, err)
	}

	return e.showAssets(ctx, userID, 1, pickSelect)
}

func (e *Engine) handleTransferRecipient(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	data, ok := sess.Flow.(*flow.TransferData)
	if !ok || data.Asset == nil {
		return e.expired(ctx, userID)
	}

	address, err := flow.ValidateAddress(text, e.validAddress)
	if err != nil {
		// Validation failures re-prompt the same state with guidance.
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	next, err := e.transition(ctx, userID, flow.StateTransferAmount, func(sess *session.Session) {
		if data, ok := sess.Flow.(*flow.TransferData); ok {
			data.Recipient = address
		}
	})
	if err != nil {
		return e.fail(ctx, userID, err)
	}

	updated, ok := next.Flow.(*flow.TransferData)
	if !ok || updated.Asset == nil {
		return e.expired(ctx, userID)
	}

	return prompt(fmt.Sprintf("How much %s? You have %s.", updated.Asset.Symbol, updated.Asset.Balance),
		row(actionOf("Cancel", ActionCancel, "")))
}

func (e *Engine) handleTransferAmount(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	data, ok := sess.Flow.(*flow.TransferData)
	if !ok || data.Asset == nil || data.Recipient == "" {
		return e.expired(ctx, userID)
	}

	balance, err := wallet.ParseAmount(data.Asset.Balance)
	if err != nil {
		balance = 0
	}

	amount, err := flow.ValidateAmount(text, balance)
	if err != nil {
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	next, err := e.transition(ctx, userID, flow.StateTransferConfirm, func(sess *session.Session) {
		if data, ok := sess.Flow.(*flow.TransferData); ok {
			data.Amount = amount
		}
	})
	if err != nil {
		return e.fail(ctx, userID, err)
	}

	confirmed, ok := next.Flow.(*flow.TransferData)
	if !ok || !confirmed.Ready() {
		return e.expired(ctx, userID)
	}

	return transferConfirmPrompt(confirmed.Amount, confirmed.Asset.Symbol, confirmed.Recipient)
}

func transferConfirmPrompt(amount float64, symbol, recipient string) *Reply {
	return prompt(
		fmt.Sprintf("Send %s %s to %s?", wallet.FormatAmount(amount), symbol, recipient),
		row(
			actionOf("Confirm ✅", ActionConfirm, ""),
			actionOf("Cancel ❌", ActionCancel, ""),
		),
	)
}

func (e *Engine) startPeerTransfer(ctx context.Context, userID int64) *Reply {
	if _, err := e.enterFlow(ctx, userID, flow.StatePeerRecipient, nil); err != nil {
		return e.fail(ctx, userID, err)
	}

	return prompt("Who should receive it? Send @handle or their id.",
		row(actionOf("Cancel", ActionCancel, "")))
}

func (e *Engine) handlePeerRecipient(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	if _, ok := sess.Flow.(*flow.PeerData); !ok {
		return e.expired(ctx, userID)
	}

	identifier, err := flow.ValidateIdentity(text)
	if err != nil {
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	identity, err := e.orch.ResolveIdentity(ctx, identifier)
	if err != nil {
		// The recipient fields stay unset; the user re-enters at the same
		// state.
		return failure(fmt.Sprintf("Couldn't find %s. Try another handle or id.", identifier),
			row(actionOf("Cancel", ActionCancel, "")))
	}

	if _, err := e.transition(ctx, userID, flow.StatePeerAsset, func(sess *session.Session) {
		if data, ok := sess.Flow.(*flow.PeerData); ok {
			data.RecipientID = identity.UserID
			data.RecipientName = identity.DisplayName
			data.RecipientAddress = identity.Address
		}
	}); err != nil {
		return e.fail(ctx, userID, err)
	}

	return e.showAssets(ctx, userID, 1, pickSelect)
}

func (e *Engine) handlePeerAmount(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	data, ok := sess.Flow.(*flow.PeerData)
	if !ok || data.Asset == nil || data.RecipientAddress == "" {
		return e.expired(ctx, userID)
	}

	balance, err := wallet.ParseAmount(data.Asset.Balance)
	if err != nil {
		balance = 0
	}

	amount, err := flow.ValidateAmount(text, balance)
	if err != nil {
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	next, err := e.transition(ctx, userID, flow.StatePeerConfirm, func(sess *session.Session) {
		if data, ok := sess.Flow.(*flow.PeerData); ok {
			data.Amount = amount
		}
	})
	if err != nil {
		return e.fail(ctx, userID, err)
	}

	confirmed, ok := next.Flow.(*flow.PeerData)
	if !ok || !confirmed.Ready() {
		return e.expired(ctx, userID)
	}

	return prompt(
		fmt.Sprintf("Send %s %s to %s?", wallet.FormatAmount(confirmed.Amount), confirmed.Asset.Symbol, confirmed.RecipientName),
		row(
			actionOf("Confirm ✅", ActionConfirm, ""),
			actionOf("Cancel ❌", ActionCancel, ""),
		),
	)
}
