package engine

import (
	"context"
	"fmt"

	"github.com/arctis-labs/lumen-bot/internal/flow"
	"github.com/arctis-labs/lumen-bot/internal/session"
)

func (e *Engine) startImport(ctx context.Context, userID int64) *Reply {
	if _, err := e.enterFlow(ctx, userID, flow.StateImportSecret, nil); err != nil {
		return e.fail(ctx, userID, err)
	}

	return prompt("Paste your wallet secret. It is used once and never stored.",
		row(actionOf("Cancel", ActionCancel, "")))
}

// handleImportSecret is one-shot: success and failure both return to idle,
// failure with a retry hint. The secret itself never touches the session.
func (e *Engine) handleImportSecret(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	if _, ok := sess.Flow.(*flow.ImportData); !ok {
		return e.expired(ctx, userID)
	}

	address, err := e.orch.ImportSecret(ctx, userID, text)

	if clearErr := e.store.ClearFlow(ctx, userID); clearErr != nil {
		return e.fail(ctx, userID, clearErr)
	}

	if err != nil {
		return failure("That secret could not be imported. Run /import to try again.",
			row(actionOf("Main menu", ActionMenu, "")))
	}

	// A new wallet invalidates any cached asset list.
	if invErr := e.pages.Invalidate(ctx, userID, session.CacheKeyAssets); invErr != nil {
		return e.fail(ctx, userID, invErr)
	}

	return prompt(fmt.Sprintf("Wallet imported: %s", address),
		row(actionOf("My assets", ActionAssets, ""), actionOf("Main menu", ActionMenu, "")))
}
