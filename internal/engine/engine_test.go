package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/arctis-labs/lumen-bot/internal/errors"
	"github.com/arctis-labs/lumen-bot/internal/flow"
	"github.com/arctis-labs/lumen-bot/internal/idempotency"
	"github.com/arctis-labs/lumen-bot/internal/orchestrator"
	"github.com/arctis-labs/lumen-bot/internal/session"
	"github.com/arctis-labs/lumen-bot/internal/wallet"
)

const recipientAddress = "4Nd1mYQkL7rJv8x2W9sHprUfFqTbxGzKcR5eA3nDhVu1"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEngine wires an Engine against the in-memory store and the wallet
// simulator, the same composition the development build runs.
func testEngine(t *testing.T) (*Engine, *session.MemoryStore, *wallet.Simulator) {
	t.Helper()

	log := testLogger()
	store := session.NewMemoryStore()
	sim := wallet.NewSimulator()

	orch := orchestrator.New(orchestrator.Backends{
		Directory: sim,
		Balances:  sim,
		Quoter:    sim,
		Transfers: sim,
		Trades:    sim,
		Minting:   sim,
		Keys:      sim,
	}, orchestrator.Options{NativeFeeBuffer: 0.01, CallTimeout: time.Second}, log)

	eng := New(
		store,
		orch,
		sim,
		sim,
		idempotency.NewManager(idempotency.NewMemoryStore(), log),
		apperrors.NewHandler(log, false),
		log,
		Config{DefaultSlippageBps: 100},
	)

	return eng, store, sim
}

func stateOf(t *testing.T, store *session.MemoryStore, userID int64) flow.State {
	t.Helper()

	sess, err := store.Get(context.Background(), userID)
	if err != nil {
		return flow.StateIdle
	}
	return sess.State
}

func simBalance(t *testing.T, sim *wallet.Simulator, userID int64, symbol string) float64 {
	t.Helper()

	raw, err := sim.Balance(context.Background(), userID, symbol)
	require.NoError(t, err)

	balance, err := wallet.ParseAmount(raw)
	if err != nil {
		return 0
	}
	return balance
}

func TestHandleCommand_MenuAndUnknown(t *testing.T) {
	eng, _, _ := testEngine(t)
	ctx := context.Background()

	reply := eng.HandleCommand(ctx, 1, "menu")
	assert.Contains(t, reply.Text, "What would you like to do?")
	assert.NotEmpty(t, reply.Actions)

	reply = eng.HandleCommand(ctx, 1, "teleport")
	assert.Contains(t, reply.Text, "Unknown command")
}

func TestHandleText_IdleShowsMenu(t *testing.T) {
	eng, _, _ := testEngine(t)

	reply := eng.HandleText(context.Background(), 1, "hello")
	assert.Contains(t, reply.Text, "get started")
	assert.NotEmpty(t, reply.Actions)
}

func TestHandleButton_MalformedToken(t *testing.T) {
	eng, _, _ := testEngine(t)
	ctx := context.Background()

	for _, raw := range []string{"", ":", ":::", "definitely_not_an_action", "confirm_extra_unknown"} {
		reply := eng.HandleButton(ctx, 1, raw)
		assert.True(t, reply.Failed || reply.Text != "", "raw %q must yield a safe reply", raw)
		assert.Nil(t, reply.Outcome, "raw %q must not execute anything", raw)
	}
}

func TestTransferFlow_HappyPath(t *testing.T) {
	eng, store, sim := testEngine(t)
	ctx := context.Background()
	userID := int64(100)

	reply := eng.HandleCommand(ctx, userID, "send")
	assert.Contains(t, reply.Text, "SOL", "the first asset page is shown for selection")
	assert.Equal(t, flow.StateTransferAsset, stateOf(t, store, userID))

	reply = eng.HandleButton(ctx, userID, "asset_pick:SOL")
	assert.Contains(t, reply.Text, "What address")
	assert.Equal(t, flow.StateTransferRecipient, stateOf(t, store, userID))

	reply = eng.HandleText(ctx, userID, recipientAddress)
	assert.Contains(t, reply.Text, "How much SOL")
	assert.Equal(t, flow.StateTransferAmount, stateOf(t, store, userID))

	reply = eng.HandleText(ctx, userID, "1.5")
	assert.Contains(t, reply.Text, "Send 1.5 SOL to")
	assert.Equal(t, flow.StateTransferConfirm, stateOf(t, store, userID))

	reply = eng.HandleButton(ctx, userID, ActionConfirm)
	require.NotNil(t, reply.Outcome)
	assert.Contains(t, reply.Text, "Sent 1.5 SOL")
	assert.Contains(t, reply.Text, "solscan.io/tx/")
	assert.Equal(t, flow.StateIdle, stateOf(t, store, userID), "a completed flow returns to idle")

	assert.InDelta(t, 8.5, simBalance(t, sim, userID, "SOL"), 1e-9)
}

func TestTransferFlow_ValidationKeepsState(t *testing.T) {
	eng, store, _ := testEngine(t)
	ctx := context.Background()
	userID := int64(101)

	eng.HandleCommand(ctx, userID, "send")
	eng.HandleButton(ctx, userID, "asset_pick:SOL")

	reply := eng.HandleText(ctx, userID, "not-an-address")
	assert.True(t, reply.Failed)
	assert.Equal(t, flow.StateTransferRecipient, stateOf(t, store, userID), "a rejected input re-prompts the same step")

	eng.HandleText(ctx, userID, recipientAddress)

	reply = eng.HandleText(ctx, userID, "999")
	assert.True(t, reply.Failed)
	assert.Contains(t, reply.Text, "Insufficient balance")
	assert.Equal(t, flow.StateTransferAmount, stateOf(t, store, userID))

	reply = eng.HandleText(ctx, userID, "nonsense")
	assert.True(t, reply.Failed)
	assert.Equal(t, flow.StateTransferAmount, stateOf(t, store, userID))
}

func TestTransferFlow_SecondConfirmDoesNotReExecute(t *testing.T) {
	eng, _, sim := testEngine(t)
	ctx := context.Background()
	userID := int64(102)

	eng.HandleCommand(ctx, userID, "send")
	eng.HandleButton(ctx, userID, "asset_pick:SOL")
	eng.HandleText(ctx, userID, recipientAddress)
	eng.HandleText(ctx, userID, "2")

	first := eng.HandleButton(ctx, userID, ActionConfirm)
	require.NotNil(t, first.Outcome)

	second := eng.HandleButton(ctx, userID, ActionConfirm)
	assert.Nil(t, second.Outcome, "a repeated press must not execute again")

	assert.InDelta(t, 8, simBalance(t, sim, userID, "SOL"), 1e-9, "the balance is deducted exactly once")
}

func TestTransferFlow_RepeatFlowSameValuesExecutesAgain(t *testing.T) {
	eng, _, sim := testEngine(t)
	ctx := context.Background()
	userID := int64(115)

	sendTwo := func() *Reply {
		eng.HandleCommand(ctx, userID, "send")
		eng.HandleButton(ctx, userID, "asset_pick:SOL")
		eng.HandleText(ctx, userID, recipientAddress)
		eng.HandleText(ctx, userID, "2")
		return eng.HandleButton(ctx, userID, ActionConfirm)
	}

	first := sendTwo()
	require.NotNil(t, first.Outcome)
	assert.InDelta(t, 8, simBalance(t, sim, userID, "SOL"), 1e-9)

	// A second, separately confirmed flow with identical values is a new
	// transfer, not a replay of the first one.
	second := sendTwo()
	require.NotNil(t, second.Outcome, "an intentional repeat must execute")
	assert.NotContains(t, second.Text, "Already done")
	assert.NotEqual(t, first.Outcome.ReferenceID, second.Outcome.ReferenceID)
	assert.InDelta(t, 6, simBalance(t, sim, userID, "SOL"), 1e-9, "both transfers are applied")
}

func TestConfirm_WithoutPendingFlow(t *testing.T) {
	eng, _, _ := testEngine(t)

	reply := eng.HandleButton(context.Background(), 103, ActionConfirm)
	assert.Nil(t, reply.Outcome)
	assert.NotEmpty(t, reply.Text)
}

func TestCancel_ReturnsToIdleKeepingCache(t *testing.T) {
	eng, store, _ := testEngine(t)
	ctx := context.Background()
	userID := int64(104)

	eng.HandleCommand(ctx, userID, "send")
	eng.HandleButton(ctx, userID, "asset_pick:SOL")

	reply := eng.HandleCommand(ctx, userID, "cancel")
	assert.Contains(t, reply.Text, "Cancelled")
	assert.Equal(t, flow.StateIdle, stateOf(t, store, userID))

	sess, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.NotNil(t, sess.List(session.CacheKeyAssets), "cancel drops the flow but keeps the page cache")
}

func TestPeerFlow_UnresolvableIdentityStaysPut(t *testing.T) {
	eng, store, sim := testEngine(t)
	ctx := context.Background()
	userID := int64(105)

	eng.HandleCommand(ctx, userID, "pay")
	assert.Equal(t, flow.StatePeerRecipient, stateOf(t, store, userID))

	reply := eng.HandleText(ctx, userID, "@ghost")
	assert.True(t, reply.Failed)
	assert.Contains(t, reply.Text, "@ghost")
	assert.Equal(t, flow.StatePeerRecipient, stateOf(t, store, userID), "an unresolvable recipient re-prompts in place")

	// Once the handle exists the same step succeeds.
	sim.RegisterHandle("@alice", 900)
	reply = eng.HandleText(ctx, userID, "@alice")
	assert.False(t, reply.Failed)
	assert.Equal(t, flow.StatePeerAsset, stateOf(t, store, userID))
}

func TestPeerFlow_HappyPath(t *testing.T) {
	eng, store, sim := testEngine(t)
	ctx := context.Background()
	userID := int64(106)
	peerID := int64(901)

	sim.RegisterHandle("@bob", peerID)
	// Touch the peer so the simulator knows the account.
	_, err := sim.Balance(ctx, peerID, "USDC")
	require.NoError(t, err)

	eng.HandleCommand(ctx, userID, "pay")
	eng.HandleText(ctx, userID, "@bob")
	eng.HandleButton(ctx, userID, "asset_pick:USDC")
	assert.Equal(t, flow.StatePeerAmount, stateOf(t, store, userID))

	reply := eng.HandleText(ctx, userID, "25")
	assert.Contains(t, reply.Text, "Send 25 USDC to @bob?")

	reply = eng.HandleButton(ctx, userID, ActionConfirm)
	require.NotNil(t, reply.Outcome)
	assert.Contains(t, reply.Text, "@bob")

	assert.InDelta(t, 225, simBalance(t, sim, userID, "USDC"), 1e-9)
	assert.InDelta(t, 275, simBalance(t, sim, peerID, "USDC"), 1e-9, "the peer is credited")
}

func TestAssetPagination(t *testing.T) {
	eng, store, _ := testEngine(t)
	ctx := context.Background()
	userID := int64(107)

	// The simulator seeds two assets; one asset per page.
	reply := eng.HandleCommand(ctx, userID, "assets")
	assert.Contains(t, reply.Text, "SOL")

	reply = eng.HandleButton(ctx, userID, "assets_page:2")
	assert.Contains(t, reply.Text, "USDC")

	// Pressing the same page again is idempotent.
	again := eng.HandleButton(ctx, userID, "assets_page:2")
	assert.Equal(t, reply.Text, again.Text)

	// Out-of-range pages clamp instead of failing.
	clamped := eng.HandleButton(ctx, userID, "assets_page:99")
	assert.Contains(t, clamped.Text, "USDC")

	sess, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, sess.List(session.CacheKeyAssets).Page)

	bad := eng.HandleButton(ctx, userID, "assets_page:owl")
	assert.True(t, bad.Failed)
}

func TestTradeFlow_QuoteRefreshAndConfirm(t *testing.T) {
	eng, store, sim := testEngine(t)
	ctx := context.Background()
	userID := int64(108)

	reply := eng.HandleCommand(ctx, userID, "trade")
	assert.Contains(t, reply.Text, "How much SOL")
	assert.Equal(t, flow.StateTradeAmount, stateOf(t, store, userID))

	reply = eng.HandleText(ctx, userID, "2")
	assert.Contains(t, reply.Text, "Swap 2 SOL")
	assert.Contains(t, reply.Text, "400 USDC")
	assert.Equal(t, flow.StateTradeQuote, stateOf(t, store, userID))

	// Refresh re-renders the quote without advancing.
	reply = eng.HandleButton(ctx, userID, ActionTradeRefresh)
	assert.Contains(t, reply.Text, "Swap 2 SOL")
	assert.Equal(t, flow.StateTradeQuote, stateOf(t, store, userID))

	// Adjust slippage and come back to the quote.
	reply = eng.HandleButton(ctx, userID, ActionTradeSlippage)
	assert.Equal(t, flow.StateTradeSlippage, stateOf(t, store, userID))

	reply = eng.HandleText(ctx, userID, "50")
	assert.Contains(t, reply.Text, "Slippage tolerance: 50 bps")
	assert.Equal(t, flow.StateTradeQuote, stateOf(t, store, userID))

	reply = eng.HandleButton(ctx, userID, ActionConfirm)
	require.NotNil(t, reply.Outcome)
	assert.Contains(t, reply.Text, "Swapped 2 SOL into USDC")

	assert.InDelta(t, 8, simBalance(t, sim, userID, "SOL"), 1e-9)
	assert.InDelta(t, 650, simBalance(t, sim, userID, "USDC"), 1e-9)
}

func TestTradeFlow_InvalidSlippageStaysPut(t *testing.T) {
	eng, store, _ := testEngine(t)
	ctx := context.Background()
	userID := int64(109)

	eng.HandleCommand(ctx, userID, "trade")
	eng.HandleText(ctx, userID, "1")
	eng.HandleButton(ctx, userID, ActionTradeSlippage)

	reply := eng.HandleText(ctx, userID, "99999")
	assert.True(t, reply.Failed)
	assert.Equal(t, flow.StateTradeSlippage, stateOf(t, store, userID))
}

func TestImportFlow(t *testing.T) {
	eng, store, _ := testEngine(t)
	ctx := context.Background()
	userID := int64(110)

	reply := eng.HandleCommand(ctx, userID, "import")
	assert.Contains(t, reply.Text, "never stored")
	assert.Equal(t, flow.StateImportSecret, stateOf(t, store, userID))

	// Both outcomes are one-shot: the flow ends either way.
	reply = eng.HandleText(ctx, userID, "short")
	assert.True(t, reply.Failed)
	assert.NotContains(t, reply.Text, "short", "the secret never appears in replies")
	assert.Equal(t, flow.StateIdle, stateOf(t, store, userID))

	eng.HandleCommand(ctx, userID, "import")
	reply = eng.HandleText(ctx, userID, "a-sufficiently-long-private-key-material-string")
	assert.False(t, reply.Failed)
	assert.Contains(t, reply.Text, "Wallet imported:")
	assert.Equal(t, flow.StateIdle, stateOf(t, store, userID))
}

func TestEventWizard_FullChain(t *testing.T) {
	eng, store, _ := testEngine(t)
	ctx := context.Background()
	userID := int64(111)

	reply := eng.HandleCommand(ctx, userID, "event")
	assert.Contains(t, reply.Text, "title")

	steps := []struct {
		input string
		state flow.State
	}{
		{input: "Launch party", state: flow.StateEventDescription},
		{input: "An evening of live demos.", state: flow.StateEventDate},
		{input: "2030-01-01 20:00", state: flow.StateEventVenue},
		{input: "Main Hall", state: flow.StateEventPrice},
		{input: "0", state: flow.StateEventImage},
	}

	for _, step := range steps {
		reply = eng.HandleText(ctx, userID, step.input)
		assert.False(t, reply.Failed, "input %q", step.input)
		assert.Equal(t, step.state, stateOf(t, store, userID))
	}

	reply = eng.HandleText(ctx, userID, "skip")
	require.NotNil(t, reply.Outcome)
	assert.Contains(t, reply.Text, `Event "Launch party" created`)
	assert.Equal(t, flow.StateIdle, stateOf(t, store, userID))
}

func TestEventWizard_InvalidFieldStaysPut(t *testing.T) {
	eng, store, _ := testEngine(t)
	ctx := context.Background()
	userID := int64(112)

	eng.HandleCommand(ctx, userID, "event")
	eng.HandleText(ctx, userID, "Launch party")
	eng.HandleText(ctx, userID, "An evening of live demos.")

	reply := eng.HandleText(ctx, userID, "sometime next week")
	assert.True(t, reply.Failed)
	assert.Equal(t, flow.StateEventDate, stateOf(t, store, userID), "a bad date re-prompts the date step")

	reply = eng.HandleText(ctx, userID, "2002-01-01 20:00")
	assert.True(t, reply.Failed, "past dates are rejected")
	assert.Equal(t, flow.StateEventDate, stateOf(t, store, userID))

	eng.HandleText(ctx, userID, "2099-01-01 20:00")
	eng.HandleText(ctx, userID, "The Dock")
	assert.Equal(t, flow.StateEventPrice, stateOf(t, store, userID))

	for _, raw := range []string{"NaN", "Inf", "+Inf"} {
		reply = eng.HandleText(ctx, userID, raw)
		assert.True(t, reply.Failed, "price %q must be rejected", raw)
		assert.Equal(t, flow.StateEventPrice, stateOf(t, store, userID))
	}
}

func TestMintWizard_FullChain(t *testing.T) {
	eng, store, _ := testEngine(t)
	ctx := context.Background()
	userID := int64(113)

	eng.HandleCommand(ctx, userID, "mint")
	assert.Equal(t, flow.StateMintName, stateOf(t, store, userID))

	for _, input := range []string{"Cool Token", "COOL", "art", "1000"} {
		reply := eng.HandleText(ctx, userID, input)
		assert.False(t, reply.Failed, "input %q", input)
	}
	assert.Equal(t, flow.StateMintImage, stateOf(t, store, userID))

	reply := eng.HandleText(ctx, userID, "skip")
	require.NotNil(t, reply.Outcome)
	assert.Contains(t, reply.Text, "Minted Cool Token (COOL), supply 1000.")
	assert.Equal(t, flow.StateIdle, stateOf(t, store, userID))

	// The cached asset list was invalidated, so the next listing includes
	// the fresh mint.
	sess, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, sess.List(session.CacheKeyAssets))
}

func TestTextInButtonOnlyState(t *testing.T) {
	eng, store, _ := testEngine(t)
	ctx := context.Background()
	userID := int64(114)

	eng.HandleCommand(ctx, userID, "send")
	assert.Equal(t, flow.StateTransferAsset, stateOf(t, store, userID))

	reply := eng.HandleText(ctx, userID, "SOL")
	assert.Contains(t, reply.Text, "use the buttons")
	assert.Equal(t, flow.StateTransferAsset, stateOf(t, store, userID))
}

func TestHandleText_UnknownStoredStateResets(t *testing.T) {
	eng, store, _ := testEngine(t)
	ctx := context.Background()
	userID := int64(116)

	// A state written by a newer or older build that this one has no
	// handler for.
	_, err := store.Mutate(ctx, userID, func(sess *session.Session) {
		sess.State = flow.State("time_machine")
	})
	require.NoError(t, err)

	reply := eng.HandleText(ctx, userID, "anything")
	assert.True(t, reply.Failed)
	assert.Contains(t, reply.Text, "session expired")
	assert.Equal(t, flow.StateIdle, stateOf(t, store, userID))
}

func TestSetDefaultSlippage(t *testing.T) {
	eng, _, _ := testEngine(t)

	eng.SetDefaultSlippage(250)
	assert.Equal(t, 250, eng.defaultSlippage())

	eng.SetDefaultSlippage(0)
	assert.Equal(t, 250, eng.defaultSlippage(), "out-of-range values are ignored")

	eng.SetDefaultSlippage(flow.MaxSlippageBps + 1)
	assert.Equal(t, 250, eng.defaultSlippage())
}
