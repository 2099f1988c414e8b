// Package orchestrator turns a completed flow into exactly one external
// side-effecting call, guarded by pre-flight checks against facts that may
// have changed since the user entered them.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/arctis-labs/lumen-bot/internal/errors"
	"github.com/arctis-labs/lumen-bot/internal/flow"
	"github.com/arctis-labs/lumen-bot/internal/wallet"
	"github.com/arctis-labs/lumen-bot/pkg/metrics"
)

// Backends groups the capability interfaces the orchestrator calls.
type Backends struct {
	Directory wallet.Directory
	Balances  wallet.Balances
	Quoter    wallet.Quoter
	Transfers wallet.Transfers
	Trades    wallet.Trades
	Minting   wallet.Minting
	Keys      wallet.Keys
	Notifier  wallet.Notifier
}

// Options tunes pre-flight behavior.
type Options struct {
	// NativeFeeBuffer is reserved on top of native-asset trade amounts to
	// cover execution overhead.
	NativeFeeBuffer float64
	// CallTimeout bounds every downstream call so a hung backend cannot
	// hang the conversation.
	CallTimeout time.Duration
}

// Orchestrator executes transfers, trades, and mints on behalf of
// completed flows.
type Orchestrator struct {
	backends Backends
	opts     Options
	log      *slog.Logger
}

// New builds an Orchestrator.
func New(backends Backends, opts Options, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}

	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 15 * time.Second
	}

	return &Orchestrator{
		backends: backends,
		opts:     opts,
		log:      log,
	}
}

func (o *Orchestrator) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.opts.CallTimeout)
}

// currentBalance re-resolves the balance right before execution. Reads are
// safe to retry.
func (o *Orchestrator) currentBalance(ctx context.Context, userID int64, symbolOrAddress string) (float64, error) {
	var raw string

	err := apperrors.WithRetry(ctx, func() error {
		callCtx, cancel := o.bounded(ctx)
		defer cancel()

		value, callErr := o.backends.Balances.Balance(callCtx, userID, symbolOrAddress)
		if callErr != nil {
			return apperrors.NewExternalError("balance lookup", callErr)
		}

		raw = value
		return nil
	})
	if err != nil {
		return 0, err
	}

	balance, err := wallet.ParseAmount(raw)
	if err != nil {
		// Zero balances parse as invalid "positive" amounts; treat them as 0.
		return 0, nil
	}

	return balance, nil
}

// ExecuteTransfer runs the pre-flight checks for a direct transfer and
// executes it exactly once.
func (o *Orchestrator) ExecuteTransfer(ctx context.Context, userID int64, pending *flow.TransferData) (*Outcome, error) {
	if pending == nil || !pending.Ready() {
		return nil, apperrors.NewSessionExpiredError()
	}

	return o.transfer(ctx, userID, pending.Asset, pending.Recipient, pending.Amount)
}

// ExecutePeerTransfer executes a peer transfer and then notifies the
// recipient best-effort. A failed notification never rolls back the
// already-executed transfer.
func (o *Orchestrator) ExecutePeerTransfer(ctx context.Context, userID int64, pending *flow.PeerData) (*Outcome, error) {
	if pending == nil || !pending.Ready() {
		return nil, apperrors.NewSessionExpiredError()
	}

	outcome, err := o.transfer(ctx, userID, pending.Asset, pending.RecipientAddress, pending.Amount)
	if err != nil {
		return nil, err
	}

	if o.backends.Notifier != nil && pending.RecipientID != 0 {
		message := fmt.Sprintf("You received %s %s from another user.", outcome.Amount, outcome.Symbol)
		if notifyErr := o.backends.Notifier.NotifyUser(ctx, pending.RecipientID, message); notifyErr != nil {
			o.log.Warn("recipient notification failed",
				slog.Int64("recipient_id", pending.RecipientID),
				slog.Any("error", notifyErr))
		}
	}

	return outcome, nil
}

func (o *Orchestrator) transfer(ctx context.Context, userID int64, asset *wallet.Asset, recipient string, amount float64) (*Outcome, error) {
	balance, err := o.currentBalance(ctx, userID, assetRef(asset))
	if err != nil {
		return nil, err
	}

	if amount > balance {
		return nil, apperrors.NewInsufficientFundsError(fmt.Sprintf(
			"Insufficient %s balance: you have %s, tried to send %s.",
			asset.Symbol, wallet.FormatAmount(balance), wallet.FormatAmount(amount)))
	}

	fromAddress, err := o.walletAddress(ctx, userID)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := o.bounded(ctx)
	defer cancel()

	receipt, err := o.backends.Transfers.ExecuteTransfer(
		callCtx, fromAddress, recipient, wallet.FormatAmount(amount), asset.Address, asset.Decimals)
	if err != nil {
		metrics.RecordExecution("transfer", "error")
		return nil, apperrors.NewExecutionError("transfer", err)
	}

	metrics.RecordExecution("transfer", "ok")

	return &Outcome{
		Amount:      wallet.FormatAmount(amount),
		Symbol:      asset.Symbol,
		Recipient:   recipient,
		ReferenceID: receipt.ReferenceID,
		ViewerLink:  viewerLink(receipt.ViewerLink, receipt.ReferenceID),
	}, nil
}

// QuoteTrade fetches a fresh quote for the stored trade parameters. Used
// for the quote display step and re-used by ExecuteTrade so a stale quote
// is never executed.
func (o *Orchestrator) QuoteTrade(ctx context.Context, trade *flow.TradeData) (*QuotePreview, *wallet.Quote, error) {
	if trade == nil || !trade.Ready() {
		return nil, nil, apperrors.NewSessionExpiredError()
	}

	inDecimals := trade.InputDecimals
	if inDecimals == 0 {
		inDecimals = nativeDecimals
	}
	amountAtomic := wallet.ToAtomic(trade.Amount, inDecimals)

	var quote *wallet.Quote
	err := apperrors.WithRetry(ctx, func() error {
		callCtx, cancel := o.bounded(ctx)
		defer cancel()

		fresh, callErr := o.backends.Quoter.GetQuote(callCtx, trade.InputSymbol, trade.OutputSymbol, amountAtomic, trade.SlippageBps)
		if callErr != nil {
			return apperrors.NewExternalError("quote", callErr)
		}

		quote = fresh
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if quote == nil || quote.OutAmountAtomic == 0 {
		return nil, nil, apperrors.NewUnsupportedError(fmt.Sprintf(
			"The pair %s/%s is not supported.", trade.InputSymbol, trade.OutputSymbol))
	}

	preview := &QuotePreview{
		InSymbol:       trade.InputSymbol,
		OutSymbol:      trade.OutputSymbol,
		InAmount:       trade.Amount,
		OutAmount:      wallet.FromAtomic(quote.OutAmountAtomic, quote.OutDecimals),
		PriceImpactPct: quote.PriceImpactPct,
		SlippageBps:    trade.SlippageBps,
	}

	return preview, quote, nil
}

// ExecuteTrade re-checks the balance (plus the native fee buffer when the
// input is the native asset), re-fetches the quote at the stored slippage,
// and executes exactly once.
func (o *Orchestrator) ExecuteTrade(ctx context.Context, userID int64, trade *flow.TradeData) (*Outcome, error) {
	if trade == nil || !trade.Ready() {
		return nil, apperrors.NewSessionExpiredError()
	}

	balance, err := o.currentBalance(ctx, userID, trade.InputSymbol)
	if err != nil {
		return nil, err
	}

	required := trade.Amount
	if trade.InputSymbol == wallet.NativeSymbol {
		required += o.opts.NativeFeeBuffer
	}

	if required > balance {
		shortfall := required - balance
		return nil, apperrors.NewInsufficientFundsError(fmt.Sprintf(
			"Insufficient %s: need %s (including the fee buffer), short by %s.",
			trade.InputSymbol, wallet.FormatAmount(required), wallet.FormatAmount(shortfall)))
	}

	_, quote, err := o.QuoteTrade(ctx, trade)
	if err != nil {
		return nil, err
	}

	fromAddress, err := o.walletAddress(ctx, userID)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := o.bounded(ctx)
	defer cancel()

	receipt, err := o.backends.Trades.ExecuteTrade(callCtx, quote, fromAddress, userID)
	if err != nil {
		metrics.RecordExecution("trade", "error")
		return nil, apperrors.NewExecutionError("trade", err)
	}

	metrics.RecordExecution("trade", "ok")

	return &Outcome{
		Amount:      wallet.FormatAmount(trade.Amount),
		Symbol:      trade.InputSymbol,
		ReferenceID: receipt.ReferenceID,
		ViewerLink:  viewerLink(receipt.ViewerLink, receipt.ReferenceID),
	}, nil
}

// CreateEvent submits a completed event draft to the minting backend.
func (o *Orchestrator) CreateEvent(ctx context.Context, userID int64, draft wallet.EventDraft) (*Outcome, error) {
	callCtx, cancel := o.bounded(ctx)
	defer cancel()

	receipt, err := o.backends.Minting.CreateEvent(callCtx, userID, draft)
	if err != nil {
		metrics.RecordExecution("event_create", "error")
		return nil, apperrors.NewExecutionError("event creation", err)
	}

	metrics.RecordExecution("event_create", "ok")

	return &Outcome{
		Symbol:      draft.Title,
		ReferenceID: receipt.ReferenceID,
		ViewerLink:  viewerLink(receipt.ViewerLink, receipt.ReferenceID),
	}, nil
}

// MintAsset submits a completed asset draft to the minting backend.
func (o *Orchestrator) MintAsset(ctx context.Context, userID int64, draft wallet.AssetDraft) (*Outcome, error) {
	callCtx, cancel := o.bounded(ctx)
	defer cancel()

	receipt, err := o.backends.Minting.MintAsset(callCtx, userID, draft)
	if err != nil {
		metrics.RecordExecution("mint", "error")
		return nil, apperrors.NewExecutionError("asset mint", err)
	}

	metrics.RecordExecution("mint", "ok")

	return &Outcome{
		Symbol:      draft.Symbol,
		ReferenceID: receipt.ReferenceID,
		ViewerLink:  viewerLink(receipt.ViewerLink, receipt.ReferenceID),
	}, nil
}

// ImportSecret forwards a wallet secret to the key backend. The secret is
// never stored in the session or logged.
func (o *Orchestrator) ImportSecret(ctx context.Context, userID int64, secret string) (string, error) {
	callCtx, cancel := o.bounded(ctx)
	defer cancel()

	address, err := o.backends.Keys.ImportSecret(callCtx, userID, secret)
	if err != nil {
		return "", apperrors.NewValidationError("That secret could not be imported. Check it and try again.")
	}

	return address, nil
}

// ResolveIdentity resolves a directory identity to a wallet address.
func (o *Orchestrator) ResolveIdentity(ctx context.Context, identifier string) (*wallet.Identity, error) {
	callCtx, cancel := o.bounded(ctx)
	defer cancel()

	identity, err := o.backends.Directory.ResolveIdentity(callCtx, identifier)
	if err != nil {
		return nil, apperrors.NewExternalError("directory", err)
	}

	if identity == nil || !identity.Found || identity.Address == "" {
		return nil, apperrors.NewUnsupportedError(fmt.Sprintf("No wallet found for %s.", identifier))
	}

	return identity, nil
}

func (o *Orchestrator) walletAddress(ctx context.Context, userID int64) (string, error) {
	callCtx, cancel := o.bounded(ctx)
	defer cancel()

	address, err := o.backends.Directory.WalletAddress(callCtx, userID)
	if err != nil {
		return "", apperrors.NewExternalError("wallet lookup", err)
	}

	if address == "" {
		return "", apperrors.NewUnsupportedError("You don't have a wallet yet. Import one first.")
	}

	return address, nil
}

const nativeDecimals = 9

// assetRef is the identifier balance lookups use: the mint address for
// tokens, the bare symbol for the native asset.
func assetRef(asset *wallet.Asset) string {
	if asset.IsNative() {
		return asset.Symbol
	}

	return asset.Address
}
