package wallet

import "context"

// Directory resolves human-friendly recipient references (handles, internal
// ids) to wallet addresses.
type Directory interface {
	ResolveIdentity(ctx context.Context, identifier string) (*Identity, error)
	// WalletAddress returns the caller's own wallet address.
	WalletAddress(ctx context.Context, userID int64) (string, error)
}

// Balances reads current holdings. Balance returns a human-readable decimal
// string for one asset; ListAssets returns every asset with a non-zero
// balance.
type Balances interface {
	Balance(ctx context.Context, userID int64, symbolOrAddress string) (string, error)
	ListAssets(ctx context.Context, userID int64) ([]Asset, error)
}

// Quoter fetches a swap quote. An unsupported pair must be reported as an
// error, never as a zero-output quote.
type Quoter interface {
	GetQuote(ctx context.Context, inputSymbol, outputSymbol string, amountAtomic uint64, slippageBps int) (*Quote, error)
}

// Transfers executes asset transfers. assetAddress is empty for the native
// asset.
type Transfers interface {
	ExecuteTransfer(ctx context.Context, fromAddress, toAddress, amount, assetAddress string, decimals int) (*Receipt, error)
}

// Trades executes a previously fetched quote.
type Trades interface {
	ExecuteTrade(ctx context.Context, quote *Quote, fromAddress string, userID int64) (*Receipt, error)
}

// Minting covers the ticketed-asset backends: creating an event collection
// and minting a custom asset.
type Minting interface {
	CreateEvent(ctx context.Context, userID int64, draft EventDraft) (*Receipt, error)
	MintAsset(ctx context.Context, userID int64, draft AssetDraft) (*Receipt, error)
}

// Keys imports a wallet secret for a user. The secret must never be logged
// or echoed back.
type Keys interface {
	ImportSecret(ctx context.Context, userID int64, secret string) (address string, err error)
}

// Notifier delivers best-effort out-of-band messages. Failures are the
// caller's to swallow; a missed notification must never fail the operation
// that triggered it.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int64, message string) error
}
