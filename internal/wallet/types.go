// Package wallet defines the domain types and the capability interfaces the
// conversation engine consumes. Implementations (chain RPC, swap aggregator,
// user directory) live outside this module.
package wallet

// NativeSymbol is the symbol of the chain's native asset. Trades priced in
// the native asset reserve an execution fee buffer on top of the traded
// amount.
const NativeSymbol = "SOL"

// Asset describes one token a user holds or can trade.
type Asset struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Decimals int     `json:"decimals"`
	Balance  string  `json:"balance"`
	PriceUSD float64 `json:"price_usd,omitempty"`
}

// IsNative reports whether the asset is the chain's native one.
func (a Asset) IsNative() bool {
	return a.Symbol == NativeSymbol || a.Address == ""
}

// Identity is the result of resolving a directory identity (handle or
// numeric id) to a wallet address.
type Identity struct {
	Found       bool
	UserID      int64
	Address     string
	DisplayName string
}

// Quote is a swap quote for a fixed input amount.
type Quote struct {
	InputSymbol     string
	OutputSymbol    string
	InAmountAtomic  uint64
	OutAmountAtomic uint64
	OutDecimals     int
	PriceImpactPct  float64
	SlippageBps     int
	// Raw carries the aggregator's opaque quote payload; the trade executor
	// needs it verbatim.
	Raw []byte
}

// Receipt is what an executed transfer, trade, or mint reports back.
type Receipt struct {
	ReferenceID string
	ViewerLink  string
}

// EventDraft collects the fields of the event-creation wizard.
type EventDraft struct {
	Title       string
	Description string
	StartsAt    string
	Venue       string
	TicketPrice float64
	ImageURL    string
}

// AssetDraft collects the fields of the custom-asset mint wizard.
type AssetDraft struct {
	Name     string
	Symbol   string
	Category string
	Supply   uint64
	ImageURL string
}
