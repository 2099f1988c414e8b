// Package flow enumerates the conversation states, their legal transitions,
// and the per-family flow data carried between steps.
package flow

// State represents a finite-state machine state. The zero value is the idle
// state: no conversation in progress.
type State string

const (
	// StateIdle indicates the bot is waiting for the next command.
	StateIdle State = ""

	// StateImportSecret indicates the user was asked for a wallet secret.
	StateImportSecret State = "import_secret"

	// Direct transfer: asset, then recipient address, then amount, then the
	// confirmation gate.
	StateTransferAsset     State = "transfer_asset"
	StateTransferRecipient State = "transfer_recipient"
	StateTransferAmount    State = "transfer_amount"
	StateTransferConfirm   State = "transfer_confirm"

	// Peer transfer resolves a directory identity before asset selection.
	StatePeerRecipient State = "peer_recipient"
	StatePeerAsset     State = "peer_asset"
	StatePeerAmount    State = "peer_amount"
	StatePeerConfirm   State = "peer_confirm"

	// Market trade. StateTradeQuote is the quote display and doubles as the
	// confirmation gate; amount and slippage entry return to it in place.
	StateTradeQuote    State = "trade_quote"
	StateTradeAmount   State = "trade_amount"
	StateTradeSlippage State = "trade_slippage"

	// Event creation wizard, strictly ordered.
	StateEventTitle       State = "event_title"
	StateEventDescription State = "event_description"
	StateEventDate        State = "event_date"
	StateEventVenue       State = "event_venue"
	StateEventPrice       State = "event_price"
	StateEventImage       State = "event_image"

	// Custom asset mint wizard, strictly ordered.
	StateMintName     State = "mint_name"
	StateMintSymbol   State = "mint_symbol"
	StateMintCategory State = "mint_category"
	StateMintSupply   State = "mint_supply"
	StateMintImage    State = "mint_image"
)

// IsIdle reports whether s is the idle state.
func (s State) IsIdle() bool {
	return s == StateIdle
}

// AwaitsText reports whether the state expects a free-text reply rather
// than a button press.
func (s State) AwaitsText() bool {
	switch s {
	case StateTransferConfirm, StatePeerConfirm, StateTradeQuote, StateTransferAsset, StatePeerAsset, StateIdle:
		return false
	default:
		return true
	}
}
