package flow

// validTransitions contains the permitted forward transitions per state.
// Returning to idle is always allowed (cancel, completion, expiry), so idle
// is omitted from the targets here.
var validTransitions = map[State][]State{
	StateIdle: {
		StateImportSecret,
		StateTransferAsset,
		StatePeerRecipient,
		StateTradeAmount,
		StateEventTitle,
		StateMintName,
	},

	StateTransferAsset:     {StateTransferRecipient},
	StateTransferRecipient: {StateTransferAmount},
	StateTransferAmount:    {StateTransferConfirm},
	StateTransferConfirm:   {},

	StatePeerRecipient: {StatePeerAsset},
	StatePeerAsset:     {StatePeerAmount},
	StatePeerAmount:    {StatePeerConfirm},
	StatePeerConfirm:   {},

	StateTradeQuote:    {StateTradeAmount, StateTradeSlippage},
	StateTradeAmount:   {StateTradeQuote},
	StateTradeSlippage: {StateTradeQuote},

	StateEventTitle:       {StateEventDescription},
	StateEventDescription: {StateEventDate},
	StateEventDate:        {StateEventVenue},
	StateEventVenue:       {StateEventPrice},
	StateEventPrice:       {StateEventImage},
	StateEventImage:       {},

	StateMintName:     {StateMintSymbol},
	StateMintSymbol:   {StateMintCategory},
	StateMintCategory: {StateMintSupply},
	StateMintSupply:   {StateMintImage},
	StateMintImage:    {},
}

// refreshable marks states that may transition to themselves: a quote
// refresh or slippage change re-renders the same step without advancing.
var refreshable = map[State]bool{
	StateTradeQuote: true,
}

// IsTransitionAllowed reports whether moving from one state to another is
// valid. A self-transition is a refresh and only allowed for refreshable
// states.
func IsTransitionAllowed(from, to State) bool {
	if to == StateIdle {
		return true
	}

	if from == to {
		return refreshable[from]
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}

// IsRefresh reports whether a transition from one state to another is a
// refresh-in-place rather than an advance.
func IsRefresh(from, to State) bool {
	return from == to && refreshable[from]
}
