package flow

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     State
		to       State
		expected bool
	}{
		{name: "idle to import", from: StateIdle, to: StateImportSecret, expected: true},
		{name: "idle to transfer asset", from: StateIdle, to: StateTransferAsset, expected: true},
		{name: "idle to peer recipient", from: StateIdle, to: StatePeerRecipient, expected: true},
		{name: "idle to trade amount", from: StateIdle, to: StateTradeAmount, expected: true},
		{name: "idle to event title", from: StateIdle, to: StateEventTitle, expected: true},
		{name: "idle to mint name", from: StateIdle, to: StateMintName, expected: true},

		{name: "transfer asset to recipient", from: StateTransferAsset, to: StateTransferRecipient, expected: true},
		{name: "transfer recipient to amount", from: StateTransferRecipient, to: StateTransferAmount, expected: true},
		{name: "transfer amount to confirm", from: StateTransferAmount, to: StateTransferConfirm, expected: true},
		{name: "transfer skips recipient invalid", from: StateTransferAsset, to: StateTransferAmount, expected: false},
		{name: "idle straight to confirm invalid", from: StateIdle, to: StateTransferConfirm, expected: false},
		{name: "confirm back to amount invalid", from: StateTransferConfirm, to: StateTransferAmount, expected: false},

		{name: "peer recipient to asset", from: StatePeerRecipient, to: StatePeerAsset, expected: true},
		{name: "peer asset to amount", from: StatePeerAsset, to: StatePeerAmount, expected: true},
		{name: "peer amount to confirm", from: StatePeerAmount, to: StatePeerConfirm, expected: true},
		{name: "peer crossover to transfer invalid", from: StatePeerAsset, to: StateTransferAmount, expected: false},

		{name: "trade amount to quote", from: StateTradeAmount, to: StateTradeQuote, expected: true},
		{name: "trade quote back to amount", from: StateTradeQuote, to: StateTradeAmount, expected: true},
		{name: "trade quote to slippage", from: StateTradeQuote, to: StateTradeSlippage, expected: true},
		{name: "trade slippage to quote", from: StateTradeSlippage, to: StateTradeQuote, expected: true},
		{name: "trade quote refresh in place", from: StateTradeQuote, to: StateTradeQuote, expected: true},
		{name: "trade amount self invalid", from: StateTradeAmount, to: StateTradeAmount, expected: false},

		{name: "event date to venue", from: StateEventDate, to: StateEventVenue, expected: true},
		{name: "event skips a step invalid", from: StateEventTitle, to: StateEventDate, expected: false},
		{name: "mint supply to image", from: StateMintSupply, to: StateMintImage, expected: true},
		{name: "mint symbol self invalid", from: StateMintSymbol, to: StateMintSymbol, expected: false},

		{name: "any state back to idle", from: StateMintImage, to: StateIdle, expected: true},
		{name: "unknown state back to idle", from: State("whatever"), to: StateIdle, expected: true},
		{name: "unknown state forward invalid", from: State("whatever"), to: StateTransferAsset, expected: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsTransitionAllowed(tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsTransitionAllowed(%s -> %s) = %t, expected %t", tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}

func TestIsRefresh(t *testing.T) {
	if !IsRefresh(StateTradeQuote, StateTradeQuote) {
		t.Error("quote-to-quote should be a refresh")
	}

	if IsRefresh(StateTradeAmount, StateTradeQuote) {
		t.Error("an advance is not a refresh")
	}

	if IsRefresh(StateEventTitle, StateEventTitle) {
		t.Error("non-refreshable states cannot refresh in place")
	}
}

func TestAwaitsText(t *testing.T) {
	textStates := []State{
		StateImportSecret,
		StateTransferRecipient, StateTransferAmount,
		StatePeerRecipient, StatePeerAmount,
		StateTradeAmount, StateTradeSlippage,
		StateEventTitle, StateEventImage,
		StateMintName, StateMintSupply,
	}
	for _, s := range textStates {
		if !s.AwaitsText() {
			t.Errorf("%s should await text", s)
		}
	}

	buttonStates := []State{
		StateIdle,
		StateTransferAsset, StateTransferConfirm,
		StatePeerAsset, StatePeerConfirm,
		StateTradeQuote,
	}
	for _, s := range buttonStates {
		if s.AwaitsText() {
			t.Errorf("%s should not await text", s)
		}
	}
}

func TestFamilyOfCoversEveryState(t *testing.T) {
	testCases := []struct {
		state  State
		family Family
	}{
		{StateImportSecret, FamilyImport},
		{StateTransferConfirm, FamilyTransfer},
		{StatePeerAmount, FamilyPeer},
		{StateTradeSlippage, FamilyTrade},
		{StateEventVenue, FamilyEvent},
		{StateMintCategory, FamilyMint},
		{StateIdle, Family("")},
	}

	for _, tc := range testCases {
		if actual := FamilyOf(tc.state); actual != tc.family {
			t.Errorf("FamilyOf(%s) = %s, expected %s", tc.state, actual, tc.family)
		}
	}
}

func TestNewDataRoundTrip(t *testing.T) {
	for _, family := range []Family{FamilyImport, FamilyTransfer, FamilyPeer, FamilyTrade, FamilyEvent, FamilyMint} {
		data := NewData(family)
		if data == nil {
			t.Fatalf("NewData(%s) returned nil", family)
		}
		if data.Family() != family {
			t.Errorf("NewData(%s).Family() = %s", family, data.Family())
		}
	}

	if NewData(Family("bogus")) != nil {
		t.Error("unknown family should produce nil")
	}
}

func TestNewDataMintsDistinctNonces(t *testing.T) {
	first, ok := NewData(FamilyTransfer).(*TransferData)
	if !ok || first.Nonce == "" {
		t.Fatal("a fresh transfer flow must carry a nonce")
	}

	second := NewData(FamilyTransfer).(*TransferData)
	if first.Nonce == second.Nonce {
		t.Error("each flow instance must get its own nonce")
	}

	if empty := EmptyData(FamilyTransfer).(*TransferData); empty.Nonce != "" {
		t.Error("the codec variant must not invent a nonce")
	}
}
