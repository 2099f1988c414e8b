package flow

import (
	"github.com/google/uuid"

	"github.com/arctis-labs/lumen-bot/internal/wallet"
)

// Family identifies a flow data variant for storage round trips.
type Family string

const (
	FamilyImport   Family = "import"
	FamilyTransfer Family = "transfer"
	FamilyPeer     Family = "peer"
	FamilyTrade    Family = "trade"
	FamilyEvent    Family = "event"
	FamilyMint     Family = "mint"
)

// Data is the tagged union of per-family flow state. Each variant carries
// only the fields legal for its family; a state whose required fields are
// absent is an expired session, never a crash.
type Data interface {
	Family() Family
	// Clone returns a copy detached from any store-held session, so readers
	// never share mutable state with concurrent mutations.
	Clone() Data
}

// ImportData carries nothing: the secret is consumed immediately and never
// stored.
type ImportData struct{}

func (*ImportData) Family() Family { return FamilyImport }

func (d *ImportData) Clone() Data {
	c := *d
	return &c
}

// TransferData accumulates a direct transfer field by field. Nonce is minted
// once per flow instance and scopes the confirmation's idempotency key, so a
// later flow with identical values executes independently.
type TransferData struct {
	Nonce     string        `json:"nonce,omitempty"`
	Asset     *wallet.Asset `json:"asset,omitempty"`
	Recipient string        `json:"recipient,omitempty"`
	Amount    float64       `json:"amount,omitempty"`
}

func (*TransferData) Family() Family { return FamilyTransfer }

func (d *TransferData) Clone() Data {
	c := *d
	if d.Asset != nil {
		asset := *d.Asset
		c.Asset = &asset
	}
	return &c
}

// Ready reports whether every field needed for execution is present.
func (d *TransferData) Ready() bool {
	return d != nil && d.Asset != nil && d.Recipient != "" && d.Amount > 0
}

// PeerData accumulates a peer transfer. The directory identity is resolved
// to an address before asset selection.
type PeerData struct {
	Nonce            string        `json:"nonce,omitempty"`
	RecipientID      int64         `json:"recipient_id,omitempty"`
	RecipientName    string        `json:"recipient_name,omitempty"`
	RecipientAddress string        `json:"recipient_address,omitempty"`
	Asset            *wallet.Asset `json:"asset,omitempty"`
	Amount           float64       `json:"amount,omitempty"`
}

func (*PeerData) Family() Family { return FamilyPeer }

func (d *PeerData) Clone() Data {
	c := *d
	if d.Asset != nil {
		asset := *d.Asset
		c.Asset = &asset
	}
	return &c
}

func (d *PeerData) Ready() bool {
	return d != nil && d.RecipientAddress != "" && d.Asset != nil && d.Amount > 0
}

// TradeData holds the market trade parameters. Quote results are derived
// and re-fetched at confirmation, never stored authoritatively.
type TradeData struct {
	Nonce         string  `json:"nonce,omitempty"`
	InputSymbol   string  `json:"input_symbol"`
	OutputSymbol  string  `json:"output_symbol"`
	InputDecimals int     `json:"input_decimals"`
	Side          string  `json:"side"`
	Amount        float64 `json:"amount"`
	SlippageBps   int     `json:"slippage_bps"`
}

func (*TradeData) Family() Family { return FamilyTrade }

func (d *TradeData) Clone() Data {
	c := *d
	return &c
}

func (d *TradeData) Ready() bool {
	return d != nil && d.InputSymbol != "" && d.OutputSymbol != "" && d.Amount > 0 && d.SlippageBps > 0
}

// EventData carries the event-creation wizard draft.
type EventData struct {
	Draft wallet.EventDraft `json:"draft"`
}

func (*EventData) Family() Family { return FamilyEvent }

func (d *EventData) Clone() Data {
	c := *d
	return &c
}

// MintData carries the custom-asset mint wizard draft.
type MintData struct {
	Draft wallet.AssetDraft `json:"draft"`
}

func (*MintData) Family() Family { return FamilyMint }

func (d *MintData) Clone() Data {
	c := *d
	return &c
}

// FamilyOf returns the family a state belongs to, or empty for idle.
func FamilyOf(state State) Family {
	switch state {
	case StateImportSecret:
		return FamilyImport
	case StateTransferAsset, StateTransferRecipient, StateTransferAmount, StateTransferConfirm:
		return FamilyTransfer
	case StatePeerRecipient, StatePeerAsset, StatePeerAmount, StatePeerConfirm:
		return FamilyPeer
	case StateTradeQuote, StateTradeAmount, StateTradeSlippage:
		return FamilyTrade
	case StateEventTitle, StateEventDescription, StateEventDate, StateEventVenue, StateEventPrice, StateEventImage:
		return FamilyEvent
	case StateMintName, StateMintSymbol, StateMintCategory, StateMintSupply, StateMintImage:
		return FamilyMint
	default:
		return ""
	}
}

// NewData returns a fresh flow data variant for the family. Confirmable
// families get a nonce, one per flow instance.
func NewData(family Family) Data {
	data := EmptyData(family)
	switch d := data.(type) {
	case *TransferData:
		d.Nonce = uuid.NewString()
	case *PeerData:
		d.Nonce = uuid.NewString()
	case *TradeData:
		d.Nonce = uuid.NewString()
	}
	return data
}

// EmptyData returns the zero variant for a family. Codecs reviving stored
// flow data use this so a decode never invents field values.
func EmptyData(family Family) Data {
	switch family {
	case FamilyImport:
		return &ImportData{}
	case FamilyTransfer:
		return &TransferData{}
	case FamilyPeer:
		return &PeerData{}
	case FamilyTrade:
		return &TradeData{}
	case FamilyEvent:
		return &EventData{}
	case FamilyMint:
		return &MintData{}
	default:
		return nil
	}
}
