package orchestrator

import "fmt"

const viewerLinkPattern = "https://solscan.io/tx/%s"

// Outcome is the structured result of one executed operation. It is only
// produced on success; failures surface as typed errors so the caller can
// decide whether the flow survives.
type Outcome struct {
	Amount      string
	Symbol      string
	Recipient   string
	ReferenceID string
	ViewerLink  string
}

// QuotePreview is a freshly fetched quote rendered into the confirmation
// prompt. It is derived data: execution always re-fetches.
type QuotePreview struct {
	InSymbol       string
	OutSymbol      string
	InAmount       float64
	OutAmount      float64
	PriceImpactPct float64
	SlippageBps    int
}

// viewerLink falls back to a link derived from the reference id when the
// backend does not supply one.
func viewerLink(supplied, referenceID string) string {
	if supplied != "" {
		return supplied
	}

	if referenceID == "" {
		return ""
	}

	return fmt.Sprintf(viewerLinkPattern, referenceID)
}
