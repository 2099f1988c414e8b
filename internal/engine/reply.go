package engine

import "github.com/arctis-labs/lumen-bot/internal/orchestrator"

// Action is one quick action offered alongside a prompt. Token is an
// encoded action token the transport feeds back through HandleButton.
type Action struct {
	Label string
	Token string
}

// Reply is the render-agnostic result of handling one inbound event:
// either a prompt (next question plus quick actions) or a terminal outcome.
// The transport adapter decides how to render it.
type Reply struct {
	Text    string
	Actions [][]Action
	// Outcome is set on successful execution of an irreversible operation.
	Outcome *orchestrator.Outcome
	// Failed marks terminal error replies, so the adapter can style them.
	Failed bool
}

func prompt(text string, rows ...[]Action) *Reply {
	return &Reply{Text: text, Actions: rows}
}

func failure(text string, rows ...[]Action) *Reply {
	return &Reply{Text: text, Actions: rows, Failed: true}
}

func success(text string, outcome *orchestrator.Outcome, rows ...[]Action) *Reply {
	return &Reply{Text: text, Outcome: outcome, Actions: rows}
}

func row(actions ...Action) []Action {
	return actions
}
