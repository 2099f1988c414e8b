// Package engine is the conversational core: it maps inbound commands,
// button presses, and free-text replies onto flow transitions and hands
// completed flows to the orchestrator. It is transport-agnostic; rendering
// is the adapter's concern.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/arctis-labs/lumen-bot/internal/errors"
	"github.com/arctis-labs/lumen-bot/internal/flow"
	"github.com/arctis-labs/lumen-bot/internal/idempotency"
	"github.com/arctis-labs/lumen-bot/internal/orchestrator"
	"github.com/arctis-labs/lumen-bot/internal/session"
	"github.com/arctis-labs/lumen-bot/internal/wallet"
	"github.com/arctis-labs/lumen-bot/pkg/metrics"
)

const outcomeCacheTTL = 10 * time.Minute

// Config carries the engine tunables that may be hot-reloaded.
type Config struct {
	DefaultSlippageBps int
	AddressPredicate   flow.AddressPredicate
}

// Engine drives the per-user conversation state machine.
type Engine struct {
	store     session.Store
	pages     *session.PageCache
	orch      *orchestrator.Orchestrator
	balances  wallet.Balances
	directory wallet.Directory
	idem      idempotency.Manager
	errs      *apperrors.Handler
	log       *slog.Logger

	validAddress flow.AddressPredicate

	mu                 sync.RWMutex
	defaultSlippageBps int

	textHandlers map[flow.State]textHandler
}

type textHandler func(ctx context.Context, userID int64, sess *session.Session, text string) *Reply

// New wires an Engine.
func New(
	store session.Store,
	orch *orchestrator.Orchestrator,
	balances wallet.Balances,
	directory wallet.Directory,
	idem idempotency.Manager,
	errs *apperrors.Handler,
	log *slog.Logger,
	cfg Config,
) *Engine {
	if log == nil {
		log = slog.Default()
	}

	if cfg.DefaultSlippageBps <= 0 {
		cfg.DefaultSlippageBps = 100
	}

	if cfg.AddressPredicate == nil {
		cfg.AddressPredicate = flow.DefaultAddressPredicate
	}

	e := &Engine{
		store:              store,
		pages:              session.NewPageCache(store),
		orch:               orch,
		balances:           balances,
		directory:          directory,
		idem:               idem,
		errs:               errs,
		log:                log,
		validAddress:       cfg.AddressPredicate,
		defaultSlippageBps: cfg.DefaultSlippageBps,
	}

	e.textHandlers = map[flow.State]textHandler{
		flow.StateImportSecret:      e.handleImportSecret,
		flow.StateTransferRecipient: e.handleTransferRecipient,
		flow.StateTransferAmount:    e.handleTransferAmount,
		flow.StatePeerRecipient:     e.handlePeerRecipient,
		flow.StatePeerAmount:        e.handlePeerAmount,
		flow.StateTradeAmount:       e.handleTradeAmount,
		flow.StateTradeSlippage:     e.handleTradeSlippage,
		flow.StateEventTitle:        e.handleEventTitle,
		flow.StateEventDescription:  e.handleEventDescription,
		flow.StateEventDate:         e.handleEventDate,
		flow.StateEventVenue:        e.handleEventVenue,
		flow.StateEventPrice:        e.handleEventPrice,
		flow.StateEventImage:        e.handleEventImage,
		flow.StateMintName:          e.handleMintName,
		flow.StateMintSymbol:        e.handleMintSymbol,
		flow.StateMintCategory:      e.handleMintCategory,
		flow.StateMintSupply:        e.handleMintSupply,
		flow.StateMintImage:         e.handleMintImage,
	}

	return e
}

// SetDefaultSlippage swaps the default slippage tolerance, e.g. on config
// reload.
func (e *Engine) SetDefaultSlippage(bps int) {
	if bps < flow.MinSlippageBps || bps > flow.MaxSlippageBps {
		return
	}

	e.mu.Lock()
	e.defaultSlippageBps = bps
	e.mu.Unlock()
}

func (e *Engine) defaultSlippage() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.defaultSlippageBps
}

// HandleCommand processes a slash command. Commands are legal in any state
// and abandon the current flow.
func (e *Engine) HandleCommand(ctx context.Context, userID int64, command string) *Reply {
	switch command {
	case "start", "menu":
		// Returning to the main menu deletes the whole session, caches
		// included.
		if err := e.store.Clear(ctx, userID); err != nil {
			return e.fail(ctx, userID, err)
		}
		return e.mainMenu("What would you like to do?")
	case "cancel":
		return e.cancelFlow(ctx, userID)
	case "assets":
		return e.showAssets(ctx, userID, 0, pickNone)
	case "send":
		return e.startTransfer(ctx, userID)
	case "pay":
		return e.startPeerTransfer(ctx, userID)
	case "trade":
		return e.startTrade(ctx, userID, wallet.NativeSymbol, "USDC", "buy")
	case "import":
		return e.startImport(ctx, userID)
	case "event":
		return e.startEventWizard(ctx, userID)
	case "mint":
		return e.startMintWizard(ctx, userID)
	default:
		return prompt("Unknown command. Use /menu to see what I can do.")
	}
}

// HandleButton processes an inline action token. Tokens are parsed
// defensively: anything malformed gets a generic invalid-action reply.
func (e *Engine) HandleButton(ctx context.Context, userID int64, token string) *Reply {
	unique, data, err := decodeAction(token)
	if err != nil {
		e.log.Warn("malformed action token", slog.Int64("user_id", userID))
		return failure("That action is not valid anymore.")
	}

	switch unique {
	case ActionMenu:
		return e.HandleCommand(ctx, userID, "menu")
	case ActionCancel:
		return e.cancelFlow(ctx, userID)
	case ActionImport:
		return e.startImport(ctx, userID)
	case ActionSend:
		return e.startTransfer(ctx, userID)
	case ActionPay:
		return e.startPeerTransfer(ctx, userID)
	case ActionAssets:
		return e.showAssets(ctx, userID, 0, pickNone)
	case ActionAssetsPage:
		return e.turnAssetPage(ctx, userID, data)
	case ActionAssetsRefresh:
		return e.refreshAssets(ctx, userID)
	case ActionAssetPick:
		return e.pickAsset(ctx, userID, data)
	case ActionTradeBuy:
		return e.startTrade(ctx, userID, wallet.NativeSymbol, data, "buy")
	case ActionTradeSell:
		return e.startTrade(ctx, userID, data, wallet.NativeSymbol, "sell")
	case ActionTradeAmount:
		return e.changeTradeAmount(ctx, userID)
	case ActionTradeSlippage:
		return e.changeTradeSlippage(ctx, userID)
	case ActionTradeRefresh:
		return e.refreshTradeQuote(ctx, userID)
	case ActionConfirm:
		return e.confirm(ctx, userID)
	case ActionEventNew:
		return e.startEventWizard(ctx, userID)
	case ActionMintNew:
		return e.startMintWizard(ctx, userID)
	default:
		return failure("That action is not valid anymore.")
	}
}

// HandleText processes a free-text reply according to the current state.
func (e *Engine) HandleText(ctx context.Context, userID int64, text string) *Reply {
	sess, err := e.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return e.mainMenu("Hi! Pick something to get started.")
		}
		return e.fail(ctx, userID, err)
	}

	if !sess.State.AwaitsText() {
		if sess.State.IsIdle() {
			return e.mainMenu("Pick something to get started.")
		}
		return prompt("Please use the buttons above, or /cancel to abort.")
	}

	handler, ok := e.textHandlers[sess.State]
	if !ok {
		// A stored state this build no longer knows. Reset rather than guess.
		return e.expired(ctx, userID)
	}

	return handler(ctx, userID, sess, text)
}

// transition moves the session to next after checking legality, applying
// patch to flow data inside the same store mutation.
func (e *Engine) transition(ctx context.Context, userID int64, next flow.State, patch func(*session.Session)) (*session.Session, error) {
	var invalid bool
	var from flow.State

	sess, err := e.store.Mutate(ctx, userID, func(sess *session.Session) {
		from = sess.State
		if !flow.IsTransitionAllowed(sess.State, next) {
			invalid = true
			return
		}

		if patch != nil {
			patch(sess)
		}
		sess.State = next
	})
	if err != nil {
		return nil, err
	}

	if invalid {
		e.log.Warn("invalid state transition",
			slog.Int64("user_id", userID),
			slog.String("from", string(from)),
			slog.String("to", string(next)))
		return nil, apperrors.NewSessionExpiredError()
	}

	if !flow.IsRefresh(from, next) {
		metrics.RecordStateTransition(string(from), string(next))
	}

	return sess, nil
}

// enterFlow resets onto the first state of a family with fresh flow data.
func (e *Engine) enterFlow(ctx context.Context, userID int64, first flow.State, patch func(*session.Session)) (*session.Session, error) {
	sess, err := e.store.Mutate(ctx, userID, func(sess *session.Session) {
		sess.EnterFlow(first)
		if patch != nil {
			patch(sess)
		}
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordStateTransition(string(flow.StateIdle), string(first))
	return sess, nil
}

func (e *Engine) cancelFlow(ctx context.Context, userID int64) *Reply {
	if err := e.store.ClearFlow(ctx, userID); err != nil {
		return e.fail(ctx, userID, err)
	}

	return e.mainMenu("Cancelled. Anything else?")
}

// fail routes an error through the central handler and renders the
// user-facing reply. Recoverable errors keep the flow; the rest reset it.
func (e *Engine) fail(ctx context.Context, userID int64, err error) *Reply {
	message, recoverable := e.errs.Handle(ctx, err)
	if !recoverable {
		if clearErr := e.store.ClearFlow(ctx, userID); clearErr != nil {
			e.log.Error("failed to clear flow after error",
				slog.Int64("user_id", userID), slog.Any("error", clearErr))
		}
		return failure(message, row(actionOf("Main menu", ActionMenu, "")))
	}

	return failure(message, row(actionOf("Cancel", ActionCancel, "")))
}

// expired resets the session and tells the user to start over. Entering a
// state whose required flow data is missing must never crash.
func (e *Engine) expired(ctx context.Context, userID int64) *Reply {
	return e.fail(ctx, userID, apperrors.NewSessionExpiredError())
}

func (e *Engine) mainMenu(text string) *Reply {
	return prompt(text,
		row(
			actionOf("Send", ActionSend, ""),
			actionOf("Pay a friend", ActionPay, ""),
		),
		row(
			actionOf("My assets", ActionAssets, ""),
			actionOf("Import wallet", ActionImport, ""),
		),
		row(
			actionOf("Create event", ActionEventNew, ""),
			actionOf("Mint asset", ActionMintNew, ""),
		),
	)
}

// cachedBalance reads the balance of symbol from the cached asset list, if
// that list is present.
func cachedBalance(sess *session.Session, symbol string) (float64, bool) {
	list := sess.List(session.CacheKeyAssets)
	if list == nil {
		return 0, false
	}

	for _, asset := range list.Items {
		if asset.Symbol == symbol {
			balance, err := wallet.ParseAmount(asset.Balance)
			if err != nil {
				return 0, false
			}
			return balance, true
		}
	}

	return 0, false
}
