package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arctis-labs/lumen-bot/internal/flow"
	"github.com/arctis-labs/lumen-bot/internal/session"
)

// The creation wizards are strictly ordered field chains. Each handler
// validates its field, patches the draft, and advances; the final field's
// submission invokes the create operation instead of advancing.

func (e *Engine) startEventWizard(ctx context.Context, userID int64) *Reply {
	if _, err := e.enterFlow(ctx, userID, flow.StateEventTitle, nil); err != nil {
		return e.fail(ctx, userID, err)
	}

	return prompt("Let's create an event. What's the title?",
		row(actionOf("Cancel", ActionCancel, "")))
}

func (e *Engine) handleEventTitle(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	title, err := flow.ValidateTitle(text)
	if err != nil {
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	return e.eventStep(ctx, userID, sess, flow.StateEventDescription,
		func(data *flow.EventData) { data.Draft.Title = title },
		"Great. Now a short description:")
}

func (e *Engine) handleEventDescription(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	description, err := flow.ValidateDescription(text)
	if err != nil {
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	return e.eventStep(ctx, userID, sess, flow.StateEventDate,
		func(data *flow.EventData) { data.Draft.Description = description },
		"When does it start? (YYYY-MM-DD HH:MM)")
}

func (e *Engine) handleEventDate(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	startsAt, err := flow.ValidateFutureDate(text, time.Now())
	if err != nil {
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	return e.eventStep(ctx, userID, sess, flow.StateEventVenue,
		func(data *flow.EventData) { data.Draft.StartsAt = startsAt.Format("2006-01-02 15:04") },
		"Where is it held?")
}

func (e *Engine) handleEventVenue(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	venue, err := flow.ValidateTitle(text)
	if err != nil {
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	return e.eventStep(ctx, userID, sess, flow.StateEventPrice,
		func(data *flow.EventData) { data.Draft.Venue = venue },
		"Ticket price? (0 for free)")
}

func (e *Engine) handleEventPrice(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	price, err := flow.ValidatePrice(text)
	if err != nil {
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	return e.eventStep(ctx, userID, sess, flow.StateEventImage,
		func(data *flow.EventData) { data.Draft.TicketPrice = price },
		"Last one: an image link, or 'skip'.")
}

func (e *Engine) handleEventImage(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	data, ok := sess.Flow.(*flow.EventData)
	if !ok {
		return e.expired(ctx, userID)
	}

	imageURL, err := flow.ValidateImageURL(text)
	if err != nil {
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	draft := data.Draft
	draft.ImageURL = imageURL

	outcome, err := e.orch.CreateEvent(ctx, userID, draft)
	if err != nil {
		return e.fail(ctx, userID, err)
	}

	if clearErr := e.store.ClearFlow(ctx, userID); clearErr != nil {
		return e.fail(ctx, userID, clearErr)
	}

	message := fmt.Sprintf("Event %q created. Ticket collection: %s", draft.Title, outcome.ReferenceID)
	if outcome.ViewerLink != "" {
		message += "\n" + outcome.ViewerLink
	}

	return success(message, outcome, row(actionOf("Main menu", ActionMenu, "")))
}

func (e *Engine) startMintWizard(ctx context.Context, userID int64) *Reply {
	if _, err := e.enterFlow(ctx, userID, flow.StateMintName, nil); err != nil {
		return e.fail(ctx, userID, err)
	}

	return prompt("Let's mint a custom asset. What's its name?",
		row(actionOf("Cancel", ActionCancel, "")))
}

func (e *Engine) handleMintName(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	name, err := flow.ValidateTitle(text)
	if err != nil {
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	return e.mintStep(ctx, userID, sess, flow.StateMintSymbol,
		func(data *flow.MintData) { data.Draft.Name = name },
		"Ticker symbol? (2-10 uppercase letters or digits)")
}

func (e *Engine) handleMintSymbol(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	symbol, err := flow.ValidateSymbol(text)
	if err != nil {
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	return e.mintStep(ctx, userID, sess, flow.StateMintCategory,
		func(data *flow.MintData) { data.Draft.Symbol = symbol },
		"Category? One of: "+strings.Join(flow.Categories(), ", "))
}

func (e *Engine) handleMintCategory(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	category, err := flow.ValidateCategory(text)
	if err != nil {
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	return e.mintStep(ctx, userID, sess, flow.StateMintSupply,
		func(data *flow.MintData) { data.Draft.Category = category },
		"Total supply?")
}

func (e *Engine) handleMintSupply(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	supply, err := flow.ValidateSupply(text)
	if err != nil {
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	return e.mintStep(ctx, userID, sess, flow.StateMintImage,
		func(data *flow.MintData) { data.Draft.Supply = supply },
		"And an image link, or 'skip'.")
}

func (e *Engine) handleMintImage(ctx context.Context, userID int64, sess *session.Session, text string) *Reply {
	data, ok := sess.Flow.(*flow.MintData)
	if !ok {
		return e.expired(ctx, userID)
	}

	imageURL, err := flow.ValidateImageURL(text)
	if err != nil {
		return failure(err.Error(), row(actionOf("Cancel", ActionCancel, "")))
	}

	draft := data.Draft
	draft.ImageURL = imageURL

	outcome, err := e.orch.MintAsset(ctx, userID, draft)
	if err != nil {
		return e.fail(ctx, userID, err)
	}

	if clearErr := e.store.ClearFlow(ctx, userID); clearErr != nil {
		return e.fail(ctx, userID, clearErr)
	}

	// Newly minted assets belong in the next asset listing.
	if invErr := e.pages.Invalidate(ctx, userID, session.CacheKeyAssets); invErr != nil {
		return e.fail(ctx, userID, invErr)
	}

	message := fmt.Sprintf("Minted %s (%s), supply %d.", draft.Name, draft.Symbol, draft.Supply)
	if outcome.ViewerLink != "" {
		message += "\n" + outcome.ViewerLink
	}

	return success(message, outcome, row(actionOf("Main menu", ActionMenu, "")))
}

func (e *Engine) eventStep(
	ctx context.Context,
	userID int64,
	sess *session.Session,
	next flow.State,
	apply func(*flow.EventData),
	nextPrompt string,
) *Reply {
	if _, ok := sess.Flow.(*flow.EventData); !ok {
		return e.expired(ctx, userID)
	}

	if _, err := e.transition(ctx, userID, next, func(sess *session.Session) {
		if data, ok := sess.Flow.(*flow.EventData); ok {
			apply(data)
		}
	}); err != nil {
		return e.fail(ctx, userID, err)
	}

	return prompt(nextPrompt, row(actionOf("Cancel", ActionCancel, "")))
}

func (e *Engine) mintStep(
	ctx context.Context,
	userID int64,
	sess *session.Session,
	next flow.State,
	apply func(*flow.MintData),
	nextPrompt string,
) *Reply {
	if _, ok := sess.Flow.(*flow.MintData); !ok {
		return e.expired(ctx, userID)
	}

	if _, err := e.transition(ctx, userID, next, func(sess *session.Session) {
		if data, ok := sess.Flow.(*flow.MintData); ok {
			apply(data)
		}
	}); err != nil {
		return e.fail(ctx, userID, err)
	}

	return prompt(nextPrompt, row(actionOf("Cancel", ActionCancel, "")))
}
