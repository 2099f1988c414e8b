package bot

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/arctis-labs/lumen-bot/internal/bot/keyboard"
	"github.com/arctis-labs/lumen-bot/internal/engine"
)

// render delivers an engine reply. Button presses edit the originating
// message in place so the chat doesn't fill up with stale menus; text and
// commands get a fresh message.
func (b *Bot) render(c telebot.Context, reply *engine.Reply) error {
	if reply == nil {
		return nil
	}

	markup := keyboard.Markup(reply.Actions)

	if cb := c.Callback(); cb != nil {
		if err := c.Respond(&telebot.CallbackResponse{}); err != nil {
			b.log.Debug("callback ack failed", slog.Any("error", err))
		}

		if err := c.Edit(reply.Text, markup); err == nil {
			return nil
		}
		// Edits fail on aged or unmodified messages; fall through to a
		// fresh send so the user always gets the reply.
	}

	if markup != nil {
		return c.Send(reply.Text, markup)
	}
	return c.Send(reply.Text)
}

func callbackData(c telebot.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}

	data := cb.Data
	// telebot prefixes callback data with "\f" for its own unique-button
	// routing; strip it so the token codec sees the raw payload.
	if len(data) > 0 && data[0] == '\f' {
		data = data[1:]
	}
	return data
}
