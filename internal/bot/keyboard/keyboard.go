// Package keyboard renders engine action rows as Telegram inline keyboards.
package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/arctis-labs/lumen-bot/internal/engine"
)

// Markup converts action rows into an inline keyboard. Rows that end up
// empty are dropped; a reply without actions returns nil so the transport
// sends a plain message.
func Markup(rows [][]engine.Action) *telebot.ReplyMarkup {
	keyboard := make([][]telebot.InlineButton, 0, len(rows))

	for _, actions := range rows {
		row := make([]telebot.InlineButton, 0, len(actions))
		for _, action := range actions {
			if action.Label == "" || action.Token == "" {
				continue
			}
			row = append(row, telebot.InlineButton{
				Text: action.Label,
				Data: action.Token,
			})
		}
		if len(row) > 0 {
			keyboard = append(keyboard, row)
		}
	}

	if len(keyboard) == 0 {
		return nil
	}

	return &telebot.ReplyMarkup{InlineKeyboard: keyboard}
}
