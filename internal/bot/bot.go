// Package bot adapts Telegram updates to the conversation engine. It owns
// the telebot instance, the middleware chain, and reply rendering; all
// conversational logic lives in internal/engine.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/arctis-labs/lumen-bot/internal/engine"
	"github.com/arctis-labs/lumen-bot/pkg/config"
	"github.com/arctis-labs/lumen-bot/pkg/logger"
)

// commands maps Telegram command strings to engine command names.
var commands = map[string]string{
	"/start":  "start",
	"/menu":   "menu",
	"/cancel": "cancel",
	"/assets": "assets",
	"/send":   "send",
	"/pay":    "pay",
	"/trade":  "trade",
	"/import": "import",
	"/event":  "event",
	"/mint":   "mint",
}

// Bot wires telebot to the conversation engine.
type Bot struct {
	tb     *telebot.Bot
	engine *engine.Engine
	log    *slog.Logger
}

// New builds the bot from configuration. Poller mode follows cfg.Bot.Mode.
func New(cfg config.Config, eng *engine.Engine, log *slog.Logger, middlewares ...telebot.MiddlewareFunc) (*Bot, error) {
	settings := telebot.Settings{Token: cfg.Bot.Token}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{Listen: cfg.Server.Port}
	} else {
		settings.Poller = &telebot.LongPoller{Timeout: cfg.Bot.Timeout}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := &Bot{tb: tb, engine: eng, log: log}

	tb.Use(middlewares...)
	b.register()

	return b, nil
}

// Start runs the update loop until Stop is called.
func (b *Bot) Start() {
	b.tb.Start()
}

// Stop shuts the poller down.
func (b *Bot) Stop() {
	b.log.Info("stopping telegram bot")
	b.tb.Stop()
}

// Telebot exposes the underlying instance for health checks and the
// notification worker.
func (b *Bot) Telebot() *telebot.Bot {
	return b.tb
}

func (b *Bot) register() {
	for command, name := range commands {
		name := name
		b.tb.Handle(command, func(c telebot.Context) error {
			return b.handle(c, func(ctx context.Context, userID int64) *engine.Reply {
				return b.engine.HandleCommand(ctx, userID, name)
			})
		})
	}

	b.tb.Handle(telebot.OnText, func(c telebot.Context) error {
		return b.handle(c, func(ctx context.Context, userID int64) *engine.Reply {
			return b.engine.HandleText(ctx, userID, c.Text())
		})
	})

	b.tb.Handle(telebot.OnCallback, func(c telebot.Context) error {
		token := callbackData(c)
		return b.handle(c, func(ctx context.Context, userID int64) *engine.Reply {
			return b.engine.HandleButton(ctx, userID, token)
		})
	})
}

func (b *Bot) handle(c telebot.Context, fn func(context.Context, int64) *engine.Reply) error {
	sender := c.Sender()
	if sender == nil {
		b.log.Warn("update without sender dropped")
		return nil
	}

	ctx := logger.WithCorrelationID(context.Background())
	reply := fn(ctx, sender.ID)

	return b.render(c, reply)
}
