package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/arctis-labs/lumen-bot/internal/ratelimit"
)

// RateLimitRules configures the per-user update limit.
type RateLimitRules struct {
	PerUser   int
	Window    time.Duration
	Whitelist []int64
}

func (r RateLimitRules) whitelisted(userID int64) bool {
	for _, id := range r.Whitelist {
		if id == userID {
			return true
		}
	}
	return false
}

// RateLimit enforces a per-user sliding-window limit on incoming updates.
// Limiter failures fail open: a broken Redis must not silence the bot.
func RateLimit(limiter ratelimit.Limiter, rules RateLimitRules, log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			if limiter == nil || rules.PerUser <= 0 || rules.Window <= 0 {
				return next(c)
			}

			sender := c.Sender()
			if sender == nil || rules.whitelisted(sender.ID) {
				return next(c)
			}

			key := fmt.Sprintf("user:%d", sender.ID)
			decision, err := limiter.Check(context.Background(), key, rules.PerUser, rules.Window)
			switch {
			case errors.Is(err, ratelimit.ErrLimitExceeded):
				log.Warn("rate limit exceeded", slog.Int64("user_id", sender.ID))
				return c.Send("You're sending messages too quickly. Give it a moment.")
			case err != nil:
				log.Warn("rate limiter unavailable", slog.Int64("user_id", sender.ID), slog.Any("error", err))
				return next(c)
			case decision != nil && !decision.Allowed:
				return c.Send("You're sending messages too quickly. Give it a moment.")
			default:
				return next(c)
			}
		}
	}
}
