// Package middleware holds telebot update middlewares shared by the bot
// transport: panic recovery, telemetry, and rate limiting.
package middleware

import (
	"log/slog"
	"runtime/debug"

	telebot "gopkg.in/telebot.v3"
)

// Recovery converts handler panics into a logged apology instead of
// taking down the poller goroutine.
func Recovery(log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in update handler",
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
					)

					if c != nil {
						if sendErr := c.Send("Something went wrong. Please try again."); sendErr != nil {
							log.Error("failed to notify user after panic", slog.Any("error", sendErr))
						}
					}
					err = nil
				}
			}()

			return next(c)
		}
	}
}
