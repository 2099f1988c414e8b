package middleware

import (
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/arctis-labs/lumen-bot/pkg/metrics"
)

// Telemetry logs every update and reports its duration and status to
// Prometheus, labelled by update kind.
func Telemetry(log *slog.Logger) telebot.MiddlewareFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			start := time.Now()
			kind := updateKind(c)
			userID := senderID(c)

			err := next(c)

			status := "ok"
			if err != nil {
				status = "error"
			}
			metrics.RecordUpdate(kind, status, time.Since(start))

			log.Info("handled update",
				slog.Int64("user_id", userID),
				slog.String("kind", kind),
				slog.String("status", status),
				slog.Duration("duration", time.Since(start)),
			)

			return err
		}
	}
}

func updateKind(c telebot.Context) string {
	switch {
	case c == nil:
		return "unknown"
	case c.Callback() != nil:
		return "button"
	case len(c.Text()) > 0 && c.Text()[0] == '/':
		return "command"
	default:
		return "text"
	}
}

func senderID(c telebot.Context) int64 {
	if c == nil || c.Sender() == nil {
		return 0
	}
	return c.Sender().ID
}
