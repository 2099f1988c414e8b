package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	telebot "gopkg.in/telebot.v3"
)

// Sender is the slice of telebot the worker needs to deliver messages.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Worker processes queued tasks. Run blocks; Shutdown drains in-flight
// handlers.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *slog.Logger
}

// NewWorker builds the task worker. Notifications go through sender.
func NewWorker(redisOpt asynq.RedisConnOpt, sender Sender, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 3,
			QueueLow:     1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeNotify, notifyHandler(sender, log))

	return &Worker{server: server, mux: mux, log: log}
}

// Run starts the processing loop.
func (w *Worker) Run() error {
	w.log.Info("notification worker starting")
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully.
func (w *Worker) Shutdown() {
	w.log.Info("notification worker shutting down")
	w.server.Shutdown()
}

func notifyHandler(sender Sender, log *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload NotifyPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			// Malformed payloads never become deliverable; don't retry.
			return fmt.Errorf("decode notify payload: %v: %w", err, asynq.SkipRetry)
		}

		if _, err := sender.Send(&telebot.User{ID: payload.UserID}, payload.Message); err != nil {
			log.Warn("notification delivery failed, will retry",
				slog.Int64("user_id", payload.UserID),
				slog.Any("error", err),
			)
			return err
		}

		return nil
	}
}
