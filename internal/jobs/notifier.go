package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// QueueNotifier enqueues user notifications for the background worker.
// It satisfies the orchestrator's notifier dependency.
type QueueNotifier struct {
	client *asynq.Client
	log    *slog.Logger
}

// NewQueueNotifier builds a notifier backed by an asynq client.
func NewQueueNotifier(redisOpt asynq.RedisConnOpt, log *slog.Logger) *QueueNotifier {
	if log == nil {
		log = slog.Default()
	}

	return &QueueNotifier{
		client: asynq.NewClient(redisOpt),
		log:    log,
	}
}

// NotifyUser enqueues the message for delivery.
func (n *QueueNotifier) NotifyUser(ctx context.Context, userID int64, message string) error {
	task, err := NewNotifyTask(userID, message)
	if err != nil {
		return err
	}

	info, err := n.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	n.log.Debug("notification enqueued",
		slog.Int64("user_id", userID),
		slog.String("task_id", info.ID),
	)
	return nil
}

// Close releases the underlying queue connection.
func (n *QueueNotifier) Close() error {
	return n.client.Close()
}
