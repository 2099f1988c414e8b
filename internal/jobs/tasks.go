// Package jobs carries asynchronous work through Redis-backed queues.
// Post-execution notifications are enqueued here so a Telegram hiccup never
// delays or fails a completed transaction.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeNotify = "notify:user"
)

const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// NotifyPayload is the body of a user notification task.
type NotifyPayload struct {
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

// NewNotifyTask builds a notification task with bounded retries; a
// notification that cannot be delivered within an hour is stale anyway.
func NewNotifyTask(userID int64, message string) (*asynq.Task, error) {
	payload, err := json.Marshal(NotifyPayload{UserID: userID, Message: message})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeNotify, payload,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(5),
		asynq.Retention(time.Hour),
	), nil
}
