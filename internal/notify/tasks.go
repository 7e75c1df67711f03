package notify

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeWhatsAppMessage is the asynq task type for owner notifications.
const TypeWhatsAppMessage = "notify:whatsapp"

// QueueName is the asynq queue notifications are routed to.
const QueueName = "notify"

// MessageTask is the payload of one queued WhatsApp notification.
type MessageTask struct {
	EventID    string `json:"event_id"`
	BusinessID string `json:"business_id"`
	Topic      string `json:"topic"`
	To         string `json:"to"`
	Body       string `json:"body"`
}

// NewMessageTask wraps the payload in an asynq task. The event id doubles as
// the task id so a re-emitted event cannot fan out twice.
func NewMessageTask(m MessageTask) (*asynq.Task, []asynq.Option, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, nil, fmt.Errorf("notify: encode task: %w", err)
	}
	opts := []asynq.Option{
		asynq.Queue(QueueName),
		asynq.TaskID("notify:" + m.EventID),
		asynq.MaxRetry(5),
	}
	return asynq.NewTask(TypeWhatsAppMessage, payload), opts, nil
}
