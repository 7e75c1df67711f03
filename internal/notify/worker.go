package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/waconnect/backend/internal/obs"
)

// Sender delivers one text message. Satisfied by Client.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// Worker consumes queued notifications and pushes them through the Cloud API.
type Worker struct {
	Client Sender
	Log    zerolog.Logger
}

// Register mounts the worker on an asynq mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeWhatsAppMessage, w.HandleMessage)
}

// HandleMessage processes one queued WhatsApp notification. Errors bubble up
// so asynq retries with its own backoff.
func (w *Worker) HandleMessage(ctx context.Context, t *asynq.Task) error {
	if w.Client == nil {
		return errors.New("notify: worker client not configured")
	}
	var m MessageTask
	if err := json.Unmarshal(t.Payload(), &m); err != nil {
		// Malformed payloads never become valid; drop instead of retrying.
		return fmt.Errorf("notify: decode task: %v: %w", err, asynq.SkipRetry)
	}

	start := time.Now()
	err := w.Client.SendText(ctx, m.To, m.Body)
	result := "ok"
	if err != nil {
		result = "failed"
	}
	if obs.NotifyDeliveriesTotal != nil {
		obs.NotifyDeliveriesTotal.WithLabelValues(result).Inc()
	}
	if obs.NotifyAttemptLatency != nil {
		obs.NotifyAttemptLatency.WithLabelValues(result).Observe(obs.DurationMillis(time.Since(start)))
	}
	if err != nil {
		w.Log.Warn().Err(err).Str("topic", m.Topic).Str("business_id", m.BusinessID).Msg("notification delivery failed")
		return err
	}
	return nil
}
