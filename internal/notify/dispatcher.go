package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/waconnect/backend/internal/booking"
	"github.com/waconnect/backend/internal/business"
	"github.com/waconnect/backend/internal/events"
	"github.com/waconnect/backend/internal/obs"
	"github.com/waconnect/backend/internal/order"
	"github.com/waconnect/backend/internal/pricing"
	"github.com/waconnect/backend/internal/wa"
)

// TaskEnqueuer is the slice of asynq.Client the dispatcher needs.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// BusinessDirectory resolves the business an event belongs to.
type BusinessDirectory interface {
	GetByID(ctx context.Context, id string) (business.Business, error)
}

// Dispatcher subscribes to the event bus and queues WhatsApp notifications for
// businesses that opted into API delivery. Businesses without the API flag
// rely on the deep links embedded in the storefront responses instead.
type Dispatcher struct {
	Enqueuer   TaskEnqueuer
	Businesses BusinessDirectory
	Enabled    bool
	Log        zerolog.Logger
}

// Notify implements events.Notifier.
func (d *Dispatcher) Notify(ctx context.Context, event events.Event) error {
	if d == nil || !d.Enabled || d.Enqueuer == nil {
		return nil
	}
	if event.Topic != events.TopicOrderCreated && event.Topic != events.TopicBookingCreated {
		return nil
	}
	if obs.NotifyDispatchAttempts != nil {
		obs.NotifyDispatchAttempts.Inc()
	}

	biz, err := d.Businesses.GetByID(ctx, event.BusinessID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("notify: resolve business: %w", err)
	}
	if !biz.WhatsAppAPIEnabled || biz.WhatsAppNumber == "" {
		return nil
	}

	body, err := renderBody(event)
	if err != nil {
		return err
	}
	task, opts, err := NewMessageTask(MessageTask{
		EventID:    event.ID,
		BusinessID: event.BusinessID,
		Topic:      event.Topic,
		To:         biz.WhatsAppNumber,
		Body:       body,
	})
	if err != nil {
		return err
	}
	if _, err := d.Enqueuer.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("notify: enqueue: %w", err)
	}
	d.Log.Debug().Str("topic", event.Topic).Str("business_id", event.BusinessID).Msg("notification queued")
	return nil
}

func renderBody(event events.Event) (string, error) {
	switch event.Topic {
	case events.TopicOrderCreated:
		var o order.Order
		if err := json.Unmarshal(event.Payload, &o); err != nil {
			return "", fmt.Errorf("notify: decode order payload: %w", err)
		}
		totals := pricing.Totals{Subtotal: o.Subtotal, Tax: o.Tax, Delivery: o.DeliveryCharge, Total: o.TotalAmount}
		return wa.OrderMessage(o.CustomerName, o.Items, totals, o.CustomerPhone, o.CustomerAddress), nil
	case events.TopicBookingCreated:
		var b booking.Booking
		if err := json.Unmarshal(event.Payload, &b); err != nil {
			return "", fmt.Errorf("notify: decode booking payload: %w", err)
		}
		return wa.BookingMessage(b.CustomerName, b.ServiceType, b.PreferredDate, b.PreferredTime), nil
	default:
		return "", fmt.Errorf("notify: unsupported topic %s", event.Topic)
	}
}
