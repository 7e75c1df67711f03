package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/waconnect/backend/internal/business"
	"github.com/waconnect/backend/internal/events"
	"github.com/waconnect/backend/internal/order"
	"github.com/waconnect/backend/internal/pricing"
	"github.com/waconnect/backend/internal/resilience"
)

func TestClientSendText(t *testing.T) {
	var got textMessage
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v19.0/12345/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &Client{
		BaseURL: srv.URL + "/v19.0/12345",
		Token:   "secret-token",
		HTTP:    resilience.HTTPClient{Client: srv.Client(), MaxAttempts: 1},
	}
	err := client.SendText(context.Background(), "+91 98765 43210", "New booking request")
	require.NoError(t, err)
	require.Equal(t, "Bearer secret-token", auth)
	require.Equal(t, "whatsapp", got.MessagingProduct)
	require.Equal(t, "919876543210", got.To)
	require.Equal(t, "New booking request", got.Text.Body)
}

func TestClientSendTextServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := &Client{
		BaseURL: srv.URL,
		HTTP:    resilience.HTTPClient{Client: srv.Client(), MaxAttempts: 1},
	}
	err := client.SendText(context.Background(), "919876543210", "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "400")
}

type captureEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (c *captureEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.tasks = append(c.tasks, task)
	return &asynq.TaskInfo{}, nil
}

type stubDirectory struct {
	biz business.Business
	err error
}

func (s stubDirectory) GetByID(_ context.Context, _ string) (business.Business, error) {
	if s.err != nil {
		return business.Business{}, s.err
	}
	return s.biz, nil
}

func orderEvent(t *testing.T) events.Event {
	t.Helper()
	o := order.Order{
		ID:            "order-1",
		BusinessID:    "biz-1",
		CustomerName:  "Ravi",
		CustomerPhone: "+91 91234 56789",
		Items:         []pricing.Line{{ProductID: "prod-1", Name: "Kaju Katli", UnitPrice: 150, Qty: 2}},
		Subtotal:      300,
		Tax:           54,
		TotalAmount:   354,
	}
	payload, err := json.Marshal(o)
	require.NoError(t, err)
	return events.Event{ID: "event-1", Topic: events.TopicOrderCreated, BusinessID: "biz-1", Payload: payload}
}

func TestDispatcherQueuesOrderNotification(t *testing.T) {
	enqueuer := &captureEnqueuer{}
	d := &Dispatcher{
		Enqueuer:   enqueuer,
		Businesses: stubDirectory{biz: business.Business{ID: "biz-1", WhatsAppNumber: "+919876543210", WhatsAppAPIEnabled: true}},
		Enabled:    true,
		Log:        zerolog.Nop(),
	}

	require.NoError(t, d.Notify(context.Background(), orderEvent(t)))
	require.Len(t, enqueuer.tasks, 1)

	var m MessageTask
	require.NoError(t, json.Unmarshal(enqueuer.tasks[0].Payload(), &m))
	require.Equal(t, "event-1", m.EventID)
	require.Equal(t, "+919876543210", m.To)
	require.Contains(t, m.Body, "New order from Ravi:")
	require.Contains(t, m.Body, "2x Kaju Katli - ₹150")
	require.Contains(t, m.Body, "Total: ₹354.00")
}

func TestDispatcherSkipsWhenAPIDisabled(t *testing.T) {
	enqueuer := &captureEnqueuer{}
	d := &Dispatcher{
		Enqueuer:   enqueuer,
		Businesses: stubDirectory{biz: business.Business{ID: "biz-1", WhatsAppNumber: "+919876543210"}},
		Enabled:    true,
		Log:        zerolog.Nop(),
	}
	require.NoError(t, d.Notify(context.Background(), orderEvent(t)))
	require.Empty(t, enqueuer.tasks)
}

func TestDispatcherIgnoresOtherTopics(t *testing.T) {
	enqueuer := &captureEnqueuer{}
	d := &Dispatcher{
		Enqueuer:   enqueuer,
		Businesses: stubDirectory{biz: business.Business{ID: "biz-1", WhatsAppAPIEnabled: true, WhatsAppNumber: "1"}},
		Enabled:    true,
		Log:        zerolog.Nop(),
	}
	ev := events.Event{ID: "event-2", Topic: events.TopicBusinessUpdated, BusinessID: "biz-1", Payload: []byte(`{}`)}
	require.NoError(t, d.Notify(context.Background(), ev))
	require.Empty(t, enqueuer.tasks)
}

func TestDispatcherMissingBusiness(t *testing.T) {
	d := &Dispatcher{
		Enqueuer:   &captureEnqueuer{},
		Businesses: stubDirectory{err: pgx.ErrNoRows},
		Enabled:    true,
		Log:        zerolog.Nop(),
	}
	require.NoError(t, d.Notify(context.Background(), orderEvent(t)))
}

type stubSender struct {
	calls int
	err   error
	last  [2]string
}

func (s *stubSender) SendText(_ context.Context, to, body string) error {
	s.calls++
	s.last = [2]string{to, body}
	return s.err
}

func TestWorkerHandleMessage(t *testing.T) {
	sender := &stubSender{}
	w := &Worker{Client: sender, Log: zerolog.Nop()}

	payload, err := json.Marshal(MessageTask{EventID: "event-1", To: "919876543210", Body: "hello"})
	require.NoError(t, err)
	require.NoError(t, w.HandleMessage(context.Background(), asynq.NewTask(TypeWhatsAppMessage, payload)))
	require.Equal(t, 1, sender.calls)
	require.Equal(t, "919876543210", sender.last[0])

	sender.err = errors.New("api down")
	require.Error(t, w.HandleMessage(context.Background(), asynq.NewTask(TypeWhatsAppMessage, payload)))
}

func TestWorkerSkipsMalformedPayload(t *testing.T) {
	w := &Worker{Client: &stubSender{}, Log: zerolog.Nop()}
	err := w.HandleMessage(context.Background(), asynq.NewTask(TypeWhatsAppMessage, []byte("{not json")))
	require.Error(t, err)
	require.True(t, errors.Is(err, asynq.SkipRetry))
}
