package analytics

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/waconnect/backend/internal/business"
	"github.com/waconnect/backend/internal/common"
)

type fakeCounter struct {
	summary Summary
	calls   int
}

func (f *fakeCounter) Summarize(_ context.Context, _ string) (Summary, error) {
	f.calls++
	return f.summary, nil
}

type fakeGuard struct {
	owner string
}

func (g fakeGuard) Get(_ context.Context, id, userID string) (business.Business, error) {
	if userID != g.owner {
		return business.Business{}, common.NewAppError("NOT_FOUND", "business not found", http.StatusNotFound, nil)
	}
	return business.Business{ID: id, UserID: userID}, nil
}

func newTestService(t *testing.T) (*Service, *fakeCounter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	counter := &fakeCounter{summary: Summary{
		ProductsCount:   12,
		TotalBookings:   7,
		PendingBookings: 3,
		TotalOrders:     20,
		PendingOrders:   5,
		TotalRevenue:    15400.50,
	}}
	return &Service{
		Counts: counter,
		Owners: fakeGuard{owner: "user-1"},
		R:      client,
		TTL:    time.Minute,
	}, counter
}

func TestSummary(t *testing.T) {
	svc, counter := newTestService(t)
	got, err := svc.Summary(context.Background(), "biz-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, counter.summary, got)
}

func TestSummaryServedFromCache(t *testing.T) {
	svc, counter := newTestService(t)
	first, err := svc.Summary(context.Background(), "biz-1", "user-1")
	require.NoError(t, err)

	counter.summary.TotalOrders = 999
	second, err := svc.Summary(context.Background(), "biz-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, first, second, "second read comes from cache")
	require.Equal(t, 1, counter.calls)
}

func TestSummaryRequiresOwnership(t *testing.T) {
	svc, counter := newTestService(t)
	_, err := svc.Summary(context.Background(), "biz-1", "intruder")

	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "NOT_FOUND", appErr.Code)
	require.Zero(t, counter.calls)
}
