// Package analytics serves the owner dashboard counters with a short lived
// Redis cache in front of the counting queries.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/waconnect/backend/internal/business"
	"github.com/waconnect/backend/internal/common"
	"github.com/waconnect/backend/internal/tenant"
)

// Summary is the dashboard payload for one business.
type Summary struct {
	ProductsCount   int64   `json:"products_count"`
	TotalBookings   int64   `json:"total_bookings"`
	PendingBookings int64   `json:"pending_bookings"`
	TotalOrders     int64   `json:"total_orders"`
	PendingOrders   int64   `json:"pending_orders"`
	TotalRevenue    float64 `json:"total_revenue"`
}

// Counter runs the counting queries behind a summary.
type Counter interface {
	Summarize(ctx context.Context, businessID string) (Summary, error)
}

// OwnerGuard verifies that a business belongs to the acting user. Satisfied by
// business.Service.
type OwnerGuard interface {
	Get(ctx context.Context, id, userID string) (business.Business, error)
}

// Service provides cached access to per-business dashboard counters.
type Service struct {
	Counts Counter
	Owners OwnerGuard
	R      *redis.Client
	TTL    time.Duration
}

// Summary returns the dashboard counters for a business the user owns.
func (s *Service) Summary(ctx context.Context, businessID, userID string) (Summary, error) {
	if _, err := s.Owners.Get(ctx, businessID, userID); err != nil {
		return Summary{}, err
	}
	key := tenant.PrefixKey(businessID, "analytics:summary")
	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}
	summary, err := s.Counts.Summarize(ctx, businessID)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize analytics: %w", err)
	}
	s.store(ctx, key, summary)
	return summary, nil
}

func (s *Service) fromCache(ctx context.Context, key string) (Summary, bool) {
	if s.R == nil || s.TTL <= 0 {
		return Summary{}, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return Summary{}, false
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return Summary{}, false
	}
	return summary, true
}

func (s *Service) store(ctx context.Context, key string, summary Summary) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}

// PgCounter runs the summary queries against Postgres.
type PgCounter struct {
	Pool *pgxpool.Pool
}

// Summarize counts products, bookings, and orders and sums order revenue for
// one business in a single round trip.
func (c *PgCounter) Summarize(ctx context.Context, businessID string) (Summary, error) {
	row := c.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products WHERE business_id = $1),
			(SELECT COUNT(*) FROM bookings WHERE business_id = $1),
			(SELECT COUNT(*) FROM bookings WHERE business_id = $1 AND status = 'pending'),
			(SELECT COUNT(*) FROM orders WHERE business_id = $1),
			(SELECT COUNT(*) FROM orders WHERE business_id = $1 AND status = 'pending'),
			(SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE business_id = $1)`,
		businessID)
	var s Summary
	err := row.Scan(&s.ProductsCount, &s.TotalBookings, &s.PendingBookings,
		&s.TotalOrders, &s.PendingOrders, &s.TotalRevenue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Summary{}, common.NewAppError("NOT_FOUND", "business not found", http.StatusNotFound, err)
		}
		return Summary{}, err
	}
	return s, nil
}
