// Package order handles public order submission with server side repricing,
// delivery evaluation, and the owner order queue.
package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/waconnect/backend/internal/pricing"
)

// Order is one submitted order. Items and totals are computed server side from
// the catalog; the client payload only carries product ids and quantities.
type Order struct {
	ID              string         `json:"id"`
	BusinessID      string         `json:"business_id"`
	CustomerName    string         `json:"customer_name"`
	CustomerPhone   string         `json:"customer_phone"`
	CustomerAddress string         `json:"customer_address,omitempty"`
	Items           []pricing.Line `json:"items"`
	Subtotal        float64        `json:"subtotal"`
	Tax             float64        `json:"tax"`
	DeliveryCharge  float64        `json:"delivery_charge"`
	TotalAmount     float64        `json:"total_amount"`
	DistanceKm      *float64       `json:"distance_km,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	Status          string         `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
}

const orderColumns = `id::text, business_id::text, customer_name, customer_phone,
	COALESCE(customer_address, ''), items, subtotal, tax, delivery_charge,
	total_amount, distance_km, COALESCE(notes, ''), status, created_at`

// Store persists orders in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var items []byte
	err := row.Scan(&o.ID, &o.BusinessID, &o.CustomerName, &o.CustomerPhone,
		&o.CustomerAddress, &items, &o.Subtotal, &o.Tax, &o.DeliveryCharge,
		&o.TotalAmount, &o.DistanceKm, &o.Notes, &o.Status, &o.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	o.Items = []pricing.Line{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return Order{}, fmt.Errorf("decode items: %w", err)
		}
	}
	return o, nil
}

// Create inserts an order and returns the stored row.
func (s *Store) Create(ctx context.Context, o Order) (Order, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return Order{}, fmt.Errorf("encode items: %w", err)
	}
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO orders (business_id, customer_name, customer_phone, customer_address,
			items, subtotal, tax, delivery_charge, total_amount, distance_km, notes, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12)
		RETURNING `+orderColumns,
		o.BusinessID, o.CustomerName, o.CustomerPhone, o.CustomerAddress,
		items, o.Subtotal, o.Tax, o.DeliveryCharge, o.TotalAmount, o.DistanceKm, o.Notes, o.Status)
	return scanOrder(row)
}

// ListByBusiness returns the orders of a business, newest first.
func (s *Store) ListByBusiness(ctx context.Context, businessID string, limit int) ([]Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE business_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, businessID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateStatus transitions an order scoped to a business.
func (s *Store) UpdateStatus(ctx context.Context, id, businessID, status string) (Order, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE orders
		SET status = $1
		WHERE id = $2 AND business_id = $3
		RETURNING `+orderColumns, status, id, businessID)
	return scanOrder(row)
}
