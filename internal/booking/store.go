// Package booking handles appointment requests placed by storefront visitors
// against service businesses.
package booking

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Booking is one appointment request. Preferred date and time are kept as the
// customer typed them; the owner confirms over WhatsApp.
type Booking struct {
	ID            string    `json:"id"`
	BusinessID    string    `json:"business_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	ServiceType   string    `json:"service_type"`
	PreferredDate string    `json:"preferred_date"`
	PreferredTime string    `json:"preferred_time"`
	Notes         string    `json:"notes,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

const bookingColumns = `id::text, business_id::text, customer_name, customer_phone,
	COALESCE(customer_email, ''), service_type, preferred_date, preferred_time,
	COALESCE(notes, ''), status, created_at`

// Store persists bookings in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

func scanBooking(row pgx.Row) (Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.BusinessID, &b.CustomerName, &b.CustomerPhone,
		&b.CustomerEmail, &b.ServiceType, &b.PreferredDate, &b.PreferredTime,
		&b.Notes, &b.Status, &b.CreatedAt)
	if err != nil {
		return Booking{}, err
	}
	return b, nil
}

// Create inserts a booking and returns the stored row.
func (s *Store) Create(ctx context.Context, b Booking) (Booking, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO bookings (business_id, customer_name, customer_phone, customer_email,
			service_type, preferred_date, preferred_time, notes, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), $9)
		RETURNING `+bookingColumns,
		b.BusinessID, b.CustomerName, b.CustomerPhone, b.CustomerEmail,
		b.ServiceType, b.PreferredDate, b.PreferredTime, b.Notes, b.Status)
	return scanBooking(row)
}

// ListByBusiness returns the bookings of a business, newest first.
func (s *Store) ListByBusiness(ctx context.Context, businessID string, limit int) ([]Booking, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE business_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, businessID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateStatus transitions a booking scoped to a business.
func (s *Store) UpdateStatus(ctx context.Context, id, businessID, status string) (Booking, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = $1
		WHERE id = $2 AND business_id = $3
		RETURNING `+bookingColumns, status, id, businessID)
	return scanBooking(row)
}
