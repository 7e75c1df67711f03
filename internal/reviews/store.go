package reviews

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Review is one piece of customer feedback for a business.
type Review struct {
	ID           string    `json:"id"`
	BusinessID   string    `json:"business_id"`
	CustomerName string    `json:"customer_name"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stats aggregates the ratings of one business.
type Stats struct {
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

const reviewColumns = `id::text, business_id::text, customer_name, rating, COALESCE(comment, ''), created_at`

// Store runs review queries against Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

func scanReview(row pgx.Row) (Review, error) {
	var rv Review
	err := row.Scan(&rv.ID, &rv.BusinessID, &rv.CustomerName, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	return rv, err
}

// Create inserts a review.
func (s Store) Create(ctx context.Context, businessID, customerName string, rating int, comment string) (Review, error) {
	row := s.Pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO reviews (business_id, customer_name, rating, comment)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING %s`, reviewColumns),
		businessID, customerName, rating, comment,
	)
	return scanReview(row)
}

// ListByBusiness returns reviews newest first.
func (s Store) ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]Review, error) {
	rows, err := s.Pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM reviews
		WHERE business_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, reviewColumns),
		businessID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("reviews: list: %w", err)
	}
	defer rows.Close()

	out := make([]Review, 0, limit)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("reviews: scan: %w", err)
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// StatsByBusiness returns the aggregate rating for a business.
func (s Store) StatsByBusiness(ctx context.Context, businessID string) (Stats, error) {
	var st Stats
	err := s.Pool.QueryRow(ctx, `
		SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0)::float8, COUNT(*)
		FROM reviews
		WHERE business_id = $1`,
		businessID,
	).Scan(&st.AverageRating, &st.ReviewCount)
	return st, err
}

// Delete removes a review scoped to a business.
func (s Store) Delete(ctx context.Context, id, businessID string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1 AND business_id = $2`, id, businessID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
