package events

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists domain events in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// Insert records an event and returns the stored row.
func (s *Store) Insert(ctx context.Context, e Event) (Event, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO domain_events (topic, business_id, aggregate_id, payload)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4)
		RETURNING id::text, topic, COALESCE(business_id::text, ''), aggregate_id, payload, occurred_at`,
		e.Topic, e.BusinessID, e.AggregateID, []byte(e.Payload))
	var out Event
	var payload []byte
	if err := row.Scan(&out.ID, &out.Topic, &out.BusinessID, &out.AggregateID, &payload, &out.OccurredAt); err != nil {
		return Event{}, err
	}
	out.Payload = payload
	return out, nil
}
