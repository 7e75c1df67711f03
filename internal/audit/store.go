package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `id::text, actor_kind, COALESCE(actor_user_id::text, ''), action, resource_type,
	COALESCE(resource_id, ''), method, path, COALESCE(route, ''), status,
	COALESCE(ip, ''), COALESCE(user_agent, ''), COALESCE(request_id, ''), metadata, created_at`

// PgStore persists audit entries in Postgres.
type PgStore struct {
	Pool *pgxpool.Pool
}

// Insert writes one entry.
func (s PgStore) Insert(ctx context.Context, e Entry) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO audit_logs (actor_kind, actor_user_id, action, resource_type, resource_id,
			method, path, route, status, ip, user_agent, request_id, metadata)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, NULLIF($5, ''),
			$6, $7, NULLIF($8, ''), $9, NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), $13)`,
		e.ActorKind, e.ActorUserID, e.Action, e.ResourceType, e.ResourceID,
		e.Method, e.Path, e.Route, e.Status, e.IP, e.UserAgent, e.RequestID, e.Metadata,
	)
	if err != nil {
		return fmt.Errorf("audit: insert entry: %w", err)
	}
	return nil
}

// List returns the most recent entries.
func (s PgStore) List(ctx context.Context, limit, offset int) ([]Entry, error) {
	rows, err := s.Pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, entryColumns), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("audit: list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorKind, &e.ActorUserID, &e.Action, &e.ResourceType,
			&e.ResourceID, &e.Method, &e.Path, &e.Route, &e.Status,
			&e.IP, &e.UserAgent, &e.RequestID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
