package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRecord mirrors a row in the users table.
type UserRecord struct {
	ID           pgtype.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

// SessionRecord mirrors a row in the sessions table.
type SessionRecord struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	ExpiresAt pgtype.Timestamptz
}

// Store persists users and refresh sessions in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// CreateUser inserts a user and returns the stored row.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash, role string) (UserRecord, error) {
	const q = `
INSERT INTO users (name, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING id, name, email, password_hash, role, created_at, updated_at`
	var u UserRecord
	err := s.Pool.QueryRow(ctx, q, name, email, passwordHash, role).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetUserByEmail fetches a user by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (UserRecord, error) {
	const q = `
SELECT id, name, email, password_hash, role, created_at, updated_at
FROM users WHERE email = $1`
	var u UserRecord
	err := s.Pool.QueryRow(ctx, q, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetUserByID fetches a user by primary key.
func (s *Store) GetUserByID(ctx context.Context, id pgtype.UUID) (UserRecord, error) {
	const q = `
SELECT id, name, email, password_hash, role, created_at, updated_at
FROM users WHERE id = $1`
	var u UserRecord
	err := s.Pool.QueryRow(ctx, q, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateSession records a refresh session keyed by the token hash.
func (s *Store) CreateSession(ctx context.Context, userID pgtype.UUID, tokenHash, userAgent, ip string, expiresAt time.Time) error {
	const q = `
INSERT INTO sessions (user_id, refresh_token, user_agent, ip, expires_at)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)`
	_, err := s.Pool.Exec(ctx, q, userID, tokenHash, userAgent, ip, expiresAt)
	return err
}

// GetSessionByToken fetches a session by refresh token hash.
func (s *Store) GetSessionByToken(ctx context.Context, tokenHash string) (SessionRecord, error) {
	const q = `SELECT id, user_id, expires_at FROM sessions WHERE refresh_token = $1`
	var rec SessionRecord
	err := s.Pool.QueryRow(ctx, q, tokenHash).Scan(&rec.ID, &rec.UserID, &rec.ExpiresAt)
	return rec, err
}

// RotateSessionToken swaps the refresh token hash and extends the expiry.
func (s *Store) RotateSessionToken(ctx context.Context, sessionID pgtype.UUID, tokenHash string, expiresAt time.Time) error {
	const q = `UPDATE sessions SET refresh_token = $2, expires_at = $3 WHERE id = $1`
	_, err := s.Pool.Exec(ctx, q, sessionID, tokenHash, expiresAt)
	return err
}

// DeleteSessionByToken removes a session by refresh token hash.
func (s *Store) DeleteSessionByToken(ctx context.Context, tokenHash string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, tokenHash)
	return err
}

// DeleteSessionsByUser removes every session belonging to a user.
func (s *Store) DeleteSessionsByUser(ctx context.Context, userID pgtype.UUID) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}
