package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/waconnect/backend/internal/common"
)

type fakeStore struct {
	users    map[string]UserRecord
	sessions map[string]SessionRecord
	rotated  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]UserRecord{},
		sessions: map[string]SessionRecord{},
	}
}

func testUUID(b byte) pgtype.UUID {
	var id pgtype.UUID
	id.Valid = true
	id.Bytes[15] = b
	id.Bytes[0] = b
	return id
}

func (f *fakeStore) CreateUser(_ context.Context, name, email, passwordHash, role string) (UserRecord, error) {
	if _, exists := f.users[email]; exists {
		return UserRecord{}, &pgconn.PgError{Code: "23505"}
	}
	rec := UserRecord{
		ID:           testUUID(byte(len(f.users) + 1)),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.users[email] = rec
	return rec, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (UserRecord, error) {
	rec, ok := f.users[email]
	if !ok {
		return UserRecord{}, errors.New("no rows")
	}
	return rec, nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id pgtype.UUID) (UserRecord, error) {
	for _, rec := range f.users {
		if rec.ID == id {
			return rec, nil
		}
	}
	return UserRecord{}, errors.New("no rows")
}

func (f *fakeStore) CreateSession(_ context.Context, userID pgtype.UUID, tokenHash, _, _ string, expiresAt time.Time) error {
	f.sessions[tokenHash] = SessionRecord{
		ID:        testUUID(byte(len(f.sessions) + 100)),
		UserID:    userID,
		ExpiresAt: pgtype.Timestamptz{Time: expiresAt, Valid: true},
	}
	return nil
}

func (f *fakeStore) GetSessionByToken(_ context.Context, tokenHash string) (SessionRecord, error) {
	rec, ok := f.sessions[tokenHash]
	if !ok {
		return SessionRecord{}, errors.New("no rows")
	}
	return rec, nil
}

func (f *fakeStore) RotateSessionToken(_ context.Context, sessionID pgtype.UUID, tokenHash string, expiresAt time.Time) error {
	for hash, rec := range f.sessions {
		if rec.ID == sessionID {
			delete(f.sessions, hash)
			rec.ExpiresAt = pgtype.Timestamptz{Time: expiresAt, Valid: true}
			f.sessions[tokenHash] = rec
			f.rotated++
			return nil
		}
	}
	return errors.New("no rows")
}

func (f *fakeStore) DeleteSessionByToken(_ context.Context, tokenHash string) error {
	delete(f.sessions, tokenHash)
	return nil
}

func (f *fakeStore) DeleteSessionsByUser(_ context.Context, userID pgtype.UUID) error {
	for hash, rec := range f.sessions {
		if rec.UserID == userID {
			delete(f.sessions, hash)
		}
	}
	return nil
}

func newTestService(t *testing.T, store Querier) *Service {
	t.Helper()
	svc, err := NewService(Config{Store: store, Secret: "unit-test-secret"})
	require.NoError(t, err)
	return svc
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, newFakeStore())
	cases := []struct {
		name, userName, email, password, code string
	}{
		{"missing name", "", "a@b.in", "password1", "VALIDATION_ERROR"},
		{"missing email", "Asha", "", "password1", "VALIDATION_ERROR"},
		{"short password", "Asha", "a@b.in", "short", "VALIDATION_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.userName, tc.email, tc.password)
			var appErr *common.AppError
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, tc.code, appErr.Code)
		})
	}
}

func TestRegisterNormalizesEmailAndHashes(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)

	user, err := svc.Register(context.Background(), " Asha ", "  Asha@Example.IN ", "password1")
	require.NoError(t, err)
	require.Equal(t, "asha@example.in", user.Email)
	require.Equal(t, "Asha", user.Name)
	require.Equal(t, RoleOwner, user.Role)

	stored := store.users["asha@example.in"]
	require.NotEqual(t, "password1", stored.PasswordHash)
	match, err := argon2id.ComparePasswordAndHash("password1", stored.PasswordHash)
	require.NoError(t, err)
	require.True(t, match)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)

	_, err := svc.Register(context.Background(), "Asha", "asha@example.in", "password1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Asha Again", "asha@example.in", "password2")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "EMAIL_ALREADY_USED", appErr.Code)
	require.Equal(t, 409, appErr.HTTPStatus)
}

func TestLoginAndParseAccessToken(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)

	user, err := svc.Register(context.Background(), "Asha", "asha@example.in", "password1")
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "asha@example.in", "password1", "ua", "1.2.3.4")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
	require.Len(t, store.sessions, 1)

	subject, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, subject)
}

func TestLoginWrongPassword(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)
	_, err := svc.Register(context.Background(), "Asha", "asha@example.in", "password1")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "asha@example.in", "wrong-password", "", "")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)
	_, err := svc.Register(context.Background(), "Asha", "asha@example.in", "password1")
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), "asha@example.in", "password1", "", "")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	require.Equal(t, 1, store.rotated)

	// The old token is gone after rotation.
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	require.Error(t, err)
}

func TestRefreshExpiredSessionIsRejected(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)
	_, err := svc.Register(context.Background(), "Asha", "asha@example.in", "password1")
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), "asha@example.in", "password1", "", "")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Now().Add(30 * 24 * time.Hour) })
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "UNAUTHORIZED", appErr.Code)
	require.Empty(t, store.sessions)
}

func TestExpiredAccessTokenIsRejected(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)
	_, err := svc.Register(context.Background(), "Asha", "asha@example.in", "password1")
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), "asha@example.in", "password1", "", "")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Now().Add(time.Hour) })
	_, err = svc.ParseAccessToken(login.AccessToken)
	require.Error(t, err)
}
