package business

import (
	"context"
	"errors"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/waconnect/backend/internal/common"
	"github.com/waconnect/backend/internal/delivery"
)

type fakeStore struct {
	byID        map[string]Business
	bySubdomain map[string]Business
	nextID      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]Business{}, bySubdomain: map[string]Business{}}
}

func (f *fakeStore) Create(_ context.Context, b Business) (Business, error) {
	if _, taken := f.bySubdomain[b.Subdomain]; taken {
		return Business{}, &pgconn.PgError{Code: "23505"}
	}
	f.nextID++
	b.ID = string(rune('a' + f.nextID))
	b.IsActive = true
	f.byID[b.ID] = b
	f.bySubdomain[b.Subdomain] = b
	return b, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID string) ([]Business, error) {
	var out []Business
	for _, b := range f.byID {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) GetForUser(_ context.Context, id, userID string) (Business, error) {
	b, ok := f.byID[id]
	if !ok || b.UserID != userID {
		return Business{}, pgx.ErrNoRows
	}
	return b, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (Business, error) {
	b, ok := f.byID[id]
	if !ok {
		return Business{}, pgx.ErrNoRows
	}
	return b, nil
}

func (f *fakeStore) GetBySubdomain(_ context.Context, subdomain string) (Business, error) {
	b, ok := f.bySubdomain[subdomain]
	if !ok || !b.IsActive {
		return Business{}, pgx.ErrNoRows
	}
	return b, nil
}

func (f *fakeStore) Update(_ context.Context, b Business) (Business, error) {
	if _, ok := f.byID[b.ID]; !ok {
		return Business{}, pgx.ErrNoRows
	}
	f.byID[b.ID] = b
	f.bySubdomain[b.Subdomain] = b
	return b, nil
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return &Service{Store: store, Validate: validator.New()}, store
}

func validInput() CreateInput {
	return CreateInput{
		Name:           "Sharma Sweets",
		Description:    "Mithai and namkeen since 1982",
		Subdomain:      "sharma-sweets",
		WhatsAppNumber: "+91 98765 43210",
		Category:       "Food",
		TemplateType:   "retail",
	}
}

func TestCreateBusiness(t *testing.T) {
	svc, _ := newTestService()
	b, err := svc.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)
	require.Equal(t, "sharma-sweets", b.Subdomain)
	require.Equal(t, "user-1", b.UserID)
	require.True(t, b.IsActive)
}

func TestCreateBusinessValidation(t *testing.T) {
	svc, _ := newTestService()

	missing := validInput()
	missing.Name = ""
	_, err := svc.Create(context.Background(), "user-1", missing)
	requireAppCode(t, err, "VALIDATION_ERROR")

	badSub := validInput()
	badSub.Subdomain = "Has Spaces!"
	_, err = svc.Create(context.Background(), "user-1", badSub)
	requireAppCode(t, err, "INVALID_SUBDOMAIN")

	reserved := validInput()
	reserved.Subdomain = "admin"
	_, err = svc.Create(context.Background(), "user-1", reserved)
	requireAppCode(t, err, "INVALID_SUBDOMAIN")

	badTpl := validInput()
	badTpl.TemplateType = "casino"
	_, err = svc.Create(context.Background(), "user-1", badTpl)
	requireAppCode(t, err, "INVALID_TEMPLATE")
}

func TestCreateBusinessSubdomainTaken(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "user-2", validInput())
	requireAppCode(t, err, "SUBDOMAIN_TAKEN")
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), created.ID, "user-2")
	requireAppCode(t, err, "NOT_FOUND")

	got, err := svc.Get(context.Background(), created.ID, "user-1")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
}

func TestUpdateDeliverySettings(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	lat, lon := 19.0760, 72.8777
	free, beyond, max := 4.0, 40.0, 12.0
	tax := 18.0
	updated, err := svc.Update(context.Background(), created.ID, "user-1", UpdateInput{
		BusinessLatitude:           &lat,
		BusinessLongitude:          &lon,
		FreeDeliveryRadiusKm:       &free,
		DeliveryChargeBeyondRadius: &beyond,
		MaxDeliveryRadiusKm:        &max,
		TaxPercentage:              &tax,
	})
	require.NoError(t, err)

	cfg := updated.DeliveryConfig()
	require.True(t, cfg.LocationBased())
	require.Equal(t, 4.0, cfg.FreeRadiusKm)
	require.Equal(t, 18.0, cfg.TaxPercent)
	require.NotNil(t, cfg.MaxRadiusKm)

	dec := delivery.Evaluate(cfg, 6.0)
	require.True(t, dec.Deliverable)
	require.Equal(t, 40.0, dec.Charge)
}

func TestUpdateRejectsLoneCoordinate(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	lat := 19.0
	_, err = svc.Update(context.Background(), created.ID, "user-1", UpdateInput{BusinessLatitude: &lat})
	requireAppCode(t, err, "VALIDATION_ERROR")
}

func TestDeliveryConfigWithoutLocation(t *testing.T) {
	b := Business{DeliveryCharges: 30, TaxPercentage: 5}
	cfg := b.DeliveryConfig()
	require.False(t, cfg.LocationBased())
	require.Equal(t, 30.0, cfg.FlatCharge)
	require.Equal(t, delivery.DefaultFreeRadiusKm, cfg.FreeRadiusKm)
}

func TestGetPublicIgnoresInactive(t *testing.T) {
	svc, store := newTestService()
	created, err := svc.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	got, err := svc.GetPublic(context.Background(), "SHARMA-SWEETS")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	b := store.bySubdomain["sharma-sweets"]
	b.IsActive = false
	store.bySubdomain["sharma-sweets"] = b
	_, err = svc.GetPublic(context.Background(), "sharma-sweets")
	requireAppCode(t, err, "NOT_FOUND")
}

func requireAppCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
}
