package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/waconnect/backend/internal/business"
	"github.com/waconnect/backend/internal/common"
)

type fakeStore struct {
	products  map[string]Product
	nextID    int
	listCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{products: map[string]Product{}}
}

func (f *fakeStore) Create(_ context.Context, p Product) (Product, error) {
	f.nextID++
	p.ID = fmt.Sprintf("prod-%d", f.nextID)
	p.CreatedAt = time.Now().UTC()
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) ListByBusiness(_ context.Context, businessID string) ([]Product, error) {
	f.listCalls++
	out := []Product{}
	for _, p := range f.products {
		if p.BusinessID == businessID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) GetForBusiness(_ context.Context, id, businessID string) (Product, error) {
	p, ok := f.products[id]
	if !ok || p.BusinessID != businessID {
		return Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeStore) Update(_ context.Context, p Product) (Product, error) {
	if _, ok := f.products[p.ID]; !ok {
		return Product{}, pgx.ErrNoRows
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) Delete(_ context.Context, id, businessID string) error {
	p, ok := f.products[id]
	if !ok || p.BusinessID != businessID {
		return pgx.ErrNoRows
	}
	delete(f.products, id)
	return nil
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

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := newFakeStore()
	return &Service{
		Store:    store,
		Owners:   fakeGuard{owner: "user-1"},
		Cache:    NewCache(client, time.Minute),
		Validate: validator.New(),
	}, store
}

func TestCreateProductComputesDiscount(t *testing.T) {
	svc, _ := newTestService(t)
	p, err := svc.Create(context.Background(), "biz-1", "user-1", CreateInput{
		Name:        "Kaju Katli",
		Description: "500g box",
		MRP:         200,
		SalePrice:   150,
	})
	require.NoError(t, err)
	require.Equal(t, 25.0, p.DiscountPercentage)
	require.Equal(t, "general", p.ProductType)
	require.True(t, p.IsAvailable)
	require.NotNil(t, p.BulkPricing)
}

func TestCreateProductRequiresOwnership(t *testing.T) {
	svc, store := newTestService(t)
	_, err := svc.Create(context.Background(), "biz-1", "intruder", CreateInput{
		Name: "Kaju Katli", Description: "500g box", MRP: 200, SalePrice: 150,
	})
	requireAppCode(t, err, "NOT_FOUND")
	require.Empty(t, store.products)
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), "biz-1", "user-1", CreateInput{
		Description: "no name", MRP: 100,
	})
	requireAppCode(t, err, "VALIDATION_ERROR")

	_, err = svc.Create(context.Background(), "biz-1", "user-1", CreateInput{
		Name: "Free", Description: "zero mrp", MRP: 0,
	})
	requireAppCode(t, err, "VALIDATION_ERROR")
}

func TestListCachesAndInvalidates(t *testing.T) {
	svc, store := newTestService(t)
	_, err := svc.Create(context.Background(), "biz-1", "user-1", CreateInput{
		Name: "Kaju Katli", Description: "500g box", MRP: 200, SalePrice: 150,
	})
	require.NoError(t, err)

	first, err := svc.List(context.Background(), "biz-1")
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = svc.List(context.Background(), "biz-1")
	require.NoError(t, err)
	require.Equal(t, 1, store.listCalls)

	_, err = svc.Create(context.Background(), "biz-1", "user-1", CreateInput{
		Name: "Soan Papdi", Description: "250g box", MRP: 120, SalePrice: 99,
	})
	require.NoError(t, err)

	second, err := svc.List(context.Background(), "biz-1")
	require.NoError(t, err)
	require.Len(t, second, 2)
	require.Equal(t, 2, store.listCalls)
}

func TestUpdateRecomputesDiscount(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), "biz-1", "user-1", CreateInput{
		Name: "Kaju Katli", Description: "500g box", MRP: 200, SalePrice: 150,
	})
	require.NoError(t, err)

	sale := 100.0
	updated, err := svc.Update(context.Background(), "biz-1", created.ID, "user-1", UpdateInput{SalePrice: &sale})
	require.NoError(t, err)
	require.Equal(t, 50.0, updated.DiscountPercentage)
	require.Equal(t, "Kaju Katli", updated.Name)

	available := false
	updated, err = svc.Update(context.Background(), "biz-1", created.ID, "user-1", UpdateInput{IsAvailable: &available})
	require.NoError(t, err)
	require.False(t, updated.IsAvailable)
	require.Equal(t, 50.0, updated.DiscountPercentage)
}

func TestDeleteProduct(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), "biz-1", "user-1", CreateInput{
		Name: "Kaju Katli", Description: "500g box", MRP: 200, SalePrice: 150,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "biz-1", created.ID, "user-1"))
	err = svc.Delete(context.Background(), "biz-1", created.ID, "user-1")
	requireAppCode(t, err, "NOT_FOUND")
}

func TestUnitPriceHonoursBulkTiers(t *testing.T) {
	p := Product{
		MRP:       100,
		SalePrice: 90,
		BulkPricing: []BulkTier{
			{MinQuantity: 10, PricePerUnit: 80},
			{MinQuantity: 50, PricePerUnit: 70},
		},
	}
	require.Equal(t, 90.0, p.UnitPrice(1))
	require.Equal(t, 80.0, p.UnitPrice(10))
	require.Equal(t, 70.0, p.UnitPrice(75))

	noSale := Product{MRP: 100}
	require.Equal(t, 100.0, noSale.UnitPrice(3))
}

func requireAppCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
}
