package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"

	"github.com/waconnect/backend/internal/business"
	"github.com/waconnect/backend/internal/common"
	"github.com/waconnect/backend/internal/pricing"
	"github.com/waconnect/backend/internal/tenant"
)

// Storer defines the persistence operations the service needs.
type Storer interface {
	Create(ctx context.Context, p Product) (Product, error)
	ListByBusiness(ctx context.Context, businessID string) ([]Product, error)
	GetForBusiness(ctx context.Context, id, businessID string) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id, businessID string) error
}

// OwnerGuard verifies that a business belongs to the acting user. It is
// satisfied by business.Service.
type OwnerGuard interface {
	Get(ctx context.Context, id, userID string) (business.Business, error)
}

// Service owns product rules: ownership scoping, discount derivation from MRP
// and sale price, and cache maintenance for the public listing.
type Service struct {
	Store    Storer
	Owners   OwnerGuard
	Cache    *Cache
	Validate *validator.Validate
}

// CreateInput carries the fields accepted when adding a product.
type CreateInput struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description" validate:"required"`
	MRP         float64    `json:"mrp" validate:"gt=0"`
	SalePrice   float64    `json:"sale_price" validate:"gte=0"`
	BulkPricing []BulkTier `json:"bulk_pricing"`
	Sizes       []string   `json:"sizes"`
	Colors      []string   `json:"colors"`
	ImageURL    string     `json:"image_url"`
	Category    string     `json:"category"`
	ProductType string     `json:"product_type"`
	IsAvailable *bool      `json:"is_available"`
}

// UpdateInput carries a partial product update; nil fields keep their value.
type UpdateInput struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	MRP         *float64   `json:"mrp"`
	SalePrice   *float64   `json:"sale_price"`
	BulkPricing []BulkTier `json:"bulk_pricing"`
	Sizes       []string   `json:"sizes"`
	Colors      []string   `json:"colors"`
	ImageURL    *string    `json:"image_url"`
	Category    *string    `json:"category"`
	ProductType *string    `json:"product_type"`
	IsAvailable *bool      `json:"is_available"`
}

// Create adds a product to a business the user owns.
func (s *Service) Create(ctx context.Context, businessID, userID string, in CreateInput) (Product, error) {
	if _, err := s.Owners.Get(ctx, businessID, userID); err != nil {
		return Product{}, err
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			return Product{}, common.NewAppError("VALIDATION_ERROR", "invalid product payload", http.StatusBadRequest, err)
		}
	}

	productType := strings.TrimSpace(in.ProductType)
	if productType == "" {
		productType = "general"
	}
	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}
	created, err := s.Store.Create(ctx, Product{
		BusinessID:         businessID,
		Name:               strings.TrimSpace(in.Name),
		Description:        strings.TrimSpace(in.Description),
		MRP:                in.MRP,
		SalePrice:          in.SalePrice,
		DiscountPercentage: float64(pricing.DiscountPercent(in.MRP, in.SalePrice)),
		BulkPricing:        tiersOrEmpty(in.BulkPricing),
		Sizes:              in.Sizes,
		Colors:             in.Colors,
		ImageURL:           in.ImageURL,
		Category:           in.Category,
		ProductType:        productType,
		IsAvailable:        available,
	})
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	s.invalidate(ctx, businessID)
	return created, nil
}

// List returns the public product listing of a business, newest first. The
// result is served from cache when possible.
func (s *Service) List(ctx context.Context, businessID string) ([]Product, error) {
	key := listKey(businessID)
	if s.Cache != nil {
		var cached []Product
		if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}
	out, err := s.Store.ListByBusiness(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if s.Cache != nil {
		_ = s.Cache.SetJSON(ctx, key, out)
	}
	return out, nil
}

// Get fetches one product of a business.
func (s *Service) Get(ctx context.Context, productID, businessID string) (Product, error) {
	p, err := s.Store.GetForBusiness(ctx, productID, businessID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, err)
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Update applies a partial update to a product of a business the user owns.
// Changing MRP or sale price recomputes the stored discount.
func (s *Service) Update(ctx context.Context, businessID, productID, userID string, in UpdateInput) (Product, error) {
	if _, err := s.Owners.Get(ctx, businessID, userID); err != nil {
		return Product{}, err
	}
	current, err := s.Get(ctx, productID, businessID)
	if err != nil {
		return Product{}, err
	}

	if in.Name != nil {
		current.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		current.Description = strings.TrimSpace(*in.Description)
	}
	if in.MRP != nil {
		current.MRP = *in.MRP
	}
	if in.SalePrice != nil {
		current.SalePrice = *in.SalePrice
	}
	if in.MRP != nil || in.SalePrice != nil {
		current.DiscountPercentage = float64(pricing.DiscountPercent(current.MRP, current.SalePrice))
	}
	if in.BulkPricing != nil {
		current.BulkPricing = in.BulkPricing
	}
	if in.Sizes != nil {
		current.Sizes = in.Sizes
	}
	if in.Colors != nil {
		current.Colors = in.Colors
	}
	if in.ImageURL != nil {
		current.ImageURL = *in.ImageURL
	}
	if in.Category != nil {
		current.Category = *in.Category
	}
	if in.ProductType != nil {
		current.ProductType = strings.TrimSpace(*in.ProductType)
	}
	if in.IsAvailable != nil {
		current.IsAvailable = *in.IsAvailable
	}

	updated, err := s.Store.Update(ctx, current)
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	s.invalidate(ctx, businessID)
	return updated, nil
}

// Delete removes a product from a business the user owns.
func (s *Service) Delete(ctx context.Context, businessID, productID, userID string) error {
	if _, err := s.Owners.Get(ctx, businessID, userID); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, productID, businessID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, err)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx, businessID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, businessID string) {
	if s.Cache != nil {
		_ = s.Cache.Del(ctx, listKey(businessID))
	}
}

func listKey(businessID string) string {
	return tenant.PrefixKey(businessID, "catalog:products")
}

func tiersOrEmpty(tiers []BulkTier) []BulkTier {
	if tiers == nil {
		return []BulkTier{}
	}
	return tiers
}
