// Package reviews lets storefront visitors rate a business and owners curate
// the feedback shown on their page.
package reviews

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
)

const defaultPerPage = 20

// Storer defines the persistence operations the service needs.
type Storer interface {
	Create(ctx context.Context, businessID, customerName string, rating int, comment string) (Review, error)
	ListByBusiness(ctx context.Context, businessID string, limit, offset int) ([]Review, error)
	StatsByBusiness(ctx context.Context, businessID string) (Stats, error)
	Delete(ctx context.Context, id, businessID string) error
}

// BusinessDirectory resolves businesses for public submission and owner
// scoping. Satisfied by business.Store.
type BusinessDirectory interface {
	GetByID(ctx context.Context, id string) (business.Business, error)
	GetForUser(ctx context.Context, id, userID string) (business.Business, error)
}

// Service handles public review submission and owner moderation.
type Service struct {
	Store      Storer
	Businesses BusinessDirectory
	Validate   *validator.Validate
}

// CreateInput carries the public review form fields.
type CreateInput struct {
	CustomerName string `json:"customer_name" validate:"required,max=120"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	Comment      string `json:"comment" validate:"max=1000"`
}

// Create records a review against a business. Public, no auth.
func (s *Service) Create(ctx context.Context, businessID string, in CreateInput) (Review, error) {
	if _, err := s.Businesses.GetByID(ctx, businessID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Review{}, common.NewAppError("NOT_FOUND", "business not found", http.StatusNotFound, err)
		}
		return Review{}, fmt.Errorf("resolve business: %w", err)
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			return Review{}, common.NewAppError("VALIDATION_ERROR", "rating must be between 1 and 5", http.StatusBadRequest, err)
		}
	}
	created, err := s.Store.Create(ctx, businessID, strings.TrimSpace(in.CustomerName), in.Rating, strings.TrimSpace(in.Comment))
	if err != nil {
		return Review{}, fmt.Errorf("create review: %w", err)
	}
	return created, nil
}

// List returns reviews for a business page, newest first. Public.
func (s *Service) List(ctx context.Context, businessID string, page, perPage int) ([]Review, common.Pagination, error) {
	if _, err := s.Businesses.GetByID(ctx, businessID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.Pagination{}, common.NewAppError("NOT_FOUND", "business not found", http.StatusNotFound, err)
		}
		return nil, common.Pagination{}, fmt.Errorf("resolve business: %w", err)
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = defaultPerPage
	}
	stats, err := s.Store.StatsByBusiness(ctx, businessID)
	if err != nil {
		return nil, common.Pagination{}, fmt.Errorf("review stats: %w", err)
	}
	out, err := s.Store.ListByBusiness(ctx, businessID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, common.Pagination{}, fmt.Errorf("list reviews: %w", err)
	}
	return out, common.Pagination{Page: page, PerPage: perPage, TotalItems: int(stats.ReviewCount)}, nil
}

// Summary returns the aggregate rating shown on the storefront header. Public.
func (s *Service) Summary(ctx context.Context, businessID string) (Stats, error) {
	if _, err := s.Businesses.GetByID(ctx, businessID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stats{}, common.NewAppError("NOT_FOUND", "business not found", http.StatusNotFound, err)
		}
		return Stats{}, fmt.Errorf("resolve business: %w", err)
	}
	stats, err := s.Store.StatsByBusiness(ctx, businessID)
	if err != nil {
		return Stats{}, fmt.Errorf("review stats: %w", err)
	}
	return stats, nil
}

// Delete removes a review from a business the user owns.
func (s *Service) Delete(ctx context.Context, businessID, reviewID, userID string) error {
	if _, err := s.Businesses.GetForUser(ctx, businessID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NewAppError("NOT_FOUND", "business not found", http.StatusNotFound, err)
		}
		return fmt.Errorf("resolve business: %w", err)
	}
	if err := s.Store.Delete(ctx, reviewID, businessID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NewAppError("NOT_FOUND", "review not found", http.StatusNotFound, err)
		}
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
