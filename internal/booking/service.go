package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/waconnect/backend/internal/business"
	"github.com/waconnect/backend/internal/common"
	"github.com/waconnect/backend/internal/events"
	"github.com/waconnect/backend/internal/obs"
	"github.com/waconnect/backend/internal/wa"
)

// Booking lifecycle states.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const defaultListLimit = 500

var validStatuses = map[string]bool{
	StatusPending: true, StatusConfirmed: true, StatusCompleted: true, StatusCancelled: true,
}

// Storer defines the persistence operations the service needs.
type Storer interface {
	Create(ctx context.Context, b Booking) (Booking, error)
	ListByBusiness(ctx context.Context, businessID string, limit int) ([]Booking, error)
	UpdateStatus(ctx context.Context, id, businessID, status string) (Booking, error)
}

// BusinessDirectory resolves businesses for public booking submission and
// owner scoping. Satisfied by business.Store.
type BusinessDirectory interface {
	GetByID(ctx context.Context, id string) (business.Business, error)
	GetForUser(ctx context.Context, id, userID string) (business.Business, error)
}

// Service accepts public booking requests and lets owners work the queue.
type Service struct {
	Store      Storer
	Businesses BusinessDirectory
	Bus        *events.Bus
	Validate   *validator.Validate
	Log        zerolog.Logger
}

// CreateInput carries the public booking form fields.
type CreateInput struct {
	CustomerName  string `json:"customer_name" validate:"required"`
	CustomerPhone string `json:"customer_phone" validate:"required,min=8"`
	CustomerEmail string `json:"customer_email" validate:"omitempty,email"`
	ServiceType   string `json:"service_type" validate:"required"`
	PreferredDate string `json:"preferred_date" validate:"required"`
	PreferredTime string `json:"preferred_time" validate:"required"`
	Notes         string `json:"notes"`
}

// CreateResult pairs the stored booking with a ready-to-open WhatsApp link so
// the storefront can hand the customer over to the owner's chat.
type CreateResult struct {
	Booking      Booking `json:"booking"`
	WhatsAppLink string  `json:"whatsapp_link"`
}

// Create records a booking request against a business. Public, no auth.
func (s *Service) Create(ctx context.Context, businessID string, in CreateInput) (CreateResult, error) {
	biz, err := s.Businesses.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			countBooking("business_not_found")
			return CreateResult{}, common.NewAppError("NOT_FOUND", "business not found", http.StatusNotFound, err)
		}
		return CreateResult{}, fmt.Errorf("resolve business: %w", err)
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			countBooking("invalid")
			return CreateResult{}, common.NewAppError("VALIDATION_ERROR", "invalid booking payload", http.StatusBadRequest, err)
		}
	}

	created, err := s.Store.Create(ctx, Booking{
		BusinessID:    businessID,
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerPhone: strings.TrimSpace(in.CustomerPhone),
		CustomerEmail: strings.TrimSpace(in.CustomerEmail),
		ServiceType:   strings.TrimSpace(in.ServiceType),
		PreferredDate: strings.TrimSpace(in.PreferredDate),
		PreferredTime: strings.TrimSpace(in.PreferredTime),
		Notes:         strings.TrimSpace(in.Notes),
		Status:        StatusPending,
	})
	if err != nil {
		countBooking("error")
		return CreateResult{}, fmt.Errorf("create booking: %w", err)
	}
	countBooking("ok")

	if s.Bus != nil {
		if _, err := s.Bus.Emit(ctx, events.TopicBookingCreated, businessID, created.ID, created); err != nil {
			s.Log.Warn().Err(err).Str("booking_id", created.ID).Msg("booking event emit failed")
		}
	}

	message := wa.BookingMessage(created.CustomerName, created.ServiceType, created.PreferredDate, created.PreferredTime)
	return CreateResult{
		Booking:      created,
		WhatsAppLink: wa.Link(biz.WhatsAppNumber, message),
	}, nil
}

// List returns the bookings of a business the user owns, newest first.
func (s *Service) List(ctx context.Context, businessID, userID string) ([]Booking, error) {
	if _, err := s.Businesses.GetForUser(ctx, businessID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewAppError("NOT_FOUND", "business not found", http.StatusNotFound, err)
		}
		return nil, fmt.Errorf("resolve business: %w", err)
	}
	out, err := s.Store.ListByBusiness(ctx, businessID, defaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}

// UpdateStatus transitions a booking of a business the user owns.
func (s *Service) UpdateStatus(ctx context.Context, businessID, bookingID, userID, status string) (Booking, error) {
	if _, err := s.Businesses.GetForUser(ctx, businessID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Booking{}, common.NewAppError("NOT_FOUND", "business not found", http.StatusNotFound, err)
		}
		return Booking{}, fmt.Errorf("resolve business: %w", err)
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !validStatuses[status] {
		return Booking{}, common.NewAppError("INVALID_STATUS", "status must be pending, confirmed, completed, or cancelled", http.StatusBadRequest, nil)
	}
	updated, err := s.Store.UpdateStatus(ctx, bookingID, businessID, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Booking{}, common.NewAppError("NOT_FOUND", "booking not found", http.StatusNotFound, err)
		}
		return Booking{}, fmt.Errorf("update booking status: %w", err)
	}

	if s.Bus != nil {
		if _, err := s.Bus.Emit(ctx, events.TopicBookingStatusChanged, businessID, updated.ID, updated); err != nil {
			s.Log.Warn().Err(err).Str("booking_id", updated.ID).Msg("booking event emit failed")
		}
	}
	return updated, nil
}

func countBooking(result string) {
	if obs.BookingCreatedTotal != nil {
		obs.BookingCreatedTotal.WithLabelValues(result).Inc()
	}
}
