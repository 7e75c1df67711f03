package order

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
	"github.com/waconnect/backend/internal/catalog"
	"github.com/waconnect/backend/internal/common"
	"github.com/waconnect/backend/internal/delivery"
	"github.com/waconnect/backend/internal/events"
	"github.com/waconnect/backend/internal/geo"
	"github.com/waconnect/backend/internal/obs"
	"github.com/waconnect/backend/internal/pricing"
	"github.com/waconnect/backend/internal/wa"
)

// Order lifecycle states.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

const defaultListLimit = 500

var validStatuses = map[string]bool{
	StatusPending: true, StatusConfirmed: true, StatusDelivered: true, StatusCancelled: true,
}

// Storer defines the persistence operations the service needs.
type Storer interface {
	Create(ctx context.Context, o Order) (Order, error)
	ListByBusiness(ctx context.Context, businessID string, limit int) ([]Order, error)
	UpdateStatus(ctx context.Context, id, businessID, status string) (Order, error)
}

// BusinessDirectory resolves businesses for public submission and owner
// scoping. Satisfied by business.Store.
type BusinessDirectory interface {
	GetByID(ctx context.Context, id string) (business.Business, error)
	GetForUser(ctx context.Context, id, userID string) (business.Business, error)
}

// ProductSource resolves catalog products for repricing. Satisfied by
// catalog.Store.
type ProductSource interface {
	GetForBusiness(ctx context.Context, id, businessID string) (catalog.Product, error)
}

// Service reprices and accepts public orders and lets owners work the queue.
// Client supplied prices are never trusted; every line is repriced from the
// catalog at submission time.
type Service struct {
	Store      Storer
	Businesses BusinessDirectory
	Products   ProductSource
	Bus        *events.Bus
	Validate   *validator.Validate
	Log        zerolog.Logger
}

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// CreateInput carries the public checkout form fields. Latitude and longitude
// are the customer's location when the storefront captured one.
type CreateInput struct {
	CustomerName    string      `json:"customer_name" validate:"required"`
	CustomerPhone   string      `json:"customer_phone" validate:"required,min=8"`
	CustomerAddress string      `json:"customer_address"`
	Items           []ItemInput `json:"items" validate:"required,min=1,dive"`
	Notes           string      `json:"notes"`
	Latitude        *float64    `json:"latitude"`
	Longitude       *float64    `json:"longitude"`
}

// CreateResult pairs the stored order with the delivery decision taken and a
// ready-to-open WhatsApp link carrying the order summary.
type CreateResult struct {
	Order        Order              `json:"order"`
	Delivery     *delivery.Decision `json:"delivery,omitempty"`
	WhatsAppLink string             `json:"whatsapp_link"`
}

// Create reprices and records an order against a business. Public, no auth.
// Orders outside the business's maximum delivery radius are rejected.
func (s *Service) Create(ctx context.Context, businessID string, in CreateInput) (CreateResult, error) {
	biz, err := s.Businesses.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			countOrder("business_not_found")
			return CreateResult{}, common.NewAppError("NOT_FOUND", "business not found", http.StatusNotFound, err)
		}
		return CreateResult{}, fmt.Errorf("resolve business: %w", err)
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			countOrder("invalid")
			return CreateResult{}, common.NewAppError("VALIDATION_ERROR", "invalid order payload", http.StatusBadRequest, err)
		}
	}

	lines := make([]pricing.Line, 0, len(in.Items))
	for _, item := range in.Items {
		product, err := s.Products.GetForBusiness(ctx, item.ProductID, businessID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				countOrder("product_not_found")
				return CreateResult{}, common.NewAppError("PRODUCT_NOT_FOUND",
					fmt.Sprintf("product %s not found", item.ProductID), http.StatusNotFound, err)
			}
			return CreateResult{}, fmt.Errorf("resolve product: %w", err)
		}
		if !product.IsAvailable {
			countOrder("product_unavailable")
			return CreateResult{}, common.NewAppError("PRODUCT_UNAVAILABLE",
				fmt.Sprintf("product %s is currently unavailable", product.Name), http.StatusConflict, nil)
		}
		lines = append(lines, pricing.Line{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.UnitPrice(item.Quantity),
			Qty:       item.Quantity,
			Size:      strings.TrimSpace(item.Size),
			Color:     strings.TrimSpace(item.Color),
		})
	}

	cfg := biz.DeliveryConfig()
	var dec *delivery.Decision
	var distance *float64
	if cfg.LocationBased() && in.Latitude != nil && in.Longitude != nil {
		d := geo.DistanceKm(*cfg.BusinessLocation, geo.Coordinate{Lat: *in.Latitude, Lon: *in.Longitude})
		decision := delivery.Evaluate(cfg, d)
		dec = &decision
		distance = &decision.DistanceKm
		countDecision(decision)
		if !decision.Deliverable {
			countOrder("undeliverable")
			return CreateResult{}, common.NewAppError("UNDELIVERABLE", decision.Message, http.StatusUnprocessableEntity, nil)
		}
	}

	totals := pricing.ComputeTotals(lines, cfg, dec)
	created, err := s.Store.Create(ctx, Order{
		BusinessID:      businessID,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		CustomerAddress: strings.TrimSpace(in.CustomerAddress),
		Items:           lines,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		DeliveryCharge:  totals.Delivery,
		TotalAmount:     totals.Total,
		DistanceKm:      distance,
		Notes:           strings.TrimSpace(in.Notes),
		Status:          StatusPending,
	})
	if err != nil {
		countOrder("error")
		return CreateResult{}, fmt.Errorf("create order: %w", err)
	}
	countOrder("ok")

	if s.Bus != nil {
		if _, err := s.Bus.Emit(ctx, events.TopicOrderCreated, businessID, created.ID, created); err != nil {
			s.Log.Warn().Err(err).Str("order_id", created.ID).Msg("order event emit failed")
		}
	}

	message := wa.OrderMessage(created.CustomerName, created.Items, totals, created.CustomerPhone, created.CustomerAddress)
	return CreateResult{
		Order:        created,
		Delivery:     dec,
		WhatsAppLink: wa.Link(biz.WhatsAppNumber, message),
	}, nil
}

// List returns the orders of a business the user owns, newest first.
func (s *Service) List(ctx context.Context, businessID, userID string) ([]Order, error) {
	if _, err := s.Businesses.GetForUser(ctx, businessID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewAppError("NOT_FOUND", "business not found", http.StatusNotFound, err)
		}
		return nil, fmt.Errorf("resolve business: %w", err)
	}
	out, err := s.Store.ListByBusiness(ctx, businessID, defaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

// UpdateStatus transitions an order of a business the user owns.
func (s *Service) UpdateStatus(ctx context.Context, businessID, orderID, userID, status string) (Order, error) {
	if _, err := s.Businesses.GetForUser(ctx, businessID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NewAppError("NOT_FOUND", "business not found", http.StatusNotFound, err)
		}
		return Order{}, fmt.Errorf("resolve business: %w", err)
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !validStatuses[status] {
		return Order{}, common.NewAppError("INVALID_STATUS", "status must be pending, confirmed, delivered, or cancelled", http.StatusBadRequest, nil)
	}
	updated, err := s.Store.UpdateStatus(ctx, orderID, businessID, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NewAppError("NOT_FOUND", "order not found", http.StatusNotFound, err)
		}
		return Order{}, fmt.Errorf("update order status: %w", err)
	}

	if s.Bus != nil {
		if _, err := s.Bus.Emit(ctx, events.TopicOrderStatusChanged, businessID, updated.ID, updated); err != nil {
			s.Log.Warn().Err(err).Str("order_id", updated.ID).Msg("order event emit failed")
		}
	}
	return updated, nil
}

func countOrder(result string) {
	if obs.OrderCreatedTotal != nil {
		obs.OrderCreatedTotal.WithLabelValues(result).Inc()
	}
}

func countDecision(dec delivery.Decision) {
	if obs.DeliveryDecisionTotal == nil {
		return
	}
	label := "charged"
	switch {
	case !dec.Deliverable:
		label = "rejected"
	case dec.Charge == 0:
		label = "free"
	}
	obs.DeliveryDecisionTotal.WithLabelValues(label).Inc()
}
