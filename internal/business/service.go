package business

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/waconnect/backend/internal/common"
	"github.com/waconnect/backend/internal/site"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{1,61}[a-z0-9])?$`)

// Subdomains that collide with platform infrastructure.
var reservedSubdomains = map[string]bool{
	"www": true, "api": true, "app": true, "admin": true, "dashboard": true,
}

// Storer defines the persistence operations the service needs.
type Storer interface {
	Create(ctx context.Context, b Business) (Business, error)
	ListByUser(ctx context.Context, userID string) ([]Business, error)
	GetForUser(ctx context.Context, id, userID string) (Business, error)
	GetByID(ctx context.Context, id string) (Business, error)
	GetBySubdomain(ctx context.Context, subdomain string) (Business, error)
	Update(ctx context.Context, b Business) (Business, error)
}

// Service owns business profile rules: subdomain allocation, template
// validation, and delivery settings.
type Service struct {
	Store    Storer
	Validate *validator.Validate
}

// CreateInput carries the fields accepted when registering a business.
type CreateInput struct {
	Name            string            `json:"name" validate:"required"`
	Description     string            `json:"description" validate:"required"`
	Subdomain       string            `json:"subdomain" validate:"required"`
	WhatsAppNumber  string            `json:"whatsapp_number" validate:"required,min=8"`
	Category        string            `json:"category" validate:"required"`
	TemplateType    string            `json:"template_type" validate:"required"`
	LogoURL         string            `json:"logo_url"`
	CoverImageURL   string            `json:"cover_image_url"`
	GalleryImages   []string          `json:"gallery_images"`
	YouTubeVideoURL string            `json:"youtube_video_url"`
	Address         string            `json:"address"`
	MobileNumber    string            `json:"mobile_number"`
	BusinessHours   string            `json:"business_hours"`
	LocationMapURL  string            `json:"location_map_url"`
	QRCodeURL       string            `json:"qr_code_url"`
	SocialMedia     *SocialMediaLinks `json:"social_media_links"`

	WhatsAppAPIEnabled bool `json:"whatsapp_api_enabled"`
}

// UpdateInput carries a partial profile update; nil fields keep their value.
type UpdateInput struct {
	Name            *string           `json:"name"`
	Description     *string           `json:"description"`
	WhatsAppNumber  *string           `json:"whatsapp_number"`
	Category        *string           `json:"category"`
	TemplateType    *string           `json:"template_type"`
	LogoURL         *string           `json:"logo_url"`
	CoverImageURL   *string           `json:"cover_image_url"`
	GalleryImages   []string          `json:"gallery_images"`
	YouTubeVideoURL *string           `json:"youtube_video_url"`
	Address         *string           `json:"address"`
	MobileNumber    *string           `json:"mobile_number"`
	BusinessHours   *string           `json:"business_hours"`
	LocationMapURL  *string           `json:"location_map_url"`
	QRCodeURL       *string           `json:"qr_code_url"`
	SocialMedia     *SocialMediaLinks `json:"social_media_links"`

	TaxPercentage              *float64 `json:"tax_percentage"`
	DeliveryCharges            *float64 `json:"delivery_charges"`
	MinOrderForFreeDelivery    *float64 `json:"min_order_for_free_delivery"`
	BusinessLatitude           *float64 `json:"business_latitude"`
	BusinessLongitude          *float64 `json:"business_longitude"`
	FreeDeliveryRadiusKm       *float64 `json:"free_delivery_radius_km"`
	DeliveryChargeBeyondRadius *float64 `json:"delivery_charge_beyond_radius"`
	MaxDeliveryRadiusKm        *float64 `json:"max_delivery_radius_km"`

	WhatsAppAPIEnabled *bool `json:"whatsapp_api_enabled"`
	IsActive           *bool `json:"is_active"`
}

// Create registers a business under the given owner.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Business, error) {
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			return Business{}, common.NewAppError("VALIDATION_ERROR", validationMessage(err), http.StatusBadRequest, err)
		}
	}

	sub := strings.ToLower(strings.TrimSpace(in.Subdomain))
	if !subdomainPattern.MatchString(sub) || reservedSubdomains[sub] {
		return Business{}, common.NewAppError("INVALID_SUBDOMAIN", "subdomain must be lowercase letters, digits, and hyphens", http.StatusBadRequest, nil)
	}
	if !site.ValidTemplate(in.TemplateType) {
		return Business{}, common.NewAppError("INVALID_TEMPLATE", "unknown template type", http.StatusBadRequest, nil)
	}

	created, err := s.Store.Create(ctx, Business{
		UserID:          userID,
		Name:            strings.TrimSpace(in.Name),
		Description:     strings.TrimSpace(in.Description),
		Subdomain:       sub,
		WhatsAppNumber:  strings.TrimSpace(in.WhatsAppNumber),
		Category:        strings.TrimSpace(in.Category),
		TemplateType:    in.TemplateType,
		LogoURL:         in.LogoURL,
		CoverImageURL:   in.CoverImageURL,
		GalleryImages:   galleryOrEmpty(in.GalleryImages),
		YouTubeVideoURL: in.YouTubeVideoURL,
		Address:         in.Address,
		MobileNumber:    in.MobileNumber,
		BusinessHours:   in.BusinessHours,
		LocationMapURL:  in.LocationMapURL,
		QRCodeURL:       in.QRCodeURL,
		SocialMediaLinks: in.SocialMedia,

		WhatsAppAPIEnabled: in.WhatsAppAPIEnabled,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Business{}, common.NewAppError("SUBDOMAIN_TAKEN", "subdomain already taken", http.StatusConflict, err)
		}
		return Business{}, fmt.Errorf("create business: %w", err)
	}
	return created, nil
}

// List returns the businesses owned by the user.
func (s *Service) List(ctx context.Context, userID string) ([]Business, error) {
	out, err := s.Store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	return out, nil
}

// Get fetches one business owned by the user.
func (s *Service) Get(ctx context.Context, id, userID string) (Business, error) {
	b, err := s.Store.GetForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Business{}, common.NewAppError("NOT_FOUND", "business not found", http.StatusNotFound, err)
		}
		return Business{}, fmt.Errorf("get business: %w", err)
	}
	return b, nil
}

// GetPublic fetches an active business by subdomain for storefront rendering.
func (s *Service) GetPublic(ctx context.Context, subdomain string) (Business, error) {
	sub := strings.ToLower(strings.TrimSpace(subdomain))
	if sub == "" {
		return Business{}, common.NewAppError("NOT_FOUND", "business not found", http.StatusNotFound, nil)
	}
	b, err := s.Store.GetBySubdomain(ctx, sub)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Business{}, common.NewAppError("NOT_FOUND", "business not found", http.StatusNotFound, err)
		}
		return Business{}, fmt.Errorf("get business by subdomain: %w", err)
	}
	return b, nil
}

// Update applies a partial update to a business the user owns and returns the
// stored result. Coordinates must be set or cleared as a pair.
func (s *Service) Update(ctx context.Context, id, userID string, in UpdateInput) (Business, error) {
	current, err := s.Get(ctx, id, userID)
	if err != nil {
		return Business{}, err
	}

	if in.TemplateType != nil && !site.ValidTemplate(*in.TemplateType) {
		return Business{}, common.NewAppError("INVALID_TEMPLATE", "unknown template type", http.StatusBadRequest, nil)
	}
	if (in.BusinessLatitude == nil) != (in.BusinessLongitude == nil) {
		return Business{}, common.NewAppError("VALIDATION_ERROR", "business_latitude and business_longitude must be provided together", http.StatusBadRequest, nil)
	}

	applyString(&current.Name, in.Name)
	applyString(&current.Description, in.Description)
	applyString(&current.WhatsAppNumber, in.WhatsAppNumber)
	applyString(&current.Category, in.Category)
	applyString(&current.TemplateType, in.TemplateType)
	applyString(&current.LogoURL, in.LogoURL)
	applyString(&current.CoverImageURL, in.CoverImageURL)
	applyString(&current.YouTubeVideoURL, in.YouTubeVideoURL)
	applyString(&current.Address, in.Address)
	applyString(&current.MobileNumber, in.MobileNumber)
	applyString(&current.BusinessHours, in.BusinessHours)
	applyString(&current.LocationMapURL, in.LocationMapURL)
	applyString(&current.QRCodeURL, in.QRCodeURL)
	if in.GalleryImages != nil {
		current.GalleryImages = in.GalleryImages
	}
	if in.SocialMedia != nil {
		current.SocialMediaLinks = in.SocialMedia
	}
	applyFloat(&current.TaxPercentage, in.TaxPercentage)
	applyFloat(&current.DeliveryCharges, in.DeliveryCharges)
	if in.MinOrderForFreeDelivery != nil {
		current.MinOrderForFreeDelivery = in.MinOrderForFreeDelivery
	}
	if in.BusinessLatitude != nil {
		current.BusinessLatitude = in.BusinessLatitude
		current.BusinessLongitude = in.BusinessLongitude
	}
	applyFloat(&current.FreeDeliveryRadiusKm, in.FreeDeliveryRadiusKm)
	applyFloat(&current.DeliveryChargeBeyondRadius, in.DeliveryChargeBeyondRadius)
	if in.MaxDeliveryRadiusKm != nil {
		current.MaxDeliveryRadiusKm = in.MaxDeliveryRadiusKm
	}
	if in.WhatsAppAPIEnabled != nil {
		current.WhatsAppAPIEnabled = *in.WhatsAppAPIEnabled
	}
	if in.IsActive != nil {
		current.IsActive = *in.IsActive
	}

	updated, err := s.Store.Update(ctx, current)
	if err != nil {
		return Business{}, fmt.Errorf("update business: %w", err)
	}
	return updated, nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func applyFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func galleryOrEmpty(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := strings.ToLower(verrs[0].Field())
		return field + " is invalid"
	}
	return "invalid request payload"
}
