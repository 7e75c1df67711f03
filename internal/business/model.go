package business

import (
	"time"

	"github.com/waconnect/backend/internal/delivery"
	"github.com/waconnect/backend/internal/geo"
)

// SocialMediaLinks groups optional social profile URLs shown on the storefront.
type SocialMediaLinks struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
	Pinterest string `json:"pinterest,omitempty"`
}

// Business is the tenant profile backing one customer site.
type Business struct {
	ID               string            `json:"id"`
	UserID           string            `json:"user_id"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	Subdomain        string            `json:"subdomain"`
	WhatsAppNumber   string            `json:"whatsapp_number"`
	Category         string            `json:"category"`
	TemplateType     string            `json:"template_type"`
	LogoURL          string            `json:"logo_url,omitempty"`
	CoverImageURL    string            `json:"cover_image_url,omitempty"`
	GalleryImages    []string          `json:"gallery_images"`
	YouTubeVideoURL  string            `json:"youtube_video_url,omitempty"`
	Address          string            `json:"address,omitempty"`
	MobileNumber     string            `json:"mobile_number,omitempty"`
	BusinessHours    string            `json:"business_hours,omitempty"`
	LocationMapURL   string            `json:"location_map_url,omitempty"`
	QRCodeURL        string            `json:"qr_code_url,omitempty"`
	SocialMediaLinks *SocialMediaLinks `json:"social_media_links,omitempty"`

	// Delivery and pricing settings consumed by the storefront calculator.
	TaxPercentage              float64  `json:"tax_percentage"`
	DeliveryCharges            float64  `json:"delivery_charges"`
	MinOrderForFreeDelivery    *float64 `json:"min_order_for_free_delivery,omitempty"`
	BusinessLatitude           *float64 `json:"business_latitude,omitempty"`
	BusinessLongitude          *float64 `json:"business_longitude,omitempty"`
	FreeDeliveryRadiusKm       float64  `json:"free_delivery_radius_km"`
	DeliveryChargeBeyondRadius float64  `json:"delivery_charge_beyond_radius"`
	MaxDeliveryRadiusKm        *float64 `json:"max_delivery_radius_km,omitempty"`

	WhatsAppAPIEnabled bool      `json:"whatsapp_api_enabled"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

// DeliveryConfig translates stored settings into the delivery policy
// configuration. Location based rules apply only when both coordinates are set.
func (b Business) DeliveryConfig() delivery.Config {
	cfg := delivery.Config{
		FreeRadiusKm:            b.FreeDeliveryRadiusKm,
		ChargeBeyondRadius:      b.DeliveryChargeBeyondRadius,
		MaxRadiusKm:             b.MaxDeliveryRadiusKm,
		FlatCharge:              b.DeliveryCharges,
		MinOrderForFreeDelivery: b.MinOrderForFreeDelivery,
		TaxPercent:              b.TaxPercentage,
	}
	if b.BusinessLatitude != nil && b.BusinessLongitude != nil {
		cfg.BusinessLocation = &geo.Coordinate{Lat: *b.BusinessLatitude, Lon: *b.BusinessLongitude}
	}
	return delivery.NewConfig(cfg)
}
