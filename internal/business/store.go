package business

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists businesses in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

const businessColumns = `
	id::text, user_id::text, name, description, subdomain, whatsapp_number,
	category, template_type,
	COALESCE(logo_url, ''), COALESCE(cover_image_url, ''),
	COALESCE(gallery_images, '{}'),
	COALESCE(youtube_video_url, ''), COALESCE(address, ''),
	COALESCE(mobile_number, ''), COALESCE(business_hours, ''),
	COALESCE(location_map_url, ''), COALESCE(qr_code_url, ''),
	social_media_links,
	tax_percentage, delivery_charges, min_order_for_free_delivery,
	business_latitude, business_longitude,
	free_delivery_radius_km, delivery_charge_beyond_radius, max_delivery_radius_km,
	whatsapp_api_enabled, is_active, created_at`

func scanBusiness(row pgx.Row) (Business, error) {
	var (
		b      Business
		social []byte
	)
	err := row.Scan(
		&b.ID, &b.UserID, &b.Name, &b.Description, &b.Subdomain, &b.WhatsAppNumber,
		&b.Category, &b.TemplateType,
		&b.LogoURL, &b.CoverImageURL,
		&b.GalleryImages,
		&b.YouTubeVideoURL, &b.Address,
		&b.MobileNumber, &b.BusinessHours,
		&b.LocationMapURL, &b.QRCodeURL,
		&social,
		&b.TaxPercentage, &b.DeliveryCharges, &b.MinOrderForFreeDelivery,
		&b.BusinessLatitude, &b.BusinessLongitude,
		&b.FreeDeliveryRadiusKm, &b.DeliveryChargeBeyondRadius, &b.MaxDeliveryRadiusKm,
		&b.WhatsAppAPIEnabled, &b.IsActive, &b.CreatedAt,
	)
	if err != nil {
		return Business{}, err
	}
	if len(social) > 0 {
		var links SocialMediaLinks
		if err := json.Unmarshal(social, &links); err != nil {
			return Business{}, fmt.Errorf("decode social links: %w", err)
		}
		b.SocialMediaLinks = &links
	}
	if b.GalleryImages == nil {
		b.GalleryImages = []string{}
	}
	return b, nil
}

func socialJSON(links *SocialMediaLinks) (any, error) {
	if links == nil {
		return nil, nil
	}
	data, err := json.Marshal(links)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Create inserts a business and returns the stored row.
func (s *Store) Create(ctx context.Context, b Business) (Business, error) {
	social, err := socialJSON(b.SocialMediaLinks)
	if err != nil {
		return Business{}, err
	}
	q := `
INSERT INTO businesses (
	user_id, name, description, subdomain, whatsapp_number, category, template_type,
	logo_url, cover_image_url, gallery_images, youtube_video_url, address,
	mobile_number, business_hours, location_map_url, qr_code_url, social_media_links,
	tax_percentage, delivery_charges, min_order_for_free_delivery,
	business_latitude, business_longitude,
	free_delivery_radius_km, delivery_charge_beyond_radius, max_delivery_radius_km,
	whatsapp_api_enabled
) VALUES (
	$1::uuid, $2, $3, $4, $5, $6, $7,
	NULLIF($8, ''), NULLIF($9, ''), $10, NULLIF($11, ''), NULLIF($12, ''),
	NULLIF($13, ''), NULLIF($14, ''), NULLIF($15, ''), NULLIF($16, ''), $17,
	$18, $19, $20,
	$21, $22,
	$23, $24, $25,
	$26
) RETURNING ` + businessColumns
	row := s.Pool.QueryRow(ctx, q,
		b.UserID, b.Name, b.Description, b.Subdomain, b.WhatsAppNumber, b.Category, b.TemplateType,
		b.LogoURL, b.CoverImageURL, b.GalleryImages, b.YouTubeVideoURL, b.Address,
		b.MobileNumber, b.BusinessHours, b.LocationMapURL, b.QRCodeURL, social,
		b.TaxPercentage, b.DeliveryCharges, b.MinOrderForFreeDelivery,
		b.BusinessLatitude, b.BusinessLongitude,
		b.FreeDeliveryRadiusKm, b.DeliveryChargeBeyondRadius, b.MaxDeliveryRadiusKm,
		b.WhatsAppAPIEnabled,
	)
	return scanBusiness(row)
}

// ListByUser returns every business owned by the user, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]Business, error) {
	q := `SELECT ` + businessColumns + ` FROM businesses WHERE user_id = $1::uuid ORDER BY created_at DESC`
	rows, err := s.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Business, 0)
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetForUser fetches a business only when owned by the user.
func (s *Store) GetForUser(ctx context.Context, id, userID string) (Business, error) {
	q := `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1::uuid AND user_id = $2::uuid`
	return scanBusiness(s.Pool.QueryRow(ctx, q, id, userID))
}

// GetByID fetches a business by primary key regardless of owner.
func (s *Store) GetByID(ctx context.Context, id string) (Business, error) {
	q := `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1::uuid`
	return scanBusiness(s.Pool.QueryRow(ctx, q, id))
}

// GetBySubdomain fetches an active business by its subdomain slug.
func (s *Store) GetBySubdomain(ctx context.Context, subdomain string) (Business, error) {
	q := `SELECT ` + businessColumns + ` FROM businesses WHERE subdomain = $1 AND is_active`
	return scanBusiness(s.Pool.QueryRow(ctx, q, subdomain))
}

// Update persists the mutable profile fields and returns the stored row.
// Subdomain and owner are immutable after creation.
func (s *Store) Update(ctx context.Context, b Business) (Business, error) {
	social, err := socialJSON(b.SocialMediaLinks)
	if err != nil {
		return Business{}, err
	}
	q := `
UPDATE businesses SET
	name = $2, description = $3, whatsapp_number = $4, category = $5, template_type = $6,
	logo_url = NULLIF($7, ''), cover_image_url = NULLIF($8, ''), gallery_images = $9,
	youtube_video_url = NULLIF($10, ''), address = NULLIF($11, ''),
	mobile_number = NULLIF($12, ''), business_hours = NULLIF($13, ''),
	location_map_url = NULLIF($14, ''), qr_code_url = NULLIF($15, ''),
	social_media_links = $16,
	tax_percentage = $17, delivery_charges = $18, min_order_for_free_delivery = $19,
	business_latitude = $20, business_longitude = $21,
	free_delivery_radius_km = $22, delivery_charge_beyond_radius = $23, max_delivery_radius_km = $24,
	whatsapp_api_enabled = $25, is_active = $26
WHERE id = $1::uuid
RETURNING ` + businessColumns
	row := s.Pool.QueryRow(ctx, q,
		b.ID,
		b.Name, b.Description, b.WhatsAppNumber, b.Category, b.TemplateType,
		b.LogoURL, b.CoverImageURL, b.GalleryImages,
		b.YouTubeVideoURL, b.Address,
		b.MobileNumber, b.BusinessHours,
		b.LocationMapURL, b.QRCodeURL,
		social,
		b.TaxPercentage, b.DeliveryCharges, b.MinOrderForFreeDelivery,
		b.BusinessLatitude, b.BusinessLongitude,
		b.FreeDeliveryRadiusKm, b.DeliveryChargeBeyondRadius, b.MaxDeliveryRadiusKm,
		b.WhatsAppAPIEnabled, b.IsActive,
	)
	return scanBusiness(row)
}
