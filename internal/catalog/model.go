// Package catalog manages per-business product listings with MRP and sale
// pricing, bulk tiers, and a Redis-backed public listing cache.
package catalog

import "time"

// BulkTier grants a per-unit price once the ordered quantity reaches
// MinQuantity.
type BulkTier struct {
	MinQuantity  int     `json:"min_quantity"`
	PricePerUnit float64 `json:"price_per_unit"`
}

// Product is one catalog entry belonging to a business.
type Product struct {
	ID                 string     `json:"id"`
	BusinessID         string     `json:"business_id"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	MRP                float64    `json:"mrp"`
	SalePrice          float64    `json:"sale_price"`
	DiscountPercentage float64    `json:"discount_percentage"`
	BulkPricing        []BulkTier `json:"bulk_pricing"`
	Sizes              []string   `json:"sizes,omitempty"`
	Colors             []string   `json:"colors,omitempty"`
	ImageURL           string     `json:"image_url,omitempty"`
	Category           string     `json:"category,omitempty"`
	ProductType        string     `json:"product_type"`
	IsAvailable        bool       `json:"is_available"`
	CreatedAt          time.Time  `json:"created_at"`
}

// UnitPrice returns the price a storefront should charge per unit for the
// given quantity, honouring the best matching bulk tier.
func (p Product) UnitPrice(qty int) float64 {
	price := p.SalePrice
	if price <= 0 {
		price = p.MRP
	}
	best := 0
	for _, tier := range p.BulkPricing {
		if qty >= tier.MinQuantity && tier.MinQuantity > best {
			best = tier.MinQuantity
			price = tier.PricePerUnit
		}
	}
	return price
}
