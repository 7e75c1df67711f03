package pricing

import (
	"math"

	"github.com/waconnect/backend/internal/delivery"
)

// Line is one cart entry. UnitPrice is the effective selling price resolved via
// EffectivePrice; Size and Color are descriptive variants that never affect the
// price but do distinguish cart entries.
type Line struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Qty       int     `json:"qty"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
}

// Totals aggregates the computed pricing components. Total is always
// subtotal + tax + delivery.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Delivery float64 `json:"delivery"`
	Total    float64 `json:"total"`
}

// EffectivePrice resolves the price a unit actually sells for: the sale price
// when present, otherwise the MRP, otherwise the legacy flat price field.
func EffectivePrice(mrp, salePrice, legacyPrice float64) float64 {
	if salePrice > 0 {
		return salePrice
	}
	if mrp > 0 {
		return mrp
	}
	if legacyPrice > 0 {
		return legacyPrice
	}
	return 0
}

// DiscountPercent returns the rounded discount badge percentage. It is defined
// only when the MRP is positive and the sale price undercuts it; every other
// combination is 0.
func DiscountPercent(mrp, salePrice float64) int {
	if mrp <= 0 || salePrice <= 0 || salePrice >= mrp {
		return 0
	}
	return int(math.Round(((mrp - salePrice) / mrp) * 100))
}

// ComputeTotals prices a cart. Lines with a non-positive quantity are treated
// as absent, and a cart with no priced lines owes nothing, delivery included.
// The delivery component comes from the supplied Decision when the business
// uses location based delivery; when the decision marks the customer
// undeliverable the charge is zero (checkout is blocked upstream, the totals
// stay well defined). Without a decision the flat-charge fallback applies,
// waived once the pre-tax subtotal meets the configured minimum order value.
func ComputeTotals(lines []Line, cfg delivery.Config, dec *delivery.Decision) Totals {
	var subtotal float64
	priced := false
	for _, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		priced = true
		subtotal += l.UnitPrice * float64(l.Qty)
	}
	if !priced {
		return Totals{}
	}

	tax := subtotal * cfg.TaxPercent / 100

	var charge float64
	switch {
	case dec != nil && !dec.Deliverable:
		charge = 0
	case dec != nil:
		charge = dec.Charge
	case cfg.MinOrderForFreeDelivery != nil && subtotal >= *cfg.MinOrderForFreeDelivery:
		charge = 0
	default:
		charge = cfg.FlatCharge
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Delivery: charge,
		Total:    subtotal + tax + charge,
	}
}
