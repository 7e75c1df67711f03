package delivery

import (
	"fmt"
	"strconv"

	"github.com/waconnect/backend/internal/geo"
)

// DefaultFreeRadiusKm applies when a business enables location based delivery
// without configuring a free radius.
const DefaultFreeRadiusKm = 5.0

// Config is a business's delivery policy for the duration of one pricing
// computation. Build it with NewConfig so defaulting happens in exactly one
// place instead of at every read site.
type Config struct {
	// BusinessLocation is nil when the business has not configured
	// location based delivery; only the flat-charge fallback applies then.
	BusinessLocation *geo.Coordinate

	FreeRadiusKm       float64
	ChargeBeyondRadius float64
	// MaxRadiusKm is the hard cutoff; nil means unlimited.
	MaxRadiusKm *float64

	// FlatCharge and MinOrderForFreeDelivery drive the location independent
	// fallback handled by the pricing engine.
	FlatCharge              float64
	MinOrderForFreeDelivery *float64

	TaxPercent float64
}

// Decision is the outcome of one delivery evaluation.
type Decision struct {
	DistanceKm  float64 `json:"distanceKm"`
	Deliverable bool    `json:"isDeliverable"`
	Charge      float64 `json:"charge"`
	Message     string  `json:"message"`
}

// NewConfig normalises a raw config: the free radius falls back to
// DefaultFreeRadiusKm and negative amounts are clamped to zero.
func NewConfig(cfg Config) Config {
	if cfg.FreeRadiusKm <= 0 {
		cfg.FreeRadiusKm = DefaultFreeRadiusKm
	}
	if cfg.ChargeBeyondRadius < 0 {
		cfg.ChargeBeyondRadius = 0
	}
	if cfg.FlatCharge < 0 {
		cfg.FlatCharge = 0
	}
	if cfg.TaxPercent < 0 {
		cfg.TaxPercent = 0
	}
	if cfg.MinOrderForFreeDelivery != nil && *cfg.MinOrderForFreeDelivery <= 0 {
		cfg.MinOrderForFreeDelivery = nil
	}
	return cfg
}

// LocationBased reports whether the radius rules apply. When false the pricing
// engine uses the flat-charge fallback instead of a Decision.
func (c Config) LocationBased() bool {
	return c.BusinessLocation != nil
}

// Evaluate applies the radius rules to a computed customer distance.
// Precedence: max-radius rejection, then free radius (inclusive), then the
// beyond-radius charge. A distance exactly on the max radius is still
// deliverable; only exceeding it is rejected. The distance is rounded to two
// decimals before any comparison so repeated calls with the same logical input
// produce identical decisions.
func Evaluate(cfg Config, distanceKm float64) Decision {
	d := geo.RoundKm(distanceKm)

	if cfg.MaxRadiusKm != nil && d > *cfg.MaxRadiusKm {
		return Decision{
			DistanceKm:  d,
			Deliverable: false,
			Charge:      0,
			Message:     fmt.Sprintf("Sorry, we don't deliver beyond %s km. You are %s away.", trimZeros(*cfg.MaxRadiusKm), geo.FormatDistance(d)),
		}
	}
	if d <= cfg.FreeRadiusKm {
		return Decision{
			DistanceKm:  d,
			Deliverable: true,
			Charge:      0,
			Message:     fmt.Sprintf("Free delivery! You are %s away.", geo.FormatDistance(d)),
		}
	}
	return Decision{
		DistanceKm:  d,
		Deliverable: true,
		Charge:      cfg.ChargeBeyondRadius,
		Message:     fmt.Sprintf("Delivery charge: ₹%s. You are %s away.", trimZeros(cfg.ChargeBeyondRadius), geo.FormatDistance(d)),
	}
}

func trimZeros(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
