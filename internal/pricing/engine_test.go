package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/waconnect/backend/internal/delivery"
	"github.com/waconnect/backend/internal/pricing"
)

func TestComputeTotalsEmptyCart(t *testing.T) {
	min := 500.0
	cfg := delivery.NewConfig(delivery.Config{
		FlatCharge:              40,
		MinOrderForFreeDelivery: &min,
		TaxPercent:              18,
	})
	got := pricing.ComputeTotals(nil, cfg, nil)
	require.Equal(t, pricing.Totals{}, got)

	got = pricing.ComputeTotals([]pricing.Line{}, cfg, nil)
	require.Equal(t, pricing.Totals{}, got)

	// A cart holding only zeroed-out lines owes nothing either.
	got = pricing.ComputeTotals([]pricing.Line{{ProductID: "a", UnitPrice: 100, Qty: 0}}, cfg, nil)
	require.Equal(t, pricing.Totals{}, got)
}

func TestComputeTotalsWithDeliverableDecision(t *testing.T) {
	lines := []pricing.Line{
		{ProductID: "a", UnitPrice: 100, Qty: 2},
		{ProductID: "b", UnitPrice: 50, Qty: 1},
	}
	cfg := delivery.NewConfig(delivery.Config{TaxPercent: 18})
	dec := &delivery.Decision{DistanceKm: 7.5, Deliverable: true, Charge: 30}

	got := pricing.ComputeTotals(lines, cfg, dec)
	require.Equal(t, 250.0, got.Subtotal)
	require.Equal(t, 45.0, got.Tax)
	require.Equal(t, 30.0, got.Delivery)
	require.Equal(t, 325.0, got.Total)
}

func TestComputeTotalsUndeliverableChargesNothing(t *testing.T) {
	lines := []pricing.Line{{ProductID: "a", UnitPrice: 100, Qty: 1}}
	cfg := delivery.NewConfig(delivery.Config{TaxPercent: 10})
	dec := &delivery.Decision{DistanceKm: 20, Deliverable: false, Charge: 0}

	got := pricing.ComputeTotals(lines, cfg, dec)
	require.Equal(t, 100.0, got.Subtotal)
	require.Zero(t, got.Delivery)
	require.Equal(t, 110.0, got.Total)
}

func TestComputeTotalsFallbackDelivery(t *testing.T) {
	min := 200.0
	cfg := delivery.NewConfig(delivery.Config{
		FlatCharge:              40,
		MinOrderForFreeDelivery: &min,
	})

	small := []pricing.Line{{ProductID: "a", UnitPrice: 50, Qty: 1}}
	got := pricing.ComputeTotals(small, cfg, nil)
	require.Equal(t, 40.0, got.Delivery)
	require.Equal(t, 90.0, got.Total)

	// The minimum is compared against the pre-tax subtotal, inclusive.
	exact := []pricing.Line{{ProductID: "a", UnitPrice: 100, Qty: 2}}
	got = pricing.ComputeTotals(exact, cfg, nil)
	require.Zero(t, got.Delivery)
	require.Equal(t, 200.0, got.Total)
}

func TestComputeTotalsSkipsNonPositiveQuantities(t *testing.T) {
	lines := []pricing.Line{
		{ProductID: "a", UnitPrice: 100, Qty: 0},
		{ProductID: "b", UnitPrice: 75, Qty: -2},
		{ProductID: "c", UnitPrice: 25, Qty: 3},
	}
	got := pricing.ComputeTotals(lines, delivery.NewConfig(delivery.Config{}), nil)
	require.Equal(t, 75.0, got.Subtotal)
	require.Equal(t, 75.0, got.Total)
}

func TestEffectivePrice(t *testing.T) {
	require.Equal(t, 150.0, pricing.EffectivePrice(200, 150, 0))
	require.Equal(t, 200.0, pricing.EffectivePrice(200, 0, 0))
	require.Equal(t, 99.0, pricing.EffectivePrice(0, 0, 99))
	require.Zero(t, pricing.EffectivePrice(0, 0, 0))
}

func TestDiscountPercent(t *testing.T) {
	require.Equal(t, 25, pricing.DiscountPercent(200, 150))
	require.Equal(t, 33, pricing.DiscountPercent(150, 100))
	require.Zero(t, pricing.DiscountPercent(0, 150))
	require.Zero(t, pricing.DiscountPercent(200, 200))
	require.Zero(t, pricing.DiscountPercent(200, 250))
	require.Zero(t, pricing.DiscountPercent(-10, 5))
}
