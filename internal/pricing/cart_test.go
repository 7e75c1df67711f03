package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/waconnect/backend/internal/delivery"
	"github.com/waconnect/backend/internal/pricing"
)

func cfgNoDelivery() delivery.Config {
	return delivery.NewConfig(delivery.Config{})
}

func TestAddMergesOnlyIdenticalVariants(t *testing.T) {
	cart := pricing.Add(nil, pricing.Line{ProductID: "shirt", UnitPrice: 499, Qty: 1, Size: "M"})
	cart = pricing.Add(cart, pricing.Line{ProductID: "shirt", UnitPrice: 499, Qty: 1, Size: "L"})
	cart = pricing.Add(cart, pricing.Line{ProductID: "shirt", UnitPrice: 499, Qty: 2, Size: "M"})

	require.Len(t, cart, 2)
	require.Equal(t, 3, cart[0].Qty)
	require.Equal(t, "M", cart[0].Size)
	require.Equal(t, 1, cart[1].Qty)
}

func TestAddDoesNotMutateInput(t *testing.T) {
	original := []pricing.Line{{ProductID: "a", Qty: 1}}
	_ = pricing.Add(original, pricing.Line{ProductID: "a", Qty: 5})
	require.Equal(t, 1, original[0].Qty)
}

func TestSetQtyRemovesAtZero(t *testing.T) {
	cart := []pricing.Line{
		{ProductID: "a", UnitPrice: 10, Qty: 2},
		{ProductID: "b", UnitPrice: 20, Qty: 1},
	}
	updated := pricing.SetQty(cart, pricing.Key{ProductID: "a"}, 0)
	require.Len(t, updated, 1)
	require.Equal(t, "b", updated[0].ProductID)

	// A removed line no longer contributes to the subtotal.
	totals := pricing.ComputeTotals(updated, cfgNoDelivery(), nil)
	require.Equal(t, 20.0, totals.Subtotal)

	// Repeating the removal is a no-op.
	again := pricing.SetQty(updated, pricing.Key{ProductID: "a"}, 0)
	require.Equal(t, updated, again)
}

func TestSetQtyReplacesQuantity(t *testing.T) {
	cart := []pricing.Line{{ProductID: "a", Qty: 2, Size: "M"}}
	updated := pricing.SetQty(cart, pricing.Key{ProductID: "a", Size: "M"}, 7)
	require.Equal(t, 7, updated[0].Qty)
	require.Equal(t, 2, cart[0].Qty)
}

func TestRemove(t *testing.T) {
	cart := []pricing.Line{
		{ProductID: "a", Qty: 1, Color: "red"},
		{ProductID: "a", Qty: 1, Color: "blue"},
	}
	updated := pricing.Remove(cart, pricing.Key{ProductID: "a", Color: "red"})
	require.Len(t, updated, 1)
	require.Equal(t, "blue", updated[0].Color)
}
