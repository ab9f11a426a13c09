package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amirhzm/backend-kedai/internal/pricing"
)

func TestComputeTotals(t *testing.T) {
	items := []pricing.Item{
		{Qty: 2, UnitPrice: 1500},
		{Qty: 1, UnitPrice: 999},
	}

	got := pricing.Compute(items, 1000, 500)

	require.Equal(t, pricing.Money(3999), got.Subtotal)
	require.Equal(t, pricing.Money(399), got.Tax)
	require.Equal(t, pricing.Money(500), got.Shipping)
	require.Equal(t, pricing.Money(4898), got.Total)
}

func TestComputeSkipsNonPositiveQty(t *testing.T) {
	items := []pricing.Item{
		{Qty: 0, UnitPrice: 1000},
		{Qty: -3, UnitPrice: 1000},
		{Qty: 1, UnitPrice: 250},
	}

	got := pricing.Compute(items, 0, 0)

	require.Equal(t, pricing.Money(250), got.Subtotal)
	require.Equal(t, pricing.Money(0), got.Tax)
	require.Equal(t, pricing.Money(250), got.Total)
}

func TestComputeEmptyCart(t *testing.T) {
	got := pricing.Compute(nil, 1100, 0)

	require.Equal(t, pricing.Money(0), got.Subtotal)
	require.Equal(t, pricing.Money(0), got.Total)
}
