package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal Money
	Tax      Money
	Shipping Money
	Total    Money
}

// Compute calculates checkout totals given the provided inputs.
func Compute(items []Item, taxBps int, shipping Money) Summary {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}
	tax := (subtotal * Money(taxBps)) / 10000
	total := subtotal + tax + shipping
	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    total,
	}
}
