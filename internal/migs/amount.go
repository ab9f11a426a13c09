package migs

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount marks an order total the gateway cannot represent.
var ErrInvalidAmount = fmt.Errorf("migs: amount must be a non-negative decimal")

// MinorUnits converts a major-unit decimal amount to the gateway's integer
// minor-unit representation. Rounding is half-away-from-zero, so 19.995
// becomes 2000; totals are expected to carry at most two decimal places
// anyway since the store prices in cents.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, ErrInvalidAmount
	}
	return amount.Shift(2).Round(0).IntPart(), nil
}

// MajorUnits converts an integer minor-unit amount back to major units.
func MajorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
