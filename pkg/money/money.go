// Package money provides decimal helpers for auction price arithmetic.
// All currency amounts in the bidding core go through decimal.Decimal so that
// repeated small increments (0.03 per bid) stay exact.
package money

import (
	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places kept for currency amounts.
// 8 places covers ETH/BTC denominated prices.
const Precision int32 = 8

// FromFloat converts a float into a rounded monetary decimal.
func FromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(Precision)
}

// FromString parses a monetary decimal, returning ok=false on bad input.
func FromString(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d.Round(Precision), true
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThanOrEqual(b) {
		return a
	}
	return b
}

// Equal reports whether a and b are the same amount after rounding.
func Equal(a, b decimal.Decimal) bool {
	return a.Round(Precision).Equal(b.Round(Precision))
}
