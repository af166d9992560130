// Package types provides common type aliases and numeric utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Qty represents a stock quantity with full precision.
// Quantities and costs share the decimal representation so the
// costing arithmetic never crosses numeric type boundaries.
type Qty = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundMoney rounds a monetary value to the currency exponent
// (2 for most currencies, 0 for JPY-style). Intermediate costing
// math keeps full precision; rounding happens only at persist time.
func RoundMoney(v Money, exponent int32) Money {
	return v.Round(exponent)
}
