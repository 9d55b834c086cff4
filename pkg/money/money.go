// Package money converts currency amounts between their external decimal
// form and the integer minor units (cents) kept in storage.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for every amount.
const Scale = 2

var (
	ErrEmpty     = errors.New("amount required")
	ErrNonFinite = errors.New("amount is not a finite number")
	ErrPrecision = errors.New("amount supports up to 2 decimals")
	ErrOverflow  = errors.New("amount out of range")
)

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// FromFloat rounds v half away from zero to Scale digits and returns it in
// minor units.
func FromFloat(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonFinite
	}

	return toMinor(decimal.NewFromFloat(v).Round(Scale))
}

// Parse reads a decimal string such as "10.15", "+3" or "-0.5" into minor
// units. More than Scale significant fractional digits are rejected.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmpty
	}

	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return 0, fmt.Errorf("parse amount: %w", err)
	}

	if !d.Equal(d.Round(Scale)) {
		return 0, ErrPrecision
	}

	return toMinor(d)
}

// FromDecimal rounds d to Scale digits and returns it in minor units.
func FromDecimal(d decimal.Decimal) (int64, error) {
	return toMinor(d.Round(Scale))
}

// ToDecimal returns minor as a decimal amount in major units.
func ToDecimal(minor int64) decimal.Decimal {
	return decimal.New(minor, -Scale)
}

// Format renders minor units with exactly Scale fractional digits.
func Format(minor int64) string {
	return ToDecimal(minor).StringFixed(Scale)
}

func toMinor(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(Scale)
	if shifted.GreaterThan(maxMinor) || shifted.LessThan(minMinor) {
		return 0, ErrOverflow
	}

	return shifted.IntPart(), nil
}
