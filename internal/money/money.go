// Package money holds the rounding and formatting rules applied to filing amounts.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingMode selects how halves are rounded when presenting amounts.
type RoundingMode string

const (
	// HalfUp rounds halves away from zero (commercial rounding): 0.5 -> 1, -0.5 -> -1.
	HalfUp RoundingMode = "half_up"
	// HalfEven rounds halves to the nearest even digit.
	HalfEven RoundingMode = "half_even"
)

// ParseRoundingMode maps a configuration value to a RoundingMode.
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch RoundingMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", HalfUp:
		return HalfUp, nil
	case HalfEven:
		return HalfEven, nil
	default:
		return "", fmt.Errorf("unknown rounding mode %q", s)
	}
}

// Round rounds d to places decimal places.
func (m RoundingMode) Round(d decimal.Decimal, places int32) decimal.Decimal {
	if m == HalfEven {
		return d.RoundBank(places)
	}
	return d.Round(places)
}

// Whole formats d rounded to whole currency units, e.g. "121".
func (m RoundingMode) Whole(d decimal.Decimal) string {
	return m.Round(d, 0).StringFixed(0)
}

// Cents formats d rounded to two decimal places, e.g. "121.00".
func (m RoundingMode) Cents(d decimal.Decimal) string {
	return m.Round(d, 2).StringFixed(2)
}
