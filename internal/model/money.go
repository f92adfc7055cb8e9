package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount. Amounts are always interpreted in the
// currency of the entity that carries them.
type Money = decimal.Decimal

var hundred = decimal.NewFromInt(100)

// ParseMoney parses "8450.50", "-124.5" or "1,234.00" into Money with at
// most two decimal places.
func ParseMoney(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if !HasCents(d) {
		return decimal.Zero, fmt.Errorf("amount %s has more than 2 decimal places", d)
	}
	return d, nil
}

// HasCents reports whether d has no more than two decimal places.
func HasCents(d Money) bool {
	scaled := d.Mul(hundred)
	return scaled.Equal(scaled.Floor())
}

// Percent returns part/whole*100, or zero when whole is zero.
func Percent(part, whole Money) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// ValidCurrency reports whether code looks like an ISO-4217 code.
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
