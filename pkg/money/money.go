// Package money converts between integer cents and decimal amounts at the
// HTTP and receipt boundaries.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxCents caps any single amount at 10,000,000.00. Together with the catalog
// stock cap it keeps quantity times price well inside int64.
const MaxCents int64 = 1_000_000_000

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(MaxCents)
)

// ToDecimal converts cents into a two-place decimal amount.
func ToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Format renders cents as a fixed two-place string such as "20.00".
func Format(cents int64) string {
	return ToDecimal(cents).StringFixed(2)
}

// FormatWithCurrency prefixes the formatted amount with a currency code.
func FormatWithCurrency(cents int64, currency string) string {
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return Format(cents)
	}
	return currency + " " + Format(cents)
}

// ParseCents parses a decimal amount ("10", "10.5", "10.50") into cents.
// Amounts with sub-cent precision, negative values or values above MaxCents
// are rejected.
func ParseCents(value string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return FromDecimal(d)
}

// FromDecimal converts a decimal amount into cents.
func FromDecimal(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %s must not be negative", d.String())
	}
	scaled := d.Mul(hundred)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than two decimal places", d.String())
	}
	if scaled.GreaterThan(maxCents) {
		return 0, fmt.Errorf("amount %s exceeds maximum %s", d.String(), Format(MaxCents))
	}
	return scaled.IntPart(), nil
}
