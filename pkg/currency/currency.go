// Package currency validates ISO 4217 codes and formats amounts for display.
package currency

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Normalize upper-cases and trims a currency code
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code is a currency known to go-money
func Valid(code string) bool {
	return code != "" && money.GetCurrency(Normalize(code)) != nil
}

// Validate returns an error for unknown currency codes
func Validate(code string) error {
	if !Valid(code) {
		return fmt.Errorf("unknown currency %q", code)
	}
	return nil
}

// Fraction returns the number of minor-unit digits of code (2 when unknown)
func Fraction(code string) int32 {
	c := money.GetCurrency(Normalize(code))
	if c == nil {
		return 2
	}
	return int32(c.Fraction)
}

// Round rounds amount to the minor unit of code
func Round(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Round(Fraction(code))
}

// Format renders amount using the currency's symbol and separators, e.g. "$1,234.50".
func Format(amount decimal.Decimal, code string) string {
	c := money.GetCurrency(Normalize(code))
	if c == nil {
		return fmt.Sprintf("%s %s", amount.StringFixed(2), code)
	}
	minor := amount.Shift(int32(c.Fraction)).Round(0).IntPart()
	return c.Formatter().Format(minor)
}
