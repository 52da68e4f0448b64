package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits every amount carries.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// CentsToAmount converts a cents value into a two place amount.
func CentsToAmount(cents decimal.Decimal) decimal.Decimal {
	return cents.Div(hundred).Round(MoneyPlaces)
}

// AmountToCents converts a two place amount back to whole cents.
func AmountToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// NewAmountFromCents builds an amount from an integer cents count.
func NewAmountFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -MoneyPlaces)
}

// ParseAmount parses a decimal string such as "12.50" and rounds it to cents.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount string '%s': %w", s, err)
	}
	return d.Round(MoneyPlaces), nil
}

// MinAmount returns the smaller of a and b.
func MinAmount(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// FormatAmount renders an amount with two fractional digits.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(MoneyPlaces)
}
