package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in integer cents. Zero is a valid amount.
type Money struct {
	Cents int64
}

var maxAmount = decimal.New(1, 13)

// ParseAmount converts user or receipt text to Money.
//
// Both "12.34" and "12,34" are accepted, as is "1,234.50" where the comma is a
// thousands separator. A leading currency symbol is ignored. Rounding is
// half-up on the third decimal. Signs and exponents are rejected.
//
//	ParseAmount("12,34")  -> 1234 cents
//	ParseAmount("$12.345") -> 1235 cents
//	ParseAmount("0")      -> 0 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£₹ ")
	if s == "" || strings.ContainsAny(s, "+-eE") {
		return Money{}, ErrInvalidAmount
	}
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || d.GreaterThan(maxAmount) {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d), nil
}

// MoneyFromDecimal rounds d to whole cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
