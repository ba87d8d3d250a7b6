package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor currency units (cents)
type Money int64

// NewMoneyFromDecimal converts a major-unit decimal amount to Money, rounding to the cent
func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(2).Round(0).IntPart())
}

// ParseMoney parses a major-unit amount such as "25" or "25.50"
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewMoneyFromDecimal(d), nil
}

// Decimal returns the amount in major units
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Percent returns pct percent of m, rounded half away from zero to the cent
func (m Money) Percent(pct int64) Money {
	return NewMoneyFromDecimal(m.Decimal().Mul(decimal.New(pct, -2)).Round(2))
}

// String formats the amount with two decimals, e.g. "55.00"
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Format prefixes the amount with a currency code
func (m Money) Format(currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return fmt.Sprintf("%s %s", currency, m.String())
}

// MarshalJSON writes the amount as a JSON number in major units
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts JSON numbers or numeric strings in major units
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
