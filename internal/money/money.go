// Package money implements fixed-point monetary amounts in integer minor
// units (cents). Arithmetic never leaves integer space; decimal strings are
// produced or parsed only at I/O boundaries.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an immutable amount expressed in cents at a fixed 2-decimal scale.
// The zero value is zero cents.
type Money struct {
	cents int64
}

// Zero is the zero amount.
var Zero = Money{}

// FromCents builds a Money from an amount in minor units.
func FromCents(cents int64) Money {
	return Money{cents: cents}
}

// FromFloat converts a float amount of major units to cents,
// rounding half away from zero.
func FromFloat(v float64) Money {
	d := decimal.NewFromFloat(v).Round(2)
	return Money{cents: d.Shift(2).IntPart()}
}

// FromString parses a decimal string such as "123.45".
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return Money{cents: d.Round(2).Shift(2).IntPart()}, nil
}

// MustFromString parses a decimal string, panicking on error.
// Intended for constants and tests.
func MustFromString(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 {
	return m.cents
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{cents: m.cents - other.cents}
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{cents: -m.cents}
}

// MulScalar multiplies by a scalar quantity and rounds the result to cents,
// half away from zero. Used for quantity x unit price.
func (m Money) MulScalar(qty float64) Money {
	d := decimal.New(m.cents, -2).Mul(decimal.NewFromFloat(qty)).Round(2)
	return Money{cents: d.Shift(2).IntPart()}
}

// MulRate applies a percentage rate (amount * rate / 100) and rounds to
// cents, half away from zero. Used for VAT and rate discounts.
func (m Money) MulRate(pct float64) Money {
	d := decimal.New(m.cents, -2).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100)).
		Round(2)
	return Money{cents: d.Shift(2).IntPart()}
}

// Prorate returns m * (num / den) rounded to cents, half away from zero.
// A zero denominator yields zero.
func (m Money) Prorate(num, den Money) Money {
	if den.cents == 0 {
		return Zero
	}
	d := decimal.New(m.cents, 0).
		Mul(decimal.New(num.cents, 0)).
		Div(decimal.New(den.cents, 0)).
		Round(0)
	return Money{cents: d.IntPart()}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.cents == 0
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.cents < 0
}

// Equal reports exact equality in cents.
func (m Money) Equal(other Money) bool {
	return m.cents == other.cents
}

// String renders the amount as a 2-decimal string, e.g. "100.00".
func (m Money) String() string {
	return decimal.New(m.cents, -2).StringFixed(2)
}

// MarshalJSON renders the amount as a JSON string, e.g. "100.00".
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts a JSON decimal string such as "123.45".
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := FromString(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
