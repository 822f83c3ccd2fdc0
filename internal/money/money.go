// Package money provides fixed-point currency arithmetic in minor units.
//
// All balances and totals in the ledger are represented as an integer number
// of cents, so repeated addition never accumulates binary floating-point
// drift. Conversion from decimal input happens exactly once, at the edge.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// minorUnitExponent is the number of decimal places in a minor unit (cents).
const minorUnitExponent = 2

// ErrInvalidAmount is returned when an input cannot be normalized to minor
// units: unparsable strings, NaN, or infinities. Callers check it before any
// balance is touched. Re-exported by the domain package alongside the other
// validation errors.
var ErrInvalidAmount = errors.New("invalid amount")

// Money is an amount of currency in minor units.
//
// The zero value is zero currency. Money is comparable with ==.
type Money struct {
	cents int64
}

// Zero is the zero amount.
var Zero = Money{}

// FromCents returns the amount of cents as Money.
func FromCents(cents int64) Money {
	return Money{cents: cents}
}

// FromDecimal normalizes d to minor units, rounding half away from zero.
// Normalization is idempotent and maps negative zero to zero.
func FromDecimal(d decimal.Decimal) Money {
	return Money{cents: d.Round(minorUnitExponent).Shift(minorUnitExponent).IntPart()}
}

// FromFloat converts f to Money. Non-finite values are rejected with
// ErrInvalidAmount before any arithmetic happens.
func FromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, f)
	}
	return FromDecimal(decimal.NewFromFloat(f)), nil
}

// Parse converts a decimal string such as "123.45" to Money.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d), nil
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 { return m.cents }

// Decimal returns the amount as a decimal in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.cents, -minorUnitExponent)
}

// Add returns m + x.
func (m Money) Add(x Money) Money { return Money{cents: m.cents + x.cents} }

// Sub returns m - x.
func (m Money) Sub(x Money) Money { return Money{cents: m.cents - x.cents} }

// Neg returns -m.
func (m Money) Neg() Money { return Money{cents: -m.cents} }

// IsZero reports whether m is zero.
func (m Money) IsZero() bool { return m.cents == 0 }

// IsNegative reports whether m is below zero.
func (m Money) IsNegative() bool { return m.cents < 0 }

// Cmp compares m and x: -1 if m < x, 0 if equal, +1 if m > x.
func (m Money) Cmp(x Money) int {
	switch {
	case m.cents < x.cents:
		return -1
	case m.cents > x.cents:
		return 1
	default:
		return 0
	}
}

// String formats the amount with two decimal places, e.g. "12.30".
func (m Money) String() string {
	return m.Decimal().StringFixed(minorUnitExponent)
}

// MarshalJSON encodes the amount as a decimal string so values survive
// round-trips through codecs that would otherwise coerce numbers to float64.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a decimal string or a bare JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}

	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	*m = FromDecimal(d)
	return nil
}

// Sum adds the given amounts in minor units.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
