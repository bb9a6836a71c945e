// Package money represents monetary amounts as integer minor units.
//
// Every amount carries two decimal places (cents). Arithmetic on Amount is
// plain integer arithmetic; shopspring/decimal is only used when converting
// from or to an external representation.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places kept by an Amount.
const Places = 2

// Epsilon is the settlement tolerance: balances within one minor unit of
// zero count as settled.
const Epsilon Amount = 1

// Amount is a signed number of minor units. 1550 is 15.50.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// Max is the largest magnitude Parse and UnmarshalJSON accept, ten trillion
// in major units. Sums of many such amounts still fit in an int64.
const Max Amount = 1_000_000_000_000_000

// ErrOutOfRange is returned for amounts whose magnitude exceeds Max.
var ErrOutOfRange = errors.New("amount out of range")

// FromDecimal rounds d to two places (half away from zero) and converts it.
// d must be within range; use Parse for untrusted input.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount(d.Round(Places).Shift(Places).IntPart())
}

// checked converts d, rejecting values outside [-Max, Max].
func checked(d decimal.Decimal) (Amount, error) {
	cents := d.Round(Places).Shift(Places)
	if cents.Abs().GreaterThan(decimal.NewFromInt(int64(Max))) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, d.String())
	}
	return Amount(cents.IntPart()), nil
}

// FromFloat converts a float, rounding to the nearest minor unit.
func FromFloat(f float64) Amount {
	return FromDecimal(decimal.NewFromFloat(f))
}

// FromCents wraps a raw minor-unit count.
func FromCents(cents int64) Amount {
	return Amount(cents)
}

// Parse reads a decimal string such as "12.5" or "-3.333".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return checked(d)
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Cents returns the raw minor-unit count.
func (a Amount) Cents() int64 {
	return int64(a)
}

// Decimal returns the exact decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Places)
}

// Float64 returns the value as a float, for display only.
func (a Amount) Float64() float64 {
	return a.Decimal().InexactFloat64()
}

// Abs returns the magnitude of a.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// InRange reports whether a is within [-Max, Max].
func (a Amount) InRange() bool {
	return a >= -Max && a <= Max
}

// IsSettled reports whether a is within Epsilon of zero.
func (a Amount) IsSettled() bool {
	return a.Abs() <= Epsilon
}

// String renders the amount with exactly two decimals.
func (a Amount) String() string {
	return a.Decimal().StringFixed(Places)
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	v, err := checked(d)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// Sum adds up amounts.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}
