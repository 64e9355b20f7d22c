// Package money converts between stored minor units (cents) and the decimal
// strings used on the wire and in configuration.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits of every amount.
const Scale = 2

// maxExponent bounds the decimal exponent accepted before any arithmetic.
// Any int64 fits in 19 digits, so larger exponents can never be in range.
const maxExponent = 18

var (
	ErrEmptyAmount   = errors.New("amount required")
	ErrTooPrecise    = errors.New("amount supports up to 2 decimals")
	ErrOutOfRange    = errors.New("amount out of range")
	ErrInvalidAmount = errors.New("invalid amount")
)

// Parse converts a decimal string such as "7.5" or "-10.00" into minor units.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmptyAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	return FromDecimal(d)
}

// FromDecimal converts d into minor units, rejecting sub-cent precision.
func FromDecimal(d decimal.Decimal) (int64, error) {
	// Round and Shift allocate 10^|exponent|, so "1e1000000" must stop here.
	switch exp := d.Exponent(); {
	case exp > maxExponent:
		return 0, ErrOutOfRange
	case exp < -maxExponent:
		return 0, ErrTooPrecise
	}

	if !d.Equal(d.Round(Scale)) {
		return 0, ErrTooPrecise
	}

	minor := d.Shift(Scale).BigInt()
	if !minor.IsInt64() {
		return 0, ErrOutOfRange
	}

	return minor.Int64(), nil
}

// ToDecimal converts minor units back into a decimal value.
func ToDecimal(minor int64) decimal.Decimal {
	return decimal.New(minor, -Scale)
}

// Format renders minor units with exactly two fractional digits.
func Format(minor int64) string {
	return ToDecimal(minor).StringFixed(Scale)
}
