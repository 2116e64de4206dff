package main

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount rejects amount values that are not parseable as
// non-negative numbers. Raised locally, before any RPC call goes out.
var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a monetary quantity handed to the node. It can be built from a
// string or a float and the two forms are canonically equal: both marshal
// to the same JSON number, so "10" and 10.0 produce identical RPC
// arguments.
type Amount struct {
	d decimal.Decimal
}

// NewAmountFromString parses s as a non-negative decimal amount.
func NewAmountFromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	return Amount{d: d}, nil
}

// NewAmountFromFloat converts f to a non-negative decimal amount.
func NewAmountFromFloat(f float64) (Amount, error) {
	d := decimal.NewFromFloat(f)
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("%w: %v is negative", ErrInvalidAmount, f)
	}
	return Amount{d: d}, nil
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

// Equal reports whether two amounts denote the same quantity, regardless
// of how they were constructed.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

func (a Amount) String() string {
	return a.d.String()
}

// MarshalJSON emits the amount as a bare JSON number in canonical form
// (no trailing zeros, no quotes).
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}
