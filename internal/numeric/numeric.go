// Package numeric provides checked arbitrary-precision integer helpers for
// the accounting engine. All amounts in the system are non-negative big
// integers; division floors; a subtraction that would go negative is an
// error, never a wrap.
package numeric

import (
	"fmt"
	"math/big"
)

// Zero returns a fresh zero-valued integer.
func Zero() *big.Int {
	return new(big.Int)
}

// Clone returns an independent copy of x. A nil x is treated as zero.
func Clone(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(x)
}

// IsZero reports whether x is nil or zero.
func IsZero(x *big.Int) bool {
	return x == nil || x.Sign() == 0
}

// IsPositive reports whether x is strictly greater than zero.
func IsPositive(x *big.Int) bool {
	return x != nil && x.Sign() > 0
}

// Add returns a + b as a new integer.
func Add(a, b *big.Int) *big.Int {
	return new(big.Int).Add(a, b)
}

// Sub returns a - b as a new integer, or an error if the result would be
// negative.
func Sub(a, b *big.Int) (*big.Int, error) {
	r := new(big.Int).Sub(a, b)
	if r.Sign() < 0 {
		return nil, fmt.Errorf("subtraction underflow: %s - %s", a, b)
	}
	return r, nil
}

// MulDiv returns floor(a * b / den) as a new integer. den must be positive.
// Operands are non-negative throughout the engine, so truncation toward
// zero and floor coincide.
func MulDiv(a, b, den *big.Int) *big.Int {
	if den.Sign() <= 0 {
		panic("numeric: MulDiv with non-positive denominator")
	}
	r := new(big.Int).Mul(a, b)
	return r.Quo(r, den)
}

// Parse converts a base-10 string into a non-negative integer amount.
func Parse(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	return v, nil
}
