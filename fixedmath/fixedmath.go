// Package fixedmath provides the checked integer arithmetic every other
// engine component builds on. All values are non-negative *big.Int wide
// enough to hold products of two 256-bit reserves without truncation;
// committed reserve values are additionally bounded to 256 bits (FitsReserve).
// Nothing here wraps silently: violations fail with engine.ErrOverflow or
// engine.ErrDivisionByZero.
package fixedmath

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/superswap/superswap-engine-go/engine"
)

var (
	one   = big.NewInt(1)
	two   = big.NewInt(2)
	three = big.NewInt(3)
)

// checkOperand rejects nil or negative inputs. A negative operand can only be
// produced by a bug in the caller, but the failure mode must be an error, not
// a wrapped value.
func checkOperand(x *big.Int) error {
	if x == nil {
		return fmt.Errorf("%w: nil operand", engine.ErrOverflow)
	}
	if x.Sign() < 0 {
		return fmt.Errorf("%w: negative operand %s", engine.ErrOverflow, x)
	}
	return nil
}

// Add returns x + y.
func Add(x, y *big.Int) (*big.Int, error) {
	if err := checkOperand(x); err != nil {
		return nil, err
	}
	if err := checkOperand(y); err != nil {
		return nil, err
	}
	return new(big.Int).Add(x, y), nil
}

// Sub returns x - y, failing with engine.ErrOverflow when the result would
// be negative.
func Sub(x, y *big.Int) (*big.Int, error) {
	if err := checkOperand(x); err != nil {
		return nil, err
	}
	if err := checkOperand(y); err != nil {
		return nil, err
	}
	if x.Cmp(y) < 0 {
		return nil, fmt.Errorf("%w: %s - %s underflows", engine.ErrOverflow, x, y)
	}
	return new(big.Int).Sub(x, y), nil
}

// Mul returns x * y. The result may exceed 256 bits (a product of two full
// reserves); callers committing it to reserve state must pass it through
// FitsReserve first.
func Mul(x, y *big.Int) (*big.Int, error) {
	if err := checkOperand(x); err != nil {
		return nil, err
	}
	if err := checkOperand(y); err != nil {
		return nil, err
	}
	return new(big.Int).Mul(x, y), nil
}

// Div returns x / y with floor semantics, failing with
// engine.ErrDivisionByZero when y is zero.
func Div(x, y *big.Int) (*big.Int, error) {
	if err := checkOperand(x); err != nil {
		return nil, err
	}
	if err := checkOperand(y); err != nil {
		return nil, err
	}
	if y.Sign() == 0 {
		return nil, fmt.Errorf("%w: %s / 0", engine.ErrDivisionByZero, x)
	}
	return new(big.Int).Div(x, y), nil
}

// FitsReserve verifies that x can be committed as a 256-bit ledger value.
// The uint256 conversion is the authority on the bound.
func FitsReserve(x *big.Int) error {
	if err := checkOperand(x); err != nil {
		return err
	}
	if _, overflow := uint256.FromBig(x); overflow {
		return fmt.Errorf("%w: %s exceeds 256 bits", engine.ErrOverflow, x)
	}
	return nil
}

// Isqrt returns the integer square root of n: the largest r with r*r <= n.
// Newton's method seeded at n/2 + 1; the seed and iteration order are part
// of the share-amount contract and must not change.
func Isqrt(n *big.Int) *big.Int {
	if n == nil || n.Sign() <= 0 {
		return new(big.Int)
	}
	if n.Cmp(three) <= 0 {
		return new(big.Int).Set(one)
	}

	z := new(big.Int).Set(n)
	x := new(big.Int).Div(n, two)
	x.Add(x, one)
	q := new(big.Int)
	for x.Cmp(z) < 0 {
		z.Set(x)
		q.Div(n, x)
		x.Add(x, q)
		x.Div(x, two)
	}
	return z
}
