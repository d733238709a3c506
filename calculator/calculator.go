// Package calculator holds the pure constant-product quote helpers shared by
// the router's multi-hop quoting and external price-query callers. Both
// functions are stateless: identical reserves always produce identical
// quotes.
package calculator

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/superswap/superswap-engine-go/engine"
)

// 0.3% swap fee: effective input is amountIn * 997 / 1000.
var (
	feeNumerator   = big.NewInt(997)
	feeDenominator = big.NewInt(1000)
	oneWei         = big.NewInt(1)
)

// calculator holds reusable big.Int scratch values to avoid allocations in
// the quoting hot path. Instances are NOT safe for concurrent use by
// themselves; they are managed by calculatorPool.
type calculator struct {
	amountInWithFee *big.Int
	numerator       *big.Int
	denominator     *big.Int
}

// calculatorPool manages scratch calculators so concurrent quoting stays
// allocation-free.
var calculatorPool = sync.Pool{
	New: func() any {
		return &calculator{
			amountInWithFee: new(big.Int),
			numerator:       new(big.Int),
			denominator:     new(big.Int),
		}
	},
}

func checkAmount(amount *big.Int) error {
	if amount == nil {
		return fmt.Errorf("%w: nil amount", engine.ErrZeroAmount)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("%w: negative amount %s", engine.ErrZeroAmount, amount)
	}
	return nil
}

// GetAmountOut returns the maximum output obtainable for amountIn against the
// given reserves, after the 0.3% fee, floored:
//
//	amountOut = amountIn*997*reserveOut / (reserveIn*1000 + amountIn*997)
//
// Zero reserves quote a zero output rather than an error; the mutating layer
// decides whether a zero amount is acceptable.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if err := checkAmount(amountIn); err != nil {
		return nil, err
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return new(big.Int), nil
	}

	calc := calculatorPool.Get().(*calculator)
	defer calculatorPool.Put(calc)

	calc.amountInWithFee.Mul(amountIn, feeNumerator)
	calc.numerator.Mul(calc.amountInWithFee, reserveOut)
	calc.denominator.Mul(reserveIn, feeDenominator)
	calc.denominator.Add(calc.denominator, calc.amountInWithFee)

	// denominator > 0 whenever reserveIn > 0, so the division is total here.
	return new(big.Int).Div(calc.numerator, calc.denominator), nil
}

// GetAmountIn returns the input required to obtain exactly amountOut against
// the given reserves:
//
//	amountIn = floor(reserveIn*amountOut*1000 / ((reserveOut-amountOut)*997)) + 1
//
// The +1 rounds up so the pool invariant still holds after the real swap;
// this ceiling bias is intentional and must be preserved exactly.
// Draining the reserve (amountOut == reserveOut) fails with
// engine.ErrDivisionByZero and exceeding it with engine.ErrOverflow, the same
// kinds the underlying arithmetic would produce. A nil reserve quotes as a
// zero reserve, matching GetAmountOut.
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if err := checkAmount(amountOut); err != nil {
		return nil, err
	}
	if reserveIn == nil {
		reserveIn = new(big.Int)
	}
	if reserveOut == nil {
		reserveOut = new(big.Int)
	}
	switch cmp := amountOut.Cmp(reserveOut); {
	case cmp == 0:
		return nil, fmt.Errorf("%w: amountOut %s drains reserve", engine.ErrDivisionByZero, amountOut)
	case cmp > 0:
		return nil, fmt.Errorf("%w: amountOut %s exceeds reserve %s", engine.ErrOverflow, amountOut, reserveOut)
	}

	calc := calculatorPool.Get().(*calculator)
	defer calculatorPool.Put(calc)

	calc.numerator.Mul(reserveIn, amountOut)
	calc.numerator.Mul(calc.numerator, feeDenominator)
	calc.denominator.Sub(reserveOut, amountOut)
	calc.denominator.Mul(calc.denominator, feeNumerator)

	amountIn := new(big.Int).Div(calc.numerator, calc.denominator)
	return amountIn.Add(amountIn, oneWei), nil
}
