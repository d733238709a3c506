package router

import (
	"fmt"
	"math/big"

	"github.com/superswap/superswap-engine-go/engine"
	"github.com/superswap/superswap-engine-go/fixedmath"
	"github.com/superswap/superswap-engine-go/pair"
)

// AddLiquidity deposits a balanced amount of both tokens into their pair,
// creating the pair on first use, and credits liquidity shares to the
// recipient. It returns the amounts actually deposited and the shares
// minted.
//
// Against a funded pair the deposit is re-balanced to the current reserve
// ratio: the second token's matching amount is computed from the first, and
// when that overshoots the caller's cap the first token's amount is
// recomputed from the second instead. The caller's minimums bound whichever
// side got reduced.
func (r *Router) AddLiquidity(tokenA, tokenB engine.Token, amountADesired, amountBDesired, amountAMin, amountBMin *big.Int, from, to engine.Account, deadline int64) (amountA, amountB, shares *big.Int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLiquidity("add_liquidity",
		r.normalizeToken(tokenA), r.normalizeToken(tokenB),
		amountADesired, amountBDesired, amountAMin, amountBMin,
		from, to, deadline, false)
}

// AddLiquidityETH is AddLiquidity with the second side paid in native value:
// the used portion of nativeDesired is wrapped at the boundary and deposited
// alongside the token.
func (r *Router) AddLiquidityETH(token engine.Token, amountTokenDesired, amountTokenMin, nativeDesired, nativeMin *big.Int, from, to engine.Account, deadline int64) (amountToken, amountNative, shares *big.Int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLiquidity("add_liquidity_eth",
		r.normalizeToken(token), r.weth,
		amountTokenDesired, nativeDesired, amountTokenMin, nativeMin,
		from, to, deadline, true)
}

// addLiquidity runs the shared deposit flow. Caller holds r.mu; tokens are
// already normalized.
func (r *Router) addLiquidity(op string, tokenA, tokenB engine.Token, amountADesired, amountBDesired, amountAMin, amountBMin *big.Int, from, to engine.Account, deadline int64, wrapB bool) (*big.Int, *big.Int, *big.Int, error) {
	if err := r.checkDeadline(deadline); err != nil {
		return nil, nil, nil, r.reject(op, err)
	}
	p, _, err := r.registry.GetOrCreate(tokenA, tokenB)
	if err != nil {
		return nil, nil, nil, r.reject(op, err)
	}
	if err := checkAmount(amountADesired); err != nil {
		return nil, nil, nil, r.reject(op, err)
	}
	if err := checkAmount(amountBDesired); err != nil {
		return nil, nil, nil, r.reject(op, err)
	}

	amountA, amountB, err := chooseDeposit(p, tokenA, amountADesired, amountBDesired, amountAMin, amountBMin)
	if err != nil {
		return nil, nil, nil, r.reject(op, err)
	}

	// Prove the mint viable before any custody movement commits.
	amount0, amount1 := orientAmounts(p, tokenA, amountA, amountB)
	if _, err := p.QuoteMint(amount0, amount1); err != nil {
		return nil, nil, nil, r.reject(op, err)
	}

	batch := r.ledger.Begin()
	if wrapB {
		batch.Wrap(r.weth, amountB, from)
	}
	batch.Transfer(tokenA, amountA, from, p.Custodian())
	batch.Transfer(tokenB, amountB, from, p.Custodian())
	if err := batch.Commit(); err != nil {
		return nil, nil, nil, r.reject(op, err)
	}

	minted, err := p.Mint(amount0, amount1, to)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("mint on %s failed after settlement: %w", p.Key(), err)
	}

	if r.metrics != nil {
		r.metrics.LiquidityAdds.Inc()
	}
	r.logger.Info("liquidity added",
		"op", op,
		"pair", p.Key().String(),
		"amount_a", amountA.String(),
		"amount_b", amountB.String(),
		"shares", minted.String(),
		"recipient", to.Hex(),
	)
	return amountA, amountB, minted, nil
}

// chooseDeposit picks the deposit amounts for a pair. An empty pair takes
// both desired amounts as given; a funded pair re-balances to the reserve
// ratio, reducing exactly one side below its desired cap.
func chooseDeposit(p *pair.Pair, tokenA engine.Token, amountADesired, amountBDesired, amountAMin, amountBMin *big.Int) (amountA, amountB *big.Int, err error) {
	reserveA, reserveB, err := p.OrientedReserves(tokenA)
	if err != nil {
		return nil, nil, err
	}
	if reserveA.Sign() == 0 {
		// First deposit sets the price; nothing to re-balance against.
		return amountADesired, amountBDesired, nil
	}

	amountBOptimal, err := scaleByRatio(amountADesired, reserveB, reserveA)
	if err != nil {
		return nil, nil, err
	}
	if amountBOptimal.Cmp(amountBDesired) < 0 {
		if amountBOptimal.Cmp(orZero(amountBMin)) < 0 {
			return nil, nil, fmt.Errorf("%w: matched %s < minimum %s", engine.ErrInsufficientAmountB, amountBOptimal, amountBMin)
		}
		amountA, amountB = amountADesired, amountBOptimal
	} else {
		amountAOptimal, err := scaleByRatio(amountBDesired, reserveA, reserveB)
		if err != nil {
			return nil, nil, err
		}
		if amountAOptimal.Cmp(orZero(amountAMin)) < 0 {
			return nil, nil, fmt.Errorf("%w: matched %s < minimum %s", engine.ErrInsufficientAmountA, amountAOptimal, amountAMin)
		}
		amountA, amountB = amountAOptimal, amountBDesired
	}

	if amountA.Cmp(orZero(amountAMin)) < 0 || amountB.Cmp(orZero(amountBMin)) < 0 {
		return nil, nil, fmt.Errorf("%w: deposit %s/%s under minimums %s/%s", engine.ErrBelowMinimum, amountA, amountB, amountAMin, amountBMin)
	}
	return amountA, amountB, nil
}

// scaleByRatio computes amount * numerator / denominator with checked
// arithmetic; the caller guarantees a nonzero denominator.
func scaleByRatio(amount, numerator, denominator *big.Int) (*big.Int, error) {
	scaled, err := fixedmath.Mul(amount, numerator)
	if err != nil {
		return nil, err
	}
	return fixedmath.Div(scaled, denominator)
}

// orientAmounts maps (amountA, amountB) onto the pair's canonical
// (token0, token1) order.
func orientAmounts(p *pair.Pair, tokenA engine.Token, amountA, amountB *big.Int) (amount0, amount1 *big.Int) {
	if tokenA == p.Token0() {
		return amountA, amountB
	}
	return amountB, amountA
}

// RemoveLiquidity burns the caller's liquidity shares and pays the
// proportional slice of both reserves to the recipient. Any pair-lookup
// failure, including malformed token arguments, surfaces as
// engine.ErrPairNotFound.
func (r *Router) RemoveLiquidity(tokenA, tokenB engine.Token, shares, amountAMin, amountBMin *big.Int, from, to engine.Account, deadline int64) (amountA, amountB *big.Int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLiquidity("remove_liquidity",
		r.normalizeToken(tokenA), r.normalizeToken(tokenB),
		shares, amountAMin, amountBMin,
		from, to, deadline, false)
}

// RemoveLiquidityETH is RemoveLiquidity against the token's wrapped-native
// pair, unwrapping the native side to the recipient.
func (r *Router) RemoveLiquidityETH(token engine.Token, shares, amountTokenMin, nativeMin *big.Int, from, to engine.Account, deadline int64) (amountToken, amountNative *big.Int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLiquidity("remove_liquidity_eth",
		r.normalizeToken(token), r.weth,
		shares, amountTokenMin, nativeMin,
		from, to, deadline, true)
}

// removeLiquidity runs the shared withdrawal flow. Caller holds r.mu;
// tokens are already normalized.
func (r *Router) removeLiquidity(op string, tokenA, tokenB engine.Token, shares, amountAMin, amountBMin *big.Int, from, to engine.Account, deadline int64, unwrapB bool) (*big.Int, *big.Int, error) {
	if err := r.checkDeadline(deadline); err != nil {
		return nil, nil, r.reject(op, err)
	}
	p, err := r.registry.Get(tokenA, tokenB)
	if err != nil {
		// Withdrawal is only meaningful against an existing pair; every
		// lookup failure collapses to the same kind.
		return nil, nil, r.reject(op, fmt.Errorf("%w: no pair for %s/%s", engine.ErrPairNotFound, tokenA.Hex(), tokenB.Hex()))
	}

	amount0, amount1, err := p.QuoteBurn(shares, from)
	if err != nil {
		return nil, nil, r.reject(op, err)
	}
	amountA, amountB := amount0, amount1
	if tokenA != p.Token0() {
		amountA, amountB = amount1, amount0
	}
	if amountA.Cmp(orZero(amountAMin)) < 0 || amountB.Cmp(orZero(amountBMin)) < 0 {
		return nil, nil, r.reject(op, fmt.Errorf("%w: withdrawal %s/%s under minimums %s/%s", engine.ErrInsufficientOutput, amountA, amountB, amountAMin, amountBMin))
	}

	batch := r.ledger.Begin()
	batch.Transfer(tokenA, amountA, p.Custodian(), to)
	batch.Transfer(tokenB, amountB, p.Custodian(), to)
	if unwrapB {
		batch.Unwrap(r.weth, amountB, to)
	}
	if err := batch.Commit(); err != nil {
		return nil, nil, r.reject(op, err)
	}

	if _, _, err := p.Burn(shares, from); err != nil {
		return nil, nil, fmt.Errorf("burn on %s failed after settlement: %w", p.Key(), err)
	}

	if r.metrics != nil {
		r.metrics.LiquidityRemoves.Inc()
	}
	r.logger.Info("liquidity removed",
		"op", op,
		"pair", p.Key().String(),
		"shares", shares.String(),
		"amount_a", amountA.String(),
		"amount_b", amountB.String(),
		"recipient", to.Hex(),
	)
	return amountA, amountB, nil
}
