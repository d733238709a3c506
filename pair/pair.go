// Package pair implements the reserve and liquidity-share ledger for one
// canonical token combination. A pair owns exactly two reserves and the
// outstanding share supply; reserves and shares mutate only through Mint,
// Burn, and Swap, each of which either commits completely or leaves the pair
// untouched.
package pair

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/superswap/superswap-engine-go/calculator"
	"github.com/superswap/superswap-engine-go/engine"
	"github.com/superswap/superswap-engine-go/fixedmath"
)

// Pair is the authoritative ledger for one unordered token combination.
// The zero value is not usable; construct with New.
//
// Invariant: reserve0 == 0 ⇔ reserve1 == 0 ⇔ totalShares == 0. A pair is
// either fully empty or fully funded, and an emptied pair can be refunded.
type Pair struct {
	mu        sync.RWMutex
	key       engine.PairKey
	custodian engine.Account

	reserve0    *big.Int
	reserve1    *big.Int
	totalShares *big.Int
	balances    map[engine.Account]*big.Int
}

// New creates an empty pair for the given canonical key.
func New(key engine.PairKey) *Pair {
	return &Pair{
		key:         key,
		custodian:   key.CustodyAccount(),
		reserve0:    new(big.Int),
		reserve1:    new(big.Int),
		totalShares: new(big.Int),
		balances:    make(map[engine.Account]*big.Int),
	}
}

// Key returns the pair's canonical token combination.
func (p *Pair) Key() engine.PairKey { return p.key }

// Token0 returns the canonically smaller token.
func (p *Pair) Token0() engine.Token { return p.key.Token0 }

// Token1 returns the canonically larger token.
func (p *Pair) Token1() engine.Token { return p.key.Token1 }

// Custodian returns the account under which the pair's reserves are held in
// the custody ledger.
func (p *Pair) Custodian() engine.Account { return p.custodian }

// Reserves returns independent copies of the current reserves.
func (p *Pair) Reserves() (reserve0, reserve1 *big.Int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.reserve0), new(big.Int).Set(p.reserve1)
}

// OrientedReserves returns copies of the reserves ordered as (in, out) for a
// swap that deposits tokenIn.
func (p *Pair) OrientedReserves(tokenIn engine.Token) (reserveIn, reserveOut *big.Int, err error) {
	if !p.key.Contains(tokenIn) {
		return nil, nil, fmt.Errorf("%w: token %s has no side in pair %s", engine.ErrPairNotFound, tokenIn.Hex(), p.key)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if tokenIn == p.key.Token0 {
		return new(big.Int).Set(p.reserve0), new(big.Int).Set(p.reserve1), nil
	}
	return new(big.Int).Set(p.reserve1), new(big.Int).Set(p.reserve0), nil
}

// TotalShares returns a copy of the outstanding share supply.
func (p *Pair) TotalShares() *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.totalShares)
}

// BalanceOf returns a copy of the holder's share balance.
func (p *Pair) BalanceOf(holder engine.Account) *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if balance, ok := p.balances[holder]; ok {
		return new(big.Int).Set(balance)
	}
	return new(big.Int)
}

func checkDeposit(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: deposit amount must be positive", engine.ErrZeroAmount)
	}
	return nil
}

// quoteMintLocked computes the share grant for a deposit against current
// state. Callers hold at least the read lock.
func (p *Pair) quoteMintLocked(amount0, amount1 *big.Int) (*big.Int, error) {
	if err := checkDeposit(amount0); err != nil {
		return nil, err
	}
	if err := checkDeposit(amount1); err != nil {
		return nil, err
	}

	if p.totalShares.Sign() == 0 {
		// First liquidity event: shares are the geometric mean of the deposit.
		product, err := fixedmath.Mul(amount0, amount1)
		if err != nil {
			return nil, err
		}
		return fixedmath.Isqrt(product), nil
	}

	// Proportional grant, floored on both sides and the minimum taken so
	// neither side is over-credited. The caller pre-balances deposit ratios.
	share0, err := p.shareForSide(amount0, p.reserve0)
	if err != nil {
		return nil, err
	}
	share1, err := p.shareForSide(amount1, p.reserve1)
	if err != nil {
		return nil, err
	}
	if share0.Cmp(share1) <= 0 {
		return share0, nil
	}
	return share1, nil
}

func (p *Pair) shareForSide(amount, reserve *big.Int) (*big.Int, error) {
	scaled, err := fixedmath.Mul(amount, p.totalShares)
	if err != nil {
		return nil, err
	}
	return fixedmath.Div(scaled, reserve)
}

// QuoteMint returns the shares a deposit of (amount0, amount1) would grant
// against current reserves, without mutating anything. It fails with
// engine.ErrZeroLiquidityMinted when the grant would be zero.
func (p *Pair) QuoteMint(amount0, amount1 *big.Int) (*big.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	shares, err := p.quoteMintLocked(amount0, amount1)
	if err != nil {
		return nil, err
	}
	if shares.Sign() == 0 {
		return nil, fmt.Errorf("%w: deposit %s/%s", engine.ErrZeroLiquidityMinted, amount0, amount1)
	}
	return shares, nil
}

// Mint credits the recipient with liquidity shares for a deposit the caller
// has already placed in the pair's custody. Either every ledger field
// commits, or none do.
func (p *Pair) Mint(amount0, amount1 *big.Int, recipient engine.Account) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	shares, err := p.quoteMintLocked(amount0, amount1)
	if err != nil {
		return nil, err
	}
	if shares.Sign() == 0 {
		return nil, fmt.Errorf("%w: deposit %s/%s", engine.ErrZeroLiquidityMinted, amount0, amount1)
	}

	newReserve0, err := fixedmath.Add(p.reserve0, amount0)
	if err != nil {
		return nil, err
	}
	newReserve1, err := fixedmath.Add(p.reserve1, amount1)
	if err != nil {
		return nil, err
	}
	if err := fixedmath.FitsReserve(newReserve0); err != nil {
		return nil, err
	}
	if err := fixedmath.FitsReserve(newReserve1); err != nil {
		return nil, err
	}

	p.reserve0 = newReserve0
	p.reserve1 = newReserve1
	p.totalShares = new(big.Int).Add(p.totalShares, shares)
	p.creditLocked(recipient, shares)
	return new(big.Int).Set(shares), nil
}

// quoteBurnLocked computes the withdrawal for a share burn against current
// state, validating the holder's balance.
func (p *Pair) quoteBurnLocked(shares *big.Int, holder engine.Account) (amount0, amount1 *big.Int, err error) {
	if shares == nil || shares.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: shares to burn must be positive", engine.ErrZeroAmount)
	}
	balance, ok := p.balances[holder]
	if !ok || balance.Cmp(shares) < 0 || p.totalShares.Cmp(shares) < 0 {
		return nil, nil, fmt.Errorf("%w: holder %s", engine.ErrInsufficientShareBalance, holder.Hex())
	}

	amount0, err = p.withdrawalForSide(shares, p.reserve0)
	if err != nil {
		return nil, nil, err
	}
	amount1, err = p.withdrawalForSide(shares, p.reserve1)
	if err != nil {
		return nil, nil, err
	}
	if amount0.Sign() == 0 || amount1.Sign() == 0 {
		return nil, nil, fmt.Errorf("%w: burn of %s shares returns nothing", engine.ErrZeroAmount, shares)
	}
	return amount0, amount1, nil
}

func (p *Pair) withdrawalForSide(shares, reserve *big.Int) (*big.Int, error) {
	scaled, err := fixedmath.Mul(shares, reserve)
	if err != nil {
		return nil, err
	}
	return fixedmath.Div(scaled, p.totalShares)
}

// QuoteBurn returns the token amounts a burn of shares by holder would pay
// out, without mutating anything.
func (p *Pair) QuoteBurn(shares *big.Int, holder engine.Account) (amount0, amount1 *big.Int, err error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.quoteBurnLocked(shares, holder)
}

// Burn destroys the holder's shares and releases the proportional slice of
// both reserves. The returned amounts are what the custody layer owes the
// recipient.
func (p *Pair) Burn(shares *big.Int, holder engine.Account) (amount0, amount1 *big.Int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	amount0, amount1, err = p.quoteBurnLocked(shares, holder)
	if err != nil {
		return nil, nil, err
	}

	newReserve0, err := fixedmath.Sub(p.reserve0, amount0)
	if err != nil {
		return nil, nil, err
	}
	newReserve1, err := fixedmath.Sub(p.reserve1, amount1)
	if err != nil {
		return nil, nil, err
	}

	p.reserve0 = newReserve0
	p.reserve1 = newReserve1
	p.totalShares = new(big.Int).Sub(p.totalShares, shares)
	p.debitLocked(holder, shares)
	return amount0, amount1, nil
}

// Swap deposits amountIn of tokenIn and returns the fee-adjusted output of
// the other token. The post-state constant product is re-checked on every
// call; a decrease is an internal-consistency failure, never a caller error.
func (p *Pair) Swap(amountIn *big.Int, tokenIn engine.Token) (amountOut *big.Int, err error) {
	if !p.key.Contains(tokenIn) {
		return nil, fmt.Errorf("%w: token %s has no side in pair %s", engine.ErrPairNotFound, tokenIn.Hex(), p.key)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("%w: swap input must be positive", engine.ErrZeroAmount)
	}

	reserveIn, reserveOut := p.reserve0, p.reserve1
	if tokenIn == p.key.Token1 {
		reserveIn, reserveOut = p.reserve1, p.reserve0
	}

	amountOut, err = calculator.GetAmountOut(amountIn, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}
	if amountOut.Sign() == 0 {
		return nil, fmt.Errorf("%w: swap of %s yields no output", engine.ErrZeroAmount, amountIn)
	}

	newReserveIn, err := fixedmath.Add(reserveIn, amountIn)
	if err != nil {
		return nil, err
	}
	if err := fixedmath.FitsReserve(newReserveIn); err != nil {
		return nil, err
	}
	newReserveOut, err := fixedmath.Sub(reserveOut, amountOut)
	if err != nil {
		return nil, err
	}

	// (reserveIn + amountIn) * (reserveOut - amountOut) >= reserveIn * reserveOut.
	// The fee keeps the product non-decreasing for every output the formula
	// above can produce; a violation means the engine itself is broken.
	newProduct := new(big.Int).Mul(newReserveIn, newReserveOut)
	oldProduct := new(big.Int).Mul(reserveIn, reserveOut)
	if newProduct.Cmp(oldProduct) < 0 {
		return nil, fmt.Errorf("%w: %s < %s after swap on %s", engine.ErrReserveInvariant, newProduct, oldProduct, p.key)
	}

	if tokenIn == p.key.Token0 {
		p.reserve0, p.reserve1 = newReserveIn, newReserveOut
	} else {
		p.reserve0, p.reserve1 = newReserveOut, newReserveIn
	}
	return amountOut, nil
}

// creditLocked adds shares to an account's balance. Write lock held.
func (p *Pair) creditLocked(account engine.Account, shares *big.Int) {
	if balance, ok := p.balances[account]; ok {
		balance.Add(balance, shares)
		return
	}
	p.balances[account] = new(big.Int).Set(shares)
}

// debitLocked removes shares from an account's balance; quoteBurnLocked has
// already proven the balance sufficient. Write lock held.
func (p *Pair) debitLocked(account engine.Account, shares *big.Int) {
	balance := p.balances[account]
	balance.Sub(balance, shares)
	if balance.Sign() == 0 {
		delete(p.balances, account)
	}
}
