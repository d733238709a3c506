package router

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superswap/superswap-engine-go/custody"
	"github.com/superswap/superswap-engine-go/engine"
	"github.com/superswap/superswap-engine-go/registry"
)

var (
	weth = common.HexToAddress("0x1000000000000000000000000000000000000001")
	dai  = common.HexToAddress("0x2000000000000000000000000000000000000002")
	usdc = common.HexToAddress("0x3000000000000000000000000000000000000003")
	wbtc = common.HexToAddress("0x4000000000000000000000000000000000000004")

	alice = common.HexToAddress("0xa11ce00000000000000000000000000000000001")
	bob   = common.HexToAddress("0xb0b0000000000000000000000000000000000002")
)

const (
	testNow      = int64(1_700_000_000)
	testDeadline = testNow + 60
)

func newBigIntFromString(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, "bad number literal %q", s)
	return n
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

type env struct {
	vault  *custody.Vault
	reg    *registry.Registry
	router *Router
}

func newEnv(t *testing.T) *env {
	t.Helper()
	vault := custody.NewVault()
	reg := registry.New(registry.Config{})
	r, err := New(Config{
		Registry: reg,
		Ledger:   vault,
		WETH:     weth,
		Now:      func() int64 { return testNow },
	})
	require.NoError(t, err)
	return &env{vault: vault, reg: reg, router: r}
}

func (e *env) fund(t *testing.T, token engine.Token, amount *big.Int, to engine.Account) {
	t.Helper()
	require.NoError(t, e.vault.Faucet(token, amount, to))
}

// seedPool funds alice and deposits the reference pool: 1e18 weth against
// 1167e18 dai.
func (e *env) seedPool(t *testing.T) *big.Int {
	t.Helper()
	e.fund(t, weth, ether(1), alice)
	e.fund(t, dai, ether(1167), alice)
	_, _, shares, err := e.router.AddLiquidity(weth, dai, ether(1), ether(1167), nil, nil, alice, alice, testDeadline)
	require.NoError(t, err)
	return shares
}

func TestNewPath(t *testing.T) {
	_, err := NewPath(weth)
	require.ErrorIs(t, err, engine.ErrInvalidPath)
	_, err = NewPath()
	require.ErrorIs(t, err, engine.ErrInvalidPath)

	path, err := NewPath(weth, dai)
	require.NoError(t, err)
	assert.Len(t, path, 2)
}

func TestNewConfigValidation(t *testing.T) {
	reg := registry.New(registry.Config{})
	vault := custody.NewVault()

	_, err := New(Config{Ledger: vault, WETH: weth})
	require.Error(t, err)
	_, err = New(Config{Registry: reg, WETH: weth})
	require.Error(t, err)
	_, err = New(Config{Registry: reg, Ledger: vault})
	require.Error(t, err)
}

func TestAddLiquidityFirstDeposit(t *testing.T) {
	e := newEnv(t)
	shares := e.seedPool(t)

	assert.Zero(t, newBigIntFromString(t, "34161381705077445535").Cmp(shares))

	p, err := e.reg.Get(weth, dai)
	require.NoError(t, err)
	assert.Zero(t, shares.Cmp(p.BalanceOf(alice)))
	assert.Zero(t, shares.Cmp(p.TotalShares()))

	reserve0, reserve1 := p.Reserves()
	assert.Zero(t, ether(1).Cmp(reserve0))
	assert.Zero(t, ether(1167).Cmp(reserve1))

	// The deposit left alice empty and the pair's custodian funded.
	assert.Zero(t, e.vault.BalanceOf(weth, alice).Sign())
	assert.Zero(t, e.vault.BalanceOf(dai, alice).Sign())
	assert.Zero(t, ether(1).Cmp(e.vault.BalanceOf(weth, p.Custodian())))
	assert.Zero(t, ether(1167).Cmp(e.vault.BalanceOf(dai, p.Custodian())))
}

func TestAddLiquidityRebalances(t *testing.T) {
	e := newEnv(t)
	e.seedPool(t)
	e.fund(t, weth, ether(1), alice)
	e.fund(t, dai, ether(2000), alice)

	// The matched dai amount follows the 1:1167 reserve ratio; the excess
	// desired dai stays with alice.
	amountA, amountB, shares, err := e.router.AddLiquidity(
		weth, dai, ether(1), ether(2000), nil, ether(1000), alice, alice, testDeadline)
	require.NoError(t, err)
	assert.Zero(t, ether(1).Cmp(amountA))
	assert.Zero(t, ether(1167).Cmp(amountB))
	assert.Zero(t, newBigIntFromString(t, "34161381705077445535").Cmp(shares))
	assert.Zero(t, ether(833).Cmp(e.vault.BalanceOf(dai, alice)))
}

func TestAddLiquidityMinimumKinds(t *testing.T) {
	testCases := []struct {
		name                           string
		amountADesired, amountBDesired *big.Int
		amountAMin, amountBMin         *big.Int
		expectedError                  error
	}{
		{
			name:           "matched second amount under its minimum",
			amountADesired: ether(1), amountBDesired: ether(2000),
			amountAMin: nil, amountBMin: ether(1200),
			expectedError: engine.ErrInsufficientAmountB,
		},
		{
			name:           "recomputed first amount under its minimum",
			amountADesired: ether(2), amountBDesired: ether(1167),
			amountAMin: ether(2), amountBMin: nil,
			expectedError: engine.ErrInsufficientAmountA,
		},
		{
			name:           "chosen amounts under the final minimums",
			amountADesired: ether(1), amountBDesired: ether(2000),
			amountAMin: ether(2), amountBMin: nil,
			expectedError: engine.ErrBelowMinimum,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			e.seedPool(t)
			e.fund(t, weth, ether(10), alice)
			e.fund(t, dai, ether(10000), alice)

			_, _, _, err := e.router.AddLiquidity(
				weth, dai, tc.amountADesired, tc.amountBDesired,
				tc.amountAMin, tc.amountBMin, alice, alice, testDeadline)
			require.ErrorIs(t, err, tc.expectedError)

			// Nothing moved.
			assert.Zero(t, ether(10).Cmp(e.vault.BalanceOf(weth, alice)))
		})
	}
}

func TestAddLiquidityValidation(t *testing.T) {
	e := newEnv(t)
	e.fund(t, weth, ether(1), alice)
	e.fund(t, dai, ether(1167), alice)

	// An expired deadline wins over every later check.
	_, _, _, err := e.router.AddLiquidity(weth, weth, nil, nil, nil, nil, alice, alice, testNow)
	require.ErrorIs(t, err, engine.ErrExpired)

	_, _, _, err = e.router.AddLiquidity(weth, weth, nil, nil, nil, nil, alice, alice, testDeadline)
	require.ErrorIs(t, err, engine.ErrIdenticalTokens)

	_, _, _, err = e.router.AddLiquidity(weth, common.Address{}, ether(1), ether(1), nil, nil, alice, alice, testDeadline)
	require.ErrorIs(t, err, engine.ErrZeroToken)

	_, _, _, err = e.router.AddLiquidity(weth, dai, big.NewInt(0), ether(1167), nil, nil, alice, alice, testDeadline)
	require.ErrorIs(t, err, engine.ErrZeroAmount)
}

func TestAddLiquidityInsufficientFunds(t *testing.T) {
	e := newEnv(t)
	e.fund(t, weth, ether(1), alice)

	_, _, _, err := e.router.AddLiquidity(weth, dai, ether(1), ether(1167), nil, nil, alice, alice, testDeadline)
	require.ErrorIs(t, err, engine.ErrInsufficientFunds)

	// The pair was created but stayed empty, and no custody moved.
	p, err := e.reg.Get(weth, dai)
	require.NoError(t, err)
	reserve0, _ := p.Reserves()
	assert.Zero(t, reserve0.Sign())
	assert.Zero(t, ether(1).Cmp(e.vault.BalanceOf(weth, alice)))
}

func TestSwapExactInputReference(t *testing.T) {
	e := newEnv(t)
	e.seedPool(t)
	e.fund(t, weth, ether(1), alice)

	path, err := NewPath(weth, dai)
	require.NoError(t, err)

	amountIn := newBigIntFromString(t, "100000000000000000")
	expectedOut := newBigIntFromString(t, "105801491315813403655")

	amounts, err := e.router.SwapExactInput(path, amountIn, expectedOut, alice, bob, testDeadline)
	require.NoError(t, err)
	require.Len(t, amounts, 2)
	assert.Zero(t, amountIn.Cmp(amounts[0]))
	assert.Zero(t, expectedOut.Cmp(amounts[1]))
	assert.Zero(t, expectedOut.Cmp(e.vault.BalanceOf(dai, bob)))

	p, err := e.reg.Get(weth, dai)
	require.NoError(t, err)
	reserve0, reserve1 := p.Reserves()
	assert.Zero(t, newBigIntFromString(t, "1100000000000000000").Cmp(reserve0))
	assert.Zero(t, newBigIntFromString(t, "1061198508684186596345").Cmp(reserve1))

	// Custody mirrors the reserves exactly.
	assert.Zero(t, reserve0.Cmp(e.vault.BalanceOf(weth, p.Custodian())))
	assert.Zero(t, reserve1.Cmp(e.vault.BalanceOf(dai, p.Custodian())))
}

func TestSwapExactInputSlippage(t *testing.T) {
	e := newEnv(t)
	e.seedPool(t)
	e.fund(t, weth, ether(1), alice)

	path, err := NewPath(weth, dai)
	require.NoError(t, err)

	expectedOut := newBigIntFromString(t, "105801491315813403655")
	tooMuch := new(big.Int).Add(expectedOut, big.NewInt(1))

	_, err = e.router.SwapExactInput(path, newBigIntFromString(t, "100000000000000000"), tooMuch, alice, bob, testDeadline)
	require.ErrorIs(t, err, engine.ErrInsufficientOutput)

	p, err := e.reg.Get(weth, dai)
	require.NoError(t, err)
	reserve0, _ := p.Reserves()
	assert.Zero(t, ether(1).Cmp(reserve0))
	assert.Zero(t, e.vault.BalanceOf(dai, bob).Sign())
}

func TestSwapValidationOrder(t *testing.T) {
	e := newEnv(t)
	e.seedPool(t)
	e.fund(t, weth, ether(1), alice)

	// Deadline equal to now is already expired.
	_, err := e.router.SwapExactInput(Path{weth}, ether(1), nil, alice, bob, testNow)
	require.ErrorIs(t, err, engine.ErrExpired)

	_, err = e.router.SwapExactInput(Path{weth}, ether(1), nil, alice, bob, testDeadline)
	require.ErrorIs(t, err, engine.ErrInvalidPath)

	path, err := NewPath(weth, wbtc)
	require.NoError(t, err)
	_, err = e.router.SwapExactInput(path, ether(1), nil, alice, bob, testDeadline)
	require.ErrorIs(t, err, engine.ErrPairNotFound)

	path, err = NewPath(weth, weth)
	require.NoError(t, err)
	_, err = e.router.SwapExactInput(path, ether(1), nil, alice, bob, testDeadline)
	require.ErrorIs(t, err, engine.ErrIdenticalTokens)

	path, err = NewPath(weth, dai)
	require.NoError(t, err)
	_, err = e.router.SwapExactInput(path, big.NewInt(0), nil, alice, bob, testDeadline)
	require.ErrorIs(t, err, engine.ErrZeroAmount)
}

func TestSwapIdenticalPathTokens(t *testing.T) {
	e := newEnv(t)
	e.seedPool(t)
	e.fund(t, weth, ether(1), alice)

	path, err := NewPath(weth, weth)
	require.NoError(t, err)

	_, err = e.router.QuoteAmountsOut(path, ether(1))
	require.ErrorIs(t, err, engine.ErrIdenticalTokens)
	_, err = e.router.QuoteAmountsIn(path, ether(1))
	require.ErrorIs(t, err, engine.ErrIdenticalTokens)

	// A duplicated hop must not degrade into a bare custody transfer.
	_, err = e.router.SwapExactInput(path, ether(1), nil, alice, bob, testDeadline)
	require.ErrorIs(t, err, engine.ErrIdenticalTokens)
	assert.Zero(t, ether(1).Cmp(e.vault.BalanceOf(weth, alice)))
	assert.Zero(t, e.vault.BalanceOf(weth, bob).Sign())

	path, err = NewPath(weth, dai, dai)
	require.NoError(t, err)
	_, err = e.router.SwapExactInput(path, ether(1), nil, alice, bob, testDeadline)
	require.ErrorIs(t, err, engine.ErrIdenticalTokens)
}

func TestSwapExactOutputReference(t *testing.T) {
	e := newEnv(t)
	e.seedPool(t)
	e.fund(t, weth, ether(1), alice)

	path, err := NewPath(weth, dai)
	require.NoError(t, err)

	// The required input for this output is exactly the reference swap's
	// input, so the realized output matches the request to the wei.
	requestedOut := newBigIntFromString(t, "105801491315813403655")
	amounts, err := e.router.SwapExactOutput(path, requestedOut, newBigIntFromString(t, "100000000000000000"), alice, bob, testDeadline)
	require.NoError(t, err)
	assert.Zero(t, newBigIntFromString(t, "100000000000000000").Cmp(amounts[0]))
	assert.Zero(t, requestedOut.Cmp(amounts[1]))
	assert.Zero(t, requestedOut.Cmp(e.vault.BalanceOf(dai, bob)))
}

func TestSwapExactOutputCeilingBias(t *testing.T) {
	e := newEnv(t)
	e.seedPool(t)
	e.fund(t, weth, ether(1), alice)

	path, err := NewPath(weth, dai)
	require.NoError(t, err)

	// The ceiling-biased input overshoots; the recipient gets the realized
	// output, never less than requested.
	requestedOut := ether(50)
	amounts, err := e.router.SwapExactOutput(path, requestedOut, nil, alice, bob, testDeadline)
	require.NoError(t, err)
	assert.Zero(t, newBigIntFromString(t, "44897449735060150").Cmp(amounts[0]))
	assert.Zero(t, newBigIntFromString(t, "50000000000000000945").Cmp(amounts[1]))
	assert.True(t, amounts[1].Cmp(requestedOut) >= 0)
}

func TestSwapExactOutputInputBound(t *testing.T) {
	e := newEnv(t)
	e.seedPool(t)
	e.fund(t, weth, ether(1), alice)

	path, err := NewPath(weth, dai)
	require.NoError(t, err)

	maxIn := newBigIntFromString(t, "44897449735060149")
	_, err = e.router.SwapExactOutput(path, ether(50), maxIn, alice, bob, testDeadline)
	require.ErrorIs(t, err, engine.ErrInsufficientInput)

	// Draining or exceeding the output reserve fails in the backward quote.
	_, err = e.router.SwapExactOutput(path, ether(1167), nil, alice, bob, testDeadline)
	require.ErrorIs(t, err, engine.ErrDivisionByZero)
	_, err = e.router.SwapExactOutput(path, ether(1168), nil, alice, bob, testDeadline)
	require.ErrorIs(t, err, engine.ErrOverflow)
}

func TestQuoteMultiHopComposition(t *testing.T) {
	e := newEnv(t)
	e.seedPool(t)
	e.fund(t, dai, ether(1000), alice)
	e.fund(t, usdc, big.NewInt(2_000_000_000), alice)
	_, _, _, err := e.router.AddLiquidity(dai, usdc, ether(1000), big.NewInt(2_000_000_000), nil, nil, alice, alice, testDeadline)
	require.NoError(t, err)

	path, err := NewPath(weth, dai, usdc)
	require.NoError(t, err)

	amountIn := newBigIntFromString(t, "100000000000000000")
	amounts, err := e.router.QuoteAmountsOut(path, amountIn)
	require.NoError(t, err)
	require.Len(t, amounts, 3)

	// Each hop composes from its own reserves, with no cross-hop leakage.
	firstHop, err := e.router.QuoteAmountsOut(Path{weth, dai}, amountIn)
	require.NoError(t, err)
	secondHop, err := e.router.QuoteAmountsOut(Path{dai, usdc}, firstHop[1])
	require.NoError(t, err)
	assert.Zero(t, firstHop[1].Cmp(amounts[1]))
	assert.Zero(t, secondHop[1].Cmp(amounts[2]))
	assert.Zero(t, newBigIntFromString(t, "105801491315813403655").Cmp(amounts[1]))
	assert.Zero(t, big.NewInt(190837820).Cmp(amounts[2]))

	// Executing the same path delivers the quoted final amount.
	e.fund(t, weth, amountIn, alice)
	executed, err := e.router.SwapExactInput(path, amountIn, amounts[2], alice, bob, testDeadline)
	require.NoError(t, err)
	assert.Zero(t, amounts[2].Cmp(executed[2]))
	assert.Zero(t, amounts[2].Cmp(e.vault.BalanceOf(usdc, bob)))
}

func TestQuoteRoundTrip(t *testing.T) {
	e := newEnv(t)
	e.seedPool(t)

	path, err := NewPath(weth, dai)
	require.NoError(t, err)

	x := newBigIntFromString(t, "1000000000000000")
	out, err := e.router.QuoteAmountsOut(path, x)
	require.NoError(t, err)
	assert.Zero(t, newBigIntFromString(t, "1162340146873567053").Cmp(out[1]))

	back, err := e.router.QuoteAmountsIn(path, out[1])
	require.NoError(t, err)
	gap := new(big.Int).Sub(back[0], x)
	assert.True(t, gap.Sign() >= 0, "round trip lost value: %s", gap)
	assert.True(t, gap.Cmp(big.NewInt(1)) <= 0, "round trip gap too wide: %s", gap)
}

func TestQuoteIdempotence(t *testing.T) {
	e := newEnv(t)
	e.seedPool(t)

	path, err := NewPath(weth, dai)
	require.NoError(t, err)

	first, err := e.router.QuoteAmountsOut(path, ether(1))
	require.NoError(t, err)
	second, err := e.router.QuoteAmountsOut(path, ether(1))
	require.NoError(t, err)
	assert.Zero(t, first[1].Cmp(second[1]))
}

func TestRemoveLiquidityFullBalance(t *testing.T) {
	e := newEnv(t)
	shares := e.seedPool(t)

	amountA, amountB, err := e.router.RemoveLiquidity(weth, dai, shares, nil, nil, alice, bob, testDeadline)
	require.NoError(t, err)
	assert.Zero(t, ether(1).Cmp(amountA))
	assert.Zero(t, ether(1167).Cmp(amountB))
	assert.Zero(t, ether(1).Cmp(e.vault.BalanceOf(weth, bob)))
	assert.Zero(t, ether(1167).Cmp(e.vault.BalanceOf(dai, bob)))

	p, err := e.reg.Get(weth, dai)
	require.NoError(t, err)
	assert.Zero(t, p.BalanceOf(alice).Sign())
	assert.Zero(t, p.TotalShares().Sign())
	reserve0, reserve1 := p.Reserves()
	assert.Zero(t, reserve0.Sign())
	assert.Zero(t, reserve1.Sign())
}

func TestRemoveLiquidityFailures(t *testing.T) {
	e := newEnv(t)
	shares := e.seedPool(t)

	// Every pair-lookup failure collapses to the same kind.
	_, _, err := e.router.RemoveLiquidity(weth, wbtc, shares, nil, nil, alice, bob, testDeadline)
	require.ErrorIs(t, err, engine.ErrPairNotFound)
	_, _, err = e.router.RemoveLiquidity(weth, weth, shares, nil, nil, alice, bob, testDeadline)
	require.ErrorIs(t, err, engine.ErrPairNotFound)

	_, _, err = e.router.RemoveLiquidity(weth, dai, shares, nil, nil, bob, bob, testDeadline)
	require.ErrorIs(t, err, engine.ErrInsufficientShareBalance)

	_, _, err = e.router.RemoveLiquidity(weth, dai, shares, ether(2), nil, alice, bob, testDeadline)
	require.ErrorIs(t, err, engine.ErrInsufficientOutput)

	_, _, err = e.router.RemoveLiquidity(weth, dai, shares, nil, nil, alice, bob, testNow-1)
	require.ErrorIs(t, err, engine.ErrExpired)

	// The pool is intact after every rejection.
	p, err := e.reg.Get(weth, dai)
	require.NoError(t, err)
	assert.Zero(t, shares.Cmp(p.TotalShares()))
}
