package exchange

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superswap/superswap-engine-go/engine"
	"github.com/superswap/superswap-engine-go/router"
	"github.com/superswap/superswap-engine-go/snapshot"
)

var (
	weth = common.HexToAddress("0x1000000000000000000000000000000000000001")
	dai  = common.HexToAddress("0x2000000000000000000000000000000000000002")

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

func newSystem(t *testing.T) *System {
	t.Helper()
	sys, err := New(Config{
		WETH:       weth,
		Registerer: prometheus.NewRegistry(),
		Now:        func() int64 { return testNow },
	})
	require.NoError(t, err)
	return sys
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

// TestReferenceScenario walks the reference flow end to end: seed the pool
// from native value, trade against it, and withdraw everything.
func TestReferenceScenario(t *testing.T) {
	sys := newSystem(t)

	require.NoError(t, sys.Vault.Faucet(engine.NativeToken, ether(1), alice))
	require.NoError(t, sys.Vault.Faucet(dai, ether(1167), alice))
	require.NoError(t, sys.Vault.Faucet(engine.NativeToken, ether(1), bob))

	_, _, shares, err := sys.Router.AddLiquidityETH(dai, ether(1167), nil, ether(1), nil, alice, alice, testDeadline)
	require.NoError(t, err)
	assert.Zero(t, newBigIntFromString(t, "34161381705077445535").Cmp(shares))

	before := sys.Snapshot()
	require.Len(t, before, 1)

	path, err := router.NewPath(engine.NativeToken, dai)
	require.NoError(t, err)
	amountIn := newBigIntFromString(t, "100000000000000000")
	expectedOut := newBigIntFromString(t, "105801491315813403655")
	amounts, err := sys.Router.SwapExactETHForTokens(path, amountIn, expectedOut, bob, bob, testDeadline)
	require.NoError(t, err)
	assert.Zero(t, expectedOut.Cmp(amounts[1]))
	assert.Zero(t, expectedOut.Cmp(sys.Vault.BalanceOf(dai, bob)))

	// The swap shows up as exactly one reserve update in the diff.
	diff := snapshot.Differ(before, sys.Snapshot())
	require.Len(t, diff.Updates, 1)
	assert.Empty(t, diff.Additions)
	assert.Empty(t, diff.Deletions)
	assert.Zero(t, newBigIntFromString(t, "1100000000000000000").Cmp(diff.Updates[0].Reserve0))
	assert.Zero(t, newBigIntFromString(t, "1061198508684186596345").Cmp(diff.Updates[0].Reserve1))

	// Alice holds all shares, so the full withdrawal drains the pool,
	// including the fee income from bob's swap.
	amountToken, amountNative, err := sys.Router.RemoveLiquidityETH(dai, shares, nil, nil, alice, alice, testDeadline)
	require.NoError(t, err)
	assert.Zero(t, newBigIntFromString(t, "1061198508684186596345").Cmp(amountToken))
	assert.Zero(t, newBigIntFromString(t, "1100000000000000000").Cmp(amountNative))

	p, err := sys.Registry.Get(weth, dai)
	require.NoError(t, err)
	assert.Zero(t, p.BalanceOf(alice).Sign())
	assert.Zero(t, p.TotalShares().Sign())
	reserve0, reserve1 := p.Reserves()
	assert.Zero(t, reserve0.Sign())
	assert.Zero(t, reserve1.Sign())

	// All custody balances the books: alice got her principal plus fees,
	// bob paid his input.
	assert.Zero(t, newBigIntFromString(t, "1100000000000000000").Cmp(sys.Vault.BalanceOf(engine.NativeToken, alice)))
	assert.Zero(t, newBigIntFromString(t, "900000000000000000").Cmp(sys.Vault.BalanceOf(engine.NativeToken, bob)))
	assert.Zero(t, sys.Vault.BalanceOf(weth, p.Custodian()).Sign())
	assert.Zero(t, sys.Vault.BalanceOf(dai, p.Custodian()).Sign())
}

// TestIndependentInstances verifies two engines share nothing.
func TestIndependentInstances(t *testing.T) {
	first := newSystem(t)
	second := newSystem(t)

	require.NoError(t, first.Vault.Faucet(dai, ether(1), alice))
	assert.Zero(t, second.Vault.BalanceOf(dai, alice).Sign())

	_, _, err := first.Registry.GetOrCreate(weth, dai)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Registry.Len())
	assert.Equal(t, 0, second.Registry.Len())
}
