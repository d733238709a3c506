package custody

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superswap/superswap-engine-go/engine"
)

var (
	weth = common.HexToAddress("0x1000000000000000000000000000000000000001")
	dai  = common.HexToAddress("0x2000000000000000000000000000000000000002")

	alice = common.HexToAddress("0xa11ce00000000000000000000000000000000001")
	bob   = common.HexToAddress("0xb0b0000000000000000000000000000000000002")
)

func TestFaucetAndBalance(t *testing.T) {
	v := NewVault()

	require.NoError(t, v.Faucet(dai, big.NewInt(1000), alice))
	require.NoError(t, v.Faucet(dai, big.NewInt(500), alice))

	assert.Zero(t, big.NewInt(1500).Cmp(v.BalanceOf(dai, alice)))
	assert.Zero(t, v.BalanceOf(dai, bob).Sign())
	assert.Zero(t, v.BalanceOf(weth, alice).Sign())

	require.ErrorIs(t, v.Faucet(dai, big.NewInt(0), alice), engine.ErrZeroAmount)
	require.ErrorIs(t, v.Faucet(dai, nil, alice), engine.ErrZeroAmount)
}

func TestBatchCommit(t *testing.T) {
	v := NewVault()
	require.NoError(t, v.Faucet(dai, big.NewInt(1000), alice))

	batch := v.Begin()
	batch.Transfer(dai, big.NewInt(300), alice, bob)
	batch.Transfer(dai, big.NewInt(100), alice, bob)
	require.NoError(t, batch.Commit())

	assert.Zero(t, big.NewInt(600).Cmp(v.BalanceOf(dai, alice)))
	assert.Zero(t, big.NewInt(400).Cmp(v.BalanceOf(dai, bob)))
}

func TestBatchAllOrNothing(t *testing.T) {
	v := NewVault()
	require.NoError(t, v.Faucet(dai, big.NewInt(1000), alice))
	require.NoError(t, v.Faucet(weth, big.NewInt(10), alice))

	// The second transfer overdraws; the first must not apply either.
	batch := v.Begin()
	batch.Transfer(dai, big.NewInt(300), alice, bob)
	batch.Transfer(weth, big.NewInt(11), alice, bob)
	err := batch.Commit()
	require.ErrorIs(t, err, engine.ErrInsufficientFunds)

	assert.Zero(t, big.NewInt(1000).Cmp(v.BalanceOf(dai, alice)))
	assert.Zero(t, big.NewInt(10).Cmp(v.BalanceOf(weth, alice)))
	assert.Zero(t, v.BalanceOf(dai, bob).Sign())
}

func TestBatchNetEffect(t *testing.T) {
	v := NewVault()
	require.NoError(t, v.Faucet(dai, big.NewInt(100), alice))

	// alice pays 150 out but receives 100 within the same batch: the net
	// debit of 50 is covered, so the batch commits.
	batch := v.Begin()
	batch.Transfer(dai, big.NewInt(150), alice, bob)
	batch.Transfer(dai, big.NewInt(100), bob, alice)
	require.NoError(t, batch.Commit())

	assert.Zero(t, big.NewInt(50).Cmp(v.BalanceOf(dai, alice)))
	assert.Zero(t, big.NewInt(50).Cmp(v.BalanceOf(dai, bob)))
}

func TestEmptiedBalancesArePruned(t *testing.T) {
	v := NewVault()
	require.NoError(t, v.Faucet(dai, big.NewInt(1000), alice))
	require.NoError(t, v.Faucet(weth, big.NewInt(10), alice))

	// Draining alice's dai entirely removes her entry; the maps only hold
	// live balances.
	batch := v.Begin()
	batch.Transfer(dai, big.NewInt(1000), alice, bob)
	batch.Transfer(weth, big.NewInt(10), alice, bob)
	require.NoError(t, batch.Commit())

	v.mu.RLock()
	_, aliceDai := v.balances[dai][alice]
	_, aliceWeth := v.balances[weth][alice]
	wethHolders := len(v.balances[weth])
	v.mu.RUnlock()
	assert.False(t, aliceDai)
	assert.False(t, aliceWeth)
	assert.Equal(t, 1, wethHolders)

	// Returning everything to alice prunes bob in turn; a batch whose net
	// effect is zero never materializes an entry.
	batch = v.Begin()
	batch.Transfer(weth, big.NewInt(10), bob, alice)
	batch.Transfer(dai, big.NewInt(7), bob, alice)
	batch.Transfer(dai, big.NewInt(7), alice, bob)
	require.NoError(t, batch.Commit())

	v.mu.RLock()
	_, bobWeth := v.balances[weth][bob]
	_, aliceDai = v.balances[dai][alice]
	v.mu.RUnlock()
	assert.False(t, bobWeth)
	assert.False(t, aliceDai)
	assert.Zero(t, big.NewInt(10).Cmp(v.BalanceOf(weth, alice)))
	assert.Zero(t, big.NewInt(1000).Cmp(v.BalanceOf(dai, bob)))
}

func TestWrapUnwrap(t *testing.T) {
	v := NewVault()
	require.NoError(t, v.Faucet(engine.NativeToken, big.NewInt(1000), alice))

	batch := v.Begin()
	batch.Wrap(weth, big.NewInt(400), alice)
	require.NoError(t, batch.Commit())

	assert.Zero(t, big.NewInt(600).Cmp(v.BalanceOf(engine.NativeToken, alice)))
	assert.Zero(t, big.NewInt(400).Cmp(v.BalanceOf(weth, alice)))

	batch = v.Begin()
	batch.Unwrap(weth, big.NewInt(150), alice)
	require.NoError(t, batch.Commit())

	assert.Zero(t, big.NewInt(850).Cmp(v.BalanceOf(engine.NativeToken, alice)))
	assert.Zero(t, big.NewInt(250).Cmp(v.BalanceOf(weth, alice)))

	// Unwrapping more than the wrapped balance fails atomically.
	batch = v.Begin()
	batch.Unwrap(weth, big.NewInt(251), alice)
	require.ErrorIs(t, batch.Commit(), engine.ErrInsufficientFunds)
	assert.Zero(t, big.NewInt(250).Cmp(v.BalanceOf(weth, alice)))
}

func TestBatchValidation(t *testing.T) {
	v := NewVault()

	batch := v.Begin()
	batch.Transfer(dai, nil, alice, bob)
	require.ErrorIs(t, batch.Commit(), engine.ErrZeroAmount)

	// Committing twice is a programmer error.
	batch = v.Begin()
	require.NoError(t, batch.Commit())
	assert.Panics(t, func() { _ = batch.Commit() })
}
