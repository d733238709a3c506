package custody

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/superswap/superswap-engine-go/engine"
)

// Vault is the in-memory custody ledger: balances per token per account.
// All mutation goes through Faucet (test/host seeding) or a committed Batch.
type Vault struct {
	mu       sync.RWMutex
	balances map[engine.Token]map[engine.Account]*big.Int
}

var _ Ledger = (*Vault)(nil)

// NewVault creates an empty custody ledger.
func NewVault() *Vault {
	return &Vault{
		balances: make(map[engine.Token]map[engine.Account]*big.Int),
	}
}

// Faucet credits an account out of thin air. This is the host's seeding
// hook, the analogue of a test token's faucet or a native-value deposit; the
// engine itself never calls it.
func (v *Vault) Faucet(token engine.Token, amount *big.Int, to engine.Account) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: faucet amount must be positive", engine.ErrZeroAmount)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.creditLocked(token, to, amount)
	return nil
}

// BalanceOf returns a copy of an account's balance of a token.
func (v *Vault) BalanceOf(token engine.Token, account engine.Account) *big.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if holders, ok := v.balances[token]; ok {
		if balance, ok := holders[account]; ok {
			return new(big.Int).Set(balance)
		}
	}
	return new(big.Int)
}

// Begin opens an empty batch against the vault.
func (v *Vault) Begin() Tx {
	return &Batch{vault: v}
}

// creditLocked applies a signed delta and prunes entries that reach zero so
// the maps only hold live balances.
func (v *Vault) creditLocked(token engine.Token, account engine.Account, amount *big.Int) {
	holders, ok := v.balances[token]
	if !ok {
		if amount.Sign() == 0 {
			return
		}
		holders = make(map[engine.Account]*big.Int)
		v.balances[token] = holders
	}
	balance, ok := holders[account]
	if !ok {
		if amount.Sign() == 0 {
			return
		}
		holders[account] = new(big.Int).Set(amount)
		return
	}
	balance.Add(balance, amount)
	if balance.Sign() == 0 {
		delete(holders, account)
		if len(holders) == 0 {
			delete(v.balances, token)
		}
	}
}

// movement is one signed balance change staged in a batch.
type movement struct {
	token   engine.Token
	account engine.Account
	delta   *big.Int
}

// balanceKey aggregates movements per (token, account) at commit time.
type balanceKey struct {
	token   engine.Token
	account engine.Account
}

// Batch implements Tx against a Vault. A batch is single-use: committing it
// twice is a programmer error and panics.
type Batch struct {
	vault     *Vault
	movements []movement
	committed bool
}

var _ Tx = (*Batch)(nil)

// Transfer stages moving amount of token from one account to another.
func (b *Batch) Transfer(token engine.Token, amount *big.Int, from, to engine.Account) {
	b.stage(token, from, negated(amount))
	b.stage(token, to, amount)
}

// Wrap stages converting native balance into the wrapped token, in place.
func (b *Batch) Wrap(wrapped engine.Token, amount *big.Int, account engine.Account) {
	b.stage(engine.NativeToken, account, negated(amount))
	b.stage(wrapped, account, amount)
}

// Unwrap stages converting wrapped-token balance back into native, in place.
func (b *Batch) Unwrap(wrapped engine.Token, amount *big.Int, account engine.Account) {
	b.stage(wrapped, account, negated(amount))
	b.stage(engine.NativeToken, account, amount)
}

func (b *Batch) stage(token engine.Token, account engine.Account, delta *big.Int) {
	b.movements = append(b.movements, movement{token: token, account: account, delta: delta})
}

func negated(amount *big.Int) *big.Int {
	if amount == nil {
		return nil
	}
	return new(big.Int).Neg(amount)
}

// Commit validates every staged movement against current balances and
// applies all of them, or none. A movement amount that is nil fails with
// engine.ErrZeroAmount; an aggregate debit that would drive any balance
// negative fails with engine.ErrInsufficientFunds.
func (b *Batch) Commit() error {
	if b.committed {
		panic("custody: batch committed twice")
	}

	b.vault.mu.Lock()
	defer b.vault.mu.Unlock()

	// Aggregate deltas so the validation sees the batch's net effect, then
	// check every touched balance before writing anything.
	totals := make(map[balanceKey]*big.Int, len(b.movements))
	order := make([]balanceKey, 0, len(b.movements))
	for _, mv := range b.movements {
		if mv.delta == nil {
			return fmt.Errorf("%w: nil movement amount", engine.ErrZeroAmount)
		}
		key := balanceKey{token: mv.token, account: mv.account}
		total, ok := totals[key]
		if !ok {
			total = new(big.Int)
			totals[key] = total
			order = append(order, key)
		}
		total.Add(total, mv.delta)
	}

	for _, key := range order {
		final := new(big.Int).Add(b.vault.balanceLocked(key.token, key.account), totals[key])
		if final.Sign() < 0 {
			return fmt.Errorf("%w: account %s short %s of token %s",
				engine.ErrInsufficientFunds, key.account.Hex(), new(big.Int).Neg(final), key.token.Hex())
		}
	}

	for _, key := range order {
		b.vault.creditLocked(key.token, key.account, totals[key])
	}
	b.committed = true
	return nil
}

// balanceLocked reads a balance under the vault lock without copying.
func (v *Vault) balanceLocked(token engine.Token, account engine.Account) *big.Int {
	if holders, ok := v.balances[token]; ok {
		if balance, ok := holders[account]; ok {
			return balance
		}
	}
	return big.NewInt(0)
}
