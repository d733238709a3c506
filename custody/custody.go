// Package custody implements the token-custody collaborator the router
// settles against. Balances move between accounts only through a staged
// batch: callers record every transfer, wrap, and unwrap the operation
// needs, then commit the batch as one all-or-nothing unit. Ledger mutation
// in the pairs happens only after a batch has committed, which is what makes
// a failed router call side-effect free.
package custody

import (
	"math/big"

	"github.com/superswap/superswap-engine-go/engine"
)

// Ledger is the custody surface the router depends on.
type Ledger interface {
	// Begin opens a new empty batch against the ledger.
	Begin() Tx

	// BalanceOf returns a copy of an account's balance of a token. The
	// native asset is queried under engine.NativeToken.
	BalanceOf(token engine.Token, account engine.Account) *big.Int
}

// Tx is a staged set of custody movements. Stage calls never fail; all
// validation happens at Commit, which applies either every movement or none.
type Tx interface {
	// Transfer stages moving amount of token from one account to another.
	Transfer(token engine.Token, amount *big.Int, from, to engine.Account)

	// Wrap stages converting amount of the account's native balance into
	// the wrapped token.
	Wrap(wrapped engine.Token, amount *big.Int, account engine.Account)

	// Unwrap stages converting amount of the account's wrapped-token
	// balance back into native.
	Unwrap(wrapped engine.Token, amount *big.Int, account engine.Account)

	// Commit validates and applies the staged movements atomically.
	Commit() error
}
