package engine

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Token identifies an ERC20-style asset. Identities compare byte-for-byte;
// the zero address is never a valid token.
type Token = common.Address

// Account identifies a balance holder: an end user, a pair's custody account,
// or the engine itself.
type Account = common.Address

// NativeToken is the sentinel identifier callers use for the chain's native
// asset. It only ever appears at the router boundary, where it is normalized
// to the wrapped-native token before any pair is consulted.
var NativeToken = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// IsZeroToken reports whether t is the forbidden zero identifier.
func IsZeroToken(t Token) bool {
	return t == (common.Address{})
}

// SortTokens returns the two tokens in canonical order (token0 < token1 under
// byte comparison). It does not validate the tokens; see NewPairKey.
func SortTokens(tokenA, tokenB Token) (token0, token1 Token) {
	if bytes.Compare(tokenA[:], tokenB[:]) < 0 {
		return tokenA, tokenB
	}
	return tokenB, tokenA
}

// PairKey is the canonical identity of an unordered token combination.
// Token0 < Token1 always holds for keys built through NewPairKey, so {A,B}
// and {B,A} resolve to the same key.
type PairKey struct {
	Token0 Token `json:"token0"`
	Token1 Token `json:"token1"`
}

// NewPairKey validates and canonicalizes a token combination.
// It fails with ErrIdenticalTokens when both tokens are the same identifier
// and with ErrZeroToken when either is the zero sentinel.
func NewPairKey(tokenA, tokenB Token) (PairKey, error) {
	if tokenA == tokenB {
		return PairKey{}, fmt.Errorf("%w: %s", ErrIdenticalTokens, tokenA)
	}
	if IsZeroToken(tokenA) || IsZeroToken(tokenB) {
		return PairKey{}, ErrZeroToken
	}
	token0, token1 := SortTokens(tokenA, tokenB)
	return PairKey{Token0: token0, Token1: token1}, nil
}

// Contains reports whether t is one of the key's two tokens.
func (k PairKey) Contains(t Token) bool {
	return t == k.Token0 || t == k.Token1
}

// Other returns the counterpart of t within the key. It panics if t is not
// part of the key; callers must check Contains first.
func (k PairKey) Other(t Token) Token {
	switch t {
	case k.Token0:
		return k.Token1
	case k.Token1:
		return k.Token0
	}
	panic(fmt.Sprintf("token %s is not part of pair %s", t.Hex(), k))
}

func (k PairKey) String() string {
	return fmt.Sprintf("%s/%s", k.Token0.Hex(), k.Token1.Hex())
}

// CustodyAccount derives the deterministic custody identity for a pair from
// its canonical key. Reserves held by a pair live under this account in the
// custody ledger.
func (k PairKey) CustodyAccount() Account {
	return common.BytesToAddress(crypto.Keccak256(k.Token0[:], k.Token1[:])[12:])
}
