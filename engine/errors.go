package engine

import "errors"

// Caller-input errors. Every validation failure in the router, registry, and
// pair surfaces exactly one of these; none are retried or swallowed, and a
// failed call leaves all engine state unchanged.
var (
	// ErrExpired is returned when a call's deadline is not strictly in the
	// future at validation time.
	ErrExpired = errors.New("deadline expired")

	// ErrInvalidPath is returned when a swap path has fewer than two tokens.
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidPathEndpoint is returned by native-asset router variants when
	// the first (or last) path element is not the wrapped-native token.
	ErrInvalidPathEndpoint = errors.New("path endpoint must be the wrapped-native token")

	// ErrPairNotFound is returned when a required pair does not exist in the
	// registry.
	ErrPairNotFound = errors.New("pair not found")

	// ErrIdenticalTokens is returned when a pair is requested for a token
	// combined with itself.
	ErrIdenticalTokens = errors.New("identical tokens")

	// ErrZeroToken is returned when the zero identifier is used as a token.
	ErrZeroToken = errors.New("zero token identifier")

	// ErrZeroAmount is returned when a primary input or output amount is zero
	// (or rounds down to zero).
	ErrZeroAmount = errors.New("zero amount")

	// ErrZeroLiquidityMinted is returned by mint when the computed share
	// amount is zero.
	ErrZeroLiquidityMinted = errors.New("zero liquidity minted")

	// ErrInsufficientShareBalance is returned by burn when the caller holds
	// fewer shares than requested.
	ErrInsufficientShareBalance = errors.New("insufficient share balance")

	// ErrBelowMinimum is returned by addLiquidity when the chosen deposit
	// amounts fall below the caller's minimums.
	ErrBelowMinimum = errors.New("amount below minimum")

	// ErrInsufficientAmountA is returned by addLiquidity when the recomputed
	// first-token amount falls below its minimum.
	ErrInsufficientAmountA = errors.New("insufficient amount of the first token")

	// ErrInsufficientAmountB is returned by addLiquidity when the matched
	// second-token amount falls below its minimum.
	ErrInsufficientAmountB = errors.New("insufficient amount of the second token")

	// ErrInsufficientOutput is returned when a realized output is below the
	// caller's minimum.
	ErrInsufficientOutput = errors.New("insufficient output")

	// ErrInsufficientInput is returned when a required input exceeds the
	// caller's maximum.
	ErrInsufficientInput = errors.New("insufficient input")

	// ErrInsufficientFunds is returned by the custody ledger when a debit
	// would drive a balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrOverflow is returned when a checked arithmetic result exceeds the
	// 256-bit commit bound or would go negative.
	ErrOverflow = errors.New("arithmetic overflow")

	// ErrDivisionByZero is returned by checked division with a zero divisor.
	ErrDivisionByZero = errors.New("division by zero")
)

// ErrReserveInvariant signals the fatal internal-consistency failure of the
// constant-product check after a swap. It is never caused by caller input;
// observing it means the engine itself is defective.
var ErrReserveInvariant = errors.New("internal: reserve product decreased")
