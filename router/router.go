// Package router orchestrates trades and liquidity changes across the pair
// ledger. It owns all caller-intent validation (deadlines, paths, slippage
// bounds), composes per-pair quotes into multi-hop quotes, and sequences
// custody settlement against the pairs so every operation commits all of its
// state changes or none.
//
// Validation runs in a fixed order: deadline, then wrapped-native endpoint
// (native-asset variants only), then path arity, then per-hop token and pair
// checks, then amount positivity, then slippage.
package router

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/superswap/superswap-engine-go/calculator"
	"github.com/superswap/superswap-engine-go/custody"
	"github.com/superswap/superswap-engine-go/engine"
	"github.com/superswap/superswap-engine-go/metrics"
	"github.com/superswap/superswap-engine-go/registry"
)

// Config holds the router's collaborators. Registry, Ledger, and WETH are
// required; the rest default.
type Config struct {
	Registry *registry.Registry
	Ledger   custody.Ledger

	// WETH is the wrapped-native token every native-asset variant settles
	// through. The engine.NativeToken sentinel normalizes to it.
	WETH engine.Token

	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Now supplies the current time in Unix seconds for deadline checks.
	// Defaults to the wall clock; tests pin it.
	Now func() int64
}

func (c *Config) validate() error {
	if c.Registry == nil {
		return errors.New("a registry is required")
	}
	if c.Ledger == nil {
		return errors.New("a custody ledger is required")
	}
	if engine.IsZeroToken(c.WETH) {
		return errors.New("a wrapped-native token is required")
	}
	return nil
}

// Router validates and executes trade intents. It holds no trade state of
// its own; all durable state lives in the registry's pairs and the custody
// ledger. A single mutex serializes mutating operations, matching the
// serialized-execution contract of the host.
type Router struct {
	mu       sync.Mutex
	registry *registry.Registry
	ledger   custody.Ledger
	weth     engine.Token
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() int64
}

// New creates a router from the given configuration.
func New(cfg Config) (*Router, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid router config: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := cfg.Now
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	return &Router{
		registry: cfg.Registry,
		ledger:   cfg.Ledger,
		weth:     cfg.WETH,
		logger:   logger,
		metrics:  cfg.Metrics,
		now:      now,
	}, nil
}

// WETH returns the wrapped-native token the router settles native value
// through.
func (r *Router) WETH() engine.Token { return r.weth }

// checkDeadline accepts a deadline only while it is strictly in the future.
func (r *Router) checkDeadline(deadline int64) error {
	if now := r.now(); deadline <= now {
		return fmt.Errorf("%w: deadline %d, now %d", engine.ErrExpired, deadline, now)
	}
	return nil
}

// normalizeToken maps the native-asset sentinel onto the wrapped token; all
// routing and custody below the router boundary runs on the wrapped form.
func (r *Router) normalizeToken(t engine.Token) engine.Token {
	if t == engine.NativeToken {
		return r.weth
	}
	return t
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", engine.ErrZeroAmount)
	}
	return nil
}

// orZero treats a nil slippage bound as zero, the no-bound value.
func orZero(amount *big.Int) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	return amount
}

// resolveHops normalizes the path and resolves every adjacent token
// combination to an existing pair. Adjacent entries that are distinct before
// normalization but unify afterwards (native next to its wrapped form) become
// pass-through hops; literal duplicates are rejected.
func (r *Router) resolveHops(path Path) ([]hop, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("%w: a path needs at least two tokens, got %d", engine.ErrInvalidPath, len(path))
	}
	hops := make([]hop, 0, len(path)-1)
	for i := 0; i < len(path)-1; i++ {
		if path[i] == path[i+1] {
			return nil, fmt.Errorf("%w: path elements %d and %d", engine.ErrIdenticalTokens, i, i+1)
		}
		in := r.normalizeToken(path[i])
		out := r.normalizeToken(path[i+1])
		if in == out {
			if engine.IsZeroToken(in) {
				return nil, fmt.Errorf("%w: path element %d", engine.ErrZeroToken, i)
			}
			hops = append(hops, hop{tokenIn: in, tokenOut: out})
			continue
		}
		p, err := r.registry.Get(in, out)
		if err != nil {
			return nil, err
		}
		hops = append(hops, hop{tokenIn: in, tokenOut: out, pair: p})
	}
	return hops, nil
}

// amountsOut walks the hops forward, quoting each pool's output from its
// live reserves. The result has one amount per path node.
func amountsOut(hops []hop, amountIn *big.Int) ([]*big.Int, error) {
	amounts := make([]*big.Int, len(hops)+1)
	amounts[0] = new(big.Int).Set(amountIn)
	for i, h := range hops {
		if h.pair == nil {
			amounts[i+1] = new(big.Int).Set(amounts[i])
			continue
		}
		reserveIn, reserveOut, err := h.pair.OrientedReserves(h.tokenIn)
		if err != nil {
			return nil, err
		}
		out, err := calculator.GetAmountOut(amounts[i], reserveIn, reserveOut)
		if err != nil {
			return nil, err
		}
		amounts[i+1] = out
	}
	return amounts, nil
}

// amountsIn walks the hops backward from the desired output, quoting the
// required input at each pool with the ceiling-biased formula.
func amountsIn(hops []hop, amountOut *big.Int) ([]*big.Int, error) {
	amounts := make([]*big.Int, len(hops)+1)
	amounts[len(hops)] = new(big.Int).Set(amountOut)
	for i := len(hops) - 1; i >= 0; i-- {
		h := hops[i]
		if h.pair == nil {
			amounts[i] = new(big.Int).Set(amounts[i+1])
			continue
		}
		reserveIn, reserveOut, err := h.pair.OrientedReserves(h.tokenIn)
		if err != nil {
			return nil, err
		}
		in, err := calculator.GetAmountIn(amounts[i+1], reserveIn, reserveOut)
		if err != nil {
			return nil, err
		}
		amounts[i] = in
	}
	return amounts, nil
}

// QuoteAmountsOut quotes the amount received at every node of the path for
// an exact input, without mutating any state. Every hop's pair must already
// exist.
func (r *Router) QuoteAmountsOut(path Path, amountIn *big.Int) ([]*big.Int, error) {
	const op = "quote_amounts_out"
	hops, err := r.resolveHops(path)
	if err != nil {
		return nil, r.reject(op, err)
	}
	if err := checkAmount(amountIn); err != nil {
		return nil, r.reject(op, err)
	}
	amounts, err := amountsOut(hops, amountIn)
	if err != nil {
		return nil, r.reject(op, err)
	}
	if r.metrics != nil {
		r.metrics.Quotes.Inc()
	}
	return amounts, nil
}

// QuoteAmountsIn quotes the amount required at every node of the path for an
// exact output, without mutating any state.
func (r *Router) QuoteAmountsIn(path Path, amountOut *big.Int) ([]*big.Int, error) {
	const op = "quote_amounts_in"
	hops, err := r.resolveHops(path)
	if err != nil {
		return nil, r.reject(op, err)
	}
	if err := checkAmount(amountOut); err != nil {
		return nil, r.reject(op, err)
	}
	amounts, err := amountsIn(hops, amountOut)
	if err != nil {
		return nil, r.reject(op, err)
	}
	if r.metrics != nil {
		r.metrics.Quotes.Inc()
	}
	return amounts, nil
}

// reject records a validation failure and hands the error back unchanged.
func (r *Router) reject(op string, err error) error {
	if r.metrics != nil {
		r.metrics.FailedOperations.WithLabelValues(errKind(err)).Inc()
	}
	r.logger.Debug("operation rejected", "op", op, "error", err)
	return err
}

// errKind maps an error chain onto its taxonomy label for metrics.
func errKind(err error) string {
	switch {
	case errors.Is(err, engine.ErrExpired):
		return "expired"
	case errors.Is(err, engine.ErrInvalidPathEndpoint):
		return "invalid_path_endpoint"
	case errors.Is(err, engine.ErrInvalidPath):
		return "invalid_path"
	case errors.Is(err, engine.ErrPairNotFound):
		return "pair_not_found"
	case errors.Is(err, engine.ErrIdenticalTokens):
		return "identical_tokens"
	case errors.Is(err, engine.ErrZeroToken):
		return "zero_token"
	case errors.Is(err, engine.ErrZeroLiquidityMinted):
		return "zero_liquidity_minted"
	case errors.Is(err, engine.ErrZeroAmount):
		return "zero_amount"
	case errors.Is(err, engine.ErrInsufficientShareBalance):
		return "insufficient_share_balance"
	case errors.Is(err, engine.ErrBelowMinimum):
		return "below_minimum"
	case errors.Is(err, engine.ErrInsufficientAmountA):
		return "insufficient_amount_a"
	case errors.Is(err, engine.ErrInsufficientAmountB):
		return "insufficient_amount_b"
	case errors.Is(err, engine.ErrInsufficientOutput):
		return "insufficient_output"
	case errors.Is(err, engine.ErrInsufficientInput):
		return "insufficient_input"
	case errors.Is(err, engine.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, engine.ErrOverflow):
		return "overflow"
	case errors.Is(err, engine.ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, engine.ErrReserveInvariant):
		return "reserve_invariant"
	default:
		return "other"
	}
}
