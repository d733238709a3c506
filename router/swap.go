package router

import (
	"fmt"
	"math/big"

	"github.com/superswap/superswap-engine-go/engine"
)

// SwapExactInput swaps an exact input amount along the path, delivering at
// least minAmountOut of the final token to the recipient. It returns the
// realized amount at every path node.
func (r *Router) SwapExactInput(path Path, amountIn, minAmountOut *big.Int, from, to engine.Account, deadline int64) ([]*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.swapExactInput("swap_exact_input", path, amountIn, minAmountOut, from, to, deadline, false, false)
}

// SwapExactOutput swaps along the path so the recipient receives the exact
// requested output of the final token, spending at most maxAmountIn of the
// first. A nil maxAmountIn means no input bound. It returns the realized
// amount at every path node.
func (r *Router) SwapExactOutput(path Path, amountOut, maxAmountIn *big.Int, from, to engine.Account, deadline int64) ([]*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.swapExactOutput("swap_exact_output", path, amountOut, maxAmountIn, from, to, deadline, false, false)
}

// SwapExactETHForTokens is SwapExactInput paid in native value: the input is
// wrapped at the boundary and the path must start at the wrapped-native
// token.
func (r *Router) SwapExactETHForTokens(path Path, amountIn, minAmountOut *big.Int, from, to engine.Account, deadline int64) ([]*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.swapExactInput("swap_exact_eth_for_tokens", path, amountIn, minAmountOut, from, to, deadline, true, false)
}

// SwapExactTokensForETH is SwapExactInput delivering native value: the path
// must end at the wrapped-native token, whose output is unwrapped to the
// recipient.
func (r *Router) SwapExactTokensForETH(path Path, amountIn, minAmountOut *big.Int, from, to engine.Account, deadline int64) ([]*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.swapExactInput("swap_exact_tokens_for_eth", path, amountIn, minAmountOut, from, to, deadline, false, true)
}

// SwapETHForExactTokens is SwapExactOutput paid in native value; exactly the
// required input is wrapped, so no refund leg exists.
func (r *Router) SwapETHForExactTokens(path Path, amountOut, maxAmountIn *big.Int, from, to engine.Account, deadline int64) ([]*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.swapExactOutput("swap_eth_for_exact_tokens", path, amountOut, maxAmountIn, from, to, deadline, true, false)
}

// SwapTokensForExactETH is SwapExactOutput delivering native value to the
// recipient.
func (r *Router) SwapTokensForExactETH(path Path, amountOut, maxAmountIn *big.Int, from, to engine.Account, deadline int64) ([]*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.swapExactOutput("swap_tokens_for_exact_eth", path, amountOut, maxAmountIn, from, to, deadline, false, true)
}

// checkNativeEntry requires the path to start at the wrapped-native token.
func (r *Router) checkNativeEntry(path Path) error {
	if len(path) == 0 || r.normalizeToken(path[0]) != r.weth {
		return fmt.Errorf("%w: first path token must be the wrapped-native token", engine.ErrInvalidPathEndpoint)
	}
	return nil
}

// checkNativeExit requires the path to end at the wrapped-native token.
func (r *Router) checkNativeExit(path Path) error {
	if len(path) == 0 || r.normalizeToken(path[len(path)-1]) != r.weth {
		return fmt.Errorf("%w: last path token must be the wrapped-native token", engine.ErrInvalidPathEndpoint)
	}
	return nil
}

func (r *Router) checkEndpoints(path Path, wrapIn, unwrapOut bool) error {
	if wrapIn {
		if err := r.checkNativeEntry(path); err != nil {
			return err
		}
	}
	if unwrapOut {
		if err := r.checkNativeExit(path); err != nil {
			return err
		}
	}
	return nil
}

// swapExactInput runs the shared exact-input flow. Caller holds r.mu.
func (r *Router) swapExactInput(op string, path Path, amountIn, minAmountOut *big.Int, from, to engine.Account, deadline int64, wrapIn, unwrapOut bool) ([]*big.Int, error) {
	if err := r.checkDeadline(deadline); err != nil {
		return nil, r.reject(op, err)
	}
	if err := r.checkEndpoints(path, wrapIn, unwrapOut); err != nil {
		return nil, r.reject(op, err)
	}
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
	final := amounts[len(amounts)-1]
	if final.Cmp(orZero(minAmountOut)) < 0 {
		return nil, r.reject(op, fmt.Errorf("%w: %s < minimum %s", engine.ErrInsufficientOutput, final, minAmountOut))
	}
	if err := r.executeSwap(op, hops, amounts, from, to, wrapIn, unwrapOut); err != nil {
		return nil, err
	}
	return amounts, nil
}

// swapExactOutput runs the shared exact-output flow. Caller holds r.mu.
//
// The backward quote fixes the required input; the amounts actually settled
// come from re-walking the path forward with that input, so the ceiling bias
// never leaves custody and reserves out of step. The forward walk can only
// meet or exceed the requested output.
func (r *Router) swapExactOutput(op string, path Path, amountOut, maxAmountIn *big.Int, from, to engine.Account, deadline int64, wrapIn, unwrapOut bool) ([]*big.Int, error) {
	if err := r.checkDeadline(deadline); err != nil {
		return nil, r.reject(op, err)
	}
	if err := r.checkEndpoints(path, wrapIn, unwrapOut); err != nil {
		return nil, r.reject(op, err)
	}
	hops, err := r.resolveHops(path)
	if err != nil {
		return nil, r.reject(op, err)
	}
	if err := checkAmount(amountOut); err != nil {
		return nil, r.reject(op, err)
	}
	planned, err := amountsIn(hops, amountOut)
	if err != nil {
		return nil, r.reject(op, err)
	}
	required := planned[0]
	if maxAmountIn != nil && required.Cmp(maxAmountIn) > 0 {
		return nil, r.reject(op, fmt.Errorf("%w: %s > maximum %s", engine.ErrInsufficientInput, required, maxAmountIn))
	}
	amounts, err := amountsOut(hops, required)
	if err != nil {
		return nil, r.reject(op, err)
	}
	if err := r.executeSwap(op, hops, amounts, from, to, wrapIn, unwrapOut); err != nil {
		return nil, err
	}
	return amounts, nil
}

// executeSwap settles custody for a fully quoted trade and then applies the
// hop swaps to the pairs. Custody commits first; the pair mutations after it
// replay the exact quoted amounts against unchanged reserves.
func (r *Router) executeSwap(op string, hops []hop, amounts []*big.Int, from, to engine.Account, wrapIn, unwrapOut bool) error {
	last := len(amounts) - 1

	batch := r.ledger.Begin()
	if wrapIn {
		batch.Wrap(r.weth, amounts[0], from)
	}
	holder := from
	for i, h := range hops {
		if h.pair == nil {
			continue
		}
		batch.Transfer(h.tokenIn, amounts[i], holder, h.pair.Custodian())
		holder = h.pair.Custodian()
	}
	outToken := hops[len(hops)-1].tokenOut
	batch.Transfer(outToken, amounts[last], holder, to)
	if unwrapOut {
		batch.Unwrap(r.weth, amounts[last], to)
	}
	if err := batch.Commit(); err != nil {
		return r.reject(op, err)
	}

	for i, h := range hops {
		if h.pair == nil {
			continue
		}
		if _, err := h.pair.Swap(amounts[i], h.tokenIn); err != nil {
			return fmt.Errorf("swap on %s failed after settlement: %w", h.pair.Key(), err)
		}
	}

	if r.metrics != nil {
		r.metrics.Swaps.Inc()
	}
	r.logger.Info("swap executed",
		"op", op,
		"hops", len(hops),
		"amount_in", amounts[0].String(),
		"amount_out", amounts[last].String(),
		"recipient", to.Hex(),
	)
	return nil
}
