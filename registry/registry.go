// Package registry owns the set of all pairs, keyed by canonical token
// combination. It creates pairs on first request, preserves discovery order
// for enumeration, and maintains a token adjacency index for
// which-tokens-trade-with-what queries.
package registry

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/superswap/superswap-engine-go/engine"
	"github.com/superswap/superswap-engine-go/metrics"
	"github.com/superswap/superswap-engine-go/pair"
)

// Config holds the registry's collaborators. Both fields are optional.
type Config struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Registry is the engine's pair index. Pairs are never removed; the set
// grows monotonically over the life of the engine instance.
type Registry struct {
	mu      sync.RWMutex
	pairs   map[engine.PairKey]*pair.Pair
	order   []*pair.Pair
	index   *tokenIndex
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates an empty registry.
func New(cfg Config) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		pairs:   make(map[engine.PairKey]*pair.Pair),
		index:   newTokenIndex(),
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

// GetOrCreate returns the pair for the unordered {tokenA, tokenB}
// combination, creating an empty one on first request. The second return
// reports whether a creation happened.
func (r *Registry) GetOrCreate(tokenA, tokenB engine.Token) (*pair.Pair, bool, error) {
	key, err := engine.NewPairKey(tokenA, tokenB)
	if err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.pairs[key]; ok {
		return existing, false, nil
	}

	created := pair.New(key)
	r.pairs[key] = created
	r.order = append(r.order, created)
	r.index.add(key, created)

	r.logger.Info("pair created",
		"token0", key.Token0.Hex(),
		"token1", key.Token1.Hex(),
		"custodian", created.Custodian().Hex(),
	)
	if r.metrics != nil {
		r.metrics.PairsCreated.Inc()
	}
	return created, true, nil
}

// Get returns the pair for the unordered combination without ever creating
// one. Missing pairs fail with engine.ErrPairNotFound.
func (r *Registry) Get(tokenA, tokenB engine.Token) (*pair.Pair, error) {
	key, err := engine.NewPairKey(tokenA, tokenB)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if existing, ok := r.pairs[key]; ok {
		return existing, nil
	}
	return nil, fmt.Errorf("%w: %s", engine.ErrPairNotFound, key)
}

// AllPairs returns a snapshot of every pair in creation order. The slice is
// the caller's to keep; re-invoking restarts the enumeration from a fresh
// snapshot.
func (r *Registry) AllPairs() []*pair.Pair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*pair.Pair, len(r.order))
	copy(all, r.order)
	return all
}

// Len returns the number of pairs created so far.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Neighbors returns every token directly tradable against the given token.
func (r *Registry) Neighbors(token engine.Token) []engine.Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.neighbors(token)
}

// PairsWith returns every pair one of whose sides is the given token.
func (r *Registry) PairsWith(token engine.Token) []*pair.Pair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.pairsWith(token)
}

// HasRoute reports whether any multi-hop path connects the two tokens
// through existing pairs.
func (r *Registry) HasRoute(from, to engine.Token) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.hasRoute(from, to)
}
