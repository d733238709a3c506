// Package metrics defines the engine's Prometheus instrumentation. A
// Metrics value is created against a prometheus.Registerer and threaded
// through the registry and router constructors; a nil *Metrics disables
// instrumentation everywhere it is accepted.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics carries every engine-level collector.
type Metrics struct {
	// PairsCreated counts pair creations in the registry.
	PairsCreated prometheus.Counter

	// Swaps counts completed swap executions (one per router call, not per
	// hop).
	Swaps prometheus.Counter

	// LiquidityAdds and LiquidityRemoves count completed liquidity events.
	LiquidityAdds    prometheus.Counter
	LiquidityRemoves prometheus.Counter

	// Quotes counts read-only multi-hop quote calls.
	Quotes prometheus.Counter

	// FailedOperations counts router operations rejected by validation,
	// labelled with the error kind.
	FailedOperations *prometheus.CounterVec
}

// New builds the collectors and registers them with the given registerer.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		PairsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "superswap",
			Name:      "pairs_created_total",
			Help:      "Number of pairs created in the registry.",
		}),
		Swaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "superswap",
			Name:      "swaps_total",
			Help:      "Number of completed swap executions.",
		}),
		LiquidityAdds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "superswap",
			Name:      "liquidity_adds_total",
			Help:      "Number of completed addLiquidity operations.",
		}),
		LiquidityRemoves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "superswap",
			Name:      "liquidity_removes_total",
			Help:      "Number of completed removeLiquidity operations.",
		}),
		Quotes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "superswap",
			Name:      "quotes_total",
			Help:      "Number of read-only quote calls.",
		}),
		FailedOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "superswap",
			Name:      "failed_operations_total",
			Help:      "Router operations rejected by validation, by error kind.",
		}, []string{"kind"}),
	}

	for _, collector := range []prometheus.Collector{
		m.PairsCreated,
		m.Swaps,
		m.LiquidityAdds,
		m.LiquidityRemoves,
		m.Quotes,
		m.FailedOperations,
	} {
		if err := registerer.Register(collector); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return m, nil
}
