// Package exchange wires a complete engine instance: one custody vault, one
// pair registry, and one router over both. Instances are independent; no
// package-level state exists, so any number of engines can coexist in a
// process.
package exchange

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/superswap/superswap-engine-go/custody"
	"github.com/superswap/superswap-engine-go/engine"
	"github.com/superswap/superswap-engine-go/metrics"
	"github.com/superswap/superswap-engine-go/registry"
	"github.com/superswap/superswap-engine-go/router"
	"github.com/superswap/superswap-engine-go/snapshot"
)

// Config configures a new engine instance. WETH is required; everything
// else defaults.
type Config struct {
	// WETH is the wrapped-native token identifier for this instance.
	WETH engine.Token

	Logger *slog.Logger

	// Registerer receives the engine's Prometheus collectors; nil disables
	// instrumentation.
	Registerer prometheus.Registerer

	// Now overrides the clock used for deadline checks. Tests pin it.
	Now func() int64
}

// System is one fully wired engine instance.
type System struct {
	Vault    *custody.Vault
	Registry *registry.Registry
	Router   *router.Router
	Metrics  *metrics.Metrics
}

// New builds a system from the configuration.
func New(cfg Config) (*System, error) {
	if engine.IsZeroToken(cfg.WETH) {
		return nil, errors.New("invalid exchange config: a wrapped-native token is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var m *metrics.Metrics
	if cfg.Registerer != nil {
		var err error
		if m, err = metrics.New(cfg.Registerer); err != nil {
			return nil, fmt.Errorf("failed to build metrics: %w", err)
		}
	}

	vault := custody.NewVault()
	reg := registry.New(registry.Config{
		Logger:  logger,
		Metrics: m,
	})
	r, err := router.New(router.Config{
		Registry: reg,
		Ledger:   vault,
		WETH:     cfg.WETH,
		Logger:   logger,
		Metrics:  m,
		Now:      cfg.Now,
	})
	if err != nil {
		return nil, err
	}
	return &System{
		Vault:    vault,
		Registry: reg,
		Router:   r,
		Metrics:  m,
	}, nil
}

// Snapshot captures the current state of every pair.
func (s *System) Snapshot() []snapshot.PairState {
	return snapshot.Capture(s.Registry)
}
