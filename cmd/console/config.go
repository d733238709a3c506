package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
)

// consoleConfig is the demo's environment-driven configuration. Every value
// has a default so the console runs with no .env at all.
type consoleConfig struct {
	WETH   common.Address
	Stable common.Address

	Provider common.Address
	Trader   common.Address

	SeedNative *big.Int
	SeedStable *big.Int
	SwapInput  *big.Int
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envAddress(key, fallback string) (common.Address, error) {
	raw := envOr(key, fallback)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: %q is not a hex address", key, raw)
	}
	return common.HexToAddress(raw), nil
}

func envAmount(key, fallback string) (*big.Int, error) {
	raw := envOr(key, fallback)
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%s: %q is not a positive integer", key, raw)
	}
	return amount, nil
}

func loadConfig() (*consoleConfig, error) {
	cfg := &consoleConfig{}
	var err error
	if cfg.WETH, err = envAddress("CONSOLE_WETH", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"); err != nil {
		return nil, err
	}
	if cfg.Stable, err = envAddress("CONSOLE_STABLE", "0x6B175474E89094C44Da98b954EedeAC495271d0F"); err != nil {
		return nil, err
	}
	if cfg.Provider, err = envAddress("CONSOLE_PROVIDER", "0x1111111111111111111111111111111111111111"); err != nil {
		return nil, err
	}
	if cfg.Trader, err = envAddress("CONSOLE_TRADER", "0x2222222222222222222222222222222222222222"); err != nil {
		return nil, err
	}
	if cfg.SeedNative, err = envAmount("CONSOLE_SEED_NATIVE", "1000000000000000000"); err != nil {
		return nil, err
	}
	if cfg.SeedStable, err = envAmount("CONSOLE_SEED_STABLE", "1167000000000000000000"); err != nil {
		return nil, err
	}
	if cfg.SwapInput, err = envAmount("CONSOLE_SWAP_INPUT", "100000000000000000"); err != nil {
		return nil, err
	}
	return cfg, nil
}
