// Command console runs a scripted demo against an in-process engine: it
// seeds a wrapped-native/stable pool, trades against it, and renders the
// pool state and the resulting snapshot diff. Configuration comes from the
// environment, optionally via a .env file.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/superswap/superswap-engine-go/engine"
	"github.com/superswap/superswap-engine-go/exchange"
	"github.com/superswap/superswap-engine-go/router"
	"github.com/superswap/superswap-engine-go/snapshot"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "Superswap engine demo console",
	Long: `console seeds an in-process Superswap engine with a wrapped-native/stable
pool, executes a reference trade against it, and prints the pool state and
the snapshot diff the trade produced.`,
	RunE: run,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found, using environment and defaults")
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	sys, err := exchange.New(exchange.Config{
		WETH:       cfg.WETH,
		Logger:     logger,
		Registerer: prometheus.NewRegistry(),
	})
	if err != nil {
		return err
	}

	deadline := time.Now().Add(time.Minute).Unix()

	// Seed the provider and the trader from the faucet, the demo's stand-in
	// for host deposits.
	if err := sys.Vault.Faucet(engine.NativeToken, cfg.SeedNative, cfg.Provider); err != nil {
		return err
	}
	if err := sys.Vault.Faucet(cfg.Stable, cfg.SeedStable, cfg.Provider); err != nil {
		return err
	}
	if err := sys.Vault.Faucet(engine.NativeToken, cfg.SwapInput, cfg.Trader); err != nil {
		return err
	}

	_, _, shares, err := sys.Router.AddLiquidityETH(
		cfg.Stable, cfg.SeedStable, nil, cfg.SeedNative, nil,
		cfg.Provider, cfg.Provider, deadline)
	if err != nil {
		return fmt.Errorf("seeding liquidity failed: %w", err)
	}
	logger.Info("pool seeded", "shares", shares.String())

	before := sys.Snapshot()
	renderPools("Pools after seeding", before)

	path, err := router.NewPath(engine.NativeToken, cfg.Stable)
	if err != nil {
		return err
	}
	quoted, err := sys.Router.QuoteAmountsOut(path, cfg.SwapInput)
	if err != nil {
		return fmt.Errorf("quoting failed: %w", err)
	}
	amounts, err := sys.Router.SwapExactETHForTokens(
		path, cfg.SwapInput, quoted[len(quoted)-1],
		cfg.Trader, cfg.Trader, deadline)
	if err != nil {
		return fmt.Errorf("swap failed: %w", err)
	}
	logger.Info("trade executed",
		"amount_in", amounts[0].String(),
		"amount_out", amounts[len(amounts)-1].String(),
	)

	after := sys.Snapshot()
	renderPools("Pools after trade", after)
	renderDiff(snapshot.Differ(before, after))

	return nil
}

func renderPools(title string, states []snapshot.PairState) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Token 0", "Token 1", "Reserve 0", "Reserve 1", "Total Shares"})
	for _, s := range states {
		t.AppendRow(table.Row{
			s.Key.Token0.Hex(),
			s.Key.Token1.Hex(),
			s.Reserve0.String(),
			s.Reserve1.String(),
			s.TotalShares.String(),
		})
	}
	t.Render()
}

func renderDiff(diff snapshot.Diff) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Snapshot diff")
	t.AppendHeader(table.Row{"Change", "Pair", "Reserve 0", "Reserve 1"})
	for _, s := range diff.Additions {
		t.AppendRow(table.Row{"added", s.Key.String(), s.Reserve0.String(), s.Reserve1.String()})
	}
	for _, s := range diff.Updates {
		t.AppendRow(table.Row{"updated", s.Key.String(), s.Reserve0.String(), s.Reserve1.String()})
	}
	for _, key := range diff.Deletions {
		t.AppendRow(table.Row{"deleted", key.String(), "", ""})
	}
	t.Render()
}
