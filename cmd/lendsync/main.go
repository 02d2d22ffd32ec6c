package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ricardosaldanha2005/defi-lending/internal/model"
	"github.com/ricardosaldanha2005/defi-lending/internal/pricing"
	"github.com/ricardosaldanha2005/defi-lending/internal/retrieval"
)

func main() {
	root := &cobra.Command{
		Use:          "lendsync",
		Short:        "Lending protocol event retrieval and sync",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch normalized lending events for one wallet",
		RunE:  runFetch,
	}

	fetchCmd.Flags().String("protocol", "", "protocol family (aave, compound)")
	fetchCmd.Flags().String("chain", "ethereum", "chain name")
	fetchCmd.Flags().String("address", "", "wallet address")
	fetchCmd.Flags().String("from", "", "start timestamp (unix seconds or RFC3339)")
	fetchCmd.Flags().Int("max-events", 5000, "maximum events per run")
	fetchCmd.Flags().Int("page-size", 1000, "events per subgraph page")
	fetchCmd.Flags().String("endpoints", "", "subgraph endpoints (comma-separated protocol.chain=url)")
	fetchCmd.Flags().String("price-api", "", "optional historical price API base URL")
	fetchCmd.Flags().String("out", "./data/events.jsonl", "output JSONL path")
	fetchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(fetchCmd)

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync wallet event histories into storage",
		RunE:  runSync,
	}

	syncCmd.Flags().String("protocol", "", "protocol family (aave, compound)")
	syncCmd.Flags().String("chain", "ethereum", "chain name")
	syncCmd.Flags().StringSlice("wallet", nil, "wallet addresses (comma-separated)")
	syncCmd.Flags().String("endpoints", "", "subgraph endpoints (comma-separated protocol.chain=url)")
	syncCmd.Flags().String("pg-dsn", "", "Postgres DSN (falls back to JSONL output when empty)")
	syncCmd.Flags().String("out", "./data/events.jsonl", "JSONL output path when no DSN is set")
	syncCmd.Flags().Int("batch-size", 4, "wallets synced concurrently per batch")
	syncCmd.Flags().Duration("batch-delay", 200*time.Millisecond, "pause between wallet batches")
	syncCmd.Flags().Int("max-events", 5000, "maximum events per wallet per run")
	syncCmd.Flags().Int("max-retries", 3, "maximum retry attempts")
	syncCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	syncCmd.Flags().String("price-api", "", "optional historical price API base URL")
	syncCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(syncCmd)

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "Read a wallet's live Aave account data on-chain",
		RunE:  runPositions,
	}

	positionsCmd.Flags().String("rpc", "", "chain RPC URL")
	positionsCmd.Flags().String("chain", "ethereum", "chain name")
	positionsCmd.Flags().String("pool", "", "Aave pool contract address")
	positionsCmd.Flags().String("wallet", "", "wallet address")
	positionsCmd.Flags().StringSlice("token", nil, "ERC20 addresses to include metadata for (comma-separated)")
	positionsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(positionsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// buildEndpoints converts protocol.chain=url pairs into the endpoint registry.
func buildEndpoints(raw map[string]string) (retrieval.Endpoints, error) {
	endpoints := make(retrieval.Endpoints, len(raw))
	for key, url := range raw {
		parts := strings.SplitN(key, ".", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("endpoint key %q must be protocol.chain", key)
		}
		protocol, err := model.ParseProtocol(parts[0])
		if err != nil {
			return nil, err
		}
		chain := strings.ToLower(strings.TrimSpace(parts[1]))
		if chain == "" {
			return nil, fmt.Errorf("endpoint key %q has an empty chain", key)
		}
		if endpoints[protocol] == nil {
			endpoints[protocol] = make(map[string]string)
		}
		endpoints[protocol][chain] = url
	}
	return endpoints, nil
}

func newPriceSource(baseURL string, logger *zap.Logger) pricing.Source {
	if baseURL == "" {
		return pricing.Nop{}
	}
	return pricing.NewHTTPSource(baseURL, logger)
}
