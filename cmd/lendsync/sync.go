package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ricardosaldanha2005/defi-lending/internal/config"
	"github.com/ricardosaldanha2005/defi-lending/internal/model"
	"github.com/ricardosaldanha2005/defi-lending/internal/pricing"
	"github.com/ricardosaldanha2005/defi-lending/internal/retrieval"
	"github.com/ricardosaldanha2005/defi-lending/internal/storage"
	"github.com/ricardosaldanha2005/defi-lending/internal/storage/postgres"
	"github.com/ricardosaldanha2005/defi-lending/internal/syncer"
)

func runSync(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSync(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	protocol, err := model.ParseProtocol(cfg.Protocol)
	if err != nil {
		return err
	}

	wallets, err := syncer.ParseWallets(cfg.Wallets)
	if err != nil {
		return err
	}
	if len(wallets) == 0 {
		return fmt.Errorf("wallet list is required")
	}

	endpoints, err := buildEndpoints(cfg.Endpoints)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink storage.Storage
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sink = store
	} else {
		sink = storage.NewJsonlStorage(cfg.Out)
	}

	fetcher := retrieval.NewFetcher(endpoints, retrieval.WithLogger(logger))
	enricher := pricing.NewEnricher(newPriceSource(cfg.PriceAPI, logger), logger)

	runner := syncer.NewRunner(syncer.RunConfig{
		Protocol:     protocol,
		Chain:        cfg.Chain,
		Wallets:      wallets,
		BatchSize:    cfg.BatchSize,
		BatchDelay:   cfg.BatchDelay,
		MaxEvents:    cfg.MaxEvents,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, fetcher, enricher, sink, logger)

	logger.Info("sync start",
		zap.String("protocol", string(protocol)),
		zap.String("chain", cfg.Chain),
		zap.Int("wallets", len(wallets)),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	return runner.Run(ctx)
}
