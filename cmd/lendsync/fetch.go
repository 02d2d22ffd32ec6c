package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ricardosaldanha2005/defi-lending/internal/config"
	"github.com/ricardosaldanha2005/defi-lending/internal/model"
	"github.com/ricardosaldanha2005/defi-lending/internal/pricing"
	"github.com/ricardosaldanha2005/defi-lending/internal/retrieval"
	"github.com/ricardosaldanha2005/defi-lending/internal/storage"
)

func runFetch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFetch(cfgFile, cmd.Flags())
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
	if !common.IsHexAddress(cfg.Address) {
		return fmt.Errorf("invalid wallet address: %s", cfg.Address)
	}
	from, err := config.ParseTimestamp(cfg.From)
	if err != nil {
		return fmt.Errorf("parse from: %w", err)
	}

	endpoints, err := buildEndpoints(cfg.Endpoints)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := retrieval.NewFetcher(endpoints,
		retrieval.WithLogger(logger),
		retrieval.WithPageSize(cfg.PageSize),
	)
	enricher := pricing.NewEnricher(newPriceSource(cfg.PriceAPI, logger), logger)

	logger.Info("fetch start",
		zap.String("protocol", string(protocol)),
		zap.String("chain", cfg.Chain),
		zap.String("address", cfg.Address),
		zap.Int64("from_ts", from),
		zap.Int("max_events", cfg.MaxEvents),
		zap.String("out", cfg.Out),
	)

	events, err := fetcher.FetchEvents(ctx, retrieval.Params{
		Protocol:      protocol,
		Chain:         cfg.Chain,
		Address:       cfg.Address,
		FromTimestamp: from,
		MaxEvents:     cfg.MaxEvents,
	})
	if err != nil {
		return err
	}

	enricher.Apply(ctx, cfg.Chain, events)

	sink := storage.NewJsonlStorage(cfg.Out)
	if err := sink.UpsertEvents(ctx, cfg.Address, events); err != nil {
		return err
	}

	logger.Info("fetch complete", zap.Int("events", len(events)))
	return nil
}
