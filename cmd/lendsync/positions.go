package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ricardosaldanha2005/defi-lending/internal/chain"
	"github.com/ricardosaldanha2005/defi-lending/internal/config"
	"github.com/ricardosaldanha2005/defi-lending/internal/model"
	"github.com/ricardosaldanha2005/defi-lending/internal/positions"
)

func runPositions(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPositions(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.Pool) {
		return fmt.Errorf("invalid pool address: %s", cfg.Pool)
	}
	if !common.IsHexAddress(cfg.Wallet) {
		return fmt.Errorf("invalid wallet address: %s", cfg.Wallet)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	reader := positions.NewReader(chainClient, logger)

	logger.Info("positions read",
		zap.String("chain", cfg.Chain),
		zap.String("pool", cfg.Pool),
		zap.String("wallet", cfg.Wallet),
	)

	account, err := reader.ReadAaveAccount(ctx, cfg.Chain, common.HexToAddress(cfg.Pool), common.HexToAddress(cfg.Wallet))
	if err != nil {
		return err
	}

	output := struct {
		Account model.AccountPosition `json:"account"`
		Tokens  []model.TokenMeta     `json:"tokens,omitempty"`
	}{Account: account}

	cache := positions.NewTokenMetaCache()
	for _, token := range cfg.Tokens {
		if !common.IsHexAddress(token) {
			return fmt.Errorf("invalid token address: %s", token)
		}
		addr := common.HexToAddress(token)
		meta, ok := cache.Get(addr)
		if !ok {
			meta, err = positions.FetchTokenMeta(ctx, chainClient, addr, logger)
			if err != nil {
				logger.Warn("token metadata lookup failed", zap.String("token", token), zap.Error(err))
				continue
			}
			cache.Set(addr, meta)
		}
		output.Tokens = append(output.Tokens, meta)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
