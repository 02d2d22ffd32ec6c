package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ricardosaldanha2005/defi-lending/internal/discovery"
	"github.com/ricardosaldanha2005/defi-lending/internal/model"
	"github.com/ricardosaldanha2005/defi-lending/internal/pricing"
	"github.com/ricardosaldanha2005/defi-lending/internal/retrieval"
	"github.com/ricardosaldanha2005/defi-lending/internal/storage"
)

// RunConfig holds runtime settings for one sync pass.
type RunConfig struct {
	Protocol     model.Protocol
	Chain        string
	Wallets      []string
	BatchSize    int           // wallets synced concurrently per batch
	BatchDelay   time.Duration // pause between batches
	MaxEvents    int           // per-wallet cap, 0 = unbounded
	MaxRetries   int
	RetryBackoff time.Duration
}

// Runner syncs wallet histories from the retrieval engine into storage,
// advancing each wallet's watermark only after a successful upsert.
type Runner struct {
	cfg      RunConfig
	fetcher  *retrieval.Fetcher
	enricher *pricing.Enricher
	storage  storage.Storage
	logger   *zap.Logger
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, fetcher *retrieval.Fetcher, enricher *pricing.Enricher, sink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if enricher == nil {
		enricher = pricing.NewEnricher(pricing.Nop{}, logger)
	}
	return &Runner{
		cfg:      cfg,
		fetcher:  fetcher,
		enricher: enricher,
		storage:  sink,
		logger:   logger,
	}
}

// Run syncs all configured wallets in bounded-concurrency batches. A failed
// wallet is reported and skipped; it does not abort the pass or touch that
// wallet's watermark.
func (r *Runner) Run(ctx context.Context) error {
	if r.fetcher == nil {
		return fmt.Errorf("fetcher is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if len(r.cfg.Wallets) == 0 {
		return fmt.Errorf("at least one wallet is required")
	}

	var failed atomic.Int64
	batches := chunkWallets(r.cfg.Wallets, r.cfg.BatchSize)
	for i, batch := range batches {
		group, gctx := errgroup.WithContext(ctx)
		for _, wallet := range batch {
			wallet := wallet
			group.Go(func() error {
				if err := r.syncWallet(gctx, wallet); err != nil {
					failed.Add(1)
					r.logger.Warn("wallet sync failed",
						zap.String("wallet", wallet),
						zap.Error(err),
					)
				}
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}

		if r.cfg.BatchDelay > 0 && i < len(batches)-1 {
			timer := time.NewTimer(r.cfg.BatchDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d wallets failed to sync", n, len(r.cfg.Wallets))
	}
	return nil
}

func (r *Runner) syncWallet(ctx context.Context, wallet string) error {
	mark, _, err := r.storage.LoadWatermark(ctx, wallet)
	if err != nil {
		return fmt.Errorf("load watermark: %w", err)
	}

	params := retrieval.Params{
		Protocol:      r.cfg.Protocol,
		Chain:         r.cfg.Chain,
		Address:       wallet,
		FromTimestamp: mark.LastSyncedTimestamp,
		MaxEvents:     r.cfg.MaxEvents,
	}

	var events []model.NormalizedEvent
	attempt := func(ctx context.Context) error {
		fetched, err := r.fetcher.FetchEvents(ctx, params)
		if err != nil {
			return err
		}
		events = fetched
		return nil
	}

	err = attempt(ctx)
	if err != nil && isRetryable(err) {
		err = r.withBackoff(ctx, attempt)
	}
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}

	r.enricher.Apply(ctx, r.cfg.Chain, events)

	if err := r.storage.UpsertEvents(ctx, wallet, events); err != nil {
		return fmt.Errorf("store events: %w", err)
	}

	if len(events) > 0 {
		next := mark.Advance(events)
		next.Wallet = wallet
		if err := r.storage.SaveWatermark(ctx, next); err != nil {
			return fmt.Errorf("save watermark: %w", err)
		}
	}

	r.logger.Info("wallet synced",
		zap.String("wallet", wallet),
		zap.Int("events", len(events)),
		zap.Int64("from_ts", mark.LastSyncedTimestamp),
	)
	return nil
}

// maxBackoff caps the doubling delay so a long endpoint outage does not park
// a wallet for minutes inside one sync pass.
const maxBackoff = 10 * time.Second

// withBackoff reruns fn until it succeeds or the configured attempts are
// spent, doubling the delay between attempts up to maxBackoff.
func (r *Runner) withBackoff(ctx context.Context, fn func(context.Context) error) error {
	retries := r.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	delay := r.cfg.RetryBackoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= retries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if delay < maxBackoff {
			delay *= 2
			if delay > maxBackoff {
				delay = maxBackoff
			}
		}
	}
}

// isRetryable excludes configuration and discovery failures: those need
// operator action, not another attempt.
func isRetryable(err error) bool {
	var schemaErr *discovery.UnsupportedSchemaError
	if errors.Is(err, retrieval.ErrMissingEndpoint) || errors.As(err, &schemaErr) {
		return false
	}
	return true
}
