package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ricardosaldanha2005/defi-lending/internal/model"
)

// Store provides Postgres persistence for normalized lending events and
// per-wallet sync watermarks.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertEvents inserts or updates a batch keyed by (wallet, tx, log index).
func (s *Store) UpsertEvents(ctx context.Context, wallet string, events []model.NormalizedEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(`
			INSERT INTO lending_events (
				wallet_address, tx_hash, log_index, block_number, event_ts,
				event_kind, asset_address, asset_symbol, asset_decimals,
				amount_raw, amount, amount_usd, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now(),now())
			ON CONFLICT (wallet_address, tx_hash, log_index)
			DO UPDATE SET
				block_number = EXCLUDED.block_number,
				event_ts = EXCLUDED.event_ts,
				event_kind = EXCLUDED.event_kind,
				asset_address = EXCLUDED.asset_address,
				asset_symbol = EXCLUDED.asset_symbol,
				asset_decimals = EXCLUDED.asset_decimals,
				amount_raw = EXCLUDED.amount_raw,
				amount = EXCLUDED.amount,
				amount_usd = EXCLUDED.amount_usd,
				updated_at = now()
		`,
			wallet,
			ev.TransactionID,
			ev.LogIndex,
			ev.BlockNumber,
			ev.TimestampSec,
			ev.EventKind,
			ev.AssetAddress,
			ev.AssetSymbol,
			ev.AssetDecimals,
			ev.AmountRaw,
			ev.Amount,
			ev.AmountUSDRaw,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadWatermark returns the sync watermark for a wallet.
func (s *Store) LoadWatermark(ctx context.Context, wallet string) (model.SyncWatermark, bool, error) {
	if wallet == "" {
		return model.SyncWatermark{}, false, fmt.Errorf("wallet required")
	}
	mark := model.SyncWatermark{Wallet: wallet}
	row := s.pool.QueryRow(ctx, `
		SELECT last_synced_ts, last_synced_block
		FROM wallet_sync_state WHERE wallet_address=$1
	`, wallet)
	if err := row.Scan(&mark.LastSyncedTimestamp, &mark.LastSyncedBlock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SyncWatermark{Wallet: wallet}, false, nil
		}
		return model.SyncWatermark{}, false, err
	}
	return mark, true, nil
}

// SaveWatermark upserts the sync watermark for a wallet.
func (s *Store) SaveWatermark(ctx context.Context, mark model.SyncWatermark) error {
	if mark.Wallet == "" {
		return fmt.Errorf("wallet required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO wallet_sync_state (wallet_address, last_synced_ts, last_synced_block, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (wallet_address) DO UPDATE
		SET last_synced_ts = EXCLUDED.last_synced_ts,
			last_synced_block = EXCLUDED.last_synced_block,
			updated_at = now()
	`, mark.Wallet, mark.LastSyncedTimestamp, mark.LastSyncedBlock)
	return err
}
