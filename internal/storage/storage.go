package storage

import (
	"context"

	"github.com/ricardosaldanha2005/defi-lending/internal/model"
)

// Storage is the sink the sync runner writes normalized events into. Upserts
// are idempotent, keyed by (wallet, transaction id, log index).
type Storage interface {
	UpsertEvents(ctx context.Context, wallet string, events []model.NormalizedEvent) error
	LoadWatermark(ctx context.Context, wallet string) (model.SyncWatermark, bool, error)
	SaveWatermark(ctx context.Context, mark model.SyncWatermark) error
}
