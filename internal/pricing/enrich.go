package pricing

import (
	"context"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/ricardosaldanha2005/defi-lending/internal/model"
)

// disagreementTolerance flags rows where the subgraph's own USD amount and
// the externally computed one diverge enough to deserve manual review.
const disagreementTolerance = 0.05

// Enricher fills in USD amounts on normalized events. The subgraph's direct
// USD field wins when present and non-zero; the external price source only
// fills gaps. Lookup failures leave the event untouched.
type Enricher struct {
	source Source
	logger *zap.Logger
}

// NewEnricher builds an enricher around a price source.
func NewEnricher(source Source, logger *zap.Logger) *Enricher {
	if source == nil {
		source = Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{source: source, logger: logger}
}

// Apply enriches a batch in place. It never fails.
func (e *Enricher) Apply(ctx context.Context, chain string, events []model.NormalizedEvent) {
	for i := range events {
		e.enrich(ctx, chain, &events[i])
	}
}

func (e *Enricher) enrich(ctx context.Context, chain string, event *model.NormalizedEvent) {
	direct := 0.0
	if event.AmountUSDRaw != nil {
		direct, _ = strconv.ParseFloat(*event.AmountUSDRaw, 64)
	}

	if event.Amount == nil || event.AssetAddress == nil {
		return
	}
	amount, err := strconv.ParseFloat(*event.Amount, 64)
	if err != nil || amount <= 0 {
		return
	}

	price, ok := e.source.PriceAt(ctx, chain, *event.AssetAddress, event.TimestampSec)
	if !ok {
		return
	}
	computed := amount * price

	if direct > 0 {
		if math.Abs(computed-direct)/direct > disagreementTolerance {
			e.logger.Warn("usd amount disagreement",
				zap.String("tx", event.TransactionID),
				zap.Int64("log_index", event.LogIndex),
				zap.Float64("direct", direct),
				zap.Float64("computed", computed),
			)
		}
		return
	}

	value := strconv.FormatFloat(computed, 'f', -1, 64)
	event.AmountUSDRaw = &value
}
