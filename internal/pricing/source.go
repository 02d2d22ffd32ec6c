package pricing

import (
	"context"
	"strings"
)

// Source looks up a historical USD price for a token at a timestamp. Unknown
// prices and lookup failures are reported as ok=false, never as errors: a
// missing price must not block ingestion of the row it belongs to.
type Source interface {
	PriceAt(ctx context.Context, chain, tokenAddress string, timestampSec int64) (float64, bool)
}

// Nop is a Source that knows no prices.
type Nop struct{}

func (Nop) PriceAt(context.Context, string, string, int64) (float64, bool) {
	return 0, false
}

// Static serves prices from a fixed map keyed by lower-cased token address.
type Static struct {
	Prices map[string]float64
}

func (s Static) PriceAt(_ context.Context, _ string, tokenAddress string, _ int64) (float64, bool) {
	price, ok := s.Prices[strings.ToLower(tokenAddress)]
	return price, ok && price > 0
}
