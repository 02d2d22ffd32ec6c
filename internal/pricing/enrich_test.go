package pricing

import (
	"context"
	"testing"

	"github.com/ricardosaldanha2005/defi-lending/internal/model"
)

func strPtr(s string) *string { return &s }

func TestEnricherFillsMissingUSD(t *testing.T) {
	source := Static{Prices: map[string]float64{"0xusdc": 1.0, "0xweth": 2000.0}}
	enricher := NewEnricher(source, nil)

	events := []model.NormalizedEvent{
		{
			TransactionID: "0x1",
			TimestampSec:  100,
			AssetAddress:  strPtr("0xweth"),
			Amount:        strPtr("2"),
		},
	}

	enricher.Apply(context.Background(), "ethereum", events)

	if events[0].AmountUSDRaw == nil || *events[0].AmountUSDRaw != "4000" {
		t.Fatalf("usd = %v, want 4000", events[0].AmountUSDRaw)
	}
}

func TestEnricherDirectUSDWins(t *testing.T) {
	source := Static{Prices: map[string]float64{"0xusdc": 1.0}}
	enricher := NewEnricher(source, nil)

	events := []model.NormalizedEvent{
		{
			TransactionID: "0x1",
			TimestampSec:  100,
			AssetAddress:  strPtr("0xusdc"),
			Amount:        strPtr("100"),
			AmountUSDRaw:  strPtr("99.5"),
		},
	}

	enricher.Apply(context.Background(), "ethereum", events)

	if *events[0].AmountUSDRaw != "99.5" {
		t.Fatalf("direct usd should win: %v", *events[0].AmountUSDRaw)
	}
}

func TestEnricherLeavesMissesUntouched(t *testing.T) {
	enricher := NewEnricher(Nop{}, nil)

	events := []model.NormalizedEvent{
		{TransactionID: "0x1", TimestampSec: 100, AssetAddress: strPtr("0xdai"), Amount: strPtr("5")},
		{TransactionID: "0x2", TimestampSec: 100},
	}

	enricher.Apply(context.Background(), "ethereum", events)

	if events[0].AmountUSDRaw != nil || events[1].AmountUSDRaw != nil {
		t.Fatalf("price misses must leave events untouched: %+v", events)
	}
}

func TestStaticSourceLowercasesKey(t *testing.T) {
	source := Static{Prices: map[string]float64{"0xabc": 3.0}}

	price, ok := source.PriceAt(context.Background(), "ethereum", "0xABC", 0)
	if !ok || price != 3.0 {
		t.Fatalf("price = %v ok=%v", price, ok)
	}
}
