package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ricardosaldanha2005/defi-lending/internal/model"
	"github.com/ricardosaldanha2005/defi-lending/internal/subgraph"
)

// fakeEndpoint answers both introspection and data queries for one endpoint.
type fakeEndpoint struct {
	rootJSON       string
	typeJSON       map[string]string
	data           map[string][]string
	pageSize       int
	introspections int
	dataQueries    int
}

func (f *fakeEndpoint) Execute(_ context.Context, query string, variables map[string]interface{}) (json.RawMessage, error) {
	switch {
	case strings.Contains(query, "__schema"):
		f.introspections++
		return json.RawMessage(f.rootJSON), nil
	case strings.Contains(query, "__type"):
		name := typeNameOf(query)
		body, ok := f.typeJSON[name]
		if !ok {
			return json.RawMessage(`{"__type": null}`), nil
		}
		return json.RawMessage(body), nil
	}

	f.dataQueries++
	for field, records := range f.data {
		if !strings.Contains(query, field+"(") {
			continue
		}
		skip := variables["skip"].(int)
		end := skip + f.pageSize
		if skip > len(records) {
			skip = len(records)
		}
		if end > len(records) {
			end = len(records)
		}
		return json.RawMessage(fmt.Sprintf(`{%q: [%s]}`, field, strings.Join(records[skip:end], ","))), nil
	}
	return nil, fmt.Errorf("unexpected query: %s", query)
}

func typeNameOf(query string) string {
	marker := `name: "`
	start := strings.Index(query, marker)
	if start < 0 {
		return ""
	}
	rest := query[start+len(marker):]
	return rest[:strings.Index(rest, `"`)]
}

const listWrap = `{"kind": "LIST", "ofType": {"kind": "OBJECT", "name": %q}}`

func rootField(name, typeName, argsJSON string) string {
	return fmt.Sprintf(`{"name": %q, "args": [%s], "type": `+listWrap+`}`, name, argsJSON, typeName)
}

const scalarArg = `{"name": %q, "type": {"kind": "SCALAR", "name": "String"}}`

func compoundEndpoint() *fakeEndpoint {
	args := fmt.Sprintf(scalarArg, "account") + ", " + fmt.Sprintf(scalarArg, "timestamp_gte")
	return &fakeEndpoint{
		rootJSON: fmt.Sprintf(`{"__schema": {"queryType": {"fields": [%s]}}}`,
			rootField("accountEvents", "AccountEvent", args)),
		typeJSON: map[string]string{
			"AccountEvent": `{"__type": {"fields": [
				{"name": "id", "type": {"kind": "SCALAR", "name": "ID"}},
				{"name": "timestamp", "type": {"kind": "SCALAR", "name": "Int"}},
				{"name": "txHash", "type": {"kind": "SCALAR", "name": "String"}},
				{"name": "eventType", "type": {"kind": "SCALAR", "name": "String"}},
				{"name": "amount", "type": {"kind": "SCALAR", "name": "String"}},
				{"name": "asset", "type": {"kind": "OBJECT", "name": "Token"}}
			]}}`,
			"Token": `{"__type": {"fields": [
				{"name": "id", "type": {"kind": "SCALAR", "name": "ID"}},
				{"name": "symbol", "type": {"kind": "SCALAR", "name": "String"}},
				{"name": "decimals", "type": {"kind": "SCALAR", "name": "Int"}}
			]}}`,
		},
		data: map[string][]string{
			"accountEvents": {
				`{"id": "1", "timestamp": 100, "txHash": "0xa", "eventType": "Deposit", "amount": "1000000", "asset": {"id": "0xT", "symbol": "USDC", "decimals": 6}}`,
				`{"id": "2", "timestamp": 200, "txHash": "0xb", "eventType": "Borrow", "amount": "2000000", "asset": {"id": "0xT", "symbol": "USDC", "decimals": 6}}`,
				`{"id": "3", "timestamp": 300, "txHash": "0xc", "eventType": "RepayBorrow", "amount": "500000", "asset": {"id": "0xT", "symbol": "USDC", "decimals": 6}}`,
			},
		},
		pageSize: 2,
	}
}

func newTestFetcher(fake *fakeEndpoint) *Fetcher {
	endpoints := Endpoints{
		model.ProtocolCompound: {"ethereum": "http://compound"},
		model.ProtocolAave:     {"ethereum": "http://aave"},
	}
	return NewFetcher(endpoints,
		WithPageSize(fake.pageSize),
		WithExecutorFactory(func(string) subgraph.Executor { return fake }),
	)
}

func TestFetchEventsCompoundPaged(t *testing.T) {
	fake := compoundEndpoint()
	fetcher := newTestFetcher(fake)

	events, err := fetcher.FetchEvents(context.Background(), Params{
		Protocol: model.ProtocolCompound,
		Chain:    "ethereum",
		Address:  "0xWallet",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if fake.dataQueries != 2 {
		t.Fatalf("data queries = %d, want 2 pages", fake.dataQueries)
	}

	kinds := []string{events[0].EventKind, events[1].EventKind, events[2].EventKind}
	wantKinds := []string{model.KindSupply, model.KindBorrow, model.KindRepay}
	for i := range wantKinds {
		if kinds[i] != wantKinds[i] {
			t.Fatalf("kinds = %v, want %v", kinds, wantKinds)
		}
	}

	first := events[0]
	if first.TransactionID != "0xa" || first.TimestampSec != 100 {
		t.Fatalf("first event = %+v", first)
	}
	if first.AssetSymbol == nil || *first.AssetSymbol != "USDC" {
		t.Fatalf("asset symbol = %v", first.AssetSymbol)
	}
	if first.Amount == nil || *first.Amount != "1" {
		t.Fatalf("amount = %v", first.Amount)
	}
}

func TestFetchEventsHonorsCap(t *testing.T) {
	fake := compoundEndpoint()
	fetcher := newTestFetcher(fake)

	events, err := fetcher.FetchEvents(context.Background(), Params{
		Protocol:  model.ProtocolCompound,
		Chain:     "ethereum",
		Address:   "0xWallet",
		MaxEvents: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want cap of 2", len(events))
	}
}

func TestFetchEventsSchemaDiscoveredOnce(t *testing.T) {
	fake := compoundEndpoint()
	fetcher := newTestFetcher(fake)

	params := Params{Protocol: model.ProtocolCompound, Chain: "ethereum", Address: "0xWallet"}
	if _, err := fetcher.FetchEvents(context.Background(), params); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := fetcher.FetchEvents(context.Background(), params); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fake.introspections != 1 {
		t.Fatalf("introspected %d times, want 1", fake.introspections)
	}
}

func TestFetchEventsMissingEndpoint(t *testing.T) {
	fetcher := NewFetcher(Endpoints{})

	_, err := fetcher.FetchEvents(context.Background(), Params{
		Protocol: model.ProtocolAave,
		Chain:    "base",
		Address:  "0xWallet",
	})
	if !errors.Is(err, ErrMissingEndpoint) {
		t.Fatalf("expected ErrMissingEndpoint, got %v", err)
	}
}

func TestFetchEventsBorrowsBeforeRepays(t *testing.T) {
	pagination := fmt.Sprintf(scalarArg, "user")
	fake := &fakeEndpoint{
		rootJSON: fmt.Sprintf(`{"__schema": {"queryType": {"fields": [%s, %s]}}}`,
			rootField("repays", "Repay", pagination),
			rootField("borrows", "Borrow", pagination)),
		typeJSON: map[string]string{
			"Borrow": `{"__type": {"fields": [
				{"name": "id", "type": {"kind": "SCALAR", "name": "ID"}},
				{"name": "timestamp", "type": {"kind": "SCALAR", "name": "Int"}},
				{"name": "txHash", "type": {"kind": "SCALAR", "name": "String"}},
				{"name": "amount", "type": {"kind": "SCALAR", "name": "String"}}
			]}}`,
			"Repay": `{"__type": {"fields": [
				{"name": "id", "type": {"kind": "SCALAR", "name": "ID"}},
				{"name": "timestamp", "type": {"kind": "SCALAR", "name": "Int"}},
				{"name": "txHash", "type": {"kind": "SCALAR", "name": "String"}},
				{"name": "amount", "type": {"kind": "SCALAR", "name": "String"}}
			]}}`,
		},
		data: map[string][]string{
			"borrows": {
				`{"id": "b1", "timestamp": 500, "txHash": "0xb1", "amount": "1"}`,
				`{"id": "b2", "timestamp": 600, "txHash": "0xb2", "amount": "2"}`,
			},
			"repays": {
				`{"id": "r1", "timestamp": 100, "txHash": "0xr1", "amount": "1"}`,
			},
		},
		pageSize: 10,
	}
	fetcher := newTestFetcher(fake)

	events, err := fetcher.FetchEvents(context.Background(), Params{
		Protocol: model.ProtocolAave,
		Chain:    "ethereum",
		Address:  "0xWallet",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}

	ids := []string{events[0].TransactionID, events[1].TransactionID, events[2].TransactionID}
	want := []string{"0xb1", "0xb2", "0xr1"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("merged order = %v, want borrows before repays: %v", ids, want)
		}
	}

	if events[0].EventKind != model.KindBorrow || events[2].EventKind != model.KindRepay {
		t.Fatalf("kinds = %q, %q", events[0].EventKind, events[2].EventKind)
	}
}
