package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ricardosaldanha2005/defi-lending/internal/discovery"
	"github.com/ricardosaldanha2005/defi-lending/internal/model"
	"github.com/ricardosaldanha2005/defi-lending/internal/retrieval"
	"github.com/ricardosaldanha2005/defi-lending/internal/subgraph"
)

// memStorage is an in-memory Storage for runner tests.
type memStorage struct {
	mu         sync.Mutex
	events     map[string][]model.NormalizedEvent
	marks      map[string]model.SyncWatermark
	failUpsert bool
}

func newMemStorage() *memStorage {
	return &memStorage{
		events: make(map[string][]model.NormalizedEvent),
		marks:  make(map[string]model.SyncWatermark),
	}
}

func (m *memStorage) UpsertEvents(_ context.Context, wallet string, events []model.NormalizedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpsert {
		return fmt.Errorf("upsert failed")
	}
	m.events[wallet] = append(m.events[wallet], events...)
	return nil
}

func (m *memStorage) LoadWatermark(_ context.Context, wallet string) (model.SyncWatermark, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mark, ok := m.marks[wallet]
	return mark, ok, nil
}

func (m *memStorage) SaveWatermark(_ context.Context, mark model.SyncWatermark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marks[mark.Wallet] = mark
	return nil
}

// unifiedExecutor serves a one-stream schema and a fixed event page.
type unifiedExecutor struct{}

func (unifiedExecutor) Execute(_ context.Context, query string, _ map[string]interface{}) (json.RawMessage, error) {
	switch {
	case strings.Contains(query, "__schema"):
		return json.RawMessage(`{"__schema": {"queryType": {"fields": [
			{"name": "accountEvents", "args": [{"name": "account", "type": {"kind": "SCALAR", "name": "String"}}],
			 "type": {"kind": "LIST", "ofType": {"kind": "OBJECT", "name": "AccountEvent"}}}
		]}}}`), nil
	case strings.Contains(query, `name: "AccountEvent"`):
		return json.RawMessage(`{"__type": {"fields": [
			{"name": "id", "type": {"kind": "SCALAR", "name": "ID"}},
			{"name": "timestamp", "type": {"kind": "SCALAR", "name": "Int"}},
			{"name": "txHash", "type": {"kind": "SCALAR", "name": "String"}},
			{"name": "eventType", "type": {"kind": "SCALAR", "name": "String"}},
			{"name": "amount", "type": {"kind": "SCALAR", "name": "String"}}
		]}}`), nil
	case strings.Contains(query, "__type"):
		return json.RawMessage(`{"__type": null}`), nil
	}
	return json.RawMessage(`{"accountEvents": [
		{"id": "1", "timestamp": 100, "txHash": "0xa", "eventType": "Borrow", "amount": "5", "blockNumber": 10},
		{"id": "2", "timestamp": 250, "txHash": "0xb", "eventType": "RepayBorrow", "amount": "5"}
	]}`), nil
}

func testFetcher() *retrieval.Fetcher {
	endpoints := retrieval.Endpoints{
		model.ProtocolCompound: {"ethereum": "http://compound"},
	}
	return retrieval.NewFetcher(endpoints,
		retrieval.WithExecutorFactory(func(string) subgraph.Executor { return unifiedExecutor{} }),
	)
}

func TestRunnerSyncsWalletsAndAdvancesWatermark(t *testing.T) {
	sink := newMemStorage()
	wallets := []string{
		"0x1111111111111111111111111111111111111111",
		"0x2222222222222222222222222222222222222222",
	}

	runner := NewRunner(RunConfig{
		Protocol:  model.ProtocolCompound,
		Chain:     "ethereum",
		Wallets:   wallets,
		BatchSize: 2,
	}, testFetcher(), nil, sink, nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, wallet := range wallets {
		events := sink.events[wallet]
		if len(events) != 2 {
			t.Fatalf("wallet %s events = %d, want 2", wallet, len(events))
		}

		mark, ok := sink.marks[wallet]
		if !ok {
			t.Fatalf("wallet %s watermark not saved", wallet)
		}
		if mark.LastSyncedTimestamp != 250 {
			t.Fatalf("wallet %s watermark = %+v", wallet, mark)
		}
	}
}

func TestRunnerFailureLeavesWatermarkUntouched(t *testing.T) {
	sink := newMemStorage()
	sink.failUpsert = true
	wallet := "0x1111111111111111111111111111111111111111"

	runner := NewRunner(RunConfig{
		Protocol:  model.ProtocolCompound,
		Chain:     "ethereum",
		Wallets:   []string{wallet},
		BatchSize: 1,
	}, testFetcher(), nil, sink, nil)

	err := runner.Run(context.Background())
	if err == nil {
		t.Fatalf("expected run to report the failed wallet")
	}
	if !strings.Contains(err.Error(), "1 of 1") {
		t.Fatalf("error = %v", err)
	}

	if _, ok := sink.marks[wallet]; ok {
		t.Fatalf("watermark must not move after a failed upsert")
	}
}

func TestRunnerRequiresWallets(t *testing.T) {
	runner := NewRunner(RunConfig{Protocol: model.ProtocolCompound}, testFetcher(), nil, newMemStorage(), nil)
	if err := runner.Run(context.Background()); err == nil {
		t.Fatalf("expected error for empty wallet list")
	}
}

func backoffRunner(maxRetries int) *Runner {
	return NewRunner(RunConfig{
		MaxRetries:   maxRetries,
		RetryBackoff: time.Millisecond,
	}, testFetcher(), nil, newMemStorage(), nil)
}

func TestWithBackoffEventuallySucceeds(t *testing.T) {
	runner := backoffRunner(3)

	calls := 0
	err := runner.withBackoff(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withBackoff: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestWithBackoffExhausted(t *testing.T) {
	runner := backoffRunner(2)

	calls := 0
	err := runner.withBackoff(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("still down")
	})
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestWithBackoffCancelled(t *testing.T) {
	runner := NewRunner(RunConfig{
		MaxRetries:   5,
		RetryBackoff: time.Minute,
	}, testFetcher(), nil, newMemStorage(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runner.withBackoff(ctx, func(ctx context.Context) error {
			return errors.New("always failing")
		})
	}()
	cancel()

	if err := <-done; err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestIsRetryable(t *testing.T) {
	wrapped := fmt.Errorf("fetch: %w", retrieval.ErrMissingEndpoint)
	if isRetryable(wrapped) {
		t.Fatalf("missing endpoint must not be retried")
	}

	schemaErr := &discovery.UnsupportedSchemaError{Endpoint: "http://x"}
	if isRetryable(fmt.Errorf("resolve: %w", schemaErr)) {
		t.Fatalf("unsupported schema must not be retried")
	}

	if !isRetryable(errors.New("connection reset")) {
		t.Fatalf("transport errors are retryable")
	}
}
