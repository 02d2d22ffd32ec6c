package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ricardosaldanha2005/defi-lending/internal/discovery"
	"github.com/ricardosaldanha2005/defi-lending/internal/model"
	"github.com/ricardosaldanha2005/defi-lending/internal/normalize"
	"github.com/ricardosaldanha2005/defi-lending/internal/subgraph"
)

// ErrMissingEndpoint means no indexing-service URL is configured for the
// requested (protocol, chain). Fatal until the operator fixes configuration.
var ErrMissingEndpoint = errors.New("no endpoint configured")

// Endpoints maps protocol -> chain -> indexing-service URL.
type Endpoints map[model.Protocol]map[string]string

// URL returns the configured endpoint for a (protocol, chain) pair.
func (e Endpoints) URL(protocol model.Protocol, chain string) (string, bool) {
	chains, ok := e[protocol]
	if !ok {
		return "", false
	}
	url, ok := chains[chain]
	return url, ok && url != ""
}

// Params select what to fetch. MaxEvents <= 0 means unbounded.
type Params struct {
	Protocol      model.Protocol
	Chain         string
	Address       string
	FromTimestamp int64
	MaxEvents     int
}

// Fetcher is the retrieval entry point: it resolves the endpoint, obtains
// cached schema configs, pages through each event stream in priority order,
// and returns the merged normalized events. Safe for concurrent use across
// different (protocol, chain, address) tuples.
type Fetcher struct {
	endpoints Endpoints
	resolvers map[model.Protocol]*discovery.Resolver
	executor  func(endpoint string) subgraph.Executor
	pageSize  int
	logger    *zap.Logger

	mu      sync.Mutex
	clients map[string]subgraph.Executor
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithLogger sets the fetcher logger.
func WithLogger(logger *zap.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = logger }
}

// WithPageSize overrides the query page size.
func WithPageSize(size int) FetcherOption {
	return func(f *Fetcher) { f.pageSize = size }
}

// WithExecutorFactory overrides how per-endpoint executors are built.
func WithExecutorFactory(factory func(endpoint string) subgraph.Executor) FetcherOption {
	return func(f *Fetcher) { f.executor = factory }
}

// NewFetcher builds a fetcher with one schema resolver per protocol family.
func NewFetcher(endpoints Endpoints, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		endpoints: endpoints,
		pageSize:  subgraph.DefaultPageSize,
		logger:    zap.NewNop(),
		clients:   make(map[string]subgraph.Executor),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.executor == nil {
		f.executor = func(endpoint string) subgraph.Executor {
			return subgraph.NewClient(endpoint, subgraph.WithLogger(f.logger))
		}
	}
	f.resolvers = map[model.Protocol]*discovery.Resolver{
		model.ProtocolAave:     discovery.NewResolver(&discovery.AaveAdapter{Logger: f.logger}, f.client),
		model.ProtocolCompound: discovery.NewResolver(&discovery.CompoundAdapter{Logger: f.logger}, f.client),
	}
	return f
}

func (f *Fetcher) client(endpoint string) subgraph.Executor {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.clients[endpoint]; ok {
		return c
	}
	c := f.executor(endpoint)
	f.clients[endpoint] = c
	return c
}

// FetchEvents retrieves and normalizes lending events for one address.
// Events keep each stream's own ascending-timestamp order; no ordering is
// guaranteed across streams.
func (f *Fetcher) FetchEvents(ctx context.Context, p Params) ([]model.NormalizedEvent, error) {
	url, ok := f.endpoints.URL(p.Protocol, p.Chain)
	if !ok {
		return nil, fmt.Errorf("%w for %s/%s", ErrMissingEndpoint, p.Protocol, p.Chain)
	}

	resolver, ok := f.resolvers[p.Protocol]
	if !ok {
		return nil, fmt.Errorf("unknown protocol: %s", p.Protocol)
	}

	address := strings.ToLower(p.Address)

	configs, err := resolver.Resolve(ctx, url)
	if err != nil {
		return nil, err
	}

	ex := f.client(url)
	var events []model.NormalizedEvent
	for _, cfg := range configs {
		remaining := 0
		if p.MaxEvents > 0 {
			remaining = p.MaxEvents - len(events)
			if remaining <= 0 {
				break
			}
		}

		query := subgraph.BuildEventQuery(cfg, address, p.FromTimestamp, f.pageSize)
		records, err := subgraph.FetchPages(ctx, ex, cfg.QueryField, query, f.pageSize, remaining)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", cfg.QueryField, err)
		}

		kept := 0
		for _, raw := range records {
			if ev, ok := normalize.Event(raw, cfg); ok {
				events = append(events, ev)
				kept++
			}
		}

		f.logger.Debug("stream fetched",
			zap.String("endpoint", url),
			zap.String("field", cfg.QueryField),
			zap.Int("records", len(records)),
			zap.Int("kept", kept),
		)
	}

	return events, nil
}
