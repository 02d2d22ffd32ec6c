package discovery

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ricardosaldanha2005/defi-lending/internal/subgraph"
)

// Resolver memoizes schema discovery per endpoint URL. Concurrent callers for
// the same endpoint share one in-flight discovery; failures are never cached,
// so a failed endpoint is retried on the next call. Subgraph schemas are
// static for a deployment, so successful results live for the process.
type Resolver struct {
	adapter  Adapter
	executor func(endpoint string) subgraph.Executor

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string][]subgraph.SchemaConfig
}

// NewResolver builds a resolver around an adapter and an executor factory.
func NewResolver(adapter Adapter, executor func(endpoint string) subgraph.Executor) *Resolver {
	return &Resolver{
		adapter:  adapter,
		executor: executor,
		cache:    make(map[string][]subgraph.SchemaConfig),
	}
}

// Resolve returns the schema configs for an endpoint, discovering them on
// first use.
func (r *Resolver) Resolve(ctx context.Context, endpoint string) ([]subgraph.SchemaConfig, error) {
	r.mu.RLock()
	configs, ok := r.cache[endpoint]
	r.mu.RUnlock()
	if ok {
		return configs, nil
	}

	value, err, _ := r.group.Do(endpoint, func() (interface{}, error) {
		r.mu.RLock()
		cached, ok := r.cache[endpoint]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		discovered, err := r.adapter.Discover(ctx, r.executor(endpoint), endpoint)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[endpoint] = discovered
		r.mu.Unlock()
		return discovered, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]subgraph.SchemaConfig), nil
}
