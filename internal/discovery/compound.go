package discovery

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ricardosaldanha2005/defi-lending/internal/subgraph"
)

// CompoundAdapter discovers Compound-family schemas, which expose a single
// unified account-event stream with the asset attached directly to the event.
type CompoundAdapter struct {
	Logger *zap.Logger
}

// Discover introspects the endpoint and returns exactly one schema config.
func (a *CompoundAdapter) Discover(ctx context.Context, ex subgraph.Executor, endpoint string) ([]subgraph.SchemaConfig, error) {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rootFields, err := subgraph.FetchRootFields(ctx, ex)
	if err != nil {
		return nil, err
	}

	field, ok := pickUnifiedStream(rootFields)
	if !ok || !argsSupported(field) {
		return nil, &UnsupportedSchemaError{Endpoint: endpoint, RootFields: fieldNames(rootFields)}
	}

	cfg, err := buildConfig(ctx, ex, field, false)
	if err != nil {
		return nil, err
	}
	if !filtersByUser(cfg) {
		return nil, &UnsupportedSchemaError{Endpoint: endpoint, RootFields: fieldNames(rootFields)}
	}

	logger.Debug("resolved unified event stream",
		zap.String("endpoint", endpoint),
		zap.String("field", cfg.QueryField),
		zap.String("event_type", cfg.EventType),
	)

	return []subgraph.SchemaConfig{cfg}, nil
}

func pickUnifiedStream(fields []subgraph.FieldDef) (subgraph.FieldDef, bool) {
	if name := subgraph.PickField(fields, unifiedStreamCandidates); name != "" {
		return subgraph.FieldByName(fields, name)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f.Name), "event") {
			return f, true
		}
	}
	return subgraph.FieldDef{}, false
}
