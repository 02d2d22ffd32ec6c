package discovery

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ricardosaldanha2005/defi-lending/internal/subgraph"
)

// maxCandidateStreams caps how many ranked root fields are probed per
// endpoint. Borrow/repay streams are always probed regardless of the cap.
const maxCandidateStreams = 6

// AaveAdapter discovers Aave-family schemas, where each event direction is a
// separate root collection (borrows, repays, supplies, liquidationCalls, ...)
// and deployments disagree on field naming and asset nesting.
type AaveAdapter struct {
	Logger *zap.Logger
}

// Discover introspects the endpoint and returns one schema config per usable
// event stream, ordered so borrow/repay streams are queried first.
func (a *AaveAdapter) Discover(ctx context.Context, ex subgraph.Executor, endpoint string) ([]subgraph.SchemaConfig, error) {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rootFields, err := subgraph.FetchRootFields(ctx, ex)
	if err != nil {
		return nil, err
	}

	var configs []subgraph.SchemaConfig
	for _, field := range selectCandidateStreams(rootFields) {
		if !argsSupported(field) {
			logger.Debug("root field has unsupported required args",
				zap.String("endpoint", endpoint),
				zap.String("field", field.Name),
			)
			continue
		}

		cfg, err := buildConfig(ctx, ex, field, true)
		if err != nil {
			return nil, err
		}
		if !filtersByUser(cfg) {
			logger.Debug("root field has no user filter",
				zap.String("endpoint", endpoint),
				zap.String("field", field.Name),
			)
			continue
		}
		configs = append(configs, cfg)
		logger.Debug("resolved event stream",
			zap.String("endpoint", endpoint),
			zap.String("field", cfg.QueryField),
			zap.String("event_type", cfg.EventType),
		)
	}

	if len(configs) == 0 {
		return nil, &UnsupportedSchemaError{Endpoint: endpoint, RootFields: fieldNames(rootFields)}
	}

	sort.SliceStable(configs, func(i, j int) bool {
		return streamRank(configs[i].QueryField) < streamRank(configs[j].QueryField)
	})

	return configs, nil
}

// selectCandidateStreams ranks root fields against the activity vocabulary
// and keeps the top matches. Borrow/repay-shaped fields are appended even
// when ranked out: loan history needs both directions of debt movement.
func selectCandidateStreams(fields []subgraph.FieldDef) []subgraph.FieldDef {
	type scored struct {
		field subgraph.FieldDef
		score int
	}

	var ranked []scored
	for _, f := range fields {
		name := strings.ToLower(f.Name)
		for i, term := range activityVocabulary {
			if strings.Contains(name, term) {
				ranked = append(ranked, scored{field: f, score: i})
				break
			}
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score < ranked[j].score })

	kept := make([]subgraph.FieldDef, 0, len(ranked))
	seen := make(map[string]struct{})
	for _, s := range ranked {
		if len(kept) >= maxCandidateStreams {
			break
		}
		kept = append(kept, s.field)
		seen[s.field.Name] = struct{}{}
	}

	for _, f := range fields {
		if _, ok := seen[f.Name]; ok {
			continue
		}
		name := strings.ToLower(f.Name)
		if strings.Contains(name, "borrow") || strings.Contains(name, "repay") {
			kept = append(kept, f)
			seen[f.Name] = struct{}{}
		}
	}

	return kept
}

func streamRank(queryField string) int {
	name := strings.ToLower(queryField)
	for i, term := range streamPriority {
		if strings.Contains(name, term) {
			return i
		}
	}
	return len(streamPriority)
}
