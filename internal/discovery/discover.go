package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/ricardosaldanha2005/defi-lending/internal/subgraph"
)

// Adapter discovers how one protocol family's subgraphs expose lending
// events, producing one schema config per usable query field.
type Adapter interface {
	Discover(ctx context.Context, ex subgraph.Executor, endpoint string) ([]subgraph.SchemaConfig, error)
}

// UnsupportedSchemaError reports that no usable query field was found. It
// enumerates the root fields actually observed so an operator can extend the
// candidate vocabulary.
type UnsupportedSchemaError struct {
	Endpoint   string
	RootFields []string
}

func (e *UnsupportedSchemaError) Error() string {
	return fmt.Sprintf("no usable query field at %s (root fields: %s)",
		e.Endpoint, strings.Join(e.RootFields, ", "))
}

func fieldNames(fields []subgraph.FieldDef) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}

// argsSupported reports whether every required argument of the field is one
// the engine knows how to supply: user identity, a from-timestamp, the
// pagination pair, or a where filter object.
func argsSupported(field subgraph.FieldDef) bool {
	for _, arg := range field.Args {
		if !arg.Required() {
			continue
		}
		if !isSupportedArg(arg.Name) {
			return false
		}
	}
	return true
}

// filtersByUser reports whether the config can scope results to one wallet.
// A stream with no user filter would return protocol-wide rows (rate
// snapshots, daily aggregates) that must never be attributed to an address.
func filtersByUser(cfg subgraph.SchemaConfig) bool {
	return cfg.Filter.UserArg != "" || cfg.Filter.WhereUserKey != ""
}

func isSupportedArg(name string) bool {
	if name == "first" || name == "skip" || name == "where" {
		return true
	}
	for _, cand := range userArgCandidates {
		if name == cand {
			return true
		}
	}
	for _, cand := range timestampArgCandidates {
		if name == cand {
			return true
		}
	}
	return false
}

// resolveRoles maps logical roles onto the event type's concrete field names.
func resolveRoles(fields []subgraph.FieldDef) subgraph.FieldRoles {
	return subgraph.FieldRoles{
		ID:          subgraph.PickField(fields, idCandidates),
		Timestamp:   subgraph.PickField(fields, timestampCandidates),
		TxHash:      subgraph.PickField(fields, txHashCandidates),
		LogIndex:    subgraph.PickField(fields, logIndexCandidates),
		BlockNumber: subgraph.PickField(fields, blockNumberCandidates),
		Label:       subgraph.PickField(fields, labelCandidates),
		Amount:      subgraph.PickField(fields, amountCandidates),
		AmountUSD:   subgraph.PickField(fields, amountUSDCandidates),
	}
}

// fallbackRoles is the commonly-observed guess set used when a schema exposes
// an opaque event type that introspection cannot expand.
func fallbackRoles() subgraph.FieldRoles {
	return subgraph.FieldRoles{
		ID:        "id",
		Timestamp: "timestamp",
		TxHash:    "txHash",
		Amount:    "amount",
	}
}

func tokenFields(fields []subgraph.FieldDef) (address, symbol, decimals string) {
	return subgraph.PickField(fields, tokenAddressCandidates),
		subgraph.PickField(fields, tokenSymbolCandidates),
		subgraph.PickField(fields, tokenDecimalsCandidates)
}

// resolveDirectAsset tries asset/reserve-like fields on the event. A flat
// object carrying symbol/decimals itself resolves as AssetDirect; one that
// nests another token object resolves as AssetNested.
func resolveDirectAsset(ctx context.Context, ex subgraph.Executor, eventFields []subgraph.FieldDef) (subgraph.AssetPath, error) {
	for _, cand := range assetFieldCandidates {
		field, ok := subgraph.FieldByName(eventFields, cand)
		if !ok {
			continue
		}
		typeName := field.Type.NamedType()
		if typeName == "" {
			continue
		}
		inner, err := subgraph.FetchTypeFields(ctx, ex, typeName)
		if err != nil {
			return subgraph.AssetPath{}, err
		}

		addr, symbol, decimals := tokenFields(inner)
		if symbol != "" || decimals != "" {
			return subgraph.AssetPath{
				Shape:         subgraph.AssetDirect,
				Field:         cand,
				AddressField:  addr,
				SymbolField:   symbol,
				DecimalsField: decimals,
			}, nil
		}

		tokenField := subgraph.PickField(inner, nestedTokenCandidates)
		if tokenField == "" {
			continue
		}
		def, _ := subgraph.FieldByName(inner, tokenField)
		tokenType := def.Type.NamedType()
		if tokenType == "" {
			continue
		}
		tfields, err := subgraph.FetchTypeFields(ctx, ex, tokenType)
		if err != nil {
			return subgraph.AssetPath{}, err
		}
		addr, symbol, decimals = tokenFields(tfields)
		return subgraph.AssetPath{
			Shape:         subgraph.AssetNested,
			Field:         cand,
			TokenField:    tokenField,
			TokenIsList:   isListType(def.Type),
			AddressField:  addr,
			SymbolField:   symbol,
			DecimalsField: decimals,
		}, nil
	}
	return subgraph.AssetPath{Shape: subgraph.AssetNone}, nil
}

// resolveMarketAsset follows position -> market -> input token. Array-valued
// token fields resolve to their first entry at normalization time.
func resolveMarketAsset(ctx context.Context, ex subgraph.Executor, eventFields []subgraph.FieldDef) (subgraph.AssetPath, error) {
	posField := subgraph.PickField(eventFields, positionFieldCandidates)
	if posField == "" {
		return subgraph.AssetPath{Shape: subgraph.AssetNone}, nil
	}
	posDef, _ := subgraph.FieldByName(eventFields, posField)
	posType := posDef.Type.NamedType()
	if posType == "" {
		return subgraph.AssetPath{Shape: subgraph.AssetNone}, nil
	}
	posFields, err := subgraph.FetchTypeFields(ctx, ex, posType)
	if err != nil {
		return subgraph.AssetPath{}, err
	}

	marketField := subgraph.PickField(posFields, marketFieldCandidates)
	if marketField == "" {
		return subgraph.AssetPath{Shape: subgraph.AssetNone}, nil
	}
	marketDef, _ := subgraph.FieldByName(posFields, marketField)
	marketType := marketDef.Type.NamedType()
	if marketType == "" {
		return subgraph.AssetPath{Shape: subgraph.AssetNone}, nil
	}
	marketFields, err := subgraph.FetchTypeFields(ctx, ex, marketType)
	if err != nil {
		return subgraph.AssetPath{}, err
	}

	tokenField := subgraph.PickField(marketFields, nestedTokenCandidates)
	if tokenField == "" {
		return subgraph.AssetPath{Shape: subgraph.AssetNone}, nil
	}
	tokenDef, _ := subgraph.FieldByName(marketFields, tokenField)
	tokenType := tokenDef.Type.NamedType()
	if tokenType == "" {
		return subgraph.AssetPath{Shape: subgraph.AssetNone}, nil
	}
	tfields, err := subgraph.FetchTypeFields(ctx, ex, tokenType)
	if err != nil {
		return subgraph.AssetPath{}, err
	}
	addr, symbol, decimals := tokenFields(tfields)

	return subgraph.AssetPath{
		Shape:         subgraph.AssetMarket,
		Field:         posField,
		MarketField:   marketField,
		TokenField:    tokenField,
		TokenIsList:   isListType(tokenDef.Type),
		AddressField:  addr,
		SymbolField:   symbol,
		DecimalsField: decimals,
	}, nil
}

func isListType(ref *subgraph.TypeRef) bool {
	for r := ref; r != nil; r = r.OfType {
		if r.Kind == "LIST" {
			return true
		}
	}
	return false
}

// resolveFilter works out how user and from-timestamp filters are supplied
// for one root field. Direct arguments win over where keys for the same role.
func resolveFilter(ctx context.Context, ex subgraph.Executor, field subgraph.FieldDef) (subgraph.FilterArgs, error) {
	var filter subgraph.FilterArgs

	for _, arg := range field.Args {
		if filter.UserArg == "" && nameIn(arg.Name, userArgCandidates) {
			filter.UserArg = arg.Name
		}
		if filter.TimestampArg == "" && nameIn(arg.Name, timestampArgCandidates) {
			filter.TimestampArg = arg.Name
		}
	}

	for _, arg := range field.Args {
		if arg.Name != "where" {
			continue
		}
		filter.RequireWhere = arg.Required()
		inputType := arg.Type.NamedType()
		if inputType == "" {
			break
		}
		inputs, err := subgraph.FetchInputFields(ctx, ex, inputType)
		if err != nil {
			return subgraph.FilterArgs{}, err
		}
		if filter.UserArg == "" {
			filter.WhereUserKey = pickInput(inputs, whereUserKeyCandidates)
		}
		if filter.TimestampArg == "" {
			filter.WhereTimestampKey = pickInput(inputs, whereTimestampKeyCandidates)
		}
		break
	}

	return filter, nil
}

func pickInput(inputs []subgraph.InputValue, candidates []string) string {
	names := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		names[in.Name] = struct{}{}
	}
	for _, cand := range candidates {
		if _, ok := names[cand]; ok {
			return cand
		}
	}
	return ""
}

func nameIn(name string, candidates []string) bool {
	for _, cand := range candidates {
		if name == cand {
			return true
		}
	}
	return false
}

// buildConfig assembles the schema config for one usable root field.
func buildConfig(ctx context.Context, ex subgraph.Executor, field subgraph.FieldDef, marketShape bool) (subgraph.SchemaConfig, error) {
	eventType := field.Type.NamedType()
	if eventType == "" {
		return subgraph.SchemaConfig{}, fmt.Errorf("field %s has no concrete type", field.Name)
	}

	eventFields, err := subgraph.FetchTypeFields(ctx, ex, eventType)
	if err != nil {
		return subgraph.SchemaConfig{}, err
	}

	cfg := subgraph.SchemaConfig{
		QueryField:    field.Name,
		EventType:     eventType,
		FallbackLabel: field.Name,
	}

	if len(eventFields) == 0 {
		cfg.Roles = fallbackRoles()
		cfg.Asset = subgraph.AssetPath{Shape: subgraph.AssetNone}
	} else {
		cfg.Roles = resolveRoles(eventFields)
		asset, err := resolveDirectAsset(ctx, ex, eventFields)
		if err != nil {
			return subgraph.SchemaConfig{}, err
		}
		if asset.Shape == subgraph.AssetNone && marketShape {
			asset, err = resolveMarketAsset(ctx, ex, eventFields)
			if err != nil {
				return subgraph.SchemaConfig{}, err
			}
		}
		cfg.Asset = asset
	}

	cfg.OrderField = cfg.Roles.Timestamp

	filter, err := resolveFilter(ctx, ex, field)
	if err != nil {
		return subgraph.SchemaConfig{}, err
	}
	cfg.Filter = filter

	return cfg, nil
}
