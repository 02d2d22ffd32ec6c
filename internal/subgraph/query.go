package subgraph

import (
	"fmt"
	"strings"
)

// DefaultPageSize is the fixed page size used for event queries.
const DefaultPageSize = 1000

// BuildEventQuery assembles the data query for one schema config. Filter
// values are inlined as literals so their GraphQL types never need to match
// the endpoint's scalar choice (String vs Bytes vs ID); only the skip offset
// stays a variable for pagination.
func BuildEventQuery(cfg SchemaConfig, address string, fromTimestamp int64, pageSize int) string {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	args := []string{
		fmt.Sprintf("first: %d", pageSize),
		"skip: $skip",
	}

	if cfg.OrderField != "" {
		args = append(args,
			fmt.Sprintf("orderBy: %s", cfg.OrderField),
			"orderDirection: asc",
		)
	}

	if cfg.Filter.UserArg != "" {
		args = append(args, fmt.Sprintf("%s: %q", cfg.Filter.UserArg, address))
	}
	if cfg.Filter.TimestampArg != "" {
		args = append(args, fmt.Sprintf("%s: %d", cfg.Filter.TimestampArg, fromTimestamp))
	}

	var whereParts []string
	if cfg.Filter.WhereUserKey != "" {
		whereParts = append(whereParts, fmt.Sprintf("%s: %q", cfg.Filter.WhereUserKey, address))
	}
	if cfg.Filter.WhereTimestampKey != "" {
		whereParts = append(whereParts, fmt.Sprintf("%s: %d", cfg.Filter.WhereTimestampKey, fromTimestamp))
	}
	if len(whereParts) > 0 || cfg.Filter.RequireWhere {
		args = append(args, fmt.Sprintf("where: {%s}", strings.Join(whereParts, ", ")))
	}

	var b strings.Builder
	b.WriteString("query($skip: Int!) { ")
	b.WriteString(cfg.QueryField)
	b.WriteString("(")
	b.WriteString(strings.Join(args, ", "))
	b.WriteString(") { ")
	b.WriteString(strings.Join(selectionFields(cfg), " "))
	b.WriteString(" } }")
	return b.String()
}

func selectionFields(cfg SchemaConfig) []string {
	var fields []string
	for _, name := range []string{
		cfg.Roles.ID,
		cfg.Roles.Timestamp,
		cfg.Roles.TxHash,
		cfg.Roles.LogIndex,
		cfg.Roles.BlockNumber,
		cfg.Roles.Label,
		cfg.Roles.Amount,
		cfg.Roles.AmountUSD,
	} {
		if name != "" {
			fields = append(fields, name)
		}
	}

	if sel := assetSelection(cfg.Asset); sel != "" {
		fields = append(fields, sel)
	}
	return fields
}

func assetSelection(path AssetPath) string {
	token := tokenSelection(path)
	switch path.Shape {
	case AssetDirect:
		return fmt.Sprintf("%s { %s }", path.Field, token)
	case AssetNested:
		return fmt.Sprintf("%s { %s { %s } }", path.Field, path.TokenField, token)
	case AssetMarket:
		return fmt.Sprintf("%s { %s { %s { %s } } }", path.Field, path.MarketField, path.TokenField, token)
	default:
		return ""
	}
}

func tokenSelection(path AssetPath) string {
	var parts []string
	for _, name := range []string{path.AddressField, path.SymbolField, path.DecimalsField} {
		if name != "" {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		parts = []string{"id"}
	}
	return strings.Join(parts, " ")
}
