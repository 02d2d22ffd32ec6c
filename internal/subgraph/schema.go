package subgraph

// AssetShape describes how asset metadata is reached from an event record.
type AssetShape int

const (
	// AssetNone means no asset metadata is reachable.
	AssetNone AssetShape = iota
	// AssetDirect selects symbol/address/decimals straight off a flat
	// asset-like object on the event.
	AssetDirect
	// AssetNested selects them from a token object nested inside a
	// reserve-like object.
	AssetNested
	// AssetMarket follows a position -> market -> input-token chain.
	AssetMarket
)

// AssetPath is the resolved route to symbol/address/decimals for one schema.
type AssetPath struct {
	Shape       AssetShape
	Field       string // asset/reserve/position field on the event
	MarketField string // market field, AssetMarket only
	TokenField  string // nested token field, AssetNested and AssetMarket
	TokenIsList bool   // token field is array-valued; the first entry is used

	AddressField  string
	SymbolField   string
	DecimalsField string
}

// FieldRoles maps logical roles to concrete field names on the event type.
// An empty name means the schema does not expose that role.
type FieldRoles struct {
	ID          string
	Timestamp   string
	TxHash      string
	LogIndex    string
	BlockNumber string
	Label       string
	Amount      string
	AmountUSD   string
}

// FilterArgs describes how user/timestamp filters are supplied: either as
// direct root-field arguments or as keys inside a where object.
type FilterArgs struct {
	UserArg           string
	TimestampArg      string
	WhereUserKey      string
	WhereTimestampKey string
	// RequireWhere emits a where object even when no keys were resolved,
	// for schemas that declare the argument non-nullable.
	RequireWhere bool
}

// SchemaConfig is the complete recipe for querying one event stream on one
// endpoint. Built once per endpoint by discovery and never mutated after.
type SchemaConfig struct {
	QueryField    string
	EventType     string
	Roles         FieldRoles
	Filter        FilterArgs
	OrderField    string
	Asset         AssetPath
	FallbackLabel string
}
