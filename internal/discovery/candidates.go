package discovery

// Candidate field names per logical role, in priority order. These tables are
// the accumulated knowledge of which names real lending subgraphs use for the
// same role; extend them when an endpoint exposes a shape discovery rejects.
var (
	idCandidates          = []string{"id"}
	timestampCandidates   = []string{"timestamp", "blockTimestamp", "createdAt", "blockTime"}
	txHashCandidates      = []string{"txHash", "transactionHash", "hash"}
	logIndexCandidates    = []string{"logIndex", "eventIndex"}
	blockNumberCandidates = []string{"blockNumber", "block"}
	labelCandidates       = []string{"eventType", "action", "type", "event", "kind"}
	amountCandidates      = []string{"amount", "value", "assets", "tokenAmount"}
	amountUSDCandidates   = []string{"amountUSD", "amountUsd", "valueUSD", "usdValue"}
)

// Asset metadata reachability, tried in order: a flat asset-like object on
// the event, a reserve-like object nesting a token, then the
// position -> market -> input-token chain.
var (
	assetFieldCandidates    = []string{"asset", "token", "underlyingAsset", "reserve", "collateralAsset"}
	positionFieldCandidates = []string{"position"}
	marketFieldCandidates   = []string{"market"}
	nestedTokenCandidates   = []string{"inputToken", "inputTokens", "token", "underlyingToken", "asset"}
	tokenAddressCandidates  = []string{"id", "address", "underlyingAsset"}
	tokenSymbolCandidates   = []string{"symbol"}
	tokenDecimalsCandidates = []string{"decimals"}
)

// Filter arguments the engine knows how to supply.
var (
	userArgCandidates           = []string{"user", "account", "onBehalfOf", "owner"}
	timestampArgCandidates      = []string{"timestamp_gte", "blockTimestamp_gte", "fromTimestamp", "since"}
	whereUserKeyCandidates      = []string{"user", "account", "onBehalfOf", "owner"}
	whereTimestampKeyCandidates = []string{"timestamp_gte", "blockTimestamp_gte"}
)

// activityVocabulary ranks root query fields by relevance to loan history.
// Earlier terms score higher.
var activityVocabulary = []string{
	"borrow",
	"repay",
	"supply",
	"supplies",
	"deposit",
	"withdraw",
	"redeem",
	"liquidat",
	"transaction",
	"activity",
}

// streamPriority orders the resulting schema configs: history views are
// debt-movement-first, so borrow and repay streams are queried before the
// rest. An explicit product decision, kept as a named table.
var streamPriority = []string{
	"borrow",
	"repay",
	"liquidat",
	"supply",
	"deposit",
	"withdraw",
	"redeem",
}

// unifiedStreamCandidates name the single account-event collections used by
// unified-stream deployments.
var unifiedStreamCandidates = []string{"accountEvents", "events", "activities", "accountActivities"}
