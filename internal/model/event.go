package model

// EventKind is the canonical vocabulary for lending activity.
const (
	KindSupply      = "supply"
	KindWithdraw    = "withdraw"
	KindBorrow      = "borrow"
	KindRepay       = "repay"
	KindLiquidation = "liquidation"
	KindUnknown     = "unknown"
)

// NormalizedEvent is the canonical representation of one lending-protocol
// activity row, independent of which subgraph schema produced it.
type NormalizedEvent struct {
	TransactionID string  `json:"transaction_id"`
	LogIndex      int64   `json:"log_index"`
	BlockNumber   int64   `json:"block_number"`
	TimestampSec  int64   `json:"timestamp_sec"`
	EventKind     string  `json:"event_kind"`
	AssetAddress  *string `json:"asset_address,omitempty"`
	AssetSymbol   *string `json:"asset_symbol,omitempty"`
	AssetDecimals *int64  `json:"asset_decimals,omitempty"`
	AmountRaw     *string `json:"amount_raw,omitempty"`
	Amount        *string `json:"amount,omitempty"`
	AmountUSDRaw  *string `json:"amount_usd_raw,omitempty"`
}
