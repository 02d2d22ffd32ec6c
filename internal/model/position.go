package model

// AccountPosition is a live snapshot of an account's standing read directly
// from protocol contracts. Base-currency values keep the contract's raw
// fixed-point representation as strings.
type AccountPosition struct {
	Protocol             Protocol `json:"protocol"`
	Chain                string   `json:"chain"`
	Wallet               string   `json:"wallet"`
	TotalCollateralBase  string   `json:"total_collateral_base"`
	TotalDebtBase        string   `json:"total_debt_base"`
	AvailableBorrowsBase string   `json:"available_borrows_base"`
	LiquidationThreshold string   `json:"liquidation_threshold"`
	LTV                  string   `json:"ltv"`
	HealthFactor         string   `json:"health_factor"`
	BlockNumber          uint64   `json:"block_number"`
}

// TokenMeta captures ERC20 metadata.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}
