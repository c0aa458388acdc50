package model

// LiquidityAddedData is the decoded LiquidityAdded payload.
type LiquidityAddedData struct {
	Holder       string `json:"holder"`
	Amount1      string `json:"amount1"`
	Amount2      string `json:"amount2"`
	SharesMinted string `json:"shares_minted"`
	TotalShares  string `json:"total_shares"`
}

// LiquidityWithdrawalData is the decoded LiquidityWithdrawal payload.
type LiquidityWithdrawalData struct {
	Holder       string `json:"holder"`
	Amount1      string `json:"amount1"`
	Amount2      string `json:"amount2"`
	SharesBurned string `json:"shares_burned"`
	TotalShares  string `json:"total_shares"`
}

// SwapEventData is the decoded Swap payload.
type SwapEventData struct {
	Holder      string `json:"holder"`
	AssetIn     string `json:"asset_in"`
	ProtocolFee string `json:"protocol_fee"`
	NetAmountIn string `json:"net_amount_in"`
	AmountOut   string `json:"amount_out"`
}

// ConfigChangedData is the decoded payload of FeeChanged, ProtocolFeeChanged
// and MaxTradePercentageChanged.
type ConfigChangedData struct {
	Owner string `json:"owner"`
	Bps   uint64 `json:"bps"`
}

// FeeRecipientChangedData is the decoded FeeRecipientChanged payload.
type FeeRecipientChangedData struct {
	Owner     string `json:"owner"`
	Recipient string `json:"recipient"`
}

// SharesTransferredData is the decoded SharesTransferred payload.
type SharesTransferredData struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Shares string `json:"shares"`
}
