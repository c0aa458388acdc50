package model

import "time"

// PoolSnapshot is the persisted form of a pool. Amounts are base-10 strings in
// internal precision.
type PoolSnapshot struct {
	Asset1         string            `json:"asset1"`
	Asset2         string            `json:"asset2"`
	Owner          string            `json:"owner"`
	FeeRecipient   string            `json:"fee_recipient"`
	TradeFeeBps    uint64            `json:"trade_fee_bps"`
	ProtocolFeeBps uint64            `json:"protocol_fee_bps"`
	MaxTradeBps    uint64            `json:"max_trade_bps"`
	Reserve1       string            `json:"reserve1"`
	Reserve2       string            `json:"reserve2"`
	TotalShares    string            `json:"total_shares"`
	Shares         map[string]string `json:"shares"`
}

// LedgerSnapshot is the persisted form of the in-memory asset ledger.
// Balances are in each asset's native units.
type LedgerSnapshot struct {
	Assets   []AssetMeta     `json:"assets"`
	Pool     string          `json:"pool"`
	Balances []LedgerBalance `json:"balances"`
}

// LedgerBalance is one holder balance of one asset.
type LedgerBalance struct {
	Asset  string `json:"asset"`
	Holder string `json:"holder"`
	Amount string `json:"amount"`
}

// Snapshot bundles everything serve needs to resume.
type Snapshot struct {
	Pool     PoolSnapshot   `json:"pool"`
	Ledger   LedgerSnapshot `json:"ledger"`
	Sequence uint64         `json:"sequence"`
	SavedAt  time.Time      `json:"saved_at"`
}
