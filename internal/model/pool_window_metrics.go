package model

import "time"

// PoolWindowMetrics stores aggregated pool activity for one window. Amounts
// are base-10 strings in internal precision.
type PoolWindowMetrics struct {
	PoolAddress     string    `json:"pool_address"`
	WindowSizeSecs  int64     `json:"window_size_seconds"`
	WindowStart     time.Time `json:"window_start"`
	WindowEnd       time.Time `json:"window_end"`
	SwapCount       uint64    `json:"swap_count"`
	DepositCount    uint64    `json:"deposit_count"`
	WithdrawalCount uint64    `json:"withdrawal_count"`
	Volume1         string    `json:"volume1"`
	Volume2         string    `json:"volume2"`
	ProtocolFee1    string    `json:"protocol_fee1"`
	ProtocolFee2    string    `json:"protocol_fee2"`
	Reserve1        string    `json:"reserve1"`
	Reserve2        string    `json:"reserve2"`
	TotalShares     string    `json:"total_shares"`
	LastSequence    uint64    `json:"last_sequence"`
}
