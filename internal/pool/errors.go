package pool

import (
	"errors"

	"swapPool/internal/fixedpoint"
)

var (
	ErrGenesisMismatch         = errors.New("genesis amounts must be the same")
	ErrEquivalentValueRequired = errors.New("equivalent value not provided")
	ErrZeroShares              = errors.New("shares with zero value")
	ErrPoolInactive            = errors.New("pool has no funds")
	ErrInsufficientShares      = errors.New("insufficient share balance")
	ErrInvalidAmount           = errors.New("invalid amount, value = 0")
	ErrInvalidToken            = errors.New("invalid token")
	ErrZeroAmount              = errors.New("input amount with 0 value not valid")
	ErrTradeLimitExceeded      = errors.New("output value is greater than the limit")
	ErrSlippageExceeded        = errors.New("output amount is less than expected")
	ErrSameRecipient           = errors.New("new recipient is the same as the current one")
	ErrUnauthorized            = errors.New("caller is not the owner")
	ErrInsufficientReserve     = errors.New("insufficient reserve")

	ErrInvalidFee        = errors.New("trade fee plus protocol fee exceeds 10000 bps")
	ErrInvalidTradeLimit = errors.New("max trade percentage must be between 1 and 10000 bps")
	ErrInvalidRecipient  = errors.New("recipient is the zero address or the pool")
	ErrSameAsset         = errors.New("pool assets must differ")
	ErrInvalidOwner      = errors.New("owner is the zero address")
	ErrInvalidSnapshot   = errors.New("invalid snapshot")
	ErrPoolAccount       = errors.New("pool account cannot act as a holder")
	ErrOverflow          = fixedpoint.ErrOverflow
)

// Kind returns a stable short name for a pool error, or "internal" when err
// is not one of the package sentinels.
func Kind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}

var errorKinds = []struct {
	err  error
	name string
}{
	{ErrGenesisMismatch, "genesis_mismatch"},
	{ErrEquivalentValueRequired, "equivalent_value_required"},
	{ErrZeroShares, "zero_shares"},
	{ErrPoolInactive, "pool_inactive"},
	{ErrInsufficientShares, "insufficient_shares"},
	{ErrInvalidAmount, "invalid_amount"},
	{ErrInvalidToken, "invalid_token"},
	{ErrZeroAmount, "zero_amount"},
	{ErrTradeLimitExceeded, "trade_limit_exceeded"},
	{ErrSlippageExceeded, "slippage_exceeded"},
	{ErrSameRecipient, "same_recipient"},
	{ErrUnauthorized, "unauthorized"},
	{ErrInsufficientReserve, "insufficient_reserve"},
	{ErrInvalidFee, "invalid_fee"},
	{ErrInvalidTradeLimit, "invalid_trade_limit"},
	{ErrInvalidRecipient, "invalid_recipient"},
	{ErrSameAsset, "same_asset"},
	{ErrInvalidOwner, "invalid_owner"},
	{ErrInvalidSnapshot, "invalid_snapshot"},
	{ErrPoolAccount, "pool_account"},
	{ErrOverflow, "overflow"},
}
