package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	EventLiquidityAdded            = "LiquidityAdded"
	EventLiquidityWithdrawal       = "LiquidityWithdrawal"
	EventSwap                      = "Swap"
	EventFeeChanged                = "FeeChanged"
	EventProtocolFeeChanged        = "ProtocolFeeChanged"
	EventMaxTradePercentageChanged = "MaxTradePercentageChanged"
	EventFeeRecipientChanged       = "FeeRecipientChanged"
	EventSharesTransferred         = "SharesTransferred"
)

// Event is an observable pool side effect.
type Event interface {
	EventName() string
}

type LiquidityAdded struct {
	Holder       common.Address
	Amount1      *uint256.Int
	Amount2      *uint256.Int
	SharesMinted *uint256.Int
	TotalShares  *uint256.Int
}

type LiquidityWithdrawal struct {
	Holder       common.Address
	Amount1      *uint256.Int
	Amount2      *uint256.Int
	SharesBurned *uint256.Int
	TotalShares  *uint256.Int
}

// Swap records one trade. NetAmountIn is the input credited to the reserve
// after the protocol fee was forwarded.
type Swap struct {
	Holder      common.Address
	AssetIn     common.Address
	ProtocolFee *uint256.Int
	NetAmountIn *uint256.Int
	AmountOut   *uint256.Int
}

// FeeChanged is emitted when the trade fee changes.
type FeeChanged struct {
	Owner  common.Address
	FeeBps uint64
}

type ProtocolFeeChanged struct {
	Owner  common.Address
	FeeBps uint64
}

type MaxTradePercentageChanged struct {
	Owner       common.Address
	MaxTradeBps uint64
}

type FeeRecipientChanged struct {
	Owner     common.Address
	Recipient common.Address
}

type SharesTransferred struct {
	From   common.Address
	To     common.Address
	Shares *uint256.Int
}

func (LiquidityAdded) EventName() string            { return EventLiquidityAdded }
func (LiquidityWithdrawal) EventName() string       { return EventLiquidityWithdrawal }
func (Swap) EventName() string                      { return EventSwap }
func (FeeChanged) EventName() string                { return EventFeeChanged }
func (ProtocolFeeChanged) EventName() string        { return EventProtocolFeeChanged }
func (MaxTradePercentageChanged) EventName() string { return EventMaxTradePercentageChanged }
func (FeeRecipientChanged) EventName() string       { return EventFeeRecipientChanged }
func (SharesTransferred) EventName() string         { return EventSharesTransferred }

// EventSink receives events after the operation that produced them has
// committed. Publish runs while the pool lock is held, so a sink must not
// call back into the pool.
type EventSink interface {
	Publish(Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// MultiSink fans events out in order.
type MultiSink []EventSink

func (m MultiSink) Publish(e Event) {
	for _, sink := range m {
		if sink != nil {
			sink.Publish(e)
		}
	}
}

type nopSink struct{}

func (nopSink) Publish(Event) {}
