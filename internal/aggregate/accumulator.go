package aggregate

import (
	"fmt"
	"math/big"
	"strings"

	"swapPool/internal/model"
	"swapPool/internal/pool"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	PoolAddress     string
	WindowStart     uint64
	WindowEnd       uint64
	FirstSequence   uint64
	LastSequence    uint64
	SwapCount       uint64
	DepositCount    uint64
	WithdrawalCount uint64
	Volume1         *big.Int
	Volume2         *big.Int
	ProtocolFee1    *big.Int
	ProtocolFee2    *big.Int
}

func NewAccumulator(event *model.TypedEvent, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolAddress:   event.Address,
		WindowStart:   windowStart,
		WindowEnd:     windowEnd,
		FirstSequence: event.Sequence,
		LastSequence:  event.Sequence,
		Volume1:       big.NewInt(0),
		Volume2:       big.NewInt(0),
		ProtocolFee1:  big.NewInt(0),
		ProtocolFee2:  big.NewInt(0),
	}
}

// AddEvent folds one event into the window. slot tells which side of the pool
// a swap's input asset is on and is ignored for other events.
func (a *Accumulator) AddEvent(event *model.TypedEvent, slot pool.Slot) error {
	if event.Sequence > a.LastSequence {
		a.LastSequence = event.Sequence
	}
	if event.Sequence < a.FirstSequence {
		a.FirstSequence = event.Sequence
	}

	switch event.EventName {
	case pool.EventSwap:
		swap, ok := event.Decoded.(model.SwapEventData)
		if !ok {
			return fmt.Errorf("swap payload has type %T", event.Decoded)
		}
		return a.applySwap(swap, slot)
	case pool.EventLiquidityAdded:
		a.DepositCount++
	case pool.EventLiquidityWithdrawal:
		a.WithdrawalCount++
	}
	return nil
}

func (a *Accumulator) applySwap(swap model.SwapEventData, slot pool.Slot) error {
	fee, err := parseBigInt(swap.ProtocolFee)
	if err != nil {
		return err
	}
	net, err := parseBigInt(swap.NetAmountIn)
	if err != nil {
		return err
	}
	gross := new(big.Int).Add(net, fee)

	switch slot {
	case pool.Slot1:
		a.Volume1.Add(a.Volume1, gross)
		a.ProtocolFee1.Add(a.ProtocolFee1, fee)
	case pool.Slot2:
		a.Volume2.Add(a.Volume2, gross)
		a.ProtocolFee2.Add(a.ProtocolFee2, fee)
	default:
		return fmt.Errorf("swap input asset %s is not in the pool", swap.AssetIn)
	}
	a.SwapCount++
	return nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %s", value)
	}
	return parsed, nil
}
