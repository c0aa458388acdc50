package aggregate

import (
	"errors"
	"fmt"
	"math/big"

	"swapPool/internal/model"
	"swapPool/internal/pool"
)

// ErrAuditMismatch reports an event stream that disagrees with itself or with
// a snapshot.
var ErrAuditMismatch = errors.New("audit mismatch")

// PoolState is the reserve and share position rebuilt from a pool's events.
type PoolState struct {
	Address      string
	Reserve1     *big.Int
	Reserve2     *big.Int
	TotalShares  *big.Int
	LastSequence uint64
	Events       uint64
}

func newPoolState(address string) *PoolState {
	return &PoolState{
		Address:     address,
		Reserve1:    big.NewInt(0),
		Reserve2:    big.NewInt(0),
		TotalShares: big.NewInt(0),
	}
}

// Apply moves the rebuilt state forward by one event. Deposits and
// withdrawals must agree with the total share supply they report.
func (s *PoolState) Apply(event *model.TypedEvent, slot pool.Slot) error {
	switch event.EventName {
	case pool.EventLiquidityAdded:
		data, ok := event.Decoded.(model.LiquidityAddedData)
		if !ok {
			return fmt.Errorf("deposit payload has type %T", event.Decoded)
		}
		amounts, err := parseAll(data.Amount1, data.Amount2, data.SharesMinted, data.TotalShares)
		if err != nil {
			return err
		}
		s.Reserve1.Add(s.Reserve1, amounts[0])
		s.Reserve2.Add(s.Reserve2, amounts[1])
		s.TotalShares.Add(s.TotalShares, amounts[2])
		if s.TotalShares.Cmp(amounts[3]) != 0 {
			return fmt.Errorf("%w: sequence %d total shares %s, rebuilt %s", ErrAuditMismatch, event.Sequence, data.TotalShares, s.TotalShares)
		}
	case pool.EventLiquidityWithdrawal:
		data, ok := event.Decoded.(model.LiquidityWithdrawalData)
		if !ok {
			return fmt.Errorf("withdrawal payload has type %T", event.Decoded)
		}
		amounts, err := parseAll(data.Amount1, data.Amount2, data.SharesBurned, data.TotalShares)
		if err != nil {
			return err
		}
		s.Reserve1.Sub(s.Reserve1, amounts[0])
		s.Reserve2.Sub(s.Reserve2, amounts[1])
		s.TotalShares.Sub(s.TotalShares, amounts[2])
		if s.TotalShares.Cmp(amounts[3]) != 0 {
			return fmt.Errorf("%w: sequence %d total shares %s, rebuilt %s", ErrAuditMismatch, event.Sequence, data.TotalShares, s.TotalShares)
		}
	case pool.EventSwap:
		data, ok := event.Decoded.(model.SwapEventData)
		if !ok {
			return fmt.Errorf("swap payload has type %T", event.Decoded)
		}
		amounts, err := parseAll(data.NetAmountIn, data.AmountOut)
		if err != nil {
			return err
		}
		switch slot {
		case pool.Slot1:
			s.Reserve1.Add(s.Reserve1, amounts[0])
			s.Reserve2.Sub(s.Reserve2, amounts[1])
		case pool.Slot2:
			s.Reserve2.Add(s.Reserve2, amounts[0])
			s.Reserve1.Sub(s.Reserve1, amounts[1])
		default:
			return fmt.Errorf("swap input asset %s is not in the pool", data.AssetIn)
		}
	}

	if s.Reserve1.Sign() < 0 || s.Reserve2.Sign() < 0 || s.TotalShares.Sign() < 0 {
		return fmt.Errorf("%w: sequence %d drives reserves negative", ErrAuditMismatch, event.Sequence)
	}
	if event.Sequence > s.LastSequence {
		s.LastSequence = event.Sequence
	}
	s.Events++
	return nil
}

// Compare checks the rebuilt state against a saved pool snapshot.
func (s *PoolState) Compare(snap model.PoolSnapshot) error {
	for _, pair := range []struct {
		name  string
		value *big.Int
		want  string
	}{
		{"reserve1", s.Reserve1, snap.Reserve1},
		{"reserve2", s.Reserve2, snap.Reserve2},
		{"total shares", s.TotalShares, snap.TotalShares},
	} {
		want, err := parseBigInt(pair.want)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", pair.name, err)
		}
		if pair.value.Cmp(want) != 0 {
			return fmt.Errorf("%w: %s rebuilt %s, snapshot %s", ErrAuditMismatch, pair.name, pair.value, want)
		}
	}
	return nil
}

func parseAll(values ...string) ([]*big.Int, error) {
	out := make([]*big.Int, 0, len(values))
	for _, value := range values {
		parsed, err := parseBigInt(value)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}
