package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapPool/internal/fixedpoint"
	"swapPool/internal/model"
)

// Snapshot returns the full pool state.
func (p *Pool) Snapshot() model.PoolSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	shares := make(map[string]string, len(p.shares.balances))
	for holder, balance := range p.shares.balances {
		shares[holder.Hex()] = fixedpoint.Format(balance)
	}
	return model.PoolSnapshot{
		Asset1:         p.asset1.Hex(),
		Asset2:         p.asset2.Hex(),
		Owner:          p.owner.Hex(),
		FeeRecipient:   p.feeRecipient.Hex(),
		TradeFeeBps:    p.tradeFeeBps,
		ProtocolFeeBps: p.protocolFeeBps,
		MaxTradeBps:    p.maxTradeBps,
		Reserve1:       fixedpoint.Format(&p.state.reserve1),
		Reserve2:       fixedpoint.Format(&p.state.reserve2),
		TotalShares:    fixedpoint.Format(&p.state.totalShares),
		Shares:         shares,
	}
}

// Restore rebuilds a pool from a snapshot. Share balances must add up to the
// total supply, and an empty supply requires empty reserves.
func Restore(snap model.PoolSnapshot, ledger Ledger, sink EventSink, logger *zap.Logger) (*Pool, error) {
	cfg := Config{TradeFeeBps: snap.TradeFeeBps, ProtocolFeeBps: snap.ProtocolFeeBps, MaxTradeBps: snap.MaxTradeBps}
	for _, field := range []struct {
		name  string
		value string
		dst   *common.Address
	}{
		{"asset1", snap.Asset1, &cfg.Asset1},
		{"asset2", snap.Asset2, &cfg.Asset2},
		{"owner", snap.Owner, &cfg.Owner},
		{"fee recipient", snap.FeeRecipient, &cfg.FeeRecipient},
	} {
		if !common.IsHexAddress(field.value) {
			return nil, fmt.Errorf("%w: %s %q", ErrInvalidSnapshot, field.name, field.value)
		}
		*field.dst = common.HexToAddress(field.value)
	}

	p, err := New(cfg, ledger, sink, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	reserve1, err := fixedpoint.Parse(snap.Reserve1)
	if err != nil {
		return nil, fmt.Errorf("%w: reserve1: %v", ErrInvalidSnapshot, err)
	}
	reserve2, err := fixedpoint.Parse(snap.Reserve2)
	if err != nil {
		return nil, fmt.Errorf("%w: reserve2: %v", ErrInvalidSnapshot, err)
	}
	total, err := fixedpoint.Parse(snap.TotalShares)
	if err != nil {
		return nil, fmt.Errorf("%w: total shares: %v", ErrInvalidSnapshot, err)
	}
	switch {
	case total.IsZero() && !(reserve1.IsZero() && reserve2.IsZero()),
		!total.IsZero() && (reserve1.IsZero() || reserve2.IsZero()):
		return nil, fmt.Errorf("%w: reserves %s/%s with total shares %s", ErrInvalidSnapshot, snap.Reserve1, snap.Reserve2, snap.TotalShares)
	}

	for holder, value := range snap.Shares {
		if !common.IsHexAddress(holder) {
			return nil, fmt.Errorf("%w: holder %q", ErrInvalidSnapshot, holder)
		}
		balance, err := fixedpoint.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("%w: shares of %s: %v", ErrInvalidSnapshot, holder, err)
		}
		p.shares.set(common.HexToAddress(holder), balance)
	}
	if sum := p.shares.sum(); sum.Cmp(total.ToBig()) != 0 {
		return nil, fmt.Errorf("%w: share balances sum to %s, total shares %s", ErrInvalidSnapshot, sum.String(), fixedpoint.Format(total))
	}

	p.state.reserve1.Set(reserve1)
	p.state.reserve2.Set(reserve2)
	p.state.totalShares.Set(total)
	return p, nil
}
