package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Info is a point-in-time view of the pool.
type Info struct {
	Address        common.Address
	Asset1         common.Address
	Asset2         common.Address
	Owner          common.Address
	FeeRecipient   common.Address
	Reserve1       *uint256.Int
	Reserve2       *uint256.Int
	TotalShares    *uint256.Int
	TradeFeeBps    uint64
	ProtocolFeeBps uint64
	MaxTradeBps    uint64
}

// Info returns the current configuration and reserves.
func (p *Pool) Info() Info {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Info{
		Address:        p.address,
		Asset1:         p.asset1,
		Asset2:         p.asset2,
		Owner:          p.owner,
		FeeRecipient:   p.feeRecipient,
		Reserve1:       p.state.reserve1.Clone(),
		Reserve2:       p.state.reserve2.Clone(),
		TotalShares:    p.state.totalShares.Clone(),
		TradeFeeBps:    p.tradeFeeBps,
		ProtocolFeeBps: p.protocolFeeBps,
		MaxTradeBps:    p.maxTradeBps,
	}
}

// EstimateSwap prices a swap against caller-supplied reserves with the
// pool's current fee rates.
func (p *Pool) EstimateSwap(amountIn, totalIn, totalOut *uint256.Int) (SwapQuote, error) {
	p.mu.Lock()
	tradeFee, protocolFee := p.tradeFeeBps, p.protocolFeeBps
	p.mu.Unlock()

	return EstimateSwap(orZero(amountIn), orZero(totalIn), orZero(totalOut), tradeFee, protocolFee)
}

// EstimateSwapFor prices a swap of assetIn against the live reserves.
func (p *Pool) EstimateSwapFor(assetIn common.Address, amountIn *uint256.Int) (SwapQuote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.state.isActive() {
		return SwapQuote{}, ErrPoolInactive
	}
	in, err := p.slotOf(assetIn)
	if err != nil {
		return SwapQuote{}, err
	}
	return EstimateSwap(orZero(amountIn), p.state.get(in), p.state.get(in.other()), p.tradeFeeBps, p.protocolFeeBps)
}

// EstimateShares returns the shares a deposit of amount1 and amount2 would
// mint right now.
func (p *Pool) EstimateShares(amount1, amount2 *uint256.Int) (*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.estimateShares(orZero(amount1), orZero(amount2))
}

// EstimateWithdrawalAmounts returns the assets a withdrawal of shares would
// pay out right now.
func (p *Pool) EstimateWithdrawalAmounts(shares *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return estimateWithdrawal(orZero(shares), &p.state.reserve1, &p.state.reserve2, &p.state.totalShares)
}

// MaxTrade returns the output ceiling for totalOut under the current limit.
func (p *Pool) MaxTrade(totalOut *uint256.Int) (*uint256.Int, error) {
	p.mu.Lock()
	limit := p.maxTradeBps
	p.mu.Unlock()

	return MaxTrade(orZero(totalOut), limit)
}

// SharesOf returns the share balance of holder.
func (p *Pool) SharesOf(holder common.Address) *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.shares.balanceOf(holder)
}
