// Package pool implements a two-asset constant-product liquidity pool. All
// amounts use fixedpoint precision and every public operation runs as a single
// critical section that either commits completely or leaves no trace.
package pool

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"swapPool/internal/fixedpoint"
)

const (
	DefaultTradeFeeBps    uint64 = 30
	DefaultProtocolFeeBps uint64 = 20
	DefaultMaxTradeBps    uint64 = 1000
)

// Config describes a pool at creation time. A zero FeeRecipient defaults to
// Owner.
type Config struct {
	Asset1         common.Address
	Asset2         common.Address
	Owner          common.Address
	FeeRecipient   common.Address
	TradeFeeBps    uint64
	ProtocolFeeBps uint64
	MaxTradeBps    uint64
}

// DefaultConfig returns a config with the default fee and trade limits.
func DefaultConfig(asset1, asset2, owner common.Address) Config {
	return Config{
		Asset1:         asset1,
		Asset2:         asset2,
		Owner:          owner,
		FeeRecipient:   owner,
		TradeFeeBps:    DefaultTradeFeeBps,
		ProtocolFeeBps: DefaultProtocolFeeBps,
		MaxTradeBps:    DefaultMaxTradeBps,
	}
}

func (c Config) validate() error {
	if c.Asset1 == (common.Address{}) || c.Asset2 == (common.Address{}) {
		return ErrInvalidToken
	}
	if c.Asset1 == c.Asset2 {
		return ErrSameAsset
	}
	if c.Owner == (common.Address{}) {
		return ErrInvalidOwner
	}
	if c.FeeRecipient == DeriveAddress(c.Asset1, c.Asset2, c.Owner) {
		return ErrInvalidRecipient
	}
	if err := validateFees(c.TradeFeeBps, c.ProtocolFeeBps); err != nil {
		return err
	}
	if c.MaxTradeBps == 0 || c.MaxTradeBps > fixedpoint.BasisPoints {
		return ErrInvalidTradeLimit
	}
	return nil
}

// Pool is the accounting engine. It is safe for concurrent use.
type Pool struct {
	mu sync.Mutex

	address common.Address
	asset1  common.Address
	asset2  common.Address
	owner   common.Address

	feeRecipient   common.Address
	tradeFeeBps    uint64
	protocolFeeBps uint64
	maxTradeBps    uint64

	state  reserves
	shares *shareBook

	ledger Ledger
	sink   EventSink
	logger *zap.Logger
}

// New creates an empty pool. sink and logger may be nil.
func New(cfg Config, ledger Ledger, sink EventSink, logger *zap.Logger) (*Pool, error) {
	if cfg.FeeRecipient == (common.Address{}) {
		cfg.FeeRecipient = cfg.Owner
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = nopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		address:        DeriveAddress(cfg.Asset1, cfg.Asset2, cfg.Owner),
		asset1:         cfg.Asset1,
		asset2:         cfg.Asset2,
		owner:          cfg.Owner,
		feeRecipient:   cfg.FeeRecipient,
		tradeFeeBps:    cfg.TradeFeeBps,
		protocolFeeBps: cfg.ProtocolFeeBps,
		maxTradeBps:    cfg.MaxTradeBps,
		shares:         newShareBook(),
		ledger:         ledger,
		sink:           sink,
		logger:         logger,
	}, nil
}

// DeriveAddress returns the deterministic identity of the pool for an asset
// pair and owner. It is used as the emitting address of journal logs.
func DeriveAddress(asset1, asset2, owner common.Address) common.Address {
	return common.BytesToAddress(crypto.Keccak256(asset1.Bytes(), asset2.Bytes(), owner.Bytes())[12:])
}

// Address returns the pool identity.
func (p *Pool) Address() common.Address {
	return p.address
}

// Deposit adds liquidity from caller. An empty pool takes a genesis deposit of
// two equal amounts; an active pool requires the current reserve ratio.
func (p *Pool) Deposit(ctx context.Context, caller common.Address, amount1, amount2 *uint256.Int) (LiquidityAdded, error) {
	amount1, amount2 = orZero(amount1), orZero(amount2)

	p.mu.Lock()
	defer p.mu.Unlock()

	if caller == p.address {
		return LiquidityAdded{}, p.reject("deposit", caller, ErrPoolAccount)
	}
	shares, err := p.estimateShares(amount1, amount2)
	if err != nil {
		return LiquidityAdded{}, p.reject("deposit", caller, err)
	}

	staged := p.state
	if err := staged.credit(Slot1, amount1); err != nil {
		return LiquidityAdded{}, p.reject("deposit", caller, err)
	}
	if err := staged.credit(Slot2, amount2); err != nil {
		return LiquidityAdded{}, p.reject("deposit", caller, err)
	}
	balance, total, err := p.shares.mint(caller, shares, &staged.totalShares)
	if err != nil {
		return LiquidityAdded{}, p.reject("deposit", caller, err)
	}
	staged.totalShares.Set(total)

	plan := newSettlement(p.ledger)
	plan.pull(p.asset1, caller, amount1)
	plan.pull(p.asset2, caller, amount2)
	if err := plan.execute(ctx); err != nil {
		return LiquidityAdded{}, p.reject("deposit", caller, err)
	}

	p.state = staged
	p.shares.set(caller, balance)

	event := LiquidityAdded{
		Holder:       caller,
		Amount1:      amount1.Clone(),
		Amount2:      amount2.Clone(),
		SharesMinted: shares,
		TotalShares:  total,
	}
	p.logger.Debug("liquidity added",
		zap.String("holder", caller.Hex()),
		zap.String("amount1", fixedpoint.Format(amount1)),
		zap.String("amount2", fixedpoint.Format(amount2)),
		zap.String("shares", fixedpoint.Format(shares)),
	)
	p.sink.Publish(event)
	return event, nil
}

// Withdraw burns shares from caller and pays out the pro-rata reserves.
func (p *Pool) Withdraw(ctx context.Context, caller common.Address, shares *uint256.Int) (LiquidityWithdrawal, error) {
	shares = orZero(shares)

	p.mu.Lock()
	defer p.mu.Unlock()

	if caller == p.address {
		return LiquidityWithdrawal{}, p.reject("withdraw", caller, ErrPoolAccount)
	}
	if !p.state.isActive() {
		return LiquidityWithdrawal{}, p.reject("withdraw", caller, ErrPoolInactive)
	}
	if shares.IsZero() {
		return LiquidityWithdrawal{}, p.reject("withdraw", caller, ErrInvalidAmount)
	}
	if p.shares.balanceOf(caller).Lt(shares) {
		return LiquidityWithdrawal{}, p.reject("withdraw", caller, ErrInsufficientShares)
	}
	amount1, amount2, err := estimateWithdrawal(shares, &p.state.reserve1, &p.state.reserve2, &p.state.totalShares)
	if err != nil {
		return LiquidityWithdrawal{}, p.reject("withdraw", caller, err)
	}

	staged := p.state
	if err := staged.debit(Slot1, amount1); err != nil {
		return LiquidityWithdrawal{}, p.reject("withdraw", caller, err)
	}
	if err := staged.debit(Slot2, amount2); err != nil {
		return LiquidityWithdrawal{}, p.reject("withdraw", caller, err)
	}
	balance, total, err := p.shares.burn(caller, shares, &staged.totalShares)
	if err != nil {
		return LiquidityWithdrawal{}, p.reject("withdraw", caller, err)
	}
	staged.totalShares.Set(total)

	plan := newSettlement(p.ledger)
	plan.push(p.asset1, caller, amount1)
	plan.push(p.asset2, caller, amount2)
	if err := plan.execute(ctx); err != nil {
		return LiquidityWithdrawal{}, p.reject("withdraw", caller, err)
	}

	p.state = staged
	p.shares.set(caller, balance)

	event := LiquidityWithdrawal{
		Holder:       caller,
		Amount1:      amount1,
		Amount2:      amount2,
		SharesBurned: shares.Clone(),
		TotalShares:  total,
	}
	p.logger.Debug("liquidity withdrawn",
		zap.String("holder", caller.Hex()),
		zap.String("amount1", fixedpoint.Format(amount1)),
		zap.String("amount2", fixedpoint.Format(amount2)),
		zap.String("shares", fixedpoint.Format(shares)),
	)
	p.sink.Publish(event)
	return event, nil
}

// Swap trades amountIn of assetIn for the other asset. The protocol fee is
// forwarded to the fee recipient and the rest of the input joins the reserve.
func (p *Pool) Swap(ctx context.Context, caller, assetIn common.Address, amountIn, minAmountOut *uint256.Int) (Swap, error) {
	amountIn, minAmountOut = orZero(amountIn), orZero(minAmountOut)

	p.mu.Lock()
	defer p.mu.Unlock()

	if caller == p.address {
		return Swap{}, p.reject("swap", caller, ErrPoolAccount)
	}
	if !p.state.isActive() {
		return Swap{}, p.reject("swap", caller, ErrPoolInactive)
	}
	in, err := p.slotOf(assetIn)
	if err != nil {
		return Swap{}, p.reject("swap", caller, err)
	}
	if amountIn.IsZero() {
		return Swap{}, p.reject("swap", caller, ErrZeroAmount)
	}
	out := in.other()
	totalIn, totalOut := p.state.get(in), p.state.get(out)

	quote, err := EstimateSwap(amountIn, totalIn, totalOut, p.tradeFeeBps, p.protocolFeeBps)
	if err != nil {
		return Swap{}, p.reject("swap", caller, err)
	}
	if err := CheckPriceImpactLimit(quote.AmountOut, totalOut, p.maxTradeBps); err != nil {
		return Swap{}, p.reject("swap", caller, err)
	}
	if quote.AmountOut.Lt(minAmountOut) {
		return Swap{}, p.reject("swap", caller, ErrSlippageExceeded)
	}

	staged := p.state
	if err := staged.credit(in, quote.EffectiveIn); err != nil {
		return Swap{}, p.reject("swap", caller, err)
	}
	if err := staged.debit(out, quote.AmountOut); err != nil {
		return Swap{}, p.reject("swap", caller, err)
	}

	assetOut := p.assetOf(out)
	plan := newSettlement(p.ledger)
	plan.pull(assetIn, caller, amountIn)
	plan.push(assetIn, p.feeRecipient, quote.ProtocolFee)
	plan.push(assetOut, caller, quote.AmountOut)
	if err := plan.execute(ctx); err != nil {
		return Swap{}, p.reject("swap", caller, err)
	}

	p.state = staged

	event := Swap{
		Holder:      caller,
		AssetIn:     assetIn,
		ProtocolFee: quote.ProtocolFee,
		NetAmountIn: quote.EffectiveIn,
		AmountOut:   quote.AmountOut,
	}
	p.logger.Debug("swap",
		zap.String("holder", caller.Hex()),
		zap.String("asset_in", assetIn.Hex()),
		zap.String("amount_in", fixedpoint.Format(amountIn)),
		zap.String("protocol_fee", fixedpoint.Format(quote.ProtocolFee)),
		zap.String("amount_out", fixedpoint.Format(quote.AmountOut)),
	)
	p.sink.Publish(event)
	return event, nil
}

// TransferShares moves shares between holders without touching reserves.
func (p *Pool) TransferShares(caller, to common.Address, shares *uint256.Int) (SharesTransferred, error) {
	shares = orZero(shares)

	p.mu.Lock()
	defer p.mu.Unlock()

	if caller == p.address || to == p.address {
		return SharesTransferred{}, p.reject("transfer shares", caller, ErrPoolAccount)
	}
	if to == (common.Address{}) {
		return SharesTransferred{}, p.reject("transfer shares", caller, ErrInvalidRecipient)
	}
	if shares.IsZero() {
		return SharesTransferred{}, p.reject("transfer shares", caller, ErrInvalidAmount)
	}
	from := p.shares.balanceOf(caller)
	if from.Lt(shares) {
		return SharesTransferred{}, p.reject("transfer shares", caller, ErrInsufficientShares)
	}
	if caller != to {
		dest, err := fixedpoint.Add(p.shares.balanceOf(to), shares)
		if err != nil {
			return SharesTransferred{}, p.reject("transfer shares", caller, err)
		}
		p.shares.set(caller, from.Sub(from, shares))
		p.shares.set(to, dest)
	}

	event := SharesTransferred{From: caller, To: to, Shares: shares.Clone()}
	p.logger.Debug("shares transferred",
		zap.String("from", caller.Hex()),
		zap.String("to", to.Hex()),
		zap.String("shares", fixedpoint.Format(shares)),
	)
	p.sink.Publish(event)
	return event, nil
}

func (p *Pool) estimateShares(amount1, amount2 *uint256.Int) (*uint256.Int, error) {
	if !p.state.isActive() {
		return estimateGenesisShares(amount1, amount2)
	}
	return estimateProportionalShares(amount1, amount2, &p.state.reserve1, &p.state.reserve2, &p.state.totalShares)
}

func (p *Pool) slotOf(asset common.Address) (Slot, error) {
	switch asset {
	case p.asset1:
		return Slot1, nil
	case p.asset2:
		return Slot2, nil
	default:
		return 0, ErrInvalidToken
	}
}

func (p *Pool) assetOf(slot Slot) common.Address {
	if slot == Slot1 {
		return p.asset1
	}
	return p.asset2
}

func (p *Pool) reject(op string, caller common.Address, err error) error {
	p.logger.Debug("operation rejected",
		zap.String("op", op),
		zap.String("holder", caller.Hex()),
		zap.String("kind", Kind(err)),
		zap.Error(err),
	)
	return err
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
