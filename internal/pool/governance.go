package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapPool/internal/fixedpoint"
)

// SetTradeFee changes the fee retained by the pool on every swap.
func (p *Pool) SetTradeFee(caller common.Address, bps uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.authorize("set trade fee", caller); err != nil {
		return err
	}
	if err := validateFees(bps, p.protocolFeeBps); err != nil {
		return p.reject("set trade fee", caller, err)
	}
	p.tradeFeeBps = bps
	p.logger.Info("trade fee changed", zap.Uint64("bps", bps))
	p.sink.Publish(FeeChanged{Owner: caller, FeeBps: bps})
	return nil
}

// SetProtocolFee changes the fee forwarded to the fee recipient on every swap.
func (p *Pool) SetProtocolFee(caller common.Address, bps uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.authorize("set protocol fee", caller); err != nil {
		return err
	}
	if err := validateFees(p.tradeFeeBps, bps); err != nil {
		return p.reject("set protocol fee", caller, err)
	}
	p.protocolFeeBps = bps
	p.logger.Info("protocol fee changed", zap.Uint64("bps", bps))
	p.sink.Publish(ProtocolFeeChanged{Owner: caller, FeeBps: bps})
	return nil
}

// SetFeeRecipient changes the holder that receives protocol fees.
func (p *Pool) SetFeeRecipient(caller, recipient common.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.authorize("set fee recipient", caller); err != nil {
		return err
	}
	if recipient == (common.Address{}) || recipient == p.address {
		return p.reject("set fee recipient", caller, ErrInvalidRecipient)
	}
	if recipient == p.feeRecipient {
		return p.reject("set fee recipient", caller, ErrSameRecipient)
	}
	p.feeRecipient = recipient
	p.logger.Info("fee recipient changed", zap.String("recipient", recipient.Hex()))
	p.sink.Publish(FeeRecipientChanged{Owner: caller, Recipient: recipient})
	return nil
}

// SetMaxTradePercentage bounds the share of the output reserve a single swap
// may take. bps must be in 1..10000.
func (p *Pool) SetMaxTradePercentage(caller common.Address, bps uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.authorize("set max trade", caller); err != nil {
		return err
	}
	if bps == 0 || bps > fixedpoint.BasisPoints {
		return p.reject("set max trade", caller, ErrInvalidTradeLimit)
	}
	p.maxTradeBps = bps
	p.logger.Info("max trade percentage changed", zap.Uint64("bps", bps))
	p.sink.Publish(MaxTradePercentageChanged{Owner: caller, MaxTradeBps: bps})
	return nil
}

func (p *Pool) authorize(op string, caller common.Address) error {
	if caller != p.owner {
		return p.reject(op, caller, ErrUnauthorized)
	}
	return nil
}
