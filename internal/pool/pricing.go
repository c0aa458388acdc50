package pool

import (
	"github.com/holiman/uint256"

	"swapPool/internal/fixedpoint"
)

// SwapQuote is the outcome of pricing a swap against a pair of reserves.
type SwapQuote struct {
	ProtocolFee *uint256.Int
	AmountOut   *uint256.Int
	EffectiveIn *uint256.Int
}

// EstimateSwap prices amountIn against totalIn/totalOut with the constant
// product formula. The protocol fee is carved out of amountIn; the trade fee
// only discounts the priced input and stays in the pool.
func EstimateSwap(amountIn, totalIn, totalOut *uint256.Int, tradeFeeBps, protocolFeeBps uint64) (SwapQuote, error) {
	if amountIn.IsZero() || totalIn.IsZero() || totalOut.IsZero() {
		return SwapQuote{}, ErrZeroAmount
	}
	if err := validateFees(tradeFeeBps, protocolFeeBps); err != nil {
		return SwapQuote{}, err
	}

	protocolFee, err := fixedpoint.ApplyBps(amountIn, protocolFeeBps)
	if err != nil {
		return SwapQuote{}, err
	}
	effectiveIn := new(uint256.Int).Sub(amountIn, protocolFee)

	discounted, err := fixedpoint.ApplyFeeComplement(amountIn, tradeFeeBps+protocolFeeBps)
	if err != nil {
		return SwapQuote{}, err
	}
	denom, err := fixedpoint.Add(totalIn, discounted)
	if err != nil {
		return SwapQuote{}, err
	}
	amountOut, err := fixedpoint.MulDiv(totalOut, discounted, denom)
	if err != nil {
		return SwapQuote{}, err
	}

	return SwapQuote{
		ProtocolFee: protocolFee,
		AmountOut:   amountOut,
		EffectiveIn: effectiveIn,
	}, nil
}

// MaxTrade returns the largest output a single swap may take from totalOut.
func MaxTrade(totalOut *uint256.Int, maxTradeBps uint64) (*uint256.Int, error) {
	if maxTradeBps == 0 || maxTradeBps > fixedpoint.BasisPoints {
		return nil, ErrInvalidTradeLimit
	}
	return fixedpoint.ApplyBps(totalOut, maxTradeBps)
}

// CheckPriceImpactLimit rejects outputs above MaxTrade(totalOut).
func CheckPriceImpactLimit(amountOut, totalOut *uint256.Int, maxTradeBps uint64) error {
	limit, err := MaxTrade(totalOut, maxTradeBps)
	if err != nil {
		return err
	}
	if amountOut.Gt(limit) {
		return ErrTradeLimitExceeded
	}
	return nil
}

func validateFees(tradeFeeBps, protocolFeeBps uint64) error {
	if tradeFeeBps > fixedpoint.BasisPoints || protocolFeeBps > fixedpoint.BasisPoints {
		return ErrInvalidFee
	}
	if tradeFeeBps+protocolFeeBps > fixedpoint.BasisPoints {
		return ErrInvalidFee
	}
	return nil
}
