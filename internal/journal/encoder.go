package journal

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"swapPool/internal/pool"
)

// Encoder turns pool events into log topics and ABI-encoded data.
type Encoder struct {
	poolABI abi.ABI
}

func NewEncoder() (*Encoder, error) {
	parsed, err := PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	return &Encoder{poolABI: parsed}, nil
}

// Encode returns the topics (signature first) and data of an event.
func (e *Encoder) Encode(ev pool.Event) ([]common.Hash, []byte, error) {
	switch v := ev.(type) {
	case pool.LiquidityAdded:
		return e.pack(v.EventName(), []common.Address{v.Holder},
			toBig(v.Amount1), toBig(v.Amount2), toBig(v.SharesMinted), toBig(v.TotalShares))
	case pool.LiquidityWithdrawal:
		return e.pack(v.EventName(), []common.Address{v.Holder},
			toBig(v.Amount1), toBig(v.Amount2), toBig(v.SharesBurned), toBig(v.TotalShares))
	case pool.Swap:
		return e.pack(v.EventName(), []common.Address{v.Holder, v.AssetIn},
			toBig(v.ProtocolFee), toBig(v.NetAmountIn), toBig(v.AmountOut))
	case pool.FeeChanged:
		return e.pack(v.EventName(), []common.Address{v.Owner}, new(big.Int).SetUint64(v.FeeBps))
	case pool.ProtocolFeeChanged:
		return e.pack(v.EventName(), []common.Address{v.Owner}, new(big.Int).SetUint64(v.FeeBps))
	case pool.MaxTradePercentageChanged:
		return e.pack(v.EventName(), []common.Address{v.Owner}, new(big.Int).SetUint64(v.MaxTradeBps))
	case pool.FeeRecipientChanged:
		return e.pack(v.EventName(), []common.Address{v.Owner}, v.Recipient)
	case pool.SharesTransferred:
		return e.pack(v.EventName(), []common.Address{v.From, v.To}, toBig(v.Shares))
	default:
		return nil, nil, fmt.Errorf("unsupported event %T", ev)
	}
}

func (e *Encoder) pack(name string, indexed []common.Address, values ...interface{}) ([]common.Hash, []byte, error) {
	event, ok := e.poolABI.Events[name]
	if !ok {
		return nil, nil, fmt.Errorf("event %s missing from abi", name)
	}
	topics := make([]common.Hash, 0, len(indexed)+1)
	topics = append(topics, event.ID)
	for _, addr := range indexed {
		topics = append(topics, common.BytesToHash(addr.Bytes()))
	}
	data, err := event.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		return nil, nil, fmt.Errorf("pack %s: %w", name, err)
	}
	return topics, data, nil
}

func toBig(v *uint256.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}
