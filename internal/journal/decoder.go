package journal

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"swapPool/internal/model"
	"swapPool/internal/pool"
)

// Decoder turns journal log records back into typed events.
type Decoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

func NewDecoder() (*Decoder, error) {
	parsed, err := PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}

	topicToName := make(map[string]string, len(parsed.Events))
	for name, event := range parsed.Events {
		topicToName[strings.ToLower(event.ID.Hex())] = name
	}

	return &Decoder{
		poolABI:     parsed,
		topicToName: topicToName,
	}, nil
}

// CanDecode checks if the topic0 is a pool event.
func (d *Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *Decoder) Decode(log model.LogRecord) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid pool address: %s", log.Address)
	}

	event := d.poolABI.Events[name]
	addrs, err := parseIndexedAddresses(event, log.Topics)
	if err != nil {
		return nil, err
	}
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}

	var decoded interface{}
	switch name {
	case pool.EventLiquidityAdded:
		amounts, err := bigStrings(values, 4)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		decoded = model.LiquidityAddedData{
			Holder:       addrs[0].Hex(),
			Amount1:      amounts[0],
			Amount2:      amounts[1],
			SharesMinted: amounts[2],
			TotalShares:  amounts[3],
		}
	case pool.EventLiquidityWithdrawal:
		amounts, err := bigStrings(values, 4)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		decoded = model.LiquidityWithdrawalData{
			Holder:       addrs[0].Hex(),
			Amount1:      amounts[0],
			Amount2:      amounts[1],
			SharesBurned: amounts[2],
			TotalShares:  amounts[3],
		}
	case pool.EventSwap:
		amounts, err := bigStrings(values, 3)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		decoded = model.SwapEventData{
			Holder:      addrs[0].Hex(),
			AssetIn:     addrs[1].Hex(),
			ProtocolFee: amounts[0],
			NetAmountIn: amounts[1],
			AmountOut:   amounts[2],
		}
	case pool.EventFeeChanged, pool.EventProtocolFeeChanged, pool.EventMaxTradePercentageChanged:
		if len(values) != 1 {
			return nil, fmt.Errorf("unexpected %s values: %d", name, len(values))
		}
		bps, err := asBigInt(values[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if !bps.IsUint64() {
			return nil, fmt.Errorf("%s: bps out of range: %s", name, bps.String())
		}
		decoded = model.ConfigChangedData{Owner: addrs[0].Hex(), Bps: bps.Uint64()}
	case pool.EventFeeRecipientChanged:
		if len(values) != 1 {
			return nil, fmt.Errorf("unexpected %s values: %d", name, len(values))
		}
		recipient, err := asAddress(values[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		decoded = model.FeeRecipientChangedData{Owner: addrs[0].Hex(), Recipient: recipient.Hex()}
	case pool.EventSharesTransferred:
		amounts, err := bigStrings(values, 1)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		decoded = model.SharesTransferredData{From: addrs[0].Hex(), To: addrs[1].Hex(), Shares: amounts[0]}
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}

	return &model.TypedEvent{
		Sequence:  log.Sequence,
		Address:   log.Address,
		EventName: name,
		Timestamp: log.Timestamp,
		Decoded:   decoded,
		Raw:       &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data},
	}, nil
}

func parseIndexedAddresses(event abi.Event, topics []string) ([]common.Address, error) {
	args := indexedArguments(event.Inputs)
	if len(topics) != len(args)+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", len(args)+1, len(topics))
	}
	hashes, err := parseTopicHashes(topics[1:])
	if err != nil {
		return nil, err
	}
	out := make([]common.Address, 0, len(args))
	for i, arg := range args {
		if arg.Type.T != abi.AddressTy {
			return nil, fmt.Errorf("indexed %s is not an address", arg.Name)
		}
		out = append(out, common.BytesToAddress(hashes[i].Bytes()))
	}
	return out, nil
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}

func bigStrings(values []interface{}, want int) ([]string, error) {
	if len(values) != want {
		return nil, fmt.Errorf("unexpected values: %d", len(values))
	}
	out := make([]string, 0, want)
	for _, value := range values {
		v, err := asBigInt(value)
		if err != nil {
			return nil, err
		}
		out = append(out, v.String())
	}
	return out, nil
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}
