package chain

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapPool/internal/model"
)

const erc20ABIStringJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

// Some older tokens return bytes32 for symbol and name.
const erc20ABIBytes32JSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20ABIOnce    sync.Once
	erc20ABIString  abi.ABI
	erc20ABIBytes32 abi.ABI
	erc20ABIErr     error
)

func erc20ABIs() (abi.ABI, abi.ABI, error) {
	erc20ABIOnce.Do(func() {
		erc20ABIString, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIStringJSON))
		if erc20ABIErr != nil {
			return
		}
		erc20ABIBytes32, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIBytes32JSON))
	})
	return erc20ABIString, erc20ABIBytes32, erc20ABIErr
}

// FetchAssetMeta loads decimals, symbol and name of an ERC20 asset. Only the
// decimals call is required; symbol and name are best effort.
func FetchAssetMeta(ctx context.Context, caller Caller, asset common.Address, logger *zap.Logger) (model.AssetMeta, error) {
	meta := model.AssetMeta{Address: asset.Hex()}
	if caller == nil {
		return meta, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	stringABI, bytes32ABI, err := erc20ABIs()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &asset, Data: data}, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("%s returned nothing", method)
		}
		return values, nil
	}

	values, err := call("decimals", stringABI)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	text := func(method string) string {
		if values, err := call(method, stringABI); err == nil {
			if s, ok := values[0].(string); ok {
				return s
			}
		}
		values, err := call(method, bytes32ABI)
		if err != nil {
			logger.Debug(method+" call failed", zap.String("asset", asset.Hex()), zap.Error(err))
			return ""
		}
		s, _ := bytes32ToString(values[0])
		return s
	}
	meta.Symbol = text("symbol")
	meta.Name = text("name")

	return meta, nil
}

// ResolveAssets fetches metadata for each asset, retrying transient RPC
// failures.
func ResolveAssets(ctx context.Context, caller Caller, assets []common.Address, retries int, logger *zap.Logger) ([]model.AssetMeta, error) {
	out := make([]model.AssetMeta, 0, len(assets))
	for _, asset := range assets {
		var meta model.AssetMeta
		err := withRetry(ctx, retries, 200*time.Millisecond, func(ctx context.Context) error {
			var err error
			meta, err = FetchAssetMeta(ctx, caller, asset, logger)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", asset.Hex(), err)
		}
		if logger != nil {
			logger.Info("asset resolved",
				zap.String("asset", meta.Address),
				zap.String("symbol", meta.Symbol),
				zap.Uint8("decimals", meta.Decimals),
			)
		}
		out = append(out, meta)
	}
	return out, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("decimals out of range: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
