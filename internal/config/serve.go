package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Balance seeds a native-unit balance in the in-memory ledger.
type Balance struct {
	Holder common.Address
	Asset  common.Address
	Amount string
}

// ServeConfig holds configuration for the serve command.
type ServeConfig struct {
	Addr           string
	LogLevel       string
	Asset1         common.Address
	Asset2         common.Address
	Asset1Decimals uint8
	Asset2Decimals uint8
	Owner          common.Address
	FeeRecipient   common.Address
	TradeFeeBps    uint64
	ProtocolFeeBps uint64
	MaxTradeBps    uint64
	RPCURL         string
	Journal        string
	SnapshotFile   string
	PGDSN          string
	SnapshotName   string
	Balances       []Balance
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"addr":             ":8080",
		"log-level":        "info",
		"trade-fee-bps":    uint64(30),
		"protocol-fee-bps": uint64(20),
		"max-trade-bps":    uint64(1000),
		"journal":          "./data/journal.jsonl",
		"snapshot-name":    "default",
	})
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		Addr:           v.GetString("addr"),
		LogLevel:       v.GetString("log-level"),
		TradeFeeBps:    v.GetUint64("trade-fee-bps"),
		ProtocolFeeBps: v.GetUint64("protocol-fee-bps"),
		MaxTradeBps:    v.GetUint64("max-trade-bps"),
		RPCURL:         v.GetString("rpc"),
		Journal:        v.GetString("journal"),
		SnapshotFile:   v.GetString("snapshot-file"),
		PGDSN:          v.GetString("pg-dsn"),
		SnapshotName:   v.GetString("snapshot-name"),
	}
	for _, field := range []struct {
		key string
		dst *common.Address
	}{
		{"asset1", &cfg.Asset1},
		{"asset2", &cfg.Asset2},
		{"owner", &cfg.Owner},
		{"fee-recipient", &cfg.FeeRecipient},
	} {
		if *field.dst, err = getAddress(v, field.key); err != nil {
			return ServeConfig{}, err
		}
	}
	for _, field := range []struct {
		key string
		dst *uint8
	}{
		{"asset1-decimals", &cfg.Asset1Decimals},
		{"asset2-decimals", &cfg.Asset2Decimals},
	} {
		value := v.GetUint64(field.key)
		if value > 77 {
			return ServeConfig{}, fmt.Errorf("%s: %d is out of range", field.key, value)
		}
		*field.dst = uint8(value)
	}
	if cfg.Balances, err = getBalances(v, "balances"); err != nil {
		return ServeConfig{}, err
	}

	return cfg, nil
}

// NeedsRPC reports whether asset decimals must be resolved on chain.
func (c ServeConfig) NeedsRPC() bool {
	return c.Asset1Decimals == 0 || c.Asset2Decimals == 0
}

// Validate checks the settings serve cannot start without.
func (c ServeConfig) Validate() error {
	if c.Asset1 == (common.Address{}) || c.Asset2 == (common.Address{}) {
		return fmt.Errorf("asset1 and asset2 are required")
	}
	if c.Owner == (common.Address{}) {
		return fmt.Errorf("owner is required")
	}
	if c.NeedsRPC() && c.RPCURL == "" {
		return fmt.Errorf("rpc is required when asset decimals are not set")
	}
	return nil
}

// getBalances accepts "holder:asset:amount" strings from flags or env, and
// {holder, asset, amount} tables from a config file.
func getBalances(v *viper.Viper, key string) ([]Balance, error) {
	if !v.IsSet(key) {
		return nil, nil
	}

	var entries [][3]string
	switch typed := v.Get(key).(type) {
	case []interface{}:
		for _, item := range typed {
			if m, ok := item.(map[string]interface{}); ok {
				entries = append(entries, [3]string{
					fmt.Sprintf("%v", m["holder"]),
					fmt.Sprintf("%v", m["asset"]),
					fmt.Sprintf("%v", m["amount"]),
				})
				continue
			}
			entry, err := splitBalance(fmt.Sprintf("%v", item))
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	default:
		for _, item := range getStringSlice(v, key) {
			entry, err := splitBalance(item)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}

	out := make([]Balance, 0, len(entries))
	for _, entry := range entries {
		holder, asset, amount := strings.TrimSpace(entry[0]), strings.TrimSpace(entry[1]), strings.TrimSpace(entry[2])
		if !common.IsHexAddress(holder) || !common.IsHexAddress(asset) {
			return nil, fmt.Errorf("%s: invalid balance %s:%s", key, holder, asset)
		}
		if amount == "" {
			return nil, fmt.Errorf("%s: missing amount for %s", key, holder)
		}
		out = append(out, Balance{
			Holder: common.HexToAddress(holder),
			Asset:  common.HexToAddress(asset),
			Amount: amount,
		})
	}
	return out, nil
}

func splitBalance(item string) ([3]string, error) {
	parts := strings.Split(item, ":")
	if len(parts) != 3 {
		return [3]string{}, fmt.Errorf("balance %q: want holder:asset:amount", item)
	}
	return [3]string{parts[0], parts[1], parts[2]}, nil
}
