package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
)

// ReplayConfig holds configuration for the replay command.
type ReplayConfig struct {
	Input         string
	Out           string
	Window        time.Duration
	PGDSN         string
	BatchSize     int
	StateFile     string
	StateName     string
	RecomputeFrom uint64
	SnapshotFile  string
	Asset1        common.Address
	Asset2        common.Address
	LogLevel      string
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"in":         "./data/journal.jsonl",
		"out":        "./data/window_metrics.jsonl",
		"window":     "5m",
		"batch-size": 1000,
		"state-name": "replay",
		"log-level":  "info",
	})
	if err != nil {
		return ReplayConfig{}, err
	}

	cfg := ReplayConfig{
		Input:         v.GetString("in"),
		Out:           v.GetString("out"),
		Window:        v.GetDuration("window"),
		PGDSN:         v.GetString("pg-dsn"),
		BatchSize:     v.GetInt("batch-size"),
		StateFile:     v.GetString("state-file"),
		StateName:     v.GetString("state-name"),
		RecomputeFrom: v.GetUint64("recompute-from"),
		SnapshotFile:  v.GetString("snapshot-file"),
		LogLevel:      v.GetString("log-level"),
	}
	if cfg.Asset1, err = getAddress(v, "asset1"); err != nil {
		return ReplayConfig{}, err
	}
	if cfg.Asset2, err = getAddress(v, "asset2"); err != nil {
		return ReplayConfig{}, err
	}
	if cfg.Window < time.Second {
		return ReplayConfig{}, fmt.Errorf("window must be at least 1s, got %s", cfg.Window)
	}

	return cfg, nil
}
