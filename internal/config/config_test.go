package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
)

const (
	usdc  = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	weth  = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	owner = "0x0000000000000000000000000000000000000001"
	alice = "0x1111111111111111111111111111111111111111"
)

// chdir moves into dir so no stray ./config.* is picked up.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func serveFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("asset1", "", "")
	flags.String("asset2", "", "")
	flags.String("owner", "", "")
	flags.Uint64("asset1-decimals", 0, "")
	flags.Uint64("trade-fee-bps", 30, "")
	flags.StringSlice("balances", nil, "")
	return flags
}

func TestLoadServeDefaultsAndFlags(t *testing.T) {
	chdir(t, t.TempDir())
	flags := serveFlags()
	if err := flags.Parse([]string{
		"--asset1", usdc,
		"--asset2", weth,
		"--owner", owner,
		"--asset1-decimals", "6",
		"--balances", alice + ":" + usdc + ":1000000",
	}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	t.Setenv("POOLD_ASSET2_DECIMALS", "18")
	t.Setenv("POOLD_MAX_TRADE_BPS", "500")

	cfg, err := LoadServe("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Asset1 != common.HexToAddress(usdc) || cfg.Owner != common.HexToAddress(owner) {
		t.Fatalf("addresses not parsed: %+v", cfg)
	}
	if cfg.Asset1Decimals != 6 || cfg.Asset2Decimals != 18 {
		t.Fatalf("decimals mismatch: %d %d", cfg.Asset1Decimals, cfg.Asset2Decimals)
	}
	if cfg.TradeFeeBps != 30 || cfg.ProtocolFeeBps != 20 || cfg.MaxTradeBps != 500 {
		t.Fatalf("fee settings mismatch: %+v", cfg)
	}
	if cfg.Addr != ":8080" || cfg.SnapshotName != "default" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if len(cfg.Balances) != 1 || cfg.Balances[0].Holder != common.HexToAddress(alice) || cfg.Balances[0].Amount != "1000000" {
		t.Fatalf("balances mismatch: %+v", cfg.Balances)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadServeFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "poold.yaml")
	content := "asset1: \"" + usdc + "\"\n" +
		"asset2: \"" + weth + "\"\n" +
		"owner: \"" + owner + "\"\n" +
		"rpc: http://localhost:8545\n" +
		"balances:\n" +
		"  - holder: \"" + alice + "\"\n" +
		"    asset: \"" + weth + "\"\n" +
		"    amount: \"5000000000000000000\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadServe(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.NeedsRPC() {
		t.Fatalf("decimals unset, rpc should be needed")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(cfg.Balances) != 1 || cfg.Balances[0].Asset != common.HexToAddress(weth) {
		t.Fatalf("balances mismatch: %+v", cfg.Balances)
	}
}

func TestLoadServeRejectsBadInput(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("POOLD_OWNER", "not-an-address")
	if _, err := LoadServe("", nil); err == nil {
		t.Fatalf("expected invalid owner error")
	}

	t.Setenv("POOLD_OWNER", owner)
	t.Setenv("POOLD_BALANCES", alice+":"+usdc)
	if _, err := LoadServe("", nil); err == nil {
		t.Fatalf("expected malformed balance error")
	}

	t.Setenv("POOLD_BALANCES", "")
	cfg, err := LoadServe("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing assets error")
	}
}

func TestLoadReplay(t *testing.T) {
	chdir(t, t.TempDir())
	flags := pflag.NewFlagSet("replay", pflag.ContinueOnError)
	flags.String("window", "5m", "")
	flags.String("asset1", "", "")
	if err := flags.Parse([]string{"--window", "1h", "--asset1", usdc}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	t.Setenv("POOLD_RECOMPUTE_FROM", "17")

	cfg, err := LoadReplay("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Window != time.Hour || cfg.RecomputeFrom != 17 || cfg.BatchSize != 1000 {
		t.Fatalf("unexpected replay config: %+v", cfg)
	}
	if cfg.Asset1 != common.HexToAddress(usdc) || cfg.Asset2 != (common.Address{}) {
		t.Fatalf("asset mismatch: %+v", cfg)
	}

	t.Setenv("POOLD_WINDOW", "10ms")
	if _, err := LoadReplay("", nil); err == nil {
		t.Fatalf("expected window error")
	}
}

func TestLoadDecodeDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := LoadDecode("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.In != "./data/journal.jsonl" || cfg.Errors != "./data/decode_errors.jsonl" {
		t.Fatalf("unexpected decode config: %+v", cfg)
	}
}
