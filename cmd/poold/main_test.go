package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"swapPool/internal/fixedpoint"
	"swapPool/internal/journal"
	"swapPool/internal/model"
	"swapPool/internal/pool"
	"swapPool/internal/storage"
	"swapPool/internal/token"
)

var (
	usdc  = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	weth  = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	owner = common.HexToAddress("0x0000000000000000000000000000000000000001")
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("poold %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

// recordJournal runs a deposit and a swap through a recording pool.
func recordJournal(t *testing.T, path string) {
	t.Helper()
	address := pool.DeriveAddress(usdc, weth, owner)
	ledger, err := token.NewMemoryLedger(address,
		model.AssetMeta{Address: usdc.Hex(), Decimals: 6},
		model.AssetMeta{Address: weth.Hex(), Decimals: 6},
	)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	for _, asset := range []common.Address{usdc, weth} {
		if err := ledger.Credit(asset, alice, fixedpoint.FromUnits(100_000)); err != nil {
			t.Fatalf("credit: %v", err)
		}
	}
	recorder, err := journal.NewRecorder(address, storage.NewJsonlStorage(path), 0, nil)
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	p, err := pool.New(pool.DefaultConfig(usdc, weth, owner), ledger, recorder, nil)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}

	ctx := context.Background()
	if _, err := p.Deposit(ctx, alice, fixedpoint.FromUnits(1_000), fixedpoint.FromUnits(1_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := p.Swap(ctx, alice, usdc, fixedpoint.FromUnits(10), uint256.NewInt(1)); err != nil {
		t.Fatalf("swap: %v", err)
	}
	if recorder.Sequence() != 2 || recorder.Failures() != 0 {
		t.Fatalf("recorder state: sequence=%d failures=%d", recorder.Sequence(), recorder.Failures())
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(raw)), "\n")
}

func TestQuoteCommand(t *testing.T) {
	out := execute(t, "quote",
		"--amount-in", "10000000",
		"--total-in", "1000000000",
		"--total-out", "1000000000",
	)

	var got quoteOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("parse output: %v\n%s", err, out)
	}
	if got.ProtocolFee != "20000" || got.EffectiveIn != "9980000" || got.AmountOut != "9851972" {
		t.Fatalf("unexpected quote: %+v", got)
	}
	if got.MaxAmountOut != "100000000" || !got.WithinLimit {
		t.Fatalf("unexpected limit: %+v", got)
	}
}

func TestQuoteCommandRejectsEmptyReserve(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"quote", "--amount-in", "10", "--total-in", "0", "--total-out", "10"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for empty reserve")
	}
}

func TestDecodeCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "journal.jsonl")
	recordJournal(t, in)

	f, err := os.OpenFile(in, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	f.WriteString("{not json}\n")
	f.Close()

	out := filepath.Join(dir, "typed.jsonl")
	errs := filepath.Join(dir, "errors.jsonl")
	execute(t, "decode", "--in", in, "--out", out, "--errors", errs, "--log-level", "error")

	typed := readLines(t, out)
	if len(typed) != 2 {
		t.Fatalf("expected 2 typed events, got %d", len(typed))
	}
	var event struct {
		EventName string `json:"event_name"`
		Sequence  uint64 `json:"sequence"`
	}
	if err := json.Unmarshal([]byte(typed[1]), &event); err != nil {
		t.Fatalf("parse typed event: %v", err)
	}
	if event.EventName != pool.EventSwap || event.Sequence != 2 {
		t.Fatalf("unexpected typed event: %+v", event)
	}
	if lines := readLines(t, errs); len(lines) != 1 {
		t.Fatalf("expected 1 decode error, got %d", len(lines))
	}
}

func TestReplayCommandWritesWindowsAndState(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "journal.jsonl")
	recordJournal(t, in)

	out := filepath.Join(dir, "windows.jsonl")
	state := filepath.Join(dir, "state.json")
	execute(t, "replay",
		"--in", in,
		"--out", out,
		"--state-file", state,
		"--window", "1h",
		"--asset1", usdc.Hex(),
		"--asset2", weth.Hex(),
		"--log-level", "error",
	)

	windows := readLines(t, out)
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	var window model.PoolWindowMetrics
	if err := json.Unmarshal([]byte(windows[0]), &window); err != nil {
		t.Fatalf("parse window: %v", err)
	}
	if window.SwapCount != 1 || window.DepositCount != 1 || window.LastSequence != 2 {
		t.Fatalf("unexpected window: %+v", window)
	}
	if _, err := os.Stat(state); err != nil {
		t.Fatalf("state file: %v", err)
	}
}
