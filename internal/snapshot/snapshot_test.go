package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"swapPool/internal/fixedpoint"
	"swapPool/internal/model"
	"swapPool/internal/pool"
	"swapPool/internal/token"
)

var (
	asset1 = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	asset2 = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	owner  = common.HexToAddress("0x0000000000000000000000000000000000000001")
	alice  = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

func runningPool(t *testing.T) (*pool.Pool, *token.MemoryLedger) {
	t.Helper()
	ledger, err := token.NewMemoryLedger(pool.DeriveAddress(asset1, asset2, owner),
		model.AssetMeta{Address: asset1.Hex(), Decimals: 6, Symbol: "USDC"},
		model.AssetMeta{Address: asset2.Hex(), Decimals: 18, Symbol: "WETH"},
	)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	nativeWeth, err := ledger.ToNative(asset2, fixedpoint.FromUnits(1_000_000))
	if err != nil {
		t.Fatalf("to native: %v", err)
	}
	if err := ledger.Credit(asset1, alice, fixedpoint.FromUnits(1_000_000)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := ledger.Credit(asset2, alice, nativeWeth); err != nil {
		t.Fatalf("credit: %v", err)
	}

	p, err := pool.New(pool.DefaultConfig(asset1, asset2, owner), ledger, nil, nil)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	ctx := context.Background()
	if _, err := p.Deposit(ctx, alice, fixedpoint.FromUnits(10_000), fixedpoint.FromUnits(10_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := p.Swap(ctx, alice, asset1, fixedpoint.FromUnits(100), uint256.NewInt(1)); err != nil {
		t.Fatalf("swap: %v", err)
	}
	return p, ledger
}

func TestFileStoreRoundTrip(t *testing.T) {
	p, ledger := runningPool(t)
	store := &FileStore{Path: filepath.Join(t.TempDir(), "state", "snapshot.json")}
	ctx := context.Background()

	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("expected no snapshot yet, ok=%v err=%v", ok, err)
	}
	if err := store.Save(ctx, Capture(p, ledger, 42)); err != nil {
		t.Fatalf("save: %v", err)
	}

	snap, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if snap.Sequence != 42 {
		t.Fatalf("sequence mismatch: %d", snap.Sequence)
	}

	restored, restoredLedger, err := Restore(snap, nil, nil)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	before, after := p.Info(), restored.Info()
	if !before.Reserve1.Eq(after.Reserve1) || !before.Reserve2.Eq(after.Reserve2) || !before.TotalShares.Eq(after.TotalShares) {
		t.Fatalf("pool state changed across restore: %+v vs %+v", before, after)
	}
	if !p.SharesOf(alice).Eq(restored.SharesOf(alice)) {
		t.Fatalf("share balance changed across restore")
	}

	want, _ := ledger.BalanceOf(asset2, alice)
	got, _ := restoredLedger.BalanceOf(asset2, alice)
	if !want.Eq(got) {
		t.Fatalf("ledger balance changed: %s vs %s", want, got)
	}

	if _, err := restored.Swap(ctx, alice, asset2, fixedpoint.FromUnits(50), uint256.NewInt(1)); err != nil {
		t.Fatalf("restored pool cannot trade: %v", err)
	}
}

func TestRestoreRejectsLedgerDrift(t *testing.T) {
	p, ledger := runningPool(t)
	snap := Capture(p, ledger, 1)

	for i := range snap.Ledger.Balances {
		entry := &snap.Ledger.Balances[i]
		if common.HexToAddress(entry.Holder) == p.Address() && common.HexToAddress(entry.Asset) == asset1 {
			entry.Amount = "1"
		}
	}
	if _, _, err := Restore(snap, nil, nil); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
}

func TestRestoreRejectsForeignPoolAccount(t *testing.T) {
	p, ledger := runningPool(t)
	snap := Capture(p, ledger, 1)
	snap.Ledger.Pool = alice.Hex()

	if _, _, err := Restore(snap, nil, nil); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
}
