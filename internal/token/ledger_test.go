package token

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"swapPool/internal/model"
)

var (
	poolAccount = common.HexToAddress("0x9999999999999999999999999999999999999999")
	usdc        = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	weth        = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	alice       = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

func newTestLedger(t *testing.T) *MemoryLedger {
	t.Helper()
	l, err := NewMemoryLedger(poolAccount,
		model.AssetMeta{Address: usdc.Hex(), Decimals: 6, Symbol: "USDC"},
		model.AssetMeta{Address: weth.Hex(), Decimals: 18, Symbol: "WETH"},
	)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return l
}

func TestNewMemoryLedgerRejectsLowDecimals(t *testing.T) {
	_, err := NewMemoryLedger(poolAccount, model.AssetMeta{Address: usdc.Hex(), Decimals: 2})
	if !errors.Is(err, ErrUnsupportedDecimals) {
		t.Fatalf("expected ErrUnsupportedDecimals, got %v", err)
	}
	_, err = NewMemoryLedger(poolAccount, model.AssetMeta{Address: usdc.Hex(), Decimals: 6}, model.AssetMeta{Address: usdc.Hex(), Decimals: 6})
	if !errors.Is(err, ErrDuplicateAsset) {
		t.Fatalf("expected ErrDuplicateAsset, got %v", err)
	}
}

func TestPullScalesToNativeUnits(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	oneEth := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18))
	if err := l.Credit(weth, alice, oneEth); err != nil {
		t.Fatalf("credit: %v", err)
	}

	// 0.25 WETH in internal precision
	if err := l.Pull(ctx, weth, alice, uint256.NewInt(250_000)); err != nil {
		t.Fatalf("pull: %v", err)
	}

	poolBal, err := l.PoolBalance(weth)
	if err != nil {
		t.Fatalf("pool balance: %v", err)
	}
	want := new(uint256.Int).Div(oneEth, uint256.NewInt(4))
	if !poolBal.Eq(want) {
		t.Fatalf("pool balance mismatch: got %s want %s", poolBal, want)
	}
	aliceBal, _ := l.BalanceOf(weth, alice)
	if !aliceBal.Eq(new(uint256.Int).Sub(oneEth, want)) {
		t.Fatalf("alice balance mismatch: %s", aliceBal)
	}
}

func TestPullAndPushShortBalances(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	if err := l.Pull(ctx, usdc, alice, uint256.NewInt(1)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := l.Push(ctx, usdc, alice, uint256.NewInt(1)); !errors.Is(err, ErrInsufficientPoolBalance) {
		t.Fatalf("expected ErrInsufficientPoolBalance, got %v", err)
	}
	unknown := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	if err := l.Pull(ctx, unknown, alice, uint256.NewInt(1)); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
}

func TestPoolAccountCannotTransferToItself(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	if err := l.Credit(usdc, poolAccount, uint256.NewInt(500)); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if err := l.Pull(ctx, usdc, poolAccount, uint256.NewInt(100)); !errors.Is(err, ErrPoolAccount) {
		t.Fatalf("expected ErrPoolAccount on pull, got %v", err)
	}
	if err := l.Push(ctx, usdc, poolAccount, uint256.NewInt(100)); !errors.Is(err, ErrPoolAccount) {
		t.Fatalf("expected ErrPoolAccount on push, got %v", err)
	}
	bal, _ := l.PoolBalance(usdc)
	if bal.Uint64() != 500 {
		t.Fatalf("pool balance changed: %s", bal)
	}
}

func TestPullHonoursCancelledContext(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Credit(usdc, alice, uint256.NewInt(10)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Pull(ctx, usdc, alice, uint256.NewInt(1)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	bal, _ := l.BalanceOf(usdc, alice)
	if bal.Uint64() != 10 {
		t.Fatalf("balance changed: %s", bal)
	}
}

func TestSnapshotRestore(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	if err := l.Credit(usdc, alice, uint256.NewInt(5_000_000)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := l.Pull(ctx, usdc, alice, uint256.NewInt(2_000_000)); err != nil {
		t.Fatalf("pull: %v", err)
	}

	restored, err := Restore(l.Snapshot())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	aliceBal, _ := restored.BalanceOf(usdc, alice)
	poolBal, _ := restored.PoolBalance(usdc)
	if aliceBal.Uint64() != 3_000_000 || poolBal.Uint64() != 2_000_000 {
		t.Fatalf("restored balances mismatch: alice=%s pool=%s", aliceBal, poolBal)
	}
	if restored.PoolAccount() != poolAccount {
		t.Fatalf("pool account mismatch: %s", restored.PoolAccount().Hex())
	}
}
