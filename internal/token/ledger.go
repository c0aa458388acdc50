// Package token is an in-memory asset ledger. It holds native-unit balances
// per holder and converts the pool's internal precision on every transfer.
package token

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"swapPool/internal/fixedpoint"
	"swapPool/internal/model"
)

type asset struct {
	meta     model.AssetMeta
	scale    *uint256.Int
	balances map[common.Address]*uint256.Int
}

// MemoryLedger implements pool.Ledger. The pool account is fixed at
// construction and never pulls from or pushes to itself.
type MemoryLedger struct {
	mu     sync.Mutex
	pool   common.Address
	assets map[common.Address]*asset
}

// NewMemoryLedger registers assets with pool as the account holding reserves.
func NewMemoryLedger(pool common.Address, assets ...model.AssetMeta) (*MemoryLedger, error) {
	l := &MemoryLedger{
		pool:   pool,
		assets: make(map[common.Address]*asset, len(assets)),
	}
	for _, meta := range assets {
		if err := l.register(meta); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *MemoryLedger) register(meta model.AssetMeta) error {
	if !common.IsHexAddress(meta.Address) {
		return fmt.Errorf("%w: %q", ErrUnknownAsset, meta.Address)
	}
	addr := common.HexToAddress(meta.Address)
	if _, ok := l.assets[addr]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAsset, addr.Hex())
	}
	if meta.Decimals < fixedpoint.Decimals {
		return fmt.Errorf("%w: %s has %d", ErrUnsupportedDecimals, addr.Hex(), meta.Decimals)
	}
	scale, err := fixedpoint.Pow10(meta.Decimals - fixedpoint.Decimals)
	if err != nil {
		return fmt.Errorf("%w: %s has %d", ErrUnsupportedDecimals, addr.Hex(), meta.Decimals)
	}
	meta.Address = addr.Hex()
	l.assets[addr] = &asset{
		meta:     meta,
		scale:    scale,
		balances: make(map[common.Address]*uint256.Int),
	}
	return nil
}

// PoolAccount returns the holder that owns pooled assets.
func (l *MemoryLedger) PoolAccount() common.Address {
	return l.pool
}

// Credit mints a native-unit balance to holder. It seeds accounts and is not
// part of the pool contract.
func (l *MemoryLedger) Credit(assetAddr, holder common.Address, native *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, err := l.lookup(assetAddr)
	if err != nil {
		return err
	}
	next, err := fixedpoint.Add(a.balanceOf(holder), native)
	if err != nil {
		return err
	}
	a.set(holder, next)
	return nil
}

// BalanceOf returns the native-unit balance of holder.
func (l *MemoryLedger) BalanceOf(assetAddr, holder common.Address) (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, err := l.lookup(assetAddr)
	if err != nil {
		return nil, err
	}
	return a.balanceOf(holder), nil
}

// PoolBalance returns the native-unit balance held by the pool account.
func (l *MemoryLedger) PoolBalance(assetAddr common.Address) (*uint256.Int, error) {
	return l.BalanceOf(assetAddr, l.pool)
}

// ToNative scales an internal-precision amount to native units.
func (l *MemoryLedger) ToNative(assetAddr common.Address, amount *uint256.Int) (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, err := l.lookup(assetAddr)
	if err != nil {
		return nil, err
	}
	return fixedpoint.Mul(amount, a.scale)
}

// Pull moves amount (internal precision) of an asset from a holder to the pool.
func (l *MemoryLedger) Pull(ctx context.Context, assetAddr, from common.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if from == l.pool {
		return ErrPoolAccount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.move(assetAddr, from, l.pool, amount, ErrInsufficientBalance)
}

// Push moves amount (internal precision) of an asset from the pool to a holder.
func (l *MemoryLedger) Push(ctx context.Context, assetAddr, to common.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to == l.pool {
		return ErrPoolAccount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.move(assetAddr, l.pool, to, amount, ErrInsufficientPoolBalance)
}

func (l *MemoryLedger) move(assetAddr, from, to common.Address, amount *uint256.Int, short error) error {
	a, err := l.lookup(assetAddr)
	if err != nil {
		return err
	}
	native, err := fixedpoint.Mul(amount, a.scale)
	if err != nil {
		return err
	}
	balance := a.balanceOf(from)
	if balance.Lt(native) {
		return fmt.Errorf("%w: %s has %s, needs %s", short, from.Hex(), fixedpoint.Format(balance), fixedpoint.Format(native))
	}
	credited, err := fixedpoint.Add(a.balanceOf(to), native)
	if err != nil {
		return err
	}
	a.set(from, balance.Sub(balance, native))
	a.set(to, credited)
	return nil
}

func (l *MemoryLedger) lookup(assetAddr common.Address) (*asset, error) {
	a, ok := l.assets[assetAddr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, assetAddr.Hex())
	}
	return a, nil
}

// Snapshot returns every asset and non-zero balance, sorted for stable output.
func (l *MemoryLedger) Snapshot() model.LedgerSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := model.LedgerSnapshot{Pool: l.pool.Hex()}
	for _, a := range l.assets {
		snap.Assets = append(snap.Assets, a.meta)
		for holder, balance := range a.balances {
			snap.Balances = append(snap.Balances, model.LedgerBalance{
				Asset:  a.meta.Address,
				Holder: holder.Hex(),
				Amount: fixedpoint.Format(balance),
			})
		}
	}
	sort.Slice(snap.Assets, func(i, j int) bool {
		return strings.ToLower(snap.Assets[i].Address) < strings.ToLower(snap.Assets[j].Address)
	})
	sort.Slice(snap.Balances, func(i, j int) bool {
		if snap.Balances[i].Asset != snap.Balances[j].Asset {
			return snap.Balances[i].Asset < snap.Balances[j].Asset
		}
		return snap.Balances[i].Holder < snap.Balances[j].Holder
	})
	return snap
}

// Restore rebuilds a ledger from a snapshot.
func Restore(snap model.LedgerSnapshot) (*MemoryLedger, error) {
	if !common.IsHexAddress(snap.Pool) {
		return nil, fmt.Errorf("invalid pool account %q", snap.Pool)
	}
	l, err := NewMemoryLedger(common.HexToAddress(snap.Pool), snap.Assets...)
	if err != nil {
		return nil, err
	}
	for _, entry := range snap.Balances {
		if !common.IsHexAddress(entry.Asset) || !common.IsHexAddress(entry.Holder) {
			return nil, fmt.Errorf("invalid balance entry %s/%s", entry.Asset, entry.Holder)
		}
		amount, err := fixedpoint.Parse(entry.Amount)
		if err != nil {
			return nil, fmt.Errorf("balance of %s: %w", entry.Holder, err)
		}
		if err := l.Credit(common.HexToAddress(entry.Asset), common.HexToAddress(entry.Holder), amount); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (a *asset) balanceOf(holder common.Address) *uint256.Int {
	if bal, ok := a.balances[holder]; ok {
		return bal.Clone()
	}
	return new(uint256.Int)
}

func (a *asset) set(holder common.Address, balance *uint256.Int) {
	if balance.IsZero() {
		delete(a.balances, holder)
		return
	}
	a.balances[holder] = balance
}
