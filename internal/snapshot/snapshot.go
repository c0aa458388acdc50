// Package snapshot persists and restores a running pool together with the
// ledger that holds its assets.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"swapPool/internal/model"
	"swapPool/internal/pool"
	"swapPool/internal/storage"
	"swapPool/internal/storage/postgres"
	"swapPool/internal/token"
)

// ErrMismatch reports a snapshot whose ledger disagrees with its pool.
var ErrMismatch = errors.New("snapshot pool and ledger disagree")

// Store loads and saves one snapshot.
type Store interface {
	Load(ctx context.Context) (model.Snapshot, bool, error)
	Save(ctx context.Context, snap model.Snapshot) error
}

// Capture records the pool and ledger. Callers stop mutating operations first
// so both halves describe the same moment.
func Capture(p *pool.Pool, ledger *token.MemoryLedger, sequence uint64) model.Snapshot {
	return model.Snapshot{
		Pool:     p.Snapshot(),
		Ledger:   ledger.Snapshot(),
		Sequence: sequence,
		SavedAt:  time.Now().UTC(),
	}
}

// Restore rebuilds the ledger and the pool and checks that the ledger's pool
// account holds exactly the reserves.
func Restore(snap model.Snapshot, sink pool.EventSink, logger *zap.Logger) (*pool.Pool, *token.MemoryLedger, error) {
	ledger, err := token.Restore(snap.Ledger)
	if err != nil {
		return nil, nil, fmt.Errorf("restore ledger: %w", err)
	}
	p, err := pool.Restore(snap.Pool, ledger, sink, logger)
	if err != nil {
		return nil, nil, err
	}
	if ledger.PoolAccount() != p.Address() {
		return nil, nil, fmt.Errorf("%w: ledger pool account %s, pool %s", ErrMismatch, ledger.PoolAccount().Hex(), p.Address().Hex())
	}

	info := p.Info()
	for _, side := range []struct {
		asset   common.Address
		reserve *uint256.Int
	}{
		{info.Asset1, info.Reserve1},
		{info.Asset2, info.Reserve2},
	} {
		if err := checkReserve(ledger, side.asset, side.reserve); err != nil {
			return nil, nil, err
		}
	}
	return p, ledger, nil
}

func checkReserve(ledger *token.MemoryLedger, asset common.Address, reserve *uint256.Int) error {
	want, err := ledger.ToNative(asset, reserve)
	if err != nil {
		return err
	}
	have, err := ledger.PoolBalance(asset)
	if err != nil {
		return err
	}
	if !have.Eq(want) {
		return fmt.Errorf("%w: pool holds %s of %s, reserve needs %s", ErrMismatch, have, asset.Hex(), want)
	}
	return nil
}

// FileStore keeps the snapshot in a JSON file.
type FileStore struct {
	Path string
}

func (s *FileStore) Load(ctx context.Context) (model.Snapshot, bool, error) {
	var snap model.Snapshot
	if s == nil || s.Path == "" {
		return snap, false, nil
	}
	ok, err := storage.ReadJSON(s.Path, &snap)
	return snap, ok, err
}

func (s *FileStore) Save(ctx context.Context, snap model.Snapshot) error {
	if s == nil || s.Path == "" {
		return nil
	}
	if err := storage.WriteJSONAtomic(s.Path, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// DBStore keeps the snapshot in the pool_snapshots table under Name.
type DBStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBStore) Load(ctx context.Context) (model.Snapshot, bool, error) {
	if s == nil || s.Store == nil {
		return model.Snapshot{}, false, nil
	}
	return s.Store.LoadSnapshot(ctx, s.Name)
}

func (s *DBStore) Save(ctx context.Context, snap model.Snapshot) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveSnapshot(ctx, s.Name, snap)
}
