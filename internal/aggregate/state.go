package aggregate

import (
	"context"
	"fmt"
	"time"

	"swapPool/internal/storage"
)

// StateStore persists the last journal sequence folded into written windows.
type StateStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, sequence uint64) error
}

// FileStateStore stores replay progress in a local JSON file.
type FileStateStore struct {
	Path string
}

type stateRecord struct {
	LastSequence uint64 `json:"last_sequence"`
	UpdatedAt    string `json:"updated_at"`
}

func (s *FileStateStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Path == "" {
		return 0, false, nil
	}
	var rec stateRecord
	ok, err := storage.ReadJSON(s.Path, &rec)
	if err != nil || !ok {
		return 0, false, err
	}
	return rec.LastSequence, true, nil
}

func (s *FileStateStore) Save(ctx context.Context, sequence uint64) error {
	if s == nil || s.Path == "" {
		return nil
	}
	rec := stateRecord{
		LastSequence: sequence,
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := storage.WriteJSONAtomic(s.Path, rec); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
