package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapPool/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS pool_events (
	pool_address TEXT NOT NULL,
	sequence BIGINT NOT NULL,
	topic0 TEXT NOT NULL,
	topics TEXT[] NOT NULL,
	data TEXT NOT NULL,
	event_ts TIMESTAMPTZ NOT NULL,
	recorded_at TEXT NOT NULL,
	PRIMARY KEY (pool_address, sequence)
);
CREATE TABLE IF NOT EXISTS pool_window_metrics (
	pool_address TEXT NOT NULL,
	window_size_seconds BIGINT NOT NULL,
	window_start_ts TIMESTAMPTZ NOT NULL,
	window_end_ts TIMESTAMPTZ NOT NULL,
	swap_count BIGINT NOT NULL,
	deposit_count BIGINT NOT NULL,
	withdrawal_count BIGINT NOT NULL,
	volume1 NUMERIC NOT NULL,
	volume2 NUMERIC NOT NULL,
	protocol_fee1 NUMERIC NOT NULL,
	protocol_fee2 NUMERIC NOT NULL,
	reserve1 NUMERIC NOT NULL,
	reserve2 NUMERIC NOT NULL,
	total_shares NUMERIC NOT NULL,
	last_sequence BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (pool_address, window_size_seconds, window_start_ts)
);
CREATE TABLE IF NOT EXISTS pool_snapshots (
	name TEXT PRIMARY KEY,
	state JSONB NOT NULL,
	sequence BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS replay_state (
	name TEXT PRIMARY KEY,
	last_sequence BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// Store provides Postgres persistence for journal events, window metrics,
// snapshots and replay progress.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// PutLogBatch inserts journal records. Records already stored are skipped.
func (s *Store) PutLogBatch(ctx context.Context, logs []model.LogRecord) error {
	if len(logs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range logs {
		batch.Queue(`
			INSERT INTO pool_events (
				pool_address, sequence, topic0, topics, data, event_ts, recorded_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (pool_address, sequence) DO NOTHING
		`,
			record.Address,
			int64(record.Sequence),
			record.Topic0(),
			record.Topics,
			record.Data,
			time.Unix(int64(record.Timestamp), 0).UTC(),
			record.RecordedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range logs {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				pool_address, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, deposit_count, withdrawal_count, volume1, volume2,
				protocol_fee1, protocol_fee2, reserve1, reserve2, total_shares,
				last_sequence, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now(),now())
			ON CONFLICT (pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				deposit_count = EXCLUDED.deposit_count,
				withdrawal_count = EXCLUDED.withdrawal_count,
				volume1 = EXCLUDED.volume1,
				volume2 = EXCLUDED.volume2,
				protocol_fee1 = EXCLUDED.protocol_fee1,
				protocol_fee2 = EXCLUDED.protocol_fee2,
				reserve1 = EXCLUDED.reserve1,
				reserve2 = EXCLUDED.reserve2,
				total_shares = EXCLUDED.total_shares,
				last_sequence = EXCLUDED.last_sequence,
				updated_at = now()
		`,
			m.PoolAddress,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.DepositCount),
			int64(m.WithdrawalCount),
			m.Volume1,
			m.Volume2,
			m.ProtocolFee1,
			m.ProtocolFee2,
			m.Reserve1,
			m.Reserve2,
			m.TotalShares,
			int64(m.LastSequence),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot returns the snapshot stored under name.
func (s *Store) LoadSnapshot(ctx context.Context, name string) (model.Snapshot, bool, error) {
	if name == "" {
		return model.Snapshot{}, false, fmt.Errorf("snapshot name required")
	}
	var raw []byte
	row := s.pool.QueryRow(ctx, `SELECT state FROM pool_snapshots WHERE name=$1`, name)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, true, nil
}

// SaveSnapshot upserts the snapshot stored under name.
func (s *Store) SaveSnapshot(ctx context.Context, name string, snap model.Snapshot) error {
	if name == "" {
		return fmt.Errorf("snapshot name required")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO pool_snapshots (name, state, sequence, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET state = EXCLUDED.state, sequence = EXCLUDED.sequence, updated_at = now()
	`, name, raw, int64(snap.Sequence))
	return err
}

// LoadState returns the last replayed sequence for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var seq int64
	row := s.pool.QueryRow(ctx, `SELECT last_sequence FROM replay_state WHERE name=$1`, name)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(seq), true, nil
}

// SaveState upserts the last replayed sequence for a name.
func (s *Store) SaveState(ctx context.Context, name string, seq uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO replay_state (name, last_sequence, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_sequence = EXCLUDED.last_sequence, updated_at = now()
	`, name, int64(seq))
	return err
}
