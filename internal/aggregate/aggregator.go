package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapPool/internal/journal"
	"swapPool/internal/model"
	"swapPool/internal/pool"
	"swapPool/internal/storage"
)

// WindowWriter persists finished window metrics.
type WindowWriter interface {
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	// RecomputeFrom forces windows to be rebuilt from this sequence on.
	RecomputeFrom uint64
	StateStore    StateStore
	Asset1        common.Address
	Asset2        common.Address
}

// Result summarises one run.
type Result struct {
	Total   int
	Decoded int
	Skipped int
	Failed  int
	Windows int
	Pools   []*PoolState
}

// Aggregator replays a journal into rebuilt pool state and window metrics.
type Aggregator struct {
	cfg          Config
	writer       WindowWriter
	decoder      *journal.Decoder
	logger       *zap.Logger
	accumulators map[string]*Accumulator
	states       map[string]*PoolState
	lastSequence uint64
}

func NewAggregator(cfg Config, writer WindowWriter, logger *zap.Logger) (*Aggregator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	decoder, err := journal.NewDecoder()
	if err != nil {
		return nil, err
	}

	return &Aggregator{
		cfg:          cfg,
		writer:       writer,
		decoder:      decoder,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
		states:       make(map[string]*PoolState),
	}, nil
}

// Run executes aggregation over a journal JSONL file. Every event feeds the
// rebuilt pool state; only events after the stored progress feed windows.
func (a *Aggregator) Run(ctx context.Context, inputPath string) (*Result, error) {
	if a.writer == nil {
		return nil, fmt.Errorf("window writer is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return nil, fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.Asset1 == (common.Address{}) || a.cfg.Asset2 == (common.Address{}) {
		return nil, fmt.Errorf("asset1 and asset2 are required")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}
	if _, err := os.Stat(inputPath); err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	startSeq, err := a.loadStartSequence(ctx)
	if err != nil {
		return nil, err
	}
	a.lastSequence = startSeq

	result := &Result{}
	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)

	err = storage.ScanJsonl(inputPath, func(line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		result.Total++

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			result.Failed++
			a.logger.Warn("decode log record", zap.Error(err))
			return nil
		}
		if !a.decoder.CanDecode(record.Topic0()) {
			result.Skipped++
			return nil
		}
		event, err := a.decoder.Decode(record)
		if err != nil {
			result.Failed++
			a.logger.Warn("decode event", zap.Uint64("sequence", record.Sequence), zap.Error(err))
			return nil
		}
		result.Decoded++

		key := poolKey(event.Address)
		state := a.states[key]
		if state == nil {
			state = newPoolState(event.Address)
			a.states[key] = state
		}
		slot := a.swapSlot(event)

		if event.Sequence <= startSeq {
			result.Skipped++
			return state.Apply(event, slot)
		}

		windowStart := windowStart(event.Timestamp, a.cfg.WindowSeconds)
		windowEnd := windowStart + a.cfg.WindowSeconds

		acc := a.accumulators[key]
		if acc != nil && acc.WindowStart != windowStart {
			batch = append(batch, a.flushAccumulator(acc))
			result.Windows++
			acc = nil
		}
		if acc == nil {
			acc = NewAccumulator(event, windowStart, windowEnd)
			a.accumulators[key] = acc
		}

		if err := state.Apply(event, slot); err != nil {
			return err
		}
		if err := acc.AddEvent(event, slot); err != nil {
			result.Failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.String("pool", event.Address), zap.String("event", event.EventName))
			return nil
		}
		if event.Sequence > a.lastSequence {
			a.lastSequence = event.Sequence
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.writer.UpsertWindowMetrics(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
			if err := a.saveState(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Trailing windows may still grow, so progress stops before them.
	resumeFrom := a.safeSequence()
	for _, acc := range a.accumulators {
		batch = append(batch, a.flushAccumulator(acc))
		result.Windows++
	}
	a.accumulators = make(map[string]*Accumulator)

	if len(batch) > 0 {
		if err := a.writer.UpsertWindowMetrics(ctx, batch); err != nil {
			return nil, err
		}
	}
	if a.cfg.StateStore != nil {
		if err := a.cfg.StateStore.Save(ctx, resumeFrom); err != nil {
			return nil, err
		}
	}

	result.Pools = a.poolStates()
	a.logger.Info("replay complete",
		zap.Int("total", result.Total),
		zap.Int("decoded", result.Decoded),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Int("windows", result.Windows),
		zap.Uint64("resume_from", resumeFrom),
	)
	return result, nil
}

func (a *Aggregator) loadStartSequence(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

func (a *Aggregator) saveState(ctx context.Context) error {
	if a.cfg.StateStore == nil {
		return nil
	}
	return a.cfg.StateStore.Save(ctx, a.safeSequence())
}

// safeSequence is the last sequence whose window has been written.
func (a *Aggregator) safeSequence() uint64 {
	if first := minOpenSequence(a.accumulators); first > 0 {
		return first - 1
	}
	return a.lastSequence
}

func (a *Aggregator) flushAccumulator(acc *Accumulator) model.PoolWindowMetrics {
	metrics := model.PoolWindowMetrics{
		PoolAddress:     acc.PoolAddress,
		WindowSizeSecs:  int64(a.cfg.WindowSeconds),
		WindowStart:     time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:       time.Unix(int64(acc.WindowEnd), 0).UTC(),
		SwapCount:       acc.SwapCount,
		DepositCount:    acc.DepositCount,
		WithdrawalCount: acc.WithdrawalCount,
		Volume1:         acc.Volume1.String(),
		Volume2:         acc.Volume2.String(),
		ProtocolFee1:    acc.ProtocolFee1.String(),
		ProtocolFee2:    acc.ProtocolFee2.String(),
		Reserve1:        "0",
		Reserve2:        "0",
		TotalShares:     "0",
		LastSequence:    acc.LastSequence,
	}
	if state := a.states[poolKey(acc.PoolAddress)]; state != nil {
		metrics.Reserve1 = state.Reserve1.String()
		metrics.Reserve2 = state.Reserve2.String()
		metrics.TotalShares = state.TotalShares.String()
	}
	a.logger.Debug("window closed",
		zap.String("pool", acc.PoolAddress),
		zap.Time("window_start", metrics.WindowStart),
		zap.Uint64("swaps", acc.SwapCount),
		zap.String("volume1", FormatAmount(acc.Volume1)),
		zap.String("volume2", FormatAmount(acc.Volume2)),
	)
	return metrics
}

func (a *Aggregator) swapSlot(event *model.TypedEvent) pool.Slot {
	swap, ok := event.Decoded.(model.SwapEventData)
	if !ok || !common.IsHexAddress(swap.AssetIn) {
		return 0
	}
	switch common.HexToAddress(swap.AssetIn) {
	case a.cfg.Asset1:
		return pool.Slot1
	case a.cfg.Asset2:
		return pool.Slot2
	default:
		return 0
	}
}

func (a *Aggregator) poolStates() []*PoolState {
	out := make([]*PoolState, 0, len(a.states))
	for _, state := range a.states {
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool { return poolKey(out[i].Address) < poolKey(out[j].Address) })
	return out
}
