package aggregate

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"swapPool/internal/journal"
	"swapPool/internal/model"
	"swapPool/internal/pool"
	"swapPool/internal/storage"
)

var (
	asset1   = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	asset2   = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	holder   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	poolAddr = common.HexToAddress("0x9999999999999999999999999999999999999999")
)

type memoryWriter struct {
	metrics []model.PoolWindowMetrics
}

func (w *memoryWriter) UpsertWindowMetrics(_ context.Context, metrics []model.PoolWindowMetrics) error {
	w.metrics = append(w.metrics, metrics...)
	return nil
}

type timedEvent struct {
	ts    uint64
	event pool.Event
}

func writeJournal(t *testing.T, events []timedEvent) string {
	t.Helper()
	encoder, err := journal.NewEncoder()
	if err != nil {
		t.Fatalf("encoder: %v", err)
	}
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	store := storage.NewJsonlStorage(path)

	records := make([]model.LogRecord, 0, len(events))
	for i, entry := range events {
		topics, data, err := encoder.Encode(entry.event)
		if err != nil {
			t.Fatalf("encode %s: %v", entry.event.EventName(), err)
		}
		record := model.LogRecord{
			Sequence:  uint64(i + 1),
			Address:   poolAddr.Hex(),
			Data:      hexutil.Encode(data),
			Timestamp: entry.ts,
		}
		for _, topic := range topics {
			record.Topics = append(record.Topics, topic.Hex())
		}
		records = append(records, record)
	}
	if err := store.PutLogBatch(context.Background(), records); err != nil {
		t.Fatalf("write journal: %v", err)
	}
	return path
}

func n(v uint64) *uint256.Int { return uint256.NewInt(v) }

func sampleJournal() []timedEvent {
	return []timedEvent{
		{100, pool.LiquidityAdded{Holder: holder, Amount1: n(1000), Amount2: n(1000), SharesMinted: n(1000), TotalShares: n(1000)}},
		{110, pool.Swap{Holder: holder, AssetIn: asset1, ProtocolFee: n(2), NetAmountIn: n(98), AmountOut: n(90)}},
		{3700, pool.Swap{Holder: holder, AssetIn: asset2, ProtocolFee: n(1), NetAmountIn: n(49), AmountOut: n(50)}},
		{3710, pool.LiquidityWithdrawal{Holder: holder, Amount1: n(104), Amount2: n(95), SharesBurned: n(100), TotalShares: n(900)}},
		{3720, pool.FeeChanged{Owner: holder, FeeBps: 40}},
	}
}

func newTestAggregator(t *testing.T, writer WindowWriter, state StateStore) *Aggregator {
	t.Helper()
	agg, err := NewAggregator(Config{
		WindowSeconds: 3600,
		StateStore:    state,
		Asset1:        asset1,
		Asset2:        asset2,
	}, writer, nil)
	if err != nil {
		t.Fatalf("aggregator: %v", err)
	}
	return agg
}

func TestAggregatorBuildsWindowsAndRebuildsReserves(t *testing.T) {
	path := writeJournal(t, sampleJournal())
	writer := &memoryWriter{}
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}

	result, err := newTestAggregator(t, writer, state).Run(context.Background(), path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Decoded != 5 || result.Failed != 0 || result.Windows != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(writer.metrics) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(writer.metrics))
	}

	first := writer.metrics[0]
	if first.WindowStart.Unix() != 0 || first.WindowEnd.Unix() != 3600 {
		t.Fatalf("unexpected first window: %v - %v", first.WindowStart, first.WindowEnd)
	}
	if first.SwapCount != 1 || first.DepositCount != 1 || first.Volume1 != "100" || first.ProtocolFee1 != "2" || first.Volume2 != "0" {
		t.Fatalf("unexpected first window metrics: %+v", first)
	}
	if first.Reserve1 != "1098" || first.Reserve2 != "910" || first.TotalShares != "1000" || first.LastSequence != 2 {
		t.Fatalf("unexpected first window reserves: %+v", first)
	}

	second := writer.metrics[1]
	if second.SwapCount != 1 || second.WithdrawalCount != 1 || second.Volume2 != "50" || second.ProtocolFee2 != "1" {
		t.Fatalf("unexpected second window metrics: %+v", second)
	}
	if second.Reserve1 != "944" || second.Reserve2 != "864" || second.TotalShares != "900" || second.LastSequence != 5 {
		t.Fatalf("unexpected second window reserves: %+v", second)
	}

	if len(result.Pools) != 1 || result.Pools[0].Events != 5 {
		t.Fatalf("unexpected pool states: %+v", result.Pools)
	}

	resume, ok, err := state.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("load state: ok=%v err=%v", ok, err)
	}
	if resume != 2 {
		t.Fatalf("expected resume after sequence 2, got %d", resume)
	}
}

func TestAggregatorResumesOpenWindow(t *testing.T) {
	path := writeJournal(t, sampleJournal())
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}
	if _, err := newTestAggregator(t, &memoryWriter{}, state).Run(context.Background(), path); err != nil {
		t.Fatalf("first run: %v", err)
	}

	writer := &memoryWriter{}
	result, err := newTestAggregator(t, writer, state).Run(context.Background(), path)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Skipped != 2 || len(writer.metrics) != 1 {
		t.Fatalf("expected only the trailing window, skipped=%d windows=%d", result.Skipped, len(writer.metrics))
	}
	if writer.metrics[0].Reserve1 != "944" || writer.metrics[0].SwapCount != 1 {
		t.Fatalf("trailing window not rebuilt: %+v", writer.metrics[0])
	}
	if result.Pools[0].TotalShares.String() != "900" {
		t.Fatalf("reserves not rebuilt from the start: %s", result.Pools[0].TotalShares)
	}
}

func TestAggregatorDetectsInconsistentJournal(t *testing.T) {
	events := sampleJournal()
	events[3] = timedEvent{3710, pool.LiquidityWithdrawal{Holder: holder, Amount1: n(104), Amount2: n(95), SharesBurned: n(100), TotalShares: n(901)}}
	path := writeJournal(t, events)

	_, err := newTestAggregator(t, &memoryWriter{}, nil).Run(context.Background(), path)
	if !errors.Is(err, ErrAuditMismatch) {
		t.Fatalf("expected ErrAuditMismatch, got %v", err)
	}
}

func TestPoolStateCompare(t *testing.T) {
	path := writeJournal(t, sampleJournal())
	result, err := newTestAggregator(t, &memoryWriter{}, nil).Run(context.Background(), path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	state := result.Pools[0]

	snap := model.PoolSnapshot{Reserve1: "944", Reserve2: "864", TotalShares: "900"}
	if err := state.Compare(snap); err != nil {
		t.Fatalf("compare: %v", err)
	}
	snap.Reserve2 = "865"
	if err := state.Compare(snap); !errors.Is(err, ErrAuditMismatch) {
		t.Fatalf("expected ErrAuditMismatch, got %v", err)
	}
}

func TestAggregatorRejectsBadConfig(t *testing.T) {
	path := writeJournal(t, sampleJournal())
	agg, err := NewAggregator(Config{WindowSeconds: 0, Asset1: asset1, Asset2: asset2}, &memoryWriter{}, nil)
	if err != nil {
		t.Fatalf("aggregator: %v", err)
	}
	if _, err := agg.Run(context.Background(), path); err == nil {
		t.Fatalf("expected error for zero window")
	}
	agg, _ = NewAggregator(Config{WindowSeconds: 60}, &memoryWriter{}, nil)
	if _, err := agg.Run(context.Background(), path); err == nil {
		t.Fatalf("expected error without assets")
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(n(1_500_000).ToBig()); got != "1.500000" {
		t.Fatalf("unexpected format: %s", got)
	}
}
