package journal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"swapPool/internal/model"
	"swapPool/internal/pool"
)

type memoryStorage struct {
	records []model.LogRecord
	err     error
}

func (m *memoryStorage) PutLogBatch(_ context.Context, logs []model.LogRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, logs...)
	return nil
}

var (
	poolAddr = common.HexToAddress("0x9999999999999999999999999999999999999999")
	holder   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	other    = common.HexToAddress("0x2222222222222222222222222222222222222222")
	assetIn  = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
)

func newTestRecorder(t *testing.T, store *memoryStorage) *Recorder {
	t.Helper()
	rec, err := NewRecorder(poolAddr, store, 10, zap.NewNop())
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	rec.now = func() time.Time { return time.Unix(1700000000, 0) }
	return rec
}

func TestRecorderSequencesAndDecodes(t *testing.T) {
	store := &memoryStorage{}
	rec := newTestRecorder(t, store)

	events := []pool.Event{
		pool.LiquidityAdded{Holder: holder, Amount1: uint256.NewInt(1000), Amount2: uint256.NewInt(2000), SharesMinted: uint256.NewInt(1000), TotalShares: uint256.NewInt(1000)},
		pool.Swap{Holder: other, AssetIn: assetIn, ProtocolFee: uint256.NewInt(2), NetAmountIn: uint256.NewInt(998), AmountOut: uint256.NewInt(1500)},
		pool.LiquidityWithdrawal{Holder: holder, Amount1: uint256.NewInt(500), Amount2: uint256.NewInt(1000), SharesBurned: uint256.NewInt(500), TotalShares: uint256.NewInt(500)},
		pool.FeeChanged{Owner: holder, FeeBps: 30},
		pool.ProtocolFeeChanged{Owner: holder, FeeBps: 20},
		pool.MaxTradePercentageChanged{Owner: holder, MaxTradeBps: 1000},
		pool.FeeRecipientChanged{Owner: holder, Recipient: other},
		pool.SharesTransferred{From: holder, To: other, Shares: uint256.NewInt(7)},
	}
	for _, ev := range events {
		rec.Publish(ev)
	}

	if rec.Sequence() != 18 || len(store.records) != len(events) {
		t.Fatalf("unexpected sequence %d with %d records", rec.Sequence(), len(store.records))
	}
	if store.records[0].Sequence != 11 || store.records[0].Timestamp != 1700000000 {
		t.Fatalf("unexpected first record: %+v", store.records[0])
	}
	if !strings.EqualFold(store.records[0].Address, poolAddr.Hex()) {
		t.Fatalf("address mismatch: %s", store.records[0].Address)
	}

	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	for i, record := range store.records {
		if !decoder.CanDecode(record.Topic0()) {
			t.Fatalf("record %d: topic0 not recognised", i)
		}
		typed, err := decoder.Decode(record)
		if err != nil {
			t.Fatalf("record %d: decode: %v", i, err)
		}
		if typed.EventName != events[i].EventName() {
			t.Fatalf("record %d: event name %s, want %s", i, typed.EventName, events[i].EventName())
		}
		if typed.Sequence != record.Sequence {
			t.Fatalf("record %d: sequence mismatch", i)
		}
	}

	added, _ := decoder.Decode(store.records[0])
	liquidity, ok := added.Decoded.(model.LiquidityAddedData)
	if !ok {
		t.Fatalf("decoded type mismatch: %T", added.Decoded)
	}
	if liquidity.Holder != holder.Hex() || liquidity.Amount2 != "2000" || liquidity.TotalShares != "1000" {
		t.Fatalf("liquidity payload mismatch: %+v", liquidity)
	}

	swapped, _ := decoder.Decode(store.records[1])
	swap, ok := swapped.Decoded.(model.SwapEventData)
	if !ok {
		t.Fatalf("decoded type mismatch: %T", swapped.Decoded)
	}
	if swap.AssetIn != assetIn.Hex() || swap.ProtocolFee != "2" || swap.NetAmountIn != "998" || swap.AmountOut != "1500" {
		t.Fatalf("swap payload mismatch: %+v", swap)
	}

	limit, _ := decoder.Decode(store.records[5])
	if cfg, ok := limit.Decoded.(model.ConfigChangedData); !ok || cfg.Bps != 1000 {
		t.Fatalf("max trade payload mismatch: %+v", limit.Decoded)
	}

	moved, _ := decoder.Decode(store.records[6])
	if change, ok := moved.Decoded.(model.FeeRecipientChangedData); !ok || change.Recipient != other.Hex() {
		t.Fatalf("recipient payload mismatch: %+v", moved.Decoded)
	}
}

func TestRecorderCountsStorageFailures(t *testing.T) {
	store := &memoryStorage{err: errors.New("disk full")}
	rec := newTestRecorder(t, store)

	rec.Publish(pool.FeeChanged{Owner: holder, FeeBps: 30})
	if rec.Failures() != 1 {
		t.Fatalf("expected one failure, got %d", rec.Failures())
	}
}

func TestDecoderRejectsMalformedRecords(t *testing.T) {
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	swapTopic := poolABI.Events["Swap"].ID.Hex()

	cases := []struct {
		name   string
		record model.LogRecord
	}{
		{"no topics", model.LogRecord{Address: poolAddr.Hex()}},
		{"unknown topic", model.LogRecord{Address: poolAddr.Hex(), Topics: []string{"0x01"}}},
		{"missing indexed topics", model.LogRecord{Address: poolAddr.Hex(), Topics: []string{swapTopic}, Data: "0x"}},
		{"bad address", model.LogRecord{Address: "pool", Topics: []string{swapTopic}}},
	}
	for _, tc := range cases {
		if _, err := decoder.Decode(tc.record); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
	if decoder.CanDecode("") {
		t.Fatalf("empty topic0 should not decode")
	}
}
