package journal

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"swapPool/internal/model"
	"swapPool/internal/pool"
	"swapPool/internal/storage"
)

// Recorder is a pool.EventSink that appends every event to storage as a
// sequenced log record.
type Recorder struct {
	mu       sync.Mutex
	encoder  *Encoder
	store    storage.Storage
	address  string
	sequence uint64
	failures uint64
	now      func() time.Time
	logger   *zap.Logger
}

// NewRecorder starts numbering after lastSequence.
func NewRecorder(address common.Address, store storage.Storage, lastSequence uint64, logger *zap.Logger) (*Recorder, error) {
	encoder, err := NewEncoder()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		encoder:  encoder,
		store:    store,
		address:  address.Hex(),
		sequence: lastSequence,
		now:      time.Now,
		logger:   logger,
	}, nil
}

// Publish encodes and stores one event. Storage failures are logged and
// counted; the pool operation that produced the event has already committed.
func (r *Recorder) Publish(ev pool.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, err := r.encode(ev)
	if err != nil {
		r.failures++
		r.logger.Error("encode event", zap.String("event", ev.EventName()), zap.Error(err))
		return
	}
	if err := r.store.PutLogBatch(context.Background(), []model.LogRecord{record}); err != nil {
		r.failures++
		r.logger.Error("store event",
			zap.String("event", ev.EventName()),
			zap.Uint64("sequence", record.Sequence),
			zap.Error(err),
		)
		return
	}
	r.logger.Debug("event recorded", zap.String("event", ev.EventName()), zap.Uint64("sequence", record.Sequence))
}

func (r *Recorder) encode(ev pool.Event) (model.LogRecord, error) {
	topics, data, err := r.encoder.Encode(ev)
	if err != nil {
		return model.LogRecord{}, err
	}
	r.sequence++
	now := r.now().UTC()
	record := model.LogRecord{
		Sequence:   r.sequence,
		Address:    r.address,
		Topics:     make([]string, 0, len(topics)),
		Data:       hexutil.Encode(data),
		Timestamp:  uint64(now.Unix()),
		RecordedAt: now.Format(time.RFC3339Nano),
	}
	for _, topic := range topics {
		record.Topics = append(record.Topics, topic.Hex())
	}
	return record, nil
}

// Sequence returns the number of the last recorded event.
func (r *Recorder) Sequence() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sequence
}

// Failures returns how many events could not be recorded.
func (r *Recorder) Failures() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures
}
