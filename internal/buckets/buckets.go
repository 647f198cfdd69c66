// Package buckets which handles bucketing served predictions before writing
// them to the database
package buckets

import (
	"context"
	"sync"
	"time"

	"predict-api/internal/metrics"
	"predict-api/internal/shared"

	"go.uber.org/zap"
)

type Store interface {
	SavePredictions(ctx context.Context, records []shared.PredictionRecord) error
}

type Options struct {
	FlushInterval time.Duration
	MaxSize       int
	MaxRetries    int
	RetryDelay    time.Duration
}

func DefaultOptions() Options {
	return Options{
		FlushInterval: shared.BucketFlushInterval,
		MaxSize:       shared.MaxBucketSize,
		MaxRetries:    shared.MaxFlushRetries,
		RetryDelay:    shared.BucketRetryDelay,
	}
}

// PredictionBuffer collects records in memory and flushes them to a Store
// either when the flush interval elapses or when MaxSize records are pending.
// Flushes run one at a time.
type PredictionBuffer struct {
	mu      sync.Mutex
	pending []shared.PredictionRecord
	timer   *time.Timer
	closed  bool

	flushMu sync.Mutex
	wg      sync.WaitGroup

	store Store
	opts  Options
	log   *zap.SugaredLogger
}

func NewPredictionBuffer(store Store, log *zap.SugaredLogger, opts Options) *PredictionBuffer {
	if opts.MaxSize <= 0 {
		opts.MaxSize = shared.MaxBucketSize
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	return &PredictionBuffer{store: store, log: log, opts: opts}
}

// Record never blocks on the database.
func (b *PredictionBuffer) Record(rec shared.PredictionRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.log.Warnw("Dropping prediction record after shutdown", "id", rec.ID)
		return
	}
	b.pending = append(b.pending, rec)
	metrics.PendingRecords.Set(float64(len(b.pending)))

	if len(b.pending) >= b.opts.MaxSize {
		b.flushAsyncLocked()
		return
	}
	// Fresh bucket, start the clock
	if b.timer == nil {
		b.timer = time.AfterFunc(b.opts.FlushInterval, func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.timer = nil
			b.flushAsyncLocked()
		})
	}
}

func (b *PredictionBuffer) flushAsyncLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	batch := b.take()
	if len(batch) == 0 {
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.flush(batch)
	}()
}

func (b *PredictionBuffer) take() []shared.PredictionRecord {
	batch := b.pending
	b.pending = nil
	metrics.PendingRecords.Set(0)
	return batch
}

func (b *PredictionBuffer) flush(batch []shared.PredictionRecord) bool {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	var err error
	for attempt := 0; attempt < b.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			b.log.Warn("Flush requested retry, waiting...")
			time.Sleep(b.opts.RetryDelay)
		}
		err = b.store.SavePredictions(context.Background(), batch)
		if err == nil {
			b.log.Infow("Flushed predictions", "records", len(batch))
			return true
		}
		b.log.Errorw("Failed to save predictions", "error", err, "attempt", attempt+1)
	}
	b.log.Errorw("Dropping predictions after retries", "error", err, "records", len(batch))
	metrics.ErrorCount.WithLabelValues("unknown", "unknown", "save_predictions").Inc()
	return false
}

// Flush writes everything pending now and reports whether it was saved.
func (b *PredictionBuffer) Flush() bool {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	batch := b.take()
	b.mu.Unlock()
	if len(batch) == 0 {
		return true
	}
	return b.flush(batch)
}

// Shutdown stops accepting records, waits for in flight flushes and writes
// whatever is left.
func (b *PredictionBuffer) Shutdown() {
	b.log.Info("Shutting down prediction buffer")
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
	b.Flush()
}
