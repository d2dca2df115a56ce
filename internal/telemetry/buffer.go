// Package telemetry batches contact outcomes and writes them to storage off
// the simulation thread.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/guardbreak/internal/game/contact"
	"github.com/cory-johannsen/guardbreak/internal/storage/postgres"
)

// Writer persists a batch of records.
type Writer interface {
	InsertBatch(ctx context.Context, records []postgres.ContactRecord) (int64, error)
}

// Config tunes a Buffer.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
	// MaxPending caps records held while the writer is failing. 0 means 16 batches.
	MaxPending int
}

// Buffer implements contact.Recorder. Record never blocks on I/O; Run
// flushes whenever a batch fills or the interval elapses.
//
// Invariant: len(pending) <= MaxPending; the oldest records are dropped first.
type Buffer struct {
	cfg    Config
	runID  uuid.UUID
	writer Writer
	logger *zap.Logger
	now    func() time.Time

	flushMu sync.Mutex

	mu      sync.Mutex
	pending []postgres.ContactRecord
	dropped int64
	written int64
	// inflight is how many records at the front of pending belong to the
	// batch being written; evicted counts those pushed out mid-write.
	inflight int
	evicted  int

	full chan struct{}
}

// NewBuffer creates a Buffer tagging every record with runID.
//
// Precondition: cfg.BatchSize > 0, cfg.FlushInterval > 0, writer non-nil.
func NewBuffer(cfg Config, runID uuid.UUID, writer Writer, logger *zap.Logger) *Buffer {
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = cfg.BatchSize * 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Buffer{
		cfg:    cfg,
		runID:  runID,
		writer: writer,
		logger: logger,
		now:    time.Now,
		full:   make(chan struct{}, 1),
	}
}

// Record implements contact.Recorder.
func (b *Buffer) Record(kind contact.Kind, ev contact.Event) {
	rec := postgres.ContactRecord{
		RunID:        b.runID,
		SimTime:      ev.Time,
		RecordedAt:   b.now().UTC(),
		Kind:         kind.String(),
		Path:         string(ev.Path),
		Hitbox:       ev.Hitbox,
		AttackerID:   ev.AttackerID,
		AttackerName: ev.AttackerName,
		DefenderID:   ev.DefenderID,
		DefenderName: ev.DefenderName,
		Swing:        ev.Swing.String(),
		Guard:        ev.Guard.String(),
		Damage:       ev.Damage,
	}

	b.mu.Lock()
	b.pending = append(b.pending, rec)
	if over := len(b.pending) - b.cfg.MaxPending; over > 0 {
		b.pending = b.pending[over:]
		fromBatch := min(over, b.inflight)
		b.inflight -= fromBatch
		b.evicted += fromBatch
		b.dropped += int64(over - fromBatch)
	}
	ready := len(b.pending) >= b.cfg.BatchSize
	b.mu.Unlock()

	if ready {
		select {
		case b.full <- struct{}{}:
		default:
		}
	}
}

// Pending returns the number of unwritten records.
func (b *Buffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Stats returns the written and dropped record counts.
func (b *Buffer) Stats() (written, dropped int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.written, b.dropped
}

// Flush writes pending records in batches of at most BatchSize. Records of a
// failed batch stay pending for the next attempt. Concurrent calls are
// serialized.
//
// Records evicted by Record while their batch is being written count as
// written on success and dropped on failure, never both.
func (b *Buffer) Flush(ctx context.Context) error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()
	for {
		b.mu.Lock()
		n := min(len(b.pending), b.cfg.BatchSize)
		batch := append([]postgres.ContactRecord(nil), b.pending[:n]...)
		b.inflight, b.evicted = n, 0
		b.mu.Unlock()
		if n == 0 {
			return nil
		}

		wrote, err := b.writer.InsertBatch(ctx, batch)

		b.mu.Lock()
		if err != nil {
			b.dropped += int64(b.evicted)
		} else {
			b.pending = b.pending[b.inflight:]
			b.written += wrote
		}
		b.inflight, b.evicted = 0, 0
		b.mu.Unlock()

		if err != nil {
			b.logger.Warn("telemetry flush failed", zap.Int("batch", n), zap.Error(err))
			return err
		}
		b.logger.Debug("telemetry flushed", zap.Int64("rows", wrote))
	}
}

// Run flushes on a full batch or every FlushInterval until ctx is cancelled,
// then makes a final flush bounded by five seconds.
func (b *Buffer) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = b.Flush(final)
			written, dropped := b.Stats()
			b.logger.Info("telemetry stopped",
				zap.Int64("written", written),
				zap.Int64("dropped", dropped),
				zap.Int("pending", b.Pending()),
			)
			return nil
		case <-ticker.C:
			_ = b.Flush(ctx)
		case <-b.full:
			_ = b.Flush(ctx)
		}
	}
}
