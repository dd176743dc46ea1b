// Package batch implements the accumulate/flush batcher shared by the SQL and
// vector ingestion paths. Batches exist to bound request/payload size, not to
// express transactional grouping: the sink receives every item exactly once,
// in FIFO order, in batches no larger than the configured size.
package batch

import (
	"context"
	"fmt"

	"github.com/zeebo/xxh3"
)

// FlushFunc receives one complete batch. The slice is reused between flushes;
// implementations must not retain it.
type FlushFunc[T any] func(ctx context.Context, items []T) error

// Config configures a Batcher.
type Config[T any] struct {
	// Size is the maximum batch size; a full batch is handed to Flush
	// automatically from Add.
	Size int

	// Flush is the sink receiving each complete (or final partial) batch.
	Flush FlushFunc[T]

	// DedupKey, when set, returns the bytes fingerprinted (xxh3) to suppress
	// duplicate items across the whole batcher lifetime. Used by sources that
	// may re-emit rows on re-scrapes.
	DedupKey func(T) []byte
}

// Batcher accumulates items and hands complete batches to the configured sink.
// It exclusively owns the in-flight buffer and is not safe for concurrent use;
// run one batcher per table pipeline.
type Batcher[T any] struct {
	cfg  Config[T]
	buf  []T
	seen map[uint64]struct{}

	added   int64
	skipped int64
	batches int64
}

// New validates cfg and returns a ready Batcher.
func New[T any](cfg Config[T]) (*Batcher[T], error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("batch: size must be > 0, got %d", cfg.Size)
	}
	if cfg.Flush == nil {
		return nil, fmt.Errorf("batch: flush func must not be nil")
	}
	b := &Batcher[T]{cfg: cfg, buf: make([]T, 0, cfg.Size)}
	if cfg.DedupKey != nil {
		b.seen = make(map[uint64]struct{})
	}
	return b, nil
}

// Add appends item to the current batch, flushing to the sink when the batch
// reaches the configured size. A flush error aborts the add; the failed batch
// is dropped from the buffer so the run can continue with the next batch.
func (b *Batcher[T]) Add(ctx context.Context, item T) error {
	if b.cfg.DedupKey != nil {
		h := xxh3.Hash(b.cfg.DedupKey(item))
		if _, dup := b.seen[h]; dup {
			b.skipped++
			return nil
		}
		b.seen[h] = struct{}{}
	}

	b.buf = append(b.buf, item)
	b.added++
	if len(b.buf) >= b.cfg.Size {
		return b.flush(ctx)
	}
	return nil
}

// Flush submits the non-empty partial batch. Call once after the source is
// exhausted.
func (b *Batcher[T]) Flush(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}
	return b.flush(ctx)
}

func (b *Batcher[T]) flush(ctx context.Context) error {
	err := b.cfg.Flush(ctx, b.buf)
	b.buf = b.buf[:0]
	if err != nil {
		return err
	}
	b.batches++
	return nil
}

// Added reports the number of items accepted (not suppressed as duplicates).
func (b *Batcher[T]) Added() int64 { return b.added }

// Skipped reports the number of items suppressed by DedupKey.
func (b *Batcher[T]) Skipped() int64 { return b.skipped }

// Batches reports the number of batches flushed successfully.
func (b *Batcher[T]) Batches() int64 { return b.batches }
