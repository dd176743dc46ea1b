// Package pipeline connects the per-table pieces of an ingestion run: records
// come in, are validated against the table's schema contract and rendered to
// SQL, accumulated into fixed-size batches, and each full batch is shipped
// through a bulk-import loader. An optional local mirror receives the same
// rows.
//
// The pipeline is fail-soft at the record level (a row that fails validation
// is counted and skipped) and isolated at the batch level (a batch whose
// import fails is counted and the run continues with the next batch). Context
// cancellation is the only error that stops a run early.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/batch"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/metrics"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/mirror"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/record"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/schema"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/sqlgen"
)

// Loader ships one batch of statements to the destination table.
// *d1.Importer satisfies this.
type Loader interface {
	Run(ctx context.Context, table string, stmts []sqlgen.Statement) error
}

// Config assembles a per-table pipeline.
type Config struct {
	Contract *schema.Contract
	Loader   Loader
	Mirror   mirror.Sink // optional
	Size     int         // records per batch
	Dedup    bool        // skip repeated identical statements within the run
}

// Stats are the running totals for one pipeline.
type Stats struct {
	Read          int64 // records offered to Add
	Rejected      int64 // records that failed validation
	Duplicates    int64 // records skipped by dedup
	Shipped       int64 // records in batches that imported successfully
	Failed        int64 // records in batches whose import failed
	BatchesOK     int64
	BatchesFailed int64
	Mirrored      int64
}

// Pipeline feeds records for one table through validation, batching and the
// bulk-import loader.
type Pipeline struct {
	contract *schema.Contract
	loader   Loader
	mirror   mirror.Sink
	batcher  *batch.Batcher[entry]
	stats    Stats
}

type entry struct {
	stmt sqlgen.Statement
	rec  *record.Record
}

// New builds a pipeline. If cfg.Mirror is set, the destination table is
// created in the mirror before any batch is written.
func New(ctx context.Context, cfg Config) (*Pipeline, error) {
	if cfg.Contract == nil {
		return nil, fmt.Errorf("pipeline: contract is required")
	}
	if cfg.Loader == nil {
		return nil, fmt.Errorf("pipeline: loader is required")
	}

	p := &Pipeline{
		contract: cfg.Contract,
		loader:   cfg.Loader,
		mirror:   cfg.Mirror,
	}

	bcfg := batch.Config[entry]{
		Size:  cfg.Size,
		Flush: p.ship,
	}
	if cfg.Dedup {
		bcfg.DedupKey = func(e entry) []byte { return []byte(e.stmt) }
	}
	b, err := batch.New(bcfg)
	if err != nil {
		return nil, err
	}
	p.batcher = b

	if p.mirror != nil {
		if err := p.mirror.EnsureTable(ctx, p.contract); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Add validates one record and queues it. Validation failures are logged and
// counted, not returned; the only errors Add reports come from a flush
// aborted by context cancellation.
func (p *Pipeline) Add(ctx context.Context, r *record.Record) error {
	p.stats.Read++
	metrics.RecordRows(p.contract.Table, "read", 1)

	stmt, err := sqlgen.Build(p.contract, r)
	if err != nil {
		p.stats.Rejected++
		metrics.RecordRows(p.contract.Table, "rejected", 1)
		log.Printf("%s: rejected record: %v", p.contract.Table, err)
		return nil
	}

	before := p.batcher.Skipped()
	if err := p.batcher.Add(ctx, entry{stmt: stmt, rec: r}); err != nil {
		return err
	}
	if skipped := p.batcher.Skipped() - before; skipped > 0 {
		p.stats.Duplicates += skipped
		metrics.RecordRows(p.contract.Table, "duplicates", skipped)
	}
	return nil
}

// Close flushes the tail batch. It must be called once at the end of a run.
func (p *Pipeline) Close(ctx context.Context) error {
	return p.batcher.Flush(ctx)
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats { return p.stats }

// ship sends one batch through the loader. An import failure is isolated: it
// is logged and counted and nil is returned so the run continues, unless the
// context itself was cancelled.
func (p *Pipeline) ship(ctx context.Context, items []entry) error {
	stmts := make([]sqlgen.Statement, len(items))
	for i, e := range items {
		stmts[i] = e.stmt
	}

	start := time.Now()
	err := p.loader.Run(ctx, p.contract.Table, stmts)
	metrics.RecordStep(p.contract.Table, "bulk_import", err, time.Since(start))

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		p.stats.Failed += int64(len(items))
		p.stats.BatchesFailed++
		metrics.RecordRows(p.contract.Table, "failed", int64(len(items)))
		metrics.RecordBatches(p.contract.Table, "failed", 1)
		log.Printf("%s: batch of %d failed: %v", p.contract.Table, len(items), err)
		return nil
	}

	p.stats.Shipped += int64(len(items))
	p.stats.BatchesOK++
	metrics.RecordRows(p.contract.Table, "shipped", int64(len(items)))
	metrics.RecordBatches(p.contract.Table, "succeeded", 1)

	if p.mirror != nil {
		rows := make([]*record.Record, len(items))
		for i, e := range items {
			rows[i] = e.rec
		}
		n, err := p.mirror.Upsert(ctx, p.contract, rows)
		p.stats.Mirrored += n
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			log.Printf("%s: mirror write failed after %d rows: %v", p.contract.Table, n, err)
		}
	}
	return nil
}

// LogSummary prints the end-of-run counters for this table.
func (p *Pipeline) LogSummary() {
	s := p.stats
	log.Printf(
		"%s: read=%d rejected=%d duplicates=%d shipped=%d failed=%d batches_ok=%d batches_failed=%d mirrored=%d",
		p.contract.Table,
		s.Read, s.Rejected, s.Duplicates, s.Shipped, s.Failed,
		s.BatchesOK, s.BatchesFailed, s.Mirrored,
	)
}
