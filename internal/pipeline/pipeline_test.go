package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/mirror"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/record"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/schema"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/sqlgen"
)

var testContract = &schema.Contract{
	Table: "signs",
	Key:   "code",
	Fields: []schema.Field{
		{Name: "code", Type: "text"},
		{Name: "label", Type: "text"},
	},
}

type fakeLoader struct {
	batches [][]sqlgen.Statement
	errs    []error // popped per call; nil past the end
}

func (f *fakeLoader) Run(ctx context.Context, table string, stmts []sqlgen.Statement) error {
	cp := make([]sqlgen.Statement, len(stmts))
	copy(cp, stmts)
	f.batches = append(f.batches, cp)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return nil
}

type fakeSink struct {
	ensured []string
	rows    int64
	err     error
}

func (f *fakeSink) EnsureTable(ctx context.Context, c *schema.Contract) error {
	f.ensured = append(f.ensured, c.Table)
	return nil
}

func (f *fakeSink) Upsert(ctx context.Context, c *schema.Contract, rows []*record.Record) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.rows += int64(len(rows))
	return int64(len(rows)), nil
}

func (f *fakeSink) Close() error { return nil }

var _ mirror.Sink = (*fakeSink)(nil)

func rec(code string) *record.Record {
	return record.New(2).Set("code", code).Set("label", "L-"+code)
}

/*
TestPipeline_EndToEnd pushes five valid records through a size-2 pipeline and
verifies the batching, the run counters, and that every row also reached the
mirror after its batch imported.
*/
func TestPipeline_EndToEnd(t *testing.T) {
	loader := &fakeLoader{}
	sink := &fakeSink{}
	ctx := context.Background()

	p, err := New(ctx, Config{
		Contract: testContract,
		Loader:   loader,
		Mirror:   sink,
		Size:     2,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(sink.ensured) != 1 || sink.ensured[0] != "signs" {
		t.Fatalf("ensured=%v; want table created up front", sink.ensured)
	}

	for _, code := range []string{"A", "B", "C", "D", "E"} {
		if err := p.Add(ctx, rec(code)); err != nil {
			t.Fatalf("Add(%s): %v", code, err)
		}
	}
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if len(loader.batches) != 3 {
		t.Fatalf("batches=%d; want 3", len(loader.batches))
	}
	if got := len(loader.batches[2]); got != 1 {
		t.Fatalf("tail batch size=%d; want 1", got)
	}

	s := p.Stats()
	if s.Read != 5 || s.Shipped != 5 || s.Rejected != 0 || s.Failed != 0 {
		t.Fatalf("stats=%+v; want 5 read, 5 shipped", s)
	}
	if s.BatchesOK != 3 || s.BatchesFailed != 0 {
		t.Fatalf("stats=%+v; want 3 batches ok", s)
	}
	if sink.rows != 5 || s.Mirrored != 5 {
		t.Fatalf("mirrored=%d stats=%+v; want 5", sink.rows, s)
	}
}

// An invalid record is counted and skipped; the run continues and the bad row
// never reaches the loader.
func TestPipeline_RejectsInvalidRecords(t *testing.T) {
	loader := &fakeLoader{}
	ctx := context.Background()
	p, err := New(ctx, Config{Contract: testContract, Loader: loader, Size: 10})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_ = p.Add(ctx, rec("A"))
	_ = p.Add(ctx, record.New(1).Set("label", "no key"))
	_ = p.Add(ctx, record.New(2).Set("code", "B").Set("bogus", 1))
	_ = p.Add(ctx, rec("C"))
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s := p.Stats()
	if s.Read != 4 || s.Rejected != 2 || s.Shipped != 2 {
		t.Fatalf("stats=%+v; want 4 read, 2 rejected, 2 shipped", s)
	}
	if len(loader.batches) != 1 || len(loader.batches[0]) != 2 {
		t.Fatalf("batches=%v; rejected rows must not ship", loader.batches)
	}
}

/*
TestPipeline_BatchIsolation verifies per-batch failure isolation: a failed
import is counted against its own batch and the run proceeds to ship the
remaining batches.
*/
func TestPipeline_BatchIsolation(t *testing.T) {
	loader := &fakeLoader{errs: []error{errors.New("import rejected")}}
	ctx := context.Background()
	p, err := New(ctx, Config{Contract: testContract, Loader: loader, Size: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, code := range []string{"A", "B", "C", "D"} {
		if err := p.Add(ctx, rec(code)); err != nil {
			t.Fatalf("Add(%s): %v", code, err)
		}
	}
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s := p.Stats()
	if s.BatchesFailed != 1 || s.BatchesOK != 1 {
		t.Fatalf("stats=%+v; want one failed and one succeeded batch", s)
	}
	if s.Failed != 2 || s.Shipped != 2 {
		t.Fatalf("stats=%+v; want 2 failed rows, 2 shipped rows", s)
	}
	if len(loader.batches) != 2 {
		t.Fatalf("batches=%d; want the second batch still shipped", len(loader.batches))
	}
}

// Context cancellation is the one loader error that must abort the run.
func TestPipeline_CancellationPropagates(t *testing.T) {
	loader := &fakeLoader{errs: []error{context.Canceled}}
	ctx := context.Background()
	p, err := New(ctx, Config{Contract: testContract, Loader: loader, Size: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := p.Add(ctx, rec("A")); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v; want context.Canceled to propagate", err)
	}
}

func TestPipeline_Dedup(t *testing.T) {
	loader := &fakeLoader{}
	ctx := context.Background()
	p, err := New(ctx, Config{Contract: testContract, Loader: loader, Size: 10, Dedup: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_ = p.Add(ctx, rec("A"))
	_ = p.Add(ctx, rec("A"))
	_ = p.Add(ctx, rec("B"))
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s := p.Stats()
	if s.Duplicates != 1 || s.Shipped != 2 {
		t.Fatalf("stats=%+v; want 1 duplicate suppressed, 2 shipped", s)
	}
}

// A mirror write failure does not fail the batch: the remote import already
// succeeded, the mirror is advisory.
func TestPipeline_MirrorFailureIsSoft(t *testing.T) {
	loader := &fakeLoader{}
	sink := &fakeSink{err: errors.New("disk full")}
	ctx := context.Background()
	p, err := New(ctx, Config{Contract: testContract, Loader: loader, Mirror: sink, Size: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := p.Add(ctx, rec("A")); err != nil {
		t.Fatalf("Add: %v; mirror failure must not abort the run", err)
	}
	s := p.Stats()
	if s.Shipped != 1 || s.Mirrored != 0 {
		t.Fatalf("stats=%+v; want shipped despite mirror failure", s)
	}
}
