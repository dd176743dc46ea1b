package d1

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/cfapi"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/sqlgen"
)

// State is the phase of an import job.
type State int

const (
	StateIdle State = iota
	StateStaging
	StateStaged
	StateIngesting
	StatePolling
	StateSucceeded
	StateFailed
)

var stateNames = [...]string{"idle", "staging", "staged", "ingesting", "polling", "succeeded", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// notImportingSentinel is the poll error the server reports once a finished
// job has been reaped. For the driver's purposes it means the job is no
// longer pending, i.e. success.
const notImportingSentinel = "Not currently importing anything."

// Options tunes the polling phase of the driver.
type Options struct {
	// PollInterval is the base delay between polls. Defaults to 2s.
	PollInterval time.Duration

	// PollMaxInterval, when larger than PollInterval, enables exponential
	// backoff between polls up to this cap. Zero keeps a fixed interval.
	PollMaxInterval time.Duration

	// MaxWait bounds the total time spent in the polling phase. Zero means
	// no budget beyond the caller's context.
	MaxWait time.Duration

	// now is injectable for tests.
	now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 2 * time.Second
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Job is the ephemeral state of one driver invocation. It is created when a
// batch is submitted and discarded once a terminal outcome is observed;
// nothing persists across process restarts. A crashed run is simply re-run,
// relying on upsert idempotency to avoid duplication.
type Job struct {
	Table       string
	Statements  int
	Etag        string
	Fingerprint uint64
	Filename    string
	Bookmark    string
	State       State
	Polls       int
}

// Importer owns the staged bulk-load handshake for one destination database.
// It processes at most one import job at a time; a new staging phase never
// starts while a previous job is unresolved. Importer is not safe for
// concurrent use; parallel per-table pipelines must each hold their own
// instance.
type Importer struct {
	cp   ControlPlane
	opts Options
	busy bool
}

// NewImporter builds an Importer over the given control plane.
func NewImporter(cp ControlPlane, opts Options) *Importer {
	return &Importer{cp: cp, opts: opts.withDefaults()}
}

// Run ships one batch of statements through the full handshake and blocks
// until the job reaches a terminal state. A nil return means the load
// succeeded. On failure the returned error carries the phase's cause (see the
// cfapi error taxonomy); the driver never retries a failed batch itself,
// re-submission is caller policy and is safe because statements are upserts.
func (im *Importer) Run(ctx context.Context, table string, stmts []sqlgen.Statement) error {
	if im.busy {
		return fmt.Errorf("d1: import job already in flight for this importer")
	}
	if len(stmts) == 0 {
		return nil
	}
	im.busy = true
	defer func() { im.busy = false }()

	payload := JoinStatements(stmts)
	job := &Job{
		Table:       table,
		Statements:  len(stmts),
		Etag:        Checksum(payload),
		Fingerprint: Fingerprint(payload),
		State:       StateStaging,
	}
	log.Printf("d1 import: table=%s statements=%d bytes=%d etag=%s fp=%016x",
		job.Table, job.Statements, len(payload), job.Etag, job.Fingerprint)

	err := im.run(ctx, job, payload)
	if err != nil {
		job.State = StateFailed
		log.Printf("d1 import: table=%s etag=%s state=%s polls=%d err=%v",
			job.Table, job.Etag, job.State, job.Polls, err)
		return err
	}
	job.State = StateSucceeded
	log.Printf("d1 import: table=%s etag=%s state=%s polls=%d",
		job.Table, job.Etag, job.State, job.Polls)
	return nil
}

func (im *Importer) run(ctx context.Context, job *Job, payload []byte) error {
	// Staging: request the one-time upload target.
	init, err := im.cp.Init(ctx, job.Etag)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	job.Filename = init.Filename

	// Upload and verify the echoed integrity tag. A mismatch means the
	// payload was corrupted in transit; retrying the same bytes without
	// re-verifying would risk silent data loss, so this is terminal.
	echo, err := im.cp.StagePut(ctx, init.UploadURL, payload)
	if err != nil {
		return fmt.Errorf("stage upload: %w", err)
	}
	if echo != job.Etag {
		return &cfapi.IntegrityError{Want: job.Etag, Got: echo}
	}
	job.State = StateStaged

	// Trigger ingestion of the staged file.
	job.State = StateIngesting
	ing, err := im.cp.Ingest(ctx, job.Etag, job.Filename)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	job.Bookmark = ing.AtBookmark

	// Poll until the load resolves, within the wait budget.
	job.State = StatePolling
	return im.poll(ctx, job)
}

func (im *Importer) poll(ctx context.Context, job *Job) error {
	var deadline time.Time
	if im.opts.MaxWait > 0 {
		deadline = im.opts.now().Add(im.opts.MaxWait)
	}

	interval := im.opts.PollInterval
	for {
		st, err := im.cp.Poll(ctx, job.Bookmark)
		if err != nil {
			return fmt.Errorf("poll: %w", err)
		}
		job.Polls++

		switch {
		case st.Success:
			return nil
		case st.Error == notImportingSentinel:
			// Finished and already reaped by the server.
			return nil
		case st.Error != "":
			// A concrete error status is terminal; polling a stuck job
			// forever is how the previous generation of scripts hung.
			return &cfapi.RejectionError{Op: "d1 poll", Messages: []string{st.Error}}
		}

		if st.AtBookmark != "" {
			job.Bookmark = st.AtBookmark
		}
		if !deadline.IsZero() && !im.opts.now().Before(deadline) {
			return fmt.Errorf("poll: wait budget %s exhausted after %d polls", im.opts.MaxWait, job.Polls)
		}

		if err := waitInterval(ctx, interval); err != nil {
			return err
		}
		if im.opts.PollMaxInterval > interval {
			interval *= 2
			if interval > im.opts.PollMaxInterval {
				interval = im.opts.PollMaxInterval
			}
		}
	}
}

func waitInterval(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
