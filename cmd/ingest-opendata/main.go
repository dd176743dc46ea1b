// Command ingest-opendata loads the Montreal open data extracts: signalling
// poles, parking sign instances, construction zones and impacts, and taxi
// stands. Each destination table gets its own pipeline and importer, and the
// tables run in parallel since the bulk import endpoint serializes per
// import, not per database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/cli"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/config"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/d1"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/mirror"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/pipeline"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/record"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/schema"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/source"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/source/opendata"

	_ "github.com/darleison-rodrigues/route-quebec-worker/internal/mirror/postgres"
	_ "github.com/darleison-rodrigues/route-quebec-worker/internal/mirror/sqlite"
)

// job is one open data extract: the CSV files it reads, the table it fills,
// and the row mapping.
type job struct {
	name     string
	files    []string
	contract *schema.Contract
	mapRow   func(row source.Row) (*record.Record, error)
}

func jobs(dir string) []job {
	now := time.Now().UTC()
	return []job{
		{
			name:     "poles",
			files:    []string{filepath.Join(dir, "poteaux-de-signalisation.csv")},
			contract: &schema.Poles,
			mapRow:   opendata.PoleRecord,
		},
		{
			name: "sign_instances",
			files: []string{
				filepath.Join(dir, "signalisation_stationnement.csv"),
				filepath.Join(dir, "signalisation_excluant_stationnement.csv"),
			},
			contract: &schema.SignInstances,
			mapRow: func(row source.Row) (*record.Record, error) {
				return opendata.SignInstanceRecord(row, now)
			},
		},
		{
			name:     "construction_zones",
			files:    []string{filepath.Join(dir, "entraves-travaux-en-cours.csv")},
			contract: &schema.ConstructionZones,
			mapRow:   opendata.ConstructionZoneRecord,
		},
		{
			name:     "construction_impacts",
			files:    []string{filepath.Join(dir, "impacts-entraves-travaux-en-cours.csv")},
			contract: &schema.ConstructionImpacts,
			mapRow:   opendata.ConstructionImpactRecord,
		},
		{
			name:     "taxi_stands",
			files:    []string{filepath.Join(dir, "postestaxi.csv")},
			contract: &schema.TaxiStands,
			mapRow:   opendata.TaxiStandRecord,
		},
	}
}

func main() {
	cfg := config.FromEnv()

	var (
		dir     string
		only    string
		maxWait time.Duration
	)
	flag.StringVar(&dir, "dir", "montreal_opendata", "directory holding the open data CSV extracts")
	flag.StringVar(&only, "only", "", "run a single extract by name (poles, sign_instances, ...)")
	flag.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "records per bulk import batch")
	flag.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "interval between import status polls")
	flag.DurationVar(&maxWait, "max-wait", 0, "per-batch polling budget (0 = unlimited)")
	flag.StringVar(&cfg.MirrorKind, "mirror", "", "optional local mirror backend (sqlite, postgres)")
	flag.StringVar(&cfg.MirrorDSN, "mirror-dsn", "", "mirror connection string or file path")
	metricsBackend := flag.String("metrics-backend", "none", "metrics backend (pushgateway, datadog, none)")
	gatewayURL := flag.String("pushgateway-url", "", "Pushgateway base URL")
	statsdAddr := flag.String("statsd-addr", "", "dogstatsd agent address")
	flag.Parse()

	cfg.MaxWait = maxWait
	cfg.MustValidate()

	flush := cli.InitMetrics(*metricsBackend, "ingest_opendata", *gatewayURL, *statsdAddr)
	defer flush()

	ctx, cancel := cli.RunContext()
	defer cancel()

	clients := cli.NewClients(cfg)

	var sink mirror.Sink
	if cfg.MirrorKind != "" {
		var err error
		sink, err = mirror.Open(ctx, mirror.Config{Kind: cfg.MirrorKind, DSN: cfg.MirrorDSN})
		if err != nil {
			fatalf("open mirror: %v", err)
		}
		defer sink.Close()
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	for _, j := range jobs(dir) {
		if only != "" && only != j.name {
			continue
		}
		j := j
		g.Go(func() error {
			// One importer per table: the import handshake allows a single
			// in-flight job per importer.
			importer := d1.NewImporter(
				d1.NewClient(clients.API, clients.Uploader, cfg.AccountID, cfg.DatabaseID),
				d1.Options{PollInterval: cfg.PollInterval, MaxWait: cfg.MaxWait},
			)
			return runJob(gctx, j, importer, sink, cfg.BatchSize)
		})
	}

	if err := g.Wait(); err != nil {
		fatalf("ingest: %v", err)
	}
	log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
}

func runJob(ctx context.Context, j job, loader pipeline.Loader, sink mirror.Sink, batchSize int) error {
	pipe, err := pipeline.New(ctx, pipeline.Config{
		Contract: j.contract,
		Loader:   loader,
		Mirror:   sink,
		Size:     batchSize,
		Dedup:    true,
	})
	if err != nil {
		return fmt.Errorf("%s: build pipeline: %w", j.name, err)
	}

	for _, path := range j.files {
		f, err := os.Open(path)
		if err != nil {
			// Extracts are downloaded separately; a missing file skips the
			// source, it does not abort the other tables.
			log.Printf("%s: %v; skipping", j.name, err)
			continue
		}

		log.Printf("%s: processing %s", j.name, filepath.Base(path))
		err = source.EachRow(f, ',', func(line int, row source.Row) error {
			rec, err := j.mapRow(row)
			if err != nil {
				log.Printf("%s: line %d: %v", j.name, line, err)
				return nil
			}
			return pipe.Add(ctx, rec)
		}, func(line int, err error) {
			log.Printf("%s: line %d: skipping malformed row: %v", j.name, line, err)
		})
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %s: %w", j.name, filepath.Base(path), err)
		}
	}

	if err := pipe.Close(ctx); err != nil {
		return fmt.Errorf("%s: final flush: %w", j.name, err)
	}
	pipe.LogSummary()
	return nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
