// Command ingest-photos loads real-world sign photographs into the
// real_sign_photos table. Photos are described as JSON lines (one object per
// line) read from a file or stdin; each image is uploaded to Cloudflare
// Images and the row is shipped through the D1 bulk import endpoint.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/cli"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/config"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/d1"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/images"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/metrics"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/mirror"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/pipeline"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/schema"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/source"

	_ "github.com/darleison-rodrigues/route-quebec-worker/internal/mirror/postgres"
	_ "github.com/darleison-rodrigues/route-quebec-worker/internal/mirror/sqlite"
)

func main() {
	cfg := config.FromEnv()

	var (
		inPath  string
		maxWait time.Duration
	)
	flag.StringVar(&inPath, "in", "-", "JSON lines photo manifest (- for stdin)")
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

	flush := cli.InitMetrics(*metricsBackend, "ingest_photos", *gatewayURL, *statsdAddr)
	defer flush()

	ctx, cancel := cli.RunContext()
	defer cancel()

	clients := cli.NewClients(cfg)
	imgClient := images.NewClient(clients.API, cfg.AccountID)
	importer := d1.NewImporter(
		d1.NewClient(clients.API, clients.Uploader, cfg.AccountID, cfg.DatabaseID),
		d1.Options{PollInterval: cfg.PollInterval, MaxWait: cfg.MaxWait},
	)

	var sink mirror.Sink
	if cfg.MirrorKind != "" {
		var err error
		sink, err = mirror.Open(ctx, mirror.Config{Kind: cfg.MirrorKind, DSN: cfg.MirrorDSN})
		if err != nil {
			fatalf("open mirror: %v", err)
		}
		defer sink.Close()
	}

	pipe, err := pipeline.New(ctx, pipeline.Config{
		Contract: &schema.RealSignPhotos,
		Loader:   importer,
		Mirror:   sink,
		Size:     cfg.BatchSize,
		Dedup:    true,
	})
	if err != nil {
		fatalf("build pipeline: %v", err)
	}

	var in io.Reader = os.Stdin
	if inPath != "-" {
		f, err := os.Open(inPath)
		if err != nil {
			fatalf("open manifest: %v", err)
		}
		defer f.Close()
		in = f
	}

	start := time.Now()
	var uploadFailed int64

	err = source.EachPhoto(in, func(line int, p source.Photo) error {
		if err := p.Validate(); err != nil {
			log.Printf("line %d: %v", line, err)
			return nil
		}

		uploadStart := time.Now()
		url, err := imgClient.UploadFile(ctx, p.ImagePath)
		metrics.RecordStep("ingest_photos", "image_upload", err, time.Since(uploadStart))
		if err != nil {
			uploadFailed++
			log.Printf("line %d: upload %s: %v", line, p.ImagePath, err)
			return nil
		}

		rec, err := p.Record(uuid.NewString(), url, time.Now().UTC())
		if err != nil {
			log.Printf("line %d: %v", line, err)
			return nil
		}
		return pipe.Add(ctx, rec)
	}, func(line int, err error) {
		log.Printf("line %d: skipping malformed photo: %v", line, err)
	})
	if err != nil {
		fatalf("ingest: %v", err)
	}

	if err := pipe.Close(ctx); err != nil {
		fatalf("final flush: %v", err)
	}

	pipe.LogSummary()
	log.Printf("uploads_failed=%d completed in %s", uploadFailed, time.Since(start).Truncate(time.Millisecond))
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
