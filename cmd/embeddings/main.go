// Command embeddings backfills the Vectorize indexes from rows already in
// the database: CLIP embeddings for every stored image (canonical sign
// assets and real-world photos) and BGE embeddings for the bilingual sign
// explanations. Vectors are upserted in fixed-size batches.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/ai"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/batch"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/cfapi"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/cli"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/config"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/d1"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/metrics"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/vectorize"
)

const maxImageBytes = 10 << 20

func main() {
	cfg := config.FromEnv()

	var (
		imageIndex string
		textIndex  string
	)
	flag.StringVar(&imageIndex, "image-index", "quebec-sign-images-vector-index", "Vectorize index for image embeddings")
	flag.StringVar(&textIndex, "text-index", "quebec-sign-text-vector-index", "Vectorize index for text embeddings")
	flag.IntVar(&cfg.VectorBatch, "vector-batch", cfg.VectorBatch, "vectors per upsert request")
	metricsBackend := flag.String("metrics-backend", "none", "metrics backend (pushgateway, datadog, none)")
	gatewayURL := flag.String("pushgateway-url", "", "Pushgateway base URL")
	statsdAddr := flag.String("statsd-addr", "", "dogstatsd agent address")
	flag.Parse()

	cfg.MustValidate()

	flush := cli.InitMetrics(*metricsBackend, "embeddings", *gatewayURL, *statsdAddr)
	defer flush()

	ctx, cancel := cli.RunContext()
	defer cancel()

	clients := cli.NewClients(cfg)
	db := d1.NewClient(clients.API, clients.Uploader, cfg.AccountID, cfg.DatabaseID)
	aiClient := ai.NewClient(clients.API, cfg.AccountID)
	vec := vectorize.NewClient(clients.API, cfg.AccountID)

	gen := &generator{
		db:       db,
		ai:       aiClient,
		vec:      vec,
		fetch:    clients.Uploader,
		batchLen: cfg.VectorBatch,
	}

	start := time.Now()
	if err := gen.imageEmbeddings(ctx, imageIndex); err != nil {
		fatalf("image embeddings: %v", err)
	}
	if err := gen.textEmbeddings(ctx, textIndex); err != nil {
		fatalf("text embeddings: %v", err)
	}
	log.Printf("embedded=%d skipped=%d completed in %s",
		gen.embedded, gen.skipped, time.Since(start).Truncate(time.Millisecond))
}

type generator struct {
	db       *d1.Client
	ai       *ai.Client
	vec      *vectorize.Client
	fetch    *cfapi.Client
	batchLen int

	embedded int64
	skipped  int64
}

// newBatcher builds a vector batcher whose flushes upsert into indexID.
func (g *generator) newBatcher(indexID string) (*batch.Batcher[vectorize.Vector], error) {
	return batch.New(batch.Config[vectorize.Vector]{
		Size: g.batchLen,
		Flush: func(ctx context.Context, vectors []vectorize.Vector) error {
			start := time.Now()
			err := g.vec.Upsert(ctx, indexID, vectors)
			metrics.RecordStep("embeddings", "vector_upsert", err, time.Since(start))
			if err != nil {
				return fmt.Errorf("upsert %d vectors into %s: %w", len(vectors), indexID, err)
			}
			log.Printf("upserted %d vectors into %s", len(vectors), indexID)
			return nil
		},
	})
}

// imageEmbeddings runs CLIP over every stored image URL: canonical assets
// keyed by sign_code and real photos keyed by photo_id.
func (g *generator) imageEmbeddings(ctx context.Context, indexID string) error {
	b, err := g.newBatcher(indexID)
	if err != nil {
		return err
	}

	defs, err := g.db.Query(ctx,
		"SELECT sign_code, original_digital_asset_url FROM sign_definitions WHERE original_digital_asset_url IS NOT NULL;")
	if err != nil {
		return err
	}
	log.Printf("embedding %d sign definition images", len(defs))
	for _, row := range defs {
		code, _ := row["sign_code"].(string)
		url, _ := row["original_digital_asset_url"].(string)
		g.addImageVector(ctx, b, code, url, vectorize.Metadata{
			"type":      "sign_definition",
			"sign_code": code,
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	photos, err := g.db.Query(ctx,
		"SELECT photo_id, sign_code, image_url FROM real_sign_photos WHERE image_url IS NOT NULL;")
	if err != nil {
		return err
	}
	log.Printf("embedding %d real sign photos", len(photos))
	for _, row := range photos {
		id, _ := row["photo_id"].(string)
		code, _ := row["sign_code"].(string)
		url, _ := row["image_url"].(string)
		g.addImageVector(ctx, b, id, url, vectorize.Metadata{
			"type":      "real_photo",
			"sign_code": code,
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return b.Flush(ctx)
}

// addImageVector downloads one image, embeds it, and queues the vector.
// Per-row failures are logged and skipped so one broken URL does not stop
// the backfill.
func (g *generator) addImageVector(ctx context.Context, b *batch.Batcher[vectorize.Vector], id, url string, md vectorize.Metadata) {
	if id == "" || url == "" {
		g.skipped++
		return
	}

	data, err := g.download(ctx, url)
	if err != nil {
		g.skipped++
		log.Printf("%s: download: %v", id, err)
		return
	}

	start := time.Now()
	values, err := g.ai.ImageEmbedding(ctx, data)
	metrics.RecordStep("embeddings", "image_embedding", err, time.Since(start))
	if err != nil {
		g.skipped++
		log.Printf("%s: embed image: %v", id, err)
		return
	}

	if err := b.Add(ctx, vectorize.Vector{ID: id, Values: values, Metadata: md}); err != nil {
		log.Printf("%s: queue vector: %v", id, err)
		return
	}
	g.embedded++
}

// textEmbeddings runs BGE over the combined French and English explanation
// of every sign definition, keyed by sign_code.
func (g *generator) textEmbeddings(ctx context.Context, indexID string) error {
	b, err := g.newBatcher(indexID)
	if err != nil {
		return err
	}

	rows, err := g.db.Query(ctx,
		"SELECT sign_code, explanation_fr, explanation_en FROM sign_definitions;")
	if err != nil {
		return err
	}
	log.Printf("embedding %d sign explanations", len(rows))

	for _, row := range rows {
		code, _ := row["sign_code"].(string)
		fr, _ := row["explanation_fr"].(string)
		en, _ := row["explanation_en"].(string)
		if code == "" || (fr == "" && en == "") {
			g.skipped++
			continue
		}

		start := time.Now()
		values, err := g.ai.TextEmbedding(ctx, fr+" "+en)
		metrics.RecordStep("embeddings", "text_embedding", err, time.Since(start))
		if err != nil {
			g.skipped++
			log.Printf("%s: embed text: %v", code, err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		err = b.Add(ctx, vectorize.Vector{ID: code, Values: values, Metadata: vectorize.Metadata{
			"type":    "sign_explanation",
			"lang_fr": fr,
			"lang_en": en,
		}})
		if err != nil {
			return err
		}
		g.embedded++
	}

	return b.Flush(ctx)
}

func (g *generator) download(ctx context.Context, url string) ([]byte, error) {
	resp, err := g.fetch.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
