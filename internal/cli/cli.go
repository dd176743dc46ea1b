// Package cli holds the setup shared by the ingestion commands: signal-aware
// run contexts, metrics backend selection and construction of the control
// plane clients from a validated config.
package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/cfapi"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/config"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/metrics"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/metrics/datadog"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/metrics/prompush"
)

// RunContext returns a context cancelled on SIGINT/SIGTERM so a run can stop
// at the next batch boundary instead of mid-import.
func RunContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// InitMetrics installs the selected metrics backend and returns a flush
// function to defer. Backend selection: flag value, then METRICS_BACKEND,
// then disabled. Unknown names disable metrics rather than failing the run.
func InitMetrics(backendName, job, gatewayURL, statsdAddr string) func() {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}

	switch backendName {
	case "pushgateway":
		if gatewayURL == "" {
			gatewayURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gatewayURL == "" {
			gatewayURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gatewayURL)
		if err != nil {
			log.Printf("metrics: failed to init pushgateway backend: %v; using nop", err)
			break
		}
		log.Printf("metrics: backend=pushgateway url=%s job=%s", gatewayURL, job)
		metrics.SetBackend(b)

	case "datadog":
		b, err := datadog.NewBackend(statsdAddr, "route_quebec")
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			break
		}
		log.Printf("metrics: backend=datadog addr=%s", statsdAddr)
		metrics.SetBackend(b)

	case "", "none":
		// metrics disabled; nop backend remains

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

// Clients bundles the two HTTP clients every command needs: an authenticated
// one for the Cloudflare API and a bare one for presigned staging URLs and
// public image downloads.
type Clients struct {
	API      *cfapi.Client
	Uploader *cfapi.Client
}

// NewClients builds the HTTP clients from the config.
func NewClients(cfg config.Config) Clients {
	return Clients{
		API: cfapi.NewClient(cfapi.Config{
			APIToken:  cfg.APIToken,
			UserAgent: cfg.UserAgent,
		}),
		Uploader: cfapi.NewClient(cfapi.Config{
			UserAgent: cfg.UserAgent,
		}),
	}
}
