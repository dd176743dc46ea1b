// Package datadog implements a Datadog statsd backend for the metrics
// package. Metrics are emitted over UDP to a local dogstatsd agent.
package datadog

import (
	"fmt"
	"log"
	"sort"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/metrics"
)

// Backend sends metrics to a dogstatsd agent.
type Backend struct {
	client *statsd.Client
}

// NewBackend connects to a dogstatsd agent. addr defaults to 127.0.0.1:8125.
// namespace is prefixed to every metric name (a trailing dot is added if
// missing).
func NewBackend(addr, namespace string) (*Backend, error) {
	if addr == "" {
		addr = "127.0.0.1:8125"
	}
	var opts []statsd.Option
	if namespace != "" {
		if namespace[len(namespace)-1] != '.' {
			namespace += "."
		}
		opts = append(opts, statsd.WithNamespace(namespace))
	}
	client, err := statsd.New(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: connect statsd %s: %w", addr, err)
	}
	return &Backend{client: client}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if err := b.client.Count(name, int64(delta), tags(labels), 1); err != nil {
		log.Printf("datadog: count %s: %v", name, err)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if err := b.client.Histogram(name, value, tags(labels), 1); err != nil {
		log.Printf("datadog: histogram %s: %v", name, err)
	}
}

// Flush drains buffered metrics to the agent.
func (b *Backend) Flush() error {
	if err := b.client.Flush(); err != nil {
		return err
	}
	return b.client.Close()
}

// tags converts labels to dogstatsd key:value tags in a stable order.
func tags(labels metrics.Labels) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, 0, len(labels))
	for k, v := range labels {
		out = append(out, k+":"+v)
	}
	sort.Strings(out)
	return out
}
