// Package mirror contains storage-agnostic contracts for the optional local
// mirror: a relational copy of every batch that the pipelines ship to the
// managed database. The mirror is useful for offline inspection and for
// diffing a run against what the remote import reported.
//
// Concrete backends (sqlite, postgres) register themselves with the factory
// at init time; callers obtain a Sink via Open without importing a backend
// package directly.
package mirror

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/record"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/schema"
)

// Sink is the minimal interface a mirror backend must implement.
type Sink interface {
	// EnsureTable creates the destination table if it does not exist yet.
	EnsureTable(ctx context.Context, c *schema.Contract) error

	// Upsert writes rows into the table, replacing existing rows that share
	// the contract's natural key. It returns the number of rows written.
	Upsert(ctx context.Context, c *schema.Contract, rows []*record.Record) (int64, error)

	// Close releases the underlying connection(s).
	Close() error
}

// Config selects and configures a mirror backend.
type Config struct {
	Kind string // registered backend name, e.g. "sqlite" or "postgres"
	DSN  string // backend-specific connection string or file path
}

// Constructor builds a Sink from a Config.
type Constructor func(ctx context.Context, cfg Config) (Sink, error)

var (
	mu       sync.RWMutex
	backends = map[string]Constructor{}
)

// Register makes a backend available under the given name. Backends call this
// from init; registering the same name twice panics.
func Register(name string, fn Constructor) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := backends[name]; dup {
		panic(fmt.Sprintf("mirror: backend %q registered twice", name))
	}
	backends[name] = fn
}

// Kinds returns the registered backend names, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(backends))
	for name := range backends {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Open constructs the backend named by cfg.Kind.
func Open(ctx context.Context, cfg Config) (Sink, error) {
	mu.RLock()
	fn, ok := backends[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("mirror: unknown backend %q (available: %v)", cfg.Kind, Kinds())
	}
	return fn(ctx, cfg)
}
