// Package sqlite provides a file-backed mirror.Sink using modernc.org/sqlite
// (pure Go, no cgo). It registers itself with the mirror factory under the
// name "sqlite"; the DSN is the database file path.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/mirror"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/record"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/schema"
)

func init() {
	mirror.Register("sqlite", func(ctx context.Context, cfg mirror.Config) (mirror.Sink, error) {
		return NewSink(ctx, cfg.DSN)
	})
}

// Sink writes mirrored batches to a local sqlite file.
type Sink struct {
	db *sql.DB
}

// NewSink opens (or creates) the sqlite database at path.
func NewSink(ctx context.Context, path string) (*Sink, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: database path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// A single writer keeps the replace-by-key transactions simple.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: set journal mode: %w", err)
	}
	return &Sink{db: db}, nil
}

func (s *Sink) EnsureTable(ctx context.Context, c *schema.Contract) error {
	cols := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		col := f.Name + " " + sqliteType(f.Type)
		if f.Name == c.Key {
			col += " PRIMARY KEY"
		}
		cols = append(cols, col)
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", c.Table, strings.Join(cols, ", "))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("sqlite: ensure table %s: %w", c.Table, err)
	}
	return nil
}

// Upsert writes rows in one transaction using INSERT OR REPLACE, matching the
// replace-by-key semantics of the remote import.
func (s *Sink) Upsert(ctx context.Context, c *schema.Contract, rows []*record.Record) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	var written int64
	for _, r := range rows {
		cols := r.Columns()
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
		q := fmt.Sprintf(
			"INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
			c.Table, strings.Join(cols, ", "), marks,
		)
		if _, err := tx.ExecContext(ctx, q, r.Values()...); err != nil {
			return written, fmt.Errorf("sqlite: upsert into %s: %w", c.Table, err)
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return written, nil
}

func (s *Sink) Close() error { return s.db.Close() }

func sqliteType(t string) string {
	switch t {
	case "integer", "bool":
		return "INTEGER"
	case "real":
		return "REAL"
	default:
		return "TEXT"
	}
}
