// Package postgres provides a Postgres-backed mirror.Sink using pgx. It
// registers itself with the mirror factory under the name "postgres"; the DSN
// is a standard libpq/pgx connection string.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/mirror"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/record"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/schema"
)

func init() {
	mirror.Register("postgres", func(ctx context.Context, cfg mirror.Config) (mirror.Sink, error) {
		return NewSink(ctx, cfg.DSN)
	})
}

// Sink writes mirrored batches to a Postgres database.
type Sink struct {
	pool *pgxpool.Pool
}

// NewSink connects to Postgres and pings it so that configuration mistakes
// surface before the first batch rather than mid-run.
func NewSink(ctx context.Context, dsn string) (*Sink, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: DSN is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Sink{pool: pool}, nil
}

func (s *Sink) EnsureTable(ctx context.Context, c *schema.Contract) error {
	cols := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		col := f.Name + " " + pgType(f.Type)
		if f.Name == c.Key {
			col += " PRIMARY KEY"
		}
		cols = append(cols, col)
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", c.Table, strings.Join(cols, ", "))
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: ensure table %s: %w", c.Table, err)
	}
	return nil
}

// Upsert writes rows in one transaction using INSERT ... ON CONFLICT DO
// UPDATE keyed on the contract's natural key.
func (s *Sink) Upsert(ctx context.Context, c *schema.Contract, rows []*record.Record) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var written int64
	for _, r := range rows {
		q := upsertSQL(c, r.Columns())
		if _, err := tx.Exec(ctx, q, r.Values()...); err != nil {
			return written, fmt.Errorf("postgres: upsert into %s: %w", c.Table, err)
		}
		written++
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	return written, nil
}

func (s *Sink) Close() error {
	s.pool.Close()
	return nil
}

func upsertSQL(c *schema.Contract, cols []string) string {
	marks := make([]string, len(cols))
	sets := make([]string, 0, len(cols))
	for i, col := range cols {
		marks[i] = fmt.Sprintf("$%d", i+1)
		if col != c.Key {
			sets = append(sets, col+" = EXCLUDED."+col)
		}
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) ",
		c.Table, strings.Join(cols, ", "), strings.Join(marks, ", "), c.Key,
	)
	if len(sets) == 0 {
		return q + "DO NOTHING"
	}
	return q + "DO UPDATE SET " + strings.Join(sets, ", ")
}

func pgType(t string) string {
	switch t {
	case "integer":
		return "BIGINT"
	case "real":
		return "DOUBLE PRECISION"
	case "bool":
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}
