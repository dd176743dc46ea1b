// Package source turns raw inputs (government open-data CSV exports, the
// scraped asset dataset, photo metadata files) into normalized records for
// the ingestion pipelines. Parsing here is deliberately tolerant: open-data
// exports routinely carry BOMs, unescaped quotes, and ragged rows.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const utf8BOM = "\uFEFF"

// Row is one headered CSV row: header name → cell value. Values are
// whitespace-trimmed and Unicode-normalized.
type Row map[string]string

// Get returns the trimmed value for key, or "" when the column is absent or
// empty.
func (r Row) Get(key string) string { return r[key] }

// GetOr returns the value for key, or def when absent or empty.
func (r Row) GetOr(key, def string) string {
	if v := r[key]; v != "" {
		return v
	}
	return def
}

// EachRow streams headered CSV rows from rd, calling fn for every data row
// with its 1-based line number (the header is line 1). Rows shorter than the
// header are padded with empty cells; longer rows are truncated.
//
// Malformed lines are reported through onErr (when non-nil) and skipped, so
// one bad row never aborts a whole export.
func EachRow(rd io.Reader, delim rune, fn func(line int, row Row) error, onErr func(line int, err error)) error {
	cr := csv.NewReader(rd)
	if delim != 0 {
		cr.Comma = delim
	}
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		names[i] = h
	}

	line := 1
	for {
		rec, err := cr.Read()
		line++
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				if onErr != nil {
					onErr(line, err)
				}
				continue
			}
			return fmt.Errorf("read line %d: %w", line, err)
		}

		row := make(Row, len(names))
		for i, name := range names {
			if name == "" {
				continue
			}
			if i < len(rec) {
				row[name] = NormalizeText(strings.TrimSpace(rec[i]))
			} else {
				row[name] = ""
			}
		}
		if err := fn(line, row); err != nil {
			return err
		}
	}
}
