// Package opendata maps Montreal open-data CSV rows onto destination
// records: signalisation poles, physical sign placements, roadwork permits
// and their per-street impacts, and taxi stands.
//
// Column names on the left of each mapping are the destination schema's;
// the row keys are the export's original (mostly French) headers. Optional
// cells map empty values to nil so they land as NULL, never as "".
package opendata

import (
	"fmt"
	"strconv"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/source"
)

// defaultMunicipality is used when an export row does not carry a borough.
const defaultMunicipality = "Montreal"

func optText(row source.Row, key string) any {
	if v := row.Get(key); v != "" {
		return v
	}
	return nil
}

func reqFloat(row source.Row, key string) (float64, error) {
	v := row.Get(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func optFloat(row source.Row, key string) (any, error) {
	v := row.Get(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func optInt(row source.Row, key string) (any, error) {
	v := row.Get(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// flag reports whether the cell holds the export's literal "true".
func flag(row source.Row, key string) bool {
	return row.Get(key) == "true"
}

// numFlag interprets a numeric 0/1 cell; empty means false.
func numFlag(row source.Row, key string) (bool, error) {
	v := row.Get(key)
	if v == "" {
		return false, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return n != 0, nil
}
