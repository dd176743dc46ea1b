// Package hfmeta generates the metadata.jsonl companion file for the sign
// image dataset, in the layout Hugging Face image datasets expect: one JSON
// object per line keyed by file_name, with the sign metadata alongside.
package hfmeta

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/source"
)

// Entry is one metadata.jsonl line.
type Entry struct {
	ImageID             string   `json:"image_id"`
	FileName            string   `json:"file_name"` // path relative to the dataset root
	Source              string   `json:"source"`
	ReferenceID         string   `json:"reference_id"`
	ExplanationFR       string   `json:"explanation_fr"`
	ExplanationEN       string   `json:"explanation_en"`
	Municipality        *string  `json:"municipality"`
	RealWorldConditions []string `json:"real_world_conditions"`
	IsSynthetic         bool     `json:"is_synthetic"`
	OriginalURL         string   `json:"original_url"`
}

// FromAsset maps one dataset row to its metadata entry. fileName is the
// image path as it appears in the CSV (relative to the dataset root), kept
// as-is rather than reduced to a basename.
func FromAsset(a source.Asset, fileName string) Entry {
	explFR := a.Explanation
	explEN := a.Explanation
	if explFR == "" {
		explFR = fmt.Sprintf("Panneau de signalisation du Québec: %s.", a.SignCode)
		explEN = fmt.Sprintf("Quebec road sign: %s.", a.SignCode)
	}
	return Entry{
		ImageID:             a.SignCode,
		FileName:            fileName,
		Source:              "digital_asset",
		ReferenceID:         a.SignCode,
		ExplanationFR:       explFR,
		ExplanationEN:       explEN,
		RealWorldConditions: []string{},
		OriginalURL:         a.SourceURL,
	}
}

// Write renders the dataset CSV from rd as metadata.jsonl on w and returns
// the number of entries written. Rows that fail validation are reported
// through onErr and skipped.
func Write(rd io.Reader, w io.Writer, onErr func(line int, err error)) (int, error) {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	var written int
	err := source.EachRow(rd, ',', func(line int, row source.Row) error {
		a, err := source.AssetFromRow(row)
		if err != nil {
			if onErr != nil {
				onErr(line, err)
			}
			return nil
		}
		if err := enc.Encode(FromAsset(a, row.Get("image"))); err != nil {
			return fmt.Errorf("hfmeta: encode line %d: %w", line, err)
		}
		written++
		return nil
	}, onErr)
	if err != nil {
		return written, err
	}
	return written, bw.Flush()
}
