package source

import (
	"fmt"
	"path/filepath"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/record"
)

// Asset is one row of the scraped provincial sign dataset (dataset.csv):
// a canonical sign code with its reference image and optional explanation.
type Asset struct {
	SignCode    string
	ImageFile   string // basename of the local reference image
	Explanation string
	SourceURL   string
}

// AssetFromRow maps a dataset.csv row onto an Asset.
func AssetFromRow(row Row) (Asset, error) {
	a := Asset{
		SignCode:    row.Get("reference_id"),
		Explanation: row.Get("explanation"),
		SourceURL:   row.Get("url"),
	}
	if a.SignCode == "" {
		return Asset{}, fmt.Errorf("dataset row: reference_id is required")
	}
	img := row.Get("image")
	if img == "" {
		return Asset{}, fmt.Errorf("dataset row %s: image is required", a.SignCode)
	}
	a.ImageFile = filepath.Base(img)
	return a, nil
}

// Record builds the sign_definitions record for the asset, pointing at the
// uploaded image's public URL. When the dataset carries no explanation, a
// bilingual placeholder derived from the sign code is used.
func (a Asset) Record(imageURL string) *record.Record {
	explFR := a.Explanation
	explEN := a.Explanation
	if explFR == "" {
		explFR = fmt.Sprintf("Panneau de signalisation du Québec: %s.", a.SignCode)
		explEN = fmt.Sprintf("Quebec road sign: %s.", a.SignCode)
	}
	return record.New(8).
		Set("sign_code", a.SignCode).
		Set("explanation_fr", explFR).
		Set("explanation_en", explEN).
		Set("category", nil).
		Set("rpa_description", nil).
		Set("rpa_code", nil).
		Set("rtp_description", nil).
		Set("original_digital_asset_url", imageURL)
}
