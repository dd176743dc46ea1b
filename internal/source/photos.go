package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/record"
)

// Photo is one real-world sign photograph with its collected metadata. The
// photo pipeline reads these as JSON lines from a file or stdin, so the same
// records can come from a form submission, a batch export, or a hand-written
// file; nothing in the pipeline depends on a terminal.
type Photo struct {
	ImagePath         string   `json:"image_path"`
	SignCode          string   `json:"sign_code"`
	Source            string   `json:"source"` // real_world_photo | synthetic_diffusion | google_street_view_screenshot
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	Municipality      string   `json:"municipality,omitempty"`
	Conditions        []string `json:"real_world_conditions,omitempty"`
	IsSynthetic       bool     `json:"is_synthetic"`
	RelatedInstanceID string   `json:"related_montreal_instance_id,omitempty"`
}

// Validate checks the fields the destination schema requires.
func (p Photo) Validate() error {
	if p.ImagePath == "" {
		return fmt.Errorf("photo: image_path is required")
	}
	if p.SignCode == "" {
		return fmt.Errorf("photo %s: sign_code is required", p.ImagePath)
	}
	if p.Source == "" {
		return fmt.Errorf("photo %s: source is required", p.ImagePath)
	}
	return nil
}

// EachPhoto streams JSON-line photo entries from rd, calling fn with the
// 1-based line number. Blank lines are skipped; a malformed line is reported
// through onErr and skipped.
func EachPhoto(rd io.Reader, fn func(line int, p Photo) error, onErr func(line int, err error)) error {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var p Photo
		if err := json.Unmarshal([]byte(text), &p); err != nil {
			if onErr != nil {
				onErr(line, fmt.Errorf("decode photo: %w", err))
			}
			continue
		}
		if err := fn(line, p); err != nil {
			return err
		}
	}
	return sc.Err()
}

// Record builds the real_sign_photos record for an uploaded photo.
// real_world_conditions is stored as a JSON-encoded string array.
func (p Photo) Record(photoID, imageURL string, capturedAt time.Time) (*record.Record, error) {
	conds := p.Conditions
	if conds == nil {
		conds = []string{}
	}
	condJSON, err := json.Marshal(conds)
	if err != nil {
		return nil, fmt.Errorf("photo %s: encode conditions: %w", p.ImagePath, err)
	}

	r := record.New(11).
		Set("photo_id", photoID).
		Set("sign_code", p.SignCode).
		Set("image_url", imageURL).
		Set("source", p.Source).
		Set("latitude", floatOrNil(p.Latitude)).
		Set("longitude", floatOrNil(p.Longitude)).
		Set("municipality", textOrNil(p.Municipality)).
		Set("real_world_conditions", string(condJSON)).
		Set("is_synthetic", p.IsSynthetic).
		Set("captured_date", capturedAt.Format("2006-01-02 15:04:05")).
		Set("related_montreal_instance_id", textOrNil(p.RelatedInstanceID))
	return r, nil
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func textOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
