package source

import (
	"strings"
	"testing"
	"time"
)

const photoLines = `
{"image_path":"/p/1.jpg","sign_code":"P-120","source":"real_world_photo","latitude":45.5,"longitude":-73.6,"municipality":"Montreal","real_world_conditions":["snow","night"],"is_synthetic":false}

{"image_path":"/p/2.jpg","sign_code":"P-130","source":"synthetic_diffusion","is_synthetic":true}
not json at all
{"image_path":"","sign_code":"P-140","source":"real_world_photo"}
`

/*
TestEachPhoto verifies JSON-lines streaming: blank lines skipped, a garbage
line reported through onErr and skipped, and every decodable object passed to
the callback with its 1-based line number.
*/
func TestEachPhoto(t *testing.T) {
	var photos []Photo
	var lines, badLines []int

	err := EachPhoto(strings.NewReader(photoLines), func(line int, p Photo) error {
		photos = append(photos, p)
		lines = append(lines, line)
		return nil
	}, func(line int, err error) {
		badLines = append(badLines, line)
	})
	if err != nil {
		t.Fatalf("EachPhoto: %v", err)
	}

	if len(photos) != 3 {
		t.Fatalf("photos=%d; want 3 decodable objects", len(photos))
	}
	if len(badLines) != 1 || badLines[0] != 5 {
		t.Fatalf("badLines=%v; want line 5 reported", badLines)
	}
	if photos[0].SignCode != "P-120" || *photos[0].Latitude != 45.5 {
		t.Fatalf("first photo=%+v", photos[0])
	}
	if !photos[1].IsSynthetic {
		t.Fatalf("second photo=%+v; want synthetic", photos[1])
	}
}

func TestPhoto_Validate(t *testing.T) {
	ok := Photo{ImagePath: "/p/1.jpg", SignCode: "P-120", Source: "real_world_photo"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cases := []Photo{
		{SignCode: "P-120", Source: "s"},
		{ImagePath: "/p/1.jpg", Source: "s"},
		{ImagePath: "/p/1.jpg", SignCode: "P-120"},
	}
	for i, p := range cases {
		if err := p.Validate(); err == nil {
			t.Errorf("case %d: Validate accepted %+v", i, p)
		}
	}
}

/*
TestPhoto_Record checks the destination mapping details: conditions as a
JSON-encoded array (empty array, never null), optional scalars as NULL, and
the captured timestamp in the schema's layout.
*/
func TestPhoto_Record(t *testing.T) {
	lat := 45.5
	p := Photo{
		ImagePath:  "/p/1.jpg",
		SignCode:   "P-120",
		Source:     "real_world_photo",
		Latitude:   &lat,
		Conditions: []string{"snow", "night"},
	}
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	r, err := p.Record("id-1", "https://img/x", at)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if v, _ := r.Get("real_world_conditions"); v != `["snow","night"]` {
		t.Fatalf("conditions=%v; want JSON array string", v)
	}
	if v, _ := r.Get("captured_date"); v != "2026-03-14 15:09:26" {
		t.Fatalf("captured_date=%v", v)
	}
	if v, _ := r.Get("latitude"); v != 45.5 {
		t.Fatalf("latitude=%v", v)
	}
	if v, ok := r.Get("longitude"); !ok || v != nil {
		t.Fatalf("longitude=%v,%v; want NULL for absent coordinate", v, ok)
	}
	if v, ok := r.Get("municipality"); !ok || v != nil {
		t.Fatalf("municipality=%v,%v; want NULL for empty string", v, ok)
	}

	// No conditions at all still serializes as an empty array.
	p.Conditions = nil
	r, err = p.Record("id-2", "u", at)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if v, _ := r.Get("real_world_conditions"); v != "[]" {
		t.Fatalf("conditions=%v; want []", v)
	}
}
