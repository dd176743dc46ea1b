package source

import (
	"strings"
	"testing"
)

func TestAssetFromRow(t *testing.T) {
	row := Row{
		"reference_id": "P-120-3",
		"image":        "images/P-120-3-fr.png",
		"explanation":  "Stationnement interdit",
		"url":          "https://example.org/p-120",
	}
	a, err := AssetFromRow(row)
	if err != nil {
		t.Fatalf("AssetFromRow: %v", err)
	}
	if a.SignCode != "P-120-3" || a.ImageFile != "P-120-3-fr.png" {
		t.Fatalf("asset=%+v; want image reduced to basename", a)
	}
	if a.Explanation != "Stationnement interdit" || a.SourceURL != "https://example.org/p-120" {
		t.Fatalf("asset=%+v", a)
	}
}

func TestAssetFromRow_Required(t *testing.T) {
	if _, err := AssetFromRow(Row{"image": "x.png"}); err == nil {
		t.Fatalf("missing reference_id accepted")
	}
	if _, err := AssetFromRow(Row{"reference_id": "P-1"}); err == nil {
		t.Fatalf("missing image accepted")
	}
}

/*
TestAsset_Record verifies the sign_definitions mapping, in particular the
bilingual placeholder: when the dataset has no explanation the French and
English texts are derived from the sign code and differ from each other.
*/
func TestAsset_Record(t *testing.T) {
	a := Asset{SignCode: "P-120-3", ImageFile: "x.png"}
	r := a.Record("https://imagedelivery.net/x/public")

	fr, _ := r.Get("explanation_fr")
	en, _ := r.Get("explanation_en")
	if !strings.Contains(fr.(string), "P-120-3") || !strings.Contains(en.(string), "P-120-3") {
		t.Fatalf("placeholders fr=%q en=%q; want sign code embedded", fr, en)
	}
	if fr == en {
		t.Fatalf("placeholder is not bilingual: %q", fr)
	}

	if url, _ := r.Get("original_digital_asset_url"); url != "https://imagedelivery.net/x/public" {
		t.Fatalf("url=%v", url)
	}
	if v, ok := r.Get("category"); !ok || v != nil {
		t.Fatalf("category=%v,%v; want explicit NULL", v, ok)
	}

	// A carried explanation is used verbatim for both languages.
	a.Explanation = "Arrêt interdit"
	r = a.Record("u")
	fr, _ = r.Get("explanation_fr")
	en, _ = r.Get("explanation_en")
	if fr != "Arrêt interdit" || en != "Arrêt interdit" {
		t.Fatalf("fr=%q en=%q; want dataset explanation verbatim", fr, en)
	}
}
