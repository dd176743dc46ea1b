package source

import (
	"errors"
	"strings"
	"testing"
)

/*
TestEachRow_Tolerance feeds the parser the kind of CSV the open-data portal
actually serves: a BOM on the header, ragged rows, and whitespace around
cells. Short rows must be padded, long rows truncated, and line numbers must
count the header as line 1.
*/
func TestEachRow_Tolerance(t *testing.T) {
	in := "\uFEFFPOTEAU_ID_POT,LATITUDE,NOM_ARROND\n" +
		"P1, 45.5 ,Ville-Marie\n" +
		"P2,45.6\n" +
		"P3,45.7,Rosemont,extra-cell\n"

	type seen struct {
		line int
		row  Row
	}
	var rows []seen
	err := EachRow(strings.NewReader(in), ',', func(line int, row Row) error {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		rows = append(rows, seen{line, cp})
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("EachRow: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("rows=%d; want 3", len(rows))
	}
	if rows[0].line != 2 || rows[2].line != 4 {
		t.Fatalf("lines=%d,%d; want header counted as line 1", rows[0].line, rows[2].line)
	}

	// BOM stripped from the first header name.
	if got := rows[0].row.Get("POTEAU_ID_POT"); got != "P1" {
		t.Fatalf("first column=%q; want BOM-stripped header to resolve", got)
	}
	// Whitespace trimmed.
	if got := rows[0].row.Get("LATITUDE"); got != "45.5" {
		t.Fatalf("latitude=%q; want trimmed", got)
	}
	// Short row padded with empty cell.
	if got, ok := rows[1].row["NOM_ARROND"]; !ok || got != "" {
		t.Fatalf("padded cell=%q,%v; want empty present", got, ok)
	}
	// Long row truncated to the header width.
	if len(rows[2].row) != 3 {
		t.Fatalf("row width=%d; want 3", len(rows[2].row))
	}
}

// Stray quotes inside cells are a recurring defect of the portal's exports.
// LazyQuotes must carry them through as data instead of failing the row.
func TestEachRow_StrayQuotes(t *testing.T) {
	in := "a,b\nl'eau \"dure\",2\n"

	var got []Row
	err := EachRow(strings.NewReader(in), ',', func(line int, row Row) error {
		got = append(got, Row{"a": row.Get("a"), "b": row.Get("b")})
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("EachRow: %v", err)
	}
	if len(got) != 1 || got[0].Get("a") != `l'eau "dure"` || got[0].Get("b") != "2" {
		t.Fatalf("rows=%v; want stray quotes preserved as data", got)
	}
}

func TestEachRow_CallbackErrorAborts(t *testing.T) {
	in := "a\n1\n2\n"
	calls := 0
	err := EachRow(strings.NewReader(in), ',', func(line int, row Row) error {
		calls++
		return errTest
	}, nil)
	if err != errTest || calls != 1 {
		t.Fatalf("err=%v calls=%d; want callback error to abort immediately", err, calls)
	}
}

var errTest = errors.New("stop")

func TestEachRow_Delimiter(t *testing.T) {
	in := "x;y\n1;2\n"
	var count int
	err := EachRow(strings.NewReader(in), ';', func(line int, row Row) error {
		count++
		if row.Get("x") != "1" || row.Get("y") != "2" {
			t.Fatalf("row=%v", row)
		}
		return nil
	}, nil)
	if err != nil || count != 1 {
		t.Fatalf("err=%v count=%d", err, count)
	}
}

func TestRowGetOr(t *testing.T) {
	r := Row{"a": "x", "b": ""}
	if r.GetOr("a", "d") != "x" || r.GetOr("b", "d") != "d" || r.GetOr("c", "d") != "d" {
		t.Fatalf("GetOr wrong: %v", r)
	}
}

func TestNormalizeText(t *testing.T) {
	// NFD "é" (e + combining acute) composes to NFC "é".
	decomposed := "Montréal"
	if got := NormalizeText(decomposed); got != "Montréal" {
		t.Fatalf("NFC=%q; want Montréal", got)
	}
	// Zero-width no-break space (stray BOM) removed mid-string.
	if got := NormalizeText("Qu\uFEFFébec"); got != "Québec" {
		t.Fatalf("format rune kept: %q", got)
	}
}
