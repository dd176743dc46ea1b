package schema

import "testing"

/*
TestContracts_WellFormed guards the declared contracts against editing
mistakes: every table has a name and a natural key, the key is one of the
declared columns, column names are unique, and every field carries a known
type.
*/
func TestContracts_WellFormed(t *testing.T) {
	validTypes := map[string]bool{"text": true, "integer": true, "real": true, "bool": true}
	tables := map[string]bool{}

	for _, c := range All {
		if c.Table == "" {
			t.Fatalf("contract with empty table name")
		}
		if tables[c.Table] {
			t.Fatalf("%s: duplicate table", c.Table)
		}
		tables[c.Table] = true

		if c.Key == "" {
			t.Errorf("%s: no natural key", c.Table)
		}
		if !c.HasColumn(c.Key) {
			t.Errorf("%s: key %q is not a declared column", c.Table, c.Key)
		}

		seen := map[string]bool{}
		for _, f := range c.Fields {
			if f.Name == "" {
				t.Errorf("%s: field with empty name", c.Table)
			}
			if seen[f.Name] {
				t.Errorf("%s: duplicate column %q", c.Table, f.Name)
			}
			seen[f.Name] = true
			if !validTypes[f.Type] {
				t.Errorf("%s.%s: unknown type %q", c.Table, f.Name, f.Type)
			}
		}
	}
}

func TestContract_Lookup(t *testing.T) {
	c := &SignDefinitions
	if !c.HasColumn("sign_code") || c.HasColumn("nope") {
		t.Fatalf("HasColumn wrong")
	}
	f, ok := c.FieldByName("explanation_fr")
	if !ok || f.Type != "text" {
		t.Fatalf("FieldByName=%+v,%v", f, ok)
	}
	cols := c.Columns()
	if len(cols) != len(c.Fields) || cols[0] != "sign_code" {
		t.Fatalf("columns=%v", cols)
	}
}
