// Package schema declares the column contracts for the destination tables.
// The remote schema is an external contract: the statement builder rejects
// unknown columns and requires the natural key to be present on every record.
package schema

// Field describes one destination column.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"` // "text" | "integer" | "real" | "bool"
}

// Contract describes one destination table: its name, the natural key used
// for replace-by-key upserts, and the full ordered column set.
type Contract struct {
	Table  string  `json:"table"`
	Key    string  `json:"key"`
	Fields []Field `json:"fields"`

	byName map[string]Field
}

// HasColumn reports whether name is a declared column of the table.
func (c *Contract) HasColumn(name string) bool {
	_, ok := c.lookup()[name]
	return ok
}

// FieldByName returns the field declaration for name, if declared.
func (c *Contract) FieldByName(name string) (Field, bool) {
	f, ok := c.lookup()[name]
	return f, ok
}

// Columns returns the declared column names in order.
func (c *Contract) Columns() []string {
	out := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = f.Name
	}
	return out
}

func (c *Contract) lookup() map[string]Field {
	if c.byName == nil {
		c.byName = make(map[string]Field, len(c.Fields))
		for _, f := range c.Fields {
			c.byName[f.Name] = f
		}
	}
	return c.byName
}
