// Package sqlgen renders normalized records into idempotent upsert statements
// for the remote database. Statements use INSERT OR REPLACE so that re-running
// an ingestion over the same source is safe: rows are replaced by natural key,
// never appended.
package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/darleison-rodrigues/route-quebec-worker/internal/record"
	"github.com/darleison-rodrigues/route-quebec-worker/internal/schema"
)

// Statement is an immutable upsert statement, without a trailing separator.
type Statement string

// ValidationError reports a record that cannot be rendered against a table
// contract. Invalid records are rejected here rather than shipped as wrong
// literals.
type ValidationError struct {
	Table  string
	Column string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("sqlgen: %s: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("sqlgen: %s.%s: %s", e.Table, e.Column, e.Reason)
}

// Build renders r as an upsert statement for the table described by c.
//
// Every value is rendered as a quoted literal with embedded single quotes
// doubled, except nil which renders as unquoted NULL. Bools render as '1'/'0'.
// Column order follows the record's insertion order.
//
// Build fails when the record is empty, names a column the contract does not
// declare, omits the table's natural key, or carries an unsupported value
// type. Columns the record omits are left to the remote default (NULL).
func Build(c *schema.Contract, r *record.Record) (Statement, error) {
	if r == nil || r.Len() == 0 {
		return "", &ValidationError{Table: c.Table, Reason: "empty record"}
	}

	cols := r.Columns()
	vals := r.Values()

	for _, col := range cols {
		if !c.HasColumn(col) {
			return "", &ValidationError{Table: c.Table, Column: col, Reason: "unknown column"}
		}
	}
	if key, ok := r.Get(c.Key); !ok || key == nil {
		return "", &ValidationError{Table: c.Table, Column: c.Key, Reason: "natural key missing"}
	}

	var b strings.Builder
	b.Grow(64 + 24*len(cols))
	b.WriteString("INSERT OR REPLACE INTO ")
	b.WriteString(c.Table)
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES (")
	for i, v := range vals {
		if i > 0 {
			b.WriteString(", ")
		}
		lit, err := literal(v)
		if err != nil {
			return "", &ValidationError{Table: c.Table, Column: cols[i], Reason: err.Error()}
		}
		b.WriteString(lit)
	}
	b.WriteString(")")
	return Statement(b.String()), nil
}

// literal renders a single scalar as a SQL literal.
func literal(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", nil
	case bool:
		if x {
			return "'1'", nil
		}
		return "'0'", nil
	case int64:
		return "'" + strconv.FormatInt(x, 10) + "'", nil
	case float64:
		return "'" + strconv.FormatFloat(x, 'g', -1, 64) + "'", nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
