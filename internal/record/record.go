// Package record defines the normalized row representation shared by every
// ingestion source. A Record is an ordered mapping from column name to a
// scalar value; order is preserved so that the column list and value list used
// to render a statement always line up.
//
// Supported value types are: string, bool, int/int64, float64, and nil
// (rendered as SQL NULL). JSON-encoded arrays are carried as plain strings.
package record

// Record is an ordered column → scalar mapping. The zero value is usable.
//
// Set keeps first-insertion order; setting an existing column replaces its
// value in place. Records are not safe for concurrent use.
type Record struct {
	cols []string
	vals []any
	idx  map[string]int
}

// New returns a Record with capacity for n columns.
func New(n int) *Record {
	return &Record{
		cols: make([]string, 0, n),
		vals: make([]any, 0, n),
		idx:  make(map[string]int, n),
	}
}

// Set assigns v to column col, appending the column on first use. Integer
// values are normalized to int64. Unsupported value types are stored as-is and
// rejected later when the statement is built, so that sources can stay
// error-free.
func (r *Record) Set(col string, v any) *Record {
	if n, ok := v.(int); ok {
		v = int64(n)
	}
	if r.idx == nil {
		r.idx = make(map[string]int)
	}
	if i, ok := r.idx[col]; ok {
		r.vals[i] = v
		return r
	}
	r.idx[col] = len(r.cols)
	r.cols = append(r.cols, col)
	r.vals = append(r.vals, v)
	return r
}

// Get returns the value stored under col and whether the column is present.
func (r *Record) Get(col string) (any, bool) {
	i, ok := r.idx[col]
	if !ok {
		return nil, false
	}
	return r.vals[i], true
}

// Len reports the number of columns set on the record.
func (r *Record) Len() int { return len(r.cols) }

// Columns returns the column names in insertion order. The returned slice is
// owned by the record and must not be mutated.
func (r *Record) Columns() []string { return r.cols }

// Values returns the values aligned with Columns. The returned slice is owned
// by the record and must not be mutated.
func (r *Record) Values() []any { return r.vals }

// Supported reports whether v is one of the scalar types a record may carry.
func Supported(v any) bool {
	switch v.(type) {
	case nil, string, bool, int64, float64:
		return true
	}
	return false
}
