package dataset

import (
	"math"
)

// Kind is the inferred value type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindDatetime    Kind = "datetime"
	KindCategorical Kind = "categorical"
	KindText        Kind = "text"
	KindUnknown     Kind = "unknown"
)

// Column holds one column's raw values plus typed projections. Floats is
// row-aligned with NaN in missing or non-numeric cells.
type Column struct {
	Name    string
	Unit    string
	Kind    Kind
	Raw     []string
	Floats  []float64
	Missing int
	Unique  int
}

// Values returns the column's parsed numeric values with missing cells
// dropped.
func (c *Column) Values() []float64 {
	out := make([]float64, 0, len(c.Floats))
	for _, v := range c.Floats {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// MissingRatio returns the fraction of missing cells in the column.
func (c *Column) MissingRatio() float64 {
	if len(c.Raw) == 0 {
		return 0
	}
	return float64(c.Missing) / float64(len(c.Raw))
}

// Frame is the in-memory dataset handle passed to every plugin. Plugins must
// treat it as read-only.
type Frame struct {
	Name          string
	Rows          int
	Columns       []Column
	DuplicateRows int
	Target        string
}

// Column returns the named column.
func (f *Frame) Column(name string) (*Column, bool) {
	for i := range f.Columns {
		if f.Columns[i].Name == name {
			return &f.Columns[i], true
		}
	}
	return nil, false
}

// NumericColumns returns the columns inferred as numeric, in frame order.
func (f *Frame) NumericColumns() []*Column {
	var out []*Column
	for i := range f.Columns {
		if f.Columns[i].Kind == KindNumeric {
			out = append(out, &f.Columns[i])
		}
	}
	return out
}

// ColumnMeta is the per-column slice of dataset metadata carried in the
// analysis context.
type ColumnMeta struct {
	Name    string  `json:"name"`
	Kind    Kind    `json:"kind"`
	Unit    string  `json:"unit,omitempty"`
	Missing int     `json:"missing"`
	Ratio   float64 `json:"missing_ratio"`
	Unique  int     `json:"unique,omitempty"`
}

// Meta is the dataset-level metadata captured once per run.
type Meta struct {
	Name          string       `json:"name"`
	Rows          int          `json:"rows"`
	Cols          int          `json:"cols"`
	DuplicateRows int          `json:"duplicate_rows"`
	Target        string       `json:"target,omitempty"`
	Columns       []ColumnMeta `json:"columns"`
}

// Meta derives run metadata from the frame.
func (f *Frame) Meta() Meta {
	m := Meta{
		Name:          f.Name,
		Rows:          f.Rows,
		Cols:          len(f.Columns),
		DuplicateRows: f.DuplicateRows,
		Target:        f.Target,
		Columns:       make([]ColumnMeta, 0, len(f.Columns)),
	}
	for i := range f.Columns {
		c := &f.Columns[i]
		m.Columns = append(m.Columns, ColumnMeta{
			Name:    c.Name,
			Kind:    c.Kind,
			Unit:    c.Unit,
			Missing: c.Missing,
			Ratio:   c.MissingRatio(),
			Unique:  c.Unique,
		})
	}
	return m
}

// Completeness returns 1 minus the mean missing ratio across the named
// columns; with no names it covers the whole frame.
func (m Meta) Completeness(columns ...string) float64 {
	var sum float64
	var n int
	for _, cm := range m.Columns {
		if len(columns) > 0 && !contains(columns, cm.Name) {
			continue
		}
		sum += cm.Ratio
		n++
	}
	if n == 0 {
		return 1
	}
	return 1 - sum/float64(n)
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
