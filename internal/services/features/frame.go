package features

import (
	"fmt"
	"math"
)

// Frame is a column-oriented table of float64 series sharing one length.
// Missing values are NaN. Column order is insertion order, which keeps the
// model input layout stable across runs.
type Frame struct {
	names []string
	cols  map[string][]float64
	n     int
}

// NewFrame creates an empty frame for n rows.
func NewFrame(n int) *Frame {
	return &Frame{cols: make(map[string][]float64), n: n}
}

// Len returns the row count.
func (f *Frame) Len() int { return f.n }

// Names returns the column names in insertion order.
func (f *Frame) Names() []string { return f.names }

// Has reports whether the named column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Col returns the named column, or nil when absent.
func (f *Frame) Col(name string) []float64 { return f.cols[name] }

// Set stores a column, replacing any existing one with the same name.
func (f *Frame) Set(name string, col []float64) {
	if len(col) != f.n {
		panic(fmt.Sprintf("features: column %q has %d rows, frame has %d", name, len(col), f.n))
	}
	if _, ok := f.cols[name]; !ok {
		f.names = append(f.names, name)
	}
	f.cols[name] = col
}

// Backfill replaces each NaN with the next non-NaN value below it, per column.
// Trailing NaN runs are left in place.
func (f *Frame) Backfill() {
	for _, col := range f.cols {
		next := math.NaN()
		for i := len(col) - 1; i >= 0; i-- {
			if math.IsNaN(col[i]) {
				col[i] = next
			} else {
				next = col[i]
			}
		}
	}
}

// FillZero replaces any remaining NaN with 0, per column.
func (f *Frame) FillZero() {
	for _, col := range f.cols {
		for i, v := range col {
			if math.IsNaN(v) {
				col[i] = 0
			}
		}
	}
}

// Present filters names down to the columns that exist in the frame,
// preserving the given order.
func (f *Frame) Present(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if f.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

// Row extracts one row across the given columns.
func (f *Frame) Row(i int, names []string) ([]float64, error) {
	if i < 0 || i >= f.n {
		return nil, fmt.Errorf("features: row %d out of range [0, %d)", i, f.n)
	}
	out := make([]float64, len(names))
	for j, name := range names {
		col, ok := f.cols[name]
		if !ok {
			return nil, fmt.Errorf("features: unknown column %q", name)
		}
		out[j] = col[i]
	}
	return out, nil
}

// Matrix extracts all rows across the given columns.
func (f *Frame) Matrix(names []string) ([][]float64, error) {
	out := make([][]float64, f.n)
	for i := range out {
		row, err := f.Row(i, names)
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}
