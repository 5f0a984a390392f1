package analysis

import (
	"fmt"
	"math"

	"labourstat/pkg/records"
)

// Frame is a small column-oriented table handed to the presentation layer.
// A column is either text or numeric; numeric nulls are NaN. Frames are never
// modified after construction.
type Frame struct {
	cols []string
	n    int
	text map[string][]string
	num  map[string][]float64
}

func newFrame() Frame {
	return Frame{text: map[string][]string{}, num: map[string][]float64{}}
}

func (f *Frame) grow(name string, n int) {
	if len(f.cols) == 0 {
		f.n = n
	} else if n != f.n {
		panic(fmt.Sprintf("analysis: column %q has %d rows, frame has %d", name, n, f.n))
	}
	f.cols = append(f.cols, name)
}

func (f *Frame) addText(name string, vs []string) {
	f.grow(name, len(vs))
	f.text[name] = vs
}

func (f *Frame) addNum(name string, vs []float64) {
	f.grow(name, len(vs))
	f.num[name] = vs
}

// FromTable copies cols of t into a Frame. Numeric columns become float
// columns with NaN for nulls; key columns become text.
func FromTable(t records.Table, cols ...records.Column) Frame {
	f := newFrame()
	for _, c := range cols {
		if c.IsNumeric() {
			vs := make([]float64, t.Len())
			for i := range vs {
				v, ok := t.At(i).Number(c)
				if !ok {
					v = math.NaN()
				}
				vs[i] = v
			}
			f.addNum(string(c), vs)
			continue
		}
		vs := make([]string, t.Len())
		for i := range vs {
			vs[i], _ = t.At(i).Text(c)
		}
		f.addText(string(c), vs)
	}
	return f
}

// Len returns the number of rows.
func (f Frame) Len() int { return f.n }

// Columns returns the column names in order.
func (f Frame) Columns() []string { return append([]string(nil), f.cols...) }

// Has reports whether the frame carries column c.
func (f Frame) Has(c string) bool {
	_, t := f.text[c]
	_, n := f.num[c]
	return t || n
}

// IsNumeric reports whether c is a numeric column.
func (f Frame) IsNumeric(c string) bool {
	_, ok := f.num[c]
	return ok
}

// Strings returns a copy of text column c, or nil.
func (f Frame) Strings(c string) []string {
	vs, ok := f.text[c]
	if !ok {
		return nil
	}
	return append([]string(nil), vs...)
}

// Floats returns a copy of numeric column c, or nil.
func (f Frame) Floats(c string) []float64 {
	vs, ok := f.num[c]
	if !ok {
		return nil
	}
	return append([]float64(nil), vs...)
}

// Value returns row i of column c as a string or float64. NaN and unknown
// columns yield nil.
func (f Frame) Value(i int, c string) any {
	if vs, ok := f.text[c]; ok {
		return vs[i]
	}
	if vs, ok := f.num[c]; ok {
		if math.IsNaN(vs[i]) {
			return nil
		}
		return vs[i]
	}
	return nil
}

// Rows returns a new Frame holding the rows i for which keep(i) reports true.
func (f Frame) Rows(keep func(i int) bool) Frame {
	var idx []int
	for i := 0; i < f.n; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	out := newFrame()
	for _, c := range f.cols {
		if vs, ok := f.num[c]; ok {
			sel := make([]float64, len(idx))
			for j, i := range idx {
				sel[j] = vs[i]
			}
			out.addNum(c, sel)
			continue
		}
		vs := f.text[c]
		sel := make([]string, len(idx))
		for j, i := range idx {
			sel[j] = vs[i]
		}
		out.addText(c, sel)
	}
	return out
}

// Partition is the subset of a frame sharing one value of a text column.
type Partition struct {
	Key   string
	Frame Frame
}

// Split partitions f by text column c. Keys listed in order come first in that
// order; remaining keys follow in first-seen order.
func (f Frame) Split(c string, order []string) []Partition {
	vs := f.text[c]
	var keys []string
	seen := map[string]bool{}
	for _, k := range order {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	present := map[string]bool{}
	for _, v := range vs {
		present[v] = true
		if !seen[v] {
			seen[v] = true
			keys = append(keys, v)
		}
	}
	out := make([]Partition, 0, len(keys))
	for _, k := range keys {
		if !present[k] {
			continue
		}
		k := k
		out = append(out, Partition{Key: k, Frame: f.Rows(func(i int) bool { return vs[i] == k })})
	}
	return out
}
