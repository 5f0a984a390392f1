package transformer

import (
	"strings"

	"labourstat/internal/schema"
	"labourstat/pkg/records"
)

// NullCount is the number of empty cells in one column.
type NullCount struct {
	Column records.Column
	Count  int
}

// NullReport holds per-column null counts over the raw normalized frame, in
// column order. It is observability output only.
type NullReport struct {
	Rows   int
	Counts []NullCount
}

// Of returns the count for c.
func (r NullReport) Of(c records.Column) int {
	for _, nc := range r.Counts {
		if nc.Column == c {
			return nc.Count
		}
	}
	return 0
}

// Total returns the sum of all null cells.
func (r NullReport) Total() int {
	n := 0
	for _, nc := range r.Counts {
		n += nc.Count
	}
	return n
}

// CountNulls counts blank cells per column of f. Whitespace-only cells count
// as null.
func CountNulls(f schema.Frame) NullReport {
	rep := NullReport{Rows: len(f.Rows), Counts: make([]NullCount, len(f.Columns))}
	for i, c := range f.Columns {
		rep.Counts[i].Column = c
	}
	for _, row := range f.Rows {
		for i := range f.Columns {
			if i >= len(row.Fields) || strings.TrimSpace(row.Fields[i]) == "" {
				rep.Counts[i].Count++
			}
		}
	}
	return rep
}
