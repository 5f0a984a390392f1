// Package aggregate groups a records.Table by categorical key columns and
// reduces numeric columns per group.
//
// Null values never take part in a reduction. A group with no eligible value
// for a column reduces to NaN; the NaN is propagated to callers as-is.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"labourstat/pkg/records"
)

// Reducer is one of the fixed reduction functions.
type Reducer string

const (
	Mean   Reducer = "mean"
	Sum    Reducer = "sum"
	Min    Reducer = "min"
	Max    Reducer = "max"
	Median Reducer = "median"
	StdDev Reducer = "std"
	Count  Reducer = "count"
)

// ErrNoGroupBy is returned when no grouping column is given.
var ErrNoGroupBy = errors.New("aggregate: at least one group-by column is required")

// Row is one output group. Key holds the group-by values in the order the
// columns were given.
type Row struct {
	Key    []string
	Values map[records.Column]float64
	// Count is the number of records in the group, null values included.
	Count int
}

// KeyString joins Key with " / " for display.
func (r Row) KeyString() string { return strings.Join(r.Key, " / ") }

// By groups t by groupBy and applies reduce to every group. Output rows are in
// first-seen key order.
func By(t records.Table, groupBy []records.Column, reduce map[records.Column]Reducer) ([]Row, error) {
	if len(groupBy) == 0 {
		return nil, ErrNoGroupBy
	}
	for _, c := range groupBy {
		if !c.Known() {
			return nil, fmt.Errorf("aggregate: unknown column %q", c)
		}
		if !c.IsKey() {
			return nil, fmt.Errorf("aggregate: column %q cannot be a group-by key", c)
		}
	}
	cols := make([]records.Column, 0, len(reduce))
	for c, fn := range reduce {
		if !c.Known() {
			return nil, fmt.Errorf("aggregate: unknown column %q", c)
		}
		if !c.IsNumeric() {
			return nil, fmt.Errorf("aggregate: column %q is not numeric", c)
		}
		if !fn.valid() {
			return nil, fmt.Errorf("aggregate: unknown reducer %q for %q", fn, c)
		}
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })

	type group struct {
		key    []string
		count  int
		values map[records.Column][]float64
	}
	index := make(map[string]int)
	var groups []*group

	t.Each(func(r records.Record) {
		key := make([]string, len(groupBy))
		for i, c := range groupBy {
			key[i], _ = r.Text(c)
		}
		id := strings.Join(key, "\x1f")
		gi, ok := index[id]
		if !ok {
			gi = len(groups)
			index[id] = gi
			groups = append(groups, &group{key: key, values: make(map[records.Column][]float64, len(cols))})
		}
		g := groups[gi]
		g.count++
		for _, c := range cols {
			if v, ok := r.Number(c); ok {
				g.values[c] = append(g.values[c], v)
			}
		}
	})

	out := make([]Row, len(groups))
	for i, g := range groups {
		row := Row{Key: g.key, Count: g.count, Values: make(map[records.Column]float64, len(cols))}
		for _, c := range cols {
			row.Values[c] = reduce[c].apply(g.values[c])
		}
		out[i] = row
	}
	return out, nil
}

// MeanBy is By with Mean applied to every column in cols.
func MeanBy(t records.Table, groupBy []records.Column, cols ...records.Column) ([]Row, error) {
	reduce := make(map[records.Column]Reducer, len(cols))
	for _, c := range cols {
		reduce[c] = Mean
	}
	return By(t, groupBy, reduce)
}

// SortBy sorts rows in place by the value of c, NaN last. desc reverses the
// order of non-NaN values. Ties keep their relative order.
func SortBy(rows []Row, c records.Column, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Values[c], rows[j].Values[c]
		switch {
		case math.IsNaN(a):
			return false
		case math.IsNaN(b):
			return true
		case desc:
			return a > b
		default:
			return a < b
		}
	})
}

func (r Reducer) valid() bool {
	switch r {
	case Mean, Sum, Min, Max, Median, StdDev, Count:
		return true
	}
	return false
}

func (r Reducer) apply(xs []float64) float64 {
	if r == Count {
		return float64(len(xs))
	}
	if len(xs) == 0 {
		return math.NaN()
	}
	switch r {
	case Mean:
		return stat.Mean(xs, nil)
	case Sum:
		s := 0.0
		for _, x := range xs {
			s += x
		}
		return s
	case Min:
		m := xs[0]
		for _, x := range xs[1:] {
			m = math.Min(m, x)
		}
		return m
	case Max:
		m := xs[0]
		for _, x := range xs[1:] {
			m = math.Max(m, x)
		}
		return m
	case Median:
		return quantile(xs, 0.5)
	case StdDev:
		if len(xs) < 2 {
			return math.NaN()
		}
		return stat.StdDev(xs, nil)
	}
	return math.NaN()
}
