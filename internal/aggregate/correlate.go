package aggregate

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"labourstat/pkg/records"
)

// Matrix is a square, symmetric matrix labelled by Columns.
type Matrix struct {
	Columns []records.Column
	Values  [][]float64
}

// At returns the value for (a, b), or NaN when either column is absent.
func (m Matrix) At(a, b records.Column) float64 {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return math.NaN()
	}
	return m.Values[i][j]
}

// Correlate computes the Pearson correlation of every pair of cols. Each pair
// uses only the records where both values are present; pairs with fewer than
// two such records, or zero variance, are NaN.
func Correlate(t records.Table, cols ...records.Column) Matrix {
	n := len(cols)
	m := Matrix{Columns: append([]records.Column(nil), cols...), Values: make([][]float64, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := pairwise(t, cols[i], cols[j])
			m.Values[i][j] = v
			m.Values[j][i] = v
		}
	}
	return m
}

func pairwise(t records.Table, a, b records.Column) float64 {
	var xs, ys []float64
	t.Each(func(r records.Record) {
		x, okx := r.Number(a)
		y, oky := r.Number(b)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	})
	if len(xs) < 2 {
		return math.NaN()
	}
	if a == b {
		if stat.Variance(xs, nil) == 0 {
			return math.NaN()
		}
		return 1
	}
	c := stat.Correlation(xs, ys, nil)
	if math.IsInf(c, 0) {
		return math.NaN()
	}
	return c
}
