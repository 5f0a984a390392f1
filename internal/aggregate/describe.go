package aggregate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"labourstat/pkg/records"
)

// Summary is the descriptive statistics of one numeric column.
type Summary struct {
	Column records.Column
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Q50    float64
	Q75    float64
	Max    float64
}

// Describe summarises each column over its non-null values. Std is the sample
// standard deviation; quartiles interpolate linearly between closest ranks.
func Describe(t records.Table, cols ...records.Column) []Summary {
	out := make([]Summary, 0, len(cols))
	for _, c := range cols {
		xs := t.Values(c)
		s := Summary{Column: c, Count: len(xs)}
		if len(xs) == 0 {
			nan := math.NaN()
			s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
			out = append(out, s)
			continue
		}
		sorted := append([]float64(nil), xs...)
		sort.Float64s(sorted)

		s.Mean = stat.Mean(sorted, nil)
		s.Std = math.NaN()
		if len(sorted) > 1 {
			s.Std = stat.StdDev(sorted, nil)
		}
		s.Min = sorted[0]
		s.Max = sorted[len(sorted)-1]
		s.Q25 = sortedQuantile(sorted, 0.25)
		s.Q50 = sortedQuantile(sorted, 0.50)
		s.Q75 = sortedQuantile(sorted, 0.75)
		out = append(out, s)
	}
	return out
}

func quantile(xs []float64, p float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return sortedQuantile(sorted, p)
}

// sortedQuantile interpolates at rank p*(n-1). gonum's stat.Quantile uses a
// different rank definition, so it is not used here.
func sortedQuantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Round2 rounds x to two decimals. NaN stays NaN.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return math.Round(x*100) / 100
}
