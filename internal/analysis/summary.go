package analysis

import (
	"fmt"

	"labourstat/internal/aggregate"
	"labourstat/pkg/records"
)

// Summary holds the tabular statistics reported next to the charts.
type Summary struct {
	// Describe covers the three measures, rounded to two decimals.
	Describe []aggregate.Summary
	// Regions is the mean of the three measures per region, rounded to two
	// decimals, in first-seen region order.
	Regions     []aggregate.Row
	Correlation aggregate.Matrix
}

// Summarize computes the descriptive statistics of t.
func Summarize(t records.Table) (Summary, error) {
	desc := aggregate.Describe(t, records.Measures...)
	for i := range desc {
		s := &desc[i]
		s.Mean = aggregate.Round2(s.Mean)
		s.Std = aggregate.Round2(s.Std)
		s.Min = aggregate.Round2(s.Min)
		s.Q25 = aggregate.Round2(s.Q25)
		s.Q50 = aggregate.Round2(s.Q50)
		s.Q75 = aggregate.Round2(s.Q75)
		s.Max = aggregate.Round2(s.Max)
	}

	regions, err := aggregate.MeanBy(t, []records.Column{records.Region}, records.Measures...)
	if err != nil {
		return Summary{}, fmt.Errorf("region stats: %w", err)
	}
	for _, r := range regions {
		for c, v := range r.Values {
			r.Values[c] = aggregate.Round2(v)
		}
	}

	return Summary{
		Describe:    desc,
		Regions:     regions,
		Correlation: aggregate.Correlate(t, CorrelationColumns...),
	}, nil
}
