package builtin

import (
	"fmt"

	"labourstat/internal/transformer"
	"labourstat/pkg/records"
)

// Derive fills MonthNumber and MonthAbbrev from Date.
type Derive struct{}

func (Derive) Name() string { return "derive" }

// Apply fails with a *transformer.NullValueError for a record without a
// Date, and with a wrapped *records.InvalidMonthError if a date yields a month
// outside [1,12]; that cannot happen for a parsed time.Time.
func (Derive) Apply(in records.Table) (records.Table, error) {
	return in.Map(func(r records.Record) (records.Record, error) {
		if r.Date.IsZero() {
			return r, fmt.Errorf("line %d: %w", r.Line,
				&transformer.NullValueError{Columns: []records.Column{records.Date}, Rows: 1})
		}
		m := int(r.Date.Month())
		abbr, err := records.MonthAbbrev(m)
		if err != nil {
			return r, fmt.Errorf("line %d: %w", r.Line, err)
		}
		r.MonthNumber = m
		r.MonthAbbrev = abbr
		return r, nil
	})
}
