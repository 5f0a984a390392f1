// Package builtin contains the concrete transforms of the statistics
// pipeline: type coercion of the normalized frame, text cleanup, required
// field checks, de-duplication and derived month fields.
package builtin

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"labourstat/internal/schema"
	"labourstat/internal/transformer"
	"labourstat/pkg/records"
)

var (
	// ErrNonFinite marks a numeric cell holding NaN or an infinity.
	ErrNonFinite = errors.New("non-finite value")
	// ErrNegativeCount marks a negative Employed cell.
	ErrNegativeCount = errors.New("negative count")
)

// DatePolicy selects what happens to a row whose Date cannot be parsed.
type DatePolicy string

const (
	// DateReject drops the row and reports a DateParseError.
	DateReject DatePolicy = "reject"
	// DateAbort fails the whole run on the first DateParseError.
	DateAbort DatePolicy = "abort"
)

// DayFirstLayouts are tried in order. Every ambiguous layout is day-first;
// ISO dates are unambiguous and accepted as well.
var DayFirstLayouts = []string{
	"02-01-2006",
	"2-1-2006",
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"2.1.2006",
	"2006-01-02",
}

// Coerce converts a normalized string frame into typed records.
//
// Empty cells become nulls. Unparsable numeric cells become nulls and are
// reported. An unparsable Date is handled by Policy. An empty Date drops the
// row with a NullValueError, since every later stage needs the month. Other
// missing key fields are left empty for Require to judge.
type Coerce struct {
	// Layouts overrides DayFirstLayouts when non-empty.
	Layouts []string
	Policy  DatePolicy

	// Categories, when set, receives every Frequency and Region value.
	Categories *transformer.Categories
	Report     transformer.Reporter
}

// Apply coerces every row of f. With DateAbort the first bad date is returned
// as a *transformer.DateParseError.
func (c Coerce) Apply(f schema.Frame) (records.Table, error) {
	if len(f.Columns) != schema.Width {
		return records.Table{}, &schema.SchemaMismatchError{Got: len(f.Columns), Want: schema.Width}
	}
	layouts := c.Layouts
	if len(layouts) == 0 {
		layouts = DayFirstLayouts
	}

	out := make([]records.Record, 0, len(f.Rows))
	for _, row := range f.Rows {
		rec, ok, err := c.coerceRow(row.Line, row.Fields, layouts)
		if err != nil {
			return records.Table{}, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return records.NewTable(out), nil
}

// coerceRow relies on the canonical positional order of records.Canonical.
func (c Coerce) coerceRow(line int, fields []string, layouts []string) (records.Record, bool, error) {
	rec := records.Record{
		Line:      line,
		State:     fields[0],
		Frequency: fields[2],
		Region:    fields[6],
	}

	s := strings.TrimSpace(fields[1])
	if s == "" {
		c.Report.Report(transformer.RowIssue{
			Line: line, Stage: transformer.StageCoerce, Column: records.Date, Value: fields[1],
			Err:     &transformer.NullValueError{Columns: []records.Column{records.Date}, Rows: 1},
			Dropped: true,
		})
		return rec, false, nil
	}
	d, err := ParseDayFirst(s, layouts)
	if err != nil {
		dpe := &transformer.DateParseError{Line: line, Value: s}
		if c.Policy == DateAbort {
			return rec, false, dpe
		}
		c.Report.Report(transformer.RowIssue{
			Line: line, Stage: transformer.StageCoerce, Column: records.Date, Value: s, Err: dpe, Dropped: true,
		})
		return rec, false, nil
	}
	rec.Date = d

	rec.UnemploymentRate = c.number(line, records.UnemploymentRate, fields[3], false)
	rec.Employed = c.number(line, records.Employed, fields[4], true)
	rec.LabourParticipationRate = c.number(line, records.LabourParticipationRate, fields[5], false)
	rec.Longitude = c.number(line, records.Longitude, fields[7], false)
	rec.Latitude = c.number(line, records.Latitude, fields[8], false)

	if c.Categories != nil {
		if rec.Frequency != "" {
			c.Categories.Intern(records.Frequency, rec.Frequency)
		}
		if rec.Region != "" {
			c.Categories.Intern(records.Region, rec.Region)
		}
	}
	return rec, true, nil
}

// number parses a float cell. Counts must be finite and non-negative and are
// rounded to whole numbers.
func (c Coerce) number(line int, col records.Column, s string, count bool) records.Float {
	s = strings.TrimSpace(s)
	if s == "" {
		return records.Null
	}
	v, err := strconv.ParseFloat(s, 64)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		err = ErrNonFinite
	}
	if err == nil && count && v < 0 {
		err = ErrNegativeCount
	}
	if err != nil {
		c.Report.Report(transformer.RowIssue{
			Line: line, Stage: transformer.StageCoerce, Column: col, Value: s, Err: err,
		})
		return records.Null
	}
	if count {
		v = math.Round(v)
	}
	return records.Some(v)
}

// ParseDayFirst parses s with the first matching layout. Surrounding spaces
// are ignored.
func ParseDayFirst(s string, layouts []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matches %q", s)
}
