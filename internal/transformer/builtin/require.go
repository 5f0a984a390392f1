package builtin

import (
	"labourstat/internal/transformer"
	"labourstat/pkg/records"
)

// KeyFields are the columns every aggregation groups by or filters on.
var KeyFields = []records.Column{records.State, records.Date, records.Region}

// Require removes any record missing a value for one of Fields. Each drop is
// reported as a *transformer.NullValueError. When every record is dropped the
// aggregate error is returned, since no aggregation can run.
type Require struct {
	Fields []records.Column
	Report transformer.Reporter
}

func (Require) Name() string { return "require" }

func (r Require) Apply(in records.Table) (records.Table, error) {
	fields := r.Fields
	if len(fields) == 0 {
		fields = KeyFields
	}

	total := &transformer.NullValueError{}
	out := in.Filter(func(rec records.Record) bool {
		var missing []records.Column
		for _, f := range fields {
			if isMissing(rec, f) {
				missing = append(missing, f)
			}
		}
		if len(missing) == 0 {
			return true
		}
		nve := &transformer.NullValueError{Columns: missing, Rows: 1}
		total.Columns = appendNew(total.Columns, missing...)
		total.Rows++
		r.Report.Report(transformer.RowIssue{
			Line: rec.Line, Stage: transformer.StageRequire, Column: missing[0], Err: nve, Dropped: true,
		})
		return false
	})

	if out.Len() == 0 && in.Len() > 0 {
		return records.Table{}, total
	}
	return out, nil
}

func isMissing(rec records.Record, c records.Column) bool {
	switch c {
	case records.Date:
		return rec.Date.IsZero()
	case records.MonthNumber:
		return rec.MonthNumber == 0
	}
	if c.IsNumeric() {
		_, ok := rec.Number(c)
		return !ok
	}
	v, _ := rec.Text(c)
	return v == ""
}

func appendNew(dst []records.Column, cs ...records.Column) []records.Column {
	for _, c := range cs {
		found := false
		for _, d := range dst {
			if d == c {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, c)
		}
	}
	return dst
}
