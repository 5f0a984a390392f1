// Package report writes the tabular results of a run to an xlsx workbook:
// descriptive statistics, region means, the correlation matrix, null counts,
// row issues and one sheet per chart view.
package report

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"labourstat/internal/aggregate"
	"labourstat/internal/analysis"
	"labourstat/internal/compare"
	"labourstat/internal/transformer"
	"labourstat/pkg/records"
)

// Sheet names.
const (
	RunSheet         = "Run"
	DescribeSheet    = "Describe"
	RegionSheet      = "Region stats"
	CorrelationSheet = "Correlation"
	NullsSheet       = "Nulls"
	IssuesSheet      = "Issues"
	MismatchSheet    = "Join mismatch"
)

// Input is everything a workbook reports on.
type Input struct {
	Job         string
	Source      string
	Fingerprint string
	Rows        int

	Summary  analysis.Summary
	Views    []analysis.View
	Nulls    transformer.NullReport
	Issues   []transformer.RowIssue
	Mismatch *compare.JoinMismatchError
}

// Write builds the workbook and saves it to path.
func Write(path string, in Input) error {
	f, err := Build(in)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}

// Build returns the workbook for in. The caller closes it.
func Build(in Input) (*excelize.File, error) {
	f := excelize.NewFile()
	w := &writer{f: f}
	if err := f.SetSheetName("Sheet1", RunSheet); err != nil {
		f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	w.header = bold

	w.table(RunSheet, []string{"Key", "Value"}, [][]any{
		{"job", in.Job},
		{"source", in.Source},
		{"fingerprint", in.Fingerprint},
		{"rows", in.Rows},
		{"views", len(in.Views)},
	})
	w.describe(in.Summary.Describe)
	w.regions(in.Summary.Regions)
	w.correlation(in.Summary.Correlation)
	w.nulls(in.Nulls)
	w.issues(in.Issues)
	if in.Mismatch != nil {
		w.mismatch(in.Mismatch)
	}
	for _, v := range in.Views {
		w.view(v)
	}

	if w.err != nil {
		f.Close()
		return nil, fmt.Errorf("report: %w", w.err)
	}
	return f, nil
}

// writer keeps the first error so sheet builders stay linear.
type writer struct {
	f      *excelize.File
	header int
	err    error
}

func (w *writer) table(sheet string, header []string, rows [][]any) {
	if w.err != nil {
		return
	}
	if sheet != RunSheet {
		if _, err := w.f.NewSheet(sheet); err != nil {
			w.err = err
			return
		}
	}
	hrow := make([]any, len(header))
	for i, h := range header {
		hrow[i] = h
	}
	if err := w.f.SetSheetRow(sheet, "A1", &hrow); err != nil {
		w.err = err
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := w.f.SetCellStyle(sheet, "A1", last, w.header); err != nil {
		w.err = err
		return
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := make([]any, len(r))
		for j, v := range r {
			row[j] = cellValue(v)
		}
		if err := w.f.SetSheetRow(sheet, cell, &row); err != nil {
			w.err = err
			return
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := w.f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		w.err = err
	}
}

// cellValue blanks NaN and infinities, which xlsx cannot store.
func cellValue(v any) any {
	if x, ok := v.(float64); ok && (math.IsNaN(x) || math.IsInf(x, 0)) {
		return nil
	}
	return v
}

func (w *writer) describe(ss []aggregate.Summary) {
	rows := make([][]any, len(ss))
	for i, s := range ss {
		rows[i] = []any{string(s.Column), s.Count, s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max}
	}
	w.table(DescribeSheet, []string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}, rows)
}

func (w *writer) regions(rs []aggregate.Row) {
	header := []string{string(records.Region), "rows"}
	for _, c := range records.Measures {
		header = append(header, string(c))
	}
	rows := make([][]any, len(rs))
	for i, r := range rs {
		row := []any{r.KeyString(), r.Count}
		for _, c := range records.Measures {
			row = append(row, r.Values[c])
		}
		rows[i] = row
	}
	w.table(RegionSheet, header, rows)
}

func (w *writer) correlation(m aggregate.Matrix) {
	header := []string{""}
	for _, c := range m.Columns {
		header = append(header, string(c))
	}
	rows := make([][]any, len(m.Columns))
	for i, c := range m.Columns {
		row := []any{string(c)}
		for j := range m.Columns {
			row = append(row, m.Values[i][j])
		}
		rows[i] = row
	}
	w.table(CorrelationSheet, header, rows)
}

func (w *writer) nulls(n transformer.NullReport) {
	rows := make([][]any, 0, len(n.Counts)+1)
	for _, nc := range n.Counts {
		rows = append(rows, []any{string(nc.Column), nc.Count})
	}
	rows = append(rows, []any{"rows", n.Rows})
	w.table(NullsSheet, []string{"column", "nulls"}, rows)
}

func (w *writer) issues(is []transformer.RowIssue) {
	rows := make([][]any, len(is))
	for i, iss := range is {
		msg := ""
		if iss.Err != nil {
			msg = iss.Err.Error()
		}
		rows[i] = []any{iss.Line, iss.Stage, string(iss.Column), iss.Value, msg, iss.Dropped}
	}
	w.table(IssuesSheet, []string{"line", "stage", "column", "value", "error", "dropped"}, rows)
}

func (w *writer) mismatch(m *compare.JoinMismatchError) {
	var rows [][]any
	for _, s := range m.OnlyBefore {
		rows = append(rows, []any{s, "before only"})
	}
	for _, s := range m.OnlyAfter {
		rows = append(rows, []any{s, "after only"})
	}
	w.table(MismatchSheet, []string{string(records.State), "window"}, rows)
}

func (w *writer) view(v analysis.View) {
	cols := v.Data.Columns()
	rows := make([][]any, v.Data.Len())
	for i := range rows {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = v.Data.Value(i, c)
		}
		rows[i] = row
	}
	w.table(v.Name, cols, rows)
}
