package transformer

import (
	"errors"
	"fmt"
	"log/slog"

	"labourstat/internal/parser"
	"labourstat/pkg/records"
)

// Stage names used in RowIssue.Stage.
const (
	StageParse   = "parse"
	StageCoerce  = "coerce"
	StageRequire = "require"
	StageDedup   = "dedup"
)

// RowIssue describes a data-quality problem with a single source row.
// Dropped reports whether the row was removed from the table.
type RowIssue struct {
	Line    int
	Stage   string
	Column  records.Column
	Value   string
	Err     error
	Dropped bool
}

func (i RowIssue) String() string {
	s := fmt.Sprintf("line %d [%s]", i.Line, i.Stage)
	if i.Column != "" {
		s += fmt.Sprintf(" %s=%q", i.Column, i.Value)
	}
	if i.Err != nil {
		s += ": " + i.Err.Error()
	}
	if i.Dropped {
		s += " (row dropped)"
	}
	return s
}

// Reporter receives row issues from transforms. A nil Reporter discards them.
type Reporter func(RowIssue)

// Report forwards i to r when r is non-nil.
func (r Reporter) Report(i RowIssue) {
	if r != nil {
		r(i)
	}
}

// Diagnostics collects the observability output of a run: null counts,
// skipped parse rows and per-row issues. It is not safe for concurrent use;
// the transform chain is single-threaded.
type Diagnostics struct {
	Nulls      NullReport
	Categories *Categories

	issues  []RowIssue
	dropped map[int]struct{}
	nullErr *NullValueError
	byStage map[string]int
}

// NewDiagnostics returns an empty collector.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{
		Categories: NewCategories(),
		dropped:    make(map[int]struct{}),
		byStage:    make(map[string]int),
	}
}

// Report records one issue. It is usable as a Reporter.
func (d *Diagnostics) Report(i RowIssue) {
	d.issues = append(d.issues, i)
	d.byStage[i.Stage]++
	if i.Dropped {
		d.dropped[i.Line] = struct{}{}
	}
	var nve *NullValueError
	if i.Dropped && errors.As(i.Err, &nve) {
		if d.nullErr == nil {
			d.nullErr = &NullValueError{}
		}
		d.nullErr.merge(nve)
	}
}

// AddSkipped records rows the parser could not read.
func (d *Diagnostics) AddSkipped(rows []parser.SkippedRow) {
	for _, s := range rows {
		d.Report(RowIssue{Line: s.Line, Stage: StageParse, Err: errors.New(s.Reason), Dropped: true})
	}
}

// Issues returns a copy of every recorded issue in report order.
func (d *Diagnostics) Issues() []RowIssue {
	cp := make([]RowIssue, len(d.issues))
	copy(cp, d.issues)
	return cp
}

// Dropped returns the number of distinct source rows removed from the table.
func (d *Diagnostics) Dropped() int { return len(d.dropped) }

// Count returns the number of issues reported for stage.
func (d *Diagnostics) Count(stage string) int { return d.byStage[stage] }

// NullValueErr summarises all rows dropped for missing required fields, or
// returns nil when there were none.
func (d *Diagnostics) NullValueErr() *NullValueError {
	if d.nullErr == nil {
		return nil
	}
	cp := *d.nullErr
	cp.Columns = append([]records.Column(nil), d.nullErr.Columns...)
	return &cp
}

// LogSummary writes the null report and up to limit sample issues per stage.
func (d *Diagnostics) LogSummary(logger *slog.Logger, limit int) {
	args := make([]any, 0, 2*len(d.Nulls.Counts)+2)
	args = append(args, slog.Int("rows", d.Nulls.Rows))
	for _, nc := range d.Nulls.Counts {
		args = append(args, slog.Int(string(nc.Column), nc.Count))
	}
	logger.Info("null counts", args...)

	for _, stage := range []string{StageParse, StageCoerce, StageRequire, StageDedup} {
		n := d.byStage[stage]
		if n == 0 {
			continue
		}
		logger.Warn("row issues", slog.String("stage", stage), slog.Int("count", n))
		shown := 0
		for _, iss := range d.issues {
			if iss.Stage != stage {
				continue
			}
			if shown >= limit {
				break
			}
			shown++
			logger.Warn("row issue", slog.String("stage", stage), slog.Int("n", shown), slog.String("detail", iss.String()))
		}
	}
	if nve := d.NullValueErr(); nve != nil {
		logger.Warn("rows dropped for missing values", slog.String("error", nve.Error()))
	}
}
