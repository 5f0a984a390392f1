package transformer

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"labourstat/internal/parser"
	"labourstat/internal/schema"
	"labourstat/pkg/records"
)

/*
identityTransformer is a no-op transformer used in tests.
*/
type identityTransformer struct{}

func (identityTransformer) Name() string { return "identity" }
func (identityTransformer) Apply(in records.Table) (records.Table, error) { return in, nil }

/*
renameTransformer returns a new table with every State set to name.
*/
type renameTransformer struct{ name string }

func (renameTransformer) Name() string { return "rename" }
func (t renameTransformer) Apply(in records.Table) (records.Table, error) {
	return in.Map(func(r records.Record) (records.Record, error) {
		r.State = t.name
		return r, nil
	})
}

type failingTransformer struct{}

func (failingTransformer) Name() string { return "boom" }
func (failingTransformer) Apply(records.Table) (records.Table, error) {
	return records.Table{}, errors.New("exploded")
}

func TestChain_OrderAndImmutability(t *testing.T) {
	t.Parallel()

	in := records.NewTable([]records.Record{{State: "orig"}})
	out, err := Chain{identityTransformer{}, renameTransformer{"a"}, renameTransformer{"b"}}.Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := out.At(0).State; got != "b" {
		t.Fatalf("state=%q want last transformer to win", got)
	}
	if in.At(0).State != "orig" {
		t.Fatalf("input table was modified")
	}
}

func TestChain_ErrorWrapsName(t *testing.T) {
	t.Parallel()

	_, err := Chain{identityTransformer{}, failingTransformer{}, renameTransformer{"x"}}.Apply(records.Table{})
	if err == nil || !strings.HasPrefix(err.Error(), "boom: exploded") {
		t.Fatalf("err=%v", err)
	}
}

func TestCountNulls(t *testing.T) {
	t.Parallel()

	pf := parser.Frame{
		Header: make([]string, schema.Width),
		Rows: []parser.Row{
			{Line: 1, Fields: []string{"A", "31-01-2020", "M", "1", "2", "3", "North", "", ""}},
			{Line: 2, Fields: []string{"B", "31-01-2020", "M", " ", "2", "3", "North", "77.1", ""}},
		},
	}
	f, err := schema.Normalize(pf)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	rep := CountNulls(f)
	if rep.Rows != 2 {
		t.Fatalf("rows=%d", rep.Rows)
	}
	if rep.Of(records.Longitude) != 1 || rep.Of(records.Latitude) != 2 || rep.Of(records.UnemploymentRate) != 1 {
		t.Fatalf("counts=%+v", rep.Counts)
	}
	if rep.Of(records.State) != 0 || rep.Total() != 4 {
		t.Fatalf("counts=%+v total=%d", rep.Counts, rep.Total())
	}
}

func TestDiagnostics(t *testing.T) {
	t.Parallel()

	d := NewDiagnostics()
	d.AddSkipped([]parser.SkippedRow{{Line: 7, Reason: "bad quote"}})
	rep := Reporter(d.Report)
	rep.Report(RowIssue{Line: 3, Stage: StageRequire, Err: &NullValueError{Columns: []records.Column{records.State}, Rows: 1}, Dropped: true})
	rep.Report(RowIssue{Line: 4, Stage: StageRequire, Err: &NullValueError{Columns: []records.Column{records.Region, records.State}, Rows: 1}, Dropped: true})
	rep.Report(RowIssue{Line: 4, Stage: StageCoerce, Column: records.Employed, Value: "x", Err: errors.New("bad")})

	if d.Dropped() != 3 {
		t.Fatalf("dropped=%d want 3 distinct lines", d.Dropped())
	}
	if d.Count(StageParse) != 1 || d.Count(StageRequire) != 2 || d.Count(StageCoerce) != 1 {
		t.Fatalf("stage counts wrong")
	}
	nve := d.NullValueErr()
	if nve == nil || nve.Rows != 2 || len(nve.Columns) != 2 {
		t.Fatalf("null summary=%#v", nve)
	}
	if !errors.Is(nve, ErrNullValue) {
		t.Fatalf("summary does not match ErrNullValue")
	}

	var buf bytes.Buffer
	d.LogSummary(slog.New(slog.NewTextHandler(&buf, nil)), 1)
	logs := buf.String()
	for _, want := range []string{"null counts", "stage=parse", "stage=require", "rows dropped for missing values"} {
		if !strings.Contains(logs, want) {
			t.Fatalf("log missing %q:\n%s", want, logs)
		}
	}

	var nilRep Reporter
	nilRep.Report(RowIssue{}) // must not panic
}

func TestCategories(t *testing.T) {
	t.Parallel()

	c := NewCategories()
	if c.Intern(records.Region, "South") != 0 || c.Intern(records.Region, "North") != 1 || c.Intern(records.Region, "South") != 0 {
		t.Fatalf("codes not stable")
	}
	if c.Len(records.Region) != 2 || c.Len(records.Frequency) != 0 {
		t.Fatalf("lengths wrong")
	}
	if v := c.Values(records.Region); v[0] != "South" || v[1] != "North" {
		t.Fatalf("values=%v", v)
	}
}
