package csv_test

import (
	"errors"
	"strings"
	"testing"

	pcsv "labourstat/internal/parser/csv"
)

const sample = "\uFEFFRegion, Date, Frequency, Estimated Unemployment Rate (%), Estimated Employed, Estimated Labour Participation Rate (%),Region,longitude,latitude\n" +
	"Andhra Pradesh, 31-01-2020, M, 5.48, 16635535, 41.02, South,15.9129,79.74\n" +
	"Andhra Pradesh, 29-02-2020, M, 5.83, 16545652, 40.9, South,15.9129,79.74\n"

func TestParseSample(t *testing.T) {
	t.Parallel()

	p := pcsv.NewParser(pcsv.Options{Comma: ',', TrimSpace: true})
	f, err := p.Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, want := len(f.Header), 9; got != want {
		t.Fatalf("header len=%d want=%d", got, want)
	}
	if f.Header[0] != "Region" {
		t.Fatalf("BOM not stripped: %q", f.Header[0])
	}
	if got, want := len(f.Rows), 2; got != want {
		t.Fatalf("rows=%d want=%d", got, want)
	}
	if v := f.Rows[0].Fields[1]; v != "31-01-2020" {
		t.Fatalf("date=%q want trimmed 31-01-2020", v)
	}
	if f.Rows[1].Line != 3 {
		t.Fatalf("line=%d want 3", f.Rows[1].Line)
	}
	if f.Encoding != pcsv.EncodingUTF8 {
		t.Fatalf("encoding=%q", f.Encoding)
	}
}

/*
TestParseSkipsRaggedRows verifies that rows whose width differs from the
header are reported in Skipped rather than failing the parse.
*/
func TestParseSkipsRaggedRows(t *testing.T) {
	t.Parallel()

	in := "a,b,c\n1,2,3\n1,2\n4,5,6\n"
	f, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(f.Rows) != 2 {
		t.Fatalf("rows=%d want=2", len(f.Rows))
	}
	if len(f.Skipped) != 1 || f.Skipped[0].Line != 3 {
		t.Fatalf("skipped=%+v want line 3", f.Skipped)
	}
	if !strings.Contains(f.Skipped[0].Reason, "expected 3, got 2") {
		t.Fatalf("reason=%q", f.Skipped[0].Reason)
	}
}

/*
TestParseLinesFollowFile checks that a quoted field spanning lines does not
shift the line numbers of later rows or skipped rows.
*/
func TestParseLinesFollowFile(t *testing.T) {
	t.Parallel()

	in := "a,b,c\n" +
		"1,\"two\nlines\",3\n" +
		"4,5,6\n" +
		"7,8\n" +
		"9,\"x\"y,0\n" +
		"10,11,12\n"
	f, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var lines []int
	for _, r := range f.Rows {
		lines = append(lines, r.Line)
	}
	if len(lines) != 3 || lines[0] != 2 || lines[1] != 4 || lines[2] != 7 {
		t.Fatalf("row lines=%v want [2 4 7]", lines)
	}
	if len(f.Skipped) != 2 || f.Skipped[0].Line != 5 || f.Skipped[1].Line != 6 {
		t.Fatalf("skipped=%+v want lines 5 and 6", f.Skipped)
	}
}

func TestParseWindows1252(t *testing.T) {
	t.Parallel()

	in := []byte("state,n\nPuducherr\xe9,1\n")
	f, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader(string(in)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Encoding != pcsv.EncodingWindows1252 {
		t.Fatalf("encoding=%q want windows-1252", f.Encoding)
	}
	if got := f.Rows[0].Fields[0]; got != "Puducherré" {
		t.Fatalf("decoded=%q", got)
	}
}

func TestParseEmptyAndBadEncoding(t *testing.T) {
	t.Parallel()

	if _, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader("")); !errors.Is(err, pcsv.ErrEmptyInput) {
		t.Fatalf("err=%v want ErrEmptyInput", err)
	}
	_, err := pcsv.NewParser(pcsv.Options{Encoding: "ebcdic"}).Parse(strings.NewReader("a\n1\n"))
	if err == nil || !strings.Contains(err.Error(), "unsupported encoding") {
		t.Fatalf("err=%v want unsupported encoding", err)
	}
}
