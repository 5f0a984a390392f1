package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validPipeline() Pipeline {
	p := Default()
	p.Source.File.Path = "input.csv"
	return p
}

/*
TestValidatePipeline_MissingJob verifies that a missing or empty Job field
produces a SeverityError with path "job".
*/
func TestValidatePipeline_MissingJob(t *testing.T) {
	p := validPipeline()
	p.Job = "  "

	issues := ValidatePipeline(p)

	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected SeverityError for job; got issues: %+v", issues)
	}
	if !HasErrors(issues) {
		t.Fatalf("HasErrors = false, want true")
	}
}

/*
TestValidateSource_Cases checks the file source requirements.
*/
func TestValidateSource_Cases(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		path string
		msg  string
	}{
		{"empty kind", Source{}, "source.kind", "must not be empty"},
		{"unsupported kind", Source{Kind: "s3"}, "source.kind", "unsupported source kind"},
		{"missing path", Source{Kind: "file"}, "source.file.path", "non-empty path"},
		{"relative url", Source{Kind: "http", HTTP: SourceHTTP{URL: "data/x.csv"}}, "source.http.url", "absolute http(s) url"},
		{"ftp url", Source{Kind: "http", HTTP: SourceHTTP{URL: "ftp://host/x.csv"}}, "source.http.url", "absolute http(s) url"},
		{"negative retries", Source{Kind: "http", HTTP: SourceHTTP{URL: "https://host/x.csv", MaxRetries: -1}}, "source.http", "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := validateSource(tt.src)
			if !hasIssue(t, issues, SeverityError, tt.path, tt.msg) {
				t.Fatalf("want error at %s containing %q; got %+v", tt.path, tt.msg, issues)
			}
		})
	}
	if issues := validateSource(Source{Kind: "file", File: SourceFile{Path: "a.csv"}}); len(issues) != 0 {
		t.Fatalf("valid source issues = %+v", issues)
	}
	if issues := validateSource(Source{Kind: "http", HTTP: SourceHTTP{URL: "https://example.org/unemployment.csv", MaxRetries: 2}}); len(issues) != 0 {
		t.Fatalf("valid http source issues = %+v", issues)
	}
}

/*
TestValidateParser_Cases checks parser kind, encoding and delimiter.
*/
func TestValidateParser_Cases(t *testing.T) {
	tests := []struct {
		name string
		p    Parser
		path string
		msg  string
	}{
		{"empty kind", Parser{}, "parser.kind", "must not be empty"},
		{"xml unsupported", Parser{Kind: "xml"}, "parser.kind", "unsupported parser kind"},
		{"bad encoding", Parser{Kind: "csv", Options: Options{"encoding": "latin-9"}}, "parser.options.encoding", "unsupported encoding"},
		{"quote delimiter", Parser{Kind: "csv", Options: Options{"comma": `"`}}, "parser.options.comma", "invalid delimiter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := validateParser(tt.p)
			if !hasIssue(t, issues, SeverityError, tt.path, tt.msg) {
				t.Fatalf("want error at %s containing %q; got %+v", tt.path, tt.msg, issues)
			}
		})
	}
	for _, enc := range []string{"auto", "UTF-8", "cp1252"} {
		if issues := validateParser(Parser{Kind: "csv", Options: Options{"encoding": enc}}); len(issues) != 0 {
			t.Fatalf("encoding %q issues = %+v", enc, issues)
		}
	}
}

/*
TestValidateTransforms_Cases covers chain shape and per-step options.
*/
func TestValidateTransforms_Cases(t *testing.T) {
	coerce := Transform{Kind: "coerce", Options: Options{}}
	require := Transform{Kind: "require", Options: Options{}}
	derive := Transform{Kind: "derive", Options: Options{}}

	tests := []struct {
		name string
		ts   []Transform
		sev  IssueSeverity
		path string
		msg  string
	}{
		{"empty chain", nil, SeverityError, "transform", "must start with a coerce"},
		{"coerce not first", []Transform{require, coerce, derive}, SeverityError, "transform[0].kind", "first transform must be coerce"},
		{"bad date policy", []Transform{{Kind: "coerce", Options: Options{"date_policy": "guess"}}, require, derive},
			SeverityError, "transform[0].options.date_policy", "reject or abort"},
		{"unknown kind", []Transform{coerce, {Kind: "validate"}, require, derive}, SeverityError, "transform[1].kind", "unknown transform kind"},
		{"empty kind", []Transform{coerce, {Kind: ""}, require, derive}, SeverityError, "transform[1].kind", "must not be empty"},
		{"unknown require field", []Transform{coerce, {Kind: "require", Options: Options{"fields": []any{"Nope"}}}, derive},
			SeverityError, "transform[1].options.fields", "unknown column"},
		{"numeric dedup key", []Transform{coerce, require, {Kind: "dedup", Options: Options{"keys": []any{"latitude"}}}, derive},
			SeverityError, "transform[2].options.keys", "not a categorical column"},
		{"bad dedup policy", []Transform{coerce, require, {Kind: "dedup", Options: Options{"policy": "random"}}, derive},
			SeverityError, "transform[2].options.policy", "unknown dedup policy"},
		{"missing derive", []Transform{coerce, require}, SeverityError, "transform", "no derive transform"},
		{"missing require", []Transform{coerce, derive}, SeverityWarning, "transform", "no require transform"},
		{"duplicate step", []Transform{coerce, require, derive, derive}, SeverityWarning, "transform[3].kind", "more than once"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := validateTransforms(tt.ts)
			if !hasIssue(t, issues, tt.sev, tt.path, tt.msg) {
				t.Fatalf("want %s at %s containing %q; got %+v", tt.sev, tt.path, tt.msg, issues)
			}
		})
	}
}

/*
TestValidateAnalysis_Cases covers the comparison window and change mode.
*/
func TestValidateAnalysis_Cases(t *testing.T) {
	if issues := validateAnalysis(Default().Analysis); len(issues) != 0 {
		t.Fatalf("default analysis issues = %+v", issues)
	}
	if issues := validateAnalysis(Analysis{BeforeEnd: 13, AfterStart: 4, AfterEnd: 7}); !hasIssue(t, issues, SeverityError, "analysis", "before_end") {
		t.Fatalf("want before_end error; got %+v", issues)
	}
	if issues := validateAnalysis(Analysis{BeforeEnd: 4, AfterStart: 7, AfterEnd: 4}); !hasIssue(t, issues, SeverityError, "analysis", "after_end") {
		t.Fatalf("want after_end error; got %+v", issues)
	}
	if issues := validateAnalysis(Analysis{BeforeEnd: 4, AfterStart: 4, AfterEnd: 7, ChangeMode: "log"}); !hasIssue(t, issues, SeverityError, "analysis.change_mode", "unknown change mode") {
		t.Fatalf("want change_mode error; got %+v", issues)
	}
}

/*
TestValidateOutputAndRuntime_Cases covers artifact settings and render workers.
*/
func TestValidateOutputAndRuntime_Cases(t *testing.T) {
	if issues := validateOutput(Output{Dir: "", Format: "png"}); !hasIssue(t, issues, SeverityError, "output.dir", "must not be empty") {
		t.Fatalf("want output.dir error; got %+v", issues)
	}
	if issues := validateOutput(Output{Dir: "out", Format: "gif"}); !hasIssue(t, issues, SeverityError, "output.format", "png or svg") {
		t.Fatalf("want output.format error; got %+v", issues)
	}
	if issues := validateOutput(Output{Dir: "out", Format: "svg", Workbook: "report.csv"}); !hasIssue(t, issues, SeverityWarning, "output.workbook", ".xlsx") {
		t.Fatalf("want workbook warning; got %+v", issues)
	}
	if issues := validateOutput(Output{Dir: "out", Format: "svg"}); len(issues) != 0 {
		t.Fatalf("workbook disabled should be fine; got %+v", issues)
	}
	if issues := validateOutput(Output{Dir: "out", Format: "png", Views: []string{"state_mean_bar", "pie"}}); !hasIssue(t, issues, SeverityError, "output.views[1]", `unknown view "pie"`) || len(issues) != 1 {
		t.Fatalf("want one output.views error; got %+v", issues)
	}
	if issues := validateRuntime(RuntimeConfig{RenderWorkers: -1}); !hasIssue(t, issues, SeverityError, "runtime.render_workers", "negative") {
		t.Fatalf("want render_workers error; got %+v", issues)
	}
	if issues := validateRuntime(RuntimeConfig{}); issues != nil {
		t.Fatalf("zero render_workers means default; got %+v", issues)
	}
}
