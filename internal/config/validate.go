package config

import (
	"fmt"
	"net/url"
	"strings"

	"labourstat/internal/analysis"
	"labourstat/internal/compare"
	"labourstat/pkg/records"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "source.file.path",
// "transform[1].options.policy"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateTransforms(p.Transform)...)
	issues = append(issues, validateAnalysis(p.Analysis)...)
	issues = append(issues, validateOutput(p.Output)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	switch strings.TrimSpace(s.Kind) {
	case "":
		return append(issues, Issue{SeverityError, "source.kind", "source.kind must not be empty"})
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{SeverityError, "source.file.path", "file source requires a non-empty path"})
		}
	case "http":
		u, err := url.Parse(s.HTTP.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			issues = append(issues, Issue{SeverityError, "source.http.url", fmt.Sprintf("http source requires an absolute http(s) url, got %q", s.HTTP.URL)})
		}
		if s.HTTP.TimeoutSeconds < 0 || s.HTTP.MaxRetries < 0 {
			issues = append(issues, Issue{SeverityError, "source.http", "timeout_seconds and max_retries must not be negative"})
		}
	default:
		issues = append(issues, Issue{SeverityError, "source.kind", fmt.Sprintf("unsupported source kind %q", s.Kind)})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	switch strings.TrimSpace(p.Kind) {
	case "":
		return append(issues, Issue{SeverityError, "parser.kind", "parser.kind must not be empty"})
	case "csv":
	default:
		return append(issues, Issue{SeverityError, "parser.kind", fmt.Sprintf("unsupported parser kind %q", p.Kind)})
	}

	switch enc := strings.ToLower(p.Options.String("encoding", "auto")); enc {
	case "auto", "utf-8", "utf8", "windows-1252", "cp1252":
	default:
		issues = append(issues, Issue{SeverityError, "parser.options.encoding", fmt.Sprintf("unsupported encoding %q", enc)})
	}
	if c := p.Options.Rune("comma", ','); c == '"' || c == '\r' || c == '\n' {
		issues = append(issues, Issue{SeverityError, "parser.options.comma", fmt.Sprintf("invalid delimiter %q", c)})
	}
	return issues
}

func validateTransforms(ts []Transform) []Issue {
	var issues []Issue

	if len(ts) == 0 {
		return append(issues, Issue{SeverityError, "transform", "transform must start with a coerce step"})
	}
	if ts[0].Kind != "coerce" {
		issues = append(issues, Issue{SeverityError, "transform[0].kind",
			fmt.Sprintf("first transform must be coerce, got %q", ts[0].Kind)})
	}

	seen := map[string]bool{}
	for i, t := range ts {
		path := fmt.Sprintf("transform[%d]", i)
		kind := strings.TrimSpace(t.Kind)
		if kind == "" {
			issues = append(issues, Issue{SeverityError, path + ".kind", "transform kind must not be empty"})
			continue
		}
		if seen[kind] {
			issues = append(issues, Issue{SeverityWarning, path + ".kind", fmt.Sprintf("transform %q appears more than once", kind)})
		}
		seen[kind] = true

		switch kind {
		case "coerce":
			if i != 0 {
				issues = append(issues, Issue{SeverityError, path + ".kind", "coerce must be the first transform"})
			}
			switch pol := t.Options.String("date_policy", "reject"); pol {
			case "reject", "abort":
			default:
				issues = append(issues, Issue{SeverityError, path + ".options.date_policy",
					fmt.Sprintf("date_policy must be reject or abort, got %q", pol)})
			}
		case "require":
			for _, f := range t.Options.StringSlice("fields") {
				if !records.Column(f).Known() {
					issues = append(issues, Issue{SeverityError, path + ".options.fields", fmt.Sprintf("unknown column %q", f)})
				}
			}
		case "dedup":
			for _, k := range t.Options.StringSlice("keys") {
				if !records.Column(k).IsKey() {
					issues = append(issues, Issue{SeverityError, path + ".options.keys",
						fmt.Sprintf("%q is not a categorical column", k)})
				}
			}
			switch pol := t.Options.String("policy", "keep-first"); pol {
			case "keep-first", "keep-last", "most-complete":
			default:
				issues = append(issues, Issue{SeverityError, path + ".options.policy", fmt.Sprintf("unknown dedup policy %q", pol)})
			}
		case "normalize", "derive":
		default:
			issues = append(issues, Issue{SeverityError, path + ".kind", fmt.Sprintf("unknown transform kind %q", kind)})
		}
	}

	if !seen["derive"] {
		issues = append(issues, Issue{SeverityError, "transform",
			"no derive transform; month columns are required by the period comparison"})
	}
	if !seen["require"] {
		issues = append(issues, Issue{SeverityWarning, "transform",
			"no require transform; rows with missing States, Date or Region reach aggregation"})
	}
	return issues
}

func validateAnalysis(a Analysis) []Issue {
	var issues []Issue

	w := compare.Window{BeforeEnd: a.BeforeEnd, AfterStart: a.AfterStart, AfterEnd: a.AfterEnd}
	if err := w.Validate(); err != nil {
		issues = append(issues, Issue{SeverityError, "analysis", err.Error()})
	}
	if _, err := compare.ParseMode(a.ChangeMode); err != nil {
		issues = append(issues, Issue{SeverityError, "analysis.change_mode", err.Error()})
	}
	return issues
}

func validateOutput(o Output) []Issue {
	var issues []Issue

	if strings.TrimSpace(o.Dir) == "" {
		issues = append(issues, Issue{SeverityError, "output.dir", "output.dir must not be empty"})
	}
	switch o.Format {
	case "png", "svg":
	default:
		issues = append(issues, Issue{SeverityError, "output.format", fmt.Sprintf("format must be png or svg, got %q", o.Format)})
	}
	if o.Workbook != "" && !strings.HasSuffix(strings.ToLower(o.Workbook), ".xlsx") {
		issues = append(issues, Issue{SeverityWarning, "output.workbook", "workbook name does not end in .xlsx"})
	}
	for i, v := range o.Views {
		if !analysis.Known(v) {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("output.views[%d]", i), fmt.Sprintf("unknown view %q", v)})
		}
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	if r.RenderWorkers < 0 {
		return []Issue{{SeverityError, "runtime.render_workers", "render_workers must not be negative"}}
	}
	return nil
}
