package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"labourstat/internal/analysis"
	"labourstat/internal/compare"
	"labourstat/internal/config"
	"labourstat/internal/datasource"
	"labourstat/internal/datasource/file"
	"labourstat/internal/datasource/httpds"
	"labourstat/internal/logging"
	"labourstat/internal/metrics"
	csvparser "labourstat/internal/parser/csv"
	"labourstat/internal/render"
	"labourstat/internal/report"
	"labourstat/internal/schema"
	"labourstat/internal/transformer"
	"labourstat/internal/transformer/builtin"
	"labourstat/pkg/records"
)

// thisMany bounds how many sample row issues are logged per stage.
const thisMany = 10

// outcome is what a run produced, for the final summary.
type outcome struct {
	source      string
	fingerprint string
	bytes       int
	encoding    string
	parsed      int
	skipped     int
	analysed    int
	dropped     int
	mismatch    *compare.JoinMismatchError
	artifacts   []render.Artifact
	workbook    string
}

// run executes the whole pipeline: load, clean, aggregate, compare, draw and
// write the workbook. Per-row problems end up in the diagnostics summary;
// structural problems abort.
func run(ctx context.Context, p config.Pipeline) (*outcome, error) {
	logger := logging.FromContext(ctx)
	out := &outcome{}

	src, err := openSource(p.Source)
	if err != nil {
		return nil, err
	}
	out.source = src.Name()

	var payload datasource.Payload
	if err := step(p.Job, "read", func() error {
		payload, err = datasource.ReadAll(ctx, src)
		return err
	}); err != nil {
		return nil, err
	}
	out.fingerprint, out.bytes = payload.Fingerprint, payload.Size()
	logger.Info("input read", "source", out.source, "bytes", out.bytes, "fingerprint", out.fingerprint)

	diag := transformer.NewDiagnostics()

	var frame schema.Frame
	if err := step(p.Job, "parse", func() error {
		pr, err := buildParser(p.Parser)
		if err != nil {
			return err
		}
		raw, err := pr.Parse(bytes.NewReader(payload.Data))
		if err != nil {
			return fmt.Errorf("parse %s: %w", out.source, err)
		}
		out.encoding = raw.Encoding
		diag.AddSkipped(raw.Skipped)
		frame, err = schema.Normalize(raw)
		return err
	}); err != nil {
		return nil, err
	}
	out.parsed = len(frame.Rows)
	diag.Nulls = transformer.CountNulls(frame)
	metrics.RecordRow(p.Job, "parsed", int64(out.parsed))
	metrics.RecordRow(p.Job, "parse_skipped", int64(diag.Count(transformer.StageParse)))
	if out.parsed == 0 {
		return nil, fmt.Errorf("%s has no data rows", out.source)
	}

	var tbl records.Table
	if err := step(p.Job, "transform", func() error {
		coerce, chain, err := buildTransformers(p.Transform, diag)
		if err != nil {
			return err
		}
		typed, err := coerce.Apply(frame)
		if err != nil {
			return fmt.Errorf("coerce: %w", err)
		}
		tbl, err = chain.Apply(typed)
		return err
	}); err != nil {
		diag.LogSummary(logger, thisMany)
		return nil, err
	}
	out.analysed = tbl.Len()
	out.skipped = diag.Count(transformer.StageParse)
	out.dropped = diag.Dropped() - out.skipped
	metrics.RecordRow(p.Job, "coerce_issues", int64(diag.Count(transformer.StageCoerce)))
	metrics.RecordRow(p.Job, "dropped", int64(out.dropped))
	metrics.RecordRow(p.Job, "analysed", int64(out.analysed))
	diag.LogSummary(logger, thisMany)
	if tbl.Len() == 0 {
		return nil, errors.New("no rows left to analyse")
	}

	var (
		summary analysis.Summary
		views   []analysis.View
	)
	if err := step(p.Job, "analyse", func() error {
		var err error
		summary, err = analysis.Summarize(tbl)
		if err != nil {
			return err
		}
		mode, err := compare.ParseMode(p.Analysis.ChangeMode)
		if err != nil {
			return err
		}
		cmp := compare.Comparator{
			Window: compare.Window{
				BeforeEnd:  p.Analysis.BeforeEnd,
				AfterStart: p.Analysis.AfterStart,
				AfterEnd:   p.Analysis.AfterEnd,
			},
			Mode:   mode,
			Strict: p.Analysis.StrictJoin,
		}
		res, err := cmp.Compare(tbl)
		if err != nil {
			return err
		}
		if res.Mismatch != nil {
			out.mismatch = res.Mismatch
			logger.Warn("period comparison covers different states",
				"only_before", res.Mismatch.OnlyBefore, "only_after", res.Mismatch.OnlyAfter)
		}
		all, err := analysis.Build(tbl, res)
		if err != nil {
			return err
		}
		views, err = analysis.Select(all, p.Output.Views)
		return err
	}); err != nil {
		return nil, err
	}

	if err := step(p.Job, "render", func() error {
		r, err := render.New(render.Options{
			Dir:     p.Output.Dir,
			Format:  p.Output.Format,
			Workers: p.Runtime.RenderWorkers,
			Job:     p.Job,
		})
		if err != nil {
			return err
		}
		out.artifacts, err = r.Render(ctx, views)
		return err
	}); err != nil {
		return nil, err
	}

	if p.Output.Workbook != "" {
		out.workbook = filepath.Join(p.Output.Dir, p.Output.Workbook)
		if err := step(p.Job, "report", func() error {
			err := report.Write(out.workbook, report.Input{
				Job:         p.Job,
				Source:      out.source,
				Fingerprint: out.fingerprint,
				Rows:        tbl.Len(),
				Summary:     summary,
				Views:       views,
				Nulls:       diag.Nulls,
				Issues:      diag.Issues(),
				Mismatch:    out.mismatch,
			})
			if err == nil {
				metrics.RecordArtifact(p.Job, "workbook")
			}
			return err
		}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// step times fn and records it under name.
func step(job, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(job, name, err, time.Since(start))
	return err
}

// openSource maps source configuration onto a datasource.
func openSource(s config.Source) (datasource.Source, error) {
	switch s.Kind {
	case "file":
		return file.NewLocal(s.File.Path), nil
	case "http":
		return httpds.NewRemote(s.HTTP.URL, httpds.Config{
			Timeout:    time.Duration(s.HTTP.TimeoutSeconds) * time.Second,
			MaxRetries: s.HTTP.MaxRetries,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported source.kind=%s", s.Kind)
	}
}

// buildParser maps parser configuration into a concrete parser implementation.
func buildParser(p config.Parser) (*csvparser.Parser, error) {
	switch p.Kind {
	case "csv":
		return csvparser.NewParser(csvparser.Options{
			Comma:     p.Options.Rune("comma", ','),
			TrimSpace: p.Options.Bool("trim_space", true),
			Encoding:  strings.ToLower(p.Options.String("encoding", csvparser.EncodingAuto)),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported parser.kind=%s", p.Kind)
	}
}

// buildTransformers constructs the coerce step and the record chain that
// follows it. Every step reports into diag.
func buildTransformers(ts []config.Transform, diag *transformer.Diagnostics) (builtin.Coerce, transformer.Chain, error) {
	if len(ts) == 0 || ts[0].Kind != "coerce" {
		return builtin.Coerce{}, nil, errors.New("transform must start with coerce")
	}
	coerce := builtin.Coerce{
		Layouts:    ts[0].Options.StringSlice("layouts"),
		Policy:     builtin.DatePolicy(ts[0].Options.String("date_policy", string(builtin.DateReject))),
		Categories: diag.Categories,
		Report:     diag.Report,
	}

	c := transformer.Chain{}
	for _, t := range ts[1:] {
		switch t.Kind {
		case "normalize":
			c = append(c, builtin.Normalize{})
		case "require":
			c = append(c, builtin.Require{
				Fields: columns(t.Options.StringSlice("fields")),
				Report: diag.Report,
			})
		case "dedup":
			c = append(c, builtin.DeDup{
				Keys:   columns(t.Options.StringSlice("keys")),
				Policy: t.Options.String("policy", "keep-first"),
				Report: diag.Report,
			})
		case "derive":
			c = append(c, builtin.Derive{})
		default:
			return builtin.Coerce{}, nil, fmt.Errorf("unsupported transformer.kind=%s", t.Kind)
		}
	}
	return coerce, c, nil
}

func columns(ss []string) []records.Column {
	if len(ss) == 0 {
		return nil
	}
	out := make([]records.Column, len(ss))
	for i, s := range ss {
		out[i] = records.Column(s)
	}
	return out
}

// logGlobalSummary prints final statistics for the run.
//
// Row accounting: parsed == analysed + dropped, where dropped counts rows
// removed by coercion, require or dedup. Rows the parser skipped are counted
// separately.
func logGlobalSummary(logger *slog.Logger, o *outcome, elapsed time.Duration) {
	logger.Info("summary",
		"source", o.source,
		"fingerprint", o.fingerprint,
		"encoding", o.encoding,
		"parsed", o.parsed,
		"parse_skipped", o.skipped,
		"analysed", o.analysed,
		"dropped", o.dropped,
		"artifacts", len(o.artifacts),
		"workbook", o.workbook,
		"elapsed", elapsed.Truncate(time.Millisecond),
	)
	if o.parsed != o.analysed+o.dropped {
		logger.Warn("row accounting mismatch",
			"parsed", o.parsed, "accounted", o.analysed+o.dropped,
			"delta", o.parsed-o.analysed-o.dropped)
	}
}
