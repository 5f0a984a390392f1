// Package config defines the JSON-serializable configuration model for a
// labourstat run. Pipelines can be loaded from disk and passed through the
// program without additional glue code.
//
// Field names in Go mirror the JSON structure used in pipeline files under
// configs/. JSON is decoded by the standard library and YAML by yaml.v3 with
// the same keys, with a light Options helper for typed access to free-form
// options.
//
// Example (trimmed):
//
//	{
//	  "job":       "unemployment_2020",
//	  "source":    { "kind": "file", "file": { "path": "data/unemployment.csv" } },
//	  "parser":    { "kind": "csv", "options": { "encoding": "auto", "trim_space": true } },
//	  "transform": [
//	    { "kind": "coerce", "options": { "date_policy": "reject" } },
//	    { "kind": "normalize" },
//	    { "kind": "require" },
//	    { "kind": "derive" }
//	  ],
//	  "analysis":  { "before_end": 4, "after_start": 4, "after_end": 7 },
//	  "output":    { "dir": "out", "format": "png", "workbook": "report.xlsx" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pipeline describes a full run. It is the top-level object decoded from a
// pipeline file.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job string `json:"job" yaml:"job"`

	// Source describes where input data comes from (e.g., local file).
	Source Source `json:"source" yaml:"source"`

	// Parser configures how raw bytes are turned into rows (e.g., CSV).
	Parser Parser `json:"parser" yaml:"parser"`

	// Transform lists the ordered transformations. The first step must be
	// "coerce", which turns the string frame into typed records; the rest run
	// as a chain over those records.
	Transform []Transform `json:"transform" yaml:"transform"`

	Analysis Analysis      `json:"analysis" yaml:"analysis"`
	Output   Output        `json:"output" yaml:"output"`
	Runtime  RuntimeConfig `json:"runtime" yaml:"runtime"`
}

// RuntimeConfig controls concurrency.
type RuntimeConfig struct {
	// RenderWorkers bounds how many charts render at once. Zero means 4.
	RenderWorkers int `json:"render_workers" yaml:"render_workers"`
}

// Source identifies the data source.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string `json:"kind" yaml:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file" yaml:"file"`

	// HTTP carries options for the "http" source kind.
	HTTP SourceHTTP `json:"http" yaml:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path" yaml:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL            string `json:"url" yaml:"url"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     int    `json:"max_retries" yaml:"max_retries"`
}

// Parser selects how to parse the raw source into rows.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind" yaml:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV the keys are:
	//   comma (string), trim_space (bool),
	//   encoding ("auto", "utf-8" or "windows-1252")
	Options Options `json:"options" yaml:"options"`
}

// Transform defines a single transformation step.
type Transform struct {
	// Kind selects the transform implementation: "coerce", "normalize",
	// "require", "dedup" or "derive".
	Kind string `json:"kind" yaml:"kind"`

	// Options is a free-form map interpreted by the selected transform:
	//   coerce:  date_policy ("reject"|"abort"), layouts ([]string)
	//   require: fields ([]string, default States/Date/Region)
	//   dedup:   keys ([]string), policy ("keep-first"|"keep-last"|"most-complete")
	Options Options `json:"options" yaml:"options"`
}

// Analysis configures the period comparison.
type Analysis struct {
	// BeforeEnd closes the before window [1, BeforeEnd].
	BeforeEnd int `json:"before_end" yaml:"before_end"`
	// AfterStart and AfterEnd bound the after window.
	AfterStart int `json:"after_start" yaml:"after_start"`
	AfterEnd   int `json:"after_end" yaml:"after_end"`
	// ChangeMode is "literal" (default) or "relative".
	ChangeMode string `json:"change_mode" yaml:"change_mode"`
	// StrictJoin fails the run when the two windows cover different states.
	StrictJoin bool `json:"strict_join" yaml:"strict_join"`
}

// Output configures the artifacts written by a run.
type Output struct {
	// Dir receives charts and the workbook.
	Dir string `json:"dir" yaml:"dir"`
	// Format is the chart image format, "png" or "svg".
	Format string `json:"format" yaml:"format"`
	// Workbook is the xlsx file name inside Dir. Empty disables the workbook.
	Workbook string `json:"workbook" yaml:"workbook"`
	// Views limits rendering to the named views. Empty renders all of them.
	Views []string `json:"views" yaml:"views"`
}

// Default returns the pipeline used when no config file is given. Only the
// source path has to be filled in.
func Default() Pipeline {
	return Pipeline{
		Job:    "labourstat",
		Source: Source{Kind: "file"},
		Parser: Parser{
			Kind:    "csv",
			Options: Options{"comma": ",", "encoding": "auto", "trim_space": true},
		},
		Transform: []Transform{
			{Kind: "coerce", Options: Options{"date_policy": "reject"}},
			{Kind: "normalize", Options: Options{}},
			{Kind: "require", Options: Options{}},
			{Kind: "derive", Options: Options{}},
		},
		Analysis: Analysis{BeforeEnd: 4, AfterStart: 4, AfterEnd: 7, ChangeMode: "literal"},
		Output:   Output{Dir: "out", Format: "png", Workbook: "report.xlsx"},
		Runtime:  RuntimeConfig{RenderWorkers: 4},
	}
}

// Load decodes a pipeline from r on top of Default, so a file only needs the
// fields it changes. Unknown fields are rejected.
func Load(r io.Reader) (Pipeline, error) {
	p := Default()
	// A transform list in the file replaces the default chain as a whole.
	p.Transform = nil
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config: %w", err)
	}
	if p.Transform == nil {
		p.Transform = Default().Transform
	}
	return p, nil
}

// LoadYAML is Load for YAML pipeline files. Keys match the JSON names.
func LoadYAML(r io.Reader) (Pipeline, error) {
	p := Default()
	p.Transform = nil
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config: %w", err)
	}
	if p.Transform == nil {
		p.Transform = Default().Transform
	}
	return p, nil
}

// LoadFile opens path and decodes it as YAML for .yaml/.yml files and as
// JSON otherwise.
func LoadFile(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(f)
	}
	return Load(f)
}

// Step returns the first transform of kind and whether it exists.
func (p Pipeline) Step(kind string) (Transform, bool) {
	for _, t := range p.Transform {
		if t.Kind == kind {
			return t, true
		}
	}
	return Transform{}, false
}

// Options is a small helper to fetch typed values from arbitrary JSON maps.
// It performs only minimal type coercion and returns provided defaults when a
// key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringSlice returns a []string for key when the value is an array of
// strings. Returns nil when the key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// UnmarshalJSON makes a missing or null "options" object decode to a non-nil,
// empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
