// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from a labourstat run.
//
// It exposes a narrow interface (Backend) for counters and timings, and a
// global, pluggable backend that defaults to a no-op implementation so the
// helpers are always safe to call. Concrete systems live in subpackages
// (prompush, datadog).
package metrics

import "time"

// Metric names shared by every backend.
const (
	StepTotal           = "labourstat_step_total"
	StepDurationSeconds = "labourstat_step_duration_seconds"
	RecordsTotal        = "labourstat_records_total"
	ArtifactsTotal      = "labourstat_artifacts_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and success/failure of one pipeline stage.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind.
//
// Kinds mirror the run summary:
//   - "parsed"
//   - "parse_skipped"
//   - "coerce_issues"
//   - "dropped"
//   - "analysed"
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordArtifact counts one written output file of kind ("chart" or
// "workbook").
func RecordArtifact(job, kind string) {
	backend.IncCounter(ArtifactsTotal, 1, Labels{
		"job":  job,
		"kind": kind,
	})
}
