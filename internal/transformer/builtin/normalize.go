package builtin

import (
	"strings"

	"labourstat/pkg/records"
)

// Normalize cleans categorical text: NO-BREAK SPACE becomes a space, runs of
// whitespace collapse to one space and edges are trimmed.
type Normalize struct{}

func (Normalize) Name() string { return "normalize" }

func (Normalize) Apply(in records.Table) (records.Table, error) {
	return in.Map(func(r records.Record) (records.Record, error) {
		r.State = cleanText(r.State)
		r.Frequency = cleanText(r.Frequency)
		r.Region = cleanText(r.Region)
		return r, nil
	})
}

func cleanText(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\u00c2\u00a0", " ")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
