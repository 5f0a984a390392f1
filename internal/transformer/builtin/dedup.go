package builtin

import (
	"fmt"
	"sort"
	"strings"

	"labourstat/internal/transformer"
	"labourstat/pkg/records"
)

// DeDup collapses records that repeat a key (by default State+Date: one
// observation per state per month) and chooses a winner by policy:
//
//   - "keep-first"   : keep the earliest occurrence (default)
//   - "keep-last"    : keep the latest occurrence
//   - "most-complete": keep the record with the most non-null measures;
//     ties break by keep-first
//
// Survivors keep their original relative order. Losers are reported as
// dropped rows.
type DeDup struct {
	Keys   []records.Column
	Policy string
	Report transformer.Reporter
}

func (DeDup) Name() string { return "dedup" }

func (d DeDup) Apply(in records.Table) (records.Table, error) {
	keys := d.Keys
	if len(keys) == 0 {
		keys = []records.Column{records.State, records.Date}
	}
	for _, k := range keys {
		if !k.IsKey() {
			return records.Table{}, fmt.Errorf("dedup key %q is not a categorical column", k)
		}
	}
	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = "keep-first"
	}
	switch policy {
	case "keep-first", "keep-last", "most-complete":
	default:
		return records.Table{}, fmt.Errorf("unknown dedup policy %q", d.Policy)
	}

	type slot struct {
		index int
		score int
	}
	rows := in.Rows()
	winners := make(map[string]slot, len(rows))
	for i, r := range rows {
		key := keyOf(r, keys)
		s := slot{index: i, score: completeness(r)}
		prev, exists := winners[key]
		switch {
		case !exists:
			winners[key] = s
		case policy == "keep-last":
			winners[key] = s
		case policy == "most-complete" && s.score > prev.score:
			winners[key] = s
		}
	}

	keep := make([]int, 0, len(winners))
	for _, s := range winners {
		keep = append(keep, s.index)
	}
	sort.Ints(keep)

	out := make([]records.Record, 0, len(keep))
	k := 0
	for i, r := range rows {
		if k < len(keep) && keep[k] == i {
			out = append(out, r)
			k++
			continue
		}
		d.Report.Report(transformer.RowIssue{
			Line:    r.Line,
			Stage:   transformer.StageDedup,
			Column:  keys[0],
			Value:   keyOf(r, keys),
			Err:     fmt.Errorf("duplicate key (policy %s)", policy),
			Dropped: true,
		})
	}
	return records.NewTable(out), nil
}

func keyOf(r records.Record, keys []records.Column) string {
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		v, _ := r.Text(k)
		b.WriteString(v)
	}
	return b.String()
}

func completeness(r records.Record) int {
	n := 0
	for _, c := range []records.Column{
		records.UnemploymentRate, records.Employed, records.LabourParticipationRate,
		records.Longitude, records.Latitude,
	} {
		if _, ok := r.Number(c); ok {
			n++
		}
	}
	return n
}
