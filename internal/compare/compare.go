// Package compare contrasts the mean unemployment rate of each state across
// two month windows, before and after a pivot event such as the April 2020
// lockdown.
package compare

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"labourstat/internal/aggregate"
	"labourstat/pkg/records"
)

// Mode selects the change formula.
type Mode string

const (
	// ModeLiteral computes after - (before / before). This is the formula of
	// the published analysis and is kept so results can be compared with it.
	// It is almost certainly a transcription slip for ModeRelative.
	ModeLiteral Mode = "literal"
	// ModeRelative computes (after - before) / before.
	ModeRelative Mode = "relative"
)

// ParseMode accepts "literal" or "relative"; empty means literal.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLiteral:
		return ModeLiteral, nil
	case ModeRelative:
		return ModeRelative, nil
	}
	return "", fmt.Errorf("unknown change mode %q", s)
}

// Window holds inclusive month bounds: before is [1, BeforeEnd], after is
// [AfterStart, AfterEnd]. The windows may overlap.
type Window struct {
	BeforeEnd  int
	AfterStart int
	AfterEnd   int
}

// LockdownWindow is January to April before and April to July after. April sits in
// both windows.
var LockdownWindow = Window{BeforeEnd: 4, AfterStart: 4, AfterEnd: 7}

// Validate checks the bounds.
func (w Window) Validate() error {
	switch {
	case w.BeforeEnd < 1 || w.BeforeEnd > 12:
		return fmt.Errorf("before_end %d out of range 1..12", w.BeforeEnd)
	case w.AfterStart < 1 || w.AfterStart > 12:
		return fmt.Errorf("after_start %d out of range 1..12", w.AfterStart)
	case w.AfterEnd < w.AfterStart || w.AfterEnd > 12:
		return fmt.Errorf("after_end %d must be in %d..12", w.AfterEnd, w.AfterStart)
	}
	return nil
}

// Row is the comparison for one state.
type Row struct {
	State         string
	RateBefore    float64
	RateAfter     float64
	PercentChange float64
}

// ErrJoinMismatch is matched by every *JoinMismatchError.
var ErrJoinMismatch = errors.New("join mismatch")

// JoinMismatchError lists states present in only one window.
type JoinMismatchError struct {
	OnlyBefore []string
	OnlyAfter  []string
}

func (e *JoinMismatchError) Error() string {
	return fmt.Sprintf("state sets differ between windows: only before=[%s] only after=[%s]",
		strings.Join(e.OnlyBefore, ", "), strings.Join(e.OnlyAfter, ", "))
}

func (e *JoinMismatchError) Is(target error) bool { return target == ErrJoinMismatch }

// Result holds the sorted comparison rows. Mismatch is non-nil when the two
// windows covered different states and the comparator was not strict.
type Result struct {
	Rows     []Row
	Mismatch *JoinMismatchError
}

// Comparator compares two month windows of a table.
type Comparator struct {
	Window Window
	Mode   Mode
	// Strict turns a state-set mismatch into an error instead of dropping
	// the unmatched states.
	Strict bool
}

// Compare aggregates the mean unemployment rate per state in each window,
// joins the two on state and computes the change. Rows are sorted ascending
// by PercentChange with NaN last and ties broken by state.
func (c Comparator) Compare(t records.Table) (Result, error) {
	if err := c.Window.Validate(); err != nil {
		return Result{}, err
	}
	mode := c.Mode
	if mode == "" {
		mode = ModeLiteral
	}
	if mode != ModeLiteral && mode != ModeRelative {
		return Result{}, fmt.Errorf("unknown change mode %q", mode)
	}

	before, err := meanRate(t.InMonths(1, c.Window.BeforeEnd))
	if err != nil {
		return Result{}, fmt.Errorf("before window: %w", err)
	}
	after, err := meanRate(t.InMonths(c.Window.AfterStart, c.Window.AfterEnd))
	if err != nil {
		return Result{}, fmt.Errorf("after window: %w", err)
	}

	afterBy := index(after)
	beforeBy := index(before)

	var res Result
	mm := &JoinMismatchError{}
	for _, b := range before {
		a, ok := afterBy[b.state]
		if !ok {
			mm.OnlyBefore = append(mm.OnlyBefore, b.state)
			continue
		}
		res.Rows = append(res.Rows, Row{
			State:         b.state,
			RateBefore:    b.rate,
			RateAfter:     a,
			PercentChange: aggregate.Round2(Change(mode, b.rate, a)),
		})
	}
	for _, a := range after {
		if _, ok := beforeBy[a.state]; !ok {
			mm.OnlyAfter = append(mm.OnlyAfter, a.state)
		}
	}
	if len(mm.OnlyBefore) > 0 || len(mm.OnlyAfter) > 0 {
		if c.Strict {
			return Result{}, mm
		}
		res.Mismatch = mm
	}

	sort.SliceStable(res.Rows, func(i, j int) bool {
		a, b := res.Rows[i].PercentChange, res.Rows[j].PercentChange
		switch {
		case math.IsNaN(a) && math.IsNaN(b):
			return res.Rows[i].State < res.Rows[j].State
		case math.IsNaN(a):
			return false
		case math.IsNaN(b):
			return true
		case a != b:
			return a < b
		}
		return res.Rows[i].State < res.Rows[j].State
	})
	return res, nil
}

// Change applies the formula of mode to a pair of window means.
func Change(mode Mode, before, after float64) float64 {
	if mode == ModeRelative {
		return (after - before) / before
	}
	return after - (before / before)
}

type stateRate struct {
	state string
	rate  float64
}

func meanRate(t records.Table) ([]stateRate, error) {
	rows, err := aggregate.MeanBy(t, []records.Column{records.State}, records.UnemploymentRate)
	if err != nil {
		return nil, err
	}
	out := make([]stateRate, len(rows))
	for i, r := range rows {
		out[i] = stateRate{state: r.Key[0], rate: r.Values[records.UnemploymentRate]}
	}
	return out, nil
}

func index(rs []stateRate) map[string]float64 {
	m := make(map[string]float64, len(rs))
	for _, r := range rs {
		m[r.state] = r.rate
	}
	return m
}
