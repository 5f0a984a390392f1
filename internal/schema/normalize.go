// Package schema maps parsed input frames onto the canonical column set.
//
// The mapping is positional: the i-th input column becomes the i-th canonical
// column regardless of what its header says. Exports of the statistics series
// ship with inconsistent header text (duplicated "Region", unit suffixes,
// stray spaces), while the column order is stable.
package schema

import (
	"errors"
	"fmt"

	"labourstat/internal/parser"
	"labourstat/pkg/records"
)

// Width is the fixed number of input columns.
const Width = len(records.Canonical)

// ErrSchemaMismatch is matched by every *SchemaMismatchError.
var ErrSchemaMismatch = errors.New("schema mismatch")

// SchemaMismatchError reports an input whose column count is not Width.
type SchemaMismatchError struct {
	Got  int
	Want int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: input has %d columns, want %d", e.Got, e.Want)
}

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// Frame is a parsed frame whose columns carry canonical names. Source holds
// the original header text for diagnostics.
type Frame struct {
	Columns []records.Column
	Source  []string
	Rows    []parser.Row
}

// Index returns the position of c, or -1.
func (f Frame) Index(c records.Column) int {
	for i, col := range f.Columns {
		if col == c {
			return i
		}
	}
	return -1
}

// Normalize renames the columns of in to the canonical set by position. It
// fails with *SchemaMismatchError when in does not have exactly Width columns.
// Rows are shared with in, never modified.
func Normalize(in parser.Frame) (Frame, error) {
	if len(in.Header) != Width {
		return Frame{}, &SchemaMismatchError{Got: len(in.Header), Want: Width}
	}
	cols := make([]records.Column, Width)
	copy(cols, records.Canonical[:])

	src := make([]string, len(in.Header))
	copy(src, in.Header)

	return Frame{Columns: cols, Source: src, Rows: in.Rows}, nil
}
