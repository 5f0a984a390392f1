package transformer

import (
	"errors"
	"fmt"
	"strings"

	"labourstat/pkg/records"
)

var (
	// ErrDateParse is matched by every *DateParseError.
	ErrDateParse = errors.New("date parse error")
	// ErrNullValue is matched by every *NullValueError.
	ErrNullValue = errors.New("null value")
)

// DateParseError reports a Date cell that matches none of the accepted
// day-first layouts.
type DateParseError struct {
	Line  int
	Value string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("line %d: cannot parse date %q", e.Line, e.Value)
}

func (e *DateParseError) Is(target error) bool { return target == ErrDateParse }

// NullValueError reports rows dropped because fields required downstream
// were missing. Columns lists every offending column; Rows counts the rows.
type NullValueError struct {
	Columns []records.Column
	Rows    int
}

func (e *NullValueError) Error() string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = string(c)
	}
	return fmt.Sprintf("%d row(s) missing required value(s) in [%s]", e.Rows, strings.Join(names, ", "))
}

func (e *NullValueError) Is(target error) bool { return target == ErrNullValue }

// merge folds o into e, keeping Columns in first-seen order.
func (e *NullValueError) merge(o *NullValueError) {
	for _, c := range o.Columns {
		found := false
		for _, have := range e.Columns {
			if have == c {
				found = true
				break
			}
		}
		if !found {
			e.Columns = append(e.Columns, c)
		}
	}
	e.Rows += o.Rows
}
