package records

import (
	"errors"
	"fmt"
)

// ErrInvalidMonth is matched by every *InvalidMonthError.
var ErrInvalidMonth = errors.New("invalid month")

// InvalidMonthError reports a month number outside [1,12].
type InvalidMonthError struct {
	Month int
}

func (e *InvalidMonthError) Error() string {
	return fmt.Sprintf("invalid month number %d: want 1..12", e.Month)
}

func (e *InvalidMonthError) Is(target error) bool { return target == ErrInvalidMonth }

// monthAbbr is fixed English, independent of any locale.
var monthAbbr = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// MonthAbbrev returns the three-letter English abbreviation of month n.
func MonthAbbrev(n int) (string, error) {
	if n < 1 || n > 12 {
		return "", &InvalidMonthError{Month: n}
	}
	return monthAbbr[n-1], nil
}

// MonthOrder returns the abbreviations present in abbrevs sorted by calendar
// month. Unknown values are dropped.
func MonthOrder(abbrevs []string) []string {
	present := make(map[string]bool, len(abbrevs))
	for _, a := range abbrevs {
		present[a] = true
	}
	out := make([]string, 0, len(present))
	for _, a := range monthAbbr {
		if present[a] {
			out = append(out, a)
		}
	}
	return out
}
