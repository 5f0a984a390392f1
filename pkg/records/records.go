// Package records defines the typed observation model shared by every stage
// of the pipeline: one Record per (state, month) observation and an immutable
// Table of records in load order.
package records

import (
	"strconv"
	"time"
)

// Column names a field of a Record. The first nine values are the canonical
// input columns in positional order; Month_int and Month_name are derived.
type Column string

const (
	State                   Column = "States"
	Date                    Column = "Date"
	Frequency               Column = "Frequency"
	UnemploymentRate        Column = "Estimated Unemployment Rate"
	Employed                Column = "Estimated Employed"
	LabourParticipationRate Column = "Estimated Labour Participation Rate"
	Region                  Column = "Region"
	Longitude               Column = "longitude"
	Latitude                Column = "latitude"

	MonthNumber Column = "Month_int"
	MonthName   Column = "Month_name"
)

// Canonical is the fixed positional column set of an input file.
var Canonical = [...]Column{
	State,
	Date,
	Frequency,
	UnemploymentRate,
	Employed,
	LabourParticipationRate,
	Region,
	Longitude,
	Latitude,
}

// Measures are the numeric columns summarised by most views.
var Measures = []Column{UnemploymentRate, Employed, LabourParticipationRate}

// DateKeyLayout is used when Date participates in a grouping key.
const DateKeyLayout = "2006-01-02"

// IsKey reports whether c can be used as a grouping key.
func (c Column) IsKey() bool {
	switch c {
	case State, Date, Frequency, Region, MonthNumber, MonthName:
		return true
	}
	return false
}

// IsNumeric reports whether c can be reduced arithmetically.
func (c Column) IsNumeric() bool {
	switch c {
	case UnemploymentRate, Employed, LabourParticipationRate, Longitude, Latitude, MonthNumber:
		return true
	}
	return false
}

// Known reports whether c names a Record field.
func (c Column) Known() bool { return c.IsKey() || c.IsNumeric() }

// Float is a nullable float64, in the manner of sql.NullFloat64.
type Float struct {
	Value float64
	Valid bool
}

// Some returns a valid Float holding v.
func Some(v float64) Float { return Float{Value: v, Valid: true} }

// Null is the absent value.
var Null = Float{}

// Record is one observation. Measures and coordinates may be null; the key
// fields (State, Date, Region) are always populated once a row survives
// coercion.
type Record struct {
	// Line is the 1-based source file line the row starts on, 0 when
	// synthetic.
	Line int

	State                   string
	Date                    time.Time
	Frequency               string
	UnemploymentRate        Float
	Employed                Float
	LabourParticipationRate Float
	Region                  string
	Longitude               Float
	Latitude                Float

	MonthNumber int
	MonthAbbrev string
}

// Text returns the categorical value of c. ok is false for non-key columns.
func (r Record) Text(c Column) (string, bool) {
	switch c {
	case State:
		return r.State, true
	case Date:
		return r.Date.Format(DateKeyLayout), true
	case Frequency:
		return r.Frequency, true
	case Region:
		return r.Region, true
	case MonthNumber:
		return strconv.Itoa(r.MonthNumber), true
	case MonthName:
		return r.MonthAbbrev, true
	}
	return "", false
}

// Number returns the numeric value of c. ok is false when the column is not
// numeric or the value is null.
func (r Record) Number(c Column) (float64, bool) {
	var f Float
	switch c {
	case UnemploymentRate:
		f = r.UnemploymentRate
	case Employed:
		f = r.Employed
	case LabourParticipationRate:
		f = r.LabourParticipationRate
	case Longitude:
		f = r.Longitude
	case Latitude:
		f = r.Latitude
	case MonthNumber:
		if r.MonthNumber == 0 {
			return 0, false
		}
		return float64(r.MonthNumber), true
	default:
		return 0, false
	}
	return f.Value, f.Valid
}
