package builtin

import (
	"testing"

	"labourstat/pkg/records"
)

/*
TestNormalizeApply_TableDriven verifies the text cleanup of Normalize.Apply:

  - Replaces U+00A0 NO-BREAK SPACE (and its mis-decoded "Â " form) with a space.
  - Collapses inner whitespace runs and trims edges.
  - Leaves numeric fields untouched and does not modify the input table.
*/
func TestNormalizeApply_TableDriven(t *testing.T) {
	tests := []struct {
		name string
		in   records.Record
		want records.Record
	}{
		{
			name: "no_change",
			in:   records.Record{State: "Bihar", Region: "East", UnemploymentRate: records.Some(1)},
			want: records.Record{State: "Bihar", Region: "East", UnemploymentRate: records.Some(1)},
		},
		{
			name: "trim_and_collapse",
			in:   records.Record{State: "  Tamil   Nadu ", Region: "\tSouth\n", Frequency: " M"},
			want: records.Record{State: "Tamil Nadu", Region: "South", Frequency: "M"},
		},
		{
			name: "nbsp",
			in:   records.Record{State: "Jammu\u00a0& Kashmir", Region: "North\u00c2\u00a0"},
			want: records.Record{State: "Jammu & Kashmir", Region: "North"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := records.NewTable([]records.Record{tt.in})
			out, err := Normalize{}.Apply(in)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if got := out.At(0); got != tt.want {
				t.Fatalf("got %+v want %+v", got, tt.want)
			}
			if in.At(0) != tt.in {
				t.Fatalf("input mutated: %+v", in.At(0))
			}
		})
	}
}
