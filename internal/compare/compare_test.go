package compare

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labourstat/pkg/records"
)

func obs(state string, month int, rate float64) records.Record {
	return records.Record{
		State:            state,
		Region:           "North",
		Date:             time.Date(2020, time.Month(month), 28, 0, 0, 0, 0, time.UTC),
		MonthNumber:      month,
		UnemploymentRate: records.Some(rate),
	}
}

// scenario gives before means {Haryana:20, Jharkhand:18} and after means
// {Haryana:35, Jharkhand:30}; April counts in both windows.
func scenario() records.Table {
	return records.NewTable([]records.Record{
		obs("Haryana", 1, 15),
		obs("Haryana", 4, 25),
		obs("Haryana", 6, 45),
		obs("Jharkhand", 2, 6),
		obs("Jharkhand", 4, 30),
		obs("Jharkhand", 7, 30),
		obs("Jharkhand", 10, 99), // outside both windows
	})
}

func TestChange_LiteralFormula(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 9.0, Change(ModeLiteral, 8, 10))
	assert.Equal(t, 0.25, Change(ModeRelative, 8, 10))
	assert.True(t, math.IsNaN(Change(ModeLiteral, 0, 10)), "0/0 is NaN")
}

func TestCompare_Scenario(t *testing.T) {
	t.Parallel()

	res, err := Comparator{Window: LockdownWindow}.Compare(scenario())
	require.NoError(t, err)
	require.Nil(t, res.Mismatch)
	require.Len(t, res.Rows, 2)

	assert.Equal(t, Row{State: "Jharkhand", RateBefore: 18, RateAfter: 30, PercentChange: 29}, res.Rows[0])
	assert.Equal(t, Row{State: "Haryana", RateBefore: 20, RateAfter: 35, PercentChange: 34}, res.Rows[1])
}

func TestCompare_RelativeMode(t *testing.T) {
	t.Parallel()

	res, err := Comparator{Window: LockdownWindow, Mode: ModeRelative}.Compare(scenario())
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Jharkhand", res.Rows[0].State)
	assert.Equal(t, 0.67, res.Rows[0].PercentChange)
	assert.Equal(t, "Haryana", res.Rows[1].State)
	assert.Equal(t, 0.75, res.Rows[1].PercentChange)
}

func TestCompare_JoinMismatch(t *testing.T) {
	t.Parallel()

	tbl := records.NewTable([]records.Record{
		obs("A", 1, 10), obs("A", 5, 12),
		obs("OnlyBefore", 2, 5),
		obs("OnlyAfter", 6, 7),
	})

	res, err := Comparator{Window: LockdownWindow}.Compare(tbl)
	require.NoError(t, err)
	require.NotNil(t, res.Mismatch)
	assert.Equal(t, []string{"OnlyBefore"}, res.Mismatch.OnlyBefore)
	assert.Equal(t, []string{"OnlyAfter"}, res.Mismatch.OnlyAfter)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "A", res.Rows[0].State)
	assert.Equal(t, 11.0, res.Rows[0].PercentChange)

	_, err = Comparator{Window: LockdownWindow, Strict: true}.Compare(tbl)
	assert.ErrorIs(t, err, ErrJoinMismatch)
	var jme *JoinMismatchError
	require.ErrorAs(t, err, &jme)
	assert.Contains(t, jme.Error(), "OnlyAfter")
}

func TestCompare_NaNSortsLast(t *testing.T) {
	t.Parallel()

	tbl := records.NewTable([]records.Record{
		obs("Zero", 1, 0), obs("Zero", 5, 3),
		obs("B", 1, 2), obs("B", 5, 4),
		{State: "NullRate", MonthNumber: 2}, obs("NullRate", 6, 1),
	})
	res, err := Comparator{Window: LockdownWindow}.Compare(tbl)
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "B", res.Rows[0].State)
	assert.Equal(t, "NullRate", res.Rows[1].State)
	assert.Equal(t, "Zero", res.Rows[2].State)
	assert.True(t, math.IsNaN(res.Rows[1].PercentChange))
	assert.True(t, math.IsNaN(res.Rows[2].PercentChange))
}

func TestWindowAndModeValidation(t *testing.T) {
	t.Parallel()

	_, err := Comparator{Window: Window{BeforeEnd: 0, AfterStart: 4, AfterEnd: 7}}.Compare(records.Table{})
	assert.ErrorContains(t, err, "before_end")
	_, err = Comparator{Window: Window{BeforeEnd: 4, AfterStart: 8, AfterEnd: 7}}.Compare(records.Table{})
	assert.ErrorContains(t, err, "after_end")
	_, err = Comparator{Window: LockdownWindow, Mode: "fancy"}.Compare(records.Table{})
	assert.ErrorContains(t, err, "unknown change mode")

	m, err := ParseMode(" Relative ")
	require.NoError(t, err)
	assert.Equal(t, ModeRelative, m)
	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeLiteral, m)
	_, err = ParseMode("x")
	assert.Error(t, err)
}
