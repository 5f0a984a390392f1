// Package analysis turns the cleaned table and the period comparison into
// chart data contracts. A View names the frame to draw, the columns to plot
// and the optional color and animation keys; it carries no drawing code.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"labourstat/internal/aggregate"
	"labourstat/internal/compare"
	"labourstat/pkg/records"
)

// Kind is the chart family a view is meant for.
type Kind string

const (
	Heatmap       Kind = "heatmap"
	Box           Kind = "box"
	ScatterMatrix Kind = "scatter_matrix"
	Bar           Kind = "bar"
	Sunburst      Kind = "sunburst"
	GeoScatter    Kind = "geo_scatter"
)

// View names.
const (
	CorrelationHeatmapView  = "correlation_heatmap"
	StateBoxplotView        = "state_boxplot"
	ScatterMatrixView       = "scatter_matrix"
	StateMeanBarView        = "state_mean_bar"
	RegionMonthBarView      = "region_month_bar"
	RegionStateSunburstView = "region_state_sunburst"
	GeoScatterView          = "geo_scatter"
	LockdownChangeBarView   = "lockdown_change_bar"
)

// Names lists every view in build order.
var Names = []string{
	CorrelationHeatmapView,
	StateBoxplotView,
	ScatterMatrixView,
	StateMeanBarView,
	RegionMonthBarView,
	RegionStateSunburstView,
	GeoScatterView,
	LockdownChangeBarView,
}

// Known reports whether name is a view name.
func Known(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// Comparison column names of the lockdown view.
const (
	RateBeforeColumn    = "Unemployment Rate before lockdown"
	RateAfterColumn     = "Unemployment Rate after lockdown"
	PercentChangeColumn = "Percentage change in Unemployment"
)

// CorrelationColumns are the columns of the correlation heatmap.
var CorrelationColumns = []records.Column{
	records.UnemploymentRate,
	records.Employed,
	records.LabourParticipationRate,
	records.Longitude,
	records.Latitude,
	records.MonthNumber,
}

// View is the data contract of one chart.
type View struct {
	Name  string
	Title string
	Kind  Kind
	Data  Frame

	// X and Y name the plotted columns. For a heatmap X is the label column.
	X, Y string
	// Dimensions are the heatmap axes, the scatter matrix dimensions or the
	// sunburst path, outermost first.
	Dimensions []string
	// Color is the grouping column; ColorContinuous means a numeric scale.
	Color           string
	ColorContinuous bool
	// Size scales markers in a geo scatter.
	Size string
	// Animate is the frame key; one image is drawn per value.
	Animate string
	// Order fixes the category order of X. Empty keeps frame order.
	Order []string

	// XRange and YRange clip the axes when Max > Min.
	XRange, YRange Range
}

// Range is a closed axis interval.
type Range struct{ Min, Max float64 }

// Set reports whether the range constrains an axis.
func (r Range) Set() bool { return r.Max > r.Min }

// Frames splits the view data by its animation key in calendar order for
// month names. A view without an animation key is a single frame with an
// empty key.
func (v View) Frames() []Partition {
	if v.Animate == "" {
		return []Partition{{Frame: v.Data}}
	}
	var order []string
	if v.Animate == string(records.MonthName) {
		order = records.MonthOrder(v.Data.Strings(v.Animate))
	}
	return v.Data.Split(v.Animate, order)
}

// Build returns every view over t and the comparison rows, in Names order.
func Build(t records.Table, cmp compare.Result) ([]View, error) {
	stateBar, err := StateMeanBar(t)
	if err != nil {
		return nil, err
	}
	sunburst, err := RegionStateSunburst(t)
	if err != nil {
		return nil, err
	}
	return []View{
		CorrelationHeatmap(aggregate.Correlate(t, CorrelationColumns...)),
		StateBoxplot(t),
		ScatterMatrixOf(t),
		stateBar,
		RegionMonthBar(t),
		sunburst,
		GeoScatterOf(t),
		LockdownChangeBar(cmp.Rows),
	}, nil
}

// Select keeps the views named in names, in names order. Empty names keeps
// all views.
func Select(views []View, names []string) ([]View, error) {
	if len(names) == 0 {
		return views, nil
	}
	byName := make(map[string]View, len(views))
	for _, v := range views {
		byName[v.Name] = v
	}
	out := make([]View, 0, len(names))
	for _, n := range names {
		v, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("analysis: unknown view %q", n)
		}
		out = append(out, v)
	}
	return out, nil
}

// CorrelationHeatmap lays m out as a labelled square frame: a "column" text
// column followed by one numeric column per variable.
func CorrelationHeatmap(m aggregate.Matrix) View {
	f := newFrame()
	labels := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		labels[i] = string(c)
	}
	f.addText("column", labels)
	for j, c := range m.Columns {
		vs := make([]float64, len(m.Columns))
		for i := range m.Columns {
			vs[i] = m.Values[i][j]
		}
		f.addNum(string(c), vs)
	}
	return View{
		Name:       CorrelationHeatmapView,
		Title:      "Correlation between unemployment, employment, participation, location and month",
		Kind:       Heatmap,
		Data:       f,
		X:          "column",
		Dimensions: labels,
	}
}

// StateBoxplot is the unemployment rate distribution per state, states in
// descending order of total rate.
func StateBoxplot(t records.Table) View {
	f := FromTable(t, records.State, records.UnemploymentRate)
	return View{
		Name:  StateBoxplotView,
		Title: "Unemployment rate per States",
		Kind:  Box,
		Data:  f,
		X:     string(records.State),
		Y:     string(records.UnemploymentRate),
		Color: string(records.State),
		Order: TotalDescending(f, string(records.State), string(records.UnemploymentRate)),
	}
}

// ScatterMatrixOf pairs the three measures, colored by region.
func ScatterMatrixOf(t records.Table) View {
	dims := make([]string, len(records.Measures))
	for i, c := range records.Measures {
		dims[i] = string(c)
	}
	cols := append([]records.Column{records.Region}, records.Measures...)
	return View{
		Name:       ScatterMatrixView,
		Title:      "Employment, unemployment and participation by region",
		Kind:       ScatterMatrix,
		Data:       FromTable(t, cols...),
		Dimensions: dims,
		Color:      string(records.Region),
	}
}

// StateMeanBar is the mean unemployment rate per state, ascending.
func StateMeanBar(t records.Table) (View, error) {
	rows, err := aggregate.MeanBy(t, []records.Column{records.State}, records.UnemploymentRate)
	if err != nil {
		return View{}, fmt.Errorf("state mean bar: %w", err)
	}
	aggregate.SortBy(rows, records.UnemploymentRate, false)
	f := newFrame()
	states := make([]string, len(rows))
	rates := make([]float64, len(rows))
	for i, r := range rows {
		states[i] = r.Key[0]
		rates[i] = r.Values[records.UnemploymentRate]
	}
	f.addText(string(records.State), states)
	f.addNum(string(records.UnemploymentRate), rates)
	return View{
		Name:  StateMeanBarView,
		Title: "Average unemployment rate in each state",
		Kind:  Bar,
		Data:  f,
		X:     string(records.State),
		Y:     string(records.UnemploymentRate),
		Color: string(records.State),
	}, nil
}

// RegionMonthBar is the unemployment rate per region stacked by state, one
// frame per month.
func RegionMonthBar(t records.Table) View {
	f := FromTable(t, records.Region, records.State, records.MonthName, records.UnemploymentRate)
	return View{
		Name:    RegionMonthBarView,
		Title:   "Unemployment rate across regions by month",
		Kind:    Bar,
		Data:    f,
		X:       string(records.Region),
		Y:       string(records.UnemploymentRate),
		Color:   string(records.State),
		Animate: string(records.MonthName),
		Order:   TotalDescending(f, string(records.Region), string(records.UnemploymentRate)),
	}
}

// RegionStateSunburst is the mean of the three measures per (Region, States),
// with the unemployment rate as the segment value.
func RegionStateSunburst(t records.Table) (View, error) {
	rows, err := aggregate.MeanBy(t, []records.Column{records.Region, records.State}, records.Measures...)
	if err != nil {
		return View{}, fmt.Errorf("region state sunburst: %w", err)
	}
	f := newFrame()
	regions := make([]string, len(rows))
	states := make([]string, len(rows))
	for i, r := range rows {
		regions[i], states[i] = r.Key[0], r.Key[1]
	}
	f.addText(string(records.Region), regions)
	f.addText(string(records.State), states)
	for _, c := range records.Measures {
		vs := make([]float64, len(rows))
		for i, r := range rows {
			vs[i] = r.Values[c]
		}
		f.addNum(string(c), vs)
	}
	return View{
		Name:            RegionStateSunburstView,
		Title:           "Unemployment rate in each Region and State",
		Kind:            Sunburst,
		Data:            f,
		Y:               string(records.UnemploymentRate),
		Dimensions:      []string{string(records.Region), string(records.State)},
		Color:           string(records.UnemploymentRate),
		ColorContinuous: true,
	}, nil
}

// GeoScatterOf places every observation at its coordinates, sized by
// unemployment rate, one frame per month.
func GeoScatterOf(t records.Table) View {
	f := FromTable(t, records.Longitude, records.Latitude, records.Region, records.State,
		records.MonthName, records.UnemploymentRate)
	return View{
		Name:    GeoScatterView,
		Title:   "Impact of lockdown on employment across regions",
		Kind:    GeoScatter,
		Data:    f,
		X:       string(records.Longitude),
		Y:       string(records.Latitude),
		Color:   string(records.Region),
		Size:    string(records.UnemploymentRate),
		Animate: string(records.MonthName),
		XRange:  Range{Min: 65, Max: 100},
		YRange:  Range{Min: 5, Max: 35},
	}
}

// LockdownChangeBar draws the comparison rows in their given order.
func LockdownChangeBar(rows []compare.Row) View {
	f := newFrame()
	states := make([]string, len(rows))
	before := make([]float64, len(rows))
	after := make([]float64, len(rows))
	change := make([]float64, len(rows))
	for i, r := range rows {
		states[i] = r.State
		before[i] = r.RateBefore
		after[i] = r.RateAfter
		change[i] = r.PercentChange
	}
	f.addText(string(records.State), states)
	f.addNum(RateBeforeColumn, before)
	f.addNum(RateAfterColumn, after)
	f.addNum(PercentChangeColumn, change)
	return View{
		Name:            LockdownChangeBarView,
		Title:           "Percentage change in Unemployment in each state after lockdown",
		Kind:            Bar,
		Data:            f,
		X:               string(records.State),
		Y:               PercentChangeColumn,
		Color:           PercentChangeColumn,
		ColorContinuous: true,
	}
}

// TotalDescending orders the values of text column cat by the sum of numeric
// column val, largest first. NaN values do not count; ties keep first-seen
// order.
func TotalDescending(f Frame, cat, val string) []string {
	cats := f.text[cat]
	vals := f.num[val]
	totals := map[string]float64{}
	var order []string
	for i, c := range cats {
		if _, ok := totals[c]; !ok {
			order = append(order, c)
			totals[c] = 0
		}
		if i < len(vals) && !math.IsNaN(vals[i]) {
			totals[c] += vals[i]
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return totals[order[i]] > totals[order[j]] })
	return order
}
