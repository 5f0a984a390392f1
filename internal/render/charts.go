package render

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"labourstat/internal/analysis"
)

const barWidth = 12

// categories returns the X order of v restricted to values present in f.
func categories(v analysis.View, f analysis.Frame, col string) []string {
	present := map[string]bool{}
	var seen []string
	for _, s := range f.Strings(col) {
		if !present[s] {
			present[s] = true
			seen = append(seen, s)
		}
	}
	if len(v.Order) == 0 {
		return seen
	}
	out := make([]string, 0, len(seen))
	for _, s := range v.Order {
		if present[s] {
			out = append(out, s)
			delete(present, s)
		}
	}
	for _, s := range seen {
		if present[s] {
			out = append(out, s)
		}
	}
	return out
}

func rotateX(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 3
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
}

// scale maps values onto a continuous diverging color map.
type scale struct {
	cm palette.ColorMap
}

func newScale(vs []float64) scale {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		if math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if lo > hi {
		lo, hi = 0, 1
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(lo)
	cm.SetMax(hi)
	return scale{cm: cm}
}

func (s scale) at(v float64) color.Color {
	c, err := s.cm.At(v)
	if err != nil {
		return color.Gray{Y: 128}
	}
	return c
}

func heatmap(p *plot.Plot, v analysis.View, f analysis.Frame) error {
	g := corrGrid{f: f, dims: v.Dimensions}
	n := len(v.Dimensions)
	if n == 0 {
		return fmt.Errorf("heatmap has no dimensions")
	}
	hm := plotter.NewHeatMap(g, palette.Heat(12, 1))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Gray{Y: 220}
	p.Add(hm)

	var xys plotter.XYs
	var labels []string
	ticks := make([]plot.Tick, n)
	for c := 0; c < n; c++ {
		ticks[c] = plot.Tick{Value: float64(c), Label: v.Dimensions[c]}
		for r := 0; r < n; r++ {
			xys = append(xys, plotter.XY{X: g.X(c), Y: g.Y(r)})
			labels = append(labels, fmt.Sprintf("%.2f", g.Z(c, r)))
		}
	}
	annot, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return err
	}
	p.Add(annot)
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	rotateX(p)
	return nil
}

// corrGrid exposes a square heatmap frame as a GridXYZ.
type corrGrid struct {
	f    analysis.Frame
	dims []string
}

func (g corrGrid) Dims() (c, r int)   { return len(g.dims), len(g.dims) }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }
func (g corrGrid) Z(c, r int) float64 { return g.f.Floats(g.dims[c])[r] }

func boxes(p *plot.Plot, v analysis.View, f analysis.Frame) error {
	cats := categories(v, f, v.X)
	xs := f.Strings(v.X)
	ys := f.Floats(v.Y)
	for i, cat := range cats {
		var vals plotter.Values
		for j := range xs {
			if xs[j] == cat && !math.IsNaN(ys[j]) {
				vals = append(vals, ys[j])
			}
		}
		if len(vals) == 0 {
			continue
		}
		b, err := plotter.NewBoxPlot(vg.Points(barWidth), float64(i), vals)
		if err != nil {
			return err
		}
		b.FillColor = plotutil.Color(i)
		p.Add(b)
	}
	p.NominalX(cats...)
	p.Y.Label.Text = v.Y
	rotateX(p)
	return nil
}

// bars draws one bar per X category. A categorical Color different from X
// stacks one segment per color value; a continuous Color shades each bar.
func bars(p *plot.Plot, v analysis.View, f analysis.Frame) error {
	cats := categories(v, f, v.X)
	xs := f.Strings(v.X)
	ys := f.Floats(v.Y)
	p.Y.Label.Text = v.Y
	defer func() {
		p.NominalX(cats...)
		rotateX(p)
	}()

	if v.Color != "" && v.Color != v.X && !v.ColorContinuous {
		return stackedBars(p, v, f, cats)
	}

	var (
		sc    scale
		shade []float64
	)
	if v.ColorContinuous {
		shade = f.Floats(v.Color)
		sc = newScale(shade)
	}
	pos := make(map[string]int, len(cats))
	for i, c := range cats {
		pos[c] = i
	}
	for j := range xs {
		if math.IsNaN(ys[j]) {
			continue
		}
		b, err := plotter.NewBarChart(plotter.Values{ys[j]}, vg.Points(barWidth))
		if err != nil {
			return err
		}
		b.XMin = float64(pos[xs[j]])
		b.LineStyle.Width = 0
		if v.ColorContinuous {
			b.Color = sc.at(shade[j])
		} else {
			b.Color = plotutil.Color(pos[xs[j]])
		}
		p.Add(b)
	}
	return nil
}

func stackedBars(p *plot.Plot, v analysis.View, f analysis.Frame, cats []string) error {
	xs := f.Strings(v.X)
	ys := f.Floats(v.Y)
	groups := f.Strings(v.Color)
	pos := make(map[string]int, len(cats))
	for i, c := range cats {
		pos[c] = i
	}

	var order []string
	sums := map[string]plotter.Values{}
	for j := range xs {
		g := groups[j]
		if _, ok := sums[g]; !ok {
			order = append(order, g)
			sums[g] = make(plotter.Values, len(cats))
		}
		if !math.IsNaN(ys[j]) {
			sums[g][pos[xs[j]]] += ys[j]
		}
	}

	var below *plotter.BarChart
	for i, g := range order {
		b, err := plotter.NewBarChart(sums[g], vg.Points(barWidth))
		if err != nil {
			return err
		}
		b.Color = plotutil.Color(i)
		b.LineStyle.Width = 0
		if below != nil {
			b.StackOn(below)
		}
		p.Add(b)
		p.Legend.Add(g, b)
		below = b
	}
	p.Legend.Top = true
	return nil
}

// sunburst draws the hierarchy as horizontal bars labelled "outer / inner",
// grouped by the outer level.
func sunburst(p *plot.Plot, v analysis.View, f analysis.Frame) error {
	if len(v.Dimensions) == 0 {
		return fmt.Errorf("sunburst has no path")
	}
	outer := f.Strings(v.Dimensions[0])
	paths := make([][]string, len(v.Dimensions))
	for i, d := range v.Dimensions {
		paths[i] = f.Strings(d)
	}
	ys := f.Floats(v.Y)
	shade := f.Floats(v.Color)
	sc := newScale(shade)

	var rowsOrder []int
	done := map[string]bool{}
	for _, o := range outer {
		if done[o] {
			continue
		}
		done[o] = true
		for j := range outer {
			if outer[j] == o {
				rowsOrder = append(rowsOrder, j)
			}
		}
	}

	labels := make([]string, 0, len(rowsOrder))
	for i, j := range rowsOrder {
		parts := make([]string, len(paths))
		for k := range paths {
			parts[k] = paths[k][j]
		}
		labels = append(labels, strings.Join(parts, " / "))
		if math.IsNaN(ys[j]) {
			continue
		}
		b, err := plotter.NewBarChart(plotter.Values{ys[j]}, vg.Points(8))
		if err != nil {
			return err
		}
		b.Horizontal = true
		b.XMin = float64(i)
		b.LineStyle.Width = 0
		b.Color = sc.at(shade[j])
		p.Add(b)
	}
	p.NominalY(labels...)
	p.X.Label.Text = v.Y
	return nil
}

func geoScatter(p *plot.Plot, v analysis.View, f analysis.Frame) error {
	lon := f.Floats(v.X)
	lat := f.Floats(v.Y)
	size := f.Floats(v.Size)
	groups := f.Strings(v.Color)

	maxSize := 0.0
	for _, s := range size {
		if !math.IsNaN(s) {
			maxSize = math.Max(maxSize, s)
		}
	}

	var order []string
	idx := map[string][]int{}
	for j := range lon {
		if math.IsNaN(lon[j]) || math.IsNaN(lat[j]) {
			continue
		}
		var g string
		if groups != nil {
			g = groups[j]
		}
		if _, ok := idx[g]; !ok {
			order = append(order, g)
		}
		idx[g] = append(idx[g], j)
	}

	for i, g := range order {
		rows := idx[g]
		xys := make(plotter.XYs, len(rows))
		for k, j := range rows {
			xys[k] = plotter.XY{X: lon[j], Y: lat[j]}
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		col := plotutil.Color(i)
		s.GlyphStyle = draw.GlyphStyle{Color: col, Radius: vg.Points(3), Shape: draw.CircleGlyph{}}
		s.GlyphStyleFunc = func(k int) draw.GlyphStyle {
			r := vg.Points(2)
			if size == nil || maxSize == 0 {
				return draw.GlyphStyle{Color: col, Radius: r, Shape: draw.CircleGlyph{}}
			}
			if sz := size[rows[k]]; !math.IsNaN(sz) {
				r += vg.Points(10 * sz / maxSize)
			}
			return draw.GlyphStyle{Color: col, Radius: r, Shape: draw.CircleGlyph{}}
		}
		p.Add(s)
		p.Legend.Add(g, s)
	}
	p.Add(plotter.NewGrid())
	p.X.Label.Text = v.X
	p.Y.Label.Text = v.Y
	if v.XRange.Set() {
		p.X.Min, p.X.Max = v.XRange.Min, v.XRange.Max
	}
	if v.YRange.Set() {
		p.Y.Min, p.Y.Max = v.YRange.Min, v.YRange.Max
	}
	p.Legend.Top = true
	return nil
}

// matrixPlots builds the n x n grid of a scatter matrix: histograms on the
// diagonal, one scatter per color group elsewhere.
func matrixPlots(v analysis.View, f analysis.Frame) ([][]*plot.Plot, error) {
	n := len(v.Dimensions)
	if n == 0 {
		return nil, fmt.Errorf("scatter matrix has no dimensions")
	}
	groups := f.Strings(v.Color)
	var order []string
	seen := map[string]bool{}
	for _, g := range groups {
		if !seen[g] {
			seen[g] = true
			order = append(order, g)
		}
	}
	if len(order) == 0 {
		order = []string{""}
	}

	plots := make([][]*plot.Plot, n)
	for r := 0; r < n; r++ {
		plots[r] = make([]*plot.Plot, n)
		ys := f.Floats(v.Dimensions[r])
		for c := 0; c < n; c++ {
			xs := f.Floats(v.Dimensions[c])
			p := plot.New()
			if r == n-1 {
				p.X.Label.Text = v.Dimensions[c]
			}
			if c == 0 {
				p.Y.Label.Text = v.Dimensions[r]
			}
			plots[r][c] = p

			if r == c {
				var vals plotter.Values
				for _, x := range xs {
					if !math.IsNaN(x) {
						vals = append(vals, x)
					}
				}
				if len(vals) == 0 || floats.Min(vals) == floats.Max(vals) {
					continue
				}
				h, err := plotter.NewHist(vals, 16)
				if err != nil {
					return nil, err
				}
				h.FillColor = color.Gray{Y: 160}
				p.Add(h)
				continue
			}

			for gi, g := range order {
				var xys plotter.XYs
				for j := range xs {
					if (groups == nil || groups[j] == g) && !math.IsNaN(xs[j]) && !math.IsNaN(ys[j]) {
						xys = append(xys, plotter.XY{X: xs[j], Y: ys[j]})
					}
				}
				if len(xys) == 0 {
					continue
				}
				s, err := plotter.NewScatter(xys)
				if err != nil {
					return nil, err
				}
				s.GlyphStyle = draw.GlyphStyle{Color: plotutil.Color(gi), Radius: vg.Points(1.5), Shape: draw.CircleGlyph{}}
				p.Add(s)
				if r == 0 && c == n-1 && g != "" {
					p.Legend.Add(g, s)
				}
			}
		}
	}
	return plots, nil
}
