// Package render draws analysis views to image files with gonum/plot.
//
// Every view becomes one file, or one file per animation frame, named after
// the view. Views render concurrently; a failure cancels the rest.
package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"labourstat/internal/analysis"
	"labourstat/internal/logging"
	"labourstat/internal/metrics"
)

// DefaultWorkers bounds concurrent renders when Options.Workers is zero.
const DefaultWorkers = 4

// Options configures a Renderer.
type Options struct {
	// Dir receives the images. It is created when missing.
	Dir string
	// Format is "png" or "svg".
	Format string
	// Workers bounds concurrent renders; zero means DefaultWorkers.
	Workers int
	// Width and Height size each image; zero means 20x12 cm.
	Width, Height vg.Length
	// Job labels artifact metrics.
	Job string
}

// Artifact is one written file.
type Artifact struct {
	View  string
	Frame string
	Path  string
}

// Renderer writes views to Dir.
type Renderer struct {
	opts Options
}

// New validates opts and creates the output directory.
func New(opts Options) (*Renderer, error) {
	switch opts.Format {
	case "png", "svg":
	case "":
		opts.Format = "png"
	default:
		return nil, fmt.Errorf("render: unsupported format %q", opts.Format)
	}
	if opts.Dir == "" {
		return nil, fmt.Errorf("render: output dir must not be empty")
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Width == 0 {
		opts.Width = 20 * vg.Centimeter
	}
	if opts.Height == 0 {
		opts.Height = 12 * vg.Centimeter
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("render: create output dir: %w", err)
	}
	return &Renderer{opts: opts}, nil
}

// Render draws every view and returns the artifacts in view order.
func (r *Renderer) Render(ctx context.Context, views []analysis.View) ([]Artifact, error) {
	logger := logging.FromContext(ctx)
	results := make([][]Artifact, len(views))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, v := range views {
		i, v := i, v
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			arts, err := r.RenderView(v)
			if err != nil {
				return fmt.Errorf("render %s: %w", v.Name, err)
			}
			logger.Debug("view rendered", "view", v.Name, "files", len(arts), "elapsed", time.Since(start))
			results[i] = arts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Artifact
	for _, arts := range results {
		out = append(out, arts...)
	}
	return out, nil
}

// RenderView draws one view, one file per frame.
func (r *Renderer) RenderView(v analysis.View) ([]Artifact, error) {
	frames := v.Frames()
	out := make([]Artifact, 0, len(frames))
	for i, fr := range frames {
		title := v.Title
		if fr.Key != "" {
			title = fmt.Sprintf("%s (%s)", v.Title, fr.Key)
		}
		w, err := r.draw(v, fr.Frame, title)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(r.opts.Dir, fileName(v.Name, i, fr.Key, r.opts.Format))
		if err := writeFile(path, w); err != nil {
			return nil, err
		}
		metrics.RecordArtifact(r.opts.Job, string(v.Kind))
		out = append(out, Artifact{View: v.Name, Frame: fr.Key, Path: path})
	}
	return out, nil
}

func (r *Renderer) draw(v analysis.View, f analysis.Frame, title string) (io.WriterTo, error) {
	if v.Kind == analysis.ScatterMatrix {
		return r.scatterMatrix(v, f, title)
	}

	p := plot.New()
	p.Title.Text = title
	var err error
	switch v.Kind {
	case analysis.Heatmap:
		err = heatmap(p, v, f)
	case analysis.Box:
		err = boxes(p, v, f)
	case analysis.Bar:
		err = bars(p, v, f)
	case analysis.Sunburst:
		err = sunburst(p, v, f)
	case analysis.GeoScatter:
		err = geoScatter(p, v, f)
	default:
		err = fmt.Errorf("unsupported view kind %q", v.Kind)
	}
	if err != nil {
		return nil, err
	}
	return p.WriterTo(r.opts.Width, r.opts.Height, r.opts.Format)
}

func (r *Renderer) scatterMatrix(v analysis.View, f analysis.Frame, title string) (io.WriterTo, error) {
	plots, err := matrixPlots(v, f)
	if err != nil {
		return nil, err
	}
	n := len(v.Dimensions)
	size := r.opts.Height * 1.5
	c, err := draw.NewFormattedCanvas(size, size, r.opts.Format)
	if err != nil {
		return nil, err
	}
	dc := draw.New(c)
	tiles := draw.Tiles{
		Rows: n, Cols: n,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Points(18), PadBottom: vg.Millimeter,
		PadLeft: vg.Millimeter, PadRight: vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			plots[i][j].Draw(canvases[i][j])
		}
	}
	head := plot.New()
	head.Title.Text = title
	head.HideAxes()
	head.Draw(draw.Crop(dc, 0, 0, size-vg.Points(18), 0))
	return c, nil
}

func fileName(view string, i int, key, ext string) string {
	if key == "" {
		return view + "." + ext
	}
	return fmt.Sprintf("%s_%02d_%s.%s", view, i+1, sanitize(key), ext)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

func writeFile(path string, w io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := w.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
