// Package chart renders the per-metric run history as a PNG grid.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/verte-zerg/gauntlet/internal/model"
	"github.com/verte-zerg/gauntlet/internal/stats"
)

const (
	gridRows     = 4
	gridCols     = 2
	figureWidth  = 14 * vg.Inch
	figureHeight = 12 * vg.Inch
	titleHeight  = 0.5 * vg.Inch
	titleSize    = 14
	defaultDPI   = 150
)

// DefaultTitle is drawn above the grid.
const DefaultTitle = "Corrupted Gauntlet Performance Over Time"

// ErrNoRuns is returned when there is nothing to plot.
var ErrNoRuns = errors.New("no runs to plot")

var palette = map[string]color.NRGBA{
	"green":   {R: 0, G: 128, B: 0, A: 255},
	"red":     {R: 255, G: 0, B: 0, A: 255},
	"blue":    {R: 0, G: 0, B: 255, A: 255},
	"orange":  {R: 255, G: 165, B: 0, A: 255},
	"purple":  {R: 128, G: 0, B: 128, A: 255},
	"brown":   {R: 165, G: 42, B: 42, A: 255},
	"cyan":    {R: 0, G: 255, B: 255, A: 255},
	"magenta": {R: 255, G: 0, B: 255, A: 255},
}

var (
	averageColor = palette["red"]
	gridColor    = color.NRGBA{A: 77}
)

// Options controls the rendered figure.
type Options struct {
	Window int
	DPI    int
	Title  string
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = stats.DefaultWindow
	}
	if o.DPI <= 0 {
		o.DPI = defaultDPI
	}
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	return o
}

// panelData holds the series drawn in one panel. Average is nil when there
// are fewer runs than the window.
type panelData struct {
	Runs    []float64
	Values  []float64
	Average []float64
}

func buildPanelData(m stats.Metric, runs []model.Run, window int) panelData {
	data := panelData{
		Runs:   stats.RunNumbers(len(runs)),
		Values: m.Values(runs),
	}
	if len(runs) >= window {
		data.Average = stats.MovingAverage(data.Values, window)
	}
	return data
}

// RenderPNG draws one panel per metric in a 4x2 grid and writes it to path.
func RenderPNG(runs []model.Run, path string, opts Options) error {
	if len(runs) == 0 {
		return ErrNoRuns
	}
	opts = opts.withDefaults()

	plots := make([][]*plot.Plot, gridRows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, gridCols)
	}
	for i, m := range stats.Metrics {
		p, err := newPanel(m, buildPanelData(m, runs, opts.Window), opts.Window)
		if err != nil {
			return fmt.Errorf("failed to build %s panel: %w", m.Key, err)
		}
		plots[i/gridCols][i%gridCols] = p
	}

	img := vgimg.NewWith(vgimg.UseWH(figureWidth, figureHeight), vgimg.UseDPI(opts.DPI))
	dc := draw.New(img)
	drawTitle(dc, opts.Title)

	tiles := draw.Tiles{
		Rows:      gridRows,
		Cols:      gridCols,
		PadTop:    titleHeight,
		PadBottom: vg.Points(8),
		PadLeft:   vg.Points(8),
		PadRight:  vg.Points(12),
		PadX:      vg.Points(24),
		PadY:      vg.Points(18),
	}
	canvases := plot.Align(plots, tiles, dc)
	for row := range plots {
		for col, p := range plots[row] {
			if p != nil {
				p.Draw(canvases[row][col])
			}
		}
	}
	return writePNG(img, path)
}

func newPanel(m stats.Metric, data panelData, window int) (*plot.Plot, error) {
	base, ok := palette[m.Color]
	if !ok {
		return nil, fmt.Errorf("unknown color %q", m.Color)
	}

	p := plot.New()
	p.Title.Text = m.Title
	p.X.Label.Text = "Run #"
	p.Y.Label.Text = m.YLabel

	grid := plotter.NewGrid()
	grid.Vertical.Color = gridColor
	grid.Horizontal.Color = gridColor
	p.Add(grid)

	points := xys(data.Runs, data.Values)
	line, err := plotter.NewLine(points)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1)
	line.LineStyle.Color = withAlpha(base, 0.3)

	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(2.5)
	scatter.GlyphStyle.Color = withAlpha(base, 0.6)
	p.Add(line, scatter)

	if data.Average != nil {
		avg, err := plotter.NewLine(xys(data.Runs, data.Average))
		if err != nil {
			return nil, err
		}
		avg.LineStyle.Width = vg.Points(2)
		avg.LineStyle.Color = averageColor
		p.Add(avg)
		p.Legend.Add(fmt.Sprintf("%d-run avg", window), avg)
		p.Legend.Top = true
		p.Legend.TextStyle.Font.Size = vg.Points(8)
	}

	if m.Invert {
		p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}
	}
	return p, nil
}

func drawTitle(dc draw.Canvas, title string) {
	sty := text.Style{
		Color:   color.Black,
		Font:    font.From(plot.DefaultFont, titleSize),
		XAlign:  text.XCenter,
		YAlign:  text.YTop,
		Handler: plot.DefaultTextHandler,
	}
	pt := vg.Point{
		X: (dc.Min.X + dc.Max.X) / 2,
		Y: dc.Max.Y - vg.Points(8),
	}
	dc.FillText(sty, pt, title)
}

func writePNG(img *vgimg.Canvas, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create chart dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "chart-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temp chart: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(tmpFile); err != nil {
		return fmt.Errorf("failed to encode chart: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close chart: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

func withAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = uint8(alpha * 255)
	return c
}
