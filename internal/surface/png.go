package surface

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/trendview/internal/axis"
)

// Palette is the colour cycle for traces, in first-render order.
var Palette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},  // blue
	{R: 255, G: 127, B: 14, A: 255},  // orange
	{R: 44, G: 160, B: 44, A: 255},   // green
	{R: 214, G: 39, B: 40, A: 255},   // red
	{R: 148, G: 103, B: 189, A: 255}, // purple
	{R: 140, G: 86, B: 75, A: 255},   // brown
	{R: 227, G: 119, B: 194, A: 255}, // pink
	{R: 127, G: 127, B: 127, A: 255}, // gray
	{R: 188, G: 189, B: 34, A: 255},  // yellow-green
	{R: 23, G: 190, B: 207, A: 255},  // cyan
}

// PaletteColor returns the colour of the i-th trace.
func PaletteColor(i int) color.RGBA {
	return Palette[i%len(Palette)]
}

// Default PNG size, about 8x4 inches at 300 DPI.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// WritePNG draws f as a PNG. With a visible secondary scale the primary
// and secondary traces are drawn as two vertically aligned panels sharing
// the time axis.
func WritePNG(w io.Writer, f Frame, width, height vg.Length) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	groups := []axis.GroupID{axis.Primary}
	if f.Secondary {
		groups = append(groups, axis.Secondary)
	}

	plots := make([][]*plot.Plot, 0, len(groups))
	for _, g := range groups {
		p, err := framePlot(f, g)
		if err != nil {
			return err
		}
		plots = append(plots, []*plot.Plot{p})
	}

	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func framePlot(f Frame, g axis.GroupID) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "Time"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04:05"}
	p.Y.Label.Text = f.Labels[g]
	p.Add(plotter.NewGrid())

	if g == axis.Primary && f.YRange != nil {
		p.Y.Min, p.Y.Max = f.YRange[0], f.YRange[1]
	}

	for i, t := range f.Traces {
		if t.Axis != g {
			continue
		}
		segments := finiteRuns(t.X, t.Y)
		for j, pts := range segments {
			line, err := plotter.NewLine(pts)
			if err != nil {
				return nil, fmt.Errorf("trace %s: %w", t.ID, err)
			}
			line.Color = PaletteColor(i)
			line.Width = vg.Points(2)
			p.Add(line)
			if j == 0 {
				p.Legend.Add(t.ID, line)
			}
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// finiteRuns splits a series at NaN or infinite samples so gaps are drawn
// as gaps.
func finiteRuns(x, y []float64) []plotter.XYs {
	var runs []plotter.XYs
	var cur plotter.XYs
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) || math.IsInf(x[i], 0) || math.IsInf(y[i], 0) {
			if len(cur) > 0 {
				runs = append(runs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: x[i], Y: y[i]})
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}
