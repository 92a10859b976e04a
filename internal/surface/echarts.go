package surface

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/trendview/internal/axis"
)

// echartsAssetsHost serves the echarts javascript for exported pages.
const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// WriteHTML renders f as a standalone go-echarts page. Secondary traces
// use a second Y axis on the right.
func WriteHTML(w io.Writer, f Frame, title string) error {
	if title == "" {
		title = "trendview"
	}

	primary := opts.YAxis{Name: f.Labels[axis.Primary], Type: "value", Position: "left", NameLocation: "middle", NameGap: 45}
	if f.YRange != nil {
		primary.Min, primary.Max = f.YRange[0], f.YRange[1]
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "640px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time", Type: "time"}),
		charts.WithYAxisOpts(primary),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside", XAxisIndex: []int{0}}),
	)
	if f.Secondary {
		line.ExtendYAxis(opts.YAxis{Name: f.Labels[axis.Secondary], Type: "value", Position: "right", NameLocation: "middle", NameGap: 45})
	}

	for i, t := range f.Traces {
		yIndex := 0
		if t.Axis == axis.Secondary {
			yIndex = 1
		}
		c := PaletteColor(i)
		hex := fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
		line.AddSeries(t.ID, lineData(t),
			charts.WithLineChartOpts(opts.LineChart{YAxisIndex: yIndex}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: hex, Width: 2}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hex}),
		)
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// lineData converts a trace to [ms, value] pairs. Non-finite samples
// become "-", which echarts draws as a gap.
func lineData(t Trace) []opts.LineData {
	data := make([]opts.LineData, 0, len(t.X))
	for i := range t.X {
		ms := t.X[i] * 1000
		var v interface{} = t.Y[i]
		if math.IsNaN(t.Y[i]) || math.IsInf(t.Y[i], 0) {
			v = "-"
		}
		data = append(data, opts.LineData{Value: []interface{}{ms, v}})
	}
	return data
}
