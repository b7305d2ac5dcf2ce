package report

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderHTML writes an interactive page with one line chart per Chart.
func RenderHTML(w io.Writer, title string, cs ...Chart) error {
	page := components.NewPage()
	page.SetPageTitle(title)
	for _, c := range cs {
		page.AddCharts(lineChart(c))
	}
	return page.Render(w)
}

func lineChart(c Chart) *charts.Line {
	xAxis := opts.XAxis{Type: "value", Name: c.X.Label(), NameLocation: "middle", NameGap: 25, Scale: opts.Bool(true)}
	if c.LogX {
		xAxis.Type = "log"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: c.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(xAxis),
		charts.WithYAxisOpts(opts.YAxis{Name: c.Y.Label(), NameLocation: "middle", NameGap: 50, Scale: opts.Bool(true)}),
	)

	for _, s := range c.Series {
		data := make([]opts.LineData, s.Len())
		for i := range s.X {
			data[i] = opts.LineData{Value: []interface{}{s.X[i], s.Y[i]}}
		}
		line.AddSeries(s.Label, data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
	}
	return line
}
