// Command report plots sweep output directories. Each -series is one line;
// the chart is written as PNG, interactive HTML, or both.
//
//	report -x random_stop_rate -y flow_rate \
//	  -series "Bi-directional=results/stop-bd" -series "Forward=results/stop-fl" \
//	  -png methods-stop.png -html methods-stop.html
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/banshee-data/ringroad/internal/fsutil"
	"github.com/banshee-data/ringroad/internal/monitoring"
	"github.com/banshee-data/ringroad/internal/report"
	"github.com/banshee-data/ringroad/internal/version"
)

type multiFlag []string

func (m *multiFlag) String() string {
	if m == nil {
		return ""
	}
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func main() {
	var series multiFlag
	flag.Var(&series, "series", "Results directory to plot, repeatable: label=dir or dir")
	xName := flag.String("x", string(report.AxisDensity), "X axis parameter")
	yName := flag.String("y", string(report.MetricFlowRate), "Y metric: flow_rate, flow_per_lane, flow_per_movement, utilisation, collisions")
	title := flag.String("title", "", "Chart title")
	logX := flag.Bool("log-x", false, "Logarithmic x axis")
	average := flag.Bool("average", false, "Average runs that share an x value")
	pngPath := flag.String("png", "", "PNG output path")
	htmlPath := flag.String("html", "", "HTML output path")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if len(series) == 0 {
		series = append(series, "output")
	}
	if *pngPath == "" && *htmlPath == "" {
		*pngPath = "report.png"
	}

	x, err := report.ParseAxis(*xName)
	if err != nil {
		log.Fatalf("invalid -x: %v", err)
	}
	y, err := report.ParseMetric(*yName)
	if err != nil {
		log.Fatalf("invalid -y: %v", err)
	}
	spec := report.ChartSpec{Title: *title, X: x, Y: y, LogX: *logX, Average: *average}
	for _, s := range series {
		src, err := report.ParseSource(s)
		if err != nil {
			log.Fatalf("invalid -series: %v", err)
		}
		spec.Sources = append(spec.Sources, src)
	}

	chart, err := report.BuildChart(fsutil.OSFileSystem{}, spec)
	if err != nil {
		log.Fatalf("failed to load results: %v", err)
	}
	for _, s := range chart.Series {
		monitoring.Logf("series %q: %d points", s.Label, s.Len())
	}

	if *pngPath != "" {
		if err := writeFile(*pngPath, func(f *os.File) error { return report.PlotPNG(f, chart) }); err != nil {
			log.Fatalf("failed to write PNG: %v", err)
		}
		monitoring.Logf("wrote %s", *pngPath)
	}
	if *htmlPath != "" {
		pageTitle := *title
		if pageTitle == "" {
			pageTitle = fmt.Sprintf("%s vs %s", y.Label(), x.Label())
		}
		if err := writeFile(*htmlPath, func(f *os.File) error { return report.RenderHTML(f, pageTitle, chart) }); err != nil {
			log.Fatalf("failed to write HTML: %v", err)
		}
		monitoring.Logf("wrote %s", *htmlPath)
	}
}

func writeFile(path string, render func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
