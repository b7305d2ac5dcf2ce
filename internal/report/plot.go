package report

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PNG canvas size.
const (
	plotWidth  = 14 * vg.Inch
	plotHeight = 6 * vg.Inch
)

// PlotPNG renders c as a line plot and writes the PNG to w.
func PlotPNG(w io.Writer, c Chart) error {
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.X.Label()
	p.Y.Label.Text = c.Y.Label()
	if c.LogX {
		for _, s := range c.Series {
			for _, x := range s.X {
				if x <= 0 {
					return fmt.Errorf("log axis needs positive x, %q has %v", s.Label, x)
				}
			}
		}
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	for i, s := range c.Series {
		if s.Len() == 0 {
			continue
		}
		pts := make(plotter.XYs, s.Len())
		for j := range s.X {
			pts[j] = plotter.XY{X: s.X[j], Y: s.Y[j]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Label, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		if s.Label != "" {
			p.Legend.Add(s.Label, line)
		}
	}
	p.Legend.Top = true

	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
