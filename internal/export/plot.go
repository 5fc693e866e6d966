// Package export renders solver output as PNG, SVG or PDF charts.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var ErrNoData = errors.New("export: nothing to plot")

const (
	width  = 8 * vg.Inch
	height = 5 * vg.Inch
)

// PlotCostHistory draws cost against iteration. The y axis is logarithmic
// when every cost is positive. The format follows the file extension.
func PlotCostHistory(path string, hist []float64) error {
	if len(hist) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Cost history"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "J"

	pts := make(plotter.XYs, len(hist))
	positive := true
	for i, c := range hist {
		pts[i].X = float64(i)
		pts[i].Y = c
		if c <= 0 {
			positive = false
		}
	}
	if positive {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	if err := plotutil.AddLinePoints(p, "cost", pts); err != nil {
		return err
	}
	return save(p, path)
}

// PlotStates draws one line per state component against time.
func PlotStates(path string, times []float64, states []*mat.VecDense) error {
	if len(states) == 0 {
		return ErrNoData
	}
	if len(times) != len(states) {
		return fmt.Errorf("export: %d times for %d states", len(times), len(states))
	}

	p := plot.New()
	p.Title.Text = "State trajectory"
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = "x"
	p.Legend.Top = true

	nx := states[0].Len()
	for i := 0; i < nx; i++ {
		pts := make(plotter.XYs, len(states))
		for k, x := range states {
			pts[k].X = times[k]
			pts[k].Y = x.AtVec(i)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("x%d", i), line)
	}
	p.Add(plotter.NewGrid())
	return save(p, path)
}

// PlotPhase draws state component j against component i.
func PlotPhase(path string, states []*mat.VecDense, i, j int) error {
	if len(states) < 2 {
		return ErrNoData
	}
	nx := states[0].Len()
	if i < 0 || j < 0 || i >= nx || j >= nx {
		return fmt.Errorf("export: phase axes %d,%d out of range for %d states", i, j, nx)
	}

	p := plot.New()
	p.Title.Text = "Phase portrait"
	p.X.Label.Text = fmt.Sprintf("x%d", i)
	p.Y.Label.Text = fmt.Sprintf("x%d", j)

	pts := make(plotter.XYs, len(states))
	for k, x := range states {
		pts[k].X = x.AtVec(i)
		pts[k].Y = x.AtVec(j)
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = plotutil.Color(0)

	start, err := plotter.NewScatter(pts[:1])
	if err != nil {
		return err
	}
	start.GlyphStyle.Shape = plotutil.Shape(1)
	start.GlyphStyle.Radius = vg.Points(4)

	p.Add(line, start, plotter.NewGrid())
	return save(p, path)
}

func save(p *plot.Plot, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
