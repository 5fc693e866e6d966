package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/ilqr"
)

// Summary formats a finished solve as a bordered panel.
func Summary(model string, res *ilqr.Result, th Theme) string {
	st := NewStyles(th)

	row := func(label, value string) string {
		return st.Label.Render(fmt.Sprintf("%-12s", label)) + " " + st.Value.Render(value)
	}

	lines := []string{
		st.Title.Render("iLQR · " + model),
		row("status", "") + st.Status(res.Status),
		row("iterations", fmt.Sprintf("%d", res.Iterations)),
		row("final cost", fmt.Sprintf("%.6g", res.FinalCost())),
		row("elapsed", res.Elapsed.String()),
	}
	if len(res.CostHistory) > 0 {
		lines = append(lines, row("initial", fmt.Sprintf("%.6g", res.CostHistory[0])))
	}
	if x := res.FinalState(); x != nil {
		lines = append(lines, row("final state", formatVec(x)))
	}
	if res.Err != nil {
		lines = append(lines, st.Fail.Render(res.Err.Error()))
	}
	return st.Panel.Render(strings.Join(lines, "\n"))
}

// CostChart plots the cost history. Costs spanning several decades are
// drawn as log10.
func CostChart(hist []float64, width, height int) string {
	if len(hist) == 0 {
		return ""
	}
	data := append([]float64(nil), hist...)
	caption := "cost"
	if logScale(data) {
		for i, v := range data {
			data[i] = math.Log10(v)
		}
		caption = "log10 cost"
	}
	if len(data) == 1 {
		data = append(data, data[0])
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// StateChart plots the selected state components against the sample index.
func StateChart(states []*mat.VecDense, idx []int, width, height int) string {
	if len(states) == 0 {
		return ""
	}
	series := make([][]float64, 0, len(idx))
	legends := make([]string, 0, len(idx))
	colors := make([]asciigraph.AnsiColor, 0, len(idx))
	palette := []asciigraph.AnsiColor{asciigraph.Red, asciigraph.Green, asciigraph.Blue, asciigraph.Yellow, asciigraph.Cyan, asciigraph.Magenta}

	for n, i := range idx {
		if i < 0 || i >= states[0].Len() {
			continue
		}
		col := make([]float64, len(states))
		for k, x := range states {
			col[k] = x.AtVec(i)
		}
		series = append(series, col)
		legends = append(legends, fmt.Sprintf("x%d", i))
		colors = append(colors, palette[n%len(palette)])
	}
	if len(series) == 0 {
		return ""
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
		asciigraph.Caption("state trajectory"),
	)
}

func logScale(hist []float64) bool {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range hist {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return hi/lo > 100
}

func formatVec(v mat.Vector) string {
	parts := make([]string, v.Len())
	for i := range parts {
		parts[i] = fmt.Sprintf("%.4f", v.AtVec(i))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
