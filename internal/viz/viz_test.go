package viz

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/ilqr"
)

func converged() *ilqr.Result {
	return &ilqr.Result{
		X:           []*mat.VecDense{mat.NewVecDense(2, []float64{1, 0}), mat.NewVecDense(2, []float64{0.001, -0.002})},
		CostHistory: []float64{29.5, 8.916, 8.916},
		Iterations:  2,
		Elapsed:     4 * time.Millisecond,
		Success:     true,
		Status:      ilqr.StatusConverged,
	}
}

func TestSummary(t *testing.T) {
	out := Summary("double_integrator", converged(), ThemeMinimal)
	require.Contains(t, out, "double_integrator")
	require.Contains(t, out, "converged")
	require.Contains(t, out, "8.916")

	res := converged()
	res.Status = ilqr.StatusLineSearchExhausted
	res.Err = errors.New("boom")
	out = Summary("pendulum", res, ThemeMinimal)
	require.Contains(t, out, "line_search_exhausted")
	require.Contains(t, out, "boom")
}

func TestCostChart(t *testing.T) {
	require.Empty(t, CostChart(nil, 40, 5))
	require.Contains(t, CostChart([]float64{3}, 40, 5), "cost")
	require.Contains(t, CostChart([]float64{1e4, 10, 1}, 40, 5), "log10 cost")
	require.NotContains(t, CostChart([]float64{2, 1.5, 1}, 40, 5), "log10")
}

func TestStateChart(t *testing.T) {
	states := []*mat.VecDense{
		mat.NewVecDense(2, []float64{1, 0}),
		mat.NewVecDense(2, []float64{0.5, -1}),
		mat.NewVecDense(2, []float64{0, 0}),
	}
	require.Contains(t, StateChart(states, []int{0, 1}, 30, 5), "state trajectory")
	require.Empty(t, StateChart(states, []int{5}, 30, 5))
	require.Empty(t, StateChart(nil, []int{0}, 30, 5))
}

func TestSparklineAndProgress(t *testing.T) {
	require.Equal(t, "▁█", Sparkline([]float64{0, 1}, 10))
	require.Equal(t, "───", Sparkline(nil, 3))
	require.Equal(t, "██░░", ProgressBar(0.5, 4))
	require.Equal(t, "████", ProgressBar(2, 4))
}

func TestThemes(t *testing.T) {
	require.Equal(t, "ocean", GetTheme("ocean").Name)
	require.Equal(t, Themes[0].Name, GetTheme("nope").Name)
	require.Len(t, ThemeNames(), len(Themes))
	require.Equal(t, Themes[0].Name, Themes[len(Themes)-1].next().Name)
}

func TestWatchUpdate(t *testing.T) {
	w := NewWatch("pendulum", 100, nil, nil)

	m, cmd := w.Update(iterationMsg(ilqr.IterationStats{Iteration: 1, Cost: 50, Alpha: 0.5, Halvings: 1}))
	require.NotNil(t, cmd)
	w = m.(Watch)
	m, _ = w.Update(iterationMsg(ilqr.IterationStats{Iteration: 2, Cost: 20, Alpha: 1}))
	w = m.(Watch)
	require.Equal(t, []float64{50, 20}, w.history)
	require.Contains(t, w.View(), "2/100")

	m, _ = w.Update(doneMsg{res: converged()})
	w = m.(Watch)
	require.NotNil(t, w.Result())
	require.Contains(t, w.View(), "converged")

	// ticks stop once the solve is done
	_, cmd = w.Update(tickMsg(time.Now()))
	require.Nil(t, cmd)

	m, _ = w.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	require.Equal(t, Themes[1].Name, m.(Watch).theme.Name)

	_, cmd = w.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWatchHistoryWindow(t *testing.T) {
	w := NewWatch("pendulum", 1000, nil, nil)
	for i := 0; i < historyWindow+10; i++ {
		m, _ := w.Update(iterationMsg(ilqr.IterationStats{Iteration: i + 1, Cost: float64(i)}))
		w = m.(Watch)
	}
	require.Len(t, w.history, historyWindow)
	require.Equal(t, 10.0, w.history[0])
}
