package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/ilqr"
)

func vec(v ...float64) *mat.VecDense {
	return mat.NewVecDense(len(v), v)
}

func TestControlEffort(t *testing.T) {
	c := NewControlEffort(nil)
	require.Equal(t, 0.0, c.Value())

	c.Observe(vec(0), vec(1, -2), 0)
	c.Observe(vec(0), vec(-3, 0), 0.1)
	require.Equal(t, 7.0, c.Value())

	c.Reset()
	require.Equal(t, 0.0, c.Value())

	w := NewControlEffort(mat.NewDiagDense(2, []float64{2, 0.5}))
	w.Observe(vec(0), vec(1, -2), 0)
	require.Equal(t, 4.0, w.Value())
}

func TestStability(t *testing.T) {
	s := NewStability(vec(1, 0), 0.5)
	require.Equal(t, 1.0, s.Value())

	s.Observe(vec(1.2, 0.1), nil, 0)
	s.Observe(vec(2, 0), nil, 0)
	s.Observe(vec(1, -0.4), nil, 0)
	s.Observe(vec(1, 0.9), nil, 0)
	require.Equal(t, 0.5, s.Value())
}

type constEnergy float64

func (c constEnergy) Energy(x mat.Vector) float64 { return float64(c) * x.AtVec(0) }

func TestEnergy(t *testing.T) {
	e := NewEnergy(constEnergy(2))
	e.Observe(vec(1), nil, 0)
	e.Observe(vec(3), nil, 0)
	require.Equal(t, 4.0, e.Value())
	require.Equal(t, "energy", e.Name())
}

func TestTerminalError(t *testing.T) {
	e := NewTerminalError(vec(1, 1))
	require.True(t, math.IsNaN(e.Value()))

	e.ObserveFinal(vec(4, 5), 1)
	require.InDelta(t, 5.0, e.Value(), 1e-12)

	e.Reset()
	require.True(t, math.IsNaN(e.Value()))
}

func TestTrackingError(t *testing.T) {
	ref := []*mat.VecDense{vec(0), vec(1), vec(2)}
	e := NewTrackingError(ref, 0.5)

	e.Observe(vec(0), nil, 0)
	e.Observe(vec(2), nil, 0.5) // off by 1
	e.Observe(vec(2), nil, 1.0)
	e.ObserveFinal(vec(5), 1.5) // past the end, off by 3
	require.InDelta(t, math.Sqrt(10.0/4), e.Value(), 1e-12)
}

func TestSolverCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewSolverCollector(reg)

	c.OnIteration(ilqr.IterationStats{Iteration: 1, Cost: 12, Halvings: 0})
	c.OnIteration(ilqr.IterationStats{Iteration: 2, Cost: 8, Halvings: 3})
	require.Equal(t, 8.0, testutil.ToFloat64(c.lastCost))

	c.ObserveResult(&ilqr.Result{
		Status:      ilqr.StatusConverged,
		Iterations:  2,
		CostHistory: []float64{20, 12, 7.5},
		Elapsed:     3 * time.Millisecond,
	})
	c.ObserveResult(&ilqr.Result{Status: ilqr.StatusIterationCap, Iterations: 1000})

	require.Equal(t, 1.0, testutil.ToFloat64(c.solves.WithLabelValues("converged")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.solves.WithLabelValues("iteration_cap")))
	require.Equal(t, 7.5, testutil.ToFloat64(c.lastCost))

	n, err := testutil.GatherAndCount(reg, "trajopt_iterations", "trajopt_line_search_halvings")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
