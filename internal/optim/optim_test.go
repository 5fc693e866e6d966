package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/trajopt/internal/config"
	"github.com/san-kum/trajopt/internal/experiment"
)

func TestNewGridSearch(t *testing.T) {
	_, err := NewGridSearch(nil, nil)
	require.Error(t, err)
	_, err = NewGridSearch([]string{"a"}, [][]float64{{}})
	require.Error(t, err)

	g, err := NewGridSearch([]string{"a", "b"}, [][]float64{{1, 2, 3}, {10, 20}})
	require.NoError(t, err)
	require.Equal(t, 6, g.Size())
}

func TestGridSearchFindsMinimum(t *testing.T) {
	g, err := NewGridSearch([]string{"a", "b"}, [][]float64{{-1, 0, 1, 2}, {0, 1, 2}})
	require.NoError(t, err)

	obj := func(_ context.Context, p map[string]float64) (float64, error) {
		return (p["a"]-1)*(p["a"]-1) + (p["b"]-2)*(p["b"]-2), nil
	}
	best, trials, err := g.Search(context.Background(), obj, 3)
	require.NoError(t, err)
	require.Len(t, trials, 12)
	require.Equal(t, map[string]float64{"a": 1, "b": 2}, best.Params)
	require.Zero(t, best.Score)
	for i := 1; i < len(trials); i++ {
		require.LessOrEqual(t, trials[i-1].Score, trials[i].Score)
	}
}

func TestGridSearchFailures(t *testing.T) {
	g, err := NewGridSearch([]string{"a"}, [][]float64{{1, 2, 3}})
	require.NoError(t, err)

	boom := errors.New("boom")
	obj := func(_ context.Context, p map[string]float64) (float64, error) {
		switch p["a"] {
		case 1:
			return 0, boom
		case 2:
			return math.NaN(), nil
		}
		return 5, nil
	}
	best, trials, err := g.Search(context.Background(), obj, 0)
	require.NoError(t, err)
	require.Equal(t, 3.0, best.Params["a"])
	require.Error(t, trials[2].Err)

	_, _, err = g.Search(context.Background(), func(context.Context, map[string]float64) (float64, error) {
		return 0, boom
	}, 1)
	require.ErrorIs(t, err, boom)
}

func TestWeightObjective(t *testing.T) {
	obj := WeightObjective(experiment.NewRegistry(), config.GetPreset("double_integrator", "rest"), experiment.DefaultVerifyConfig())

	g, err := NewGridSearch([]string{ScaleQf}, [][]float64{{1, 100}})
	require.NoError(t, err)

	best, trials, err := g.Search(context.Background(), obj, 2)
	require.NoError(t, err)
	require.Len(t, trials, 2)
	// a heavier terminal weight lands closer to the goal
	require.Equal(t, 100.0, best.Params[ScaleQf])
	require.Less(t, best.Score, 1e-3)

	_, err = obj(context.Background(), map[string]float64{"s_scale": 2})
	require.Error(t, err)
}
