package control

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/dynamo"
)

func scalar(v float64) *mat.Dense {
	return mat.NewDense(1, 1, []float64{v})
}

func vec(v ...float64) *mat.VecDense {
	return mat.NewVecDense(len(v), v)
}

func TestLQR(t *testing.T) {
	ctrl := NewLQR(mat.NewDense(1, 2, []float64{1, 2}), vec(0, 0))

	u := ctrl.Compute(vec(0, 0), 0)
	require.Equal(t, 0.0, u.AtVec(0))

	u = ctrl.Compute(vec(1, 1), 0)
	require.Equal(t, -3.0, u.AtVec(0))
}

func TestFiniteHorizonLQRScalar(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want []float64
	}{
		{"two samples", 2, []float64{0.5}},
		{"three samples", 3, []float64{0.6, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gains, err := FiniteHorizonLQR(scalar(1), scalar(1), scalar(1), scalar(1), scalar(1), tt.n)
			require.NoError(t, err)
			require.Len(t, gains, len(tt.want))
			for k, want := range tt.want {
				require.InDelta(t, want, gains[k].At(0, 0), 1e-12, "K[%d]", k)
			}
		})
	}
}

func TestFiniteHorizonLQRErrors(t *testing.T) {
	_, err := FiniteHorizonLQR(scalar(1), scalar(1), scalar(1), scalar(0), scalar(0), 3)
	require.ErrorIs(t, err, ErrRiccati)

	_, err = FiniteHorizonLQR(dynamo.Identity(2), scalar(1), scalar(1), scalar(1), scalar(1), 3)
	require.ErrorIs(t, err, dynamo.ErrDimensionMismatch)

	_, err = FiniteHorizonLQR(scalar(1), scalar(1), scalar(1), scalar(1), scalar(1), 1)
	require.Error(t, err)
}

func TestSteadyStateLQR(t *testing.T) {
	// P = φ solves the scalar algebraic Riccati equation, K = P/(1+P).
	phi := (1 + math.Sqrt(5)) / 2
	K, err := SteadyStateLQR(scalar(1), scalar(1), scalar(1), scalar(1), 500, 1e-12)
	require.NoError(t, err)
	require.InDelta(t, phi/(1+phi), K.At(0, 0), 1e-9)
}

func TestTracker(t *testing.T) {
	xs := []*mat.VecDense{vec(0, 0), vec(1, 0), vec(2, 0)}
	us := []*mat.VecDense{vec(1), vec(2)}
	ks := []*mat.Dense{mat.NewDense(1, 2, []float64{1, 0}), mat.NewDense(1, 2, []float64{0, 1})}

	tr, err := NewTracker(xs, us, ks, 0.5)
	require.NoError(t, err)
	require.Equal(t, 2, tr.Horizon())

	// On the nominal trajectory the feedforward is returned unchanged.
	require.Equal(t, 1.0, tr.Compute(vec(0, 0), 0).AtVec(0))
	require.Equal(t, 2.0, tr.Compute(vec(1, 0), 0.5).AtVec(0))

	// Off nominal the gain corrects: 1 − 1·(0.5 − 0).
	require.InDelta(t, 0.5, tr.Compute(vec(0.5, 0), 0.2).AtVec(0), 1e-12)

	// Past the horizon the last gain acts around the final state.
	require.InDelta(t, 2.0-1.0, tr.Compute(vec(2, 1), 10).AtVec(0), 1e-12)
}

func TestTrackerRejectsMismatchedInputs(t *testing.T) {
	xs := []*mat.VecDense{vec(0), vec(1)}
	us := []*mat.VecDense{vec(1), vec(2)}
	ks := []*mat.Dense{scalar(1), scalar(1)}

	_, err := NewTracker(xs, us, ks, 0.1)
	require.ErrorIs(t, err, dynamo.ErrDimensionMismatch)

	_, err = NewTracker([]*mat.VecDense{vec(0), vec(1), vec(2)}, us, ks, 0)
	require.Error(t, err)
}

func TestOpenLoop(t *testing.T) {
	ol := NewOpenLoop([]*mat.VecDense{vec(1), vec(2), vec(3)}, 0.1, 1)

	tests := []struct {
		t    float64
		want float64
	}{
		{0, 1}, {0.1, 2}, {0.15, 2}, {0.2, 3}, {5, 3}, {-1, 1},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ol.Compute(vec(0), tt.t).AtVec(0), "t=%g", tt.t)
	}

	empty := NewOpenLoop(nil, 0.1, 2)
	require.Equal(t, 2, empty.Compute(vec(0, 0), 0).Len())
}
