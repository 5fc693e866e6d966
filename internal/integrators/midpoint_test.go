package integrators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/dynamo"
)

type damped struct{}

func (d *damped) StateDim() int   { return 2 }
func (d *damped) ControlDim() int { return 1 }

// Pendulum with damping: θ'' = -sin θ - 0.2 θ' + u cos θ.
func (d *damped) Derive(_ float64, x, u *mat.VecDense) (*mat.VecDense, *mat.Dense) {
	th, om, tau := x.AtVec(0), x.AtVec(1), u.AtVec(0)
	xdot := mat.NewVecDense(2, []float64{om, -math.Sin(th) - 0.2*om + tau*math.Cos(th)})
	jac := mat.NewDense(2, 3, []float64{
		0, 1, 0,
		-math.Cos(th) - tau*math.Sin(th), -0.2, math.Cos(th),
	})
	return xdot, jac
}

func TestMidpointLinearSystemIsExact(t *testing.T) {
	dyn := &harmonicOscillator{}
	integ := NewMidpoint()

	x := mat.NewVecDense(2, []float64{0.7, -0.3})
	u := mat.NewVecDense(1, []float64{0.4})
	dt := 0.05

	next, A, B := integ.Step(dyn, 0, x, u, dt)

	var ax, bu, lin mat.VecDense
	ax.MulVec(A, x)
	bu.MulVec(B, u)
	lin.AddVec(&ax, &bu)

	require.True(t, mat.EqualApprox(next, &lin, 1e-14), "next=%v lin=%v", next.RawVector().Data, lin.RawVector().Data)
}

func TestMidpointLinearizationMatchesFiniteDifference(t *testing.T) {
	dyn := &damped{}
	integ := NewMidpoint()

	x := mat.NewVecDense(2, []float64{1.1, 0.4})
	u := mat.NewVecDense(1, []float64{-0.6})
	dt := 0.1

	_, A, B := integ.Step(dyn, 0, x, u, dt)

	step := func(t float64, x, u *mat.VecDense) *mat.VecDense {
		return NewMidpoint().Propagate(dyn, t, x, u, dt)
	}
	jac := dynamo.NumericJacobian(step, 0, x, u, 1e-6)

	require.True(t, mat.EqualApprox(A, jac.Slice(0, 2, 0, 2), 1e-7), "A:\n%v\nfd:\n%v", mat.Formatted(A), mat.Formatted(jac))
	require.True(t, mat.EqualApprox(B, jac.Slice(0, 2, 2, 3), 1e-7), "B:\n%v\nfd:\n%v", mat.Formatted(B), mat.Formatted(jac))
}

func TestMidpointSmallStepLimit(t *testing.T) {
	dyn := &damped{}
	integ := NewMidpoint()
	x := mat.NewVecDense(2, []float64{0.3, 0.1})
	u := mat.NewVecDense(1, []float64{0.2})

	for _, dt := range []float64{1e-2, 1e-4, 1e-6} {
		_, A, B := integ.Step(dyn, 0, x, u, dt)
		require.True(t, mat.EqualApprox(A, dynamo.Identity(2), 10*dt), "dt=%g A:\n%v", dt, mat.Formatted(A))
		require.LessOrEqual(t, mat.Norm(B, math.Inf(1)), 10*dt)
	}
}

func TestMidpointStepMatchesPropagate(t *testing.T) {
	dyn := &damped{}
	x := mat.NewVecDense(2, []float64{2.0, -1.0})
	u := mat.NewVecDense(1, []float64{0.5})

	next, _, _ := NewMidpoint().Step(dyn, 0, x, u, 0.02)
	prop := NewMidpoint().Propagate(dyn, 0, x, u, 0.02)
	require.True(t, mat.Equal(next, prop))
}

func TestMidpointReuseAcrossDimensions(t *testing.T) {
	integ := NewMidpoint()
	_, _, _ = integ.Step(&damped{}, 0, mat.NewVecDense(2, []float64{1, 0}), mat.NewVecDense(1, []float64{0}), 0.1)

	sys := dynamo.NewSystem(3, 2, func(_ float64, x, u *mat.VecDense) (*mat.VecDense, *mat.Dense) {
		xdot := mat.NewVecDense(3, []float64{u.AtVec(0), u.AtVec(1), x.AtVec(0)})
		jac := mat.NewDense(3, 5, []float64{
			0, 0, 0, 1, 0,
			0, 0, 0, 0, 1,
			1, 0, 0, 0, 0,
		})
		return xdot, jac
	})
	next, A, B := integ.Step(sys, 0, mat.NewVecDense(3, []float64{1, 2, 3}), mat.NewVecDense(2, []float64{1, 1}), 0.1)
	require.Equal(t, 3, next.Len())
	r, c := A.Dims()
	require.Equal(t, []int{3, 3}, []int{r, c})
	r, c = B.Dims()
	require.Equal(t, []int{3, 2}, []int{r, c})
}
