package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/dynamo"
)

func vec(v ...float64) *mat.VecDense {
	return mat.NewVecDense(len(v), v)
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		name   string
		sys    dynamo.System
		nx, nu int
	}{
		{"double integrator", NewDoubleIntegrator(), 2, 1},
		{"pendulum", NewPendulum(), 2, 1},
		{"cartpole", NewCartPole(), 4, 1},
		{"drone", NewDrone(), 6, 2},
		{"spacecraft", NewSpacecraft(), 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.nx, tt.sys.StateDim())
			require.Equal(t, tt.nu, tt.sys.ControlDim())

			x := mat.NewVecDense(tt.nx, nil)
			u := mat.NewVecDense(tt.nu, nil)
			xdot, jac := tt.sys.Derive(0, x, u)
			require.Equal(t, tt.nx, xdot.Len())
			r, c := jac.Dims()
			require.Equal(t, tt.nx, r)
			require.Equal(t, tt.nx+tt.nu, c)
		})
	}
}

// Analytic Jacobians must agree with central differences away from
// equilibria.
func TestJacobiansMatchFiniteDifferences(t *testing.T) {
	tests := []struct {
		name string
		sys  dynamo.System
		x, u *mat.VecDense
	}{
		{"double integrator", NewDoubleIntegrator(), vec(0.3, -1.2), vec(0.7)},
		{"pendulum", NewPendulum(), vec(0.8, -0.4), vec(1.5)},
		{"drone", NewDrone(), vec(0.1, 2, 0.3, 0.5, -0.2, 0.4), vec(4, 6)},
		{"spacecraft", NewSpacecraft(), vec(0.5, -0.3, 0.8), vec(0.1, 0.2, -0.1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := func(t float64, x, u *mat.VecDense) *mat.VecDense {
				xdot, _ := tt.sys.Derive(t, x, u)
				return xdot
			}
			_, analytic := tt.sys.Derive(0, tt.x, tt.u)
			numeric := dynamo.NumericJacobian(f, 0, tt.x, tt.u, 1e-6)
			require.True(t, mat.EqualApprox(analytic, numeric, 1e-6),
				"analytic\n%v\nnumeric\n%v", mat.Formatted(analytic), mat.Formatted(numeric))
		})
	}
}

func TestPendulumEquilibrium(t *testing.T) {
	p := NewPendulum()
	p.Damping = 0

	for _, theta := range []float64{0, math.Pi} {
		xdot, _ := p.Derive(0, vec(theta, 0), vec(0))
		require.InDelta(t, 0, xdot.AtVec(0), 1e-10)
		require.InDelta(t, 0, xdot.AtVec(1), 1e-10)
	}
}

func TestPendulumGravity(t *testing.T) {
	p := NewPendulum()
	p.Damping = 0

	xdot, _ := p.Derive(0, vec(math.Pi/2, 0), vec(0))
	require.InDelta(t, -p.Gravity/p.Length, xdot.AtVec(1), 1e-9)
	require.InDelta(t, 2*p.Mass*p.Gravity*p.Length, p.Energy(vec(math.Pi, 0)), 1e-9)
}

func TestCartPoleUprightIsEquilibrium(t *testing.T) {
	c := NewCartPole()
	xdot, jac := c.Derive(0, vec(0, 0, 0, 0), vec(0))
	require.True(t, dynamo.IsFinite(xdot))
	for i := 0; i < 4; i++ {
		require.InDelta(t, 0, xdot.AtVec(i), 1e-12)
	}
	// The upright pole is unstable: ∂θ̈/∂θ > 0.
	require.Greater(t, jac.At(3, 2), 0.0)
	// Pushing the cart accelerates it forward.
	require.Greater(t, jac.At(1, 4), 0.0)
}

func TestDroneHover(t *testing.T) {
	d := NewDrone()
	h := d.HoverThrust()

	xdot, _ := d.Derive(0, vec(0, 5, 0, 0, 0, 0), vec(h, h))
	for i := 3; i < 6; i++ {
		require.InDelta(t, 0, xdot.AtVec(i), 1e-12)
	}

	xdot, _ = d.Derive(0, vec(0, 5, 0, 0, 0, 0), vec(0, 0))
	require.InDelta(t, -d.Gravity, xdot.AtVec(4), 1e-12)

	xdot, _ = d.Derive(0, vec(0, 5, 0, 0, 0, 0), vec(0, 5))
	require.Greater(t, xdot.AtVec(5), 0.0)
}

// Torque-free motion conserves rotational kinetic energy.
func TestSpacecraftTorqueFreeEnergy(t *testing.T) {
	s := NewSpacecraft()
	x := vec(0.5, -0.3, 0.8)
	xdot, _ := s.Derive(0, x, vec(0, 0, 0))

	// dE/dt = Σ I_i ω_i ω̇_i
	dE := s.I1*x.AtVec(0)*xdot.AtVec(0) + s.I2*x.AtVec(1)*xdot.AtVec(1) + s.I3*x.AtVec(2)*xdot.AtVec(2)
	require.InDelta(t, 0, dE, 1e-12)
	require.Greater(t, s.KineticEnergy(x), 0.0)
}

func TestSetParam(t *testing.T) {
	tests := []struct {
		name   string
		sys    dynamo.Configurable
		param  string
		value  float64
		target error
	}{
		{"pendulum mass", NewPendulum(), "mass", 2, nil},
		{"pendulum bad mass", NewPendulum(), "mass", -1, dynamo.ErrParameterBounds},
		{"pendulum unknown", NewPendulum(), "spin", 1, dynamo.ErrUnknownParam},
		{"cartpole pole", NewCartPole(), "pole_length", 0.5, nil},
		{"drone drag", NewDrone(), "drag", 0.2, nil},
		{"spacecraft inertia", NewSpacecraft(), "I2", 4, nil},
		{"spacecraft zero inertia", NewSpacecraft(), "I3", 0, dynamo.ErrParameterBounds},
		{"linear entry", NewDoubleIntegrator(), "a_01", 2, nil},
		{"linear out of range", NewDoubleIntegrator(), "b_01", 1, dynamo.ErrUnknownParam},
		{"linear bad name", NewDoubleIntegrator(), "c_00", 1, dynamo.ErrUnknownParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sys.SetParam(tt.param, tt.value)
			if tt.target != nil {
				require.ErrorIs(t, err, tt.target)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.value, tt.sys.GetParams()[tt.param])
		})
	}
}

func TestNewLinearRejectsBadShapes(t *testing.T) {
	_, err := NewLinear(mat.NewDense(2, 2, nil), mat.NewDense(3, 1, nil))
	require.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}
