package dynamo

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// System is a continuous-time plant dX/dt = f(t, X, u).
//
// Derive returns the state derivative and the Jacobian [∂f/∂x | ∂f/∂u],
// an Nx×(Nx+Nu) matrix. Implementations must not retain or modify x and u.
type System interface {
	Derive(t float64, x, u *mat.VecDense) (xdot *mat.VecDense, jac *mat.Dense)
	StateDim() int
	ControlDim() int
}

// Configurable systems expose named physical parameters.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// DynamicsFunc evaluates a plant and its Jacobian.
type DynamicsFunc func(t float64, x, u *mat.VecDense) (*mat.VecDense, *mat.Dense)

type funcSystem struct {
	fn     DynamicsFunc
	nx, nu int
}

// NewSystem wraps fn as a System with the given dimensions.
func NewSystem(nx, nu int, fn DynamicsFunc) System {
	return &funcSystem{fn: fn, nx: nx, nu: nu}
}

func (s *funcSystem) Derive(t float64, x, u *mat.VecDense) (*mat.VecDense, *mat.Dense) {
	return s.fn(t, x, u)
}

func (s *funcSystem) StateDim() int   { return s.nx }
func (s *funcSystem) ControlDim() int { return s.nu }

// DefaultJacobianStep is the central-difference perturbation used by NumericJacobian.
const DefaultJacobianStep = 1e-6

// NumericJacobian approximates [∂f/∂x | ∂f/∂u] of f at (x, u) with central
// differences of step eps.
func NumericJacobian(f func(t float64, x, u *mat.VecDense) *mat.VecDense, t float64, x, u *mat.VecDense, eps float64) *mat.Dense {
	if eps <= 0 {
		eps = DefaultJacobianStep
	}
	nx, nu := x.Len(), u.Len()
	jac := mat.NewDense(nx, nx+nu, nil)

	xp := mat.VecDenseCopyOf(x)
	up := mat.VecDenseCopyOf(u)
	var diff mat.VecDense

	for j := 0; j < nx+nu; j++ {
		v, idx := xp, j
		if j >= nx {
			v, idx = up, j-nx
		}
		orig := v.AtVec(idx)

		v.SetVec(idx, orig+eps)
		fp := mat.VecDenseCopyOf(f(t, xp, up))
		v.SetVec(idx, orig-eps)
		fm := f(t, xp, up)
		v.SetVec(idx, orig)

		diff.SubVec(fp, fm)
		diff.ScaleVec(1/(2*eps), &diff)
		jac.SetCol(j, diff.RawVector().Data)
	}
	return jac
}

// IsFinite reports whether every entry of v is neither NaN nor Inf.
func IsFinite(v mat.Vector) bool {
	if v == nil {
		return false
	}
	if vd, ok := v.(*mat.VecDense); ok && vd.RawVector().Inc == 1 {
		data := vd.RawVector().Data[:vd.Len()]
		return !floats.HasNaN(data) && !hasInf(data)
	}
	for i := 0; i < v.Len(); i++ {
		if !finite(v.AtVec(i)) {
			return false
		}
	}
	return true
}

// IsFiniteMatrix reports whether every entry of m is neither NaN nor Inf.
func IsFiniteMatrix(m mat.Matrix) bool {
	if m == nil {
		return false
	}
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if !finite(m.At(i, j)) {
				return false
			}
		}
	}
	return true
}

// Identity returns an n×n identity matrix.
func Identity(n int) *mat.Dense {
	id := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		id.Set(i, i, 1)
	}
	return id
}

// Diag returns a square matrix with d on its diagonal.
func Diag(d ...float64) *mat.Dense {
	m := mat.NewDense(len(d), len(d), nil)
	for i, v := range d {
		m.Set(i, i, v)
	}
	return m
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func hasInf(s []float64) bool {
	for _, v := range s {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
