package integrators

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/dynamo"
)

// Midpoint is the explicit second-order Runge-Kutta (midpoint) rule that also
// returns the discrete-time linearization of the step it takes.
type Midpoint struct {
	xmid mat.VecDense
	a1   mat.Dense
	a2   mat.Dense
	b1   mat.Dense
	b2   mat.Dense
	tmp  mat.Dense
}

func NewMidpoint() *Midpoint {
	return &Midpoint{}
}

// Step advances x by dt under the constant control u and returns the next
// state together with A = ∂x⁺/∂x and B = ∂x⁺/∂u:
//
//	A = I + dt·A2 + ½dt²·A2·A1
//	B = dt·B2 + ½dt²·A2·B1
//
// where (A1, B1) and (A2, B2) are the continuous Jacobian blocks at the start
// and midpoint of the step. The returned values are freshly allocated.
func (m *Midpoint) Step(dyn dynamo.System, t float64, x, u *mat.VecDense, dt float64) (next *mat.VecDense, A, B *mat.Dense) {
	nx, nu := x.Len(), u.Len()

	f1, j1 := dyn.Derive(t, x, u)
	m.a1.CloneFrom(j1.Slice(0, nx, 0, nx))
	m.b1.CloneFrom(j1.Slice(0, nx, nx, nx+nu))

	m.xmid.Reset()
	m.xmid.AddScaledVec(x, 0.5*dt, f1)
	f2, j2 := dyn.Derive(t+0.5*dt, &m.xmid, u)

	next = mat.NewVecDense(nx, nil)
	next.AddScaledVec(x, dt, f2)

	m.a2.CloneFrom(j2.Slice(0, nx, 0, nx))
	m.b2.CloneFrom(j2.Slice(0, nx, nx, nx+nu))

	halfDt2 := 0.5 * dt * dt

	A = dynamo.Identity(nx)
	m.tmp.Reset()
	m.tmp.Scale(dt, &m.a2)
	A.Add(A, &m.tmp)
	m.tmp.Reset()
	m.tmp.Mul(&m.a2, &m.a1)
	m.tmp.Scale(halfDt2, &m.tmp)
	A.Add(A, &m.tmp)

	B = mat.NewDense(nx, nu, nil)
	B.Scale(dt, &m.b2)
	m.tmp.Reset()
	m.tmp.Mul(&m.a2, &m.b1)
	m.tmp.Scale(halfDt2, &m.tmp)
	B.Add(B, &m.tmp)

	return next, A, B
}

// Propagate advances x by dt without forming the linearization.
func (m *Midpoint) Propagate(dyn dynamo.System, t float64, x, u *mat.VecDense, dt float64) *mat.VecDense {
	f1, _ := dyn.Derive(t, x, u)
	m.xmid.Reset()
	m.xmid.AddScaledVec(x, 0.5*dt, f1)
	f2, _ := dyn.Derive(t+0.5*dt, &m.xmid, u)

	next := mat.NewVecDense(x.Len(), nil)
	next.AddScaledVec(x, dt, f2)
	return next
}
