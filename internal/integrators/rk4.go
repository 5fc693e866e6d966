package integrators

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/dynamo"
)

// RK4 is the classical fourth-order Runge-Kutta rule. It ignores the
// Jacobian returned by the system and is used to replay controls.
type RK4 struct {
	k1, k2, k3, k4 mat.VecDense
	scratch        mat.VecDense
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Propagate(dyn dynamo.System, t float64, x, u *mat.VecDense, dt float64) *mat.VecDense {
	k1, _ := dyn.Derive(t, x, u)
	r.k1.CloneFromVec(k1)

	r.scratch.Reset()
	r.scratch.AddScaledVec(x, dt*0.5, &r.k1)
	k2, _ := dyn.Derive(t+dt*0.5, &r.scratch, u)
	r.k2.CloneFromVec(k2)

	r.scratch.AddScaledVec(x, dt*0.5, &r.k2)
	k3, _ := dyn.Derive(t+dt*0.5, &r.scratch, u)
	r.k3.CloneFromVec(k3)

	r.scratch.AddScaledVec(x, dt, &r.k3)
	k4, _ := dyn.Derive(t+dt, &r.scratch, u)
	r.k4.CloneFromVec(k4)

	result := mat.NewVecDense(x.Len(), nil)
	dt6 := dt / 6.0
	result.AddScaledVec(x, dt6, &r.k1)
	result.AddScaledVec(result, 2*dt6, &r.k2)
	result.AddScaledVec(result, 2*dt6, &r.k3)
	result.AddScaledVec(result, dt6, &r.k4)
	return result
}
