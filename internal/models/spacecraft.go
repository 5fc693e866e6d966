package models

import (
	"gonum.org/v1/gonum/mat"
)

// Spacecraft is a rigid body in body-fixed principal axes driven by three
// torques. The state is the angular rate ω and Euler's equations give
//
//	ω̇ = I⁻¹(τ − ω × Iω)
type Spacecraft struct {
	I1, I2, I3 float64
}

func NewSpacecraft() *Spacecraft {
	return &Spacecraft{I1: 1.0, I2: 2.0, I3: 3.0}
}

func (s *Spacecraft) StateDim() int   { return 3 }
func (s *Spacecraft) ControlDim() int { return 3 }

func (s *Spacecraft) Derive(t float64, x, u *mat.VecDense) (*mat.VecDense, *mat.Dense) {
	w1, w2, w3 := x.AtVec(0), x.AtVec(1), x.AtVec(2)
	k1 := (s.I2 - s.I3) / s.I1
	k2 := (s.I3 - s.I1) / s.I2
	k3 := (s.I1 - s.I2) / s.I3

	xdot := mat.NewVecDense(3, []float64{
		u.AtVec(0)/s.I1 + k1*w2*w3,
		u.AtVec(1)/s.I2 + k2*w3*w1,
		u.AtVec(2)/s.I3 + k3*w1*w2,
	})
	jac := mat.NewDense(3, 6, []float64{
		0, k1 * w3, k1 * w2, 1 / s.I1, 0, 0,
		k2 * w3, 0, k2 * w1, 0, 1 / s.I2, 0,
		k3 * w2, k3 * w1, 0, 0, 0, 1 / s.I3,
	})
	return xdot, jac
}

// KineticEnergy returns ½ωᵀIω.
func (s *Spacecraft) KineticEnergy(x mat.Vector) float64 {
	w1, w2, w3 := x.AtVec(0), x.AtVec(1), x.AtVec(2)
	return 0.5 * (s.I1*w1*w1 + s.I2*w2*w2 + s.I3*w3*w3)
}

func (s *Spacecraft) GetParams() map[string]float64 {
	return map[string]float64{"I1": s.I1, "I2": s.I2, "I3": s.I3}
}

func (s *Spacecraft) SetParam(name string, value float64) error {
	var dst *float64
	switch name {
	case "I1":
		dst = &s.I1
	case "I2":
		dst = &s.I2
	case "I3":
		dst = &s.I3
	default:
		return unknownParam(name)
	}
	if err := positive(name, value); err != nil {
		return err
	}
	*dst = value
	return nil
}
