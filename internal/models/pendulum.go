package models

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Pendulum is a damped, torque-driven pendulum with state (θ, ω). θ = 0 hangs
// down, θ = π is upright.
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:    DefaultMass,
		Length:  DefaultLength,
		Damping: 0.1,
		Gravity: DefaultGravity,
	}
}

func (p *Pendulum) StateDim() int {
	return 2
}

func (p *Pendulum) ControlDim() int {
	return 1
}

func (p *Pendulum) Derive(t float64, x, u *mat.VecDense) (*mat.VecDense, *mat.Dense) {
	theta := x.AtVec(0)
	omega := x.AtVec(1)
	torque := u.AtVec(0)

	inertia := p.Mass * p.Length * p.Length
	alpha := (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta) + torque) / inertia

	jac := mat.NewDense(2, 3, []float64{
		0, 1, 0,
		-p.Gravity * math.Cos(theta) / p.Length, -p.Damping / inertia, 1 / inertia,
	})
	return mat.NewVecDense(2, []float64{omega, alpha}), jac
}

// Energy returns kinetic plus potential energy, zero at rest hanging down.
func (p *Pendulum) Energy(x mat.Vector) float64 {
	v := p.Length * x.AtVec(1)
	ke := 0.5 * p.Mass * v * v
	pe := p.Mass * p.Gravity * p.Length * (1.0 - math.Cos(x.AtVec(0)))
	return ke + pe
}

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":    p.Mass,
		"length":  p.Length,
		"damping": p.Damping,
		"gravity": p.Gravity,
	}
}

func (p *Pendulum) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		if err := positive(name, value); err != nil {
			return err
		}
		p.Mass = value
	case "length":
		if err := positive(name, value); err != nil {
			return err
		}
		p.Length = value
	case "damping":
		p.Damping = value
	case "gravity":
		p.Gravity = value
	default:
		return unknownParam(name)
	}
	return nil
}
