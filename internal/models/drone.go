package models

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Drone is a planar quadrotor with state (x, y, θ, vx, vy, ω) and the left
// and right rotor thrusts as controls.
type Drone struct {
	Mass, Inertia, ArmLength float64
	Gravity, DragCoeff       float64
	AngDrag                  float64
}

func NewDrone() *Drone {
	return &Drone{
		Mass:      DefaultMass,
		Inertia:   0.1,
		ArmLength: 0.25,
		Gravity:   DefaultGravity,
		DragCoeff: 0.1,
		AngDrag:   0.05,
	}
}

func (d *Drone) StateDim() int   { return 6 }
func (d *Drone) ControlDim() int { return 2 }

func (d *Drone) Derive(t float64, x, u *mat.VecDense) (*mat.VecDense, *mat.Dense) {
	theta, vx, vy, omega := x.AtVec(2), x.AtVec(3), x.AtVec(4), x.AtVec(5)
	thrustL, thrustR := u.AtVec(0), u.AtVec(1)

	total := thrustL + thrustR
	torque := (thrustR - thrustL) * d.ArmLength

	sin, cos := math.Sin(theta), math.Cos(theta)
	ax := (-total*sin - d.DragCoeff*vx) / d.Mass
	ay := (total*cos - d.Mass*d.Gravity - d.DragCoeff*vy) / d.Mass
	alpha := (torque - d.AngDrag*omega) / d.Inertia

	xdot := mat.NewVecDense(6, []float64{vx, vy, omega, ax, ay, alpha})

	jac := mat.NewDense(6, 8, nil)
	jac.Set(0, 3, 1)
	jac.Set(1, 4, 1)
	jac.Set(2, 5, 1)

	jac.Set(3, 2, -total*cos/d.Mass)
	jac.Set(3, 3, -d.DragCoeff/d.Mass)
	jac.Set(3, 6, -sin/d.Mass)
	jac.Set(3, 7, -sin/d.Mass)

	jac.Set(4, 2, -total*sin/d.Mass)
	jac.Set(4, 4, -d.DragCoeff/d.Mass)
	jac.Set(4, 6, cos/d.Mass)
	jac.Set(4, 7, cos/d.Mass)

	jac.Set(5, 5, -d.AngDrag/d.Inertia)
	jac.Set(5, 6, -d.ArmLength/d.Inertia)
	jac.Set(5, 7, d.ArmLength/d.Inertia)

	return xdot, jac
}

// HoverThrust is the per-rotor thrust that balances gravity when level.
func (d *Drone) HoverThrust() float64 {
	return d.Mass * d.Gravity / 2.0
}

func (d *Drone) Energy(x mat.Vector) float64 {
	y, vx, vy, omega := x.AtVec(1), x.AtVec(3), x.AtVec(4), x.AtVec(5)
	ke := 0.5 * d.Mass * (vx*vx + vy*vy)
	keRot := 0.5 * d.Inertia * omega * omega
	pe := d.Mass * d.Gravity * y
	return ke + keRot + pe
}

func (d *Drone) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":       d.Mass,
		"inertia":    d.Inertia,
		"arm_length": d.ArmLength,
		"gravity":    d.Gravity,
		"drag":       d.DragCoeff,
		"ang_drag":   d.AngDrag,
	}
}

func (d *Drone) SetParam(name string, value float64) error {
	switch name {
	case "mass", "inertia":
		if err := positive(name, value); err != nil {
			return err
		}
		if name == "mass" {
			d.Mass = value
		} else {
			d.Inertia = value
		}
	case "arm_length":
		d.ArmLength = value
	case "gravity":
		d.Gravity = value
	case "drag":
		d.DragCoeff = value
	case "ang_drag":
		d.AngDrag = value
	default:
		return unknownParam(name)
	}
	return nil
}
