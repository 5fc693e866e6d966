package models

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/dynamo"
)

// CartPole is a pole hinged on a cart pushed by a horizontal force. State is
// (x, ẋ, θ, θ̇) with θ = 0 upright.
type CartPole struct {
	CartMass   float64
	PoleMass   float64
	PoleLength float64
	Gravity    float64

	// JacobianStep is the finite-difference step, DefaultJacobianStep if zero.
	JacobianStep float64
}

func NewCartPole() *CartPole {
	return &CartPole{
		CartMass:   1.0,
		PoleMass:   0.1,
		PoleLength: 1.0,
		Gravity:    DefaultGravity,
	}
}

func (c *CartPole) StateDim() int {
	return 4
}

func (c *CartPole) ControlDim() int {
	return 1
}

func (c *CartPole) Derive(t float64, x, u *mat.VecDense) (*mat.VecDense, *mat.Dense) {
	return c.derivative(t, x, u), dynamo.NumericJacobian(c.derivative, t, x, u, c.JacobianStep)
}

func (c *CartPole) derivative(_ float64, x, u *mat.VecDense) *mat.VecDense {
	vel := x.AtVec(1)
	theta := x.AtVec(2)
	omega := x.AtVec(3)
	force := u.AtVec(0)

	mc := c.CartMass
	mp := c.PoleMass
	l := c.PoleLength
	g := c.Gravity

	sint := math.Sin(theta)
	cost := math.Cos(theta)

	temp := (force + mp*l*omega*omega*sint) / (mc + mp)
	thetaacc := (g*sint - cost*temp) / (l * (4.0/3.0 - mp*cost*cost/(mc+mp)))
	xacc := temp - mp*l*thetaacc*cost/(mc+mp)

	return mat.NewVecDense(4, []float64{vel, xacc, omega, thetaacc})
}

func (c *CartPole) GetParams() map[string]float64 {
	return map[string]float64{
		"cart_mass":   c.CartMass,
		"pole_mass":   c.PoleMass,
		"pole_length": c.PoleLength,
		"gravity":     c.Gravity,
	}
}

func (c *CartPole) SetParam(name string, value float64) error {
	switch name {
	case "cart_mass":
		if err := positive(name, value); err != nil {
			return err
		}
		c.CartMass = value
	case "pole_mass":
		if err := positive(name, value); err != nil {
			return err
		}
		c.PoleMass = value
	case "pole_length":
		if err := positive(name, value); err != nil {
			return err
		}
		c.PoleLength = value
	case "gravity":
		c.Gravity = value
	default:
		return unknownParam(name)
	}
	return nil
}
