package sim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/dynamo"
)

// Integrator advances a state by one step under a held control.
// integrators.RK4 and integrators.Midpoint both satisfy it.
type Integrator interface {
	Propagate(sys dynamo.System, t float64, x, u *mat.VecDense, dt float64) *mat.VecDense
}

type Controller interface {
	Compute(x *mat.VecDense, t float64) *mat.VecDense
}

type Metric interface {
	Name() string
	Observe(x, u *mat.VecDense, t float64)
	Value() float64
	Reset()
}

// FinalObserver is implemented by metrics that also need the last state,
// which has no control applied to it.
type FinalObserver interface {
	ObserveFinal(x *mat.VecDense, t float64)
}

type Observer interface {
	OnStep(x, u *mat.VecDense, t float64)
}

// EnergyComputer is implemented by plants with a meaningful energy.
type EnergyComputer interface {
	Energy(x mat.Vector) float64
}

type Config struct {
	Dt            float64
	Steps         int
	ValidateState bool
}

type Result struct {
	States      []*mat.VecDense
	Controls    []*mat.VecDense
	Times       []float64
	Metrics     map[string]float64
	StepsTaken  int
	EnergyDrift float64
	Errors      []error
}

// FinalState returns the last recorded state.
func (r *Result) FinalState() *mat.VecDense {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error {
	return dynamo.ErrInvalidState
}
