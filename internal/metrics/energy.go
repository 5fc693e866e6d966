package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/sim"
)

// Energy averages the plant energy over the observed samples.
type Energy struct {
	name    string
	plant   sim.EnergyComputer
	samples int
	total   float64
}

func NewEnergy(plant sim.EnergyComputer) *Energy {
	return &Energy{name: "energy", plant: plant}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(x, u *mat.VecDense, t float64) {
	e.total += e.plant.Energy(x)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.samples = 0
	e.total = 0
}
