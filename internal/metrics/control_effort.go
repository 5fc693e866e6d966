package metrics

import (
	"gonum.org/v1/gonum/mat"
)

// ControlEffort is the mean of uᵀWu over the replayed samples, the control
// share of the quadratic running cost. A nil weight means W = I.
type ControlEffort struct {
	weight  mat.Matrix
	sum     float64
	samples int
}

func NewControlEffort(weight mat.Matrix) *ControlEffort {
	return &ControlEffort{weight: weight}
}

func (c *ControlEffort) Name() string {
	return "control_effort"
}

func (c *ControlEffort) Observe(x, u *mat.VecDense, t float64) {
	if c.weight == nil {
		c.sum += mat.Dot(u, u)
	} else {
		c.sum += mat.Inner(u, c.weight, u)
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
