package control

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// OpenLoop replays a control sequence with zero-order hold and no feedback.
// Past the end it holds the last control; an empty sequence yields zeros of
// width dim.
type OpenLoop struct {
	us  []*mat.VecDense
	dt  float64
	dim int
}

func NewOpenLoop(us []*mat.VecDense, dt float64, dim int) *OpenLoop {
	cp := make([]*mat.VecDense, len(us))
	for i, u := range us {
		cp[i] = mat.VecDenseCopyOf(u)
	}
	return &OpenLoop{us: cp, dt: dt, dim: dim}
}

func (o *OpenLoop) Compute(x *mat.VecDense, t float64) *mat.VecDense {
	if len(o.us) == 0 || o.dt <= 0 {
		return mat.NewVecDense(o.dim, nil)
	}
	k := int(math.Floor(t/o.dt + 1e-9))
	if k < 0 {
		k = 0
	}
	if k >= len(o.us) {
		k = len(o.us) - 1
	}
	return mat.VecDenseCopyOf(o.us[k])
}
