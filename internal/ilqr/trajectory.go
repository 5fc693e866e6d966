package ilqr

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/dynamo"
)

// trajectory is a state/control sequence with the linearization taken along
// it. The driver owns exactly two, the accepted one and the line-search
// candidate, and swaps them on acceptance.
type trajectory struct {
	x    []*mat.VecDense // N states
	u    []*mat.VecDense // N−1 controls
	a, b []*mat.Dense    // N−1 linearizations
	cost float64
}

func newTrajectory(nx, nu, n int) *trajectory {
	tr := &trajectory{
		x: make([]*mat.VecDense, n),
		u: make([]*mat.VecDense, n-1),
		a: make([]*mat.Dense, n-1),
		b: make([]*mat.Dense, n-1),
	}
	for k := range tr.x {
		tr.x[k] = mat.NewVecDense(nx, nil)
	}
	for k := range tr.u {
		tr.u[k] = mat.NewVecDense(nu, nil)
	}
	return tr
}

func (tr *trajectory) finite() bool {
	for _, x := range tr.x {
		if !dynamo.IsFinite(x) {
			return false
		}
	}
	for k := range tr.u {
		if !dynamo.IsFinite(tr.u[k]) || !dynamo.IsFiniteMatrix(tr.a[k]) || !dynamo.IsFiniteMatrix(tr.b[k]) {
			return false
		}
	}
	return true
}

// policy is the affine correction produced by one backward pass.
type policy struct {
	K []*mat.Dense    // Nu×Nx feedback gains
	l []*mat.VecDense // Nu feedforward terms
}

func newPolicy(n int) *policy {
	return &policy{
		K: make([]*mat.Dense, n-1),
		l: make([]*mat.VecDense, n-1),
	}
}

// feedforwardNorm returns max_k ‖l_k‖∞, or NaN if any entry is not finite.
func (p *policy) feedforwardNorm() float64 {
	norm := 0.0
	for _, l := range p.l {
		if !dynamo.IsFinite(l) {
			return nan
		}
		if v := mat.Norm(l, inf); v > norm {
			norm = v
		}
	}
	return norm
}
