// Package cost implements the quadratic tracking cost used by the optimizer.
//
//	running(x, u) = ½(x−xg)ᵀQ(x−xg) + ½uᵀRu
//	terminal(x)   = ½(x−xg)ᵀQf(x−xg)
package cost

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/dynamo"
)

var (
	// ErrNotSymmetric is returned when a weight matrix is not symmetric.
	ErrNotSymmetric = errors.New("cost: weight matrix is not symmetric")

	// ErrNotPositiveDefinite is returned when R cannot be Cholesky-factorized.
	ErrNotPositiveDefinite = errors.New("cost: control weight R is not positive definite")
)

// symmetryTol bounds |M(i,j) − M(j,i)| for a weight matrix to count as symmetric.
const symmetryTol = 1e-12

// Quadratic holds the weights and goal of a tracking cost. It is immutable
// after construction and safe for concurrent use.
type Quadratic struct {
	Q, R, Qf *mat.Dense
	Goal     *mat.VecDense
}

// New validates the weights and returns a cost model steering toward xg.
// The inputs are copied.
func New(Q, R, Qf mat.Matrix, xg mat.Vector) (*Quadratic, error) {
	if Q == nil || R == nil || Qf == nil || xg == nil {
		return nil, fmt.Errorf("cost: nil weight or goal")
	}
	c := &Quadratic{
		Q:    mat.DenseCopyOf(Q),
		R:    mat.DenseCopyOf(R),
		Qf:   mat.DenseCopyOf(Qf),
		Goal: mat.VecDenseCopyOf(xg),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks shapes, finiteness and symmetry of the weights and that R
// admits a Cholesky factorization.
func (c *Quadratic) Validate() error {
	if c.Q == nil || c.R == nil || c.Qf == nil || c.Goal == nil {
		return fmt.Errorf("cost: nil weight or goal")
	}
	nx := c.Goal.Len()
	nu, _ := c.R.Dims()

	if err := dynamo.CheckDims("Q", c.Q, nx, nx); err != nil {
		return err
	}
	if err := dynamo.CheckDims("Qf", c.Qf, nx, nx); err != nil {
		return err
	}
	if err := dynamo.CheckDims("R", c.R, nu, nu); err != nil {
		return err
	}

	weights := []struct {
		name string
		m    *mat.Dense
	}{{"Q", c.Q}, {"R", c.R}, {"Qf", c.Qf}}
	for _, w := range weights {
		if !dynamo.IsFiniteMatrix(w.m) {
			return fmt.Errorf("cost: %s: %w", w.name, dynamo.ErrInvalidState)
		}
		if !isSymmetric(w.m) {
			return fmt.Errorf("%w: %s", ErrNotSymmetric, w.name)
		}
	}
	if !dynamo.IsFinite(c.Goal) {
		return fmt.Errorf("cost: goal: %w", dynamo.ErrInvalidState)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(AsSym(c.R)); !ok {
		return ErrNotPositiveDefinite
	}
	return nil
}

func (c *Quadratic) StateDim() int {
	return c.Goal.Len()
}

func (c *Quadratic) ControlDim() int {
	r, _ := c.R.Dims()
	return r
}

// Running returns ½(x−xg)ᵀQ(x−xg) + ½uᵀRu.
func (c *Quadratic) Running(x, u mat.Vector) float64 {
	var dx mat.VecDense
	dx.SubVec(x, c.Goal)
	return 0.5*mat.Inner(&dx, c.Q, &dx) + 0.5*mat.Inner(u, c.R, u)
}

// Terminal returns ½(x−xg)ᵀQf(x−xg).
func (c *Quadratic) Terminal(x mat.Vector) float64 {
	var dx mat.VecDense
	dx.SubVec(x, c.Goal)
	return 0.5 * mat.Inner(&dx, c.Qf, &dx)
}

// Total returns the sum of running costs over the N−1 control intervals
// plus the terminal cost of the last of the N states.
func (c *Quadratic) Total(xs, us []*mat.VecDense) float64 {
	j := 0.0
	for k := range us {
		j += c.Running(xs[k], us[k])
	}
	return j + c.Terminal(xs[len(xs)-1])
}

// StateGradient returns q = Q(x−xg).
func (c *Quadratic) StateGradient(x mat.Vector) *mat.VecDense {
	var dx mat.VecDense
	dx.SubVec(x, c.Goal)
	q := mat.NewVecDense(dx.Len(), nil)
	q.MulVec(c.Q, &dx)
	return q
}

// ControlGradient returns r = Ru.
func (c *Quadratic) ControlGradient(u mat.Vector) *mat.VecDense {
	r := mat.NewVecDense(u.Len(), nil)
	r.MulVec(c.R, u)
	return r
}

// TerminalGradient returns Qf(x−xg).
func (c *Quadratic) TerminalGradient(x mat.Vector) *mat.VecDense {
	var dx mat.VecDense
	dx.SubVec(x, c.Goal)
	s := mat.NewVecDense(dx.Len(), nil)
	s.MulVec(c.Qf, &dx)
	return s
}

// AsSym returns the symmetric part ½(M+Mᵀ) of a square matrix.
func AsSym(m mat.Matrix) *mat.SymDense {
	n, _ := m.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
	return s
}

func isSymmetric(m mat.Matrix) bool {
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		for j := i + 1; j < r; j++ {
			d := m.At(i, j) - m.At(j, i)
			if d > symmetryTol || d < -symmetryTol {
				return false
			}
		}
	}
	return true
}
