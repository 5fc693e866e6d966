package ilqr

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/cost"
	"github.com/san-kum/trajopt/internal/dynamo"
)

// Problem is one trajectory optimization instance. Horizon counts state
// samples, so there are Horizon−1 controls.
type Problem struct {
	System  dynamo.System
	X0      *mat.VecDense
	Cost    *cost.Quadratic
	Dt      float64
	Horizon int

	// U0 is the initial control guess, Horizon−1 vectors of ControlDim.
	// Zero controls are used when nil.
	U0 []*mat.VecDense
}

// Validate reports whether p is well formed. Weight problems that make R
// unusable come back in the factorization class.
func (p *Problem) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil problem", ErrInvalidProblem)
	}
	if p.System == nil {
		return fmt.Errorf("%w: nil system", ErrInvalidProblem)
	}
	if p.Cost == nil {
		return fmt.Errorf("%w: nil cost", ErrInvalidProblem)
	}
	if p.X0 == nil {
		return fmt.Errorf("%w: nil initial state", ErrInvalidProblem)
	}
	if p.Dt <= 0 || math.IsInf(p.Dt, 0) || math.IsNaN(p.Dt) {
		return fmt.Errorf("%w: dt must be positive and finite, got %g", ErrInvalidProblem, p.Dt)
	}
	if p.Horizon < 2 {
		return fmt.Errorf("%w: horizon must be at least 2, got %d", ErrInvalidProblem, p.Horizon)
	}

	nx, nu := p.System.StateDim(), p.System.ControlDim()
	if nx <= 0 || nu <= 0 {
		return fmt.Errorf("%w: system dimensions %d/%d", ErrInvalidProblem, nx, nu)
	}
	if err := dynamo.CheckDims("x0", p.X0, nx, 1); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProblem, err)
	}
	if !dynamo.IsFinite(p.X0) {
		return fmt.Errorf("%w: x0: %w", ErrInvalidProblem, dynamo.ErrInvalidState)
	}

	if err := p.Cost.Validate(); err != nil {
		if errors.Is(err, cost.ErrNotPositiveDefinite) {
			return fmt.Errorf("%w: %w", ErrFactorization, err)
		}
		return fmt.Errorf("%w: %w", ErrInvalidProblem, err)
	}
	if p.Cost.StateDim() != nx || p.Cost.ControlDim() != nu {
		return fmt.Errorf("%w: cost is %d/%d, system is %d/%d: %w",
			ErrInvalidProblem, p.Cost.StateDim(), p.Cost.ControlDim(), nx, nu, dynamo.ErrDimensionMismatch)
	}

	if p.U0 != nil {
		if len(p.U0) != p.Horizon-1 {
			return fmt.Errorf("%w: %d initial controls for horizon %d", ErrInvalidProblem, len(p.U0), p.Horizon)
		}
		for k, u := range p.U0 {
			if u == nil || u.Len() != nu {
				return fmt.Errorf("%w: initial control %d: %w", ErrInvalidProblem, k, dynamo.ErrDimensionMismatch)
			}
			if !dynamo.IsFinite(u) {
				return fmt.Errorf("%w: initial control %d: %w", ErrInvalidProblem, k, dynamo.ErrInvalidState)
			}
		}
	}
	return nil
}

// ConstantControls returns n copies of u, a convenient initial guess.
func ConstantControls(n int, u ...float64) []*mat.VecDense {
	us := make([]*mat.VecDense, n)
	for k := range us {
		us[k] = mat.NewVecDense(len(u), append([]float64(nil), u...))
	}
	return us
}
