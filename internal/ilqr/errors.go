package ilqr

import (
	"errors"
	"fmt"
)

var (
	// ErrFactorization is returned when the control Hessian R + BᵀSB is not
	// positive definite or R itself is not.
	ErrFactorization = errors.New("ilqr: factorization failed (matrix not positive definite)")

	// ErrNonFinite is returned when NaN or Inf shows up in a trajectory, a
	// linearization, a policy or a cost. It is in the factorization class.
	ErrNonFinite = fmt.Errorf("%w: non-finite value detected", ErrFactorization)

	// ErrLineSearchExhausted is returned when no step scale reduced the cost.
	ErrLineSearchExhausted = errors.New("ilqr: line search exhausted")

	// ErrIterationCap is returned when the tolerance was not met in time.
	ErrIterationCap = errors.New("ilqr: iteration cap exceeded")

	// ErrInvalidProblem is returned for malformed problems.
	ErrInvalidProblem = errors.New("ilqr: invalid problem")

	// ErrDynamicsPanic is returned when the dynamics function panicked.
	ErrDynamicsPanic = errors.New("ilqr: dynamics panicked")
)

// Stage names the phase of an outer iteration.
type Stage string

const (
	StageInit     Stage = "init"
	StageBackward Stage = "backward"
	StageForward  Stage = "forward"
	StageCheck    Stage = "check"
)

// SolveError records where a solve stopped.
type SolveError struct {
	Iteration int
	Stage     Stage
	Step      int // horizon step, -1 when not tied to one
	Err       error
}

func (e *SolveError) Error() string {
	if e.Step >= 0 {
		return fmt.Sprintf("iteration %d (%s, step %d): %v", e.Iteration, e.Stage, e.Step, e.Err)
	}
	return fmt.Sprintf("iteration %d (%s): %v", e.Iteration, e.Stage, e.Err)
}

func (e *SolveError) Unwrap() error {
	return e.Err
}
