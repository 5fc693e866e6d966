package ilqr

import (
	"context"
	"errors"
)

// Status classifies how a solve ended.
type Status int

const (
	StatusConverged Status = iota
	StatusFactorizationFailure
	StatusLineSearchExhausted
	StatusIterationCap
	StatusInvalidProblem
	StatusCanceled
)

var statusNames = map[Status]string{
	StatusConverged:            "converged",
	StatusFactorizationFailure: "factorization_failure",
	StatusLineSearchExhausted:  "line_search_exhausted",
	StatusIterationCap:         "iteration_cap",
	StatusInvalidProblem:       "invalid_problem",
	StatusCanceled:             "canceled",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(name string) (Status, bool) {
	for s, n := range statusNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// StatusOf maps an error returned by Solve to its Status.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusConverged
	case errors.Is(err, ErrDynamicsPanic), errors.Is(err, ErrInvalidProblem):
		return StatusInvalidProblem
	case errors.Is(err, ErrFactorization):
		return StatusFactorizationFailure
	case errors.Is(err, ErrLineSearchExhausted):
		return StatusLineSearchExhausted
	case errors.Is(err, ErrIterationCap):
		return StatusIterationCap
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	default:
		return StatusInvalidProblem
	}
}
