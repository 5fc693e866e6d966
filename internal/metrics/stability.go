package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Stability is the fraction of samples whose state stays within threshold
// of the goal in every component.
type Stability struct {
	name       string
	goal       *mat.VecDense
	threshold  float64
	violations int
	samples    int
}

func NewStability(goal *mat.VecDense, threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		goal:      mat.VecDenseCopyOf(goal),
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x, u *mat.VecDense, t float64) {
	s.samples++
	for i := 0; i < x.Len(); i++ {
		if math.Abs(x.AtVec(i)-s.goal.AtVec(i)) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
