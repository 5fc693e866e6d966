package ilqr

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Result of a solve. X has Horizon states; U, K and L have Horizon−1 entries.
// On failure X and U are the last accepted trajectory and K, L the last
// computed policy; any of them may be nil if the solve stopped early.
type Result struct {
	X []*mat.VecDense
	U []*mat.VecDense
	K []*mat.Dense
	L []*mat.VecDense

	CostHistory []float64
	Iterations  int
	Elapsed     time.Duration

	Success bool
	Status  Status
	Err     error
}

// FinalCost returns the last accepted cost, or NaN without history.
func (r *Result) FinalCost() float64 {
	if len(r.CostHistory) == 0 {
		return math.NaN()
	}
	return r.CostHistory[len(r.CostHistory)-1]
}

// FinalState returns the last state sample, or nil.
func (r *Result) FinalState() *mat.VecDense {
	if len(r.X) == 0 {
		return nil
	}
	return r.X[len(r.X)-1]
}

// States returns the states as the columns of an Nx×N matrix.
func (r *Result) States() *mat.Dense {
	return columns(r.X)
}

// Controls returns the controls as the columns of an Nu×(N−1) matrix.
func (r *Result) Controls() *mat.Dense {
	return columns(r.U)
}

// GainMatrix concatenates the feedback gains side by side into one
// Nu×(Nx·(N−1)) matrix, K_k occupying columns k·Nx through (k+1)·Nx−1.
func (r *Result) GainMatrix() *mat.Dense {
	if len(r.K) == 0 {
		return nil
	}
	nu, nx := r.K[0].Dims()
	wide := mat.NewDense(nu, nx*len(r.K), nil)
	for k, K := range r.K {
		wide.Slice(0, nu, k*nx, (k+1)*nx).(*mat.Dense).Copy(K)
	}
	return wide
}

func columns(vs []*mat.VecDense) *mat.Dense {
	if len(vs) == 0 {
		return nil
	}
	m := mat.NewDense(vs[0].Len(), len(vs), nil)
	for j, v := range vs {
		m.SetCol(j, v.RawVector().Data)
	}
	return m
}
