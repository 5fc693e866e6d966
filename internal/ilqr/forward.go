package ilqr

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	nan = math.NaN()
	inf = math.Inf(1)
)

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// rollout integrates tr from x0. With a nil policy the controls already in
// tr are applied as is; otherwise they are replaced by
//
//	u_k = ū_k − α·l_k − K_k(x_k − x̄_k)
//
// where the bars refer to the accepted trajectory s.cur. The feedback acts on
// the deviation of the candidate state from the accepted one.
func (s *solver) rollout(tr *trajectory, pol *policy, alpha float64) float64 {
	n := len(tr.x)
	tr.x[0].CopyVec(s.p.X0)

	j := 0.0
	for k := 0; k < n-1; k++ {
		u := tr.u[k]
		if pol != nil {
			s.dx.Reset()
			s.dx.SubVec(tr.x[k], s.cur.x[k])
			u.MulVec(pol.K[k], &s.dx)
			u.AddScaledVec(u, alpha, pol.l[k])
			u.SubVec(s.cur.u[k], u)
		}

		next, A, B := s.mid.Step(s.p.System, float64(k)*s.p.Dt, tr.x[k], u, s.p.Dt)
		tr.x[k+1].CopyVec(next)
		tr.a[k], tr.b[k] = A, B

		j += s.p.Cost.Running(tr.x[k], u)
	}
	j += s.p.Cost.Terminal(tr.x[n-1])
	tr.cost = j
	return j
}

// lineSearch reports the accepted step.
type lineSearch struct {
	alpha    float64
	halvings int
}

// forward applies pol with α = 1, ½, ¼, … until the candidate cost does not
// exceed the accepted one, then swaps the candidate in.
func (s *solver) forward(pol *policy) (lineSearch, error) {
	alpha := 1.0
	last := 0.0
	for h := 0; h <= s.opts.MaxHalvings; h++ {
		last = s.rollout(s.cand, pol, alpha)
		if isFinite(last) && last <= s.cur.cost {
			s.cur, s.cand = s.cand, s.cur
			return lineSearch{alpha: alpha, halvings: h}, nil
		}
		alpha *= 0.5
	}
	if !isFinite(last) {
		return lineSearch{}, ErrNonFinite
	}
	return lineSearch{}, ErrLineSearchExhausted
}

// copyVecs deep-copies a vector sequence.
func copyVecs(vs []*mat.VecDense) []*mat.VecDense {
	out := make([]*mat.VecDense, len(vs))
	for i, v := range vs {
		out[i] = mat.VecDenseCopyOf(v)
	}
	return out
}
