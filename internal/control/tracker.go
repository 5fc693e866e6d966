package control

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/dynamo"
)

// Tracker replays an optimized trajectory as a time-varying policy
//
//	u(t) = ū_k − K_k(x − x̄_k),  k = ⌊t/dt⌋
//
// After the horizon it holds the last control and gain around the final
// state sample.
type Tracker struct {
	xs []*mat.VecDense
	us []*mat.VecDense
	ks []*mat.Dense
	dt float64
}

// NewTracker takes N states, N−1 controls and N−1 gains. Inputs are copied.
func NewTracker(xs, us []*mat.VecDense, ks []*mat.Dense, dt float64) (*Tracker, error) {
	if len(us) == 0 || len(xs) != len(us)+1 || len(ks) != len(us) {
		return nil, fmt.Errorf("control: tracker needs N states and N-1 controls and gains, got %d/%d/%d: %w",
			len(xs), len(us), len(ks), dynamo.ErrDimensionMismatch)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("control: dt must be positive, got %g", dt)
	}
	tr := &Tracker{
		xs: make([]*mat.VecDense, len(xs)),
		us: make([]*mat.VecDense, len(us)),
		ks: make([]*mat.Dense, len(ks)),
		dt: dt,
	}
	nx, nu := xs[0].Len(), us[0].Len()
	for i, x := range xs {
		if x.Len() != nx {
			return nil, fmt.Errorf("control: state %d: %w", i, dynamo.ErrDimensionMismatch)
		}
		tr.xs[i] = mat.VecDenseCopyOf(x)
	}
	for i := range us {
		if err := dynamo.CheckDims(fmt.Sprintf("K[%d]", i), ks[i], nu, nx); err != nil {
			return nil, err
		}
		tr.us[i] = mat.VecDenseCopyOf(us[i])
		tr.ks[i] = mat.DenseCopyOf(ks[i])
	}
	return tr, nil
}

func (tr *Tracker) Compute(x *mat.VecDense, t float64) *mat.VecDense {
	k := int(math.Floor(t/tr.dt + 1e-9))
	ref := k
	last := len(tr.us) - 1
	if k < 0 {
		k, ref = 0, 0
	}
	if k > last {
		k, ref = last, last+1
	}

	var dx mat.VecDense
	dx.SubVec(x, tr.xs[ref])
	u := mat.NewVecDense(tr.us[k].Len(), nil)
	u.MulVec(tr.ks[k], &dx)
	u.SubVec(tr.us[k], u)
	return u
}

// Horizon returns the number of controls the tracker follows.
func (tr *Tracker) Horizon() int {
	return len(tr.us)
}
