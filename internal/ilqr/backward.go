package ilqr

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/cost"
	"github.com/san-kum/trajopt/internal/dynamo"
)

// backward runs the Riccati recursion along tr and returns the new policy.
//
//	LH  = R + BᵀSB
//	l   = LH⁻¹(r + Bᵀs)
//	K   = LH⁻¹BᵀSA
//	Ā   = A − BK
//	S  ← Q + KᵀRK + ĀᵀSĀ
//	s  ← q − Kᵀr + KᵀRl + Āᵀ(s − SBl)
//
// The returned step is the horizon index that failed, or -1.
func backward(c *cost.Quadratic, tr *trajectory) (*policy, int, error) {
	n := len(tr.x)
	nx, nu := c.StateDim(), c.ControlDim()
	pol := newPolicy(n)

	S := mat.DenseCopyOf(c.Qf)
	s := c.TerminalGradient(tr.x[n-1])

	var (
		chol             mat.Cholesky
		sb, bts, lh, bsa mat.Dense
		bk, abar, sabar  mat.Dense
		rk, tmp          mat.Dense
		rhs, rl, w, sbl  mat.VecDense
		d, tmpv          mat.VecDense
	)
	Snew := mat.NewDense(nx, nx, nil)
	snew := mat.NewVecDense(nx, nil)

	for k := n - 2; k >= 0; k-- {
		A, B := tr.a[k], tr.b[k]
		q := c.StateGradient(tr.x[k])
		r := c.ControlGradient(tr.u[k])

		sb.Reset()
		sb.Mul(S, B)
		bts.Reset()
		bts.Mul(B.T(), S)

		lh.Reset()
		lh.Mul(B.T(), &sb)
		lh.Add(&lh, c.R)
		if ok := chol.Factorize(cost.AsSym(&lh)); !ok {
			return nil, k, ErrFactorization
		}

		rhs.Reset()
		rhs.MulVec(B.T(), s)
		rhs.AddVec(&rhs, r)
		l := mat.NewVecDense(nu, nil)
		if err := chol.SolveVecTo(l, &rhs); err != nil {
			return nil, k, ErrFactorization
		}

		bsa.Reset()
		bsa.Mul(&bts, A)
		K := mat.NewDense(nu, nx, nil)
		if err := chol.SolveTo(K, &bsa); err != nil {
			return nil, k, ErrFactorization
		}
		pol.K[k], pol.l[k] = K, l

		bk.Reset()
		bk.Mul(B, K)
		abar.Reset()
		abar.Sub(A, &bk)

		rk.Reset()
		rk.Mul(c.R, K)
		Snew.Copy(c.Q)
		tmp.Reset()
		tmp.Mul(K.T(), &rk)
		Snew.Add(Snew, &tmp)
		sabar.Reset()
		sabar.Mul(S, &abar)
		tmp.Reset()
		tmp.Mul(abar.T(), &sabar)
		Snew.Add(Snew, &tmp)

		// Kᵀ(Rl − r)
		rl.Reset()
		rl.MulVec(c.R, l)
		w.Reset()
		w.SubVec(&rl, r)
		snew.CopyVec(q)
		tmpv.Reset()
		tmpv.MulVec(K.T(), &w)
		snew.AddVec(snew, &tmpv)

		// Āᵀ(s − SBl)
		sbl.Reset()
		sbl.MulVec(&sb, l)
		d.Reset()
		d.SubVec(s, &sbl)
		tmpv.Reset()
		tmpv.MulVec(abar.T(), &d)
		snew.AddVec(snew, &tmpv)

		S.Copy(Snew)
		s.CopyVec(snew)

		if !dynamo.IsFinite(l) || !dynamo.IsFiniteMatrix(K) || !dynamo.IsFiniteMatrix(S) {
			return nil, k, ErrNonFinite
		}
	}
	return pol, -1, nil
}
