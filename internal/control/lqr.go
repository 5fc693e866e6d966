package control

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/cost"
	"github.com/san-kum/trajopt/internal/dynamo"
)

// ErrRiccati is returned when R + BᵀPB cannot be factorized.
var ErrRiccati = errors.New("control: riccati step is not positive definite")

// LQR is a static regulator u = −K(x − target).
type LQR struct {
	K      *mat.Dense
	Target *mat.VecDense
}

func NewLQR(k *mat.Dense, target *mat.VecDense) *LQR {
	return &LQR{K: mat.DenseCopyOf(k), Target: mat.VecDenseCopyOf(target)}
}

func (l *LQR) Compute(x *mat.VecDense, t float64) *mat.VecDense {
	nu, _ := l.K.Dims()
	var dx mat.VecDense
	dx.SubVec(x, l.Target)
	u := mat.NewVecDense(nu, nil)
	u.MulVec(l.K, &dx)
	u.ScaleVec(-1, u)
	return u
}

// FiniteHorizonLQR runs the discrete Riccati recursion for
// x⁺ = Ax + Bu over n state samples and returns the gains K_0 … K_{n−2}.
//
//	P_{n−1} = Qf
//	K_k     = (R + BᵀPB)⁻¹BᵀPA
//	P       ← Q + AᵀPA − AᵀPB·K_k
func FiniteHorizonLQR(A, B, Q, R, Qf mat.Matrix, n int) ([]*mat.Dense, error) {
	if n < 2 {
		return nil, fmt.Errorf("control: horizon must be at least 2, got %d", n)
	}
	nx, _ := A.Dims()
	_, nu := B.Dims()
	shapes := []struct {
		name       string
		m          mat.Matrix
		rows, cols int
	}{{"A", A, nx, nx}, {"B", B, nx, nu}, {"Q", Q, nx, nx}, {"R", R, nu, nu}, {"Qf", Qf, nx, nx}}
	for _, sh := range shapes {
		if err := dynamo.CheckDims(sh.name, sh.m, sh.rows, sh.cols); err != nil {
			return nil, err
		}
	}

	gains := make([]*mat.Dense, n-1)
	P := mat.DenseCopyOf(Qf)
	for k := n - 2; k >= 0; k-- {
		K, err := riccatiStep(A, B, Q, R, P)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", k, err)
		}
		gains[k] = K
	}
	return gains, nil
}

// SteadyStateLQR iterates the Riccati recursion from P = Q until the gain
// changes by less than tol, for at most maxIter steps.
func SteadyStateLQR(A, B, Q, R mat.Matrix, maxIter int, tol float64) (*mat.Dense, error) {
	P := mat.DenseCopyOf(Q)
	var prev *mat.Dense
	for i := 0; i < maxIter; i++ {
		K, err := riccatiStep(A, B, Q, R, P)
		if err != nil {
			return nil, err
		}
		if prev != nil && mat.EqualApprox(K, prev, tol) {
			return K, nil
		}
		prev = K
	}
	return nil, fmt.Errorf("control: riccati did not settle in %d iterations", maxIter)
}

// riccatiStep computes K from P and overwrites P with the previous-step
// cost-to-go.
func riccatiStep(A, B, Q, R mat.Matrix, P *mat.Dense) (*mat.Dense, error) {
	nx, _ := A.Dims()
	_, nu := B.Dims()

	var pb, pa, lh, rhs mat.Dense
	pb.Mul(P, B)
	pa.Mul(P, A)
	lh.Mul(B.T(), &pb)
	lh.Add(&lh, R)
	rhs.Mul(B.T(), &pa)

	var chol mat.Cholesky
	if ok := chol.Factorize(cost.AsSym(&lh)); !ok {
		return nil, ErrRiccati
	}
	K := mat.NewDense(nu, nx, nil)
	if err := chol.SolveTo(K, &rhs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRiccati, err)
	}

	var next, tmp mat.Dense
	next.Mul(A.T(), &pa)
	next.Add(&next, Q)
	tmp.Mul(A.T(), &pb)
	var tk mat.Dense
	tk.Mul(&tmp, K)
	next.Sub(&next, &tk)
	P.Copy(cost.AsSym(&next))
	return K, nil
}
