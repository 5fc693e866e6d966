package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/dynamo"
)

// Linear is the continuous-time plant ẋ = Ax + Bu.
type Linear struct {
	A, B *mat.Dense
}

func NewLinear(A, B mat.Matrix) (*Linear, error) {
	nx, _ := A.Dims()
	_, nu := B.Dims()
	if err := dynamo.CheckDims("A", A, nx, nx); err != nil {
		return nil, err
	}
	if err := dynamo.CheckDims("B", B, nx, nu); err != nil {
		return nil, err
	}
	return &Linear{A: mat.DenseCopyOf(A), B: mat.DenseCopyOf(B)}, nil
}

// NewDoubleIntegrator returns the unit-mass double integrator ṗ = v, v̇ = u.
func NewDoubleIntegrator() *Linear {
	return &Linear{
		A: mat.NewDense(2, 2, []float64{0, 1, 0, 0}),
		B: mat.NewDense(2, 1, []float64{0, 1}),
	}
}

func (l *Linear) StateDim() int {
	r, _ := l.A.Dims()
	return r
}

func (l *Linear) ControlDim() int {
	_, c := l.B.Dims()
	return c
}

func (l *Linear) Derive(t float64, x, u *mat.VecDense) (*mat.VecDense, *mat.Dense) {
	nx, nu := l.StateDim(), l.ControlDim()

	xdot := mat.NewVecDense(nx, nil)
	xdot.MulVec(l.A, x)
	var bu mat.VecDense
	bu.MulVec(l.B, u)
	xdot.AddVec(xdot, &bu)

	jac := mat.NewDense(nx, nx+nu, nil)
	jac.Slice(0, nx, 0, nx).(*mat.Dense).Copy(l.A)
	jac.Slice(0, nx, nx, nx+nu).(*mat.Dense).Copy(l.B)
	return xdot, jac
}

// GetParams exposes entries as "a_ij" and "b_ij".
func (l *Linear) GetParams() map[string]float64 {
	params := make(map[string]float64)
	for name, m := range map[string]*mat.Dense{"a": l.A, "b": l.B} {
		r, c := m.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				params[fmt.Sprintf("%s_%d%d", name, i, j)] = m.At(i, j)
			}
		}
	}
	return params
}

func (l *Linear) SetParam(name string, value float64) error {
	if len(name) != 4 || name[1] != '_' || !isDigit(name[2]) || !isDigit(name[3]) {
		return unknownParam(name)
	}
	i, j := int(name[2]-'0'), int(name[3]-'0')
	var m *mat.Dense
	switch name[0] {
	case 'a':
		m = l.A
	case 'b':
		m = l.B
	default:
		return unknownParam(name)
	}
	r, c := m.Dims()
	if i >= r || j >= c {
		return unknownParam(name)
	}
	m.Set(i, j, value)
	return nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
