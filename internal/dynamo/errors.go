package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for dynamics evaluation.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates mismatched state/control dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParam is returned by SetParam for names a system does not expose.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")
)

// DimensionError wraps ErrDimensionMismatch with the offending quantity.
type DimensionError struct {
	Name     string
	Rows     int
	Cols     int
	WantRows int
	WantCols int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: %s is %dx%d, expected %dx%d", ErrDimensionMismatch, e.Name, e.Rows, e.Cols, e.WantRows, e.WantCols)
}

func (e *DimensionError) Unwrap() error {
	return ErrDimensionMismatch
}

// CheckDims returns a *DimensionError when m is not r×c.
func CheckDims(name string, m interface{ Dims() (int, int) }, r, c int) error {
	mr, mc := m.Dims()
	if mr != r || mc != c {
		return &DimensionError{Name: name, Rows: mr, Cols: mc, WantRows: r, WantCols: c}
	}
	return nil
}
