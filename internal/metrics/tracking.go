package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// TerminalError is ‖x_final − goal‖₂ of the last state in a rollout.
type TerminalError struct {
	goal  *mat.VecDense
	value float64
}

func NewTerminalError(goal *mat.VecDense) *TerminalError {
	return &TerminalError{goal: mat.VecDenseCopyOf(goal), value: math.NaN()}
}

func (e *TerminalError) Name() string { return "terminal_error" }

func (e *TerminalError) Observe(x, u *mat.VecDense, t float64) {}

func (e *TerminalError) ObserveFinal(x *mat.VecDense, t float64) {
	var d mat.VecDense
	d.SubVec(x, e.goal)
	e.value = mat.Norm(&d, 2)
}

func (e *TerminalError) Value() float64 { return e.value }

func (e *TerminalError) Reset() { e.value = math.NaN() }

// TrackingError is the RMS distance between the replayed states and a
// reference trajectory sampled every dt. Samples past the reference are
// compared with its last state.
type TrackingError struct {
	ref     []*mat.VecDense
	dt      float64
	sumSq   float64
	samples int
}

func NewTrackingError(ref []*mat.VecDense, dt float64) *TrackingError {
	return &TrackingError{ref: ref, dt: dt}
}

func (e *TrackingError) Name() string { return "tracking_rms" }

func (e *TrackingError) Observe(x, u *mat.VecDense, t float64) {
	e.add(x, t)
}

func (e *TrackingError) ObserveFinal(x *mat.VecDense, t float64) {
	e.add(x, t)
}

func (e *TrackingError) add(x *mat.VecDense, t float64) {
	if len(e.ref) == 0 {
		return
	}
	k := int(math.Round(t / e.dt))
	if k >= len(e.ref) {
		k = len(e.ref) - 1
	}
	if k < 0 {
		k = 0
	}
	var d mat.VecDense
	d.SubVec(x, e.ref[k])
	n := mat.Norm(&d, 2)
	e.sumSq += n * n
	e.samples++
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return math.Sqrt(e.sumSq / float64(e.samples))
}

func (e *TrackingError) Reset() {
	e.sumSq = 0
	e.samples = 0
}
