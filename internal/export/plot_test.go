package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func samples() ([]float64, []*mat.VecDense) {
	times := make([]float64, 20)
	states := make([]*mat.VecDense, 20)
	for k := range states {
		t := float64(k) * 0.1
		times[k] = t
		states[k] = mat.NewVecDense(2, []float64{1 - t, -t})
	}
	return times, states
}

func requireFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("%s not written: %v", path, err)
	}
	if info.Size() == 0 {
		t.Errorf("%s is empty", path)
	}
}

func TestPlotCostHistory(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"cost.png", "cost.svg"} {
		path := filepath.Join(dir, name)
		if err := PlotCostHistory(path, []float64{29.5, 8.916, 8.916}); err != nil {
			t.Fatalf("plot %s failed: %v", name, err)
		}
		requireFile(t, path)
	}

	// zero cost falls back to a linear axis
	path := filepath.Join(dir, "linear.png")
	if err := PlotCostHistory(path, []float64{1, 0}); err != nil {
		t.Fatalf("plot failed: %v", err)
	}
	requireFile(t, path)

	if err := PlotCostHistory(filepath.Join(dir, "empty.png"), nil); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestPlotStates(t *testing.T) {
	dir := t.TempDir()
	times, states := samples()

	path := filepath.Join(dir, "nested", "states.png")
	if err := PlotStates(path, times, states); err != nil {
		t.Fatalf("plot failed: %v", err)
	}
	requireFile(t, path)

	if err := PlotStates(path, times[:3], states); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestPlotPhase(t *testing.T) {
	dir := t.TempDir()
	_, states := samples()

	path := filepath.Join(dir, "phase.svg")
	if err := PlotPhase(path, states, 0, 1); err != nil {
		t.Fatalf("plot failed: %v", err)
	}
	requireFile(t, path)

	if err := PlotPhase(path, states, 0, 2); err == nil {
		t.Error("expected axis range error")
	}
}
