package sim

import (
	"context"
	"errors"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Ensemble replays the same closed loop from several initial states in
// parallel. Each run gets a fresh simulator from build, so metrics and
// integrator scratch space are never shared.
type Ensemble struct {
	build func() *Simulator
}

func NewEnsemble(build func() *Simulator) *Ensemble {
	return &Ensemble{build: build}
}

func (e *Ensemble) Run(ctx context.Context, x0s []*mat.VecDense, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(x0s))
	errs := make([]error, len(x0s))

	var wg sync.WaitGroup
	for i, x0 := range x0s {
		wg.Add(1)
		go func(idx int, x0 *mat.VecDense) {
			defer wg.Done()
			results[idx], errs[idx] = e.build().Run(ctx, x0, cfg)
		}(i, x0)
	}

	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}
