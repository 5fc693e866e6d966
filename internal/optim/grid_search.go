// Package optim searches solver configurations for the best closed-loop
// score.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Objective scores one parameter combination; lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type Trial struct {
	Params map[string]float64
	Score  float64
	Err    error
}

// GridSearch evaluates every combination of the given parameter values.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("grid search needs one range per parameter, got %d names and %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("parameter %s has no values", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of combinations.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs obj on every combination with at most workers in flight and
// returns the best trial plus all trials, best first. Failed or non-finite
// trials rank last.
func (g *GridSearch) Search(ctx context.Context, obj Objective, workers int) (Trial, []Trial, error) {
	combos := make([]map[string]float64, 0, g.Size())
	g.enumerate(0, make(map[string]float64), &combos)

	trials := make([]Trial, len(combos))
	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i, params := range combos {
		i, params := i, params
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				trials[i] = Trial{Params: params, Score: math.Inf(1), Err: err}
				return nil
			}
			score, err := obj(ctx, params)
			if err == nil && (math.IsNaN(score) || math.IsInf(score, 0)) {
				err = fmt.Errorf("non-finite score %g", score)
			}
			if err != nil {
				score = math.Inf(1)
			}
			trials[i] = Trial{Params: params, Score: score, Err: err}
			return nil
		})
	}
	_ = eg.Wait()

	sort.SliceStable(trials, func(i, j int) bool {
		if (trials[i].Err == nil) != (trials[j].Err == nil) {
			return trials[i].Err == nil
		}
		return trials[i].Score < trials[j].Score
	})

	if trials[0].Err != nil {
		errs := make([]error, len(trials))
		for i, t := range trials {
			errs[i] = t.Err
		}
		return Trial{}, trials, fmt.Errorf("every trial failed: %w", errors.Join(errs...))
	}
	return trials[0], trials, nil
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		combo := make(map[string]float64, len(current))
		for k, v := range current {
			combo[k] = v
		}
		*out = append(*out, combo)
		return
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		g.enumerate(depth+1, current, out)
	}
	delete(current, name)
}
