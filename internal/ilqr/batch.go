package ilqr

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// SolveBatch solves independent problems concurrently with at most workers
// solves in flight (unbounded when workers <= 0). results[i] belongs to
// problems[i] and is never nil. The error joins the per-problem failures.
func SolveBatch(ctx context.Context, problems []*Problem, opts Options, workers int) ([]*Result, error) {
	results := make([]*Result, len(problems))
	errs := make([]error, len(problems))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, p := range problems {
		i, p := i, p
		g.Go(func() error {
			res, err := Solve(gctx, p, opts)
			results[i] = res
			if err != nil {
				errs[i] = fmt.Errorf("problem %d: %w", i, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}
