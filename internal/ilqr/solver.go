package ilqr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/integrators"
)

type solver struct {
	p    *Problem
	opts Options
	log  *zap.Logger
	mid  *integrators.Midpoint

	cur, cand *trajectory
	pol       *policy
	dx        mat.VecDense

	history []float64
	iter    int
	stage   Stage
	ready   bool
	start   time.Time
}

// Solve optimizes p and always returns a non-nil Result. On failure the
// result holds the last accepted trajectory and the returned error is also
// stored in Result.Err. Cancellation of ctx is observed between outer
// iterations.
func Solve(ctx context.Context, p *Problem, opts Options) (res *Result, err error) {
	opts = opts.withDefaults()
	s := &solver{
		p:     p,
		opts:  opts,
		log:   opts.Logger,
		mid:   integrators.NewMidpoint(),
		stage: StageInit,
		start: time.Now(),
	}

	defer func() {
		if r := recover(); r != nil {
			res = s.result(&SolveError{
				Iteration: s.iter,
				Stage:     s.stage,
				Step:      -1,
				Err:       fmt.Errorf("%w: %v", ErrDynamicsPanic, r),
			})
			err = res.Err
		}
	}()

	res = s.run(ctx)
	return res, res.Err
}

func (s *solver) run(ctx context.Context) *Result {
	if err := s.p.Validate(); err != nil {
		return s.result(&SolveError{Stage: StageInit, Step: -1, Err: err})
	}
	nx, nu, n := s.p.System.StateDim(), s.p.System.ControlDim(), s.p.Horizon
	s.cur = newTrajectory(nx, nu, n)
	s.cand = newTrajectory(nx, nu, n)
	for k, u := range s.p.U0 {
		s.cur.u[k].CopyVec(u)
	}

	j0 := s.rollout(s.cur, nil, 0)
	s.ready = true
	s.history = append(s.history, j0)
	if !isFinite(j0) || !s.cur.finite() {
		return s.result(&SolveError{Stage: StageInit, Step: -1, Err: ErrNonFinite})
	}
	s.log.Debug("ilqr initial rollout", zap.Float64("cost", j0), zap.Int("horizon", n))

	for {
		if err := ctx.Err(); err != nil {
			return s.result(&SolveError{Iteration: s.iter, Stage: StageCheck, Step: -1, Err: err})
		}
		if s.iter >= s.opts.MaxIterations {
			return s.result(&SolveError{Iteration: s.iter, Stage: StageCheck, Step: -1, Err: ErrIterationCap})
		}
		s.iter++

		s.stage = StageBackward
		pol, step, err := backward(s.p.Cost, s.cur)
		if err != nil {
			return s.result(&SolveError{Iteration: s.iter, Stage: StageBackward, Step: step, Err: err})
		}
		s.pol = pol
		norm := pol.feedforwardNorm()
		if !isFinite(norm) {
			return s.result(&SolveError{Iteration: s.iter, Stage: StageBackward, Step: -1, Err: ErrNonFinite})
		}

		s.stage = StageForward
		ls, err := s.forward(pol)
		if err != nil {
			// A stationary trajectory may not admit a strict rounding-level
			// improvement; keep it when the policy is already within tolerance.
			if !errors.Is(err, ErrLineSearchExhausted) || norm > s.opts.Tolerance {
				return s.result(&SolveError{Iteration: s.iter, Stage: StageForward, Step: -1, Err: err})
			}
			ls = lineSearch{alpha: 0, halvings: s.opts.MaxHalvings}
		}
		s.history = append(s.history, s.cur.cost)

		stats := IterationStats{
			Iteration:       s.iter,
			Cost:            s.cur.cost,
			Alpha:           ls.alpha,
			Halvings:        ls.halvings,
			FeedforwardNorm: norm,
			Elapsed:         time.Since(s.start),
		}
		s.log.Debug("ilqr iteration",
			zap.Int("iteration", stats.Iteration),
			zap.Float64("cost", stats.Cost),
			zap.Float64("alpha", stats.Alpha),
			zap.Int("halvings", stats.Halvings),
			zap.Float64("feedforward_norm", stats.FeedforwardNorm),
		)
		if s.opts.Observer != nil {
			s.opts.Observer.OnIteration(stats)
		}

		s.stage = StageCheck
		if norm <= s.opts.Tolerance {
			return s.result(nil)
		}
	}
}

func (s *solver) result(err error) *Result {
	res := &Result{
		CostHistory: append([]float64(nil), s.history...),
		Iterations:  s.iter,
		Success:     err == nil,
		Status:      StatusOf(err),
		Err:         err,
		Elapsed:     time.Since(s.start),
	}
	if s.ready {
		res.X = copyVecs(s.cur.x)
		res.U = copyVecs(s.cur.u)
	}
	if s.pol != nil {
		res.K = make([]*mat.Dense, len(s.pol.K))
		for k, K := range s.pol.K {
			res.K[k] = mat.DenseCopyOf(K)
		}
		res.L = copyVecs(s.pol.l)
	}

	fields := []zap.Field{
		zap.Stringer("status", res.Status),
		zap.Int("iterations", res.Iterations),
		zap.Duration("elapsed", res.Elapsed),
	}
	if len(res.CostHistory) > 0 {
		fields = append(fields, zap.Float64("cost", res.FinalCost()))
	}
	if err != nil {
		s.log.Warn("ilqr stopped", append(fields, zap.Error(err))...)
	} else {
		s.log.Info("ilqr converged", fields...)
	}
	return res
}
