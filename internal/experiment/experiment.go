package experiment

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/config"
	"github.com/san-kum/trajopt/internal/cost"
	"github.com/san-kum/trajopt/internal/dynamo"
	"github.com/san-kum/trajopt/internal/ilqr"
	"github.com/san-kum/trajopt/internal/sim"
)

// Experiment is a configured problem bound to its plant.
type Experiment struct {
	cfg     *config.Config
	reg     *Registry
	sys     dynamo.System
	problem *ilqr.Problem
}

// New resolves the model, applies its parameters and builds the problem.
func New(reg *Registry, cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sys, err := reg.GetModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	if len(cfg.Params) > 0 {
		cs, ok := sys.(dynamo.Configurable)
		if !ok {
			return nil, fmt.Errorf("model %s has no parameters", cfg.Model)
		}
		for name, v := range cfg.Params {
			if err := cs.SetParam(name, v); err != nil {
				return nil, fmt.Errorf("model %s: %w", cfg.Model, err)
			}
		}
	}

	nx, nu := sys.StateDim(), sys.ControlDim()
	if len(cfg.X0) != nx {
		return nil, fmt.Errorf("model %s has %d states, x0 has %d: %w", cfg.Model, nx, len(cfg.X0), dynamo.ErrDimensionMismatch)
	}

	Q, err := cfg.Weights.Q.Dense(nx)
	if err != nil {
		return nil, fmt.Errorf("q: %w", err)
	}
	R, err := cfg.Weights.R.Dense(nu)
	if err != nil {
		return nil, fmt.Errorf("r: %w", err)
	}
	Qf, err := cfg.Weights.Qf.Dense(nx)
	if err != nil {
		return nil, fmt.Errorf("qf: %w", err)
	}
	c, err := cost.New(Q, R, Qf, mat.NewVecDense(nx, append([]float64(nil), cfg.Goal...)))
	if err != nil {
		return nil, err
	}

	p := &ilqr.Problem{
		System:  sys,
		X0:      mat.NewVecDense(nx, append([]float64(nil), cfg.X0...)),
		Cost:    c,
		Dt:      cfg.Dt,
		Horizon: cfg.Horizon,
	}
	if len(cfg.InitialControl) > 0 {
		if len(cfg.InitialControl) != nu {
			return nil, fmt.Errorf("initial control has %d entries, model has %d controls: %w",
				len(cfg.InitialControl), nu, dynamo.ErrDimensionMismatch)
		}
		p.U0 = ilqr.ConstantControls(cfg.Horizon-1, cfg.InitialControl...)
	}

	return &Experiment{cfg: cfg, reg: reg, sys: sys, problem: p}, nil
}

func (e *Experiment) Config() *config.Config {
	return e.cfg
}

func (e *Experiment) System() dynamo.System {
	return e.sys
}

func (e *Experiment) Problem() *ilqr.Problem {
	return e.problem
}

// Goal is the cost's target state.
func (e *Experiment) Goal() *mat.VecDense {
	return e.problem.Cost.Goal
}

// Options converts the solver section of the config.
func (e *Experiment) Options(logger *zap.Logger, obs ilqr.Observer) ilqr.Options {
	return ilqr.Options{
		Tolerance:     e.cfg.Solver.Tolerance,
		MaxIterations: e.cfg.Solver.MaxIterations,
		MaxHalvings:   e.cfg.Solver.MaxHalvings,
		Logger:        logger,
		Observer:      obs,
	}
}

func (e *Experiment) Solve(ctx context.Context, logger *zap.Logger, obs ilqr.Observer) (*ilqr.Result, error) {
	return ilqr.Solve(ctx, e.problem, e.Options(logger, obs))
}

// VerifyConfig controls a closed-loop replay of a solve.
type VerifyConfig struct {
	Controller string
	Integrator string
	Runs       int     // replays; the first starts exactly at x0
	Perturb    float64 // std-dev of initial state noise for runs after the first
	Seed       int64
	Extra      int // steps simulated past the horizon
}

func DefaultVerifyConfig() VerifyConfig {
	return VerifyConfig{Controller: "tracker", Integrator: "rk4", Runs: 1}
}

// Verify replays res through the plant. Every run gets its own controller
// and metrics; the plant is shared and must be safe for concurrent Derive.
func (e *Experiment) Verify(ctx context.Context, res *ilqr.Result, vc VerifyConfig) ([]*sim.Result, error) {
	if vc.Runs <= 0 {
		vc.Runs = 1
	}
	if vc.Integrator == "" {
		vc.Integrator = "rk4"
	}
	if vc.Controller == "" {
		vc.Controller = "tracker"
	}

	build := func() (*sim.Simulator, error) {
		integ, err := e.reg.GetIntegrator(vc.Integrator)
		if err != nil {
			return nil, err
		}
		ctrl, err := e.reg.GetController(vc.Controller, ControllerContext{
			System: e.sys,
			Result: res,
			Goal:   e.Goal(),
			Dt:     e.cfg.Dt,
		})
		if err != nil {
			return nil, err
		}
		s := sim.NewWithIntegrator(e.sys, integ, ctrl)
		for _, m := range e.reg.DefaultMetrics(e.sys, e.Goal(), res.X, e.cfg.Dt) {
			s.AddMetric(m)
		}
		return s, nil
	}

	// Resolve names once so the ensemble never fails per run on lookup.
	if _, err := build(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(vc.Seed))
	x0s := make([]*mat.VecDense, vc.Runs)
	for i := range x0s {
		x0 := mat.VecDenseCopyOf(e.problem.X0)
		if i > 0 && vc.Perturb > 0 {
			for j := 0; j < x0.Len(); j++ {
				x0.SetVec(j, x0.AtVec(j)+vc.Perturb*rng.NormFloat64())
			}
		}
		x0s[i] = x0
	}

	cfg := sim.Config{Dt: e.cfg.Dt, Steps: e.cfg.Horizon - 1 + vc.Extra, ValidateState: true}
	ens := sim.NewEnsemble(func() *sim.Simulator {
		s, _ := build()
		return s
	})
	return ens.Run(ctx, x0s, cfg)
}
