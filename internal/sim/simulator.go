package sim

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/dynamo"
	"github.com/san-kum/trajopt/internal/integrators"
)

// Simulator replays a controller through a plant with a fixed step.
type Simulator struct {
	sys        dynamo.System
	integrator Integrator
	controller Controller
	metrics    []Metric
	observers  []Observer
}

// New returns a simulator stepping with classical RK4.
func New(sys dynamo.System, controller Controller) *Simulator {
	return NewWithIntegrator(sys, integrators.NewRK4(), controller)
}

func NewWithIntegrator(sys dynamo.System, integrator Integrator, controller Controller) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		controller: controller,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Run(ctx context.Context, x0 *mat.VecDense, cfg Config) (*Result, error) {
	if err := s.validateConfig(x0, cfg); err != nil {
		return nil, err
	}

	result := &Result{
		States:   make([]*mat.VecDense, 0, cfg.Steps+1),
		Controls: make([]*mat.VecDense, 0, cfg.Steps),
		Times:    make([]float64, 0, cfg.Steps+1),
		Metrics:  make(map[string]float64),
		Errors:   make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := mat.VecDenseCopyOf(x0)
	t := 0.0

	result.States = append(result.States, mat.VecDenseCopyOf(x))
	result.Times = append(result.Times, t)

	initialEnergy := s.computeEnergy(x)

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		u := s.controller.Compute(x, t)

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		next := s.integrator.Propagate(s.sys, t, x, u, cfg.Dt)

		if cfg.ValidateState && !dynamo.IsFinite(next) {
			err := SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)"}
			result.Errors = append(result.Errors, err)
			break
		}

		x = next
		t = float64(i+1) * cfg.Dt
		result.StepsTaken++

		result.States = append(result.States, mat.VecDenseCopyOf(x))
		result.Controls = append(result.Controls, mat.VecDenseCopyOf(u))
		result.Times = append(result.Times, t)
	}

	for _, m := range s.metrics {
		if f, ok := m.(FinalObserver); ok {
			f.ObserveFinal(x, t)
		}
	}

	finalEnergy := s.computeEnergy(x)
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) validateConfig(x0 *mat.VecDense, cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", cfg.Steps)
	}
	if x0 == nil || x0.Len() != s.sys.StateDim() {
		return fmt.Errorf("initial state: %w", dynamo.ErrDimensionMismatch)
	}
	return nil
}

func (s *Simulator) computeEnergy(x *mat.VecDense) float64 {
	if ec, ok := s.sys.(EnergyComputer); ok {
		return ec.Energy(x)
	}
	return 0
}
