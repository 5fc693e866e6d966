package experiment

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/control"
	"github.com/san-kum/trajopt/internal/dynamo"
	"github.com/san-kum/trajopt/internal/ilqr"
	"github.com/san-kum/trajopt/internal/integrators"
	"github.com/san-kum/trajopt/internal/metrics"
	"github.com/san-kum/trajopt/internal/models"
	"github.com/san-kum/trajopt/internal/sim"
)

// ControllerContext carries what a controller factory may need to turn a
// solve into a policy.
type ControllerContext struct {
	System dynamo.System
	Result *ilqr.Result
	Goal   *mat.VecDense
	Dt     float64
}

type Registry struct {
	models      map[string]func() dynamo.System
	integrators map[string]func() sim.Integrator
	controllers map[string]func(ControllerContext) (sim.Controller, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func() dynamo.System),
		integrators: make(map[string]func() sim.Integrator),
		controllers: make(map[string]func(ControllerContext) (sim.Controller, error)),
	}

	r.models["double_integrator"] = func() dynamo.System { return models.NewDoubleIntegrator() }
	r.models["pendulum"] = func() dynamo.System { return models.NewPendulum() }
	r.models["cartpole"] = func() dynamo.System { return models.NewCartPole() }
	r.models["drone"] = func() dynamo.System { return models.NewDrone() }
	r.models["spacecraft"] = func() dynamo.System { return models.NewSpacecraft() }

	r.integrators["rk4"] = func() sim.Integrator { return integrators.NewRK4() }
	r.integrators["midpoint"] = func() sim.Integrator { return integrators.NewMidpoint() }

	r.controllers["tracker"] = func(c ControllerContext) (sim.Controller, error) {
		if c.Result == nil || len(c.Result.K) == 0 {
			return nil, fmt.Errorf("tracker needs a solve with gains")
		}
		return control.NewTracker(c.Result.X, c.Result.U, c.Result.K, c.Dt)
	}
	r.controllers["open_loop"] = func(c ControllerContext) (sim.Controller, error) {
		if c.Result == nil {
			return nil, fmt.Errorf("open loop needs a solve")
		}
		return control.NewOpenLoop(c.Result.U, c.Dt, c.System.ControlDim()), nil
	}
	r.controllers["lqr"] = func(c ControllerContext) (sim.Controller, error) {
		// Regulate about the goal with the plant linearized there at the
		// last planned control.
		u := mat.NewVecDense(c.System.ControlDim(), nil)
		if c.Result != nil && len(c.Result.U) > 0 {
			u.CopyVec(c.Result.U[len(c.Result.U)-1])
		}
		_, A, B := integrators.NewMidpoint().Step(c.System, 0, c.Goal, u, c.Dt)
		nx, nu := c.System.StateDim(), c.System.ControlDim()
		K, err := control.SteadyStateLQR(A, B, dynamo.Identity(nx), dynamo.Identity(nu), 10000, 1e-9)
		if err != nil {
			return nil, err
		}
		return &biasedLQR{LQR: control.NewLQR(K, c.Goal), bias: u}, nil
	}

	return r
}

// biasedLQR adds the equilibrium control to an LQR correction.
type biasedLQR struct {
	*control.LQR
	bias *mat.VecDense
}

func (b *biasedLQR) Compute(x *mat.VecDense, t float64) *mat.VecDense {
	u := b.LQR.Compute(x, t)
	u.AddVec(u, b.bias)
	return u
}

func (r *Registry) GetModel(name string) (dynamo.System, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (sim.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetController(name string, c ControllerContext) (sim.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(c)
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListControllers() []string {
	return sortedKeys(r.controllers)
}

// DefaultMetrics returns the rollout metrics reported by verify. ref may be
// nil when there is no planned trajectory to compare against.
func (r *Registry) DefaultMetrics(sys dynamo.System, goal *mat.VecDense, ref []*mat.VecDense, dt float64) []sim.Metric {
	ms := []sim.Metric{
		metrics.NewControlEffort(nil),
		metrics.NewStability(goal, 0.1),
		metrics.NewTerminalError(goal),
	}
	if ref != nil {
		ms = append(ms, metrics.NewTrackingError(ref, dt))
	}
	if ec, ok := sys.(sim.EnergyComputer); ok {
		ms = append(ms, metrics.NewEnergy(ec))
	}
	return ms
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
