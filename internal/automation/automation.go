// Package automation runs scripted batches of solves: YAML scenarios and
// sweeps over one model parameter.
package automation

import (
	"context"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/trajopt/internal/config"
	"github.com/san-kum/trajopt/internal/experiment"
	"github.com/san-kum/trajopt/internal/ilqr"
)

// Scenario is a named list of problems solved together.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Workers     int            `yaml:"workers"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or the model's default problem) and
// applies the listed overrides.
type ScenarioStep struct {
	Model   string             `yaml:"model"`
	Preset  string             `yaml:"preset"`
	Dt      float64            `yaml:"dt"`
	Horizon int                `yaml:"horizon"`
	X0      []float64          `yaml:"x0"`
	Goal    []float64          `yaml:"goal"`
	Params  map[string]float64 `yaml:"params"`
	SaveAs  string             `yaml:"save_as"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Config resolves the step into a full problem description.
func (s ScenarioStep) Config() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Preset != "":
		cfg = config.GetPreset(s.Model, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %s/%s", s.Model, s.Preset)
		}
	case s.Model == config.DefaultModel:
		cfg = config.DefaultConfig()
	default:
		names := config.ListPresets(s.Model)
		if len(names) == 0 {
			return nil, fmt.Errorf("model %s has no presets; name one explicitly", s.Model)
		}
		cfg = config.GetPreset(s.Model, names[0])
	}

	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Horizon > 0 {
		cfg.Horizon = s.Horizon
	}
	if len(s.X0) > 0 {
		cfg.X0 = append([]float64(nil), s.X0...)
	}
	if len(s.Goal) > 0 {
		cfg.Goal = append([]float64(nil), s.Goal...)
	}
	if len(s.Params) > 0 {
		cfg.Params = make(map[string]float64, len(s.Params))
		for k, v := range s.Params {
			cfg.Params[k] = v
		}
	}
	return cfg, nil
}

// StepResult pairs a solve with the config that produced it.
type StepResult struct {
	Name   string
	Config *config.Config
	Result *ilqr.Result
}

// RunScenario solves every step concurrently with the same solver options.
// Steps that fail to build abort the scenario; solver failures are reported
// per step.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, opts ilqr.Options) ([]StepResult, error) {
	out := make([]StepResult, len(scenario.Steps))
	problems := make([]*ilqr.Problem, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Config()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp, err := experiment.New(registry, cfg)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		name := step.SaveAs
		if name == "" {
			name = fmt.Sprintf("%s-%d", step.Model, i+1)
		}
		out[i] = StepResult{Name: name, Config: cfg}
		problems[i] = exp.Problem()
	}

	results, err := solveAll(ctx, problems, opts, scenario.Workers)
	for i := range out {
		out[i].Result = results[i]
	}
	return out, err
}

// ParameterSweep solves one problem for evenly spaced values of a model
// parameter.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Workers   int
}

type SweepResult struct {
	ParamValue float64
	Status     ilqr.Status
	Iterations int
	FinalCost  float64
	GoalError  float64
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, opts ilqr.Options) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}
	if sweep.Base == nil {
		return nil, fmt.Errorf("sweep has no base problem")
	}

	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	values := make([]float64, sweep.NumSteps)
	exps := make([]*experiment.Experiment, sweep.NumSteps)
	problems := make([]*ilqr.Problem, sweep.NumSteps)

	for i := range values {
		values[i] = sweep.ParamMin + float64(i)*paramStep
		cfg := sweep.Base.Clone()
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		cfg.Params[sweep.ParamName] = values[i]

		exp, err := experiment.New(registry, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, values[i], err)
		}
		exps[i] = exp
		problems[i] = exp.Problem()
	}

	results, err := solveAll(ctx, problems, opts, sweep.Workers)

	out := make([]SweepResult, len(values))
	for i, res := range results {
		out[i] = SweepResult{ParamValue: values[i], GoalError: math.NaN(), FinalCost: math.NaN()}
		if res == nil {
			continue
		}
		out[i].Status = res.Status
		out[i].Iterations = res.Iterations
		out[i].FinalCost = res.FinalCost()
		if x := res.FinalState(); x != nil {
			out[i].GoalError = floats.Distance(x.RawVector().Data, exps[i].Goal().RawVector().Data, 2)
		}
	}
	return out, err
}

// solveAll keeps every result even when some solves fail; only
// cancellation is returned as an error.
func solveAll(ctx context.Context, problems []*ilqr.Problem, opts ilqr.Options, workers int) ([]*ilqr.Result, error) {
	results, _ := ilqr.SolveBatch(ctx, problems, opts, workers)
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}
