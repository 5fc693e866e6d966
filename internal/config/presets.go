package config

import (
	"math"
	"sort"
)

var defaultSolver = SolverConfig{
	Tolerance:     DefaultTolerance,
	MaxIterations: DefaultMaxIterations,
	MaxHalvings:   DefaultMaxHalvings,
}

var Presets = map[string]map[string]*Config{
	"double_integrator": {
		"rest": {
			Model: "double_integrator", Dt: 0.1, Horizon: 50,
			X0: []float64{1, 0}, Goal: []float64{0, 0},
			Weights: WeightsConfig{Q: Diag(1), R: Diag(1), Qf: Diag(10)},
			Solver:  SolverConfig{Tolerance: 1e-6, MaxIterations: DefaultMaxIterations, MaxHalvings: DefaultMaxHalvings},
		},
		"stiff": {
			Model: "double_integrator", Dt: 0.1, Horizon: 50,
			X0: []float64{1, 0}, Goal: []float64{0, 0},
			Weights: WeightsConfig{Q: Diag(1), R: Diag(1), Qf: Diag(1000)},
			Solver:  SolverConfig{Tolerance: 1e-6, MaxIterations: DefaultMaxIterations, MaxHalvings: DefaultMaxHalvings},
		},
	},
	"pendulum": {
		"swingup": {
			Model: "pendulum", Dt: 0.05, Horizon: 100,
			X0: []float64{0, 0}, Goal: []float64{math.Pi, 0},
			Weights: WeightsConfig{Q: Diag(1), R: Diag(0.1), Qf: Diag(100)},
			Solver:  defaultSolver,
		},
		"stabilize": {
			Model: "pendulum", Dt: 0.05, Horizon: 60,
			X0: []float64{2.6, 0}, Goal: []float64{math.Pi, 0},
			Weights: WeightsConfig{Q: Diag(1), R: Diag(0.1), Qf: Diag(100)},
			Solver:  defaultSolver,
		},
	},
	"cartpole": {
		"balance": {
			Model: "cartpole", Dt: 0.05, Horizon: 80,
			X0: []float64{0, 0, 0.3, 0}, Goal: []float64{0, 0, 0, 0},
			Weights: WeightsConfig{Q: Diag(1, 0.1, 10, 0.1), R: Diag(0.1), Qf: Diag(100)},
			Solver:  defaultSolver,
		},
		"shift": {
			Model: "cartpole", Dt: 0.05, Horizon: 100,
			X0: []float64{0, 0, 0, 0}, Goal: []float64{1, 0, 0, 0},
			Weights: WeightsConfig{Q: Diag(1, 0.1, 10, 0.1), R: Diag(0.1), Qf: Diag(100)},
			Solver:  defaultSolver,
		},
	},
	"drone": {
		"hover": {
			Model: "drone", Dt: 0.05, Horizon: 60,
			X0: []float64{0, 5, 0.3, 0, 0, 0}, Goal: []float64{0, 5, 0, 0, 0, 0},
			InitialControl: []float64{4.905, 4.905},
			Weights:        WeightsConfig{Q: Diag(1), R: Diag(0.01), Qf: Diag(100)},
			Solver:         defaultSolver,
		},
		"climb": {
			Model: "drone", Dt: 0.05, Horizon: 80,
			X0: []float64{0, 5, 0, 0, 0, 0}, Goal: []float64{1, 6, 0, 0, 0, 0},
			InitialControl: []float64{4.905, 4.905},
			Weights:        WeightsConfig{Q: Diag(1), R: Diag(0.01), Qf: Diag(100)},
			Solver:         defaultSolver,
		},
	},
	"spacecraft": {
		"detumble": {
			Model: "spacecraft", Dt: 0.1, Horizon: 100,
			X0: []float64{0.5, -0.3, 0.8}, Goal: []float64{0, 0, 0},
			Weights: WeightsConfig{Q: Diag(1), R: Diag(1), Qf: Diag(100)},
			Solver:  defaultSolver,
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
