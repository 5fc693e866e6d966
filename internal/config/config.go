package config

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel         = "pendulum"
	DefaultDt            = 0.05
	DefaultHorizon       = 100
	DefaultTolerance     = 1e-3
	DefaultMaxIterations = 1000
	DefaultMaxHalvings   = 30
)

// Config describes one trajectory optimization problem.
type Config struct {
	Model          string             `yaml:"model"`
	Dt             float64            `yaml:"dt"`
	Horizon        int                `yaml:"horizon"`
	X0             []float64          `yaml:"x0"`
	Goal           []float64          `yaml:"goal"`
	InitialControl []float64          `yaml:"initial_control,omitempty"`
	Weights        WeightsConfig      `yaml:"weights"`
	Solver         SolverConfig       `yaml:"solver"`
	Params         map[string]float64 `yaml:"params,omitempty"`
}

type WeightsConfig struct {
	Q  Matrix `yaml:"q"`
	R  Matrix `yaml:"r"`
	Qf Matrix `yaml:"qf"`
}

type SolverConfig struct {
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
	MaxHalvings   int     `yaml:"max_halvings"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:   DefaultModel,
		Dt:      DefaultDt,
		Horizon: DefaultHorizon,
		X0:      []float64{0, 0},
		Goal:    []float64{math.Pi, 0},
		Weights: WeightsConfig{
			Q:  Diag(1, 1),
			R:  Diag(0.1),
			Qf: Diag(100, 100),
		},
		Solver: SolverConfig{
			Tolerance:     DefaultTolerance,
			MaxIterations: DefaultMaxIterations,
			MaxHalvings:   DefaultMaxHalvings,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, so presets can be modified safely.
func (c *Config) Clone() *Config {
	cp := *c
	cp.X0 = append([]float64(nil), c.X0...)
	cp.Goal = append([]float64(nil), c.Goal...)
	cp.InitialControl = append([]float64(nil), c.InitialControl...)
	cp.Weights = WeightsConfig{Q: c.Weights.Q.clone(), R: c.Weights.R.clone(), Qf: c.Weights.Qf.clone()}
	if c.Params != nil {
		cp.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			cp.Params[k] = v
		}
	}
	return &cp
}

// Validate checks the parts of a config that do not depend on the model.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Horizon < 2 {
		return fmt.Errorf("horizon must be at least 2, got %d", c.Horizon)
	}
	if len(c.X0) == 0 {
		return fmt.Errorf("x0 is required")
	}
	if len(c.Goal) != len(c.X0) {
		return fmt.Errorf("goal has %d entries, x0 has %d", len(c.Goal), len(c.X0))
	}
	if c.Solver.Tolerance < 0 {
		return fmt.Errorf("tolerance must not be negative, got %g", c.Solver.Tolerance)
	}
	return nil
}

// Duration is the time spanned by the horizon.
func (c *Config) Duration() float64 {
	return float64(c.Horizon-1) * c.Dt
}

// Matrix is a square weight matrix written either as its diagonal
// ([1, 2]) or as rows ([[1, 0], [0, 2]]). A one-element diagonal is
// broadcast to every dimension.
type Matrix struct {
	Diag []float64
	Rows [][]float64
}

func Diag(d ...float64) Matrix {
	return Matrix{Diag: d}
}

func (m *Matrix) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		*m = Matrix{Diag: []float64{v}}
		return nil
	case yaml.SequenceNode:
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			var rows [][]float64
			if err := node.Decode(&rows); err != nil {
				return err
			}
			*m = Matrix{Rows: rows}
			return nil
		}
		var diag []float64
		if err := node.Decode(&diag); err != nil {
			return err
		}
		*m = Matrix{Diag: diag}
		return nil
	default:
		return fmt.Errorf("line %d: weight must be a number, a list or a list of rows", node.Line)
	}
}

func (m Matrix) MarshalYAML() (interface{}, error) {
	if m.Rows != nil {
		return m.Rows, nil
	}
	return m.Diag, nil
}

func (m Matrix) IsZero() bool {
	return len(m.Diag) == 0 && len(m.Rows) == 0
}

// Dense expands m into an n×n matrix.
func (m Matrix) Dense(n int) (*mat.Dense, error) {
	switch {
	case m.Rows != nil:
		if len(m.Rows) != n {
			return nil, fmt.Errorf("weight has %d rows, want %d", len(m.Rows), n)
		}
		out := mat.NewDense(n, n, nil)
		for i, row := range m.Rows {
			if len(row) != n {
				return nil, fmt.Errorf("weight row %d has %d entries, want %d", i, len(row), n)
			}
			out.SetRow(i, row)
		}
		return out, nil
	case len(m.Diag) == 1:
		out := mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			out.Set(i, i, m.Diag[0])
		}
		return out, nil
	case len(m.Diag) == n:
		out := mat.NewDense(n, n, nil)
		for i, v := range m.Diag {
			out.Set(i, i, v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("weight diagonal has %d entries, want %d", len(m.Diag), n)
	}
}

func (m Matrix) clone() Matrix {
	cp := Matrix{Diag: append([]float64(nil), m.Diag...)}
	if m.Rows != nil {
		cp.Rows = make([][]float64, len(m.Rows))
		for i, r := range m.Rows {
			cp.Rows[i] = append([]float64(nil), r...)
		}
	}
	return cp
}

// Scaled returns a copy of m with every entry multiplied by f.
func (m Matrix) Scaled(f float64) Matrix {
	cp := m.clone()
	for i := range cp.Diag {
		cp.Diag[i] *= f
	}
	for _, row := range cp.Rows {
		for j := range row {
			row[j] *= f
		}
	}
	return cp
}
