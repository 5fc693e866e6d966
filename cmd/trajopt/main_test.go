package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/trajopt/internal/config"
)

func problemCmd(t *testing.T) *cobra.Command {
	t.Helper()
	configFile, preset = "", ""
	cmd := &cobra.Command{Use: "test"}
	addProblemFlags(cmd)
	return cmd
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := resolveConfig(problemCmd(t), nil)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.Model != config.DefaultModel || cfg.Horizon != config.DefaultHorizon {
		t.Errorf("expected default problem, got %s/%d", cfg.Model, cfg.Horizon)
	}

	// unset flags keep preset values
	cfg, err = resolveConfig(problemCmd(t), []string{"spacecraft"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.Dt != 0.1 || len(cfg.X0) != 3 {
		t.Errorf("expected spacecraft preset, got dt=%f x0=%v", cfg.Dt, cfg.X0)
	}
}

func TestResolveConfigFlagsOverride(t *testing.T) {
	cmd := problemCmd(t)
	for name, val := range map[string]string{
		"preset":  "rest",
		"horizon": "20",
		"x0":      "2,0",
		"tol":     "1e-4",
	} {
		if err := cmd.Flags().Set(name, val); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}

	cfg, err := resolveConfig(cmd, []string{"double_integrator"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.Horizon != 20 {
		t.Errorf("expected horizon 20, got %d", cfg.Horizon)
	}
	if cfg.X0[0] != 2 {
		t.Errorf("expected x0[0]=2, got %v", cfg.X0)
	}
	if cfg.Solver.Tolerance != 1e-4 {
		t.Errorf("expected tolerance 1e-4, got %g", cfg.Solver.Tolerance)
	}
	if cfg.Dt != 0.1 {
		t.Errorf("dt should come from the preset, got %f", cfg.Dt)
	}
}

func TestResolveConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problem.yaml")
	if err := config.Save(path, config.GetPreset("cartpole", "balance")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	cmd := problemCmd(t)
	if err := cmd.Flags().Set("config", path); err != nil {
		t.Fatal(err)
	}
	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.Model != "cartpole" || cfg.Horizon != 80 {
		t.Errorf("unexpected config %s/%d", cfg.Model, cfg.Horizon)
	}
}

func TestResolveConfigErrors(t *testing.T) {
	if _, err := resolveConfig(problemCmd(t), []string{"unicycle"}); err == nil {
		t.Error("expected unknown model error")
	}

	cmd := problemCmd(t)
	if err := cmd.Flags().Set("preset", "nope"); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveConfig(cmd, []string{"pendulum"}); err == nil {
		t.Error("expected unknown preset error")
	}

	cmd = problemCmd(t)
	if err := cmd.Flags().Set("config", filepath.Join(os.TempDir(), "does-not-exist.yaml")); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveConfig(cmd, nil); err == nil {
		t.Error("expected load error")
	}
}
