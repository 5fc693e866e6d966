package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/trajopt/internal/config"
	"github.com/san-kum/trajopt/internal/experiment"
	"github.com/san-kum/trajopt/internal/ilqr"
	"github.com/san-kum/trajopt/internal/metrics"
	"github.com/san-kum/trajopt/internal/storage"
	"github.com/san-kum/trajopt/internal/viz"
)

// resolveConfig picks the base problem (config file, named preset, or the
// model's default preset) and applies flags the user set explicitly.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
		if len(args) > 0 {
			cfg.Model = args[0]
		}
	default:
		model := config.DefaultModel
		if len(args) > 0 {
			model = args[0]
		}
		name := preset
		if name == "" && model == config.DefaultModel {
			cfg = config.DefaultConfig()
			break
		}
		if name == "" {
			names := config.ListPresets(model)
			if len(names) == 0 {
				return nil, fmt.Errorf("unknown model: %s (try --config)", model)
			}
			name = names[0]
		}
		cfg = config.GetPreset(model, name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets(model))
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("horizon") {
		cfg.Horizon = horizon
	}
	if flags.Changed("x0") {
		cfg.X0 = x0
	}
	if flags.Changed("goal") {
		cfg.Goal = goal
	}
	if flags.Changed("u0") {
		cfg.InitialControl = u0
	}
	if flags.Changed("tol") {
		cfg.Solver.Tolerance = tolerance
	}
	if flags.Changed("max-iter") {
		cfg.Solver.MaxIterations = maxIter
	}
	if flags.Changed("max-halvings") {
		cfg.Solver.MaxHalvings = maxHalvings
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(experiment.NewRegistry(), cfg)
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	collector := metrics.NewSolverCollector(reg)

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("solving %s (horizon %d, dt %g)...\n", cfg.Model, cfg.Horizon, cfg.Dt)
	res, solveErr := exp.Solve(ctx, logger, collector)
	collector.ObserveResult(res)

	fmt.Println(viz.Summary(cfg.Model, res, viz.GetTheme(theme)))
	fmt.Println(viz.CostChart(res.CostHistory, 60, 8))

	if err := saveRun(cfg, res, logger); err != nil {
		return err
	}
	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
			return err
		}
	}
	return solveErr
}

func saveRun(cfg *config.Config, res *ilqr.Result, logger *zap.Logger) error {
	if noSave || len(res.X) == 0 {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, res)
	if err != nil {
		return err
	}
	logger.Info("run saved", zap.String("id", runID), zap.String("dir", dataDir))
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	exp, err := experiment.New(experiment.NewRegistry(), cfg)
	if err != nil {
		return err
	}

	// The live view owns the terminal; only errors are logged.
	logger := zap.NewNop()
	ctx, cancel := signalContext()
	defer cancel()

	reg := prometheus.NewRegistry()
	collector := metrics.NewSolverCollector(reg)

	limit := cfg.Solver.MaxIterations
	if limit <= 0 {
		limit = ilqr.DefaultMaxIterations
	}
	res, err := viz.RunWatch(ctx, cfg.Model, limit, func(ctx context.Context, obs ilqr.Observer) *ilqr.Result {
		res, _ := exp.Solve(ctx, logger, ilqr.Observers(obs, collector))
		return res
	})
	if err != nil {
		return err
	}
	collector.ObserveResult(res)
	if err := saveRun(cfg, res, logger); err != nil {
		return err
	}
	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
			return err
		}
	}
	return res.Err
}

func runBench(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	reg := experiment.NewRegistry()
	problems := make([]*ilqr.Problem, len(horizons))
	for i, n := range horizons {
		cfg := base.Clone()
		cfg.Horizon = n
		exp, err := experiment.New(reg, cfg)
		if err != nil {
			return err
		}
		problems[i] = exp.Problem()
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	promReg := prometheus.NewRegistry()
	collector := metrics.NewSolverCollector(promReg)

	opts := ilqr.Options{
		Tolerance:     base.Solver.Tolerance,
		MaxIterations: base.Solver.MaxIterations,
		MaxHalvings:   base.Solver.MaxHalvings,
		Logger:        logger,
		Observer:      collector,
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("benchmarking %s\n\n", base.Model)
	n := workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	results, batchErr := ilqr.SolveBatch(ctx, problems, opts, n)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HORIZON\tSTATUS\tITER\tTIME\tITER/SEC\tCOST")
	for i, res := range results {
		if res == nil {
			continue
		}
		collector.ObserveResult(res)
		rate := 0.0
		if s := res.Elapsed.Seconds(); s > 0 {
			rate = float64(res.Iterations) / s
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%v\t%.0f\t%.6g\n",
			horizons[i], res.Status, res.Iterations, res.Elapsed, rate, res.FinalCost())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	// Per-problem failures are reported in the table.
	if errors.Is(batchErr, context.Canceled) {
		return batchErr
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	models := make([]string, 0, len(config.Presets))
	if len(args) > 0 {
		models = append(models, args[0])
	} else {
		for m := range config.Presets {
			models = append(models, m)
		}
		sort.Strings(models)
	}

	for _, m := range models {
		names := config.ListPresets(m)
		if len(names) == 0 {
			fmt.Printf("no presets for model: %s\n", m)
			continue
		}
		fmt.Printf("presets for %s:\n", m)
		for _, p := range names {
			fmt.Printf("  %s\n", p)
		}
	}
	return nil
}
