package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	dataDir string
	verbose bool
	theme   string

	// problem overrides
	configFile  string
	preset      string
	dt          float64
	horizon     int
	x0          []float64
	goal        []float64
	u0          []float64
	tolerance   float64
	maxIter     int
	maxHalvings int

	noSave      bool
	metricsFile string

	// verify
	controller string
	integrator string
	runs       int
	perturb    float64
	seed       int64
	extraSteps int

	// export-plot
	outDir string
	format string
	xAxis  int
	yAxis  int

	// bench
	horizons []int
	workers  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "trajopt",
		Short:         "iLQR trajectory optimization lab",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".trajopt", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every solver iteration")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "neon", "color theme")

	solveCmd := &cobra.Command{
		Use:   "solve [model]",
		Short: "optimize a trajectory and save the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSolve,
	}
	addProblemFlags(solveCmd)
	solveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	solveCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this file")

	watchCmd := &cobra.Command{
		Use:   "watch [model]",
		Short: "optimize with a live view of the iterations",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWatch,
	}
	addProblemFlags(watchCmd)
	watchCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	watchCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this file")

	benchCmd := &cobra.Command{
		Use:   "bench [model]",
		Short: "time solves across horizons",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBench,
	}
	addProblemFlags(benchCmd)
	benchCmd.Flags().IntSliceVar(&horizons, "horizons", []int{25, 50, 100, 200}, "horizons to solve")
	benchCmd.Flags().IntVar(&workers, "workers", 0, "concurrent solves (0 = one per CPU)")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "summarize a run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run trajectory and cost in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trajectory to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportPlotCmd := &cobra.Command{
		Use:   "export-plot [run_id]",
		Short: "render run charts to image files",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPlot,
	}
	exportPlotCmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	exportPlotCmd.Flags().StringVar(&format, "format", "png", "png, svg or pdf")
	exportPlotCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for the phase plot x-axis")
	exportPlotCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for the phase plot y-axis")

	verifyCmd := &cobra.Command{
		Use:   "verify [run_id]",
		Short: "replay a run in closed loop",
		Args:  cobra.ExactArgs(1),
		RunE:  verifyRun,
	}
	verifyCmd.Flags().StringVar(&controller, "controller", "tracker", "tracker, open_loop or lqr")
	verifyCmd.Flags().StringVar(&integrator, "integrator", "rk4", "rk4 or midpoint")
	verifyCmd.Flags().IntVar(&runs, "runs", 1, "number of replays")
	verifyCmd.Flags().Float64Var(&perturb, "perturb", 0, "std-dev of initial state noise for extra replays")
	verifyCmd.Flags().Int64Var(&seed, "seed", 1, "random seed for perturbations")
	verifyCmd.Flags().IntVar(&extraSteps, "extra", 0, "steps simulated past the horizon")

	rootCmd.AddCommand(solveCmd, watchCmd, benchCmd, presetsCmd, listCmd, showCmd, plotCmd,
		exportCSVCmd, exportJSONCmd, exportPlotCmd, verifyCmd)
	rootCmd.AddCommand(batchCommands()...)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addProblemFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "problem file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", 0.05, "timestep")
	cmd.Flags().IntVar(&horizon, "horizon", 100, "number of state samples")
	cmd.Flags().Float64SliceVar(&x0, "x0", nil, "initial state")
	cmd.Flags().Float64SliceVar(&goal, "goal", nil, "goal state")
	cmd.Flags().Float64SliceVar(&u0, "u0", nil, "constant initial control guess")
	cmd.Flags().Float64Var(&tolerance, "tol", 1e-3, "convergence tolerance on the feedforward norm")
	cmd.Flags().IntVar(&maxIter, "max-iter", 1000, "outer iteration cap")
	cmd.Flags().IntVar(&maxHalvings, "max-halvings", 30, "line search halvings per iteration")
}

// newLogger returns a production logger at warn level, or a development
// logger with per-iteration debug output when verbose.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
