package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/trajopt/internal/automation"
	"github.com/san-kum/trajopt/internal/experiment"
	"github.com/san-kum/trajopt/internal/ilqr"
	"github.com/san-kum/trajopt/internal/optim"
)

var (
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	qScales  []float64
	rScales  []float64
	qfScales []float64
)

func batchCommands() []*cobra.Command {
	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "solve every problem in a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "solve across values of one model parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addProblemFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "mass", "model parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.5, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 2, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent solves (0 = unbounded)")

	tuneCmd := &cobra.Command{
		Use:   "tune [model]",
		Short: "grid search cost weight scales by closed-loop terminal error",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	addProblemFlags(tuneCmd)
	tuneCmd.Flags().Float64SliceVar(&qScales, "q-scale", []float64{1}, "factors applied to Q")
	tuneCmd.Flags().Float64SliceVar(&rScales, "r-scale", []float64{0.1, 1, 10}, "factors applied to R")
	tuneCmd.Flags().Float64SliceVar(&qfScales, "qf-scale", []float64{1, 10, 100}, "factors applied to Qf")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "concurrent trials (0 = unbounded)")

	return []*cobra.Command{scenarioCmd, sweepCmd, tuneCmd}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario %s: %d problems\n\n", sc.Name, len(sc.Steps))
	opts := ilqr.DefaultOptions()
	opts.Logger = logger
	out, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), opts)
	if err != nil && out == nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tMODEL\tSTATUS\tITER\tCOST")
	for _, s := range out {
		if s.Result == nil {
			fmt.Fprintf(w, "%s\t%s\t-\t-\t-\n", s.Name, s.Config.Model)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.6g\n", s.Name, s.Config.Model, s.Result.Status, s.Result.Iterations, s.Result.FinalCost())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, s := range out {
		if s.Result == nil {
			continue
		}
		if err := saveRun(s.Config, s.Result, logger); err != nil {
			return err
		}
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	opts := ilqr.Options{
		Tolerance:     base.Solver.Tolerance,
		MaxIterations: base.Solver.MaxIterations,
		MaxHalvings:   base.Solver.MaxHalvings,
	}
	out, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      base,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
		Workers:   workers,
	}, experiment.NewRegistry(), opts)
	if err != nil && out == nil {
		return err
	}

	fmt.Printf("sweep %s on %s\n\n", sweepParam, base.Model)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTATUS\tITER\tCOST\tGOAL ERR\n", strings.ToUpper(sweepParam))
	for _, r := range out {
		fmt.Fprintf(w, "%.4g\t%s\t%d\t%.6g\t%.3e\n", r.ParamValue, r.Status, r.Iterations, r.FinalCost, r.GoalError)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func runTune(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	grid, err := optim.NewGridSearch(
		[]string{optim.ScaleQ, optim.ScaleR, optim.ScaleQf},
		[][]float64{qScales, rScales, qfScales},
	)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("tuning %s over %d weight combinations...\n\n", base.Model, grid.Size())
	obj := optim.WeightObjective(experiment.NewRegistry(), base, experiment.DefaultVerifyConfig())
	best, trials, err := grid.Search(ctx, obj, workers)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Q\tR\tQF\tTERMINAL ERR\tNOTE")
	for _, t := range trials {
		note := ""
		if t.Err != nil {
			note = t.Err.Error()
		}
		fmt.Fprintf(w, "%g\t%g\t%g\t%.3e\t%s\n", t.Params[optim.ScaleQ], t.Params[optim.ScaleR], t.Params[optim.ScaleQf], t.Score, note)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest: q×%g r×%g qf×%g (terminal error %.3e)\n",
		best.Params[optim.ScaleQ], best.Params[optim.ScaleR], best.Params[optim.ScaleQf], best.Score)
	return nil
}
