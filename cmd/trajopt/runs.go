package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/experiment"
	"github.com/san-kum/trajopt/internal/export"
	"github.com/san-kum/trajopt/internal/ilqr"
	"github.com/san-kum/trajopt/internal/sim"
	"github.com/san-kum/trajopt/internal/storage"
	"github.com/san-kum/trajopt/internal/viz"
)

// openRun resolves a possibly abbreviated run id.
func openRun(prefix string) (*storage.Store, string, error) {
	st := storage.New(dataDir)
	id, err := st.Resolve(prefix)
	if err != nil {
		return nil, "", err
	}
	return st, id, nil
}

// loadResult rebuilds the parts of a solve result that a run stores.
func loadResult(st *storage.Store, id string) (*storage.RunMetadata, *storage.Trajectory, *ilqr.Result, error) {
	meta, err := st.Load(id)
	if err != nil {
		return nil, nil, nil, err
	}
	tr, err := st.LoadTrajectory(id)
	if err != nil {
		return nil, nil, nil, err
	}
	hist, err := st.LoadCostHistory(id)
	if err != nil {
		return nil, nil, nil, err
	}
	ks, ls, err := st.LoadGains(id)
	if err != nil {
		return nil, nil, nil, err
	}
	status, ok := ilqr.ParseStatus(meta.Status)
	if !ok {
		return nil, nil, nil, fmt.Errorf("run %s: unknown status %q", id, meta.Status)
	}

	res := &ilqr.Result{
		X:           tr.States,
		U:           tr.Controls,
		K:           ks,
		L:           ls,
		CostHistory: hist,
		Iterations:  meta.Iterations,
		Elapsed:     time.Duration(meta.ElapsedMS * float64(time.Millisecond)),
		Success:     status == ilqr.StatusConverged,
		Status:      status,
	}
	if meta.Error != "" {
		res.Err = fmt.Errorf("%s", meta.Error)
	}
	return meta, tr, res, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tHORIZON\tDT\tSTATUS\tITER\tCOST")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%s\t%d\t%.6g\n",
			run.ID[:8],
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Horizon,
			run.Dt,
			run.Status,
			run.Iterations,
			run.FinalCost,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st, id, err := openRun(args[0])
	if err != nil {
		return err
	}
	meta, _, res, err := loadResult(st, id)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("saved: %s\n\n", meta.Timestamp.Format(time.RFC3339))
	fmt.Println(viz.Summary(meta.Model, res, viz.GetTheme(theme)))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, id, err := openRun(args[0])
	if err != nil {
		return err
	}
	meta, tr, res, err := loadResult(st, id)
	if err != nil {
		return err
	}
	if len(tr.States) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(tr.States))

	idx := make([]int, 0, meta.StateDim)
	for i := 0; i < meta.StateDim && i < 6; i++ {
		idx = append(idx, i)
	}
	fmt.Println(viz.StateChart(tr.States, idx, 80, 12))
	fmt.Println()
	fmt.Println(viz.CostChart(res.CostHistory, 80, 8))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, id, err := openRun(args[0])
	if err != nil {
		return err
	}
	return st.ExportCSV(os.Stdout, id)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, id, err := openRun(args[0])
	if err != nil {
		return err
	}
	return st.ExportJSON(os.Stdout, id)
}

func exportPlot(cmd *cobra.Command, args []string) error {
	format = strings.TrimPrefix(strings.ToLower(format), ".")
	switch format {
	case "png", "svg", "pdf":
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	st, id, err := openRun(args[0])
	if err != nil {
		return err
	}
	_, tr, res, err := loadResult(st, id)
	if err != nil {
		return err
	}

	prefix := filepath.Join(outDir, id[:8])
	files := []string{
		prefix + "_cost." + format,
		prefix + "_states." + format,
	}
	if err := export.PlotCostHistory(files[0], res.CostHistory); err != nil {
		return err
	}
	if err := export.PlotStates(files[1], tr.Times, tr.States); err != nil {
		return err
	}
	if len(tr.States) > 0 && tr.States[0].Len() > 1 {
		phase := prefix + "_phase." + format
		if err := export.PlotPhase(phase, tr.States, xAxis, yAxis); err != nil {
			return err
		}
		files = append(files, phase)
	}

	for _, f := range files {
		fmt.Println(f)
	}
	return nil
}

func verifyRun(cmd *cobra.Command, args []string) error {
	st, id, err := openRun(args[0])
	if err != nil {
		return err
	}
	cfg, err := st.LoadConfig(id)
	if err != nil {
		return err
	}
	_, _, res, err := loadResult(st, id)
	if err != nil {
		return err
	}

	exp, err := experiment.New(experiment.NewRegistry(), cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	replays, err := exp.Verify(ctx, res, experiment.VerifyConfig{
		Controller: controller,
		Integrator: integrator,
		Runs:       runs,
		Perturb:    perturb,
		Seed:       seed,
		Extra:      extraSteps,
	})
	if err != nil {
		return err
	}
	return printReplays(replays, controller, integrator)
}

func printReplays(replays []*sim.Result, ctrl, integ string) error {
	fmt.Printf("closed-loop replay (%s, %s)\n\n", ctrl, integ)

	names := make([]string, 0)
	if len(replays) > 0 {
		for name := range replays[0].Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "RUN\tSTEPS\tFINAL STATE")
	for _, n := range names {
		fmt.Fprintf(w, "\t%s", strings.ToUpper(n))
	}
	fmt.Fprintln(w)

	for i, r := range replays {
		fmt.Fprintf(w, "%d\t%d\t%v", i, r.StepsTaken, formatState(r.FinalState()))
		for _, n := range names {
			fmt.Fprintf(w, "\t%.6g", r.Metrics[n])
		}
		fmt.Fprintln(w)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "\t\terror: %v\n", e)
		}
	}
	return w.Flush()
}

func formatState(x *mat.VecDense) string {
	if x == nil {
		return "-"
	}
	parts := make([]string, x.Len())
	for i := range parts {
		parts[i] = fmt.Sprintf("%.4f", x.AtVec(i))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
