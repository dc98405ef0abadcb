package main

import (
	"context"
	"fmt"
	"maps"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbsim/internal/analysis"
	"github.com/san-kum/orbsim/internal/automation"
	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/experiment"
	"github.com/san-kum/orbsim/internal/export"
	"github.com/san-kum/orbsim/internal/sim"
	"github.com/san-kum/orbsim/internal/storage"
	"github.com/san-kum/orbsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	configFile  string
	dt          float64
	duration    float64
	seed        uint64
	integrator  string
	megnoOn     bool
	delta       float64
	recordEvery int
	jsonOut     bool
	noSave      bool
	// scan
	scanBody int
	scanFrom float64
	scanTo   float64
	scanN    int
	workers  int
	// orbit, montecarlo
	outFile string
	braille bool
	trials  int
	perturb float64
)

const defaultPreset = "sun_jupiter_saturn"

func main() {
	rootCmd := &cobra.Command{
		Use:          "orbsim",
		Short:        "symplectic n-body integrator with MEGNO chaos indicator",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".orbsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "write the run as JSON to stdout")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "MEGNO slope and orbital frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "measure step throughput",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchPreset,
	}
	addSimFlags(benchCmd)

	compareCmd := &cobra.Command{
		Use:   "compare [preset] [integrator1] [integrator2] ...",
		Short: "compare integrators on the same system",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().Float64Var(&dt, "dt", 0, "timestep")
	compareCmd.Flags().Float64Var(&duration, "time", 0, "duration")

	scanCmd := &cobra.Command{
		Use:   "scan [preset]",
		Short: "MEGNO map over the semi-major axis of one body",
		Args:  cobra.ExactArgs(1),
		RunE:  scanPreset,
	}
	addSimFlags(scanCmd)
	scanCmd.Flags().IntVar(&scanBody, "body", 2, "index of the body to move")
	scanCmd.Flags().Float64Var(&scanFrom, "from", 0, "first semi-major axis")
	scanCmd.Flags().Float64Var(&scanTo, "to", 0, "last semi-major axis")
	scanCmd.Flags().IntVar(&scanN, "n", 20, "number of points")
	scanCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 = all cpus)")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBODIES\tDT\tDURATION\tMEGNO")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%t\n", name, len(p.Bodies), p.Dt, p.Duration, p.Megno.Enabled)
			}
			return w.Flush()
		},
	}

	orbitCmd := &cobra.Command{
		Use:   "orbit [preset]",
		Short: "draw body paths in the xy plane",
		Args:  cobra.MaximumNArgs(1),
		RunE:  drawOrbits,
	}
	addSimFlags(orbitCmd)
	orbitCmd.Flags().StringVar(&outFile, "out", "", "write svg to file instead of the terminal")
	orbitCmd.Flags().BoolVar(&braille, "braille", false, "render the svg from the braille canvas")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [preset]",
		Short: "MEGNO over randomly perturbed orbital elements",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addSimFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 32, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturb", 1e-3, "element perturbation")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 = all cpus)")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, analyzeCmd, benchCmd, compareCmd, scanCmd, liveCmd, presetsCmd, orbitCmd, scenarioCmd, monteCarloCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "shadow particle seed")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	cmd.Flags().BoolVar(&megnoOn, "megno", false, "track MEGNO")
	cmd.Flags().Float64Var(&delta, "delta", config.DefaultDelta, "initial shadow displacement scale")
	cmd.Flags().IntVar(&recordEvery, "record", config.DefaultRecord, "record every n steps")
}

// loadConfig resolves the preset or config file, then applies the flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (string, *config.Config, error) {
	name := defaultPreset
	if len(args) > 0 {
		name = args[0]
	}

	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return "", nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) == 0 {
			name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
		}
	} else {
		cfg = config.GetPreset(name)
		if cfg == nil {
			return "", nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("megno") {
		cfg.Megno.Enabled = megnoOn
	}
	if flags.Changed("delta") {
		cfg.Megno.Delta = delta
	}
	if flags.Changed("record") {
		cfg.RecordEvery = recordEvery
	}

	if err := cfg.Validate(); err != nil {
		return "", nil, err
	}
	return name, cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	exp := experiment.New(name, cfg, experiment.NewRegistry())
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if !jsonOut {
		fmt.Printf("running %s (%d bodies, %s)...\n", name, len(cfg.Bodies), cfg.Integrator)
	}
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		if result == nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "run stopped early: %v\n", err)
	}
	elapsed := time.Since(start)

	if jsonOut {
		meta := storage.NewMetadata(name, cfg, result)
		return storage.ExportJSON(os.Stdout, meta, cfg, result)
	}

	fmt.Printf("completed in %v\n", elapsed)
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(name, cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("energy drift: %.3e\n", result.EnergyDrift)
	if cfg.Megno.Enabled {
		fmt.Printf("megno: %.4f (%s)\n", result.Megno, analysis.Classify(result.Megno))
		fmt.Printf("lyapunov: %.4e\n", result.Lyapunov)
	}
	fmt.Println("\nmetrics:")
	for _, m := range slices.Sorted(maps.Keys(result.Metrics)) {
		fmt.Printf("  %s: %.6g\n", m, result.Metrics[m])
	}
	return nil
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
	fmt.Fprintln(w, "ID\tTIME\tBODIES\tDURATION\tDT\tINTEG\tMEGNO\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%g\t%s\t%.3f\t%.2e\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bodies,
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Megno,
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("not enough samples to plot: %d", len(samples))
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(samples))

	result := &sim.Result{Samples: samples}
	plot := func(data []float64, caption string) {
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if meta.Megno != 0 {
		plot(result.Series(func(s sim.Sample) float64 { return s.Megno }), "MEGNO <Y> vs time")
	}
	plot(result.Series(func(s sim.Sample) float64 { return s.EnergyError }), "relative energy error")
	for i := range samples[0].SemiMajor {
		plot(result.Series(func(s sim.Sample) float64 { return s.SemiMajor[i] }), fmt.Sprintf("a%d vs time", i+1))
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, cfg, &sim.Result{Samples: samples})
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(samples) < 4 {
		return fmt.Errorf("no data")
	}

	result := &sim.Result{Samples: samples}
	times := result.Times()
	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("integrator: %s\n\n", meta.Integrator)

	megno := result.Series(func(s sim.Sample) float64 { return s.Megno })
	alpha, beta := analysis.MegnoSlope(times, megno)
	final := megno[len(megno)-1]
	fmt.Printf("final megno: %.4f (%s)\n", final, analysis.Classify(final))
	fmt.Printf("megno fit: <Y> = %.4f + %.4e t\n", alpha, beta)
	fmt.Printf("lyapunov (stored): %.4e\n\n", meta.Lyapunov)

	step := times[1] - times[0]
	for i := range samples[0].SemiMajor {
		a := result.Series(func(s sim.Sample) float64 { return s.SemiMajor[i] })
		ps := analysis.PowerSpectrum(a)
		if len(ps) > 1 {
			graph := asciigraph.Plot(ps[1:],
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption(fmt.Sprintf("power spectrum (a%d)", i+1)),
			)
			fmt.Println(graph)
		}

		freq, power := analysis.DominantFrequency(a, step)
		fmt.Printf("a%d dominant frequency: %.4g (power %.3g)", i+1, freq, power)
		if freq > 0 {
			fmt.Printf(", period %.4g", 1/freq)
		}
		fmt.Print("\n\n")
	}
	return nil
}

func benchPreset(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := cfg.Build()
	if err != nil {
		return err
	}
	simulator, err := experiment.NewRegistry().NewSimulator(cfg.Integrator)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	steps := 0
	start := time.Now()
	err = simulator.RunWithCallback(ctx, s, cfg.RunConfig(), func(*dynamo.Simulation) bool {
		steps++
		return true
	})
	elapsed := time.Since(start)
	if err != nil {
		return err
	}

	fmt.Printf("benchmark: %s (%s, %d bodies, megno %t)\n", name, cfg.Integrator, s.N(), cfg.Megno.Enabled)
	fmt.Printf("steps: %d\n", steps)
	fmt.Printf("time: %v\n", elapsed)
	if elapsed > 0 {
		fmt.Printf("steps/s: %.0f\n", float64(steps)/elapsed.Seconds())
	}
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	name := args[0]
	base := config.GetPreset(name)
	if base == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}
	if cmd.Flags().Changed("dt") {
		base.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		base.Duration = duration
	}

	registry := experiment.NewRegistry()
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("comparing integrators for %s (dt=%g, duration=%g)\n\n", name, base.Dt, base.Duration)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tENERGY_DRIFT\tMEGNO\tTIME_MS")

	for _, intName := range args[1:] {
		cfg := base.Clone()
		cfg.Integrator = intName
		exp := experiment.New(name, cfg, registry)
		if err := exp.Setup(); err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\t\n", intName, err)
			continue
		}

		start := time.Now()
		result, err := exp.Run(ctx)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\t\n", intName, err)
			continue
		}

		megno := "-"
		if cfg.Megno.Enabled {
			megno = fmt.Sprintf("%.4f", result.Megno)
		}
		fmt.Fprintf(w, "%s\t%.3e\t%s\t%.1f\n", intName, result.EnergyDrift, megno, float64(elapsed.Microseconds())/1000)
	}
	return w.Flush()
}

func scanPreset(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if scanBody <= 0 || scanBody >= len(cfg.Bodies) || cfg.Bodies[scanBody].Elements == nil {
		return fmt.Errorf("body %d cannot be scanned", scanBody)
	}

	from, to := scanFrom, scanTo
	if from == 0 && to == 0 {
		a := cfg.Bodies[scanBody].Elements.A
		from, to = 0.8*a, 1.2*a
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scanning a%d over [%g, %g] with %d points...\n", scanBody, from, to, scanN)
	start := time.Now()
	points, err := experiment.NewRegistry().Scan(ctx, cfg, scanBody, experiment.Linspace(from, to, scanN), workers)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	ys := make([]float64, len(points))
	for i, p := range points {
		ys[i] = math.Min(p.Megno, 8)
	}
	graph := asciigraph.Plot(ys,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("MEGNO vs a%d (clipped at 8)", scanBody)),
	)
	fmt.Println(graph)
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "A\tMEGNO\tLYAPUNOV\tREGIME")
	for _, p := range points {
		fmt.Fprintf(w, "%.5f\t%.4f\t%.3e\t%s\n", p.A, p.Megno, p.Lyapunov, analysis.Classify(p.Megno))
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := cfg.Build()
	if err != nil {
		return err
	}
	simulator, err := experiment.NewRegistry().NewSimulator(cfg.Integrator)
	if err != nil {
		return err
	}

	m, err := viz.NewModel(name, simulator, s, cfg.RunConfig())
	if err != nil {
		return err
	}
	return viz.Run(m)
}

func drawOrbits(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	exp := experiment.New(name, cfg, experiment.NewRegistry())
	if err := exp.Setup(); err != nil {
		return err
	}

	steps := int(cfg.Duration / cfg.Dt)
	tracks := export.NewTracks(max(1, steps/2000))
	exp.GetSimulator().AddObserver(tracks)

	ctx, cancel := signalContext()
	defer cancel()
	if _, err := exp.Run(ctx); err != nil {
		return err
	}

	scale := 0.0
	for _, p := range tracks.Paths {
		for _, v := range p {
			scale = math.Max(scale, math.Max(math.Abs(v.X), math.Abs(v.Y)))
		}
	}
	if scale == 0 {
		scale = 1
	}
	canvas := viz.NewCanvas(60, 30, 1.1*scale)
	for _, p := range tracks.Paths {
		for _, v := range p {
			canvas.Plot(v.X, v.Y)
		}
	}

	if outFile == "" {
		fmt.Print(canvas.String())
		return nil
	}

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if braille {
		_, err = f.WriteString(export.CanvasToSVG(canvas, 4))
	} else {
		err = export.OrbitsSVG(f, tracks.Paths, 800)
	}
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario: %s (%d steps)\n", scenario.Name, len(scenario.Steps))
	if scenario.Description != "" {
		fmt.Println(scenario.Description)
	}
	results, err := automation.RunScenario(ctx, scenario, experiment.NewRegistry())

	st := storage.New(dataDir)
	if initErr := st.Init(); initErr != nil {
		return initErr
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nSTEP\tINTEG\tSTEPS\tDRIFT\tMEGNO\tRUN")
	for _, r := range results {
		runID, saveErr := st.Save(r.Name, r.Config, r.Result)
		if saveErr != nil {
			return saveErr
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2e\t%.4f\t%s\n", r.Name, r.Result.Integrator, r.Result.StepsTaken, r.Result.EnergyDrift, r.Result.Megno, runID)
	}
	if flushErr := w.Flush(); flushErr != nil {
		return flushErr
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	mc := &automation.MonteCarloConfig{
		Base:         cfg,
		NumTrials:    trials,
		Perturbation: perturb,
		Seed:         cfg.Seed,
		Workers:      workers,
	}
	fmt.Printf("monte carlo: %d trials, perturbation %g...\n", trials, perturb)
	start := time.Now()
	results, err := automation.RunMonteCarlo(ctx, mc, experiment.NewRegistry())
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	megno := make([]float64, len(results))
	for i, r := range results {
		megno[i] = math.Min(r.Megno, 8)
	}
	if len(megno) > 1 {
		fmt.Println(asciigraph.Plot(megno,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("MEGNO per trial (clipped at 8)"),
		))
		fmt.Println()
	}

	regular, chaotic, unsettled := automation.MonteCarloStats(results)
	fmt.Printf("regular: %d  chaotic: %d  unsettled: %d\n", regular, chaotic, unsettled)
	return nil
}
