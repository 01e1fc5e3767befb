package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/drivekit/internal/analysis"
	"github.com/san-kum/drivekit/internal/automation"
	"github.com/san-kum/drivekit/internal/canbus"
	"github.com/san-kum/drivekit/internal/config"
	"github.com/san-kum/drivekit/internal/export"
	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/optim"
	"github.com/san-kum/drivekit/internal/sim"
	"github.com/san-kum/drivekit/internal/storage"
	"github.com/san-kum/drivekit/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	drivetrain string
	pathFile   string
	verbose    bool

	dt           float64
	seed         int64
	integrator   string
	controller   string
	wheelNoise   float64
	headingNoise float64
	slip         float64
	runs         int
	maxVelocity  float64
	maxAccel     float64
	reversed     bool

	canIface  string
	noSave    bool
	plot      bool
	genOut    string
	outPath   string
	format    string
	frameTime float64
	params    []string
	metric    string
	top       int
	force     bool
	errSignal string
	svgWidth  int
	svgHeight int
)

// main registers the drivekit commands and exits with status 1 if the
// selected command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:          "drivekit",
		Short:        "drivetrain kinematics, trajectory and tracking lab",
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".drivekit", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&drivetrain, "drivetrain", "differential", "drivetrain the preset belongs to")
	pf.StringVar(&pathFile, "path", "", "waypoint CSV (x,y per row) replacing the configured waypoints")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "generate a trajectory and print its profile",
		Args:  cobra.NoArgs,
		RunE:  generateTrajectory,
	}
	addTrajectoryFlags(generateCmd)
	generateCmd.Flags().BoolVar(&plot, "plot", false, "plot velocity, curvature and path")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "write states to file (- for stdout)")
	generateCmd.Flags().StringVar(&format, "format", "csv", "output format: csv or json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate a closed-loop trajectory run",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addTrajectoryFlags(runCmd)
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&canIface, "can", "", "SocketCAN interface to publish wheel setpoints on")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file (- for stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file (- for stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the reference and driven paths of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file (- for stdout)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width (px)")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 600, "image height (px)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "find the dominant oscillation in a run's tracking error",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&errSignal, "signal", "cross_track", "error signal: cross_track, heading or position")

	presetsCmd := &cobra.Command{
		Use:   "presets [drivetrain]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addTrajectoryFlags(liveCmd)
	addSimFlags(liveCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search tracker gains",
		Long: "grid search tracker gains over simulated runs.\n\n" +
			"each --param is name=lo:hi:n, e.g. --param x.Kp=0.5:4:8 --param theta.Kp=1:6:6",
		Args: cobra.NoArgs,
		RunE: tuneGains,
	}
	addTrajectoryFlags(tuneCmd)
	addSimFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&params, "param", nil, "gain to search, name=lo:hi:n")
	tuneCmd.Flags().StringVar(&metric, "metric", "cross_track_rms", "metric to minimize")
	tuneCmd.Flags().IntVar(&top, "top", 5, "number of trials to print")

	framesCmd := &cobra.Command{
		Use:   "frames",
		Short: "print the CAN setpoint frames for one control tick",
		Args:  cobra.NoArgs,
		RunE:  dumpFrames,
	}
	addTrajectoryFlags(framesCmd)
	framesCmd.Flags().Float64Var(&frameTime, "time", 0.5, "trajectory time of the tick")
	framesCmd.Flags().StringVar(&canIface, "can", "", "also transmit the frames on this SocketCAN interface")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run every step of a scenario file and save the results",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().BoolVar(&noSave, "no-save", false, "do not save the runs")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "config file helpers",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default (or --preset) config as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	configInitCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(generateCmd, runCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, analyzeCmd, presetsCmd, liveCmd, tuneCmd, batchCmd, framesCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addTrajectoryFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&maxVelocity, "max-velocity", config.DefaultMaxVelocity, "trajectory max velocity (m/s)")
	cmd.Flags().Float64Var(&maxAccel, "max-accel", config.DefaultMaxAcceleration, "trajectory max acceleration (m/s²)")
	cmd.Flags().BoolVar(&reversed, "reversed", false, "drive the path backwards")
	cmd.Flags().StringVar(&controller, "controller", "pidf", "tracker: pidf or ramsete")
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "control period and sim timestep")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator: euler or rk4")
	cmd.Flags().Float64Var(&wheelNoise, "wheel-noise", 0, "wheel distance noise per meter")
	cmd.Flags().Float64Var(&headingNoise, "heading-noise", 0, "heading sensor noise (rad)")
	cmd.Flags().Float64Var(&slip, "slip", 0, "fraction of wheel motion lost")
	cmd.Flags().IntVar(&runs, "runs", 1, "seeded runs to average")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func generateTrajectory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	model, err := cfg.BuildKinematics()
	if err != nil {
		return err
	}
	traj, err := buildTrajectory(cfg, model)
	if err != nil {
		return err
	}

	peakV, peakK := 0.0, 0.0
	for _, s := range traj.States() {
		peakV = math.Max(peakV, math.Abs(s.Velocity))
		peakK = math.Max(peakK, math.Abs(s.Curvature))
	}
	fmt.Printf("waypoints: %d\n", len(cfg.Waypoints))
	fmt.Printf("states: %d\n", traj.Len())
	fmt.Printf("total time: %.3fs\n", traj.TotalTime())
	fmt.Printf("peak velocity: %.3f m/s\n", peakV)
	fmt.Printf("peak curvature: %.3f 1/m\n", peakK)
	fmt.Printf("start: %s\n", traj.InitialPose())
	fmt.Printf("end: %s\n", traj.FinalPose())

	if plot {
		fmt.Println()
		fmt.Println(viz.VelocityProfile(traj, 80, 10))
		fmt.Println()
		fmt.Println(viz.CurvatureProfile(traj, 80, 6))
		fmt.Println()
		fmt.Print(viz.FieldMap(traj, nil, 60, 20))
	}

	if genOut == "" {
		return nil
	}
	return storage.ExportFile(genOut, func(w io.Writer) error {
		switch format {
		case "csv":
			return storage.WriteTrajectoryCSV(w, traj)
		case "json":
			return storage.WriteTrajectoryJSON(w, traj)
		}
		return fmt.Errorf("unknown format: %s", format)
	})
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	model, err := cfg.BuildKinematics()
	if err != nil {
		return err
	}
	traj, err := buildTrajectory(cfg, model)
	if err != nil {
		return err
	}
	simCfg := cfg.BuildSimConfig()

	ctx, stop := signalContext()
	defer stop()

	var observers []sim.Observer
	var pub *canbus.Publisher
	if canIface != "" {
		bus, err := canbus.Dial(ctx, canIface)
		if err != nil {
			return err
		}
		defer bus.Close()
		pub = canbus.NewPublisher(ctx, canbus.NewCodec(cfg.CAN.SetpointBase, cfg.CAN.FeedbackBase), bus, logger)
		observers = append(observers, pub)
	}

	fmt.Printf("running %s trajectory (%.2fs)...\n", cfg.Drivetrain.Type, traj.TotalTime())
	start := time.Now()

	result, err := simulate(ctx, cfg, traj, logger, nil, observers...)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("finished: %v\n", result.Finished)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("final pose: %s\n", result.Final().Pose)
	if cfg.Sim.Runs > 1 {
		fmt.Printf("\nmetrics (mean over %d seeds):\n", cfg.Sim.Runs)
	} else {
		fmt.Println("\nmetrics:")
	}
	printMetrics(result.Metrics)

	if pub != nil {
		fmt.Printf("\ncan: %d frames sent, %d failed on %s\n", pub.Sent(), pub.Failed(), canIface)
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Drivetrain: cfg.Drivetrain.Type,
		Preset:     preset,
		Seed:       simCfg.Seed,
		Dt:         simCfg.Dt,
		Integrator: cfg.Sim.Integrator,
		Controller: cfg.Controller.Type,
	}, result)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
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
	fmt.Fprintln(w, "ID\tDRIVETRAIN\tTIME\tDURATION\tDT\tINTEG\tCTRL\tDONE\tXTRACK")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%v\t%.4f\n",
			run.ID,
			run.Drivetrain,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Controller,
			run.Finished,
			run.Metrics["cross_track_rms"],
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
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("drivetrain: %s  controller: %s\n", meta.Drivetrain, meta.Controller)
	fmt.Printf("samples: %d\n\n", len(samples))

	fmt.Println(viz.ErrorPlot(samples, 80, 10))
	fmt.Println()

	vel := make([]float64, len(samples))
	for i, s := range samples {
		vel[i] = s.Target.Velocity
	}
	fmt.Printf("reference velocity  %s\n\n", viz.Sparkline(vel, 60))

	fmt.Print(viz.RunMap(samples, 60, 20))
	fmt.Println("\nmetrics:")
	printMetrics(meta.Metrics)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	return storage.ExportFile(outPath, func(w io.Writer) error {
		return storage.WriteSamplesCSV(w, samples)
	})
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	result := &sim.Result{
		Samples:    samples,
		Metrics:    meta.Metrics,
		Finished:   meta.Finished,
		StepsTaken: meta.Steps,
	}
	return storage.ExportFile(outPath, func(w io.Writer) error {
		return storage.WriteJSON(w, *meta, result)
	})
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	title := meta.Drivetrain + " " + meta.Controller
	if meta.Preset != "" {
		title += " " + meta.Preset
	}
	return storage.ExportFile(outPath, func(w io.Writer) error {
		return export.RunSVG(w, samples, svgWidth, svgHeight, title)
	})
}

func errorSignal(name string) (func(sim.Sample) float64, error) {
	switch name {
	case "cross_track":
		return sim.Sample.CrossTrackError, nil
	case "heading":
		return sim.Sample.HeadingError, nil
	case "position":
		return sim.Sample.PositionError, nil
	}
	return nil, fmt.Errorf("unknown signal %q", name)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	value, err := errorSignal(errSignal)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	spec, err := analysis.ErrorSpectrum(samples, value)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", args[0])
	fmt.Printf("signal: %s  samples: %d\n\n", errSignal, len(samples))

	if len(spec.Amplitude) > 1 {
		graph := asciigraph.Plot(spec.Amplitude[1:],
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.Caption(fmt.Sprintf("amplitude spectrum, 0 to %.1f Hz", spec.Freq[len(spec.Freq)-1])),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	freq, amp := spec.Dominant()
	if amp == 0 {
		fmt.Println("no oscillation")
		return nil
	}
	fmt.Printf("dominant frequency: %.3f Hz\n", freq)
	fmt.Printf("period: %.3f s\n", 1/freq)
	fmt.Printf("amplitude: %.4f\n", amp)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	drivetrains := args
	if len(drivetrains) == 0 {
		for name := range config.Presets {
			drivetrains = append(drivetrains, name)
		}
		sort.Strings(drivetrains)
	}
	for _, d := range drivetrains {
		presets := config.ListPresets(d)
		if len(presets) == 0 {
			fmt.Printf("no presets for drivetrain: %s\n", d)
			continue
		}
		fmt.Printf("presets for %s:\n", d)
		for _, p := range presets {
			fmt.Printf("  %s\n", p)
		}
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	model, err := cfg.BuildKinematics()
	if err != nil {
		return err
	}
	traj, err := buildTrajectory(cfg, model)
	if err != nil {
		return err
	}
	// log lines would tear the alt screen
	s, err := buildSimulator(cfg, zap.NewNop().Sugar(), nil)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	title := cfg.Drivetrain.Type + " / " + cfg.Controller.Type
	if preset != "" {
		title += " / " + preset
	}
	p := tea.NewProgram(viz.NewLive(ctx, s, traj, cfg.BuildSimConfig(), title), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if live, ok := final.(viz.Live); ok && live.Finished() {
		if result, err := live.Result(); err == nil && result != nil {
			fmt.Println("metrics:")
			printMetrics(result.Metrics)
		}
	}
	return nil
}

// parseGrid turns name=lo:hi:n specs into search axes.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, rng, ok := strings.Cut(spec, "=")
		parts := strings.Split(rng, ":")
		if !ok || name == "" || len(parts) != 3 {
			return nil, nil, fmt.Errorf("bad --param %q, want name=lo:hi:n", spec)
		}
		lo, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("bad --param %q: %w", spec, err)
		}
		hi, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("bad --param %q: %w", spec, err)
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 1 {
			return nil, nil, fmt.Errorf("bad --param %q: n must be a positive integer", spec)
		}
		names = append(names, name)
		ranges = append(ranges, optim.Linspace(lo, hi, n))
	}
	return names, ranges, nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(params)
	if err != nil {
		return err
	}
	grid, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	model, err := cfg.BuildKinematics()
	if err != nil {
		return err
	}
	traj, err := buildTrajectory(cfg, model)
	if err != nil {
		return err
	}
	quiet := zap.NewNop().Sugar()

	ctx, stop := signalContext()
	defer stop()

	logger.Infow("grid search started", "points", grid.Size(), "metric", metric)
	trials, err := grid.Search(ctx, func(ctx context.Context, gains map[string]float64) (*sim.Result, error) {
		return simulate(ctx, cfg, traj, quiet, gains)
	}, metric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := append([]string{"RANK"}, names...)
	header = append(header, strings.ToUpper(metric), "DONE")
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for i, tr := range trials {
		if i >= top {
			break
		}
		row := []string{strconv.Itoa(i + 1)}
		for _, name := range names {
			row = append(row, strconv.FormatFloat(tr.Params[name], 'g', 4, 64))
		}
		row = append(row, fmt.Sprintf("%.6f", tr.Value), strconv.FormatBool(tr.Finished))
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func runBatch(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
	}

	ctx, stop := signalContext()
	defer stop()

	results, err := automation.Run(ctx, sc, executor(zap.NewNop().Sugar()), st, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tDONE\tCROSS_TRACK_RMS\tFINAL_ERROR\tRUN ID")
	for i, r := range results {
		name := r.Step.Name
		if name == "" {
			name = strconv.Itoa(i + 1)
		}
		fmt.Fprintf(w, "%s\t%v\t%.6f\t%.6f\t%s\n", name, r.Result.Finished,
			r.Result.Metrics["cross_track_rms"], r.Result.Metrics["final_position_error"], r.RunID)
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func dumpFrames(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	model, err := cfg.BuildKinematics()
	if err != nil {
		return err
	}
	traj, err := buildTrajectory(cfg, model)
	if err != nil {
		return err
	}
	command, err := buildCommand(cfg, model, logger, nil)
	if err != nil {
		return err
	}
	if err := command.Start(traj); err != nil {
		return err
	}

	at := math.Max(0, math.Min(frameTime, traj.TotalTime()))
	ref := traj.Sample(at)
	out := command.Tick(at, ref.Pose)

	codec := canbus.NewCodec(cfg.CAN.SetpointBase, cfg.CAN.FeedbackBase)
	frames, err := codec.EncodeSetpoints(out.Wheels, out.Volts)
	if err != nil {
		return err
	}

	fmt.Printf("t=%.3fs  v=%.3f m/s  command vx=%.3f vy=%.3f ω=%.3f\n", at, ref.Velocity, out.Speed.Vx, out.Speed.Vy, out.Speed.Omega)
	for i, sp := range canbus.Setpoints(out.Wheels, out.Volts) {
		fmt.Printf("%s  wheel %d: %.3f m/s %.1f° %.2f V\n", frames[i].String(), i, sp.Velocity, geometry.Degrees(sp.Angle), sp.Voltage)
	}

	if canIface == "" {
		return nil
	}
	ctx, stop := signalContext()
	defer stop()
	bus, err := canbus.Dial(ctx, canIface)
	if err != nil {
		return err
	}
	defer bus.Close()
	return canbus.NewPublisher(ctx, codec, bus, logger).Publish(ctx, out.Wheels, out.Volts)
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "drivekit.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s exists, use --force to overwrite", path)
	}

	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(drivetrain, preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available for %s: %v)", preset, drivetrain, config.ListPresets(drivetrain))
		}
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
