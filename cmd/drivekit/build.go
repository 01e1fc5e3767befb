package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/edaniels/golog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/drivekit/internal/automation"
	"github.com/san-kum/drivekit/internal/config"
	"github.com/san-kum/drivekit/internal/control"
	"github.com/san-kum/drivekit/internal/follow"
	"github.com/san-kum/drivekit/internal/integrators"
	"github.com/san-kum/drivekit/internal/kinematics"
	"github.com/san-kum/drivekit/internal/metrics"
	"github.com/san-kum/drivekit/internal/optim"
	"github.com/san-kum/drivekit/internal/sim"
	"github.com/san-kum/drivekit/internal/trajectory"
)

func newLogger() golog.Logger {
	if verbose {
		return golog.NewDevelopmentLogger("drivekit")
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	zc.DisableStacktrace = true
	l, err := zc.Build()
	if err != nil {
		return golog.NewDevelopmentLogger("drivekit")
	}
	return l.Sugar().Named("drivekit")
}

// loadConfig resolves the config from --preset or --config (defaults
// otherwise), replaces the waypoints with --path when given, then applies
// any flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case preset != "":
		cfg = config.GetPreset(drivetrain, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available for %s: %v)", preset, drivetrain, config.ListPresets(drivetrain))
		}
	case configFile != "":
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	default:
		cfg = config.DefaultConfig()
	}

	if pathFile != "" {
		f, err := os.Open(pathFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		wps, err := trajectory.LoadPath(f)
		if err != nil {
			return nil, err
		}
		cfg.SetWaypoints(wps)
	}

	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("dt") {
		cfg.Sim.Dt = dt
		cfg.Controller.Period = dt
	}
	if f.Changed("seed") {
		cfg.Sim.Seed = seed
	}
	if f.Changed("integrator") {
		cfg.Sim.Integrator = integrator
	}
	if f.Changed("controller") {
		cfg.Controller.Type = controller
	}
	if f.Changed("wheel-noise") {
		cfg.Sim.WheelNoise = wheelNoise
	}
	if f.Changed("heading-noise") {
		cfg.Sim.HeadingNoise = headingNoise
	}
	if f.Changed("slip") {
		cfg.Sim.Slip = slip
	}
	if f.Changed("runs") {
		cfg.Sim.Runs = runs
	}
	if f.Changed("max-velocity") {
		cfg.Trajectory.MaxVelocity = maxVelocity
	}
	if f.Changed("max-accel") {
		cfg.Trajectory.MaxAcceleration = maxAccel
	}
	if f.Changed("reversed") {
		cfg.Trajectory.Reversed = reversed
	}
}

func buildTrajectory(cfg *config.Config, model kinematics.Model) (*trajectory.Trajectory, error) {
	return trajectory.Generate(cfg.BuildWaypoints(), cfg.BuildTrajectoryConfig(), cfg.BuildConstraints(model)...)
}

// buildCommand wires the tracker into a follow command. gains, when not
// empty, override tracker parameters by name.
func buildCommand(cfg *config.Config, model kinematics.Model, logger golog.Logger, gains map[string]float64) (*follow.Command, error) {
	tracker, err := cfg.BuildTracker()
	if err != nil {
		return nil, err
	}
	if len(gains) > 0 {
		tunable, ok := tracker.(control.Tunable)
		if !ok {
			return nil, fmt.Errorf("controller %s has no tunable gains", cfg.Controller.Type)
		}
		if err := optim.Apply(tunable, gains); err != nil {
			return nil, err
		}
	}
	var opts []follow.Option
	if cfg.Drivetrain.MaxWheelSpeed > 0 {
		opts = append(opts, follow.WithMaxWheelSpeed(cfg.Drivetrain.MaxWheelSpeed))
	}
	if !cfg.Drivetrain.Feedforward.IsZero() {
		opts = append(opts, follow.WithFeedforward(cfg.Drivetrain.Feedforward))
	}
	return follow.New(model, tracker, logger, opts...), nil
}

// buildSimulator returns a fresh Simulator with the standard metrics. Each
// call builds its own tracker, integrator and metrics.
func buildSimulator(cfg *config.Config, logger golog.Logger, gains map[string]float64) (*sim.Simulator, error) {
	model, err := cfg.BuildKinematics()
	if err != nil {
		return nil, err
	}
	integ, ok := integrators.ByName(cfg.Sim.Integrator)
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", cfg.Sim.Integrator)
	}
	command, err := buildCommand(cfg, model, logger, gains)
	if err != nil {
		return nil, err
	}
	s := sim.New(model, integ, command, logger)
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}
	return s, nil
}

// simulate runs traj once, or as a seeded ensemble when cfg.Sim.Runs > 1. An
// ensemble result keeps the samples of its first seed, reports mean metrics
// and is finished only if every seed finished. logger and observers are
// attached to the first seed only.
func simulate(ctx context.Context, cfg *config.Config, traj *trajectory.Trajectory, logger golog.Logger, gains map[string]float64, observers ...sim.Observer) (*sim.Result, error) {
	simCfg := cfg.BuildSimConfig()
	build := func(run int) (*sim.Simulator, error) {
		l := logger
		if run > 0 {
			l = zap.NewNop().Sugar()
		}
		s, err := buildSimulator(cfg, l, gains)
		if err != nil {
			return nil, err
		}
		if run == 0 {
			for _, o := range observers {
				s.AddObserver(o)
			}
		}
		return s, nil
	}

	if cfg.Sim.Runs <= 1 {
		s, err := build(0)
		if err != nil {
			return nil, err
		}
		return s.Run(ctx, traj, simCfg)
	}

	results, err := sim.NewEnsemble(build, cfg.Sim.Runs, simCfg.Seed).Run(ctx, traj, simCfg)
	if err != nil {
		return nil, err
	}
	finished := true
	for _, r := range results {
		finished = finished && r.Finished
	}
	return &sim.Result{
		Samples:    results[0].Samples,
		Metrics:    sim.Mean(results),
		Finished:   finished,
		StepsTaken: results[0].StepsTaken,
	}, nil
}

// executor adapts simulate to scenario steps, building each step's
// trajectory from its own config.
func executor(logger golog.Logger) automation.Executor {
	return func(ctx context.Context, cfg *config.Config, gains map[string]float64) (*sim.Result, error) {
		model, err := cfg.BuildKinematics()
		if err != nil {
			return nil, err
		}
		traj, err := buildTrajectory(cfg, model)
		if err != nil {
			return nil, err
		}
		return simulate(ctx, cfg, traj, logger, gains)
	}
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-22s %.6f\n", name, m[name])
	}
}
