package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/edaniels/golog"

	"github.com/san-kum/drivekit/internal/follow"
	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/kinematics"
	"github.com/san-kum/drivekit/internal/odometry"
	"github.com/san-kum/drivekit/internal/trajectory"
)

// Simulator closes the loop: sensors feed the odometer, the follow command
// turns the estimate into wheel setpoints, and the plant moves by what those
// wheels actually do.
type Simulator struct {
	model      kinematics.Model
	dyn        Dynamics
	integrator Integrator
	command    *follow.Command
	logger     golog.Logger
	metrics    []Metric
	observers  []Observer
}

func New(model kinematics.Model, integrator Integrator, command *follow.Command, logger golog.Logger) *Simulator {
	return &Simulator{
		model:      model,
		dyn:        Plant{},
		integrator: integrator,
		command:    command,
		logger:     logger,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run tracks traj starting from its initial pose until the command finishes
// or the timeout passes. On cancellation the partial result is returned with
// ctx.Err().
func (s *Simulator) Run(ctx context.Context, traj *trajectory.Trajectory, cfg Config) (*Result, error) {
	return s.run(ctx, traj, cfg, nil)
}

// RunWithCallback is Run with a per-sample callback; returning false stops
// the run early without error.
func (s *Simulator) RunWithCallback(ctx context.Context, traj *trajectory.Trajectory, cfg Config, callback func(Sample) bool) (*Result, error) {
	return s.run(ctx, traj, cfg, callback)
}

func (s *Simulator) run(ctx context.Context, traj *trajectory.Trajectory, cfg Config, callback func(Sample) bool) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := s.command.Start(traj); err != nil {
		return nil, err
	}
	defer s.command.Cancel()

	steps := int(math.Ceil((traj.TotalTime() + cfg.TimeoutMargin) / cfg.Dt))
	result := &Result{
		Samples: make([]Sample, 0, steps+1),
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	noise := func(d float64) float64 {
		if cfg.WheelNoise == 0 {
			return 0
		}
		return rng.NormFloat64() * cfg.WheelNoise * math.Abs(d)
	}
	sense := func(heading float64) float64 {
		return heading + rng.NormFloat64()*cfg.HeadingNoise
	}

	start := traj.InitialPose()
	x := PoseState(start.TransformBy(cfg.InitialError))
	wheels := s.model.Zero()
	odo := odometry.New(s.model, wheels, sense(x[2]), start)

	s.logger.Infow("simulation started", "duration", traj.TotalTime(), "dt", cfg.Dt, "seed", cfg.Seed)

	t := 0.0
	for i := 0; i <= steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			return result, ctx.Err()
		default:
		}

		estimate := odo.Pose()
		out := s.command.Tick(t, estimate)
		smp := Sample{
			Time:     t,
			Pose:     StatePose(x),
			Estimate: estimate,
			Target:   out.Target,
			Command:  out.Speed,
			Wheels:   follow.WheelVelocities(out.Wheels),

			Setpoints: out.Wheels,
			Volts:     out.Volts,
		}
		for _, m := range s.metrics {
			m.Observe(smp)
		}
		for _, obs := range s.observers {
			obs.OnStep(smp)
		}
		result.Samples = append(result.Samples, smp)
		if callback != nil && !callback(smp) {
			break
		}
		if out.Finished {
			result.Finished = true
			break
		}

		actual := s.model.Forward(out.Wheels)
		actual = geometry.ChassisSpeed{
			Vx:    actual.Vx * (1 - cfg.Slip),
			Vy:    actual.Vy * (1 - cfg.Slip),
			Omega: actual.Omega * (1 - cfg.Slip),
		}
		next := s.integrator.Step(s.dyn, x, actual, t, cfg.Dt)
		if !next.IsValid() {
			s.finish(result)
			return result, SimError{Time: t, Step: i, Message: "invalid plant state (NaN/Inf)"}
		}
		x = next
		x[2] = geometry.NormalizeAngle(x[2])
		wheels = WheelReadings(wheels, out.Wheels, cfg.Dt, noise)
		t += cfg.Dt
		odo.Update(wheels, sense(x[2]), cfg.Dt)
		result.StepsTaken++
	}

	s.finish(result)
	s.logger.Infow("simulation finished",
		"finished", result.Finished,
		"steps", result.StepsTaken,
		"final_error", result.Final().PositionError())
	return result, nil
}

func (s *Simulator) finish(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 || !geometry.Finite(cfg.Dt) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.TimeoutMargin < 0 {
		return fmt.Errorf("timeout margin must be non-negative, got %f", cfg.TimeoutMargin)
	}
	if cfg.Slip < 0 || cfg.Slip >= 1 {
		return fmt.Errorf("slip must be in [0, 1), got %f", cfg.Slip)
	}
	if cfg.WheelNoise < 0 || cfg.HeadingNoise < 0 {
		return fmt.Errorf("noise must be non-negative")
	}
	return nil
}

// SimError locates a failure inside a run.
type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("sim: step %d (t=%.3f): %s", e.Step, e.Time, e.Message)
}
