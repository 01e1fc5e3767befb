package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/edaniels/golog"

	"github.com/san-kum/drivekit/internal/control"
	"github.com/san-kum/drivekit/internal/follow"
	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/kinematics"
	"github.com/san-kum/drivekit/internal/trajectory"
)

type testIntegrator struct{}

func (testIntegrator) Step(dyn Dynamics, x State, u geometry.ChassisSpeed, t float64, dt float64) State {
	dx := dyn.Derivative(x, u, t)
	out := make(State, len(x))
	for i := range x {
		out[i] = x[i] + dt*dx[i]
	}
	return out
}

type maxError struct{ v float64 }

func (m *maxError) Name() string     { return "max_error" }
func (m *maxError) Observe(s Sample) { m.v = math.Max(m.v, s.PositionError()) }
func (m *maxError) Value() float64   { return m.v }
func (m *maxError) Reset()           { m.v = 0 }

func testTrajectory(t *testing.T) *trajectory.Trajectory {
	t.Helper()
	traj, err := trajectory.Generate([]trajectory.Waypoint{
		trajectory.NewWaypoint(0, 0, 0),
		trajectory.NewWaypoint(1.5, 0.5, math.Pi/6),
	}, trajectory.NewConfig(1, 1))
	if err != nil {
		t.Fatal(err)
	}
	return traj
}

func newTestSim(t *testing.T) *Simulator {
	t.Helper()
	diff, err := kinematics.NewDifferential(0.6)
	if err != nil {
		t.Fatal(err)
	}
	ctrl := control.NewPoseController(control.NewPIDF(2, 0, 0, 0), control.NewPIDF(4, 0, 0, 0), control.NewPIDF(3, 0, 0, 0))
	ctrl.Holonomic = false
	logger := golog.NewTestLogger(t)
	s := New(diff, testIntegrator{}, follow.New(diff, ctrl, logger), logger)
	s.AddMetric(&maxError{})
	return s
}

func TestSimulatorTracks(t *testing.T) {
	s := newTestSim(t)
	traj := testTrajectory(t)

	result, err := s.Run(context.Background(), traj, DefaultConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !result.Finished {
		t.Fatal("run did not finish")
	}
	for i := 1; i < len(result.Samples); i++ {
		if result.Samples[i].Time <= result.Samples[i-1].Time {
			t.Fatalf("time not increasing at %d", i)
		}
	}
	if e := result.Final().PositionError(); e > 0.05 {
		t.Errorf("final error %.4f too large", e)
	}
	if result.Metrics["max_error"] > 0.1 {
		t.Errorf("max error %.4f too large", result.Metrics["max_error"])
	}
}

func TestSimulatorRecoversInitialError(t *testing.T) {
	s := newTestSim(t)
	cfg := DefaultConfig()
	cfg.InitialError = geometry.NewPose(0, 0.05, 0)

	result, err := s.Run(context.Background(), testTrajectory(t), cfg)
	if err != nil {
		t.Fatal(err)
	}
	// the estimate starts at the nominal pose, so odometry cannot see the
	// offset; the robot ends displaced by roughly that amount
	if e := result.Final().PositionError(); e < 0.01 || e > 0.2 {
		t.Errorf("final error %.4f", e)
	}
}

func TestSimulatorSeedDeterminism(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WheelNoise = 0.05
	cfg.HeadingNoise = 0.01
	cfg.Seed = 7

	a, err := newTestSim(t).Run(context.Background(), testTrajectory(t), cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := newTestSim(t).Run(context.Background(), testTrajectory(t), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if a.Final().Pose != b.Final().Pose {
		t.Errorf("same seed gave %v and %v", a.Final().Pose, b.Final().Pose)
	}

	cfg.Seed = 8
	c, err := newTestSim(t).Run(context.Background(), testTrajectory(t), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if a.Final().Pose == c.Final().Pose {
		t.Error("different seeds gave identical runs")
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0}},
		{"negative dt", Config{Dt: -0.1}},
		{"negative margin", Config{Dt: 0.02, TimeoutMargin: -1}},
		{"full slip", Config{Dt: 0.02, Slip: 1}},
		{"negative noise", Config{Dt: 0.02, WheelNoise: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestSim(t).Run(context.Background(), testTrajectory(t), tt.cfg)
			if err == nil {
				t.Error("expected error for invalid config")
			}
		})
	}
}

func TestSimulatorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestSim(t).Run(ctx, testTrajectory(t), DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.Finished {
		t.Error("expected an unfinished partial result")
	}
}

func TestRunWithCallbackStops(t *testing.T) {
	n := 0
	result, err := newTestSim(t).RunWithCallback(context.Background(), testTrajectory(t), DefaultConfig(), func(Sample) bool {
		n++
		return n < 10
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 10 || len(result.Samples) != 10 || result.Finished {
		t.Errorf("callback ran %d times, %d samples", n, len(result.Samples))
	}
}

func TestEnsemble(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WheelNoise = 0.02
	ens := NewEnsemble(func(int) (*Simulator, error) { return newTestSim(t), nil }, 4, 1)

	results, err := ens.Run(context.Background(), testTrajectory(t), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results", len(results))
	}
	mean := Mean(results)
	if _, ok := mean["max_error"]; !ok {
		t.Error("mean missing max_error")
	}
}
