package odometry

import (
	"math"
	"testing"

	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/kinematics"
)

func newDiff(t *testing.T) *kinematics.Differential {
	t.Helper()
	d, err := kinematics.NewDifferential(0.6)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestZeroDeltaLeavesPose(t *testing.T) {
	start := geometry.NewPose(1.5, -2, 0.7)
	wheels := kinematics.DifferentialState{LeftDistance: 3, RightDistance: 4}
	odo := New(newDiff(t), wheels, 0.2, start)

	for _, dt := range []float64{0, 0.02, 1, 100, -1, math.NaN()} {
		got := odo.Update(wheels, 0.2, dt)
		if got.Distance(start) > 1e-12 || math.Abs(got.Heading-start.Heading) > 1e-12 {
			t.Fatalf("dt=%v moved pose to %v", dt, got)
		}
	}
}

func TestStraightLine(t *testing.T) {
	odo := New(newDiff(t), kinematics.DifferentialState{}, 0, geometry.Pose2D{})
	got := odo.Update(kinematics.DifferentialState{LeftDistance: 1, RightDistance: 1}, 0, 0.02)
	if math.Abs(got.X-1) > 1e-9 || math.Abs(got.Y) > 1e-9 || got.Heading != 0 {
		t.Errorf("got %v, want (1, 0, 0)", got)
	}
	if v := odo.Velocity(); math.Abs(v.Vx-50) > 1e-9 {
		t.Errorf("velocity %v", v)
	}
}

func TestHeadingFromSensor(t *testing.T) {
	odo := New(newDiff(t), kinematics.DifferentialState{}, 0, geometry.Pose2D{})
	// wheels report no rotation, sensor says quarter turn
	got := odo.Update(kinematics.DifferentialState{LeftDistance: 1, RightDistance: 1}, math.Pi/2, 0.02)
	if math.Abs(got.Heading-math.Pi/2) > 1e-9 {
		t.Errorf("heading %v", got.Heading)
	}
	// displacement rotated by the mean heading of 45 degrees
	want := math.Sqrt2 / 2
	if math.Abs(got.X-want) > 1e-9 || math.Abs(got.Y-want) > 1e-9 {
		t.Errorf("got %v", got)
	}
}

func TestSensorOffset(t *testing.T) {
	odo := New(newDiff(t), kinematics.DifferentialState{}, 1.0, geometry.NewPose(0, 0, math.Pi/2))
	got := odo.Update(kinematics.DifferentialState{LeftDistance: 2, RightDistance: 2}, 1.0, 0.02)
	if math.Abs(got.X) > 1e-9 || math.Abs(got.Y-2) > 1e-9 {
		t.Errorf("got %v", got)
	}
}

func TestHeadingWrap(t *testing.T) {
	odo := New(newDiff(t), kinematics.DifferentialState{}, math.Pi-0.05, geometry.NewPose(0, 0, math.Pi-0.05))
	got := odo.Update(kinematics.DifferentialState{LeftDistance: 1, RightDistance: 1}, -math.Pi+0.05, 0.02)
	// mean heading is pi, so motion is along -x
	if math.Abs(got.X+1) > 1e-9 || math.Abs(got.Y) > 1e-9 {
		t.Errorf("got %v", got)
	}
}

func TestBadSampleIgnored(t *testing.T) {
	odo := New(newDiff(t), kinematics.DifferentialState{}, 0, geometry.Pose2D{})
	odo.Update(kinematics.DifferentialState{LeftDistance: math.NaN(), RightDistance: math.Inf(1)}, math.NaN(), 0.02)
	if p := odo.Pose(); p != (geometry.Pose2D{}) {
		t.Fatalf("bad sample moved pose to %v", p)
	}
	got := odo.Update(kinematics.DifferentialState{LeftDistance: 0.5, RightDistance: 0.5}, 0, 0.02)
	if math.Abs(got.X-0.5) > 1e-9 {
		t.Errorf("got %v", got)
	}
}

func TestResetPose(t *testing.T) {
	odo := New(newDiff(t), kinematics.DifferentialState{}, 0, geometry.Pose2D{})
	odo.Update(kinematics.DifferentialState{LeftDistance: 1, RightDistance: 1}, 0, 0.02)

	wheels := kinematics.DifferentialState{LeftDistance: 1, RightDistance: 1}
	odo.ResetPose(geometry.NewPose(5, 5, 0), wheels, 0)
	got := odo.Update(wheels, 0, 0.02)
	if math.Abs(got.X-5) > 1e-9 || math.Abs(got.Y-5) > 1e-9 {
		t.Errorf("got %v", got)
	}
}

func TestSwerveStrafe(t *testing.T) {
	sw, err := kinematics.NewSwerveRectangular(0.5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	odo := New(sw, sw.Zero(), 0, geometry.Pose2D{})
	cur := kinematics.SwerveState{Modules: make([]kinematics.ModuleState, 4)}
	for i := range cur.Modules {
		cur.Modules[i] = kinematics.ModuleState{Distance: 0.3, Angle: math.Pi / 2}
	}
	got := odo.Update(cur, 0, 0.02)
	if math.Abs(got.X) > 1e-9 || math.Abs(got.Y-0.3) > 1e-9 {
		t.Errorf("got %v", got)
	}
}
