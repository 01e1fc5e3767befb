package sim

import (
	"math"
	"testing"

	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/kinematics"
	"github.com/san-kum/drivekit/internal/trajectory"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	if got := (State{3, 4}).Norm(); math.Abs(got-5) > 1e-12 {
		t.Errorf("Norm() = %f, want 5", got)
	}
}

func TestSampleErrors(t *testing.T) {
	s := Sample{
		Pose:   geometry.NewPose(1, 0.5, 0.1),
		Target: trajectory.State{Pose: geometry.NewPose(1, 0, 0)},
	}
	if math.Abs(s.PositionError()-0.5) > 1e-12 {
		t.Errorf("PositionError() = %f", s.PositionError())
	}
	if math.Abs(s.CrossTrackError()-0.5) > 1e-12 {
		t.Errorf("CrossTrackError() = %f", s.CrossTrackError())
	}
	if math.Abs(s.HeadingError()-0.1) > 1e-12 {
		t.Errorf("HeadingError() = %f", s.HeadingError())
	}
}

func TestWheelReadingsAccumulate(t *testing.T) {
	none := func(float64) float64 { return 0 }
	var ws kinematics.WheelState = kinematics.DifferentialState{}
	cmd := kinematics.DifferentialState{LeftVelocity: 1, RightVelocity: 2}
	for i := 0; i < 10; i++ {
		ws = WheelReadings(ws, cmd, 0.1, none)
	}
	got := ws.(kinematics.DifferentialState)
	if math.Abs(got.LeftDistance-1) > 1e-9 || math.Abs(got.RightDistance-2) > 1e-9 {
		t.Errorf("got %+v", got)
	}

	sw := WheelReadings(kinematics.SwerveState{}, kinematics.SwerveState{Modules: []kinematics.ModuleState{{Velocity: 1, Angle: 0.3}}}, 0.5, none)
	m := sw.(kinematics.SwerveState).Modules[0]
	if m.Distance != 0.5 || m.Angle != 0.3 {
		t.Errorf("got %+v", m)
	}
}

func TestPlantDerivative(t *testing.T) {
	dx := Plant{}.Derivative(State{0, 0, math.Pi / 2}, geometry.ChassisSpeed{Vx: 1, Omega: 0.5}, 0)
	if math.Abs(dx[0]) > 1e-12 || math.Abs(dx[1]-1) > 1e-12 || dx[2] != 0.5 {
		t.Errorf("got %v", dx)
	}
}
