package sim

import (
	"math"

	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/kinematics"
	"github.com/san-kum/drivekit/internal/trajectory"
)

// State is the plant state vector.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	return geometry.Finite(s...)
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Dynamics is a continuous-time plant driven by a robot-frame chassis speed.
type Dynamics interface {
	Derivative(x State, u geometry.ChassisSpeed, t float64) State
	StateDim() int
}

type Integrator interface {
	Step(dyn Dynamics, x State, u geometry.ChassisSpeed, t float64, dt float64) State
}

// Sample is one control tick of a closed-loop run.
type Sample struct {
	Time     float64               `json:"t"`
	Pose     geometry.Pose2D       `json:"pose"`
	Estimate geometry.Pose2D       `json:"estimate"`
	Target   trajectory.State      `json:"target"`
	Command  geometry.ChassisSpeed `json:"command"`
	Wheels   []float64             `json:"wheels"`

	// Setpoints and Volts are the full commands sent to the wheels that tick.
	Setpoints kinematics.WheelState `json:"-"`
	Volts     []float64             `json:"volts,omitempty"`
}

// PositionError is the distance from the true pose to the reference.
func (s Sample) PositionError() float64 {
	return s.Pose.Distance(s.Target.Pose)
}

// CrossTrackError is the signed lateral offset of the true pose from the
// reference, positive to the left of the reference heading.
func (s Sample) CrossTrackError() float64 {
	return s.Pose.RelativeTo(s.Target.Pose).Y
}

func (s Sample) HeadingError() float64 {
	return geometry.AngleDelta(s.Target.Pose.Heading, s.Pose.Heading)
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

type Config struct {
	Dt float64
	// TimeoutMargin is how long past the trajectory end the run may take.
	TimeoutMargin float64
	Seed          int64
	// WheelNoise is the standard deviation of wheel distance noise per
	// meter travelled.
	WheelNoise float64
	// HeadingNoise is the standard deviation of the heading sensor (rad).
	HeadingNoise float64
	// Slip is the fraction of wheel motion lost to the ground, in [0, 1).
	Slip float64
	// InitialError offsets the true start pose from the estimate.
	InitialError geometry.Pose2D
}

func DefaultConfig() Config {
	return Config{Dt: 0.02, TimeoutMargin: 2}
}

type Result struct {
	Samples    []Sample
	Metrics    map[string]float64
	Finished   bool
	StepsTaken int
}

// Final is the last recorded sample.
func (r *Result) Final() Sample {
	if len(r.Samples) == 0 {
		return Sample{}
	}
	return r.Samples[len(r.Samples)-1]
}

// WheelReadings turns a wheel setpoint into what the encoders report after
// dt, accumulating distance on prev.
func WheelReadings(prev, cmd kinematics.WheelState, dt float64, noise func(d float64) float64) kinematics.WheelState {
	switch c := cmd.(type) {
	case kinematics.DifferentialState:
		p, _ := prev.(kinematics.DifferentialState)
		dl, dr := c.LeftVelocity*dt, c.RightVelocity*dt
		c.LeftDistance = p.LeftDistance + dl + noise(dl)
		c.RightDistance = p.RightDistance + dr + noise(dr)
		return c
	case kinematics.SwerveState:
		p, _ := prev.(kinematics.SwerveState)
		out := c.Clone()
		for i := range out.Modules {
			d := out.Modules[i].Velocity * dt
			base := 0.0
			if i < len(p.Modules) {
				base = p.Modules[i].Distance
			}
			out.Modules[i].Distance = base + d + noise(d)
		}
		return out
	}
	return prev
}
