package kinematics

import (
	"fmt"

	"github.com/san-kum/drivekit/internal/geometry"
)

// WheelState is a reading from, or a command to, one drivetrain's wheels. It is
// implemented only by DifferentialState and SwerveState.
type WheelState interface {
	wheelState()
}

// DifferentialState holds wheel velocities (m/s) and cumulative wheel
// distances (m) for each side.
type DifferentialState struct {
	LeftVelocity  float64 `json:"left_velocity"`
	RightVelocity float64 `json:"right_velocity"`
	LeftDistance  float64 `json:"left_distance"`
	RightDistance float64 `json:"right_distance"`
}

func (DifferentialState) wheelState() {}

func (s DifferentialState) String() string {
	return fmt.Sprintf("L=%.3f R=%.3f", s.LeftVelocity, s.RightVelocity)
}

// ModuleState is one swerve module: drive velocity (m/s), steering angle
// (rad, normalized) and cumulative drive distance (m).
type ModuleState struct {
	Velocity float64 `json:"velocity"`
	Angle    float64 `json:"angle"`
	Distance float64 `json:"distance"`
}

func (m ModuleState) String() string {
	return fmt.Sprintf("%.3f@%.1f°", m.Velocity, geometry.Degrees(m.Angle))
}

// SwerveState orders modules the same way as the Swerve they belong to.
type SwerveState struct {
	Modules []ModuleState `json:"modules"`
}

func (SwerveState) wheelState() {}

// Clone returns an independent copy.
func (s SwerveState) Clone() SwerveState {
	c := make([]ModuleState, len(s.Modules))
	copy(c, s.Modules)
	return SwerveState{Modules: c}
}

func sanitize(v float64) float64 {
	if !geometry.Finite(v) {
		return 0
	}
	return v
}
