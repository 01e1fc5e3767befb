package control

import (
	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/trajectory"
)

// Tracker computes the chassis speed that follows a trajectory reference
// from the current pose.
type Tracker interface {
	Calculate(pose geometry.Pose2D, ref trajectory.State) geometry.ChassisSpeed
	Reset()
}

// Tunable is implemented by trackers whose gains can be changed by name.
type Tunable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64)
}

var (
	_ Tracker = (*PoseController)(nil)
	_ Tracker = (*Ramsete)(nil)
	_ Tunable = (*PoseController)(nil)
	_ Tunable = (*Ramsete)(nil)
)
