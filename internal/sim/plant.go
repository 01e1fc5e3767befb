package sim

import (
	"math"

	"github.com/san-kum/drivekit/internal/geometry"
)

// Plant is a kinematic robot body with state (x, y, heading) that follows the
// commanded chassis speed exactly.
type Plant struct{}

func (Plant) StateDim() int { return 3 }

func (Plant) Derivative(x State, u geometry.ChassisSpeed, t float64) State {
	sin, cos := math.Sincos(x[2])
	return State{
		u.Vx*cos - u.Vy*sin,
		u.Vx*sin + u.Vy*cos,
		u.Omega,
	}
}

func PoseState(p geometry.Pose2D) State {
	return State{p.X, p.Y, p.Heading}
}

func StatePose(x State) geometry.Pose2D {
	return geometry.NewPose(x[0], x[1], x[2])
}
