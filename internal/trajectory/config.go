package trajectory

import (
	"math"

	"github.com/san-kum/drivekit/internal/geometry"
)

// Config bounds a generated trajectory. All values are magnitudes.
type Config struct {
	MaxVelocity     float64
	MaxAcceleration float64
	StartVelocity   float64
	EndVelocity     float64
	// Reversed drives the path backwards; reported velocities are negative.
	Reversed bool
}

func NewConfig(maxVelocity, maxAcceleration float64) Config {
	return Config{MaxVelocity: maxVelocity, MaxAcceleration: maxAcceleration}
}

func (c Config) validate() error {
	if !geometry.Finite(c.MaxVelocity, c.MaxAcceleration, c.StartVelocity, c.EndVelocity) {
		return genErr("config", -1, ErrInfeasible, "non-finite limit")
	}
	if c.MaxVelocity <= 0 {
		return genErr("config", -1, ErrInfeasible, "max velocity %v must be positive", c.MaxVelocity)
	}
	if c.MaxAcceleration <= 0 {
		return genErr("config", -1, ErrInfeasible, "max acceleration %v must be positive", c.MaxAcceleration)
	}
	if c.StartVelocity < 0 || c.EndVelocity < 0 {
		return genErr("config", -1, ErrInfeasible, "start/end velocity must be non-negative")
	}
	if c.StartVelocity > c.MaxVelocity {
		return genErr("config", -1, ErrInfeasible, "start velocity %v exceeds max %v", c.StartVelocity, c.MaxVelocity)
	}
	if c.EndVelocity > c.MaxVelocity {
		return genErr("config", -1, ErrInfeasible, "end velocity %v exceeds max %v", c.EndVelocity, c.MaxVelocity)
	}
	return nil
}

// Waypoint is a pose the path passes through, heading giving the direction of
// travel.
type Waypoint struct {
	Pose geometry.Pose2D `json:"pose" yaml:"pose"`
	// MaxVelocity caps the speed at this waypoint when positive.
	MaxVelocity float64 `json:"max_velocity,omitempty" yaml:"max_velocity,omitempty"`
	// Curvature is the curvature (1/m) the trajectory should report at this
	// waypoint.
	Curvature float64 `json:"curvature,omitempty" yaml:"curvature,omitempty"`
}

func NewWaypoint(x, y, heading float64) Waypoint {
	return Waypoint{Pose: geometry.NewPose(x, y, heading)}
}

func (w Waypoint) flipped() Waypoint {
	w.Pose.Heading = geometry.NormalizeAngle(w.Pose.Heading + math.Pi)
	w.Curvature = -w.Curvature
	return w
}

// PathPoint is a sample of the geometric path before timing.
type PathPoint struct {
	Pose geometry.Pose2D
	// Distance is arc length from the start of the path.
	Distance  float64
	Curvature float64
}
