package control

import (
	"math"
	"strings"

	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/trajectory"
)

// PoseController tracks a trajectory with one PIDF per axis on the
// robot-frame pose error plus feedforward from the reference velocity,
// acceleration and curvature.
type PoseController struct {
	X, Y, Theta *PIDF

	// FFVelocity scales the reference velocity, FFAcceleration the
	// reference acceleration, into the linear command.
	FFVelocity     float64
	FFAcceleration float64

	MaxVelocity        float64
	MaxAngularVelocity float64

	// Holonomic drives may strafe. Otherwise the lateral correction is
	// applied through rotation and Vy is always zero.
	Holonomic bool

	lastErr geometry.Pose2D
}

func NewPoseController(x, y, theta *PIDF) *PoseController {
	theta.EnableContinuousInput(-math.Pi, math.Pi)
	return &PoseController{
		X:                  x,
		Y:                  y,
		Theta:              theta,
		FFVelocity:         1,
		MaxVelocity:        math.Inf(1),
		MaxAngularVelocity: math.Inf(1),
		Holonomic:          true,
	}
}

// Calculate returns the chassis speed command for the current pose. A
// non-finite pose yields the feedforward alone.
func (c *PoseController) Calculate(pose geometry.Pose2D, ref trajectory.State) geometry.ChassisSpeed {
	v, a, k := ref.Velocity, ref.Acceleration, ref.Curvature
	if !geometry.Finite(v, a, k) {
		v, a, k = 0, 0, 0
	}
	if !geometry.Finite(pose.X, pose.Y, pose.Heading) {
		pose = ref.Pose
	}

	e := geometry.Rotate(ref.Pose.Translation().Sub(pose.Translation()), -pose.Heading)
	heading := geometry.AngleDelta(pose.Heading, ref.Pose.Heading)
	c.lastErr = geometry.Pose2D{X: e.X, Y: e.Y, Heading: heading}

	ff := c.FFVelocity*v + c.FFAcceleration*a
	sin, cos := math.Sincos(heading)

	xOut := c.X.Calculate(0, e.X)
	yOut := c.Y.Calculate(0, e.Y)
	thOut := c.Theta.Calculate(pose.Heading, ref.Pose.Heading)

	var out geometry.ChassisSpeed
	if c.Holonomic {
		out = geometry.ChassisSpeed{
			Vx:    ff*cos + xOut,
			Vy:    ff*sin + yOut,
			Omega: v*k + thOut,
		}
	} else {
		dir := 0.0
		if v > 0 {
			dir = 1
		} else if v < 0 {
			dir = -1
		}
		out = geometry.ChassisSpeed{
			Vx:    ff*cos + xOut,
			Omega: v*k + thOut + dir*yOut,
		}
	}
	return c.clamp(out)
}

func (c *PoseController) clamp(s geometry.ChassisSpeed) geometry.ChassisSpeed {
	if lin := s.Linear(); lin > c.MaxVelocity && lin > 0 {
		s.Vx *= c.MaxVelocity / lin
		s.Vy *= c.MaxVelocity / lin
	}
	s.Omega = geometry.Clamp(s.Omega, -c.MaxAngularVelocity, c.MaxAngularVelocity)
	return s
}

// Error is the robot-frame pose error seen by the last Calculate.
func (c *PoseController) Error() geometry.Pose2D { return c.lastErr }

// AtReference reports whether the last error was within the tolerances.
func (c *PoseController) AtReference(linear, angular float64) bool {
	return math.Hypot(c.lastErr.X, c.lastErr.Y) <= linear && math.Abs(c.lastErr.Heading) <= angular
}

func (c *PoseController) Reset() {
	c.X.Reset()
	c.Y.Reset()
	c.Theta.Reset()
	c.lastErr = geometry.Pose2D{}
}

// GetParams returns the axis gains as x.Kp, theta.Kd and so on.
func (c *PoseController) GetParams() map[string]float64 {
	out := make(map[string]float64)
	for prefix, pid := range c.axes() {
		for k, v := range pid.GetParams() {
			out[prefix+"."+k] = v
		}
	}
	out["ff.velocity"] = c.FFVelocity
	out["ff.acceleration"] = c.FFAcceleration
	return out
}

func (c *PoseController) SetParam(name string, value float64) {
	switch name {
	case "ff.velocity":
		c.FFVelocity = value
		return
	case "ff.acceleration":
		c.FFAcceleration = value
		return
	}
	for prefix, pid := range c.axes() {
		if gain, ok := strings.CutPrefix(name, prefix+"."); ok {
			pid.SetParam(gain, value)
		}
	}
}

func (c *PoseController) axes() map[string]*PIDF {
	return map[string]*PIDF{"x": c.X, "y": c.Y, "theta": c.Theta}
}
