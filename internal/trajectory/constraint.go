package trajectory

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/kinematics"
)

// Constraint bounds the profile at a path point. Either method returns
// math.Inf(1) when it does not limit that quantity.
type Constraint interface {
	MaxVelocity(p PathPoint) float64
	MaxAcceleration(p PathPoint) float64
}

// AccelerationLimit caps acceleration everywhere.
type AccelerationLimit struct {
	Max float64
}

func (AccelerationLimit) MaxVelocity(PathPoint) float64       { return math.Inf(1) }
func (c AccelerationLimit) MaxAcceleration(PathPoint) float64 { return c.Max }

// MaxVelocity caps velocity everywhere.
type MaxVelocity struct {
	Max float64
}

func (c MaxVelocity) MaxVelocity(PathPoint) float64  { return c.Max }
func (MaxVelocity) MaxAcceleration(PathPoint) float64 { return math.Inf(1) }

// CentripetalAcceleration limits v²·|κ|.
type CentripetalAcceleration struct {
	Max float64
}

func (c CentripetalAcceleration) MaxVelocity(p PathPoint) float64 {
	k := math.Abs(p.Curvature)
	if k < 1e-9 {
		return math.Inf(1)
	}
	return math.Sqrt(c.Max / k)
}

func (CentripetalAcceleration) MaxAcceleration(PathPoint) float64 { return math.Inf(1) }

// DifferentialDriveLimit keeps the outer wheel at or below MaxWheelSpeed.
type DifferentialDriveLimit struct {
	Kinematics    *kinematics.Differential
	MaxWheelSpeed float64
}

func (c DifferentialDriveLimit) MaxVelocity(p PathPoint) float64 {
	return c.MaxWheelSpeed / (1 + c.Kinematics.TrackWidth()/2*math.Abs(p.Curvature))
}

func (DifferentialDriveLimit) MaxAcceleration(PathPoint) float64 { return math.Inf(1) }

// SwerveDriveLimit keeps every module at or below MaxModuleSpeed while the
// chassis faces along the path.
type SwerveDriveLimit struct {
	Kinematics     *kinematics.Swerve
	MaxModuleSpeed float64
}

func (c SwerveDriveLimit) MaxVelocity(p PathPoint) float64 {
	unit := c.Kinematics.ToModuleStates(geometry.ChassisSpeed{Vx: 1, Omega: p.Curvature})
	peak := 0.0
	for _, m := range unit.Modules {
		peak = math.Max(peak, math.Abs(m.Velocity))
	}
	if peak < 1e-12 {
		return math.Inf(1)
	}
	return c.MaxModuleSpeed / peak
}

func (SwerveDriveLimit) MaxAcceleration(PathPoint) float64 { return math.Inf(1) }

// Region applies Inner only to points inside an axis-aligned rectangle.
type Region struct {
	Rect  r2.Rect
	Inner Constraint
}

func NewRegion(corner1, corner2 r2.Point, inner Constraint) Region {
	return Region{Rect: r2.RectFromPoints(corner1, corner2), Inner: inner}
}

func (c Region) MaxVelocity(p PathPoint) float64 {
	if c.Rect.ContainsPoint(p.Pose.Translation()) {
		return c.Inner.MaxVelocity(p)
	}
	return math.Inf(1)
}

func (c Region) MaxAcceleration(p PathPoint) float64 {
	if c.Rect.ContainsPoint(p.Pose.Translation()) {
		return c.Inner.MaxAcceleration(p)
	}
	return math.Inf(1)
}
