// Package odometry fuses wheel displacement and an external heading sensor
// into a field-frame pose estimate.
package odometry

import (
	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/kinematics"
)

// Odometer tracks the robot pose from periodic wheel and heading samples.
// Heading comes from the sensor, not from integrated wheel rotation. It is not
// safe for concurrent use.
type Odometer struct {
	model    kinematics.Model
	pose     geometry.Pose2D
	baseline kinematics.WheelState
	// offset maps sensor heading to field heading.
	offset   float64
	velocity geometry.ChassisSpeed
}

// New starts an odometer at pose, taking wheels and heading as the baseline
// readings there.
func New(model kinematics.Model, wheels kinematics.WheelState, heading float64, pose geometry.Pose2D) *Odometer {
	o := &Odometer{model: model}
	o.ResetPose(pose, wheels, heading)
	return o
}

// ResetPose overwrites the pose and the wheel and heading baselines, for
// example after a vision fix.
func (o *Odometer) ResetPose(pose geometry.Pose2D, wheels kinematics.WheelState, heading float64) {
	if !geometry.Finite(pose.X, pose.Y, pose.Heading) {
		pose = geometry.Pose2D{}
	}
	pose.Heading = geometry.NormalizeAngle(pose.Heading)
	o.pose = pose
	if wheels == nil {
		wheels = o.model.Zero()
	}
	o.baseline = baseline(o.model.Zero(), wheels)
	if !geometry.Finite(heading) {
		heading = 0
	}
	o.offset = pose.Heading - heading
	o.velocity = geometry.ChassisSpeed{}
}

// Update advances the pose by the wheel motion since the previous call. The
// robot-frame displacement is rotated by the mean of the old and new headings.
// Non-finite readings are treated as no motion and the last heading is kept.
func (o *Odometer) Update(wheels kinematics.WheelState, heading, dt float64) geometry.Pose2D {
	next := o.pose.Heading
	if geometry.Finite(heading) {
		next = geometry.NormalizeAngle(heading + o.offset)
	}
	if wheels == nil {
		wheels = o.baseline
	}

	tw := o.model.Displacement(o.baseline, wheels)
	dtheta := geometry.AngleDelta(o.pose.Heading, next)
	d := geometry.Rotate(tw.Translation(), o.pose.Heading+dtheta/2)

	o.pose = geometry.Pose2D{
		X:       o.pose.X + d.X,
		Y:       o.pose.Y + d.Y,
		Heading: next,
	}
	o.baseline = baseline(o.baseline, wheels)

	if geometry.Finite(dt) && dt > 0 {
		o.velocity = geometry.ChassisSpeed{Vx: tw.Dx / dt, Vy: tw.Dy / dt, Omega: dtheta / dt}
	}
	return o.pose
}

func (o *Odometer) Pose() geometry.Pose2D { return o.pose }

// Velocity is the robot-frame speed estimated over the last update.
func (o *Odometer) Velocity() geometry.ChassisSpeed { return o.velocity }

// Heading is the current field heading.
func (o *Odometer) Heading() float64 { return o.pose.Heading }

// baseline returns cur with any non-finite distance replaced by the value
// from prev, so a single bad sample does not poison later deltas.
func baseline(prev, cur kinematics.WheelState) kinematics.WheelState {
	switch c := cur.(type) {
	case kinematics.DifferentialState:
		p, _ := prev.(kinematics.DifferentialState)
		if !geometry.Finite(c.LeftDistance) {
			c.LeftDistance = p.LeftDistance
		}
		if !geometry.Finite(c.RightDistance) {
			c.RightDistance = p.RightDistance
		}
		return c
	case kinematics.SwerveState:
		p, _ := prev.(kinematics.SwerveState)
		out := c.Clone()
		for i := range out.Modules {
			if geometry.Finite(out.Modules[i].Distance) {
				continue
			}
			if i < len(p.Modules) {
				out.Modules[i].Distance = p.Modules[i].Distance
			} else {
				out.Modules[i].Distance = 0
			}
		}
		return out
	}
	return prev
}
