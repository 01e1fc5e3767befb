// Package geometry provides the planar value types shared by the drivetrain
// core:
//
//   - [Pose2D]: field-frame position and heading
//   - [Twist2D]: small robot-frame displacement used for integration
//   - [ChassisSpeed]: robot-frame linear and angular velocity
//
// Headings are radians, normalized to (-pi, pi] by [NormalizeAngle]. All types
// are plain values; every operation returns a new value and nothing in this
// package mutates its receiver.
//
// # Pose composition
//
// Poses compose with the SE(2) exponential map, so integrating a constant
// twist follows the arc rather than the chord:
//
//	next := pose.Exp(geometry.Twist2D{Dx: 1, Dtheta: math.Pi / 2})
package geometry
