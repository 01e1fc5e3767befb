package kinematics

import "github.com/san-kum/drivekit/internal/geometry"

// Model is the forward/inverse transform for one drivetrain topology.
type Model interface {
	// Forward converts wheel velocities into a chassis speed.
	Forward(state WheelState) geometry.ChassisSpeed

	// Inverse converts a chassis speed into wheel targets.
	Inverse(speed geometry.ChassisSpeed) WheelState

	// Displacement converts the change in wheel distances between two
	// readings into a robot-frame twist.
	Displacement(prev, cur WheelState) geometry.Twist2D

	// Desaturate scales wheel targets so none exceeds maxSpeed while keeping
	// their ratios.
	Desaturate(state WheelState, maxSpeed float64) WheelState

	// Zero returns an at-rest state with the right shape.
	Zero() WheelState

	model()
}
