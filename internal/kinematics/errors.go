package kinematics

import "errors"

var (
	// ErrSingularity indicates drivetrain geometry with no unique solution,
	// such as a zero track width or coincident swerve modules.
	ErrSingularity = errors.New("kinematics: degenerate drivetrain geometry")
)
