// Package kinematics converts between whole-chassis motion and per-wheel
// targets for the two supported drivetrain topologies:
//
//   - [Differential]: left/right wheel sets separated by a track width
//   - [Swerve]: independently steered modules at fixed offsets from the center
//
// Both implement the sealed [Model] interface; the topology is chosen once at
// construction and never changes. Geometry is validated by the constructors,
// which return [ErrSingularity] for a drivetrain that cannot be solved. After
// construction no method fails: malformed readings (wrong variant, NaN) map to
// zero motion.
//
// # Module optimization
//
// Swerve targets are optimized against the module's current angle so a module
// never turns more than 90 degrees between commands:
//
//	states := swerve.InverseFrom(speed, current)
package kinematics
