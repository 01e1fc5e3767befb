// Package control provides the feedback laws that turn a pose error against a
// trajectory reference into a chassis speed command.
//
//   - [PIDF]: scalar proportional-integral-derivative law with static
//     friction term, integral clamp and output clamp
//   - [PoseController]: per-axis PIDF on the robot-frame pose error plus
//     trajectory feedforward, for holonomic or differential drives
//   - [Ramsete]: nonlinear unicycle tracker for differential drives
//   - [MotorFeedforward]: per-wheel voltage feedforward
//
// # Usage
//
//	ctrl := control.NewPoseController(
//		control.NewPIDF(2, 0, 0.1, 0),
//		control.NewPIDF(2, 0, 0.1, 0),
//		control.NewPIDF(3, 0, 0, 0),
//	)
//	speed := ctrl.Calculate(pose, traj.Sample(t))
//
// Call Reset before tracking a new trajectory. Controllers expose their gains
// through GetParams/SetParam for tuning.
package control
