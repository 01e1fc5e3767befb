// Package follow runs one trajectory-tracking attempt per control tick:
// sample the reference, compute the chassis command and convert it to wheel
// setpoints.
package follow

import (
	"errors"
	"math"

	"github.com/edaniels/golog"

	"github.com/san-kum/drivekit/internal/control"
	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/kinematics"
	"github.com/san-kum/drivekit/internal/trajectory"
)

var ErrNoTrajectory = errors.New("follow: trajectory is nil or empty")

// Output is what one tick produces.
type Output struct {
	Speed  geometry.ChassisSpeed
	Wheels kinematics.WheelState
	// Volts is the per-wheel feedforward, nil without a MotorFeedforward.
	Volts    []float64
	Target   trajectory.State
	Finished bool
}

// Command is not safe for concurrent use; it is driven from the control
// loop only.
type Command struct {
	model         kinematics.Model
	tracker       control.Tracker
	logger        golog.Logger
	maxWheelSpeed float64
	feedforward   control.MotorFeedforward

	traj        *trajectory.Trajectory
	last        kinematics.WheelState
	lastElapsed float64
}

type Option func(*Command)

// WithMaxWheelSpeed desaturates wheel setpoints to maxSpeed.
func WithMaxWheelSpeed(maxSpeed float64) Option {
	return func(c *Command) { c.maxWheelSpeed = maxSpeed }
}

func WithFeedforward(ff control.MotorFeedforward) Option {
	return func(c *Command) { c.feedforward = ff }
}

func New(model kinematics.Model, tracker control.Tracker, logger golog.Logger, opts ...Option) *Command {
	c := &Command{
		model:         model,
		tracker:       tracker,
		logger:        logger,
		maxWheelSpeed: math.Inf(1),
		last:          model.Zero(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins tracking traj from elapsed time 0. The tracker is reset so
// no error history carries over from a previous trajectory.
func (c *Command) Start(traj *trajectory.Trajectory) error {
	if traj == nil || traj.Len() == 0 {
		return ErrNoTrajectory
	}
	c.tracker.Reset()
	c.traj = traj
	c.lastElapsed = 0
	c.logger.Infow("tracking started", "states", traj.Len(), "duration", traj.TotalTime())
	return nil
}

// Active reports whether a trajectory is being tracked.
func (c *Command) Active() bool { return c.traj != nil }

// Cancel drops the trajectory and resets the tracker. The odometer is not
// touched.
func (c *Command) Cancel() {
	if c.traj != nil {
		c.logger.Infow("tracking cancelled")
	}
	c.stop()
}

func (c *Command) stop() {
	c.traj = nil
	c.tracker.Reset()
}

// Tick computes the command for elapsed seconds since Start. When no
// trajectory is active, or elapsed has reached its end, the output is a zero
// speed with module angles held and Finished set.
func (c *Command) Tick(elapsed float64, pose geometry.Pose2D) Output {
	if c.traj == nil {
		return c.hold(trajectory.State{Pose: pose})
	}
	if !geometry.Finite(elapsed) {
		elapsed = c.lastElapsed
	}

	target := c.traj.Sample(elapsed)
	if elapsed >= c.traj.TotalTime() {
		c.logger.Infow("tracking finished", "elapsed", elapsed, "error", pose.Distance(target.Pose))
		c.stop()
		return c.hold(target)
	}

	speed := c.tracker.Calculate(pose, target)
	wheels := c.toWheels(speed)

	dt := elapsed - c.lastElapsed
	out := Output{
		Speed:  speed,
		Wheels: wheels,
		Volts:  c.volts(wheels, dt),
		Target: target,
	}
	c.logger.Debugw("tick", "t", elapsed, "pose", pose, "target", target.Pose, "speed", speed)

	c.last = wheels
	c.lastElapsed = elapsed
	return out
}

func (c *Command) hold(target trajectory.State) Output {
	wheels := c.toWheels(geometry.ChassisSpeed{})
	out := Output{Wheels: wheels, Volts: c.volts(wheels, 0), Target: target, Finished: true}
	c.last = wheels
	return out
}

func (c *Command) toWheels(speed geometry.ChassisSpeed) kinematics.WheelState {
	var ws kinematics.WheelState
	if sw, ok := c.model.(*kinematics.Swerve); ok {
		cur, _ := c.last.(kinematics.SwerveState)
		ws = sw.InverseFrom(speed, cur)
	} else {
		ws = c.model.Inverse(speed)
	}
	return c.model.Desaturate(ws, c.maxWheelSpeed)
}

// volts applies the motor feedforward to each wheel, with acceleration from
// the change against the previous setpoint.
func (c *Command) volts(wheels kinematics.WheelState, dt float64) []float64 {
	if c.feedforward.IsZero() {
		return nil
	}
	cur := WheelVelocities(wheels)
	prev := WheelVelocities(c.last)
	out := make([]float64, len(cur))
	for i, v := range cur {
		a := 0.0
		if dt > 0 && i < len(prev) {
			a = (v - prev[i]) / dt
		}
		out[i] = c.feedforward.Calculate(v, a)
	}
	return out
}

// WheelVelocities flattens a wheel state into one velocity per wheel or
// module, left then right for differential drives.
func WheelVelocities(ws kinematics.WheelState) []float64 {
	switch s := ws.(type) {
	case kinematics.DifferentialState:
		return []float64{s.LeftVelocity, s.RightVelocity}
	case kinematics.SwerveState:
		out := make([]float64, len(s.Modules))
		for i, m := range s.Modules {
			out[i] = m.Velocity
		}
		return out
	}
	return nil
}
