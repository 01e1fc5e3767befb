package config

import (
	"fmt"
	"os"

	"github.com/golang/geo/r2"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/drivekit/internal/control"
	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/kinematics"
	"github.com/san-kum/drivekit/internal/sim"
	"github.com/san-kum/drivekit/internal/trajectory"
)

const (
	DefaultDt              = 0.02
	DefaultTrackWidth      = 0.6
	DefaultMaxVelocity     = 2.0
	DefaultMaxAcceleration = 1.0
	DefaultKp              = 2.0
	DefaultKd              = 0.05
	DefaultThetaKp         = 3.0
	DefaultRamseteB        = 2.0
	DefaultRamseteZeta     = 0.7
)

type Config struct {
	Drivetrain DrivetrainConfig `yaml:"drivetrain"`
	Trajectory TrajectoryConfig `yaml:"trajectory"`
	Controller ControllerConfig `yaml:"controller"`
	Sim        SimConfig        `yaml:"sim"`
	CAN        CANConfig        `yaml:"can"`
	Waypoints  []WaypointConfig `yaml:"waypoints"`
}

type DrivetrainConfig struct {
	// Type is differential or swerve.
	Type       string  `yaml:"type"`
	TrackWidth float64 `yaml:"track_width"`
	// WheelBase with no Modules gives a rectangular four-module swerve.
	WheelBase     float64                  `yaml:"wheel_base,omitempty"`
	Modules       []ModuleConfig           `yaml:"modules,omitempty"`
	MaxWheelSpeed float64                  `yaml:"max_wheel_speed"`
	Feedforward   control.MotorFeedforward `yaml:"feedforward"`
}

type ModuleConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type TrajectoryConfig struct {
	MaxVelocity     float64 `yaml:"max_velocity"`
	MaxAcceleration float64 `yaml:"max_acceleration"`
	StartVelocity   float64 `yaml:"start_velocity"`
	EndVelocity     float64 `yaml:"end_velocity"`
	Reversed        bool    `yaml:"reversed"`
	// MaxCentripetal adds a centripetal acceleration limit when positive.
	MaxCentripetal float64 `yaml:"max_centripetal"`
}

type GainConfig struct {
	Kp     float64 `yaml:"kp"`
	Ki     float64 `yaml:"ki"`
	Kd     float64 `yaml:"kd"`
	Kf     float64 `yaml:"kf"`
	ILimit float64 `yaml:"i_limit"`
}

type ControllerConfig struct {
	// Type is pidf or ramsete.
	Type               string     `yaml:"type"`
	Period             float64    `yaml:"period"`
	X                  GainConfig `yaml:"x"`
	Y                  GainConfig `yaml:"y"`
	Theta              GainConfig `yaml:"theta"`
	FFVelocity         float64    `yaml:"ff_velocity"`
	FFAcceleration     float64    `yaml:"ff_acceleration"`
	MaxVelocity        float64    `yaml:"max_velocity"`
	MaxAngularVelocity float64    `yaml:"max_angular_velocity"`
	B                  float64    `yaml:"b"`
	Zeta               float64    `yaml:"zeta"`
}

type SimConfig struct {
	Integrator    string  `yaml:"integrator"`
	Dt            float64 `yaml:"dt"`
	TimeoutMargin float64 `yaml:"timeout_margin"`
	Seed          int64   `yaml:"seed"`
	WheelNoise    float64 `yaml:"wheel_noise"`
	HeadingNoise  float64 `yaml:"heading_noise"`
	Slip          float64 `yaml:"slip"`
	Runs          int     `yaml:"runs"`
}

type CANConfig struct {
	Interface    string `yaml:"interface"`
	SetpointBase uint32 `yaml:"setpoint_base"`
	FeedbackBase uint32 `yaml:"feedback_base"`
}

type WaypointConfig struct {
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	HeadingDeg  float64 `yaml:"heading_deg"`
	MaxVelocity float64 `yaml:"max_velocity,omitempty"`
	Curvature   float64 `yaml:"curvature,omitempty"`
}

func DefaultConfig() *Config {
	gains := GainConfig{Kp: DefaultKp, Kd: DefaultKd}
	return &Config{
		Drivetrain: DrivetrainConfig{
			Type:          "differential",
			TrackWidth:    DefaultTrackWidth,
			MaxWheelSpeed: 3.0,
		},
		Trajectory: TrajectoryConfig{
			MaxVelocity:     DefaultMaxVelocity,
			MaxAcceleration: DefaultMaxAcceleration,
		},
		Controller: ControllerConfig{
			Type:       "pidf",
			Period:     DefaultDt,
			X:          gains,
			Y:          gains,
			Theta:      GainConfig{Kp: DefaultThetaKp},
			FFVelocity: 1,
			B:          DefaultRamseteB,
			Zeta:       DefaultRamseteZeta,
		},
		Sim: SimConfig{
			Integrator:    "rk4",
			Dt:            DefaultDt,
			TimeoutMargin: 2,
			Runs:          1,
		},
		CAN: CANConfig{
			Interface:    "vcan0",
			SetpointBase: 0x200,
			FeedbackBase: 0x280,
		},
		Waypoints: []WaypointConfig{
			{X: 0, Y: 0, HeadingDeg: 0},
			{X: 2, Y: 1, HeadingDeg: 45},
			{X: 4, Y: 1.5, HeadingDeg: 0},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem in the config at once.
func (c *Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf(format, args...))
		}
	}

	d := c.Drivetrain
	switch d.Type {
	case "differential":
		check(d.TrackWidth > 0, "drivetrain.track_width must be positive, got %v", d.TrackWidth)
	case "swerve":
		check(len(d.Modules) >= 2 || (d.TrackWidth > 0 && d.WheelBase > 0),
			"drivetrain: swerve needs modules or track_width and wheel_base")
	default:
		check(false, "drivetrain.type %q is not differential or swerve", d.Type)
	}
	check(d.MaxWheelSpeed >= 0, "drivetrain.max_wheel_speed must be non-negative")

	tr := c.Trajectory
	check(tr.MaxVelocity > 0, "trajectory.max_velocity must be positive, got %v", tr.MaxVelocity)
	check(tr.MaxAcceleration > 0, "trajectory.max_acceleration must be positive, got %v", tr.MaxAcceleration)
	check(tr.StartVelocity >= 0 && tr.StartVelocity <= tr.MaxVelocity, "trajectory.start_velocity must be in [0, max_velocity]")
	check(tr.EndVelocity >= 0 && tr.EndVelocity <= tr.MaxVelocity, "trajectory.end_velocity must be in [0, max_velocity]")
	check(tr.MaxCentripetal >= 0, "trajectory.max_centripetal must be non-negative")

	ct := c.Controller
	switch ct.Type {
	case "pidf":
	case "ramsete":
		check(ct.B > 0, "controller.b must be positive")
		check(ct.Zeta > 0 && ct.Zeta < 1, "controller.zeta must be in (0, 1)")
		check(d.Type == "differential", "controller: ramsete needs a differential drivetrain")
	default:
		check(false, "controller.type %q is not pidf or ramsete", ct.Type)
	}
	check(ct.Period > 0, "controller.period must be positive")
	check(ct.MaxVelocity >= 0 && ct.MaxAngularVelocity >= 0, "controller output limits must be non-negative")

	s := c.Sim
	check(s.Dt > 0, "sim.dt must be positive, got %v", s.Dt)
	check(s.TimeoutMargin >= 0, "sim.timeout_margin must be non-negative")
	check(s.Slip >= 0 && s.Slip < 1, "sim.slip must be in [0, 1)")
	check(s.WheelNoise >= 0 && s.HeadingNoise >= 0, "sim noise must be non-negative")
	check(s.Runs >= 0, "sim.runs must be non-negative")

	check(len(c.Waypoints) >= 2, "need at least 2 waypoints, got %d", len(c.Waypoints))
	return err
}

// BuildKinematics constructs the drivetrain model.
func (c *Config) BuildKinematics() (kinematics.Model, error) {
	d := c.Drivetrain
	switch d.Type {
	case "differential":
		m, err := kinematics.NewDifferential(d.TrackWidth)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "swerve":
		var (
			m   *kinematics.Swerve
			err error
		)
		if len(d.Modules) == 0 {
			m, err = kinematics.NewSwerveRectangular(d.TrackWidth, d.WheelBase)
		} else {
			pos := make([]r2.Point, len(d.Modules))
			for i, mc := range d.Modules {
				pos[i] = r2.Point{X: mc.X, Y: mc.Y}
			}
			m, err = kinematics.NewSwerve(pos...)
		}
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown drivetrain type: %s", d.Type)
}

func (c *Config) BuildTrajectoryConfig() trajectory.Config {
	t := c.Trajectory
	return trajectory.Config{
		MaxVelocity:     t.MaxVelocity,
		MaxAcceleration: t.MaxAcceleration,
		StartVelocity:   t.StartVelocity,
		EndVelocity:     t.EndVelocity,
		Reversed:        t.Reversed,
	}
}

// BuildConstraints returns the constraint set implied by the config for model.
func (c *Config) BuildConstraints(model kinematics.Model) []trajectory.Constraint {
	var out []trajectory.Constraint
	if c.Trajectory.MaxCentripetal > 0 {
		out = append(out, trajectory.CentripetalAcceleration{Max: c.Trajectory.MaxCentripetal})
	}
	if limit := c.Drivetrain.MaxWheelSpeed; limit > 0 {
		switch m := model.(type) {
		case *kinematics.Differential:
			out = append(out, trajectory.DifferentialDriveLimit{Kinematics: m, MaxWheelSpeed: limit})
		case *kinematics.Swerve:
			out = append(out, trajectory.SwerveDriveLimit{Kinematics: m, MaxModuleSpeed: limit})
		}
	}
	return out
}

func (g GainConfig) build(period float64) *control.PIDF {
	p := control.NewPIDF(g.Kp, g.Ki, g.Kd, g.Kf)
	p.SetPeriod(period)
	if g.ILimit > 0 {
		p.SetIntegralRange(-g.ILimit, g.ILimit)
	}
	return p
}

// BuildTracker constructs the trajectory tracker.
func (c *Config) BuildTracker() (control.Tracker, error) {
	ct := c.Controller
	switch ct.Type {
	case "pidf":
		pc := control.NewPoseController(ct.X.build(ct.Period), ct.Y.build(ct.Period), ct.Theta.build(ct.Period))
		pc.FFVelocity = ct.FFVelocity
		pc.FFAcceleration = ct.FFAcceleration
		pc.Holonomic = c.Drivetrain.Type == "swerve"
		if ct.MaxVelocity > 0 {
			pc.MaxVelocity = ct.MaxVelocity
		}
		if ct.MaxAngularVelocity > 0 {
			pc.MaxAngularVelocity = ct.MaxAngularVelocity
		}
		return pc, nil
	case "ramsete":
		r := control.NewRamsete(ct.B, ct.Zeta)
		if ct.MaxVelocity > 0 {
			r.MaxVelocity = ct.MaxVelocity
		}
		if ct.MaxAngularVelocity > 0 {
			r.MaxAngularVelocity = ct.MaxAngularVelocity
		}
		return r, nil
	}
	return nil, fmt.Errorf("unknown controller type: %s", ct.Type)
}

func (c *Config) BuildWaypoints() []trajectory.Waypoint {
	out := make([]trajectory.Waypoint, len(c.Waypoints))
	for i, w := range c.Waypoints {
		out[i] = trajectory.Waypoint{
			Pose:        geometry.NewPose(w.X, w.Y, geometry.Radians(w.HeadingDeg)),
			MaxVelocity: w.MaxVelocity,
			Curvature:   w.Curvature,
		}
	}
	return out
}

// SetWaypoints replaces the waypoint list, for path files loaded at the
// command line.
func (c *Config) SetWaypoints(wps []trajectory.Waypoint) {
	c.Waypoints = make([]WaypointConfig, len(wps))
	for i, w := range wps {
		c.Waypoints[i] = WaypointConfig{
			X:           w.Pose.X,
			Y:           w.Pose.Y,
			HeadingDeg:  geometry.Degrees(w.Pose.Heading),
			MaxVelocity: w.MaxVelocity,
			Curvature:   w.Curvature,
		}
	}
}

func (c *Config) BuildSimConfig() sim.Config {
	s := c.Sim
	return sim.Config{
		Dt:            s.Dt,
		TimeoutMargin: s.TimeoutMargin,
		Seed:          s.Seed,
		WheelNoise:    s.WheelNoise,
		HeadingNoise:  s.HeadingNoise,
		Slip:          s.Slip,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Drivetrain.Modules = append([]ModuleConfig(nil), c.Drivetrain.Modules...)
	out.Waypoints = append([]WaypointConfig(nil), c.Waypoints...)
	return &out
}
