package config

// Presets are keyed by drivetrain type, then preset name.
var Presets = map[string]map[string]*Config{
	"differential": {
		"straight": preset(func(c *Config) {
			c.Waypoints = []WaypointConfig{{X: 0, Y: 0}, {X: 3, Y: 0}}
		}),
		"s_curve": preset(func(c *Config) {
			c.Trajectory.MaxCentripetal = 1.5
			c.Waypoints = []WaypointConfig{
				{X: 0, Y: 0, HeadingDeg: 0},
				{X: 1.5, Y: 1, HeadingDeg: 45},
				{X: 3, Y: 1.5, HeadingDeg: 0},
				{X: 4.5, Y: 0.5, HeadingDeg: -60},
			}
		}),
		"reverse": preset(func(c *Config) {
			c.Trajectory.Reversed = true
			c.Waypoints = []WaypointConfig{{X: 0, Y: 0}, {X: -2, Y: -1, HeadingDeg: 30}}
		}),
		"ramsete": preset(func(c *Config) {
			c.Controller.Type = "ramsete"
			c.Trajectory.MaxCentripetal = 1.5
		}),
		"noisy": preset(func(c *Config) {
			c.Sim.WheelNoise = 0.02
			c.Sim.HeadingNoise = 0.005
			c.Sim.Slip = 0.03
			c.Sim.Runs = 8
		}),
	},
	"swerve": {
		"strafe": preset(func(c *Config) {
			c.Drivetrain = DrivetrainConfig{Type: "swerve", TrackWidth: 0.55, WheelBase: 0.55, MaxWheelSpeed: 4}
			c.Waypoints = []WaypointConfig{{X: 0, Y: 0, HeadingDeg: 90}, {X: 0, Y: 2, HeadingDeg: 90}}
		}),
		"s_curve": preset(func(c *Config) {
			c.Drivetrain = DrivetrainConfig{Type: "swerve", TrackWidth: 0.55, WheelBase: 0.55, MaxWheelSpeed: 4}
			c.Trajectory.MaxVelocity = 3
			c.Trajectory.MaxAcceleration = 2
			c.Trajectory.MaxCentripetal = 2
		}),
		"three_wheel": preset(func(c *Config) {
			c.Drivetrain = DrivetrainConfig{
				Type:          "swerve",
				MaxWheelSpeed: 3,
				Modules:       []ModuleConfig{{X: 0.3, Y: 0}, {X: -0.15, Y: 0.26}, {X: -0.15, Y: -0.26}},
			}
		}),
	},
}

func preset(apply func(*Config)) *Config {
	c := DefaultConfig()
	apply(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(drivetrain, name string) *Config {
	drivetrainPresets, ok := Presets[drivetrain]
	if !ok {
		return nil
	}
	cfg, ok := drivetrainPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(drivetrain string) []string {
	drivetrainPresets, ok := Presets[drivetrain]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(drivetrainPresets))
	for name := range drivetrainPresets {
		names = append(names, name)
	}
	return names
}
