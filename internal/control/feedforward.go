package control

import "math"

// MotorFeedforward maps wheel velocity and acceleration to volts:
// KS*sign(v) + KV*v + KA*a.
type MotorFeedforward struct {
	KS float64 `yaml:"ks" json:"ks"`
	KV float64 `yaml:"kv" json:"kv"`
	KA float64 `yaml:"ka" json:"ka"`
}

func (f MotorFeedforward) Calculate(velocity, acceleration float64) float64 {
	out := f.KV*velocity + f.KA*acceleration
	if velocity != 0 {
		out += f.KS * math.Copysign(1, velocity)
	}
	return out
}

// MaxVelocity is the highest steady speed reachable with maxVoltage while
// accelerating at acceleration.
func (f MotorFeedforward) MaxVelocity(maxVoltage, acceleration float64) float64 {
	if f.KV == 0 {
		return math.Inf(1)
	}
	return (maxVoltage - f.KS - f.KA*acceleration) / f.KV
}

func (f MotorFeedforward) IsZero() bool {
	return f.KS == 0 && f.KV == 0 && f.KA == 0
}
