package control

import (
	"math"

	"github.com/san-kum/drivekit/internal/geometry"
)

// DefaultPeriod is the control loop period assumed for derivative and
// integral terms.
const DefaultPeriod = 0.02

type PIDF struct {
	Kp float64
	Ki float64
	Kd float64
	// Kf adds Kf*sign(error), for static friction.
	Kf float64

	period     float64
	minI, maxI float64
	minOut     float64
	maxOut     float64

	continuous bool
	minInput   float64
	maxInput   float64

	integral float64
	prevErr  float64
	lastOut  float64
	first    bool
}

func NewPIDF(kp, ki, kd, kf float64) *PIDF {
	return &PIDF{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Kf:     kf,
		period: DefaultPeriod,
		minI:   -1,
		maxI:   1,
		minOut: math.Inf(-1),
		maxOut: math.Inf(1),
		first:  true,
	}
}

// SetPeriod sets the loop period in seconds. Non-positive values are ignored.
func (p *PIDF) SetPeriod(dt float64) {
	if geometry.Finite(dt) && dt > 0 {
		p.period = dt
	}
}

func (p *PIDF) Period() float64 { return p.period }

// SetIntegralRange bounds the integral contribution Ki*integral to
// [min, max] in output units.
func (p *PIDF) SetIntegralRange(min, max float64) {
	p.minI, p.maxI = math.Min(min, max), math.Max(min, max)
}

func (p *PIDF) SetOutputRange(min, max float64) {
	p.minOut, p.maxOut = math.Min(min, max), math.Max(min, max)
}

// EnableContinuousInput treats min and max as the same point, so the error
// always takes the short way around. Used for headings.
func (p *PIDF) EnableContinuousInput(min, max float64) {
	p.continuous = true
	p.minInput, p.maxInput = min, max
}

// Calculate returns the output driving measurement toward setpoint. A
// non-finite input repeats the previous output.
func (p *PIDF) Calculate(measurement, setpoint float64) float64 {
	if !geometry.Finite(measurement, setpoint) {
		return p.lastOut
	}

	err := setpoint - measurement
	if p.continuous {
		half := (p.maxInput - p.minInput) / 2
		err = geometry.InputModulus(err, -half, half)
	}

	derivative := 0.0
	if !p.first {
		derivative = (err - p.prevErr) / p.period
	}

	if p.Ki != 0 {
		lo, hi := p.minI/p.Ki, p.maxI/p.Ki
		if lo > hi {
			lo, hi = hi, lo
		}
		p.integral = geometry.Clamp(p.integral+err*p.period, lo, hi)
	}

	out := p.Kp*err + p.Ki*p.integral + p.Kd*derivative
	if err != 0 {
		out += p.Kf * math.Copysign(1, err)
	}
	out = geometry.Clamp(out, p.minOut, p.maxOut)

	p.prevErr = err
	p.lastOut = out
	p.first = false
	return out
}

// Error is the error seen by the last Calculate.
func (p *PIDF) Error() float64 { return p.prevErr }

// AtSetpoint reports whether the last error was within tolerance.
func (p *PIDF) AtSetpoint(tolerance float64) bool {
	return !p.first && math.Abs(p.prevErr) <= tolerance
}

// Reset clears integral and derivative state
func (p *PIDF) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.lastOut = 0
	p.first = true
}

// GetParams returns tunable parameters for live adjustment
func (p *PIDF) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp": p.Kp,
		"Ki": p.Ki,
		"Kd": p.Kd,
		"Kf": p.Kf,
	}
}

// SetParam adjusts a PIDF parameter
func (p *PIDF) SetParam(name string, value float64) {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "Kf":
		p.Kf = value
	}
}
