package kinematics

import (
	"fmt"
	"math"

	"github.com/san-kum/drivekit/internal/geometry"
)

// Differential is tank-drive kinematics. Vy is always zero.
type Differential struct {
	trackWidth float64
}

func NewDifferential(trackWidth float64) (*Differential, error) {
	if !geometry.Finite(trackWidth) || trackWidth <= 0 {
		return nil, fmt.Errorf("%w: track width %v", ErrSingularity, trackWidth)
	}
	return &Differential{trackWidth: trackWidth}, nil
}

func (d *Differential) TrackWidth() float64 { return d.trackWidth }

// ToChassisSpeed is the typed form of Forward.
func (d *Differential) ToChassisSpeed(s DifferentialState) geometry.ChassisSpeed {
	l, r := sanitize(s.LeftVelocity), sanitize(s.RightVelocity)
	return geometry.ChassisSpeed{
		Vx:    (l + r) / 2,
		Omega: (r - l) / d.trackWidth,
	}
}

// ToWheelSpeeds is the typed form of Inverse. Vy is ignored.
func (d *Differential) ToWheelSpeeds(speed geometry.ChassisSpeed) DifferentialState {
	half := d.trackWidth / 2 * speed.Omega
	return DifferentialState{
		LeftVelocity:  speed.Vx - half,
		RightVelocity: speed.Vx + half,
	}
}

func (d *Differential) Forward(state WheelState) geometry.ChassisSpeed {
	s, ok := state.(DifferentialState)
	if !ok {
		return geometry.ChassisSpeed{}
	}
	return d.ToChassisSpeed(s)
}

func (d *Differential) Inverse(speed geometry.ChassisSpeed) WheelState {
	return d.ToWheelSpeeds(speed)
}

func (d *Differential) Displacement(prev, cur WheelState) geometry.Twist2D {
	p, ok1 := prev.(DifferentialState)
	c, ok2 := cur.(DifferentialState)
	if !ok1 || !ok2 {
		return geometry.Twist2D{}
	}
	dl := sanitize(c.LeftDistance - p.LeftDistance)
	dr := sanitize(c.RightDistance - p.RightDistance)
	return geometry.Twist2D{
		Dx:     (dl + dr) / 2,
		Dtheta: (dr - dl) / d.trackWidth,
	}
}

func (d *Differential) Desaturate(state WheelState, maxSpeed float64) WheelState {
	s, ok := state.(DifferentialState)
	if !ok || maxSpeed <= 0 {
		return state
	}
	m := math.Max(math.Abs(s.LeftVelocity), math.Abs(s.RightVelocity))
	if m > maxSpeed {
		s.LeftVelocity *= maxSpeed / m
		s.RightVelocity *= maxSpeed / m
	}
	return s
}

func (d *Differential) Zero() WheelState { return DifferentialState{} }

func (*Differential) model() {}
