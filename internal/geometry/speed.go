package geometry

import (
	"fmt"
	"math"
)

// ChassisSpeed is a robot-frame velocity. Vx is forward, Vy is left, Omega is
// counterclockwise.
type ChassisSpeed struct {
	Vx    float64 `json:"vx"`
	Vy    float64 `json:"vy"`
	Omega float64 `json:"omega"`
}

// FromFieldRelative converts field-frame speeds to the robot frame given the
// robot's field heading.
func FromFieldRelative(vx, vy, omega, heading float64) ChassisSpeed {
	s, c := math.Sincos(heading)
	return ChassisSpeed{
		Vx:    vx*c + vy*s,
		Vy:    -vx*s + vy*c,
		Omega: omega,
	}
}

// Twist scales the speed over dt seconds.
func (s ChassisSpeed) Twist(dt float64) Twist2D {
	return Twist2D{Dx: s.Vx * dt, Dy: s.Vy * dt, Dtheta: s.Omega * dt}
}

func (s ChassisSpeed) Linear() float64 {
	return math.Hypot(s.Vx, s.Vy)
}

func (s ChassisSpeed) IsZero() bool {
	return s.Vx == 0 && s.Vy == 0 && s.Omega == 0
}

func (s ChassisSpeed) String() string {
	return fmt.Sprintf("vx=%.3f vy=%.3f ω=%.3f", s.Vx, s.Vy, s.Omega)
}
