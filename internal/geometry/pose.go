package geometry

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Pose2D is a position and heading in the field frame.
type Pose2D struct {
	X       float64 `json:"x" yaml:"x"`
	Y       float64 `json:"y" yaml:"y"`
	Heading float64 `json:"heading" yaml:"heading"`
}

// Twist2D is a robot-frame displacement over one step.
type Twist2D struct {
	Dx     float64
	Dy     float64
	Dtheta float64
}

func NewPose(x, y, heading float64) Pose2D {
	return Pose2D{X: x, Y: y, Heading: NormalizeAngle(heading)}
}

func (p Pose2D) Translation() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

func (p Pose2D) Distance(o Pose2D) float64 {
	return p.Translation().Sub(o.Translation()).Norm()
}

// Rotate rotates a vector by angle radians counterclockwise.
func Rotate(v r2.Point, angle float64) r2.Point {
	s, c := math.Sincos(angle)
	return r2.Point{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}

// TransformBy applies t, expressed in this pose's frame.
func (p Pose2D) TransformBy(t Pose2D) Pose2D {
	d := Rotate(t.Translation(), p.Heading)
	return NewPose(p.X+d.X, p.Y+d.Y, p.Heading+t.Heading)
}

// RelativeTo expresses p in the frame of origin.
func (p Pose2D) RelativeTo(origin Pose2D) Pose2D {
	d := Rotate(p.Translation().Sub(origin.Translation()), -origin.Heading)
	return NewPose(d.X, d.Y, p.Heading-origin.Heading)
}

// Exp integrates a constant-curvature twist from p.
func (p Pose2D) Exp(t Twist2D) Pose2D {
	sinT, cosT := math.Sincos(t.Dtheta)
	var s, c float64
	if math.Abs(t.Dtheta) < 1e-9 {
		s = 1 - t.Dtheta*t.Dtheta/6
		c = t.Dtheta / 2
	} else {
		s = sinT / t.Dtheta
		c = (1 - cosT) / t.Dtheta
	}
	local := Pose2D{
		X:       t.Dx*s - t.Dy*c,
		Y:       t.Dx*c + t.Dy*s,
		Heading: t.Dtheta,
	}
	return p.TransformBy(local)
}

// Log returns the twist that carries p to end. It is the inverse of Exp.
func (p Pose2D) Log(end Pose2D) Twist2D {
	rel := end.RelativeTo(p)
	dtheta := rel.Heading
	half := dtheta / 2
	cosMinusOne := math.Cos(dtheta) - 1

	var halfByTan float64
	if math.Abs(cosMinusOne) < 1e-9 {
		halfByTan = 1 - dtheta*dtheta/12
	} else {
		halfByTan = -(half * math.Sin(dtheta)) / cosMinusOne
	}

	scale := math.Hypot(halfByTan, half)
	v := Rotate(rel.Translation(), math.Atan2(-half, halfByTan)).Mul(scale)
	return Twist2D{Dx: v.X, Dy: v.Y, Dtheta: dtheta}
}

// Interpolate moves a fraction t along the constant-curvature arc to end.
func (p Pose2D) Interpolate(end Pose2D, t float64) Pose2D {
	if t <= 0 {
		return p
	}
	if t >= 1 {
		return end
	}
	tw := p.Log(end)
	return p.Exp(Twist2D{Dx: tw.Dx * t, Dy: tw.Dy * t, Dtheta: tw.Dtheta * t})
}

func (p Pose2D) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.1f°)", p.X, p.Y, Degrees(p.Heading))
}

// Translation returns the linear part of the twist.
func (t Twist2D) Translation() r2.Point {
	return r2.Point{X: t.Dx, Y: t.Dy}
}
