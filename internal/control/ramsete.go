package control

import (
	"math"

	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/trajectory"
)

// Ramsete is a nonlinear tracker for unicycle-like drives. B (> 0) acts like
// a proportional gain and Zeta in (0, 1) like a damping ratio.
type Ramsete struct {
	B    float64
	Zeta float64

	MaxVelocity        float64
	MaxAngularVelocity float64

	lastErr geometry.Pose2D
}

func NewRamsete(b, zeta float64) *Ramsete {
	return &Ramsete{B: b, Zeta: zeta, MaxVelocity: math.Inf(1), MaxAngularVelocity: math.Inf(1)}
}

func (r *Ramsete) Calculate(pose geometry.Pose2D, ref trajectory.State) geometry.ChassisSpeed {
	vd, k := ref.Velocity, ref.Curvature
	if !geometry.Finite(vd, k) {
		vd, k = 0, 0
	}
	if !geometry.Finite(pose.X, pose.Y, pose.Heading) {
		pose = ref.Pose
	}
	wd := vd * k

	e := geometry.Rotate(ref.Pose.Translation().Sub(pose.Translation()), -pose.Heading)
	eTheta := geometry.AngleDelta(pose.Heading, ref.Pose.Heading)
	r.lastErr = geometry.Pose2D{X: e.X, Y: e.Y, Heading: eTheta}

	gain := 2 * r.Zeta * math.Sqrt(wd*wd+r.B*vd*vd)
	v := vd*math.Cos(eTheta) + gain*e.X
	w := wd + gain*eTheta + r.B*vd*sinc(eTheta)*e.Y

	return geometry.ChassisSpeed{
		Vx:    geometry.Clamp(v, -r.MaxVelocity, r.MaxVelocity),
		Omega: geometry.Clamp(w, -r.MaxAngularVelocity, r.MaxAngularVelocity),
	}
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-9 {
		return 1 - x*x/6
	}
	return math.Sin(x) / x
}

func (r *Ramsete) Error() geometry.Pose2D { return r.lastErr }

// Reset clears the last error; Ramsete keeps no other history.
func (r *Ramsete) Reset() { r.lastErr = geometry.Pose2D{} }

func (r *Ramsete) GetParams() map[string]float64 {
	return map[string]float64{"b": r.B, "zeta": r.Zeta}
}

func (r *Ramsete) SetParam(name string, value float64) {
	switch name {
	case "b":
		r.B = value
	case "zeta":
		r.Zeta = value
	}
}
