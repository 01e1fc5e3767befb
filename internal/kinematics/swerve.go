package kinematics

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/drivekit/internal/geometry"
)

// conditionLimit bounds the ratio of smallest to largest singular value of
// the module matrix before the layout is rejected.
const conditionLimit = 1e-9

// Swerve is kinematics for N independently steered modules.
type Swerve struct {
	positions []r2.Point
	// pinv is the 3 x 2N least-squares inverse of the module matrix.
	pinv *mat.Dense
}

// NewSwerve builds swerve kinematics from module offsets relative to the robot
// center (x forward, y left).
func NewSwerve(positions ...r2.Point) (*Swerve, error) {
	if len(positions) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 modules, got %d", ErrSingularity, len(positions))
	}
	for i, p := range positions {
		if !geometry.Finite(p.X, p.Y) {
			return nil, fmt.Errorf("%w: module %d position not finite", ErrSingularity, i)
		}
		for j := 0; j < i; j++ {
			if p.Sub(positions[j]).Norm() < 1e-9 {
				return nil, fmt.Errorf("%w: modules %d and %d coincide", ErrSingularity, j, i)
			}
		}
	}

	n := len(positions)
	a := mat.NewDense(2*n, 3, nil)
	for i, p := range positions {
		a.Set(2*i, 0, 1)
		a.Set(2*i, 2, -p.Y)
		a.Set(2*i+1, 1, 1)
		a.Set(2*i+1, 2, p.X)
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDNone) {
		return nil, fmt.Errorf("%w: module matrix factorization failed", ErrSingularity)
	}
	sv := svd.Values(nil)
	if sv[len(sv)-1] < conditionLimit*sv[0] {
		return nil, fmt.Errorf("%w: module matrix is rank deficient", ErrSingularity)
	}

	var ata, inv mat.Dense
	ata.Mul(a.T(), a)
	if err := inv.Inverse(&ata); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularity, err)
	}
	pinv := mat.NewDense(3, 2*n, nil)
	pinv.Mul(&inv, a.T())

	own := make([]r2.Point, n)
	copy(own, positions)
	return &Swerve{positions: own, pinv: pinv}, nil
}

// NewSwerveRectangular builds the four-corner layout ordered front-left,
// front-right, back-left, back-right.
func NewSwerveRectangular(trackWidth, wheelBase float64) (*Swerve, error) {
	x, y := wheelBase/2, trackWidth/2
	return NewSwerve(
		r2.Point{X: x, Y: y},
		r2.Point{X: x, Y: -y},
		r2.Point{X: -x, Y: y},
		r2.Point{X: -x, Y: -y},
	)
}

// Positions returns a copy of the module offsets.
func (s *Swerve) Positions() []r2.Point {
	c := make([]r2.Point, len(s.positions))
	copy(c, s.positions)
	return c
}

func (s *Swerve) NumModules() int { return len(s.positions) }

// moduleVector is the velocity of a point on the chassis: v + omega x r.
func moduleVector(speed geometry.ChassisSpeed, pos r2.Point) r2.Point {
	return r2.Point{X: speed.Vx, Y: speed.Vy}.Add(pos.Ortho().Mul(speed.Omega))
}

// ToModuleStates is the typed form of Inverse. A module with no commanded
// motion reports angle 0; use InverseFrom to hold the current angle instead.
func (s *Swerve) ToModuleStates(speed geometry.ChassisSpeed) SwerveState {
	out := make([]ModuleState, len(s.positions))
	for i, p := range s.positions {
		v := moduleVector(speed, p)
		m := v.Norm()
		if m < 1e-9 {
			continue
		}
		out[i] = ModuleState{Velocity: m, Angle: math.Atan2(v.Y, v.X)}
	}
	return SwerveState{Modules: out}
}

// InverseFrom computes module targets optimized against the current module
// angles. Modules that should not move keep their current angle.
func (s *Swerve) InverseFrom(speed geometry.ChassisSpeed, current SwerveState) SwerveState {
	targets := s.ToModuleStates(speed)
	if len(current.Modules) != len(targets.Modules) {
		return targets
	}
	for i, t := range targets.Modules {
		cur := geometry.NormalizeAngle(current.Modules[i].Angle)
		if t.Velocity == 0 {
			targets.Modules[i] = ModuleState{Angle: cur}
			continue
		}
		targets.Modules[i] = Optimize(t, cur)
	}
	return targets
}

// Optimize flips a target by 180 degrees and reverses its speed when that
// needs less steering from the current angle. The result is never more than
// 90 degrees from current.
func Optimize(target ModuleState, current float64) ModuleState {
	delta := geometry.AngleDelta(current, target.Angle)
	if math.Abs(delta) > math.Pi/2 {
		target.Velocity = -target.Velocity
		target.Angle = geometry.NormalizeAngle(target.Angle + math.Pi)
	}
	target.Angle = geometry.NormalizeAngle(target.Angle)
	return target
}

// ToChassisSpeed is the typed form of Forward: a least-squares fit of the
// chassis speed to every module vector.
func (s *Swerve) ToChassisSpeed(state SwerveState) geometry.ChassisSpeed {
	if len(state.Modules) != len(s.positions) {
		return geometry.ChassisSpeed{}
	}
	b := make([]float64, 2*len(state.Modules))
	for i, m := range state.Modules {
		sin, cos := math.Sincos(sanitize(m.Angle))
		v := sanitize(m.Velocity)
		b[2*i] = v * cos
		b[2*i+1] = v * sin
	}
	x := s.solve(b)
	return geometry.ChassisSpeed{Vx: x[0], Vy: x[1], Omega: x[2]}
}

func (s *Swerve) solve(b []float64) [3]float64 {
	var x mat.VecDense
	x.MulVec(s.pinv, mat.NewVecDense(len(b), b))
	return [3]float64{x.AtVec(0), x.AtVec(1), x.AtVec(2)}
}

func (s *Swerve) Forward(state WheelState) geometry.ChassisSpeed {
	st, ok := state.(SwerveState)
	if !ok {
		return geometry.ChassisSpeed{}
	}
	return s.ToChassisSpeed(st)
}

func (s *Swerve) Inverse(speed geometry.ChassisSpeed) WheelState {
	return s.ToModuleStates(speed)
}

// Displacement fits a twist to each module's change in distance, taken along
// the module's current angle.
func (s *Swerve) Displacement(prev, cur WheelState) geometry.Twist2D {
	p, ok1 := prev.(SwerveState)
	c, ok2 := cur.(SwerveState)
	n := len(s.positions)
	if !ok1 || !ok2 || len(p.Modules) != n || len(c.Modules) != n {
		return geometry.Twist2D{}
	}
	b := make([]float64, 2*n)
	for i := range c.Modules {
		d := sanitize(c.Modules[i].Distance - p.Modules[i].Distance)
		sin, cos := math.Sincos(sanitize(c.Modules[i].Angle))
		b[2*i] = d * cos
		b[2*i+1] = d * sin
	}
	x := s.solve(b)
	return geometry.Twist2D{Dx: x[0], Dy: x[1], Dtheta: x[2]}
}

func (s *Swerve) Desaturate(state WheelState, maxSpeed float64) WheelState {
	st, ok := state.(SwerveState)
	if !ok || maxSpeed <= 0 {
		return state
	}
	peak := 0.0
	for _, m := range st.Modules {
		peak = math.Max(peak, math.Abs(m.Velocity))
	}
	if peak <= maxSpeed {
		return st
	}
	out := st.Clone()
	for i := range out.Modules {
		out.Modules[i].Velocity *= maxSpeed / peak
	}
	return out
}

func (s *Swerve) Zero() WheelState {
	return SwerveState{Modules: make([]ModuleState, len(s.positions))}
}

func (*Swerve) model() {}
