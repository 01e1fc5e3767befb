package trajectory

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/san-kum/drivekit/internal/geometry"
)

const (
	tangentScale = 1.2
	maxChord     = 0.05
	maxTurn      = 0.0872
	// maxSplits bounds subdivision of one segment; a spline that still needs
	// splitting after this is malformed.
	maxSplits = 1 << 14
)

// quintic is one segment of a quintic Hermite spline. Position, first and
// second derivative are matched at both ends.
type quintic struct {
	p0, p1 r2.Point
	v0, v1 r2.Point
	a0, a1 r2.Point
}

func newQuintic(from, to Waypoint) quintic {
	chord := from.Pose.Distance(to.Pose)
	mag := tangentScale * chord
	dir0 := geometry.Rotate(r2.Point{X: 1}, from.Pose.Heading)
	dir1 := geometry.Rotate(r2.Point{X: 1}, to.Pose.Heading)
	return quintic{
		p0: from.Pose.Translation(),
		p1: to.Pose.Translation(),
		v0: dir0.Mul(mag),
		v1: dir1.Mul(mag),
		a0: dir0.Ortho().Mul(from.Curvature * mag * mag),
		a1: dir1.Ortho().Mul(to.Curvature * mag * mag),
	}
}

func combine(q quintic, h [6]float64) r2.Point {
	return q.p0.Mul(h[0]).
		Add(q.v0.Mul(h[1])).
		Add(q.a0.Mul(h[2])).
		Add(q.a1.Mul(h[3])).
		Add(q.v1.Mul(h[4])).
		Add(q.p1.Mul(h[5]))
}

// eval returns position, heading and curvature at parameter t in [0, 1].
func (q quintic) eval(t float64) (r2.Point, float64, float64) {
	t2 := t * t
	t3 := t2 * t
	t4 := t3 * t
	t5 := t4 * t

	pos := combine(q, [6]float64{
		1 - 10*t3 + 15*t4 - 6*t5,
		t - 6*t3 + 8*t4 - 3*t5,
		0.5*t2 - 1.5*t3 + 1.5*t4 - 0.5*t5,
		0.5*t3 - t4 + 0.5*t5,
		-4*t3 + 7*t4 - 3*t5,
		10*t3 - 15*t4 + 6*t5,
	})
	d1 := combine(q, [6]float64{
		-30*t2 + 60*t3 - 30*t4,
		1 - 18*t2 + 32*t3 - 15*t4,
		t - 4.5*t2 + 6*t3 - 2.5*t4,
		1.5*t2 - 4*t3 + 2.5*t4,
		-12*t2 + 28*t3 - 15*t4,
		30*t2 - 60*t3 + 30*t4,
	})
	d2 := combine(q, [6]float64{
		-60*t + 180*t2 - 120*t3,
		-36*t + 96*t2 - 60*t3,
		1 - 9*t + 18*t2 - 10*t3,
		3*t - 12*t2 + 10*t3,
		-24*t + 84*t2 - 60*t3,
		60*t - 180*t2 + 120*t3,
	})

	speed := d1.Norm()
	heading := math.Atan2(d1.Y, d1.X)
	curvature := 0.0
	if speed > 1e-12 {
		curvature = d1.Cross(d2) / (speed * speed * speed)
	}
	return pos, heading, curvature
}

type sample struct {
	pos       r2.Point
	heading   float64
	curvature float64
}

func (q quintic) at(t float64) sample {
	p, h, k := q.eval(t)
	return sample{pos: p, heading: h, curvature: k}
}

// subdivide samples the segment at parameters chosen so consecutive samples
// are at most maxChord apart and turn at most maxTurn. The first sample is
// at t=0 and the last at t=1.
func (q quintic) subdivide() ([]sample, bool) {
	type span struct{ t0, t1 float64 }

	out := []sample{q.at(0)}
	// depth-first from the left keeps output ordered
	stack := []span{{0, 1}}
	splits := 0
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		a := q.at(s.t0)
		b := q.at(s.t1)
		if a.pos.Sub(b.pos).Norm() > maxChord || math.Abs(geometry.AngleDelta(a.heading, b.heading)) > maxTurn {
			splits++
			if splits > maxSplits {
				return nil, false
			}
			mid := (s.t0 + s.t1) / 2
			stack = append(stack, span{mid, s.t1}, span{s.t0, mid})
			continue
		}
		out = append(out, b)
	}
	return out, true
}
