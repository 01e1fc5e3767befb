package trajectory

import (
	"math"

	"github.com/san-kum/drivekit/internal/geometry"
)

const minSpeedSum = 1e-9

// Generate builds a trajectory through waypoints. Constraints are folded in
// order; each bounds velocity and acceleration at every path point. The
// returned error is a *GenerationError wrapping ErrGeometry or ErrInfeasible.
func Generate(waypoints []Waypoint, cfg Config, constraints ...Constraint) (*Trajectory, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	path, knots, err := buildPath(waypoints, cfg.Reversed)
	if err != nil {
		return nil, err
	}
	hints := make(map[int]float64)
	for i, w := range waypoints {
		if w.MaxVelocity > 0 {
			hints[knots[i]] = w.MaxVelocity
		}
	}
	states, err := profile(path, hints, cfg, constraints)
	if err != nil {
		return nil, err
	}
	return &Trajectory{states: states}, nil
}

// Path fits the spline through waypoints and subdivides it. When reversed the
// spline is fitted along headings turned by pi and poses are turned back.
func Path(waypoints []Waypoint, reversed bool) ([]PathPoint, error) {
	path, _, err := buildPath(waypoints, reversed)
	return path, err
}

// buildPath also returns the path index of each waypoint.
func buildPath(waypoints []Waypoint, reversed bool) ([]PathPoint, []int, error) {
	if len(waypoints) < 2 {
		return nil, nil, genErr("path", -1, ErrGeometry, "need at least 2 waypoints, got %d", len(waypoints))
	}
	for i, w := range waypoints {
		if !geometry.Finite(w.Pose.X, w.Pose.Y, w.Pose.Heading, w.Curvature, w.MaxVelocity) {
			return nil, nil, genErr("path", i, ErrGeometry, "non-finite waypoint")
		}
		if i > 0 && w.Pose.Distance(waypoints[i-1].Pose) < 1e-9 {
			return nil, nil, genErr("path", i, ErrGeometry, "waypoint coincides with previous")
		}
	}

	wps := waypoints
	if reversed {
		wps = make([]Waypoint, len(waypoints))
		for i, w := range waypoints {
			wps[i] = w.flipped()
		}
	}

	var points []PathPoint
	knots := make([]int, len(wps))
	dist := 0.0
	for i := 0; i+1 < len(wps); i++ {
		samples, ok := newQuintic(wps[i], wps[i+1]).subdivide()
		if !ok {
			return nil, nil, genErr("path", i, ErrGeometry, "spline segment could not be subdivided")
		}
		start := 1
		if i == 0 {
			start = 0
		}
		for j := start; j < len(samples); j++ {
			s := samples[j]
			if len(points) > 0 {
				step := s.pos.Sub(points[len(points)-1].Pose.Translation()).Norm()
				if step < 1e-12 {
					continue
				}
				dist += step
			}
			p := PathPoint{
				Pose:      geometry.NewPose(s.pos.X, s.pos.Y, s.heading),
				Distance:  dist,
				Curvature: s.curvature,
			}
			if reversed {
				p.Pose.Heading = geometry.NormalizeAngle(p.Pose.Heading + math.Pi)
				p.Curvature = -p.Curvature
			}
			points = append(points, p)
		}
		knots[i+1] = len(points) - 1
	}
	if len(points) < 2 {
		return nil, nil, genErr("path", -1, ErrGeometry, "path has no length")
	}
	return points, knots, nil
}

// velocityCaps returns the per-point velocity limit and the acceleration
// limit for the interval leaving each point.
func velocityCaps(path []PathPoint, cfg Config, constraints []Constraint) ([]float64, []float64, error) {
	vmax := make([]float64, len(path))
	amax := make([]float64, len(path))
	for i, p := range path {
		v, a := cfg.MaxVelocity, cfg.MaxAcceleration
		for _, c := range constraints {
			cv, ca := c.MaxVelocity(p), c.MaxAcceleration(p)
			if math.IsNaN(cv) || cv < 0 || math.IsNaN(ca) || ca <= 0 {
				return nil, nil, genErr("constrain", i, ErrInfeasible, "constraint %T returned v=%v a=%v", c, cv, ca)
			}
			v = math.Min(v, cv)
			a = math.Min(a, ca)
		}
		vmax[i] = v
		amax[i] = a
	}
	return vmax, amax, nil
}

// neighborMin caps each point by its neighbours' limits. Velocity within an
// interval lies between its end velocities and every built-in bound falls off
// monotonically with |curvature|, so an interpolated state then stays under
// the bound at its own curvature.
func neighborMin(vmax []float64) []float64 {
	out := make([]float64, len(vmax))
	for i := range vmax {
		out[i] = vmax[i]
		if i > 0 {
			out[i] = math.Min(out[i], vmax[i-1])
		}
		if i+1 < len(vmax) {
			out[i] = math.Min(out[i], vmax[i+1])
		}
	}
	return out
}

// profile runs the forward and backward passes and assigns time. hints caps
// the velocity at given path indices.
func profile(path []PathPoint, hints map[int]float64, cfg Config, constraints []Constraint) ([]State, error) {
	vmax, amax, err := velocityCaps(path, cfg, constraints)
	if err != nil {
		return nil, err
	}
	vmax = neighborMin(vmax)
	for i, v := range hints {
		vmax[i] = math.Min(vmax[i], v)
	}
	n := len(path)
	v := make([]float64, n)

	v[0] = math.Min(cfg.StartVelocity, vmax[0])
	for i := 1; i < n; i++ {
		dd := path[i].Distance - path[i-1].Distance
		v[i] = math.Min(vmax[i], math.Sqrt(v[i-1]*v[i-1]+2*amax[i-1]*dd))
	}
	v[n-1] = math.Min(v[n-1], cfg.EndVelocity)
	for i := n - 2; i >= 0; i-- {
		dd := path[i+1].Distance - path[i].Distance
		v[i] = math.Min(v[i], math.Sqrt(v[i+1]*v[i+1]+2*amax[i]*dd))
	}

	sign := 1.0
	if cfg.Reversed {
		sign = -1
	}
	states := make([]State, n)
	t := 0.0
	for i := 0; i < n; i++ {
		if i > 0 {
			dd := path[i].Distance - path[i-1].Distance
			sum := v[i-1] + v[i]
			if sum < minSpeedSum {
				return nil, genErr("time", i, ErrInfeasible, "velocity is zero between path points")
			}
			t += 2 * dd / sum
			states[i-1].Acceleration = sign * (v[i]*v[i] - v[i-1]*v[i-1]) / (2 * dd)
		}
		states[i] = State{
			Time:      t,
			Pose:      path[i].Pose,
			Velocity:  sign * v[i],
			Curvature: path[i].Curvature,
		}
	}
	return states, nil
}
