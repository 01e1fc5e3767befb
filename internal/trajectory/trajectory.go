package trajectory

import (
	"math"
	"sort"

	"github.com/san-kum/drivekit/internal/geometry"
)

// State is the reference at one instant. Acceleration holds until the next
// state.
type State struct {
	Time         float64         `json:"time"`
	Pose         geometry.Pose2D `json:"pose"`
	Velocity     float64         `json:"velocity"`
	Acceleration float64         `json:"acceleration"`
	Curvature    float64         `json:"curvature"`
}

// Trajectory is an immutable sequence of states with strictly increasing
// time starting at 0.
type Trajectory struct {
	states []State
}

func (t *Trajectory) States() []State {
	c := make([]State, len(t.states))
	copy(c, t.states)
	return c
}

func (t *Trajectory) Len() int { return len(t.states) }

func (t *Trajectory) TotalTime() float64 {
	if len(t.states) == 0 {
		return 0
	}
	return t.states[len(t.states)-1].Time
}

func (t *Trajectory) InitialPose() geometry.Pose2D {
	if len(t.states) == 0 {
		return geometry.Pose2D{}
	}
	return t.states[0].Pose
}

func (t *Trajectory) FinalPose() geometry.Pose2D {
	if len(t.states) == 0 {
		return geometry.Pose2D{}
	}
	return t.states[len(t.states)-1].Pose
}

// Sample returns the state at time t, clamped to [0, TotalTime]. Between
// stored states velocity changes at the stored acceleration and the pose moves
// along the arc by the distance covered.
func (t *Trajectory) Sample(at float64) State {
	n := len(t.states)
	if n == 0 {
		return State{}
	}
	if math.IsNaN(at) || at <= t.states[0].Time {
		return t.states[0]
	}
	if at >= t.states[n-1].Time {
		return t.states[n-1]
	}

	i := sort.Search(n, func(i int) bool { return t.states[i].Time >= at })
	prev, next := t.states[i-1], t.states[i]
	if next.Time == at {
		return next
	}

	dt := at - prev.Time
	span := next.Time - prev.Time
	v := prev.Velocity + prev.Acceleration*dt
	covered := math.Abs(prev.Velocity*dt + 0.5*prev.Acceleration*dt*dt)
	length := prev.Pose.Distance(next.Pose)

	frac := dt / span
	if length > 1e-12 {
		frac = geometry.Clamp(covered/length, 0, 1)
	}
	return State{
		Time:         at,
		Pose:         prev.Pose.Interpolate(next.Pose, frac),
		Velocity:     v,
		Acceleration: prev.Acceleration,
		Curvature:    geometry.Lerp(prev.Curvature, next.Curvature, frac),
	}
}

// TransformBy moves the trajectory so its initial pose becomes
// InitialPose().TransformBy(tr), keeping every state's pose relative to the
// start.
func (t *Trajectory) TransformBy(tr geometry.Pose2D) *Trajectory {
	first := t.InitialPose()
	newFirst := first.TransformBy(tr)
	out := t.States()
	for i := range out {
		out[i].Pose = newFirst.TransformBy(out[i].Pose.RelativeTo(first))
	}
	return &Trajectory{states: out}
}

// RelativeTo expresses every pose in the frame of origin.
func (t *Trajectory) RelativeTo(origin geometry.Pose2D) *Trajectory {
	out := t.States()
	for i := range out {
		out[i].Pose = out[i].Pose.RelativeTo(origin)
	}
	return &Trajectory{states: out}
}

// Concatenate appends other after t. other's first state is dropped since it
// coincides in time with t's last.
func (t *Trajectory) Concatenate(other *Trajectory) *Trajectory {
	out := t.States()
	if other == nil || len(other.states) == 0 {
		return &Trajectory{states: out}
	}
	if len(out) == 0 {
		return &Trajectory{states: other.States()}
	}
	offset := t.TotalTime()
	for _, s := range other.states[1:] {
		s.Time += offset
		out = append(out, s)
	}
	return &Trajectory{states: out}
}
