package metrics

import (
	"math"

	"github.com/san-kum/drivekit/internal/sim"
)

// rms accumulates the root mean square of a per-sample value.
type rms struct {
	name    string
	value   func(sim.Sample) float64
	sumSq   float64
	samples int
}

func (r *rms) Name() string { return r.name }

func (r *rms) Observe(s sim.Sample) {
	v := r.value(s)
	r.sumSq += v * v
	r.samples++
}

func (r *rms) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return math.Sqrt(r.sumSq / float64(r.samples))
}

func (r *rms) Reset() {
	r.sumSq = 0
	r.samples = 0
}

func NewCrossTrackRMS() sim.Metric {
	return &rms{name: "cross_track_rms", value: sim.Sample.CrossTrackError}
}

func NewHeadingRMS() sim.Metric {
	return &rms{name: "heading_rms", value: sim.Sample.HeadingError}
}

type MaxPositionError struct {
	max float64
}

func NewMaxPositionError() *MaxPositionError { return &MaxPositionError{} }

func (m *MaxPositionError) Name() string { return "max_position_error" }

func (m *MaxPositionError) Observe(s sim.Sample) {
	m.max = math.Max(m.max, s.PositionError())
}

func (m *MaxPositionError) Value() float64 { return m.max }
func (m *MaxPositionError) Reset()         { m.max = 0 }

// FinalPositionError is the error at the last observed sample.
type FinalPositionError struct {
	last float64
}

func NewFinalPositionError() *FinalPositionError { return &FinalPositionError{} }

func (f *FinalPositionError) Name() string         { return "final_position_error" }
func (f *FinalPositionError) Observe(s sim.Sample) { f.last = s.PositionError() }
func (f *FinalPositionError) Value() float64       { return f.last }
func (f *FinalPositionError) Reset()               { f.last = 0 }

// Standard is the metric set recorded for every run.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewCrossTrackRMS(),
		NewMaxPositionError(),
		NewFinalPositionError(),
		NewHeadingRMS(),
		NewControlEffort(),
		NewStability(0.1),
	}
}
