package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/sim"
	"github.com/san-kum/drivekit/internal/trajectory"
)

func sample(x, y, heading float64) sim.Sample {
	return sim.Sample{
		Pose:    geometry.NewPose(x, y, heading),
		Target:  trajectory.State{Pose: geometry.NewPose(x, 0, 0)},
		Command: geometry.ChassisSpeed{Vx: 1, Omega: -0.5},
	}
}

func TestTrackingMetrics(t *testing.T) {
	samples := []sim.Sample{sample(0, 0.3, 0.1), sample(1, -0.4, -0.1), sample(2, 0.1, 0)}

	tests := []struct {
		metric sim.Metric
		want   float64
	}{
		{NewCrossTrackRMS(), math.Sqrt((0.09 + 0.16 + 0.01) / 3)},
		{NewHeadingRMS(), math.Sqrt(0.02 / 3)},
		{NewMaxPositionError(), 0.4},
		{NewFinalPositionError(), 0.1},
		{NewControlEffort(), 1.5},
		{NewStability(0.2), 1.0 / 3},
	}
	for _, tt := range tests {
		t.Run(tt.metric.Name(), func(t *testing.T) {
			for _, s := range samples {
				tt.metric.Observe(s)
			}
			if got := tt.metric.Value(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
			tt.metric.Reset()
			if tt.metric.Name() == "stability" {
				return
			}
			if got := tt.metric.Value(); got != 0 {
				t.Errorf("after reset got %f", got)
			}
		})
	}
}

func TestStandardNames(t *testing.T) {
	want := map[string]bool{
		"cross_track_rms": true, "max_position_error": true, "final_position_error": true,
		"heading_rms": true, "control_effort": true, "stability": true,
	}
	for _, m := range Standard() {
		if !want[m.Name()] {
			t.Errorf("unexpected metric %q", m.Name())
		}
		delete(want, m.Name())
	}
	if len(want) != 0 {
		t.Errorf("missing metrics %v", want)
	}
}
