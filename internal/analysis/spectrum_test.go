package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/drivekit/internal/geometry"
	"github.com/san-kum/drivekit/internal/sim"
	"github.com/san-kum/drivekit/internal/trajectory"
)

func TestPowerSpectrumFindsTone(t *testing.T) {
	const dt = 0.01
	data := make([]float64, 200)
	for i := range data {
		data[i] = 0.3 + 0.05*math.Sin(2*math.Pi*2*float64(i)*dt)
	}

	spec, err := PowerSpectrum(data, dt)
	if err != nil {
		t.Fatalf("spectrum failed: %v", err)
	}
	if len(spec.Freq) != 101 {
		t.Errorf("expected 101 bins, got %d", len(spec.Freq))
	}
	if spec.Amplitude[0] > 1e-9 {
		t.Errorf("mean not removed: %g", spec.Amplitude[0])
	}

	freq, amp := spec.Dominant()
	if math.Abs(freq-2) > 1e-9 {
		t.Errorf("expected 2 Hz, got %f", freq)
	}
	if math.Abs(amp-0.05) > 1e-6 {
		t.Errorf("expected amplitude 0.05, got %f", amp)
	}
}

func TestErrorSpectrum(t *testing.T) {
	samples := make([]sim.Sample, 100)
	for i := range samples {
		tm := float64(i) * 0.02
		samples[i] = sim.Sample{
			Time:   tm,
			Pose:   geometry.NewPose(tm, 0.1*math.Sin(2*math.Pi*5*tm), 0),
			Target: trajectory.State{Pose: geometry.NewPose(tm, 0, 0)},
		}
	}
	spec, err := ErrorSpectrum(samples, sim.Sample.CrossTrackError)
	if err != nil {
		t.Fatalf("spectrum failed: %v", err)
	}
	if freq, _ := spec.Dominant(); math.Abs(freq-5) > 1e-9 {
		t.Errorf("expected 5 Hz, got %f", freq)
	}
}

func TestSpectrumRejectsBadInput(t *testing.T) {
	if _, err := PowerSpectrum([]float64{1, 2}, 0.01); !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort, got %v", err)
	}
	if _, err := PowerSpectrum(make([]float64, 8), 0); !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort for dt 0, got %v", err)
	}
	uneven := []sim.Sample{{Time: 0}, {Time: 0.02}, {Time: 0.05}, {Time: 0.06}}
	if _, err := ErrorSpectrum(uneven, sim.Sample.CrossTrackError); !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort for uneven samples, got %v", err)
	}
}
