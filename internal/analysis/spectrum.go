package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/san-kum/drivekit/internal/sim"
)

var ErrTooShort = errors.New("analysis: need at least 4 evenly spaced samples")

// Spectrum is the one-sided amplitude spectrum of a uniformly sampled signal
// with its mean removed.
type Spectrum struct {
	Freq      []float64 // Hz
	Amplitude []float64
}

func PowerSpectrum(data []float64, dt float64) (Spectrum, error) {
	n := len(data)
	if n < 4 || !(dt > 0) {
		return Spectrum{}, ErrTooShort
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)
	centered := make([]float64, n)
	for i, v := range data {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centered)

	spec := Spectrum{
		Freq:      make([]float64, len(coeff)),
		Amplitude: make([]float64, len(coeff)),
	}
	for i, c := range coeff {
		spec.Freq[i] = fft.Freq(i) / dt
		spec.Amplitude[i] = 2 * cmplx.Abs(c) / float64(n)
	}
	return spec, nil
}

// Dominant returns the strongest non-DC component.
func (s Spectrum) Dominant() (freq, amplitude float64) {
	for i := 1; i < len(s.Amplitude); i++ {
		if s.Amplitude[i] > amplitude {
			freq, amplitude = s.Freq[i], s.Amplitude[i]
		}
	}
	return freq, amplitude
}

// ErrorSpectrum is the spectrum of value over a run, sampled at the run's
// control period.
func ErrorSpectrum(samples []sim.Sample, value func(sim.Sample) float64) (Spectrum, error) {
	if len(samples) < 4 {
		return Spectrum{}, ErrTooShort
	}
	dt := samples[1].Time - samples[0].Time
	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = value(s)
		if i > 0 && math.Abs(s.Time-samples[i-1].Time-dt) > 1e-6 {
			return Spectrum{}, ErrTooShort
		}
	}
	return PowerSpectrum(data, dt)
}
