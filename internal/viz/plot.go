package viz

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/drivekit/internal/sim"
	"github.com/san-kum/drivekit/internal/trajectory"
)

// resample returns n values of f evenly spaced over [0, total].
func resample(n int, total float64, f func(t float64) float64) []float64 {
	if n < 2 {
		n = 2
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = f(total * float64(i) / float64(n-1))
	}
	return out
}

// VelocityProfile plots velocity and acceleration of traj over time.
func VelocityProfile(traj *trajectory.Trajectory, width, height int) string {
	total := traj.TotalTime()
	vel := resample(width, total, func(t float64) float64 { return traj.Sample(t).Velocity })
	acc := resample(width, total, func(t float64) float64 { return traj.Sample(t).Acceleration })
	return asciigraph.PlotMany([][]float64{vel, acc},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Yellow),
		asciigraph.Caption(fmt.Sprintf("velocity (green) / acceleration (yellow), %.2fs", total)),
	)
}

// CurvatureProfile plots curvature of traj over time.
func CurvatureProfile(traj *trajectory.Trajectory, width, height int) string {
	total := traj.TotalTime()
	k := resample(width, total, func(t float64) float64 { return traj.Sample(t).Curvature })
	return asciigraph.Plot(k,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.Caption("curvature (1/m)"),
	)
}

// ErrorPlot plots the position error of a run.
func ErrorPlot(samples []sim.Sample, width, height int) string {
	if len(samples) < 2 {
		return ""
	}
	errs := make([]float64, len(samples))
	cross := make([]float64, len(samples))
	for i, s := range samples {
		errs[i] = s.PositionError()
		cross[i] = s.CrossTrackError()
	}
	return asciigraph.PlotMany([][]float64{errs, cross},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
		asciigraph.Caption(fmt.Sprintf("position error (red) / cross-track (blue), %.2fs", samples[len(samples)-1].Time)),
	)
}

// FieldMap draws the reference path and, when samples is not empty, the
// driven path and the final robot pose.
func FieldMap(traj *trajectory.Trajectory, samples []sim.Sample, cols, rows int) string {
	states := traj.States()
	ref := make([]r2.Point, len(states))
	for i, s := range states {
		ref[i] = s.Pose.Translation()
	}
	return drawMap(ref, samples, cols, rows)
}

// RunMap is FieldMap for a stored run, using the recorded targets as the
// reference path.
func RunMap(samples []sim.Sample, cols, rows int) string {
	ref := make([]r2.Point, len(samples))
	for i, s := range samples {
		ref[i] = s.Target.Pose.Translation()
	}
	return drawMap(ref, samples, cols, rows)
}

func drawMap(ref []r2.Point, samples []sim.Sample, cols, rows int) string {
	c := NewCanvas(cols, rows)
	driven := make([]r2.Point, len(samples))
	for i, s := range samples {
		driven[i] = s.Pose.Translation()
	}
	v := FitViewport(c, 0.2, append(append([]r2.Point{}, ref...), driven...)...)
	c.Polyline(v, ref)
	c.Polyline(v, driven)
	if len(samples) > 0 {
		last := samples[len(samples)-1].Pose
		c.Robot(v, last.Translation(), last.Heading)
	}
	return c.String()
}
