// Package analysis characterizes closed-loop runs after the fact.
//
// [ErrorSpectrum] finds the dominant oscillation in a tracking error signal,
// the usual symptom of an over-tuned gain:
//
//	spec, err := analysis.ErrorSpectrum(result.Samples, sim.Sample.CrossTrackError)
//	freq, amp := spec.Dominant()
package analysis
