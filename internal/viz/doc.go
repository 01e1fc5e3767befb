// Package viz renders trajectories and closed-loop runs in the terminal.
//
//   - [Canvas]: Braille pixel canvas with a field-coordinate [Viewport]
//   - [VelocityProfile], [ErrorPlot]: asciigraph charts
//   - [FieldMap]: top-down plot of the reference path and the driven path
//   - [Live]: Bubble Tea program stepping a simulation tick by tick
//
// # Key Bindings (Live)
//
//	Space - Pause/Resume
//	+/-   - Ticks advanced per frame
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
