package trajectory

import (
	"errors"
	"fmt"
)

var (
	ErrGeometry   = errors.New("trajectory: degenerate or insufficient waypoints")
	ErrInfeasible = errors.New("trajectory: constraints cannot be satisfied")
)

// GenerationError reports the stage of Generate that failed. Index is the
// waypoint or path point involved, or -1.
type GenerationError struct {
	Stage  string
	Index  int
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%v: %s at %d: %s", e.Err, e.Stage, e.Index, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", e.Err, e.Stage, e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func genErr(stage string, index int, err error, format string, args ...any) *GenerationError {
	return &GenerationError{Stage: stage, Index: index, Reason: fmt.Sprintf(format, args...), Err: err}
}
