// Package optim tunes tracker gains by exhaustive grid search over
// simulated runs.
package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/multierr"

	"github.com/san-kum/drivekit/internal/control"
	"github.com/san-kum/drivekit/internal/sim"
)

// RunFunc simulates one candidate gain set.
type RunFunc func(ctx context.Context, params map[string]float64) (*sim.Result, error)

// Trial is one evaluated grid point.
type Trial struct {
	Params   map[string]float64
	Value    float64
	Finished bool
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("grid search needs at least one parameter")
	}
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("parameter %s has no values", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search evaluates every grid point and returns the trials sorted by metric,
// best first. Runs that fail or do not finish rank last. An error is
// returned only when no trial could be evaluated or ctx is done.
func (g *GridSearch) Search(ctx context.Context, run RunFunc, metricName string) ([]Trial, error) {
	trials := make([]Trial, 0, g.Size())
	var errs error

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) {
		result, err := run(ctx, params)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%v: %w", params, err))
			return
		}
		val, ok := result.Metrics[metricName]
		if !ok || math.IsNaN(val) {
			errs = multierr.Append(errs, fmt.Errorf("%v: metric %q missing", params, metricName))
			return
		}
		trials = append(trials, Trial{Params: params, Value: val, Finished: result.Finished})
	})
	if err != nil {
		return trials, err
	}
	if len(trials) == 0 {
		return nil, multierr.Append(fmt.Errorf("no trial succeeded"), errs)
	}

	sort.SliceStable(trials, func(i, j int) bool {
		if trials[i].Finished != trials[j].Finished {
			return trials[i].Finished
		}
		return trials[i].Value < trials[j].Value
	})
	return trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	visit func(map[string]float64),
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		visit(current)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, visit); err != nil {
			return err
		}
	}
	return nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// Apply sets params on t, rejecting names t does not expose.
func Apply(t control.Tunable, params map[string]float64) error {
	known := t.GetParams()
	for name := range params {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("unknown parameter %q", name)
		}
	}
	for name, v := range params {
		t.SetParam(name, v)
	}
	return nil
}
