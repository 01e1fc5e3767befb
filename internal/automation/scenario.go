// Package automation runs scripted batches of simulations described in YAML.
//
//	name: gain_check
//	steps:
//	  - name: pidf baseline
//	    preset: s_curve
//	  - name: ramsete soft
//	    preset: s_curve
//	    controller: ramsete
//	    gains: {b: 1.2, zeta: 0.8}
package automation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/edaniels/golog"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/drivekit/internal/config"
	"github.com/san-kum/drivekit/internal/sim"
	"github.com/san-kum/drivekit/internal/storage"
)

type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`

	// dir resolves relative config paths in steps.
	dir string
}

// Step starts from Preset, or from the Config file, or from the defaults, and
// then applies its non-zero overrides.
type Step struct {
	Name       string             `yaml:"name"`
	Drivetrain string             `yaml:"drivetrain"`
	Preset     string             `yaml:"preset"`
	Config     string             `yaml:"config"`
	Controller string             `yaml:"controller"`
	Integrator string             `yaml:"integrator"`
	Dt         float64            `yaml:"dt"`
	Seed       int64              `yaml:"seed"`
	Runs       int                `yaml:"runs"`
	Gains      map[string]float64 `yaml:"gains"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	scenario.dir = filepath.Dir(path)
	return &scenario, nil
}

func (s Step) label(i int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("step %d", i+1)
}

// Resolve builds and validates the config for one step.
func (sc *Scenario) Resolve(step Step) (*config.Config, error) {
	drivetrain := step.Drivetrain
	if drivetrain == "" {
		drivetrain = "differential"
	}

	var cfg *config.Config
	switch {
	case step.Preset != "":
		cfg = config.GetPreset(drivetrain, step.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available for %s: %v)", step.Preset, drivetrain, config.ListPresets(drivetrain))
		}
	case step.Config != "":
		path := step.Config
		if !filepath.IsAbs(path) && sc.dir != "" {
			path = filepath.Join(sc.dir, path)
		}
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	default:
		cfg = config.DefaultConfig()
	}

	if step.Controller != "" {
		cfg.Controller.Type = step.Controller
	}
	if step.Integrator != "" {
		cfg.Sim.Integrator = step.Integrator
	}
	if step.Dt > 0 {
		cfg.Sim.Dt = step.Dt
		cfg.Controller.Period = step.Dt
	}
	if step.Seed != 0 {
		cfg.Sim.Seed = step.Seed
	}
	if step.Runs > 0 {
		cfg.Sim.Runs = step.Runs
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Executor simulates one resolved step.
type Executor func(ctx context.Context, cfg *config.Config, gains map[string]float64) (*sim.Result, error)

type StepResult struct {
	Step   Step
	Result *sim.Result
	RunID  string
}

// Run executes the steps in order and stops at the first failure, returning
// the steps completed so far. Results are saved to store when it is not nil.
func Run(ctx context.Context, sc *Scenario, exec Executor, store *storage.Store, logger golog.Logger) ([]StepResult, error) {
	if store != nil {
		if err := store.Init(); err != nil {
			return nil, err
		}
	}

	results := make([]StepResult, 0, len(sc.Steps))
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		logger.Infow("running step", "scenario", sc.Name, "step", step.label(i), "index", i+1, "of", len(sc.Steps))

		cfg, err := sc.Resolve(step)
		if err != nil {
			return results, fmt.Errorf("%s: %w", step.label(i), err)
		}
		result, err := exec(ctx, cfg, step.Gains)
		if err != nil {
			return results, fmt.Errorf("%s run: %w", step.label(i), err)
		}

		sr := StepResult{Step: step, Result: result}
		if store != nil {
			simCfg := cfg.BuildSimConfig()
			sr.RunID, err = store.Save(storage.RunMetadata{
				Drivetrain: cfg.Drivetrain.Type,
				Preset:     step.Preset,
				Seed:       simCfg.Seed,
				Dt:         simCfg.Dt,
				Integrator: cfg.Sim.Integrator,
				Controller: cfg.Controller.Type,
			}, result)
			if err != nil {
				return results, fmt.Errorf("%s save: %w", step.label(i), err)
			}
		}
		results = append(results, sr)
	}
	return results, nil
}
