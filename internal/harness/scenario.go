// Package harness provides a conformance testing framework for the control
// loop.
//
// A scenario is a YAML file describing a deterministic run: a tuning
// profile, a sequence of sensor samples and injected events with explicit
// clock advances, and assertions over the resulting event trace and final
// state. Scenarios run against a fake clock and a recording servo, so the
// same file always produces the same trace - which makes golden-file
// comparison meaningful.
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/phototropic/heliostat/internal/config"
	"github.com/phototropic/heliostat/internal/engine"
)

// Scenario defines one deterministic conformance run.
type Scenario struct {
	// Name uniquely identifies this scenario; it is also the golden file
	// name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Profile contains tuning-profile overrides merged over the defaults.
	// Keys follow the config YAML schema.
	Profile map[string]interface{} `yaml:"profile,omitempty"`

	// Steps is the ordered list of loop iterations to drive.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and final state after all steps.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step drives one loop iteration (or several identical ones via Repeat).
type Step struct {
	// Sample sets the scripted sensor readings for this iteration.
	// Omitted means balanced mid-scale light (no imbalance).
	Sample *SamplePair `yaml:"sample,omitempty"`

	// Inject enqueues an event directly, bypassing the sampler and its
	// deadband gate.
	Inject *InjectSpec `yaml:"inject,omitempty"`

	// AdvanceMs moves the fake clock forward before the iteration runs.
	// Defaults to the profile's tick interval.
	AdvanceMs int `yaml:"advance_ms,omitempty"`

	// Repeat runs this step N times (default 1).
	Repeat int `yaml:"repeat,omitempty"`
}

// SamplePair is a pair of raw sensor readings.
type SamplePair struct {
	Left  int `yaml:"left"`
	Right int `yaml:"right"`
}

// InjectSpec describes a directly injected event.
type InjectSpec struct {
	// Kind is the event kind name: LightChange, MovementApplied,
	// ParameterAdjusted, or RangeChanged.
	Kind      string  `yaml:"kind"`
	Magnitude float64 `yaml:"magnitude"`
	Aux       int     `yaml:"aux,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type specifies the assertion:
	//   - "event_count": Kind appears exactly Count times in the trace
	//   - "position_between": final position within [Min, Max]
	//   - "gain_between": final gain within [Min, Max]
	//   - "params_in_range": final gain and deadband lie within the
	//     environmental controller's final ranges
	Type string `yaml:"type"`

	Kind  string  `yaml:"kind,omitempty"`
	Count int     `yaml:"count,omitempty"`
	Min   float64 `yaml:"min,omitempty"`
	Max   float64 `yaml:"max,omitempty"`
}

// Assertion type constants.
const (
	AssertEventCount      = "event_count"
	AssertPositionBetween = "position_between"
	AssertGainBetween     = "gain_between"
	AssertParamsInRange   = "params_in_range"
)

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario must have a name")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario must have at least one step")
	}
	for i, step := range s.Steps {
		if step.Inject != nil {
			if _, err := kindFromString(step.Inject.Kind); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}
		if step.Repeat < 0 {
			return fmt.Errorf("step %d: repeat must be non-negative", i)
		}
		if step.AdvanceMs < 0 {
			return fmt.Errorf("step %d: advance_ms must be non-negative", i)
		}
	}
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertEventCount:
			if _, err := kindFromString(a.Kind); err != nil {
				return fmt.Errorf("assertion %d: %w", i, err)
			}
		case AssertPositionBetween, AssertGainBetween, AssertParamsInRange:
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
	}
	return nil
}

// profileConfig merges the scenario's profile overrides over the defaults
// and validates the result.
func (s *Scenario) profileConfig() (config.Config, error) {
	cfg := config.Default()
	if len(s.Profile) == 0 {
		return cfg, nil
	}
	// Round-trip the override map through YAML so it merges onto the
	// defaults with the same schema the config loader uses.
	data, err := yaml.Marshal(s.Profile)
	if err != nil {
		return cfg, fmt.Errorf("encoding profile overrides: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("applying profile overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func kindFromString(name string) (engine.Kind, error) {
	switch name {
	case "LightChange":
		return engine.KindLightChange, nil
	case "MovementApplied":
		return engine.KindMovementApplied, nil
	case "ParameterAdjusted":
		return engine.KindParameterAdjusted, nil
	case "RangeChanged":
		return engine.KindRangeChanged, nil
	default:
		return 0, fmt.Errorf("unknown event kind %q", name)
	}
}
