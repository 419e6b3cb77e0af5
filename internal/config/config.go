// Package config loads and validates the heliostat tuning profile.
//
// A profile is a YAML file merged over the stock defaults and then checked
// against an embedded CUE schema. Validation only happens at this boundary:
// once a profile reaches the engine it is trusted, and the engine's own
// robustness comes from clamping, not from rejection.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/phototropic/heliostat/internal/engine"
)

//go:embed schema.cue
var schemaCUE string

// Range is a [min, max] pair in profile form.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Telemetry configures the diagnostics sinks. Telemetry is strictly
// one-way; nothing here influences control behavior.
type Telemetry struct {
	// JournalPath is the SQLite journal file. Empty disables the journal.
	JournalPath string `yaml:"journal_path" json:"journal_path"`
	// ReportEveryTicks rate-limits log reporting. 0 disables it.
	ReportEveryTicks int `yaml:"report_every_ticks" json:"report_every_ticks"`
}

// Config is the tuning profile for one loop instance.
type Config struct {
	TickIntervalMs  int     `yaml:"tick_interval_ms" json:"tick_interval_ms"`
	QueueCapacity   int     `yaml:"queue_capacity" json:"queue_capacity"`
	TauMs           int     `yaml:"tau_ms" json:"tau_ms"`
	EnergyThreshold float64 `yaml:"energy_threshold" json:"energy_threshold"`

	Gain     float64 `yaml:"gain" json:"gain"`
	Deadband float64 `yaml:"deadband" json:"deadband"`
	Position float64 `yaml:"position" json:"position"`

	GainRange      Range `yaml:"gain_range" json:"gain_range"`
	DeadbandRange  Range `yaml:"deadband_range" json:"deadband_range"`
	GainLimits     Range `yaml:"gain_limits" json:"gain_limits"`
	DeadbandLimits Range `yaml:"deadband_limits" json:"deadband_limits"`

	SampleWindow   int `yaml:"sample_window" json:"sample_window"`
	MinAdjustments int `yaml:"min_adjustments" json:"min_adjustments"`

	WidenThreshold  float64 `yaml:"widen_threshold" json:"widen_threshold"`
	NarrowThreshold float64 `yaml:"narrow_threshold" json:"narrow_threshold"`

	Telemetry Telemetry `yaml:"telemetry" json:"telemetry"`
}

// Default returns the stock profile for a two-sensor light tracker.
// It mirrors engine.DefaultParams and always validates.
func Default() Config {
	p := engine.DefaultParams()
	return Config{
		TickIntervalMs:  int(p.TickInterval / time.Millisecond),
		QueueCapacity:   p.QueueCapacity,
		TauMs:           int(p.Tau / time.Millisecond),
		EnergyThreshold: p.EnergyThreshold,
		Gain:            p.InitialGain,
		Deadband:        p.InitialDeadband,
		Position:        p.InitialPosition,
		GainRange:       Range{Min: p.GainRange.Min, Max: p.GainRange.Max},
		DeadbandRange:   Range{Min: p.DeadbandRange.Min, Max: p.DeadbandRange.Max},
		GainLimits:      Range{Min: p.GainLimits.Min, Max: p.GainLimits.Max},
		DeadbandLimits:  Range{Min: p.DeadbandLimits.Min, Max: p.DeadbandLimits.Max},
		SampleWindow:    p.SampleWindow,
		MinAdjustments:  p.MinAdjustments,
		WidenThreshold:  p.WidenThreshold,
		NarrowThreshold: p.NarrowThreshold,
		Telemetry:       Telemetry{ReportEveryTicks: 50},
	}
}

// Load reads a YAML profile, merges it over the defaults, and validates.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("profile %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the profile against the embedded CUE schema plus the
// cross-field constraints the schema cannot express locally.
func (c Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	unified := schema.Unify(ctx.Encode(c))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var msgs []string
		for _, e := range cueerrors.Errors(err) {
			msgs = append(msgs, e.Error())
		}
		return fmt.Errorf("invalid profile: %s", strings.Join(msgs, "; "))
	}

	// Ranges must start inside their hard limits; the environmental
	// controller clamps to limits but never recovers a range born outside
	// them.
	if err := within(c.GainRange, c.GainLimits, "gain_range"); err != nil {
		return err
	}
	if err := within(c.DeadbandRange, c.DeadbandLimits, "deadband_range"); err != nil {
		return err
	}
	if c.NarrowThreshold >= c.WidenThreshold {
		return fmt.Errorf("invalid profile: narrow_threshold (%v) must be below widen_threshold (%v)",
			c.NarrowThreshold, c.WidenThreshold)
	}
	return nil
}

func within(r, limits Range, name string) error {
	if r.Min < limits.Min || r.Max > limits.Max {
		return fmt.Errorf("invalid profile: %s [%v, %v] exceeds its hard limits [%v, %v]",
			name, r.Min, r.Max, limits.Min, limits.Max)
	}
	return nil
}

// Params converts the profile into engine tuning parameters.
func (c Config) Params() engine.Params {
	return engine.Params{
		QueueCapacity:   c.QueueCapacity,
		TickInterval:    time.Duration(c.TickIntervalMs) * time.Millisecond,
		Tau:             time.Duration(c.TauMs) * time.Millisecond,
		EnergyThreshold: c.EnergyThreshold,
		InitialGain:     c.Gain,
		InitialDeadband: c.Deadband,
		InitialPosition: c.Position,
		GainRange:       engine.Range{Min: c.GainRange.Min, Max: c.GainRange.Max},
		DeadbandRange:   engine.Range{Min: c.DeadbandRange.Min, Max: c.DeadbandRange.Max},
		GainLimits:      engine.Range{Min: c.GainLimits.Min, Max: c.GainLimits.Max},
		DeadbandLimits:  engine.Range{Min: c.DeadbandLimits.Min, Max: c.DeadbandLimits.Max},
		SampleWindow:    c.SampleWindow,
		MinAdjustments:  c.MinAdjustments,
		WidenThreshold:  c.WidenThreshold,
		NarrowThreshold: c.NarrowThreshold,
	}
}
