package engine

import "time"

// Range is an inclusive [Min, Max] interval for a tunable parameter.
type Range struct {
	Min float64
	Max float64
}

// Clamp returns v forced into the range.
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Params carries the environment-specific tuning of a loop instance.
//
// The adaptation rule thresholds and factors are deliberately not here:
// they are fixed constants of the algorithm (see adaptive.go), not
// deployment knobs.
type Params struct {
	// QueueCapacity is the fixed event queue size.
	QueueCapacity int
	// TickInterval is the loop's sampling period under Run.
	TickInterval time.Duration

	// Tau is the fast time constant driving energy decay and the
	// event-rate-scaled moving-average weighting. The slow time constant
	// for the moving averages is 10x Tau.
	Tau time.Duration
	// EnergyThreshold is the accumulated energy at which an adaptation
	// pass runs.
	EnergyThreshold float64

	// Initial reactive parameters.
	InitialGain     float64
	InitialDeadband float64
	InitialPosition float64

	// Starting allowed tuning ranges.
	GainRange     Range
	DeadbandRange Range
	// Absolute hard limits the ranges themselves may never leave.
	GainLimits     Range
	DeadbandLimits Range

	// Environmental assessment window.
	SampleWindow    int
	MinAdjustments  int
	WidenThreshold  float64
	NarrowThreshold float64
}

// DefaultParams returns the stock tuning for a two-sensor light tracker.
func DefaultParams() Params {
	return Params{
		QueueCapacity:   32,
		TickInterval:    20 * time.Millisecond,
		Tau:             200 * time.Millisecond,
		EnergyThreshold: 500,
		InitialGain:     0.5,
		InitialDeadband: 30,
		InitialPosition: 90,
		GainRange:       Range{Min: 0.1, Max: 1.5},
		DeadbandRange:   Range{Min: 5, Max: 80},
		GainLimits:      Range{Min: 0.05, Max: 3.0},
		DeadbandLimits:  Range{Min: 1, Max: 120},
		SampleWindow:    50,
		MinAdjustments:  5,
		WidenThreshold:  0.5,
		NarrowThreshold: 0.2,
	}
}
