package engine

import "time"

// Kind distinguishes between event kinds.
type Kind int

const (
	// KindLightChange is a sensed imbalance between the two light sensors.
	// Magnitude is the signed difference left-right; Aux is the averaged
	// sensor level at sampling time.
	KindLightChange Kind = iota + 1
	// KindMovementApplied records an actuator delta applied by the reactive
	// controller. Magnitude is |delta|; Aux is the rounded absolute input
	// imbalance that caused it.
	KindMovementApplied
	// KindParameterAdjusted records a gain retune by the adaptive
	// controller. Magnitude is the new gain; Aux is the adjustment
	// direction (-1 or +1).
	KindParameterAdjusted
	// KindRangeChanged records a tuning-range change by the environmental
	// controller. Magnitude is the oscillation ratio that triggered it;
	// Aux is +1 (widened) or -1 (narrowed). Terminal: no controller
	// consumes it.
	KindRangeChanged
)

// String returns the kind name used in traces and diagnostics.
func (k Kind) String() string {
	switch k {
	case KindLightChange:
		return "LightChange"
	case KindMovementApplied:
		return "MovementApplied"
	case KindParameterAdjusted:
		return "ParameterAdjusted"
	case KindRangeChanged:
		return "RangeChanged"
	default:
		return "Unknown"
	}
}

// Event is an immutable record of something that happened in the loop.
//
// Events are value types: created once by a controller or the sampler,
// consumed exactly once by dequeue, never mutated after creation.
type Event struct {
	Kind      Kind
	Magnitude float64
	Timestamp time.Time
	Aux       int
}

// NewEvent stamps an event with the given creation time.
func NewEvent(kind Kind, magnitude float64, aux int, now time.Time) Event {
	return Event{Kind: kind, Magnitude: magnitude, Timestamp: now, Aux: aux}
}
