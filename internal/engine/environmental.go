package engine

import "time"

// Range scaling factors. Widening is deliberately faster than narrowing:
// an oscillating system needs room immediately, a converged one gives it
// back gradually.
const (
	widenMinFactor  = 0.9
	widenMaxFactor  = 1.1
	narrowMinFactor = 1.05
	narrowMaxFactor = 0.95
)

// Environmental is the long-horizon controller: it watches the direction of
// adaptive retunes and periodically widens or narrows the ranges within
// which the adaptive controller may tune.
//
// Persistent direction reversal means the faster layer is hunting - give it
// more freedom. Persistent same-direction (or no) movement means it has
// found a stable point - narrow the search space for precision.
type Environmental struct {
	// GainRange and DeadbandRange are the current legal tuning ranges,
	// read by the adaptive controller when it clamps.
	GainRange     Range
	DeadbandRange Range

	// Assessment window counters, reset after every assessment.
	Samples      int
	Adjustments  int
	Oscillations int

	lastDirection int // -1, 0, +1
	p             Params
}

// NewEnvironmental creates the environmental controller at its starting
// ranges.
func NewEnvironmental(p Params) *Environmental {
	return &Environmental{
		GainRange:     p.GainRange,
		DeadbandRange: p.DeadbandRange,
		p:             p,
	}
}

// Wants reports whether the controller reacts to this event kind.
func (e *Environmental) Wants(k Kind) bool {
	return k == KindParameterAdjusted
}

// Process counts an adjustment, detects direction reversals, and runs a
// range assessment once the sample window fills.
//
// Emits a RangeChanged event when the assessment widened (+1) or narrowed
// (-1) the ranges. RangeChanged is terminal: nothing consumes it.
func (e *Environmental) Process(ev Event, now time.Time) (Event, bool) {
	e.Samples++
	e.Adjustments++

	dir := ev.Aux
	if dir != 0 && dir != e.lastDirection && e.lastDirection != 0 {
		e.Oscillations++
	}
	e.lastDirection = dir

	if e.Samples < e.p.SampleWindow {
		return Event{}, false
	}
	return e.assess(now)
}

// assess computes the oscillation ratio over the window and rescales the
// tuning ranges accordingly, then resets the window counters.
func (e *Environmental) assess(now time.Time) (Event, bool) {
	adjustments := e.Adjustments
	if adjustments < 1 {
		adjustments = 1
	}
	ratio := float64(e.Oscillations) / float64(adjustments)

	var out Event
	emitted := false
	switch {
	case ratio > e.p.WidenThreshold:
		e.GainRange = e.rescale(e.GainRange, widenMinFactor, widenMaxFactor, e.p.GainLimits)
		e.DeadbandRange = e.rescale(e.DeadbandRange, widenMinFactor, widenMaxFactor, e.p.DeadbandLimits)
		out = NewEvent(KindRangeChanged, ratio, 1, now)
		emitted = true
	case ratio < e.p.NarrowThreshold && e.Adjustments > e.p.MinAdjustments:
		e.GainRange = e.rescale(e.GainRange, narrowMinFactor, narrowMaxFactor, e.p.GainLimits)
		e.DeadbandRange = e.rescale(e.DeadbandRange, narrowMinFactor, narrowMaxFactor, e.p.DeadbandLimits)
		out = NewEvent(KindRangeChanged, ratio, -1, now)
		emitted = true
	}

	e.Samples = 0
	e.Adjustments = 0
	e.Oscillations = 0

	return out, emitted
}

// rescale scales a range's bounds, clamps them to the hard limits, and
// guards against the bounds crossing.
func (e *Environmental) rescale(r Range, minFactor, maxFactor float64, limits Range) Range {
	scaled := Range{
		Min: limits.Clamp(r.Min * minFactor),
		Max: limits.Clamp(r.Max * maxFactor),
	}
	if scaled.Min > scaled.Max {
		mid := (scaled.Min + scaled.Max) / 2
		scaled.Min, scaled.Max = mid, mid
	}
	return scaled
}
