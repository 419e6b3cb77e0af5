package engine

import (
	"math"
	"time"
)

// Adaptation rule constants. These are fixed properties of the algorithm,
// applied unconditionally in declaration order: every matching rule fires
// in the same pass and the factors compose multiplicatively. The order is
// a designed tie-break, not incidental.
const (
	// Nervous system: moving a lot and still missing. Calm it down.
	nervousMovement = 0.6
	nervousError    = 0.1
	nervousFactor   = 0.85

	// Sluggish system: barely moving while the error stays high. Push it.
	sluggishMovement = 0.2
	sluggishError    = 0.2
	sluggishFactor   = 1.15

	// Wasteful gain: moving a lot with almost no error left. Back off.
	wastefulMovement = 0.8
	wastefulError    = 0.06
	wastefulFactor   = 0.90

	// Deadband widens when the error is near zero and narrows when the
	// error runs high.
	deadbandLowError   = 0.05
	deadbandHighError  = 0.20
	deadbandUpFactor   = 1.10
	deadbandDownFactor = 0.90

	// gainEpsilon gates ParameterAdjusted emission: retunes smaller than
	// this are noise, not adjustments.
	gainEpsilon = 0.01

	// movementFullScale normalizes a movement magnitude into [0,1].
	movementFullScale = 5.0

	// Moving-average weight bounds. The floor keeps dense event bursts
	// from freezing the averages; the ceiling keeps a single sparse event
	// from erasing them.
	alphaMin = 0.02
	alphaMax = 0.5
)

// Adaptive is the short-horizon controller: it accumulates decaying
// statistics over LightChange and MovementApplied events and, each time the
// accumulated energy crosses its threshold, retunes the reactive
// controller's gain and deadband within the environmental controller's
// current ranges.
type Adaptive struct {
	// Energy accumulates |magnitude| of every consumed event and decays
	// with the fast time constant.
	Energy float64
	// ErrorAvg and MovementAvg are exponentially time-weighted averages
	// in [0,1], decaying with the slow time constant.
	ErrorAvg    float64
	MovementAvg float64
	// Cycles counts completed adaptation passes.
	Cycles int

	reactive *Reactive
	env      *Environmental
	p        Params

	// lastUpdate is the time of the previously consumed event. The gap to
	// the current event sets the moving-average weight: sparse events get
	// a large weight (fresh data displaces stale memory), dense events a
	// small one (stable averaging). The memory's effective time constant
	// scales with event rate, not with loop speed.
	lastUpdate time.Time
}

// NewAdaptive creates the adaptive controller bound to the reactive
// parameters it tunes and the environmental ranges it must respect.
func NewAdaptive(p Params, reactive *Reactive, env *Environmental, now time.Time) *Adaptive {
	return &Adaptive{
		reactive:   reactive,
		env:        env,
		p:          p,
		lastUpdate: now,
	}
}

// Wants reports whether the controller reacts to this event kind.
func (a *Adaptive) Wants(k Kind) bool {
	return k == KindLightChange || k == KindMovementApplied
}

// Process folds the event into the decaying statistics and runs an
// adaptation pass when the accumulated energy crosses the threshold.
//
// Emits a ParameterAdjusted event when the pass moved the gain by more
// than gainEpsilon.
func (a *Adaptive) Process(ev Event, now time.Time) (Event, bool) {
	a.Energy += math.Abs(ev.Magnitude)

	alpha := a.alpha(now)
	a.lastUpdate = now

	switch ev.Kind {
	case KindMovementApplied:
		n := math.Min(math.Abs(ev.Magnitude)/movementFullScale, 1)
		a.MovementAvg = a.MovementAvg*(1-alpha) + n*alpha
	case KindLightChange:
		n := math.Min(math.Abs(ev.Magnitude)/sensorHalfScale, 1)
		a.ErrorAvg = a.ErrorAvg*(1-alpha) + n*alpha
	}

	if a.Energy < a.p.EnergyThreshold {
		return Event{}, false
	}
	return a.adapt(now)
}

// alpha computes the time-dependent moving-average weight from the gap
// since the previously consumed event.
func (a *Adaptive) alpha(now time.Time) float64 {
	dt := now.Sub(a.lastUpdate).Seconds()
	if dt < 0 {
		dt = 0
	}
	alpha := 1 - math.Exp(-dt/a.p.Tau.Seconds())
	if alpha < alphaMin {
		return alphaMin
	}
	if alpha > alphaMax {
		return alphaMax
	}
	return alpha
}

// adapt runs one adaptation pass: all matching rules fire in declaration
// order, then gain and deadband are clamped to the environmental ranges.
func (a *Adaptive) adapt(now time.Time) (Event, bool) {
	oldGain := a.reactive.Gain
	gain := oldGain

	if a.MovementAvg > nervousMovement && a.ErrorAvg > nervousError {
		gain *= nervousFactor
	}
	if a.MovementAvg < sluggishMovement && a.ErrorAvg > sluggishError {
		gain *= sluggishFactor
	}
	if a.MovementAvg > wastefulMovement && a.ErrorAvg < wastefulError {
		gain *= wastefulFactor
	}

	deadband := a.reactive.Deadband
	if a.ErrorAvg < deadbandLowError {
		deadband *= deadbandUpFactor
	} else if a.ErrorAvg > deadbandHighError {
		deadband *= deadbandDownFactor
	}

	a.reactive.Gain = a.env.GainRange.Clamp(gain)
	a.reactive.Deadband = a.env.DeadbandRange.Clamp(deadband)

	a.Energy = 0
	a.Cycles++

	diff := a.reactive.Gain - oldGain
	if math.Abs(diff) <= gainEpsilon {
		return Event{}, false
	}
	dir := 1
	if diff < 0 {
		dir = -1
	}
	return NewEvent(KindParameterAdjusted, a.reactive.Gain, dir, now), true
}

// Decay applies elapsed-real-time exponential decay to all persistent
// memory. dt <= 0 is a no-op. The accumulated energy decays with the fast
// time constant, the moving averages with the slow one (10x).
func (a *Adaptive) Decay(dt time.Duration) {
	if dt <= 0 {
		return
	}
	secs := dt.Seconds()
	tau := a.p.Tau.Seconds()

	a.Energy *= math.Exp(-secs / tau)

	slow := math.Exp(-secs / (tau * 10))
	a.ErrorAvg *= slow
	a.MovementAvg *= slow
}
