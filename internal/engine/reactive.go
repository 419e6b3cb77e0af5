package engine

import (
	"math"
	"time"

	"github.com/phototropic/heliostat/internal/hal"
)

// Conversion constants between the sensor scale and actuator motion.
const (
	// sensorHalfScale normalizes a signed sensor difference: a full-scale
	// imbalance of one sensor saturated and the other dark is ~2x this.
	sensorHalfScale = 512.0
	// movementScale converts a normalized imbalance into degrees of travel
	// at unit gain.
	movementScale = 10.0
)

// Reactive is the immediate-timescale controller: it converts a sensed
// imbalance directly into an actuator delta.
//
// Position is owned by this controller. Gain and Deadband are owned here
// but mutated by the adaptive controller between events; the deadband is
// consulted by the sampler, not by Process, so directly injected events
// always produce motion.
type Reactive struct {
	Position float64
	Gain     float64
	Deadband float64

	actuator hal.Actuator
}

// NewReactive creates the reactive controller at its initial parameters.
func NewReactive(p Params, actuator hal.Actuator) *Reactive {
	return &Reactive{
		Position: p.InitialPosition,
		Gain:     p.InitialGain,
		Deadband: p.InitialDeadband,
		actuator: actuator,
	}
}

// Wants reports whether the controller reacts to this event kind.
func (r *Reactive) Wants(k Kind) bool {
	return k == KindLightChange
}

// Process converts a LightChange into proportional motion.
//
// delta = gain * (magnitude / sensorHalfScale) * movementScale, applied to
// the actuator after clamping the position to its physical bounds. Emits a
// MovementApplied event carrying |delta| and the rounded input imbalance.
func (r *Reactive) Process(ev Event, now time.Time) (Event, bool) {
	delta := r.Gain * (ev.Magnitude / sensorHalfScale) * movementScale

	r.Position += delta
	if r.Position < hal.AngleMin {
		r.Position = hal.AngleMin
	}
	if r.Position > hal.AngleMax {
		r.Position = hal.AngleMax
	}
	r.actuator.Apply(int(math.Round(r.Position)))

	return NewEvent(KindMovementApplied, math.Abs(delta), int(math.Round(math.Abs(ev.Magnitude))), now), true
}
