package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phototropic/heliostat/internal/hal"
)

func newTestAdaptive(t *testing.T, p Params) (*Adaptive, *Reactive, *Environmental, time.Time) {
	t.Helper()
	start := time.Unix(1700000000, 0)
	env := NewEnvironmental(p)
	r := NewReactive(p, &hal.RecordingServo{})
	a := NewAdaptive(p, r, env, start)
	return a, r, env, start
}

func TestAdaptive_AccumulatesEnergy(t *testing.T) {
	a, _, _, start := newTestAdaptive(t, DefaultParams())

	_, emitted := a.Process(NewEvent(KindLightChange, 100, 0, start), start)
	assert.False(t, emitted)
	_, emitted = a.Process(NewEvent(KindMovementApplied, -2, 0, start), start)
	assert.False(t, emitted)

	assert.InDelta(t, 102, a.Energy, 1e-12, "energy accumulates |magnitude| of every event")
}

func TestAdaptive_AlphaCeilingOnSparseEvents(t *testing.T) {
	a, _, _, start := newTestAdaptive(t, DefaultParams())

	// 10s since the last update: alpha saturates at 0.5, so a single
	// full-scale movement pulls the average exactly halfway.
	later := start.Add(10 * time.Second)
	a.Process(NewEvent(KindMovementApplied, 5, 0, later), later)

	assert.InDelta(t, 0.5, a.MovementAvg, 1e-12)
}

func TestAdaptive_AlphaFloorOnDenseEvents(t *testing.T) {
	a, _, _, start := newTestAdaptive(t, DefaultParams())

	// Zero gap: alpha bottoms out at 0.02.
	a.Process(NewEvent(KindMovementApplied, 5, 0, start), start)

	assert.InDelta(t, 0.02, a.MovementAvg, 1e-12)
}

func TestAdaptive_NormalizationCapsAtOne(t *testing.T) {
	a, _, _, start := newTestAdaptive(t, DefaultParams())

	// A wildly out-of-range magnitude normalizes to 1, not beyond.
	later := start.Add(10 * time.Second)
	a.Process(NewEvent(KindLightChange, 1e6, 0, later), later)

	assert.InDelta(t, 0.5, a.ErrorAvg, 1e-12, "normalized magnitude capped at 1, alpha at 0.5")
	a.Energy = 0 // isolate the next event
	evenLater := later.Add(10 * time.Second)
	a.Process(NewEvent(KindLightChange, 1e6, 0, evenLater), evenLater)
	assert.InDelta(t, 0.75, a.ErrorAvg, 1e-12)
}

func TestAdaptive_NervousRuleFiresOncePerCrossing(t *testing.T) {
	a, r, _, start := newTestAdaptive(t, DefaultParams())

	// Nervous regime: lots of movement, error still present.
	a.MovementAvg = 0.7
	a.ErrorAvg = 0.3
	a.Energy = 499.5

	out, emitted := a.Process(NewEvent(KindLightChange, 1, 0, start), start)

	require.True(t, emitted, "crossing the energy threshold must adapt")
	assert.Equal(t, KindParameterAdjusted, out.Kind)
	assert.Equal(t, -1, out.Aux)
	assert.InDelta(t, 0.5*0.85, r.Gain, 1e-9, "nervous rule reduces gain once")
	assert.InDelta(t, 0.5*0.85, out.Magnitude, 1e-9, "event carries the new gain")
	assert.Equal(t, 0.0, a.Energy, "energy resets after the pass")
	assert.Equal(t, 1, a.Cycles)

	// The next event is below threshold again: no second firing.
	_, emitted = a.Process(NewEvent(KindLightChange, 1, 0, start), start)
	assert.False(t, emitted)
	assert.Equal(t, 1, a.Cycles)
}

func TestAdaptive_SluggishRuleIncreasesGain(t *testing.T) {
	a, r, _, start := newTestAdaptive(t, DefaultParams())

	a.MovementAvg = 0.1
	a.ErrorAvg = 0.5
	a.Energy = 499.5

	out, emitted := a.Process(NewEvent(KindLightChange, 1, 0, start), start)

	require.True(t, emitted)
	assert.Equal(t, 1, out.Aux)
	assert.InDelta(t, 0.5*1.15, r.Gain, 1e-9)
}

func TestAdaptive_WastefulRuleReducesGain(t *testing.T) {
	a, r, _, start := newTestAdaptive(t, DefaultParams())

	a.MovementAvg = 0.9
	a.ErrorAvg = 0.01
	a.Energy = 499.5

	// A small movement event keeps the averages in the wasteful regime.
	out, emitted := a.Process(NewEvent(KindMovementApplied, 1, 0, start), start)

	require.True(t, emitted)
	assert.Equal(t, -1, out.Aux)
	assert.InDelta(t, 0.5*0.90, r.Gain, 1e-9)
	assert.InDelta(t, 30*1.10, r.Deadband, 1e-9, "near-zero error also widens the deadband")
}

func TestAdaptive_DeadbandNarrowsOnHighError(t *testing.T) {
	a, r, _, start := newTestAdaptive(t, DefaultParams())

	a.MovementAvg = 0.7
	a.ErrorAvg = 0.3
	a.Energy = 499.5

	a.Process(NewEvent(KindLightChange, 1, 0, start), start)

	assert.InDelta(t, 30*0.90, r.Deadband, 1e-9)
}

func TestAdaptive_ClampsToEnvironmentalRanges(t *testing.T) {
	p := DefaultParams()
	a, r, env, start := newTestAdaptive(t, p)

	env.GainRange = Range{Min: 0.45, Max: 0.6}
	env.DeadbandRange = Range{Min: 28, Max: 40}
	a.MovementAvg = 0.7
	a.ErrorAvg = 0.3
	a.Energy = 499.5

	out, emitted := a.Process(NewEvent(KindLightChange, 1, 0, start), start)

	require.True(t, emitted)
	assert.Equal(t, 0.45, r.Gain, "nervous result 0.425 clamps to the range floor")
	assert.Equal(t, 28.0, r.Deadband, "deadband result 27 clamps to the range floor")
	assert.Equal(t, -1, out.Aux)
}

func TestAdaptive_EpsilonGatesEmission(t *testing.T) {
	a, r, env, start := newTestAdaptive(t, DefaultParams())

	// Pin the gain: the pass runs but the clamped result equals the old
	// value, so no ParameterAdjusted is emitted.
	env.GainRange = Range{Min: 0.5, Max: 0.5}
	a.MovementAvg = 0.7
	a.ErrorAvg = 0.3
	a.Energy = 499.5

	_, emitted := a.Process(NewEvent(KindLightChange, 1, 0, start), start)

	assert.False(t, emitted)
	assert.Equal(t, 0.5, r.Gain)
	assert.Equal(t, 1, a.Cycles, "the pass itself still completes")
	assert.Equal(t, 0.0, a.Energy)
}

func TestAdaptive_WantsLightChangeAndMovement(t *testing.T) {
	a, _, _, _ := newTestAdaptive(t, DefaultParams())

	assert.True(t, a.Wants(KindLightChange))
	assert.True(t, a.Wants(KindMovementApplied))
	assert.False(t, a.Wants(KindParameterAdjusted))
	assert.False(t, a.Wants(KindRangeChanged))
}
