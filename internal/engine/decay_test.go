package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecay_ZeroDurationIsNoOp(t *testing.T) {
	a, _, _, _ := newTestAdaptive(t, DefaultParams())
	a.Energy = 123
	a.ErrorAvg = 0.4
	a.MovementAvg = 0.2

	a.Decay(0)

	assert.Equal(t, 123.0, a.Energy)
	assert.Equal(t, 0.4, a.ErrorAvg)
	assert.Equal(t, 0.2, a.MovementAvg)
}

func TestDecay_NegativeDurationIsNoOp(t *testing.T) {
	a, _, _, _ := newTestAdaptive(t, DefaultParams())
	a.Energy = 123

	a.Decay(-time.Second)

	assert.Equal(t, 123.0, a.Energy)
}

func TestDecay_TimeConstants(t *testing.T) {
	p := DefaultParams() // tau = 200ms
	a, _, _, _ := newTestAdaptive(t, p)
	a.Energy = 100
	a.ErrorAvg = 1
	a.MovementAvg = 1

	a.Decay(p.Tau)

	// Energy decays with tau, the averages with 10x tau.
	assert.InDelta(t, 100*math.Exp(-1), a.Energy, 1e-9)
	assert.InDelta(t, math.Exp(-0.1), a.ErrorAvg, 1e-9)
	assert.InDelta(t, math.Exp(-0.1), a.MovementAvg, 1e-9)
}

func TestDecay_MonotoneNonIncreasing(t *testing.T) {
	a, _, _, _ := newTestAdaptive(t, DefaultParams())
	a.Energy = 500
	a.ErrorAvg = 0.9
	a.MovementAvg = 0.7

	for i := 0; i < 50; i++ {
		prevEnergy, prevErr, prevMove := a.Energy, a.ErrorAvg, a.MovementAvg

		a.Decay(75 * time.Millisecond)

		assert.LessOrEqual(t, a.Energy, prevEnergy)
		assert.LessOrEqual(t, a.ErrorAvg, prevErr)
		assert.LessOrEqual(t, a.MovementAvg, prevMove)
		assert.GreaterOrEqual(t, a.Energy, 0.0)
		assert.GreaterOrEqual(t, a.ErrorAvg, 0.0)
		assert.GreaterOrEqual(t, a.MovementAvg, 0.0)
	}
}
