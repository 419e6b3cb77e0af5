package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phototropic/heliostat/internal/hal"
)

func TestReactive_ProportionalMovement(t *testing.T) {
	servo := &hal.RecordingServo{}
	r := NewReactive(DefaultParams(), servo)
	now := time.Unix(1700000000, 0)

	out, emitted := r.Process(NewEvent(KindLightChange, 100, 600, now), now)

	// delta = 0.5 * (100/512) * 10 = 0.9765625
	require.True(t, emitted)
	assert.Equal(t, KindMovementApplied, out.Kind)
	assert.InDelta(t, 0.9765625, out.Magnitude, 1e-12)
	assert.Equal(t, 100, out.Aux)
	assert.InDelta(t, 90.9765625, r.Position, 1e-12)
	assert.Equal(t, []int{91}, servo.Applied())
}

func TestReactive_NegativeImbalanceMovesDown(t *testing.T) {
	servo := &hal.RecordingServo{}
	r := NewReactive(DefaultParams(), servo)
	now := time.Unix(1700000000, 0)

	out, emitted := r.Process(NewEvent(KindLightChange, -200, 500, now), now)

	require.True(t, emitted)
	assert.InDelta(t, 1.953125, out.Magnitude, 1e-12, "emitted magnitude is |delta|")
	assert.Equal(t, 200, out.Aux)
	assert.InDelta(t, 88.046875, r.Position, 1e-12)
}

func TestReactive_ClampsToActuatorBounds(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tests := []struct {
		name      string
		magnitude float64
		want      float64
	}{
		{"extreme positive", 1e9, hal.AngleMax},
		{"extreme negative", -1e9, hal.AngleMin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			servo := &hal.RecordingServo{}
			r := NewReactive(DefaultParams(), servo)

			_, emitted := r.Process(NewEvent(KindLightChange, tt.magnitude, 0, now), now)

			require.True(t, emitted)
			assert.Equal(t, tt.want, r.Position)
			assert.Equal(t, int(tt.want), servo.Last())
		})
	}
}

func TestReactive_WantsOnlyLightChange(t *testing.T) {
	r := NewReactive(DefaultParams(), &hal.RecordingServo{})

	assert.True(t, r.Wants(KindLightChange))
	assert.False(t, r.Wants(KindMovementApplied))
	assert.False(t, r.Wants(KindParameterAdjusted))
	assert.False(t, r.Wants(KindRangeChanged))
}
