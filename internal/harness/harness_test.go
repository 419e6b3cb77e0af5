package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_InjectBypassesDeadband(t *testing.T) {
	// Magnitude 10 is well inside the default deadband of 30; injection
	// skips the sampler gate, so it still moves the actuator.
	s := &Scenario{
		Name: "inject-below-deadband",
		Steps: []Step{
			{Inject: &InjectSpec{Kind: "LightChange", Magnitude: 10}},
		},
	}

	r, err := Run(s)

	require.NoError(t, err)
	require.Len(t, r.Trace, 2)
	assert.Equal(t, "LightChange", r.Trace[0].Kind)
	assert.Equal(t, "MovementApplied", r.Trace[1].Kind)
	assert.Greater(t, r.Final.Position, 90.0)
}

func TestRun_SamplerRespectsProfileDeadband(t *testing.T) {
	s := &Scenario{
		Name:    "widened-deadband",
		Profile: map[string]interface{}{"deadband": 50},
		Steps: []Step{
			{Sample: &SamplePair{Left: 540, Right: 500}, Repeat: 5},
		},
	}

	r, err := Run(s)

	require.NoError(t, err)
	assert.Empty(t, r.Trace, "imbalance of 40 sits inside the widened deadband")
	assert.Empty(t, r.Final.Applied)
	assert.Equal(t, 90.0, r.Final.Position)
}

func TestRun_TraceOffsetsFollowTheClock(t *testing.T) {
	s := &Scenario{
		Name: "offsets",
		Steps: []Step{
			{AdvanceMs: 100, Repeat: 2},
			{Sample: &SamplePair{Left: 700, Right: 500}, AdvanceMs: 100},
		},
	}

	r, err := Run(s)

	require.NoError(t, err)
	require.Len(t, r.Trace, 2)
	// Sampled on the third iteration, 300ms after the epoch.
	assert.Equal(t, int64(300), r.Trace[0].OffsetMs)
	assert.Equal(t, 1, r.Trace[0].Seq)
	assert.Equal(t, 2, r.Trace[1].Seq)
}

func TestRun_AssertionFailuresReported(t *testing.T) {
	s := &Scenario{
		Name:  "doomed",
		Steps: []Step{{Inject: &InjectSpec{Kind: "LightChange", Magnitude: 100}}},
		Assertions: []Assertion{
			{Type: AssertEventCount, Kind: "RangeChanged", Count: 3},
			{Type: AssertPositionBetween, Min: 0, Max: 10},
			{Type: AssertGainBetween, Min: 0.4, Max: 0.6},
		},
	}

	r, err := Run(s)

	require.NoError(t, err)
	assert.False(t, r.Passed())
	require.Len(t, r.Failures, 2, "every failing assertion is reported, passing ones are not")
	assert.Contains(t, r.Failures[0], "RangeChanged")
	assert.Contains(t, r.Failures[1], "position")
}

func TestRun_ParamsInRangeAssertion(t *testing.T) {
	s := &Scenario{
		Name:       "in-range",
		Steps:      []Step{{Repeat: 3}},
		Assertions: []Assertion{{Type: AssertParamsInRange}},
	}

	r, err := Run(s)

	require.NoError(t, err)
	assert.True(t, r.Passed(), "stock parameters start inside their own ranges: %v", r.Failures)
}

func TestRun_InvalidProfileFails(t *testing.T) {
	s := &Scenario{
		Name:    "broken-profile",
		Profile: map[string]interface{}{"queue_capacity": 1},
		Steps:   []Step{{}},
	}

	_, err := Run(s)
	assert.Error(t, err)
}
