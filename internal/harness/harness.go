package harness

import (
	"time"

	"github.com/phototropic/heliostat/internal/engine"
	"github.com/phototropic/heliostat/internal/hal"
	"github.com/phototropic/heliostat/internal/testutil"
)

// scenarioEpoch is the fixed start instant for every scenario run.
// Using a constant rather than time.Now keeps trace offsets and decay
// arithmetic identical across runs and machines.
var scenarioEpoch = time.Unix(1700000000, 0).UTC()

// TraceEvent is one dequeued event as captured for the trace.
type TraceEvent struct {
	Seq       int     `json:"seq"`
	Kind      string  `json:"kind"`
	Magnitude float64 `json:"magnitude"`
	Aux       int     `json:"aux"`
	// OffsetMs is the event's creation time relative to the scenario
	// epoch. Deterministic because scenarios run on a fake clock.
	OffsetMs int64 `json:"offset_ms"`
}

// FinalState is the loop state after the last step.
type FinalState struct {
	Position float64 `json:"position"`
	Gain     float64 `json:"gain"`
	Deadband float64 `json:"deadband"`
	Applied  []int   `json:"applied"`
}

// Result is the outcome of one scenario run.
type Result struct {
	Scenario *Scenario
	Trace    []TraceEvent
	Final    FinalState

	// Ranges at the end of the run, for params_in_range assertions.
	GainRange     engine.Range
	DeadbandRange engine.Range

	// Failures holds assertion failures. Empty means the scenario passed.
	Failures []string
}

// Passed reports whether all assertions held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Run executes a scenario against a fake clock, scripted sensors, and a
// recording servo, then evaluates its assertions.
//
// Each iteration: apply the step's sensor readings (balanced if omitted),
// inject the step's event if any, advance the clock, tick the loop.
func Run(s *Scenario) (*Result, error) {
	cfg, err := s.profileConfig()
	if err != nil {
		return nil, err
	}
	params := cfg.Params()

	clk := testutil.NewFakeClock(scenarioEpoch)
	sensor := hal.NewScriptedSensor()
	servo := &hal.RecordingServo{}

	var trace []TraceEvent
	loop := engine.New(params, sensor, servo,
		engine.WithClock(clk),
		engine.WithTrace(func(ev engine.Event) {
			trace = append(trace, TraceEvent{
				Seq:       len(trace) + 1,
				Kind:      ev.Kind.String(),
				Magnitude: ev.Magnitude,
				Aux:       ev.Aux,
				OffsetMs:  ev.Timestamp.Sub(scenarioEpoch).Milliseconds(),
			})
		}),
	)

	for _, step := range s.Steps {
		repeat := step.Repeat
		if repeat < 1 {
			repeat = 1
		}
		advance := time.Duration(step.AdvanceMs) * time.Millisecond
		if step.AdvanceMs == 0 {
			advance = params.TickInterval
		}

		for i := 0; i < repeat; i++ {
			if step.Sample != nil {
				sensor.Set(step.Sample.Left, step.Sample.Right)
			} else {
				sensor.Set(512, 512)
			}
			if step.Inject != nil {
				kind, err := kindFromString(step.Inject.Kind)
				if err != nil {
					return nil, err
				}
				loop.Inject(engine.NewEvent(kind, step.Inject.Magnitude, step.Inject.Aux, clk.Now()))
			}
			clk.Advance(advance)
			loop.Tick()
		}
	}

	result := &Result{
		Scenario: s,
		Trace:    trace,
		Final: FinalState{
			Position: loop.Reactive().Position,
			Gain:     loop.Reactive().Gain,
			Deadband: loop.Reactive().Deadband,
			Applied:  servo.Applied(),
		},
		GainRange:     loop.Environmental().GainRange,
		DeadbandRange: loop.Environmental().DeadbandRange,
	}
	result.Failures = evaluate(result)
	return result, nil
}
