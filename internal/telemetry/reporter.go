package telemetry

import (
	"log/slog"

	"github.com/phototropic/heliostat/internal/engine"
)

// Reporter emits a rate-limited structured log line with the key state
// variables. Implements engine.Observer.
//
// The rate limit is in loop ticks rather than wall time: the point is to
// avoid drowning the log at high loop rates, and ticks are what the
// operator reasons in when tailing a run.
type Reporter struct {
	logger *slog.Logger
	every  uint64
}

// NewReporter creates a reporter logging every n ticks. n = 0 disables it.
func NewReporter(logger *slog.Logger, every int) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	if every < 0 {
		every = 0
	}
	return &Reporter{logger: logger, every: uint64(every)}
}

// Observe logs the snapshot if the tick falls on the reporting interval.
func (r *Reporter) Observe(s engine.Snapshot) {
	if r.every == 0 || s.Tick%r.every != 0 {
		return
	}
	r.logger.Info("loop state",
		"tick", s.Tick,
		"position", s.Position,
		"gain", s.Gain,
		"deadband", s.Deadband,
		"energy", s.Energy,
		"error_avg", s.ErrorAvg,
		"movement_avg", s.MovementAvg,
		"cycles", s.Cycles,
		"gain_range_min", s.GainRange.Min,
		"gain_range_max", s.GainRange.Max,
		"queue_len", s.QueueLen,
		"drops", s.Drops,
	)
}
