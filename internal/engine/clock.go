package engine

import "time"

// Clock abstracts wall-clock time for the loop.
//
// Decay, moving-average weighting, and event timestamps all read time
// through this interface so that tests and the scenario harness can drive
// the loop with a deterministic clock. Production code uses SystemClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host's wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
