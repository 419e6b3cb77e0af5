package hal

import (
	"math/rand"
	"sync"
)

// World is a one-dimensional simulated light field shared by a simulated
// sensor pair and servo. The light source and the servo facing both live on
// the actuator's angular scale, so pointing the servo at the source
// balances the two sensors.
//
// World is guarded by a mutex because it sits on the hardware boundary:
// a demo UI or test may reposition the source while the loop runs.
type World struct {
	mu     sync.Mutex
	source float64 // light source bearing, degrees
	facing float64 // current servo bearing, degrees
	noise  int     // uniform sensor noise amplitude, raw units
	rng    *rand.Rand
}

// NewWorld creates a world with the light source at the given bearing.
// The seed makes sensor noise reproducible across runs.
func NewWorld(source float64, noise int, seed int64) *World {
	return &World{
		source: source,
		facing: (AngleMin + AngleMax) / 2,
		noise:  noise,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// MoveSource repositions the light source, clamped to the angular range.
func (w *World) MoveSource(bearing float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.source = clampf(bearing, AngleMin, AngleMax)
}

// Source returns the current light source bearing.
func (w *World) Source() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.source
}

// Facing returns the current servo bearing.
func (w *World) Facing() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.facing
}

// SimSensorPair derives two sensor readings from the world's geometry.
//
// A source to the left of the servo facing (higher bearing) illuminates the
// left sensor more, and vice versa. Overall illumination falls off as the
// servo points away from the source.
type SimSensorPair struct {
	world *World
}

// NewSimSensorPair creates a sensor pair observing the given world.
func NewSimSensorPair(w *World) *SimSensorPair {
	return &SimSensorPair{world: w}
}

// Read computes the two raw readings from the current geometry.
func (s *SimSensorPair) Read() (left, right int) {
	s.world.mu.Lock()
	defer s.world.mu.Unlock()

	off := s.world.source - s.world.facing // positive: source is left
	base := 800.0 - 3.0*absf(off)
	if base < 100 {
		base = 100
	}

	l := base + 2.0*off
	r := base - 2.0*off
	if s.world.noise > 0 {
		l += float64(s.world.rng.Intn(2*s.world.noise+1) - s.world.noise)
		r += float64(s.world.rng.Intn(2*s.world.noise+1) - s.world.noise)
	}

	return int(clampf(l, 0, SensorMax)), int(clampf(r, 0, SensorMax))
}

// SimServo applies commands to the world and records every applied angle.
type SimServo struct {
	world  *World
	mu     sync.Mutex
	angles []int
}

// NewSimServo creates a servo driving the given world.
func NewSimServo(w *World) *SimServo {
	return &SimServo{world: w}
}

// Apply points the servo, clamping defensively to the angular range.
func (s *SimServo) Apply(angle int) {
	if angle < AngleMin {
		angle = AngleMin
	}
	if angle > AngleMax {
		angle = AngleMax
	}
	s.world.mu.Lock()
	s.world.facing = float64(angle)
	s.world.mu.Unlock()

	s.mu.Lock()
	s.angles = append(s.angles, angle)
	s.mu.Unlock()
}

// Applied returns a copy of every angle applied so far, in order.
func (s *SimServo) Applied() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.angles))
	copy(out, s.angles)
	return out
}

// ScriptedSensor returns fixed readings set by a test or scenario step.
// The zero value reads as perfectly balanced mid-scale light.
type ScriptedSensor struct {
	Left  int
	Right int
}

// NewScriptedSensor creates a scripted sensor with balanced readings.
func NewScriptedSensor() *ScriptedSensor {
	return &ScriptedSensor{Left: 512, Right: 512}
}

// Set replaces the readings returned by subsequent Read calls.
func (s *ScriptedSensor) Set(left, right int) {
	s.Left, s.Right = left, right
}

// Read returns the scripted readings.
func (s *ScriptedSensor) Read() (left, right int) {
	return s.Left, s.Right
}

// RecordingServo records applied angles without any world model.
// Used by tests that only care about the command stream.
type RecordingServo struct {
	angles []int
}

// Apply records the commanded angle.
func (s *RecordingServo) Apply(angle int) {
	s.angles = append(s.angles, angle)
}

// Applied returns every angle applied so far, in order.
func (s *RecordingServo) Applied() []int {
	return s.angles
}

// Last returns the most recent applied angle, or the centered default if
// nothing has been applied yet.
func (s *RecordingServo) Last() int {
	if len(s.angles) == 0 {
		return (AngleMin + AngleMax) / 2
	}
	return s.angles[len(s.angles)-1]
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
