// Package hal defines the hardware boundary of the control loop: two light
// sensors in and one angular actuator out.
//
// The engine only ever sees these interfaces. The simulated implementations
// in this package stand in for real drivers during development, testing,
// and demo runs; a deployment replaces them with board-specific code.
package hal

// Sensor reading and actuator command bounds.
const (
	// SensorMax is the highest raw reading either sensor can produce.
	SensorMax = 1023
	// AngleMin and AngleMax bound the actuator's physical travel in degrees.
	AngleMin = 0
	AngleMax = 180
)

// Sensor samples the two light sensors once.
//
// Readings are raw integers in [0, SensorMax]. Read must not block: the
// loop calls it once per iteration on its single thread.
type Sensor interface {
	Read() (left, right int)
}

// Actuator accepts an angular position command in [AngleMin, AngleMax].
//
// Apply must not block. Implementations receive already-clamped values but
// should clamp defensively anyway; out-of-range commands are a bug in the
// caller, not a reason to fault.
type Actuator interface {
	Apply(angle int)
}
