// Package engine implements the heliostat adaptive control loop.
//
// The engine drives a single actuator from a pair of light sensors while
// re-tuning its own control parameters at three nested timescales:
//
//   - Reactive: converts a sensed imbalance into an actuator delta
//     (milliseconds; proportional gain plus deadband).
//   - Adaptive: maintains decaying statistics over recent events and
//     periodically retunes the reactive gain and deadband (seconds).
//   - Environmental: watches how often adaptations reverse direction and
//     widens or narrows the ranges the adaptive layer may tune within
//     (minutes).
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// All state is owned by a single goroutine running Loop.Run. One iteration
// is: sample sensors -> drain the event queue -> apply wall-clock decay ->
// notify observers. There is no locking anywhere in the core because there
// is exactly one writer.
//
// Event Processing Flow:
//  1. The sampler enqueues a LightChange event when the sensed imbalance
//     exceeds the current deadband.
//  2. The drain loop dequeues events strictly FIFO. Every dequeued event is
//     offered to all three controllers in the fixed order
//     Reactive -> Adaptive -> Environmental before the next dequeue.
//  3. Events emitted by a controller are re-enqueued onto the same queue
//     and processed within the same drain pass.
//
// The queue is a fixed-capacity ring buffer with a drop-on-full policy.
// A dropped event is not an error: the controllers tolerate gaps because
// all of their memory is statistical and decaying.
//
// CRITICAL PATTERNS:
//
// Clamp-and-continue:
// There is no fatal-error path in this package. Every mutation of position,
// gain, deadband, and the tuning ranges is followed by a clamp. Degenerate
// divisors are floored at 1.
//
// Wall-clock decay:
// All persistent memory decays with elapsed real time, not with iteration
// count. The loop's qualitative behavior is therefore independent of how
// fast the host executes it.
//
// Deterministic dispatch:
// Controller order never changes, adaptation rules are applied in a fixed
// order, and a single drain pass is bounded. Given the same clock and the
// same sensor readings, two runs produce identical event traces.
//
// If a future port introduces concurrent producers, the queue must gain
// thread-safe enqueue/dequeue; the current design deliberately does not
// carry that cost.
package engine
