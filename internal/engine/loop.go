package engine

import (
	"context"
	"math"
	"time"

	"github.com/phototropic/heliostat/internal/hal"
)

// Controller is one timescale of the nested control hierarchy.
//
// Wants filters by event kind; Process consumes an event and optionally
// emits a follow-on event to be re-enqueued. Controllers never drop events
// silently themselves - only the queue's full-drop policy loses events.
type Controller interface {
	Wants(k Kind) bool
	Process(ev Event, now time.Time) (Event, bool)
}

// Snapshot is a read-only view of the loop's state, published to observers
// once per iteration. Observers must never feed anything back into the
// control logic.
type Snapshot struct {
	Tick          uint64
	Time          time.Time
	Position      float64
	Gain          float64
	Deadband      float64
	Energy        float64
	ErrorAvg      float64
	MovementAvg   float64
	Cycles        int
	GainRange     Range
	DeadbandRange Range
	QueueLen      int
	Drops         uint64
}

// Observer receives per-tick snapshots. Implementations must be fast and
// must not block: they run on the loop's single thread.
type Observer interface {
	Observe(Snapshot)
}

// maxDispatchPerTick bounds a single drain pass. The queue is normally
// drained to emptiness well before this; the bound only guards against a
// pathological self-feeding cascade.
const maxDispatchPerTick = 100

// Loop is the single scheduling entity: it samples the sensors, drains the
// event queue through the three controllers in fixed order, applies
// wall-clock decay, and notifies observers.
//
// All methods must be called from a single goroutine.
type Loop struct {
	queue    *Queue
	clock    Clock
	sensor   hal.Sensor
	reactive *Reactive
	adaptive *Adaptive
	env      *Environmental

	// controllers holds the fixed dispatch order. Never reordered after
	// construction.
	controllers [3]Controller

	p         Params
	observers []Observer
	trace     func(Event)

	lastDecay time.Time
	ticks     uint64
	drops     uint64
}

// LoopOption configures a Loop at construction.
type LoopOption func(*Loop)

// WithClock substitutes the wall clock. Tests and the scenario harness use
// a deterministic clock.
func WithClock(c Clock) LoopOption {
	return func(l *Loop) { l.clock = c }
}

// WithObserver registers a diagnostics sink. Observers are notified in
// registration order once per tick.
func WithObserver(o Observer) LoopOption {
	return func(l *Loop) { l.observers = append(l.observers, o) }
}

// WithTrace registers a callback invoked for every dequeued event, before
// dispatch. Used by the scenario harness to capture ordered traces.
func WithTrace(fn func(Event)) LoopOption {
	return func(l *Loop) { l.trace = fn }
}

// New creates a loop over the given hardware boundary.
func New(p Params, sensor hal.Sensor, actuator hal.Actuator, opts ...LoopOption) *Loop {
	l := &Loop{
		queue:  NewQueue(p.QueueCapacity),
		clock:  SystemClock{},
		sensor: sensor,
		p:      p,
	}
	for _, opt := range opts {
		opt(l)
	}

	now := l.clock.Now()
	l.env = NewEnvironmental(p)
	l.reactive = NewReactive(p, actuator)
	l.adaptive = NewAdaptive(p, l.reactive, l.env, now)
	l.controllers = [3]Controller{l.reactive, l.adaptive, l.env}
	l.lastDecay = now
	return l
}

// Reactive exposes the reactive controller's state for inspection.
func (l *Loop) Reactive() *Reactive { return l.reactive }

// Adaptive exposes the adaptive controller's state for inspection.
func (l *Loop) Adaptive() *Adaptive { return l.adaptive }

// Environmental exposes the environmental controller's state for inspection.
func (l *Loop) Environmental() *Environmental { return l.env }

// Drops returns the number of events lost to the queue's full-drop policy.
func (l *Loop) Drops() uint64 { return l.drops }

// Ticks returns the number of completed loop iterations.
func (l *Loop) Ticks() uint64 { return l.ticks }

// Inject enqueues an externally produced event, subject to the same
// drop-on-full policy as internal producers. Used by the scenario harness.
func (l *Loop) Inject(ev Event) bool {
	return l.enqueue(ev)
}

// Tick runs one loop iteration: sample -> drain -> decay -> observe.
func (l *Loop) Tick() {
	now := l.clock.Now()
	l.ticks++

	l.sample(now)
	l.drain()
	l.decay(now)
	l.notify(now)
}

// Run ticks the loop at the configured interval until the context is done
// or maxTicks iterations complete (0 means run until cancelled).
// Returns the context's error when cancelled, nil when maxTicks is reached.
func (l *Loop) Run(ctx context.Context, maxTicks uint64) error {
	ticker := time.NewTicker(l.p.TickInterval)
	defer ticker.Stop()

	var done uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Tick()
			done++
			if maxTicks > 0 && done >= maxTicks {
				return nil
			}
		}
	}
}

// sample reads both sensors once and enqueues a LightChange when the
// imbalance exceeds the current deadband. This is the sole event source at
// the hardware boundary.
func (l *Loop) sample(now time.Time) {
	left, right := l.sensor.Read()
	diff := float64(left - right)
	if math.Abs(diff) <= l.reactive.Deadband {
		return
	}
	l.enqueue(NewEvent(KindLightChange, diff, (left+right)/2, now))
}

// drain processes the queue to emptiness. Every dequeued event is offered
// to all three controllers in fixed order before the next dequeue, so
// events emitted mid-drain are handled within the same pass.
func (l *Loop) drain() {
	for i := 0; i < maxDispatchPerTick && !l.queue.IsEmpty(); i++ {
		ev, ok := l.queue.Dequeue()
		if !ok {
			return
		}
		if l.trace != nil {
			l.trace(ev)
		}
		for _, c := range l.controllers {
			if !c.Wants(ev.Kind) {
				continue
			}
			if out, emitted := c.Process(ev, l.clock.Now()); emitted {
				l.enqueue(out)
			}
		}
	}
}

// decay applies elapsed-real-time decay to all persistent memory.
// A zero-duration tick is a no-op, not an error.
func (l *Loop) decay(now time.Time) {
	dt := now.Sub(l.lastDecay)
	if dt <= 0 {
		return
	}
	l.adaptive.Decay(dt)
	l.lastDecay = now
}

// notify publishes a snapshot to every observer.
func (l *Loop) notify(now time.Time) {
	if len(l.observers) == 0 {
		return
	}
	snap := Snapshot{
		Tick:          l.ticks,
		Time:          now,
		Position:      l.reactive.Position,
		Gain:          l.reactive.Gain,
		Deadband:      l.reactive.Deadband,
		Energy:        l.adaptive.Energy,
		ErrorAvg:      l.adaptive.ErrorAvg,
		MovementAvg:   l.adaptive.MovementAvg,
		Cycles:        l.adaptive.Cycles,
		GainRange:     l.env.GainRange,
		DeadbandRange: l.env.DeadbandRange,
		QueueLen:      l.queue.Len(),
		Drops:         l.drops,
	}
	for _, o := range l.observers {
		o.Observe(snap)
	}
}

func (l *Loop) enqueue(ev Event) bool {
	if !l.queue.Enqueue(ev) {
		l.drops++
		return false
	}
	return true
}
