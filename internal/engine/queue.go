package engine

// Queue is a fixed-capacity FIFO ring buffer of events.
//
// The buffer is allocated once at construction; enqueue and dequeue never
// allocate. When the queue is full, Enqueue fails without modifying state
// and the producing event is simply lost - the controllers are built to
// tolerate drops (all of their memory is statistical and decaying).
//
// Thread-safety: none. The queue is owned by the single-writer loop.
// Concurrent producers would require locking this design does not carry.
type Queue struct {
	buf   []Event
	head  int
	tail  int
	count int
}

// NewQueue creates an empty queue with the given capacity.
// Capacities below 1 are floored at 1.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{buf: make([]Event, capacity)}
}

// Enqueue appends an event to the back of the queue.
// Returns false if the queue is full; the queue is left unchanged.
func (q *Queue) Enqueue(e Event) bool {
	if q.count == len(q.buf) {
		return false
	}
	q.buf[q.tail] = e
	q.tail = (q.tail + 1) % len(q.buf)
	q.count++
	return true
}

// Dequeue removes and returns the front event.
// Returns (Event{}, false) if the queue is empty.
func (q *Queue) Dequeue() (Event, bool) {
	if q.count == 0 {
		return Event{}, false
	}
	e := q.buf[q.head]
	q.buf[q.head] = Event{}
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return e, true
}

// IsEmpty reports whether the queue holds no events.
func (q *Queue) IsEmpty() bool {
	return q.count == 0
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return q.count
}

// Cap returns the fixed capacity.
func (q *Queue) Cap() int {
	return len(q.buf)
}
