package queue

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/flowmesh/a2a-go/pkg/a2a"
)

// bufferSize bounds the number of undelivered events held per subscriber
// before it is considered lagging.
const bufferSize = 256

/*
Event is a single envelope delivered to a subscriber. Lagged is set
instead of Response when the subscriber fell behind far enough to miss
events; the authoritative task record can always be recovered via the
task store, so a lagging subscriber may resynchronize by polling
tasks/get rather than treat the signal as fatal.
*/
type Event struct {
	Response *a2a.StreamResponse
	Lagged   bool
}

/*
EventQueue is a per-task broadcast channel. Every subscriber attached
before Close receives every event published after it attaches, in
publish order. Publishers never block on a slow subscriber.
*/
type EventQueue struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
}

// New returns an open, empty event queue.
func New() *EventQueue {
	return &EventQueue{subs: make(map[chan Event]struct{})}
}

// Subscribe attaches a new subscriber and returns its channel. If the
// queue is already closed the returned channel is immediately closed.
func (q *EventQueue) Subscribe() <-chan Event {
	ch := make(chan Event, bufferSize)

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		close(ch)
		return ch
	}

	q.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe detaches a subscriber, e.g. after it reacts to a lag
// signal by giving up rather than skipping ahead.
func (q *EventQueue) Unsubscribe(ch <-chan Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for c := range q.subs {
		if c == ch {
			delete(q.subs, c)
			close(c)
			return
		}
	}
}

/*
Publish broadcasts resp to every attached subscriber. A subscriber whose
buffer is full receives a lag signal in place of the event; if even the
lag signal cannot be delivered the subscriber is dropped rather than
left to stall the publisher indefinitely.
*/
func (q *EventQueue) Publish(resp a2a.StreamResponse) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	event := Event{Response: &resp}

	for ch := range q.subs {
		select {
		case ch <- event:
			continue
		default:
		}

		// Buffer full: drop the oldest buffered event to make room for
		// the lag signal, so the subscriber learns it missed events
		// instead of silently losing the tail.
		select {
		case <-ch:
		default:
		}

		select {
		case ch <- Event{Lagged: true}:
			log.Warn("subscriber lagging, signalled", "buffer", bufferSize)
		default:
			delete(q.subs, ch)
			close(ch)
		}
	}
}

/*
Close marks the queue terminal. Subscriber channels are closed
immediately; any events already buffered on them remain readable until
drained, after which a read yields end-of-stream.
*/
func (q *EventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true

	for ch := range q.subs {
		close(ch)
	}
	q.subs = map[chan Event]struct{}{}
}

// Closed reports whether Close has been called.
func (q *EventQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
