// Package queue provides the hand-off of outbound events between producers
// and the dispatcher.
package queue

import (
	"sync"

	"github.com/dudk/auditraq"
)

// Queue is an unbounded FIFO of events. Push is safe for concurrent use by
// multiple producers, TryPull is meant for a single consumer.
type Queue struct {
	mu     sync.Mutex
	events []auditraq.Event
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Push appends event to the end of the queue. It never blocks on consumer.
func (q *Queue) Push(e auditraq.Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.mu.Unlock()
}

// TryPull removes up to max events from the head of the queue and returns
// them in order. It returns nil if queue is empty and never waits.
func (q *Queue) TryPull(max int) []auditraq.Event {
	if max <= 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.events)
	if n == 0 {
		return nil
	}
	if n > max {
		n = max
	}
	result := make([]auditraq.Event, n)
	copy(result, q.events[:n])
	// release references to pulled events
	for i := 0; i < n; i++ {
		q.events[i] = auditraq.Event{}
	}
	q.events = q.events[n:]
	if len(q.events) == 0 {
		q.events = nil
	}
	return result
}

// Len returns number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
