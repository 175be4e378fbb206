package sim

import (
	"container/heap"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// EventQueue is a priority queue of pending events. The front of the queue is
// always the event to happen next. Events are ordered by time, then by
// priority, then by the order in which they were posted.
type EventQueue struct {
	sync.Mutex
	events eventHeap
}

// NewEventQueue creates and returns a newly created EventQueue
func NewEventQueue() *EventQueue {
	q := new(EventQueue)
	q.events = make([]*Event, 0)
	heap.Init(&q.events)
	return q
}

// Insert adds an event to the event queue.
func (q *EventQueue) Insert(evt *Event) error {
	q.Lock()
	defer q.Unlock()

	if evt.queued {
		return errors.Wrapf(ErrAlreadyQueued, "event %s", evt.name)
	}

	heap.Push(&q.events, evt)
	evt.queued = true

	return nil
}

// Remove extracts an event from the queue. Removing an event that is not in
// the queue has no effect.
func (q *EventQueue) Remove(evt *Event) {
	q.Lock()
	defer q.Unlock()

	if !q.contains(evt) {
		return
	}

	heap.Remove(&q.events, evt.index)
	evt.queued = false
}

// Peek returns the event in front of the queue without removing it from the
// queue. It returns nil if the queue is empty.
func (q *EventQueue) Peek() *Event {
	q.Lock()
	defer q.Unlock()

	if len(q.events) == 0 {
		return nil
	}

	return q.events[0]
}

// Pop removes and returns the next earliest event. It returns nil if the
// queue is empty.
func (q *EventQueue) Pop() *Event {
	q.Lock()
	defer q.Unlock()

	if len(q.events) == 0 {
		return nil
	}

	evt := heap.Pop(&q.events).(*Event)
	evt.queued = false

	return evt
}

// Empty tells if there is no pending event.
func (q *EventQueue) Empty() bool {
	return q.Len() == 0
}

// Len returns the number of event in the queue
func (q *EventQueue) Len() int {
	q.Lock()
	defer q.Unlock()

	return len(q.events)
}

// Snapshot returns the pending events in dispatch order.
func (q *EventQueue) Snapshot() []*Event {
	q.Lock()
	events := make([]*Event, len(q.events))
	copy(events, q.events)
	q.Unlock()

	sort.Slice(events, func(i, j int) bool {
		return eventBefore(events[i], events[j])
	})

	return events
}

func (q *EventQueue) fix(evt *Event) {
	q.Lock()
	defer q.Unlock()

	if !q.contains(evt) {
		return
	}

	heap.Fix(&q.events, evt.index)
}

func (q *EventQueue) contains(evt *Event) bool {
	return evt.queued &&
		evt.index >= 0 &&
		evt.index < len(q.events) &&
		q.events[evt.index] == evt
}

func eventBefore(a, b *Event) bool {
	if a.time != b.time {
		return a.time < b.time
	}

	if a.priority != b.priority {
		return a.priority < b.priority
	}

	return a.order < b.order
}

type eventHeap []*Event

// Len returns the length of the event queue
func (h eventHeap) Len() int {
	return len(h)
}

// Less determines the order between two events. Less returns true if the i-th
// event happens before the j-th event.
func (h eventHeap) Less(i, j int) bool {
	return eventBefore(h[i], h[j])
}

// Swap changes the position of two events in the event queue
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

// Push adds an event into the event queue
func (h *eventHeap) Push(x interface{}) {
	evt := x.(*Event)
	evt.index = len(*h)
	*h = append(*h, evt)
}

// Pop removes and returns the next event to happen
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	evt := old[n-1]
	old[n-1] = nil
	evt.index = -1
	*h = old[0 : n-1]
	return evt
}
