package sim

import "github.com/pkg/errors"

var (
	// ErrPostInPast is returned when an event is posted at a time earlier
	// than the current simulation time.
	ErrPostInPast = errors.New("event posted in the past")

	// ErrAlreadyQueued is returned when an event that is already pending is
	// posted or processed again.
	ErrAlreadyQueued = errors.New("event already in the event queue")

	// ErrNoMoreEvents signals that the event queue is empty. It is a normal
	// termination condition of a replica.
	ErrNoMoreEvents = errors.New("no more events in queue")

	// ErrEventDisposed is returned when posting an event that the engine has
	// already released.
	ErrEventDisposed = errors.New("event has been disposed")

	// ErrPostDuringEndRun is returned when an entity tries to post an event
	// while the replica is being finalized.
	ErrPostDuringEndRun = errors.New("cannot post events during end of run")

	// ErrHandlerPanic wraps a panic raised by an event handler.
	ErrHandlerPanic = errors.New("event handler panicked")
)
