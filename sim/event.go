package sim

import (
	"fmt"

	"github.com/pkg/errors"
)

// VTimeInTick defines the time in the simulated space in the unit of ticks.
type VTimeInTick int64

const (
	// DefaultPriority is the priority given to events that do not ask for a
	// specific one. The lower the number, the earlier the event is handled
	// among the events of the same tick.
	DefaultPriority = 8

	// ImmediatePriority makes an event run before every default-priority
	// event scheduled at the same tick.
	ImmediatePriority = 0
)

// A Handler defines what happens when an event is triggered.
type Handler interface {
	Handle(evt *Event) error
}

// HandlerFunc turns a function into a Handler.
type HandlerFunc func(evt *Event) error

// Handle calls f.
func (f HandlerFunc) Handle(evt *Event) error {
	return f(evt)
}

// An Event is something going to happen in the future.
//
// An event is owned by the code that creates it and can be posted many times,
// but it can be pending in the event queue only once. Statistics, particles,
// and traces attached to the event are invoked, in this order, after the
// handler has run.
type Event struct {
	id      string
	name    string
	engine  *Engine
	handler Handler

	time        VTimeInTick
	lastTime    VTimeInTick
	priority    int
	stdPriority int
	order       uint64
	index       int

	queued     bool
	disposable bool
	disposed   bool

	stats     []Probe
	particles []Particle
	traces    []Tracer
}

// NewEvent creates an event that is handled by the given handler. If engine
// is nil, the event is bound to the default engine.
func NewEvent(engine *Engine, name string, handler Handler) *Event {
	if engine == nil {
		engine = DefaultEngine()
	}

	e := new(Event)
	e.id = engine.idGen.Generate()
	e.name = name
	e.engine = engine
	e.handler = handler
	e.priority = DefaultPriority
	e.stdPriority = DefaultPriority
	e.index = -1

	if e.name == "" {
		e.name = "event_" + e.id
	}

	return e
}

// WithPriority sets both the current and the standard priority of the event.
func (e *Event) WithPriority(p int) *Event {
	e.stdPriority = p
	e.SetPriority(p)

	return e
}

// ID returns the engine-unique identifier of the event.
func (e *Event) ID() string {
	return e.id
}

// Name returns the name of the event.
func (e *Event) Name() string {
	return e.name
}

// Engine returns the engine the event is bound to.
func (e *Event) Engine() *Engine {
	return e.engine
}

// Time returns the time that the event is scheduled at. After the event is
// triggered, the handler may have re-posted the event, so probes should use
// LastTime instead.
func (e *Event) Time() VTimeInTick {
	return e.time
}

// LastTime returns the time at which the event was most recently triggered.
func (e *Event) LastTime() VTimeInTick {
	return e.lastTime
}

// Priority returns the current priority of the event.
func (e *Event) Priority() int {
	return e.priority
}

// SetPriority changes the current priority. A pending event is moved to its
// new position in the queue.
func (e *Event) SetPriority(p int) {
	e.priority = p

	if e.queued {
		e.engine.queue.fix(e)
	}
}

// RestorePriority rolls the priority back to the standard priority.
func (e *Event) RestorePriority() {
	e.SetPriority(e.stdPriority)
}

// IsQueued tells if the event is pending in the event queue.
func (e *Event) IsQueued() bool {
	return e.queued
}

// IsDisposable tells if the engine owns the event and will release it after
// it is triggered.
func (e *Event) IsDisposable() bool {
	return e.disposable
}

// IsDisposed tells if the engine has released the event. A released event
// cannot be posted again.
func (e *Event) IsDisposed() bool {
	return e.disposed
}

// AddStat attaches a statistical probe to the event.
func (e *Event) AddStat(p Probe) {
	e.stats = append(e.stats, p)
}

// AddParticle attaches a particle to the event.
func (e *Event) AddParticle(p Particle) {
	e.particles = append(e.particles, p)
}

// AddTrace attaches a tracer to the event.
func (e *Event) AddTrace(t Tracer) {
	e.traces = append(e.traces, t)
}

// Post inserts the event in the event queue so that it is triggered at time
// t. The caller keeps the ownership of the event.
func (e *Event) Post(t VTimeInTick) error {
	return e.engine.post(e, t, false)
}

// PostDisposable inserts the event in the event queue and hands the event
// over to the engine, which releases it after it has been triggered.
func (e *Event) PostDisposable(t VTimeInTick) error {
	return e.engine.post(e, t, true)
}

// Drop removes the event from the event queue without triggering it. Dropping
// an event that is not pending has no effect.
func (e *Event) Drop() {
	e.engine.queue.Remove(e)
}

// Process triggers the event immediately, at the current time, without going
// through the event queue.
func (e *Event) Process() error {
	return e.engine.process(e, false)
}

// ProcessDisposable triggers the event immediately and releases it
// afterwards.
func (e *Event) ProcessDisposable() error {
	return e.engine.process(e, true)
}

func (e *Event) String() string {
	return fmt.Sprintf("%s[t=%d, p=%d, o=%d]",
		e.name, e.time, e.priority, e.order)
}

func (e *Event) action() error {
	e.lastTime = e.time

	err := e.callHandler()
	if err != nil {
		return err
	}

	for _, s := range e.stats {
		s.Probe(e)
	}

	for _, p := range e.particles {
		p.NewEvent(e)
	}

	for _, t := range e.traces {
		t.Record(e)
	}

	return nil
}

func (e *Event) callHandler() (err error) {
	if e.handler == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrHandlerPanic, "%s: %v", e.name, r)
		}
	}()

	return e.handler.Handle(e)
}

func (e *Event) release() {
	e.disposed = true
	e.handler = nil
	e.stats = nil
	e.particles = nil
	e.traces = nil
}

// OwnedEvent binds an event to the entity that owns it, so that handlers and
// probes receive the owner with its concrete type.
type OwnedEvent[T any] struct {
	*Event
	Owner T
}

// NewOwnedEvent creates an event whose handler calls fn with the owner.
func NewOwnedEvent[T any](
	engine *Engine,
	name string,
	owner T,
	fn func(owner T, evt *Event) error,
) *OwnedEvent[T] {
	oe := &OwnedEvent[T]{Owner: owner}
	oe.Event = NewEvent(engine, name, HandlerFunc(func(evt *Event) error {
		return fn(oe.Owner, evt)
	}))

	return oe
}

// AddOwnerStat attaches a statistical probe that receives the owner of the
// event.
func (e *OwnedEvent[T]) AddOwnerStat(fn func(owner T, evt *Event)) {
	e.AddStat(ProbeFunc(func(evt *Event) {
		fn(e.Owner, evt)
	}))
}
