package sim

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInTick
}

var (
	defaultEngineLock sync.Mutex
	defaultEngine     *Engine
)

// DefaultEngine returns the process-wide engine, creating it on first use.
func DefaultEngine() *Engine {
	defaultEngineLock.Lock()
	defer defaultEngineLock.Unlock()

	if defaultEngine == nil {
		defaultEngine = NewEngine()
	}

	return defaultEngine
}

// An Engine keeps the discrete event simulation running. It owns the clock and
// the event queue, and it drives the entities and the statistics through the
// replicas of a simulation.
//
// Events are dispatched one at a time. External drivers may call Pause and
// Continue from other goroutines; everything else is expected to happen on
// the goroutine that runs the simulation.
type Engine struct {
	*HookableBase

	logger *logrus.Logger

	timeLock sync.RWMutex
	now      VTimeInTick

	queue    *EventQueue
	idGen    IDGenerator
	orderGen *sequentialIDGenerator

	entities        []Entity
	entityNameIndex map[string]int
	statistics      []Statistic

	numRuns  atomic.Int64
	actRuns  atomic.Int64
	ended    atomic.Bool
	inEndRun bool

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex
}

// NewEngine creates an independent engine.
func NewEngine() *Engine {
	e := &Engine{
		HookableBase:    NewHookableBase(),
		logger:          logrus.StandardLogger(),
		queue:           NewEventQueue(),
		idGen:           newSequentialIDGenerator(),
		orderGen:        newSequentialIDGenerator(),
		entityNameIndex: make(map[string]int),
	}

	return e
}

// WithLogger sets the logger that receives run progress, warnings, and the
// errors that end replicas.
func (e *Engine) WithLogger(logger *logrus.Logger) *Engine {
	e.logger = logger
	return e
}

// Logger returns the logger used by the engine.
func (e *Engine) Logger() *logrus.Logger {
	return e.logger
}

// CurrentTime returns the current simulation time.
func (e *Engine) CurrentTime() VTimeInTick {
	return e.readNow()
}

func (e *Engine) readNow() VTimeInTick {
	e.timeLock.RLock()
	t := e.now
	e.timeLock.RUnlock()
	return t
}

func (e *Engine) writeNow(t VTimeInTick) {
	e.timeLock.Lock()
	e.now = t
	e.timeLock.Unlock()
}

// Queue returns the event queue of the engine.
func (e *Engine) Queue() *EventQueue {
	return e.queue
}

// NumRuns returns the number of replicas of the current call to Run.
func (e *Engine) NumRuns() int {
	return int(e.numRuns.Load())
}

// ActRuns returns the number of replicas completed by the current call to
// Run.
func (e *Engine) ActRuns() int {
	return int(e.actRuns.Load())
}

// Ended tells if the last call to Run has completed all its replicas.
func (e *Engine) Ended() bool {
	return e.ended.Load()
}

// RegisterEntity adds an entity to the set of entities that are notified at
// the beginning and at the end of each replica.
func (e *Engine) RegisterEntity(entity Entity) {
	name := entity.Name()
	if _, found := e.entityNameIndex[name]; found {
		panic("entity " + name + " already registered")
	}

	e.entities = append(e.entities, entity)
	e.entityNameIndex[name] = len(e.entities) - 1
}

// Entities returns all the registered entities, in registration order.
func (e *Engine) Entities() []Entity {
	entities := make([]Entity, len(e.entities))
	copy(entities, e.entities)

	return entities
}

// EntityByName returns the entity with the given name.
func (e *Engine) EntityByName(name string) (Entity, bool) {
	index, found := e.entityNameIndex[name]
	if !found {
		return nil, false
	}

	return e.entities[index], true
}

// RegisterStatistic adds a statistic to the statistics registry.
func (e *Engine) RegisterStatistic(s Statistic) {
	for _, registered := range e.statistics {
		if registered == s {
			panic("statistic already registered")
		}
	}

	e.statistics = append(e.statistics, s)
}

// Statistics returns all the registered statistics.
func (e *Engine) Statistics() []Statistic {
	statistics := make([]Statistic, len(e.statistics))
	copy(statistics, e.statistics)

	return statistics
}

func (e *Engine) post(evt *Event, t VTimeInTick, disposable bool) error {
	if evt.disposed {
		return errors.Wrapf(ErrEventDisposed, "event %s", evt.name)
	}

	if evt.queued {
		return errors.Wrapf(ErrAlreadyQueued, "event %s", evt.name)
	}

	if e.inEndRun {
		return errors.Wrapf(ErrPostDuringEndRun, "event %s", evt.name)
	}

	now := e.readNow()
	if t < now {
		return errors.Wrapf(ErrPostInPast,
			"event %s @ %d, now %d", evt.name, t, now)
	}

	evt.time = t
	evt.disposable = disposable
	evt.order = e.orderGen.next()

	return e.queue.Insert(evt)
}

func (e *Engine) process(evt *Event, disposable bool) error {
	if evt.disposed {
		return errors.Wrapf(ErrEventDisposed, "event %s", evt.name)
	}

	if evt.queued {
		return errors.Wrapf(ErrAlreadyQueued, "event %s", evt.name)
	}

	evt.time = e.readNow()
	evt.disposable = disposable

	return e.dispatch(evt)
}

// Step triggers the earliest pending event and returns its time. If there is
// no pending event, Step returns ErrNoMoreEvents.
func (e *Engine) Step() (VTimeInTick, error) {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	evt := e.queue.Pop()
	if evt == nil {
		return e.readNow(), ErrNoMoreEvents
	}

	now := e.readNow()
	if evt.time < now {
		panic(fmt.Sprintf(
			"cannot run event in the past, evt %s @ %d, now %d",
			evt.name, evt.time, now,
		))
	}

	e.writeNow(evt.time)

	return evt.time, e.dispatch(evt)
}

func (e *Engine) dispatch(evt *Event) error {
	hookCtx := HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	e.InvokeHook(hookCtx)

	err := evt.action()

	hookCtx.Pos = HookPosAfterEvent
	hookCtx.Detail = err
	e.InvokeHook(hookCtx)

	if evt.disposable && !evt.queued {
		evt.release()
	}

	return err
}

// RunTo triggers all the events scheduled no later than stop and then moves
// the clock to stop. It does not reset anything, so it can be used to
// inspect a replica step by step after InitRuns and InitSingleRun.
func (e *Engine) RunTo(stop VTimeInTick) (VTimeInTick, error) {
	drained, err := e.advance(stop)
	if err != nil {
		return e.readNow(), err
	}

	if drained {
		e.reportNoMoreEvents()
	}

	if e.readNow() < stop {
		e.writeNow(stop)
	}

	return e.readNow(), nil
}

func (e *Engine) advance(stop VTimeInTick) (drained bool, err error) {
	for {
		next := e.queue.Peek()
		if next == nil {
			return true, nil
		}

		if next.time > stop {
			return false, nil
		}

		_, stepErr := e.Step()
		if stepErr != nil && !errors.Is(stepErr, ErrNoMoreEvents) {
			return false, stepErr
		}
	}
}

func (e *Engine) reportNoMoreEvents() {
	e.logger.WithField("tick", e.readNow()).Error(ErrNoMoreEvents.Error())
}

// Pause prevents the engine from triggering more events.
func (e *Engine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows the engine to trigger more events.
func (e *Engine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// IsPaused tells if the engine has been paused by Pause.
func (e *Engine) IsPaused() bool {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	return e.isPaused
}

// ClearEventQueue drops all the pending events, releases the disposable ones,
// and moves the clock back to 0.
func (e *Engine) ClearEventQueue() {
	e.drainQueue()
	e.writeNow(0)
}

func (e *Engine) drainQueue() {
	for {
		evt := e.queue.Pop()
		if evt == nil {
			return
		}

		if evt.disposable {
			evt.release()
		}
	}
}
