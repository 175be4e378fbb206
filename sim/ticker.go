package sim

// A Ticker is an object that updates states with ticks. Tick returns true if
// the ticker made progress and wants to tick again.
type Ticker interface {
	Tick() bool
}

// TickScheduler posts the tick event of a ticker on the multiples of a
// period. At most one tick is pending at any time.
type TickScheduler struct {
	engine *Engine
	period VTimeInTick
	evt    *Event
}

// NewTickScheduler creates a scheduler whose tick event is handled by
// handler.
func NewTickScheduler(
	engine *Engine,
	name string,
	period VTimeInTick,
	handler Handler,
) *TickScheduler {
	if period <= 0 {
		panic("tick period must be positive")
	}

	return &TickScheduler{
		engine: engine,
		period: period,
		evt:    NewEvent(engine, name, handler),
	}
}

// Period returns the number of ticks between two ticks of the scheduler.
func (t *TickScheduler) Period() VTimeInTick {
	return t.period
}

// TickEvent returns the event that the scheduler posts.
func (t *TickScheduler) TickEvent() *Event {
	return t.evt
}

// ThisTick returns the earliest multiple of the period at or after now.
func (t *TickScheduler) ThisTick(now VTimeInTick) VTimeInTick {
	return (now + t.period - 1) / t.period * t.period
}

// NextTick returns the earliest multiple of the period after now.
func (t *TickScheduler) NextTick(now VTimeInTick) VTimeInTick {
	return (now/t.period + 1) * t.period
}

// TickNow schedules a tick at the current time, or at the next multiple of
// the period if the current time is not one.
func (t *TickScheduler) TickNow() error {
	return t.tickAt(t.ThisTick(t.engine.CurrentTime()))
}

// TickLater schedules a tick at the next multiple of the period.
func (t *TickScheduler) TickLater() error {
	return t.tickAt(t.NextTick(t.engine.CurrentTime()))
}

func (t *TickScheduler) tickAt(at VTimeInTick) error {
	if t.evt.IsQueued() {
		if t.evt.Time() <= at {
			return nil
		}

		t.evt.Drop()
	}

	return t.evt.Post(at)
}

// TickingEntity is an entity that updates its states from tick to tick. It
// keeps ticking as long as its ticker makes progress. Wake it up with
// TickNow or TickLater when it has work again.
type TickingEntity struct {
	*EntityBase
	*TickScheduler

	ticker Ticker
}

// NewTickingEntity creates a ticking entity that starts every replica with a
// tick at time 0.
func NewTickingEntity(
	engine *Engine,
	name string,
	period VTimeInTick,
	ticker Ticker,
) *TickingEntity {
	te := &TickingEntity{
		EntityBase: NewEntityBase(name),
		ticker:     ticker,
	}
	te.TickScheduler = NewTickScheduler(engine, name+".tick", period,
		HandlerFunc(te.handle))

	return te
}

func (te *TickingEntity) handle(_ *Event) error {
	if te.ticker.Tick() {
		return te.TickLater()
	}

	return nil
}

// NewRun schedules the first tick.
func (te *TickingEntity) NewRun() {
	if err := te.TickNow(); err != nil {
		panic(err)
	}
}

// EndRun does nothing.
func (te *TickingEntity) EndRun() {}
