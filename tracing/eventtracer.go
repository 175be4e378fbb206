package tracing

import (
	"sync"

	"github.com/sarchlab/metasim/sim"
)

// EventTracer is a sim.Tracer that passes the records of the events it is
// attached to into a TraceWriter.
type EventTracer struct {
	mu      sync.Mutex
	engine  *sim.Engine
	writer  TraceWriter
	filter  RecordFilter
	enabled bool

	startTime, endTime sim.VTimeInTick

	count uint64
}

// NewEventTracer creates an EventTracer. The run index of the records is read
// from the engine.
func NewEventTracer(engine *sim.Engine, writer TraceWriter) *EventTracer {
	writer.Init()

	return &EventTracer{
		engine:    engine,
		writer:    writer,
		enabled:   true,
		startTime: -1,
		endTime:   -1,
	}
}

// WithFilter keeps only the records accepted by f.
func (t *EventTracer) WithFilter(f RecordFilter) *EventTracer {
	t.filter = f
	return t
}

// SetTimeRange keeps only the events triggered within [startTime, endTime].
// A negative bound is ignored.
func (t *EventTracer) SetTimeRange(startTime, endTime sim.VTimeInTick) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startTime = startTime
	t.endTime = endTime
}

// EnableTracing resumes the recording.
func (t *EventTracer) EnableTracing() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = true
}

// DisableTracing pauses the recording.
func (t *EventTracer) DisableTracing() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = false
}

// IsTracing tells if records are currently kept.
func (t *EventTracer) IsTracing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.enabled
}

// Count returns the number of records written so far.
func (t *EventTracer) Count() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.count
}

// Attach makes the tracer record the event.
func (t *EventTracer) Attach(evt *sim.Event) {
	evt.AddTrace(t)
}

// Record writes the record of a triggered event.
func (t *EventTracer) Record(evt *sim.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return
	}

	now := evt.LastTime()
	if t.startTime >= 0 && now < t.startTime {
		return
	}

	if t.endTime >= 0 && now > t.endTime {
		return
	}

	r := MakeEventRecord(t.engine.ActRuns(), evt)
	if t.filter != nil && !t.filter(r) {
		return
	}

	t.writer.Write(r)
	t.count++
}

// Terminate flushes the writer.
func (t *EventTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.writer.Flush()
}
