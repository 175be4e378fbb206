package tracing

import (
	"sync"

	"github.com/sarchlab/metasim/datarecording"
	"github.com/sarchlab/metasim/sim"
)

// CountTable is the table that CountTracer.Report writes into.
const CountTable = "event_count"

// CountEntry is a row of CountTable.
type CountEntry struct {
	Event string
	Count int64
}

// CountTracer counts how many times each event it is attached to has been
// triggered.
type CountTracer struct {
	lock       sync.Mutex
	eventNames []string
	counts     map[string]uint64
}

// NewCountTracer creates a new CountTracer
func NewCountTracer() *CountTracer {
	return &CountTracer{
		counts: make(map[string]uint64),
	}
}

// EventNames returns the names of the counted events, in the order they were
// first triggered.
func (t *CountTracer) EventNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	names := make([]string, len(t.eventNames))
	copy(names, t.eventNames)

	return names
}

// Count returns the number of times the named event has been triggered.
func (t *CountTracer) Count(eventName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.counts[eventName]
}

// Record counts a triggered event.
func (t *CountTracer) Record(evt *sim.Event) {
	t.lock.Lock()
	defer t.lock.Unlock()

	name := evt.Name()
	if _, ok := t.counts[name]; !ok {
		t.eventNames = append(t.eventNames, name)
	}

	t.counts[name]++
}

// Entries returns the counts in the order the events were first triggered.
func (t *CountTracer) Entries() []CountEntry {
	t.lock.Lock()
	defer t.lock.Unlock()

	entries := make([]CountEntry, 0, len(t.eventNames))
	for _, name := range t.eventNames {
		entries = append(entries, CountEntry{
			Event: name,
			Count: int64(t.counts[name]),
		})
	}

	return entries
}

// Report writes the counts into the CountTable of recorder.
func (t *CountTracer) Report(recorder datarecording.DataRecorder) {
	recorder.CreateTable(CountTable, CountEntry{})

	for _, e := range t.Entries() {
		recorder.InsertData(CountTable, e)
	}

	recorder.Flush()
}
