// Package tracing records the events triggered by a simulation.
package tracing

import "github.com/sarchlab/metasim/sim"

// EventRecord describes one triggering of an event.
type EventRecord struct {
	Run      int    `json:"run"`
	Time     int64  `json:"time"`
	Next     int64  `json:"next"`
	Event    string `json:"event"`
	ID       string `json:"id"`
	Priority int    `json:"priority"`
}

// NotRescheduled is the Next time of an event that was not posted again by
// its handler.
const NotRescheduled = -1

// MakeEventRecord describes the event that has just been triggered.
func MakeEventRecord(run int, evt *sim.Event) EventRecord {
	r := EventRecord{
		Run:      run,
		Time:     int64(evt.LastTime()),
		Next:     NotRescheduled,
		Event:    evt.Name(),
		ID:       evt.ID(),
		Priority: evt.Priority(),
	}

	if evt.IsQueued() {
		r.Next = int64(evt.Time())
	}

	return r
}

// RecordFilter tells if a record should be kept.
type RecordFilter func(r EventRecord) bool

// A TraceWriter stores event records.
type TraceWriter interface {
	Init()
	Write(r EventRecord)
	Flush()
}
