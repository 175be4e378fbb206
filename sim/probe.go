package sim

// A Probe is invoked after an event it is attached to has been handled.
type Probe interface {
	Probe(evt *Event)
}

// ProbeFunc turns a function into a Probe.
type ProbeFunc func(evt *Event)

// Probe calls f.
func (f ProbeFunc) Probe(evt *Event) {
	f(evt)
}

// A Particle is notified every time the event it is attached to fires.
type Particle interface {
	NewEvent(evt *Event)
}

// A Tracer records the firing of the events it is attached to. How the record
// is formatted and where it goes is up to the tracer.
type Tracer interface {
	Record(evt *Event)
}

// A Statistic collects values across the replicas of a simulation. The engine
// drives the lifecycle of every registered statistic.
type Statistic interface {
	// Init prepares the statistic for a batch of numRuns replicas.
	Init(numRuns int)

	// NewRun is called before each replica.
	NewRun()

	// EndRun is called after each replica.
	EndRun()

	// EndSim computes and emits the cross-replica results.
	EndSim()
}
