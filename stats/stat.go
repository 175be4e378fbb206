package stats

import (
	"math"

	"github.com/sarchlab/metasim/sim"
)

// Sampler extracts the value to record from a triggered event.
type Sampler func(evt *sim.Event) float64

// A Reporter receives the results of a statistic when the simulation ends.
type Reporter interface {
	Report(summary Summary, runValues []float64)
}

type accumulator interface {
	reset()
	record(v float64)
	value() float64
}

// A Stat collects one value per replica and summarizes those values at the
// end of the simulation. What the per-replica value is depends on how the
// Stat was created. A Stat is a sim.Statistic and a sim.Probe.
type Stat struct {
	name       string
	acc        accumulator
	sampler    Sampler
	confidence float64
	reporters  []Reporter

	runValues []float64
	summary   Summary
}

func newStat(name string, acc accumulator) *Stat {
	return &Stat{
		name:       name,
		acc:        acc,
		confidence: DefaultConfidence,
	}
}

// NewCount creates a statistic that counts the samples of each replica.
func NewCount(name string) *Stat {
	return newStat(name, &countAcc{})
}

// NewSum creates a statistic that adds up the samples of each replica.
func NewSum(name string) *Stat {
	return newStat(name, &sumAcc{})
}

// NewMean creates a statistic that averages the samples of each replica.
func NewMean(name string) *Stat {
	return newStat(name, &meanAcc{})
}

// NewMax creates a statistic that keeps the largest sample of each replica.
func NewMax(name string) *Stat {
	return newStat(name, &extremeAcc{better: func(a, b float64) bool {
		return a > b
	}})
}

// NewMin creates a statistic that keeps the smallest sample of each replica.
func NewMin(name string) *Stat {
	return newStat(name, &extremeAcc{better: func(a, b float64) bool {
		return a < b
	}})
}

// WithSampler sets how Probe turns an event into a sample. Without a sampler,
// every probed event records 1.
func (s *Stat) WithSampler(f Sampler) *Stat {
	s.sampler = f
	return s
}

// WithConfidence sets the confidence level of the reported interval.
func (s *Stat) WithConfidence(c float64) *Stat {
	s.confidence = c
	return s
}

// AcceptReporter adds a reporter that receives the results in EndSim.
func (s *Stat) AcceptReporter(r Reporter) {
	s.reporters = append(s.reporters, r)
}

// Name returns the name of the statistic.
func (s *Stat) Name() string {
	return s.name
}

// Attach makes the statistic probe the event.
func (s *Stat) Attach(evt *sim.Event) {
	evt.AddStat(s)
}

// Probe records the sample of a triggered event.
func (s *Stat) Probe(evt *sim.Event) {
	if s.sampler == nil {
		s.Record(1)
		return
	}

	s.Record(s.sampler(evt))
}

// Record adds a sample to the current replica.
func (s *Stat) Record(v float64) {
	s.acc.record(v)
}

// Value returns the value of the current replica so far.
func (s *Stat) Value() float64 {
	return s.acc.value()
}

// RunValues returns the values of the completed replicas.
func (s *Stat) RunValues() []float64 {
	values := make([]float64, len(s.runValues))
	copy(values, s.runValues)

	return values
}

// Summary returns the results computed by the last EndSim.
func (s *Stat) Summary() Summary {
	return s.summary
}

// Init discards the values of previous batches.
func (s *Stat) Init(numRuns int) {
	s.runValues = make([]float64, 0, numRuns)
	s.summary = Summary{Name: s.name}
}

// NewRun clears the samples of the current replica.
func (s *Stat) NewRun() {
	s.acc.reset()
}

// EndRun stores the value of the replica.
func (s *Stat) EndRun() {
	s.runValues = append(s.runValues, s.acc.value())
}

// EndSim summarizes the replicas and passes the results to the reporters.
func (s *Stat) EndSim() {
	s.summary = Summarize(s.name, s.runValues, s.confidence)

	for _, r := range s.reporters {
		r.Report(s.summary, s.RunValues())
	}
}

type countAcc struct {
	n int
}

func (a *countAcc) reset()           { a.n = 0 }
func (a *countAcc) record(_ float64) { a.n++ }
func (a *countAcc) value() float64   { return float64(a.n) }

type sumAcc struct {
	sum float64
}

func (a *sumAcc) reset()           { a.sum = 0 }
func (a *sumAcc) record(v float64) { a.sum += v }
func (a *sumAcc) value() float64   { return a.sum }

type meanAcc struct {
	sum float64
	n   int
}

func (a *meanAcc) reset() {
	a.sum = 0
	a.n = 0
}

func (a *meanAcc) record(v float64) {
	a.sum += v
	a.n++
}

// A replica without samples has a mean of 0.
func (a *meanAcc) value() float64 {
	if a.n == 0 {
		return 0
	}

	return a.sum / float64(a.n)
}

type extremeAcc struct {
	better func(a, b float64) bool
	v      float64
	seen   bool
}

func (a *extremeAcc) reset() {
	a.v = 0
	a.seen = false
}

func (a *extremeAcc) record(v float64) {
	if math.IsNaN(v) {
		return
	}

	if !a.seen || a.better(v, a.v) {
		a.v = v
		a.seen = true
	}
}

func (a *extremeAcc) value() float64 {
	return a.v
}
