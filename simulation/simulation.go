// Package simulation assembles an engine with the services that surround it:
// result recording, statistic reporting, event tracing, and monitoring.
package simulation

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/metasim/datarecording"
	"github.com/sarchlab/metasim/monitoring"
	"github.com/sarchlab/metasim/randomvar"
	"github.com/sarchlab/metasim/sim"
	"github.com/sarchlab/metasim/stats"
	"github.com/sarchlab/metasim/tracing"
)

// A Simulation provides the service requires to define a simulation.
type Simulation struct {
	id         string
	outputPath string
	logger     *logrus.Logger
	seed       int64
	generator  *randomvar.Generator

	engine       *sim.Engine
	dataRecorder datarecording.DataRecorder
	execRecorder *datarecording.ExecRecorder
	reporters    []stats.Reporter
	xlsxReporter *stats.XLSXReporter
	tracer       *tracing.EventTracer
	counter      *tracing.CountTracer
	monitor      *monitoring.Monitor
	progress     *replicaProgress
	monitorURL   string

	statistics []*stats.Stat
	closers    []func() error
	terminated bool
}

// ID returns the unique identifier of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// OutputPath returns the base name of the output files.
func (s *Simulation) OutputPath() string {
	return s.outputPath
}

// Seed returns the seed of the generator of the simulation.
func (s *Simulation) Seed() int64 {
	return s.seed
}

// Generator returns the generator that the random variables of the
// simulation should draw from.
func (s *Simulation) Generator() *randomvar.Generator {
	return s.generator
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() *sim.Engine {
	return s.engine
}

// GetDataRecorder returns the data recorder used in the simulation.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation, or nil if the
// simulation is not monitored.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitoring server.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// GetTracer returns the event tracer, or nil if tracing is off.
func (s *Simulation) GetTracer() *tracing.EventTracer {
	return s.tracer
}

// RegisterEntity registers an entity with the engine.
func (s *Simulation) RegisterEntity(e sim.Entity) {
	s.engine.RegisterEntity(e)
}

// RegisterStat registers a statistic with the engine and routes its results
// to the reporters of the simulation.
func (s *Simulation) RegisterStat(st *stats.Stat) {
	s.engine.RegisterStatistic(st)

	for _, r := range s.reporters {
		st.AcceptReporter(r)
	}

	s.statistics = append(s.statistics, st)
}

// Statistics returns the registered statistics.
func (s *Simulation) Statistics() []*stats.Stat {
	return s.statistics
}

// GetCounter returns the event counter, or nil if counting is off.
func (s *Simulation) GetCounter() *tracing.CountTracer {
	return s.counter
}

// Trace makes the event tracer and the event counter record evt. It does
// nothing if both are off.
func (s *Simulation) Trace(evt *sim.Event) {
	if s.counter != nil {
		evt.AddTrace(s.counter)
	}

	if s.tracer != nil {
		s.tracer.Attach(evt)
	}
}

// Run runs the engine. See sim.Engine.Run for the meaning of runsSelector.
func (s *Simulation) Run(endTick sim.VTimeInTick, runsSelector int) error {
	s.execRecorder.Set("End Tick", strconv.FormatInt(int64(endTick), 10))
	s.execRecorder.Set("Runs Selector", strconv.Itoa(runsSelector))

	s.trackProgress(endTick)

	start := time.Now()
	err := s.engine.Run(endTick, runsSelector)

	s.logger.WithFields(logrus.Fields{
		"runs":     s.engine.ActRuns(),
		"end_tick": endTick,
		"elapsed":  time.Since(start).String(),
	}).Info("simulation completed")

	return err
}

func (s *Simulation) trackProgress(endTick sim.VTimeInTick) {
	if s.monitor == nil {
		return
	}

	if s.progress == nil {
		s.progress = newReplicaProgress(s.engine, s.monitor, endTick)
		s.engine.RegisterEntity(s.progress)

		return
	}

	s.progress.endTick = endTick
}

// Terminate flushes and closes every output of the simulation.
func (s *Simulation) Terminate() error {
	if s.terminated {
		return nil
	}
	s.terminated = true

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, c := range s.closers {
		keep(c())
	}

	if s.xlsxReporter != nil {
		keep(s.xlsxReporter.Save(XLSXPath(s.outputPath)))
	}

	s.execRecorder.End()
	keep(errors.Wrap(s.dataRecorder.Close(), "close recorder"))

	if s.monitor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		keep(errors.Wrap(s.monitor.StopServer(ctx), "stop monitor"))
	}

	return firstErr
}
