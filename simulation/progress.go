package simulation

import (
	"fmt"

	"github.com/sarchlab/metasim/monitoring"
	"github.com/sarchlab/metasim/sim"
)

const progressSteps = 100

// replicaProgress shows how far the current replica has advanced on a
// monitor progress bar. It ticks after the other events of a tick and stops
// at the end tick.
type replicaProgress struct {
	*sim.TickingEntity

	engine  *sim.Engine
	monitor *monitoring.Monitor
	endTick sim.VTimeInTick

	bar   *monitoring.ProgressBar
	shown sim.VTimeInTick
}

func newReplicaProgress(
	engine *sim.Engine,
	monitor *monitoring.Monitor,
	endTick sim.VTimeInTick,
) *replicaProgress {
	period := endTick / progressSteps
	if period < 1 {
		period = 1
	}

	p := &replicaProgress{
		engine:  engine,
		monitor: monitor,
		endTick: endTick,
	}
	p.TickingEntity = sim.NewTickingEntity(
		engine, "ReplicaProgress", period, p)
	p.TickEvent().WithPriority(sim.DefaultPriority + 1)

	return p
}

// Tick moves the bar to the current time.
func (p *replicaProgress) Tick() bool {
	now := p.engine.CurrentTime()
	if now > p.endTick {
		now = p.endTick
	}

	if p.bar != nil && now > p.shown {
		p.bar.IncrementFinished(uint64(now - p.shown))
		p.shown = now
	}

	return now < p.endTick
}

// NewRun opens the bar of the replica and schedules the first tick.
func (p *replicaProgress) NewRun() {
	p.shown = 0
	p.bar = p.monitor.CreateProgressBar(
		fmt.Sprintf("Run %d", p.engine.ActRuns()), uint64(p.endTick))

	p.TickingEntity.NewRun()
}

// EndRun removes the bar of the replica.
func (p *replicaProgress) EndRun() {
	if p.bar != nil {
		p.monitor.CompleteProgressBar(p.bar)
		p.bar = nil
	}
}
