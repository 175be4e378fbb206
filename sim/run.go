package sim

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type runPlan struct {
	replicas   int
	statRuns   int
	initialize bool
	terminate  bool
}

func (e *Engine) planRuns(runsSelector int) runPlan {
	plan := runPlan{replicas: 1, initialize: true, terminate: true}

	switch {
	case runsSelector < -1:
		plan.statRuns = -runsSelector
		plan.terminate = false
	case runsSelector == -1:
		plan.initialize = false
		plan.terminate = false
	case runsSelector == 0:
		plan.initialize = false
	case runsSelector == 1:
		plan.statRuns = 1
	default:
		plan.replicas = runsSelector
		plan.statRuns = runsSelector
	}

	if plan.replicas == 2 {
		e.logger.Warn("simulation cannot be initialized with 2 runs, " +
			"executing 3 runs")
		plan.replicas = 3
		plan.statRuns = 3
	}

	return plan
}

// Run replicates the simulation. Each replica runs from tick 0 up to endTick.
//
// The runsSelector chooses how the statistics are handled:
//
//	< -1  initialize the statistics for |runsSelector| replicas, run a single
//	      replica, and do not finalize (more replicas follow).
//	  -1  run a single replica without initializing or finalizing.
//	   0  run a single replica and finalize; the last of a batch.
//	   1  initialize, run, and finalize a single replica.
//	>= 2  initialize, run, and finalize that many replicas. Two replicas are
//	      not enough to estimate a variance, so 2 is turned into 3.
//
// An error raised by an event handler aborts the current replica only. The
// remaining replicas still run, and Run reports the aborted replicas in its
// returned error.
func (e *Engine) Run(endTick VTimeInTick, runsSelector int) error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	plan := e.planRuns(runsSelector)

	if plan.initialize {
		e.InitRuns(plan.statRuns)
	}

	e.numRuns.Store(int64(plan.replicas))
	e.actRuns.Store(0)
	e.ended.Store(false)

	var firstAbort error
	aborted := 0

	for e.ActRuns() < plan.replicas {
		run := e.ActRuns()
		logger := e.logger.WithField("run", run)
		logger.Info("run started")

		e.InitSingleRun()

		err := e.runReplica(endTick, logger)
		if err != nil {
			aborted++
			if firstAbort == nil {
				firstAbort = errors.Wrapf(err, "run %d", run)
			}
		}

		e.EndSingleRun()

		e.actRuns.Add(1)
	}

	e.ended.Store(true)

	if plan.terminate {
		e.EndSim()
	}

	if firstAbort != nil {
		return errors.Wrapf(firstAbort,
			"%d of %d runs aborted", aborted, plan.replicas)
	}

	return nil
}

func (e *Engine) runReplica(endTick VTimeInTick, logger *logrus.Entry) error {
	drained, err := e.advance(endTick)
	if err != nil {
		logger.WithError(err).
			WithField("tick", e.readNow()).
			Error("run aborted")
		return err
	}

	if drained {
		e.reportNoMoreEvents()
		return nil
	}

	if e.readNow() < endTick {
		e.writeNow(endTick)
	}

	return nil
}

// InitRuns prepares the statistics for a batch of nRuns replicas and resets
// the clock.
func (e *Engine) InitRuns(nRuns int) {
	for _, s := range e.statistics {
		s.Init(nRuns)
	}

	e.writeNow(0)
	e.ended.Store(false)
}

// InitSingleRun resets the clock and prepares the entities and the statistics
// for a new replica.
func (e *Engine) InitSingleRun() {
	e.writeNow(0)

	for _, entity := range e.entities {
		entity.NewRun()
	}

	for _, s := range e.statistics {
		s.NewRun()
	}

	e.InvokeHook(HookCtx{
		Domain: e,
		Pos:    HookPosNewRun,
		Item:   e.ActRuns(),
	})
}

// EndSingleRun finalizes the entities and the statistics of a replica and
// drops all the events that are still pending. The clock keeps the time the
// replica ended at.
func (e *Engine) EndSingleRun() {
	e.inEndRun = true
	for _, entity := range e.entities {
		entity.EndRun()
	}

	for _, s := range e.statistics {
		s.EndRun()
	}
	e.inEndRun = false

	e.drainQueue()

	e.InvokeHook(HookCtx{
		Domain: e,
		Pos:    HookPosEndRun,
		Item:   e.ActRuns(),
	})
}

// EndSim asks every statistic to compute and emit its cross-replica results.
func (e *Engine) EndSim() {
	for _, s := range e.statistics {
		s.EndSim()
	}
}
