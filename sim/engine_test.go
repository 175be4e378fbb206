package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"go.uber.org/mock/gomock"
)

type failingEntity struct {
	*EntityBase
	engine  *Engine
	err     error
	failAt  *Event
	later   *Event
	handled int
	lateRan int
}

func newFailingEntity(engine *Engine, err error) *failingEntity {
	f := &failingEntity{
		EntityBase: NewEntityBase("failing"),
		engine:     engine,
		err:        err,
	}
	f.failAt = NewEvent(engine, "fail", HandlerFunc(func(*Event) error {
		f.handled++
		return f.err
	}))
	f.later = NewEvent(engine, "later", HandlerFunc(func(*Event) error {
		f.lateRan++
		return nil
	}))

	return f
}

func (f *failingEntity) NewRun() {
	Expect(f.failAt.Post(10)).To(Succeed())
	Expect(f.later.Post(20)).To(Succeed())
}

func (f *failingEntity) EndRun() {}

type endRunPoster struct {
	*EntityBase
	evt *Event
	err error
}

func (p *endRunPoster) NewRun() {}

func (p *endRunPoster) EndRun() {
	p.err = p.evt.Post(1000)
}

var _ = Describe("Engine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *Engine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = newTestEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should keep the clock at zero when there is nothing to do", func() {
		Expect(engine.Run(100, 1)).To(Succeed())

		Expect(engine.CurrentTime()).To(Equal(VTimeInTick(0)))
		Expect(engine.Ended()).To(BeTrue())
		Expect(engine.ActRuns()).To(Equal(1))
	})

	It("should stop at the end tick", func() {
		p := newPeriodicEntity(engine, "p", 10)
		engine.RegisterEntity(p)

		Expect(engine.Run(45, 1)).To(Succeed())

		Expect(p.fired).To(Equal([]VTimeInTick{10, 20, 30, 40}))
		Expect(engine.CurrentTime()).To(Equal(VTimeInTick(45)))
		Expect(engine.Queue().Empty()).To(BeTrue())
	})

	It("should dispatch events at the end tick", func() {
		p := newPeriodicEntity(engine, "p", 10)
		engine.RegisterEntity(p)

		Expect(engine.Run(40, 1)).To(Succeed())

		Expect(p.fired).To(Equal([]VTimeInTick{10, 20, 30, 40}))
		Expect(engine.CurrentTime()).To(Equal(VTimeInTick(40)))
	})

	It("should break time ties by priority", func() {
		order := []string{}
		record := func(name string) Handler {
			return HandlerFunc(func(*Event) error {
				order = append(order, name)
				return nil
			})
		}

		a := NewEvent(engine, "a", record("a")).WithPriority(8)
		b := NewEvent(engine, "b", record("b")).WithPriority(0)
		Expect(a.Post(5)).To(Succeed())
		Expect(b.Post(5)).To(Succeed())

		_, err := engine.RunTo(10)
		Expect(err).ToNot(HaveOccurred())

		Expect(order).To(Equal([]string{"b", "a"}))
	})

	It("should break full ties by post order", func() {
		order := []string{}
		record := func(name string) Handler {
			return HandlerFunc(func(*Event) error {
				order = append(order, name)
				return nil
			})
		}

		a := NewEvent(engine, "a", record("a"))
		b := NewEvent(engine, "b", record("b"))
		Expect(b.Post(5)).To(Succeed())
		Expect(a.Post(5)).To(Succeed())

		_, err := engine.RunTo(10)
		Expect(err).ToNot(HaveOccurred())

		Expect(order).To(Equal([]string{"b", "a"}))
	})

	It("should not dispatch dropped events", func() {
		fired := false
		evt := NewEvent(engine, "e", HandlerFunc(func(*Event) error {
			fired = true
			return nil
		}))

		Expect(evt.Post(5)).To(Succeed())
		evt.Drop()

		_, err := engine.RunTo(10)
		Expect(err).ToNot(HaveOccurred())

		Expect(fired).To(BeFalse())
		Expect(engine.CurrentTime()).To(Equal(VTimeInTick(10)))
	})

	It("should report when there is no event to step", func() {
		_, err := engine.Step()

		Expect(err).To(MatchError(ErrNoMoreEvents))
	})

	It("should panic when an event is in the past", func() {
		evt := NewEvent(engine, "e", nil)
		Expect(evt.Post(5)).To(Succeed())
		engine.writeNow(10)

		Expect(func() { _, _ = engine.Step() }).To(Panic())
	})

	It("should clear the event queue", func() {
		owned := NewEvent(engine, "owned", nil)
		disposable := NewEvent(engine, "disposable", nil)
		Expect(owned.Post(50)).To(Succeed())
		Expect(disposable.PostDisposable(60)).To(Succeed())
		_, err := engine.RunTo(20)
		Expect(err).ToNot(HaveOccurred())

		engine.ClearEventQueue()

		Expect(engine.Queue().Empty()).To(BeTrue())
		Expect(engine.CurrentTime()).To(Equal(VTimeInTick(0)))
		Expect(owned.IsDisposed()).To(BeFalse())
		Expect(disposable.IsDisposed()).To(BeTrue())
	})

	It("should find entities by name", func() {
		p := newPeriodicEntity(engine, "p", 10)
		engine.RegisterEntity(p)

		found, ok := engine.EntityByName("p")
		Expect(ok).To(BeTrue())
		Expect(found).To(BeIdenticalTo(p))

		_, ok = engine.EntityByName("q")
		Expect(ok).To(BeFalse())

		Expect(func() { engine.RegisterEntity(p) }).To(Panic())
	})

	It("should reject posting while replicas end", func() {
		poster := &endRunPoster{
			EntityBase: NewEntityBase("poster"),
			evt:        NewEvent(engine, "late", nil),
		}
		engine.RegisterEntity(poster)

		Expect(engine.Run(10, 1)).To(Succeed())

		Expect(poster.err).To(MatchError(ErrPostDuringEndRun))
		Expect(poster.evt.IsQueued()).To(BeFalse())
	})

	It("should abort only the replica that fails", func() {
		errBoom := errors.New("boom")
		f := newFailingEntity(engine, errBoom)
		engine.RegisterEntity(f)

		err := engine.Run(100, 3)

		Expect(err).To(MatchError(errBoom))
		Expect(err.Error()).To(ContainSubstring("3 of 3 runs aborted"))
		Expect(f.handled).To(Equal(3))
		Expect(f.lateRan).To(Equal(0))
		Expect(engine.ActRuns()).To(Equal(3))
		Expect(engine.Ended()).To(BeTrue())
		Expect(engine.Queue().Empty()).To(BeTrue())
	})

	It("should notify entities at the start and the end of replicas", func() {
		entity := NewMockEntity(mockCtrl)
		entity.EXPECT().Name().Return("mock").AnyTimes()
		engine.RegisterEntity(entity)

		gomock.InOrder(
			entity.EXPECT().NewRun(),
			entity.EXPECT().EndRun(),
			entity.EXPECT().NewRun(),
			entity.EXPECT().EndRun(),
			entity.EXPECT().NewRun(),
			entity.EXPECT().EndRun(),
		)

		Expect(engine.Run(10, 3)).To(Succeed())
	})

	It("should invoke hooks around events and replicas", func() {
		positions := []*HookPos{}
		engine.AcceptHook(HookFunc(func(ctx HookCtx) {
			positions = append(positions, ctx.Pos)
		}))

		evt := NewEvent(engine, "e", nil)
		engine.RegisterEntity(&postOnNewRun{
			EntityBase: NewEntityBase("poster"),
			evt:        evt,
		})

		Expect(engine.Run(10, 1)).To(Succeed())

		Expect(positions).To(Equal([]*HookPos{
			HookPosNewRun,
			HookPosBeforeEvent,
			HookPosAfterEvent,
			HookPosEndRun,
		}))
	})

	It("should block steps while paused", func() {
		evt := NewEvent(engine, "e", nil)
		Expect(evt.Post(5)).To(Succeed())

		engine.Pause()
		Expect(engine.IsPaused()).To(BeTrue())

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = engine.Step()
		}()

		Consistently(done).ShouldNot(BeClosed())

		engine.Continue()
		Eventually(done).Should(BeClosed())
		Expect(engine.IsPaused()).To(BeFalse())
	})

	Context("when selecting runs", func() {
		var stat *MockStatistic

		BeforeEach(func() {
			stat = NewMockStatistic(mockCtrl)
			engine.RegisterStatistic(stat)
		})

		It("should run a full batch", func() {
			gomock.InOrder(
				stat.EXPECT().Init(4),
				stat.EXPECT().NewRun(),
				stat.EXPECT().EndRun(),
				stat.EXPECT().NewRun(),
				stat.EXPECT().EndRun(),
				stat.EXPECT().NewRun(),
				stat.EXPECT().EndRun(),
				stat.EXPECT().NewRun(),
				stat.EXPECT().EndRun(),
				stat.EXPECT().EndSim(),
			)

			Expect(engine.Run(10, 4)).To(Succeed())
			Expect(engine.NumRuns()).To(Equal(4))
			Expect(engine.ActRuns()).To(Equal(4))
		})

		It("should turn two runs into three", func() {
			stat.EXPECT().Init(3)
			stat.EXPECT().NewRun().Times(3)
			stat.EXPECT().EndRun().Times(3)
			stat.EXPECT().EndSim()

			Expect(engine.Run(10, 2)).To(Succeed())
			Expect(engine.ActRuns()).To(Equal(3))
		})

		It("should run a single complete replica", func() {
			stat.EXPECT().Init(1)
			stat.EXPECT().NewRun()
			stat.EXPECT().EndRun()
			stat.EXPECT().EndSim()

			Expect(engine.Run(10, 1)).To(Succeed())
		})

		It("should run replicas one call at a time", func() {
			gomock.InOrder(
				stat.EXPECT().Init(3),
				stat.EXPECT().NewRun(),
				stat.EXPECT().EndRun(),
				stat.EXPECT().NewRun(),
				stat.EXPECT().EndRun(),
				stat.EXPECT().NewRun(),
				stat.EXPECT().EndRun(),
				stat.EXPECT().EndSim(),
			)

			Expect(engine.Run(10, -3)).To(Succeed())
			Expect(engine.Run(10, -1)).To(Succeed())
			Expect(engine.Run(10, 0)).To(Succeed())
		})
	})
})

type postOnNewRun struct {
	*EntityBase
	evt *Event
}

func (p *postOnNewRun) NewRun() {
	Expect(p.evt.Post(5)).To(Succeed())
}

func (p *postOnNewRun) EndRun() {}
