package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Event", func() {
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

	It("should name unnamed events after their id", func() {
		evt := NewEvent(engine, "", nil)

		Expect(evt.Name()).To(Equal("event_" + evt.ID()))
		Expect(evt.Engine()).To(BeIdenticalTo(engine))
		Expect(evt.Priority()).To(Equal(DefaultPriority))
	})

	It("should bind to the default engine", func() {
		evt := NewEvent(nil, "a", nil)

		Expect(evt.Engine()).To(BeIdenticalTo(DefaultEngine()))
	})

	It("should not post in the past", func() {
		_, err := engine.RunTo(10)
		Expect(err).ToNot(HaveOccurred())

		evt := NewEvent(engine, "a", nil)

		Expect(evt.Post(9)).To(MatchError(ErrPostInPast))
		Expect(evt.Post(10)).To(Succeed())
	})

	It("should not post a pending event", func() {
		evt := NewEvent(engine, "a", nil)

		Expect(evt.Post(10)).To(Succeed())
		Expect(evt.Post(20)).To(MatchError(ErrAlreadyQueued))
		Expect(evt.Time()).To(Equal(VTimeInTick(10)))
	})

	It("should post again after dropping", func() {
		evt := NewEvent(engine, "a", nil)

		Expect(evt.Post(10)).To(Succeed())
		evt.Drop()
		Expect(evt.IsQueued()).To(BeFalse())
		Expect(evt.Post(20)).To(Succeed())
		Expect(engine.Queue().Len()).To(Equal(1))
	})

	It("should call the handler then the probes in order", func() {
		handler := NewMockHandler(mockCtrl)
		stat := NewMockProbe(mockCtrl)
		particle := NewMockParticle(mockCtrl)
		tracer := NewMockTracer(mockCtrl)

		evt := NewEvent(engine, "a", handler)
		evt.AddStat(stat)
		evt.AddParticle(particle)
		evt.AddTrace(tracer)

		gomock.InOrder(
			handler.EXPECT().Handle(evt).Return(nil),
			stat.EXPECT().Probe(evt),
			particle.EXPECT().NewEvent(evt),
			tracer.EXPECT().Record(evt),
		)

		Expect(evt.Process()).To(Succeed())
	})

	It("should skip the probes when the handler fails", func() {
		handler := NewMockHandler(mockCtrl)
		stat := NewMockProbe(mockCtrl)
		errBoom := errors.New("boom")

		evt := NewEvent(engine, "a", handler)
		evt.AddStat(stat)

		handler.EXPECT().Handle(evt).Return(errBoom)

		Expect(evt.Process()).To(MatchError(errBoom))
	})

	It("should turn a handler panic into an error", func() {
		evt := NewEvent(engine, "a", HandlerFunc(func(*Event) error {
			panic("oops")
		}))

		Expect(evt.Process()).To(MatchError(ErrHandlerPanic))
	})

	It("should let probes see the last trigger time after a repost", func() {
		var seenTime, seenLastTime VTimeInTick

		evt := NewEvent(engine, "a", HandlerFunc(func(evt *Event) error {
			return evt.Post(evt.Time() + 7)
		}))
		evt.AddStat(ProbeFunc(func(evt *Event) {
			seenTime = evt.Time()
			seenLastTime = evt.LastTime()
		}))

		Expect(evt.Post(3)).To(Succeed())
		_, err := engine.Step()
		Expect(err).ToNot(HaveOccurred())

		Expect(seenLastTime).To(Equal(VTimeInTick(3)))
		Expect(seenTime).To(Equal(VTimeInTick(10)))
		Expect(evt.IsQueued()).To(BeTrue())
	})

	It("should release a disposable event after it is triggered", func() {
		evt := NewEvent(engine, "a", nil)

		Expect(evt.PostDisposable(5)).To(Succeed())
		Expect(evt.IsDisposable()).To(BeTrue())

		_, err := engine.Step()
		Expect(err).ToNot(HaveOccurred())

		Expect(evt.IsDisposed()).To(BeTrue())
		Expect(evt.Post(10)).To(MatchError(ErrEventDisposed))
		Expect(evt.Process()).To(MatchError(ErrEventDisposed))
	})

	It("should keep a disposable event that reposts itself", func() {
		count := 0
		evt := NewEvent(engine, "a", HandlerFunc(func(evt *Event) error {
			count++
			if count < 3 {
				return evt.PostDisposable(evt.Time() + 1)
			}
			return nil
		}))

		Expect(evt.PostDisposable(0)).To(Succeed())
		_, err := engine.RunTo(100)
		Expect(err).ToNot(HaveOccurred())

		Expect(count).To(Equal(3))
		Expect(evt.IsDisposed()).To(BeTrue())
	})

	It("should keep an owned event after it is triggered", func() {
		evt := NewEvent(engine, "a", nil)

		Expect(evt.Post(5)).To(Succeed())
		_, err := engine.Step()
		Expect(err).ToNot(HaveOccurred())

		Expect(evt.IsDisposed()).To(BeFalse())
		Expect(evt.Post(10)).To(Succeed())
	})

	It("should process at the current time", func() {
		_, err := engine.RunTo(42)
		Expect(err).ToNot(HaveOccurred())

		evt := NewEvent(engine, "a", nil)
		Expect(evt.ProcessDisposable()).To(Succeed())

		Expect(evt.LastTime()).To(Equal(VTimeInTick(42)))
		Expect(evt.IsDisposed()).To(BeTrue())
	})

	It("should be pending behind no later event after posting",
		func() {
			_, err := engine.RunTo(7)
			Expect(err).ToNot(HaveOccurred())

			for _, t := range []VTimeInTick{30, 12, 7} {
				evt := NewEvent(engine, "a", nil)
				Expect(evt.Post(t)).To(Succeed())

				Expect(evt.IsQueued()).To(BeTrue())
				Expect(engine.Queue().Peek().Time()).
					To(BeNumerically("<=", t))
			}

			Expect(engine.Queue().Peek().Time()).To(Equal(VTimeInTick(7)))
		})

	It("should move a pending event when its priority changes", func() {
		a := NewEvent(engine, "a", nil)
		b := NewEvent(engine, "b", nil)
		Expect(a.Post(10)).To(Succeed())
		Expect(b.Post(10)).To(Succeed())
		Expect(engine.Queue().Peek()).To(BeIdenticalTo(a))

		b.SetPriority(ImmediatePriority)
		Expect(b.Priority()).To(Equal(ImmediatePriority))
		Expect(engine.Queue().Peek()).To(BeIdenticalTo(b))

		b.RestorePriority()
		Expect(b.Priority()).To(Equal(DefaultPriority))
		Expect(engine.Queue().Peek()).To(BeIdenticalTo(a))

		Expect(engine.Queue().Pop()).To(BeIdenticalTo(a))
		Expect(engine.Queue().Pop()).To(BeIdenticalTo(b))
	})

	It("should restore the priority given at creation", func() {
		evt := NewEvent(engine, "a", nil).WithPriority(3)

		evt.SetPriority(1)
		evt.RestorePriority()

		Expect(evt.Priority()).To(Equal(3))
	})

	It("should run the handler and the probes then release when processed "+
		"as disposable", func() {
		handler := NewMockHandler(mockCtrl)
		stat := NewMockProbe(mockCtrl)

		evt := NewEvent(engine, "a", handler)
		evt.AddStat(stat)

		gomock.InOrder(
			handler.EXPECT().Handle(evt).Return(nil),
			stat.EXPECT().Probe(evt),
		)

		Expect(evt.ProcessDisposable()).To(Succeed())

		Expect(evt.IsDisposable()).To(BeTrue())
		Expect(evt.IsDisposed()).To(BeTrue())
		Expect(evt.IsQueued()).To(BeFalse())
		Expect(evt.Post(1)).To(MatchError(ErrEventDisposed))
		Expect(evt.ProcessDisposable()).To(MatchError(ErrEventDisposed))
	})

	It("should not process a pending event", func() {
		evt := NewEvent(engine, "a", nil)
		Expect(evt.Post(5)).To(Succeed())

		Expect(evt.Process()).To(MatchError(ErrAlreadyQueued))
	})
})

type counter struct {
	name  string
	count int
}

var _ = Describe("OwnedEvent", func() {
	It("should pass the owner to the handler and the probes", func() {
		engine := newTestEngine()
		owner := &counter{name: "c"}
		probed := 0

		evt := NewOwnedEvent(engine, "inc", owner,
			func(c *counter, _ *Event) error {
				c.count++
				return nil
			})
		evt.AddOwnerStat(func(c *counter, _ *Event) {
			probed = c.count
		})

		Expect(evt.Post(1)).To(Succeed())
		Expect(evt.Post(2)).To(MatchError(ErrAlreadyQueued))

		_, err := engine.RunTo(10)
		Expect(err).ToNot(HaveOccurred())

		Expect(owner.count).To(Equal(1))
		Expect(probed).To(Equal(1))
	})
})
