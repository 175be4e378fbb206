package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/metasim/sim"
)

var _ = Describe("EventTracer", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *sim.Engine
		writer   *MockTraceWriter
		tracer   *EventTracer
		evt      *sim.Event
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())

		logger := logrus.New()
		logger.SetOutput(GinkgoWriter)
		engine = sim.NewEngine().WithLogger(logger)

		writer = NewMockTraceWriter(mockCtrl)
		writer.EXPECT().Init()
		tracer = NewEventTracer(engine, writer)

		evt = sim.NewEvent(engine, "tick", sim.HandlerFunc(
			func(evt *sim.Event) error {
				if evt.Time() < 30 {
					return evt.Post(evt.Time() + 10)
				}
				return nil
			}))
		tracer.Attach(evt)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record each triggering", func() {
		records := []EventRecord{}
		writer.EXPECT().Write(gomock.Any()).
			Do(func(r EventRecord) { records = append(records, r) }).
			Times(3)

		Expect(evt.Post(10)).To(Succeed())
		_, err := engine.RunTo(100)
		Expect(err).ToNot(HaveOccurred())

		Expect(records).To(HaveLen(3))
		Expect(records[0]).To(Equal(EventRecord{
			Run:      0,
			Time:     10,
			Next:     20,
			Event:    "tick",
			ID:       evt.ID(),
			Priority: sim.DefaultPriority,
		}))
		Expect(records[2].Time).To(Equal(int64(30)))
		Expect(records[2].Next).To(Equal(int64(NotRescheduled)))
		Expect(tracer.Count()).To(Equal(uint64(3)))
	})

	It("should only record within the time range", func() {
		writer.EXPECT().Write(gomock.Any()).
			Do(func(r EventRecord) {
				Expect(r.Time).To(Equal(int64(20)))
			})

		tracer.SetTimeRange(15, 25)
		Expect(evt.Post(10)).To(Succeed())
		_, err := engine.RunTo(100)
		Expect(err).ToNot(HaveOccurred())
	})

	It("should apply the filter", func() {
		writer.EXPECT().Write(gomock.Any()).Times(1)

		tracer.WithFilter(func(r EventRecord) bool {
			return r.Next == NotRescheduled
		})
		Expect(evt.Post(10)).To(Succeed())
		_, err := engine.RunTo(100)
		Expect(err).ToNot(HaveOccurred())
	})

	It("should not record when disabled", func() {
		tracer.DisableTracing()
		Expect(tracer.IsTracing()).To(BeFalse())

		Expect(evt.Post(10)).To(Succeed())
		_, err := engine.RunTo(100)
		Expect(err).ToNot(HaveOccurred())

		Expect(tracer.Count()).To(BeZero())
	})

	It("should flush on terminate", func() {
		writer.EXPECT().Flush()

		tracer.Terminate()
	})
})

var _ = Describe("CountTracer", func() {
	It("should count per event name", func() {
		logger := logrus.New()
		logger.SetOutput(GinkgoWriter)
		engine := sim.NewEngine().WithLogger(logger)
		tracer := NewCountTracer()

		a := sim.NewEvent(engine, "a", nil)
		b := sim.NewEvent(engine, "b", nil)
		a.AddTrace(tracer)
		b.AddTrace(tracer)

		Expect(b.Post(1)).To(Succeed())
		Expect(a.Post(2)).To(Succeed())
		_, err := engine.RunTo(5)
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Post(6)).To(Succeed())
		_, err = engine.RunTo(10)
		Expect(err).ToNot(HaveOccurred())

		Expect(tracer.EventNames()).To(Equal([]string{"b", "a"}))
		Expect(tracer.Count("a")).To(Equal(uint64(2)))
		Expect(tracer.Count("b")).To(Equal(uint64(1)))
		Expect(tracer.Count("c")).To(BeZero())
	})
})
