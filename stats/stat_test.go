package stats_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/metasim/sim"
	"github.com/sarchlab/metasim/stats"
)

type collectingReporter struct {
	summaries []stats.Summary
	runs      [][]float64
}

func (r *collectingReporter) Report(s stats.Summary, runValues []float64) {
	r.summaries = append(r.summaries, s)
	r.runs = append(r.runs, runValues)
}

var _ = Describe("Stat", func() {
	record := func(s *stats.Stat, values ...float64) {
		s.NewRun()
		for _, v := range values {
			s.Record(v)
		}
		s.EndRun()
	}

	It("should count samples", func() {
		s := stats.NewCount("count")
		s.Init(2)
		record(s, 5, 6, 7)
		record(s)

		Expect(s.RunValues()).To(Equal([]float64{3, 0}))
	})

	It("should sum samples", func() {
		s := stats.NewSum("sum")
		s.Init(1)
		record(s, 1.5, 2.5)

		Expect(s.RunValues()).To(Equal([]float64{4}))
	})

	It("should average samples", func() {
		s := stats.NewMean("mean")
		s.Init(2)
		record(s, 1, 2, 6)
		record(s)

		Expect(s.RunValues()).To(Equal([]float64{3, 0}))
	})

	It("should keep the extremes", func() {
		hi := stats.NewMax("max")
		lo := stats.NewMin("min")
		hi.Init(1)
		lo.Init(1)
		record(hi, -3, -1, -2)
		record(lo, 3, 1, math.NaN(), 2)

		Expect(hi.RunValues()).To(Equal([]float64{-1}))
		Expect(lo.RunValues()).To(Equal([]float64{1}))
	})

	It("should reset the replica on NewRun", func() {
		s := stats.NewSum("sum")
		s.Init(1)
		s.Record(10)
		s.NewRun()
		s.Record(1)

		Expect(s.Value()).To(Equal(1.0))
	})

	It("should report on EndSim", func() {
		r := &collectingReporter{}
		s := stats.NewSum("sum").WithConfidence(0.9)
		s.AcceptReporter(r)
		s.Init(2)
		record(s, 1)
		record(s, 3)
		s.EndSim()

		Expect(r.summaries).To(HaveLen(1))
		Expect(r.summaries[0].Name).To(Equal("sum"))
		Expect(r.summaries[0].Runs).To(Equal(2))
		Expect(r.summaries[0].Mean).To(Equal(2.0))
		Expect(r.summaries[0].Confidence).To(Equal(0.9))
		Expect(r.runs[0]).To(Equal([]float64{1, 3}))
		Expect(s.Summary()).To(Equal(r.summaries[0]))
	})

	It("should discard the previous batch on Init", func() {
		s := stats.NewCount("count")
		s.Init(1)
		record(s, 1)
		s.Init(1)

		Expect(s.RunValues()).To(BeEmpty())
	})

	Context("when attached to an event", func() {
		var engine *sim.Engine

		BeforeEach(func() {
			engine = newTestEngine()
		})

		It("should count the triggerings of each replica", func() {
			a := newArrivals(engine, 10)
			engine.RegisterEntity(a)

			count := stats.NewCount("arrivals")
			count.Attach(a.evt)
			engine.RegisterStatistic(count)

			Expect(engine.Run(45, 3)).To(Succeed())

			Expect(count.RunValues()).To(Equal([]float64{4, 4, 4}))
			Expect(count.Summary().Mean).To(Equal(4.0))
			Expect(count.Summary().HalfWidth()).To(Equal(0.0))
		})

		It("should record the value of the sampler", func() {
			a := newArrivals(engine, 10)
			engine.RegisterEntity(a)

			hi := stats.NewMax("last arrival").
				WithSampler(func(evt *sim.Event) float64 {
					return float64(evt.LastTime())
				})
			hi.Attach(a.evt)
			engine.RegisterStatistic(hi)

			Expect(engine.Run(45, 1)).To(Succeed())

			Expect(hi.RunValues()).To(Equal([]float64{40}))
		})
	})
})

var _ = Describe("Summarize", func() {
	It("should return zeros without values", func() {
		s := stats.Summarize("empty", nil, 0.95)

		Expect(s.Runs).To(Equal(0))
		Expect(s.Mean).To(Equal(0.0))
		Expect(s.HalfWidth()).To(Equal(0.0))
	})

	It("should collapse the interval with one value", func() {
		s := stats.Summarize("one", []float64{7}, 0.95)

		Expect(s.Mean).To(Equal(7.0))
		Expect(s.Low).To(Equal(7.0))
		Expect(s.High).To(Equal(7.0))
	})

	It("should compute the Student-t interval", func() {
		s := stats.Summarize("five", []float64{1, 2, 3, 4, 5}, 0.95)

		Expect(s.Mean).To(Equal(3.0))
		Expect(s.StdDev).To(BeNumerically("~", math.Sqrt(2.5), 1e-9))
		Expect(s.HalfWidth()).To(BeNumerically("~", 1.9632, 1e-3))
		Expect(s.Low).To(BeNumerically("<", s.Mean))
		Expect(s.High).To(BeNumerically(">", s.Mean))
	})

	It("should widen the interval with the confidence", func() {
		values := []float64{1, 4, 2, 8, 5}
		narrow := stats.Summarize("v", values, 0.9)
		wide := stats.Summarize("v", values, 0.99)

		Expect(wide.HalfWidth()).To(BeNumerically(">", narrow.HalfWidth()))
	})
})
