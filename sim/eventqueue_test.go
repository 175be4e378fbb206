package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("EventQueue", func() {
	var (
		engine *Engine
		queue  *EventQueue
	)

	BeforeEach(func() {
		engine = newTestEngine()
		queue = engine.Queue()
	})

	It("should pop nil when empty", func() {
		Expect(queue.Empty()).To(BeTrue())
		Expect(queue.Peek()).To(BeNil())
		Expect(queue.Pop()).To(BeNil())
	})

	It("should pop in time, priority, and post order", func() {
		r := rand.New(rand.NewSource(1))
		for i := 0; i < 500; i++ {
			evt := NewEvent(engine, "", nil).WithPriority(r.Intn(4))
			Expect(evt.Post(VTimeInTick(r.Intn(50)))).To(Succeed())
		}

		Expect(queue.Len()).To(Equal(500))

		prev := queue.Pop()
		for !queue.Empty() {
			next := queue.Pop()

			Expect(next.IsQueued()).To(BeFalse())
			Expect(eventBefore(prev, next)).To(BeTrue())

			prev = next
		}
	})

	It("should not insert an event twice", func() {
		evt := NewEvent(engine, "a", nil)
		evt.time = 10

		Expect(queue.Insert(evt)).To(Succeed())
		Expect(queue.Insert(evt)).To(MatchError(ErrAlreadyQueued))
		Expect(queue.Len()).To(Equal(1))
	})

	It("should remove an event from the middle", func() {
		events := make([]*Event, 0, 10)
		for i := 0; i < 10; i++ {
			evt := NewEvent(engine, "", nil)
			Expect(evt.Post(VTimeInTick(i * 10))).To(Succeed())
			events = append(events, evt)
		}

		queue.Remove(events[4])
		queue.Remove(events[4])

		Expect(queue.Len()).To(Equal(9))
		Expect(events[4].IsQueued()).To(BeFalse())

		for i := 0; i < 10; i++ {
			if i == 4 {
				continue
			}
			Expect(queue.Pop()).To(BeIdenticalTo(events[i]))
		}
	})

	It("should move an event when its priority changes", func() {
		a := NewEvent(engine, "a", nil)
		b := NewEvent(engine, "b", nil)
		Expect(a.Post(5)).To(Succeed())
		Expect(b.Post(5)).To(Succeed())

		b.SetPriority(ImmediatePriority)
		Expect(queue.Peek()).To(BeIdenticalTo(b))

		b.RestorePriority()
		Expect(queue.Peek()).To(BeIdenticalTo(a))
	})

	It("should list pending events in dispatch order", func() {
		a := NewEvent(engine, "a", nil)
		b := NewEvent(engine, "b", nil)
		c := NewEvent(engine, "c", nil).WithPriority(1)
		Expect(a.Post(20)).To(Succeed())
		Expect(b.Post(10)).To(Succeed())
		Expect(c.Post(20)).To(Succeed())

		Expect(queue.Snapshot()).To(Equal([]*Event{b, c, a}))
		Expect(queue.Len()).To(Equal(3))
	})
})
