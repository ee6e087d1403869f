package event_test

import (
	"github.com/icecave/fetchblob/event"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Target", func() {
	var (
		subject *event.Target
		calls   []string
	)

	record := func(label string) event.Listener {
		return func(ev event.Event) {
			calls = append(calls, label+":"+ev.Type)
		}
	}

	BeforeEach(func() {
		subject = &event.Target{}
		calls = nil
	})

	Describe("Dispatch", func() {
		It("invokes listeners in registration order", func() {
			subject.AddListener("load", record("a"))
			subject.AddListener("load", record("b"))
			subject.AddListener("error", record("c"))

			subject.Dispatch("load", nil)

			Expect(calls).To(Equal([]string{"a:load", "b:load"}))
		})

		It("passes the detail to the listener", func() {
			var received event.Event
			subject.AddListener("progress", func(ev event.Event) {
				received = ev
			})

			detail := event.ProgressDetail{LengthComputable: true, Loaded: 1, Total: 2}
			subject.Dispatch("progress", detail)

			Expect(received.Type).To(Equal("progress"))
			Expect(received.Detail).To(Equal(detail))
			Expect(received.TimeStamp.IsZero()).To(BeFalse())
		})

		It("does nothing on a zero value target", func() {
			Expect(func() { subject.Dispatch("load", nil) }).NotTo(Panic())
		})

		It("is not affected by listeners added during dispatch", func() {
			subject.AddListener("load", func(event.Event) {
				subject.AddListener("load", record("late"))
			})

			subject.Dispatch("load", nil)

			Expect(calls).To(BeEmpty())
			Expect(subject.ListenerCount("load")).To(Equal(2))
		})
	})

	Describe("RemoveListener", func() {
		It("stops the listener from being invoked", func() {
			id := subject.AddListener("load", record("a"))
			subject.AddListener("load", record("b"))

			Expect(subject.RemoveListener("load", id)).To(BeTrue())
			subject.Dispatch("load", nil)

			Expect(calls).To(Equal([]string{"b:load"}))
		})

		It("returns false for an unknown listener", func() {
			id := subject.AddListener("load", record("a"))

			Expect(subject.RemoveListener("error", id)).To(BeFalse())
			Expect(subject.RemoveListener("load", id+1)).To(BeFalse())
		})
	})

	Describe("Clear", func() {
		It("removes every listener", func() {
			subject.AddListener("load", record("a"))
			subject.AddListener("error", record("b"))

			subject.Clear()
			subject.Dispatch("load", nil)
			subject.Dispatch("error", nil)

			Expect(calls).To(BeEmpty())
			Expect(subject.ListenerCount("load")).To(Equal(0))
		})
	})
})
