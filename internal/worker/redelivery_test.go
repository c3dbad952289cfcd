package worker_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/queue"
	"tasklane.app/server/internal/worker"
	"tasklane.app/server/internal/workflow"
	"tasklane.app/server/internal/workflow/workflowtest"
)

var _ = Describe("Redelivery", func() {
	var (
		ctx        context.Context
		stores     *workflowtest.MemoryStores
		producer   *workflowtest.Producer
		consumer   *mockConsumer
		engine     *workflow.Engine
		dispatcher *worker.Dispatcher
		w          *worker.Worker
		now        time.Time
		delivered  int
	)

	clock := func() time.Time { return now }

	// deliver hands every message the producer has sent since the last call
	// to the worker, as the consumer would.
	deliver := func(handle func(context.Context, queue.Message) error) {
		sent := producer.Sent()
		for _, m := range sent[delivered:] {
			delivered++
			attempt := m.Attempt
			if attempt == 0 {
				attempt = 1
			}
			_ = handle(ctx, queue.Message{
				ID:       fmt.Sprintf("msg-%d", delivered),
				TaskType: m.TaskType,
				RunID:    m.RunID,
				TaskID:   m.TaskID,
				Step:     m.Step,
				Attempt:  attempt,
			})
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		stores = workflowtest.NewMemoryStores()
		producer = &workflowtest.Producer{}
		consumer = &mockConsumer{}
		now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		delivered = 0

		engine = workflow.NewEngine(stores, producer, workflow.Config{Lease: 5 * time.Minute},
			workflow.WithClock(clock))
		dispatcher = worker.NewDispatcher(&memoryTxRunner{stores: stores}, producer, worker.DispatcherConfig{
			Interval:   time.Second,
			BatchSize:  10,
			StallAfter: 10 * time.Minute,
		}, worker.WithDispatcherClock(clock))
		w = worker.New(consumer, engine, worker.Config{MaxAttempts: 3})
	})

	Context("when the timer message lands while the run is still leased", func() {
		var (
			dueAt    time.Time
			raced    bool
			reminded int
		)

		BeforeEach(func() {
			dueAt = now.Add(time.Minute)
			raced = false
			reminded = 0

			engine.Register(workflow.Definition{
				Name: "reminder",
				Handler: func(ctx context.Context, step *workflow.Step, run *model.WorkflowRun) (string, error) {
					if err := step.Transition(ctx, model.RunStateWaitingForDueDate); err != nil {
						return "", err
					}
					err := step.SleepUntil(ctx, "wait-for-the-due-date", dueAt)
					if errors.Is(err, workflow.ErrSuspended) && !raced {
						// The due instant passes and the timer fires before
						// this invocation releases its lease.
						raced = true
						now = dueAt.Add(time.Second)
						n, dispatchErr := dispatcher.DispatchOnce(ctx)
						Expect(dispatchErr).NotTo(HaveOccurred())
						Expect(n).To(Equal(1))
						deliver(w.ProcessMessage)
					}
					if err != nil {
						return "", err
					}
					if _, err := workflow.Do(ctx, step, "send-reminder", func(context.Context) (bool, error) {
						reminded++
						return true, nil
					}); err != nil {
						return "", err
					}
					return "REMINDED", nil
				},
			})
		})

		It("re-fires the timer once the run is idle and sends exactly one reminder", func() {
			run, _, err := engine.Start(ctx, "reminder", 7, "")
			Expect(err).NotTo(HaveOccurred())
			deliver(w.Handle)

			Expect(raced).To(BeTrue())
			Expect(consumer.ackedIDs()).To(ConsistOf("msg-1", "msg-2"))
			Expect(stores.Run(run.ID).State).To(Equal(model.RunStateWaitingForDueDate))

			// Not yet: the fired timer gets StallAfter to be consumed.
			n, err := dispatcher.DispatchOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(0))

			now = now.Add(11 * time.Minute)
			n, err = dispatcher.DispatchOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
			Expect(producer.Sent()[delivered]).To(Equal(queue.RunMessage{
				TaskType: queue.TaskTypeTimerFired,
				RunID:    run.ID,
				Step:     "wait-for-the-due-date",
			}))
			deliver(w.Handle)

			final := stores.Run(run.ID)
			Expect(final.State).To(Equal(model.RunStateDone))
			Expect(*final.Outcome).To(Equal("REMINDED"))
			Expect(reminded).To(Equal(1))

			now = now.Add(time.Hour)
			n, err = dispatcher.DispatchOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(0))
		})

		It("does not re-fire a timer the run has already consumed", func() {
			raced = true
			run, _, err := engine.Start(ctx, "reminder", 8, "")
			Expect(err).NotTo(HaveOccurred())
			deliver(w.Handle)

			now = dueAt.Add(time.Second)
			_, err = dispatcher.DispatchOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			deliver(w.Handle)
			Expect(stores.Run(run.ID).IsDone()).To(BeTrue())

			now = now.Add(time.Hour)
			n, err := dispatcher.DispatchOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(0))
			Expect(reminded).To(Equal(1))
		})
	})

	Context("when the assignment step fails permanently", func() {
		BeforeEach(func() {
			engine.Register(workflow.Definition{
				Name: "bounce",
				Handler: func(ctx context.Context, step *workflow.Step, run *model.WorkflowRun) (string, error) {
					return "", errors.New("550 mailbox unavailable")
				},
			})
		})

		It("does not re-kick the run after it was dead-lettered", func() {
			run, _, err := engine.Start(ctx, "bounce", 9, "")
			Expect(err).NotTo(HaveOccurred())
			deliver(w.Handle)

			for attempt := 2; attempt <= 3; attempt++ {
				Expect(consumer.requeued).To(HaveLen(attempt - 1))
				retry := consumer.requeued[attempt-2]
				retry.Attempt = attempt
				_ = w.Handle(ctx, retry)
			}

			Expect(consumer.dlq).To(HaveLen(1))
			stored := stores.Run(run.ID)
			Expect(stored.State).To(Equal(model.RunStateAssigned))
			Expect(stored.DeadLetteredAt).NotTo(BeNil())

			sentBefore := len(producer.Sent())
			now = now.Add(time.Hour)
			n, err := dispatcher.DispatchOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(0))
			Expect(producer.Sent()).To(HaveLen(sentBefore))
		})

		It("still re-kicks an ASSIGNED run whose retry message was lost", func() {
			run, _, err := engine.Start(ctx, "bounce", 10, "")
			Expect(err).NotTo(HaveOccurred())
			deliver(w.Handle)
			Expect(consumer.requeued).To(HaveLen(1))

			now = now.Add(time.Hour)
			n, err := dispatcher.DispatchOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
			Expect(producer.Sent()[len(producer.Sent())-1].RunID).To(Equal(run.ID))
		})
	})
})
