package worker_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"tasklane.app/server/internal/queue"
	"tasklane.app/server/internal/worker"
)

type fakePendingStream struct {
	pending   []redis.XPendingExt
	messages  map[string]redis.XMessage
	staleIdle time.Duration
	claimed   []string
	staleErr  error
}

func (f *fakePendingStream) Stale(_ context.Context, minIdle time.Duration, _ int64) ([]redis.XPendingExt, error) {
	f.staleIdle = minIdle
	return f.pending, f.staleErr
}

func (f *fakePendingStream) Claim(_ context.Context, _ time.Duration, id string) ([]redis.XMessage, error) {
	msg, ok := f.messages[id]
	if !ok {
		return nil, nil
	}
	f.claimed = append(f.claimed, id)
	delete(f.messages, id)
	return []redis.XMessage{msg}, nil
}

var _ = Describe("RedisReclaimer", func() {
	var (
		ctx       context.Context
		stream    *fakePendingStream
		consumer  *mockConsumer
		executor  *mockExecutor
		processed []queue.Message
		cfg       worker.RedisReclaimerConfig
	)

	runMessage := func(id string, runID string) redis.XMessage {
		return redis.XMessage{ID: id, Values: map[string]any{
			"task_type": "workflow_run",
			"run_id":    runID,
			"attempt":   "1",
		}}
	}

	newReclaimer := func() *worker.RedisReclaimer {
		return worker.NewReclaimer(stream, cfg, consumer, func(_ context.Context, msg queue.Message) error {
			processed = append(processed, msg)
			return nil
		}, executor)
	}

	BeforeEach(func() {
		ctx = context.Background()
		stream = &fakePendingStream{messages: map[string]redis.XMessage{}}
		consumer = &mockConsumer{}
		executor = &mockExecutor{}
		processed = nil
		cfg = worker.RedisReclaimerConfig{
			RunLease:      2 * time.Minute,
			MinIdle:       time.Minute,
			MaxDeliveries: 3,
		}
	})

	It("waits for twice the run lease before taking a message over", func() {
		r := newReclaimer()
		Expect(r.MinIdle()).To(Equal(4 * time.Minute))

		_, err := r.ReclaimOnce(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(stream.staleIdle).To(Equal(4 * time.Minute))
	})

	It("keeps a larger configured floor", func() {
		cfg.MinIdle = 10 * time.Minute
		Expect(newReclaimer().MinIdle()).To(Equal(10 * time.Minute))
	})

	It("re-runs the message of a lost worker through the handler", func() {
		stream.pending = []redis.XPendingExt{{ID: "1-0", Consumer: "worker-a", RetryCount: 1}}
		stream.messages["1-0"] = runMessage("1-0", "42")

		n, err := newReclaimer().ReclaimOnce(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
		Expect(processed).To(HaveLen(1))
		Expect(processed[0].RunID).To(Equal(int64(42)))
		Expect(consumer.dlq).To(BeEmpty())
	})

	It("dead-letters a message that keeps losing its worker", func() {
		stream.pending = []redis.XPendingExt{{ID: "2-0", Consumer: "worker-b", RetryCount: 3}}
		stream.messages["2-0"] = runMessage("2-0", "77")

		n, err := newReclaimer().ReclaimOnce(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
		Expect(processed).To(BeEmpty())
		Expect(consumer.dlq).To(HaveLen(1))
		Expect(consumer.lastError).To(ContainSubstring("delivered 4 times"))
		Expect(executor.deadLettered).To(Equal([]int64{77}))
	})

	It("skips a message another reclaimer already took", func() {
		stream.pending = []redis.XPendingExt{{ID: "3-0", RetryCount: 1}}

		n, err := newReclaimer().ReclaimOnce(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(0))
		Expect(processed).To(BeEmpty())
	})

	It("acks an unparseable message instead of looping on it", func() {
		stream.pending = []redis.XPendingExt{{ID: "4-0", RetryCount: 1}}
		stream.messages["4-0"] = redis.XMessage{ID: "4-0", Values: map[string]any{"garbage": "1"}}

		_, err := newReclaimer().ReclaimOnce(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(consumer.ackedIDs()).To(ConsistOf("4-0"))
		Expect(processed).To(BeEmpty())
	})

	It("reports a pending-list failure", func() {
		stream.staleErr = errors.New("connection reset")
		_, err := newReclaimer().ReclaimOnce(ctx)
		Expect(err).To(MatchError(ContainSubstring("connection reset")))
	})
})
