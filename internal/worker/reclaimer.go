package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"tasklane.app/server/common/logger"
	"tasklane.app/server/internal/queue"
)

type RedisReclaimerConfig struct {
	Stream   string
	Group    string
	Consumer string
	// RunLease is the workflow engine's lease. A message is only taken over
	// once it has been idle for twice the lease, so the run it names can no
	// longer be executing under the original worker.
	RunLease time.Duration
	// MinIdle is a floor on the idle time; the effective value is
	// max(MinIdle, 2*RunLease).
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
	// MaxDeliveries dead-letters a message that was delivered this many
	// times without an ack, i.e. whose run keeps killing workers. Zero
	// disables the check.
	MaxDeliveries int64
}

// PendingStream is the slice of the Redis consumer group the reclaimer uses.
type PendingStream interface {
	// Stale lists pending entries idle for at least minIdle.
	Stale(ctx context.Context, minIdle time.Duration, count int64) ([]redis.XPendingExt, error)
	// Claim moves id to this consumer. An empty result means another
	// reclaimer got there first.
	Claim(ctx context.Context, minIdle time.Duration, id string) ([]redis.XMessage, error)
}

// RunDeadLetterer records that a run's message was given up on.
type RunDeadLetterer interface {
	DeadLetter(ctx context.Context, runID int64) error
}

// RedisReclaimer takes over workflow run messages whose worker died between
// XREADGROUP and XACK, and feeds them back through the worker's failure-aware
// handler.
type RedisReclaimer struct {
	stream     PendingStream
	cfg        RedisReclaimerConfig
	minIdle    time.Duration
	consumer   Consumer
	processor  MessageProcessor
	deadLetter RunDeadLetterer

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewRedisReclaimer(client *redis.Client, cfg RedisReclaimerConfig, consumer Consumer, processor MessageProcessor, deadLetter RunDeadLetterer) *RedisReclaimer {
	return NewReclaimer(&redisPendingStream{client: client, cfg: cfg}, cfg, consumer, processor, deadLetter)
}

func NewReclaimer(stream PendingStream, cfg RedisReclaimerConfig, consumer Consumer, processor MessageProcessor, deadLetter RunDeadLetterer) *RedisReclaimer {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	return &RedisReclaimer{
		stream:     stream,
		cfg:        cfg,
		minIdle:    max(cfg.MinIdle, 2*cfg.RunLease),
		consumer:   consumer,
		processor:  processor,
		deadLetter: deadLetter,
		stopCh:     make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
}

// MinIdle is the idle time after which a pending message is taken over.
func (r *RedisReclaimer) MinIdle() time.Duration {
	return r.minIdle
}

// Run starts the reclaimer loop. Blocks until Stop() is called or ctx ends.
func (r *RedisReclaimer) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "tasklane.worker.reclaimer",
	})

	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reclaimer started",
		"interval", r.cfg.Interval,
		"min_idle", r.minIdle,
		"run_lease", r.cfg.RunLease,
		"max_deliveries", r.cfg.MaxDeliveries,
		"stream", r.cfg.Stream)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			if _, err := r.ReclaimOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "reclaim cycle error", "error", err)
			}
		}
	}
}

func (r *RedisReclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

// ReclaimOnce runs one cycle and returns how many messages it took over.
func (r *RedisReclaimer) ReclaimOnce(ctx context.Context) (int, error) {
	pending, err := r.stream.Stale(ctx, r.minIdle, r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("listing stale messages: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "found stale run messages", "count", len(pending))

	taken := 0
	for _, p := range pending {
		ok, err := r.takeOver(ctx, p)
		if err != nil {
			slog.ErrorContext(ctx, "failed to reclaim run message",
				"error", err,
				"message_id", p.ID,
				"original_consumer", p.Consumer,
				"idle_time", p.Idle)
		}
		if ok {
			taken++
		}
	}
	return taken, nil
}

func (r *RedisReclaimer) takeOver(ctx context.Context, pending redis.XPendingExt) (bool, error) {
	msgID := pending.ID
	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: &msgID})

	claimed, err := r.stream.Claim(ctx, r.minIdle, pending.ID)
	if err != nil {
		return false, fmt.Errorf("claiming: %w", err)
	}
	if len(claimed) == 0 {
		slog.DebugContext(ctx, "message already taken over by another reclaimer")
		return false, nil
	}

	raw := claimed[0]
	msg, err := queue.ParseMessage(raw)
	if err != nil {
		slog.ErrorContext(ctx, "unparseable run message, acknowledging to stop redelivery",
			"error", err)
		_ = r.consumer.Ack(ctx, queue.Message{ID: raw.ID, Raw: raw})
		return true, nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{RunID: &msg.RunID})

	// The claim above counts as one more delivery.
	deliveries := pending.RetryCount + 1
	if r.cfg.MaxDeliveries > 0 && deliveries > r.cfg.MaxDeliveries {
		reason := fmt.Sprintf("delivered %d times without an ack", deliveries)
		slog.ErrorContext(ctx, "run message keeps losing its worker, sending to DLQ",
			"deliveries", deliveries)
		if err := r.consumer.SendDLQ(ctx, msg, reason); err != nil {
			return true, fmt.Errorf("sending to dlq: %w", err)
		}
		if err := r.deadLetter.DeadLetter(ctx, msg.RunID); err != nil {
			return true, fmt.Errorf("marking run dead-lettered: %w", err)
		}
		return true, nil
	}

	slog.InfoContext(ctx, "re-running message of a lost worker",
		"original_consumer", pending.Consumer,
		"idle_time", pending.Idle,
		"deliveries", deliveries)

	start := time.Now()
	if err := r.processor(ctx, msg); err != nil {
		return true, fmt.Errorf("processing reclaimed message: %w", err)
	}
	slog.InfoContext(ctx, "reclaimed message processed",
		"duration_ms", time.Since(start).Milliseconds())
	return true, nil
}

type redisPendingStream struct {
	client *redis.Client
	cfg    RedisReclaimerConfig
}

func (s *redisPendingStream) Stale(ctx context.Context, minIdle time.Duration, count int64) ([]redis.XPendingExt, error) {
	return s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: s.cfg.Stream,
		Group:  s.cfg.Group,
		Idle:   minIdle,
		Start:  "-",
		End:    "+",
		Count:  count,
	}).Result()
}

func (s *redisPendingStream) Claim(ctx context.Context, minIdle time.Duration, id string) ([]redis.XMessage, error) {
	return s.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   s.cfg.Stream,
		Group:    s.cfg.Group,
		Consumer: s.cfg.Consumer,
		MinIdle:  minIdle,
		Messages: []string{id},
	}).Result()
}
