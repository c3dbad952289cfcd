package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tasklane.app/server/common/logger"
	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/queue"
)

type DispatcherConfig struct {
	Interval  time.Duration
	BatchSize int32
	// StallAfter is how long an ASSIGNED run may sit idle, or a fired timer
	// may go unconsumed, before it is enqueued again. Zero disables both.
	StallAfter time.Duration
}

// Dispatcher turns elapsed durable timers into queue messages. It also
// re-enqueues work whose message was lost or dropped: ASSIGNED runs that
// stalled, and fired timers the run never consumed, for example because the
// message arrived while the run was still leased. Dead-lettered runs are
// never re-enqueued.
type Dispatcher struct {
	txRunner TxRunner
	producer queue.Producer
	cfg      DispatcherConfig
	now      func() time.Time

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

type DispatcherOption func(*Dispatcher)

func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(txRunner TxRunner, producer queue.Producer, cfg DispatcherConfig, opts ...DispatcherOption) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	d := &Dispatcher{
		txRunner:  txRunner,
		producer:  producer,
		cfg:       cfg,
		now:       time.Now,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "tasklane.worker.dispatcher",
	})

	defer close(d.stoppedCh)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "dispatcher started",
		"interval", d.cfg.Interval,
		"batch_size", d.cfg.BatchSize,
		"stall_after", d.cfg.StallAfter)

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopCh:
			slog.InfoContext(ctx, "dispatcher stopping")
			return
		case <-ticker.C:
			if _, err := d.DispatchOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "dispatch cycle error", "error", err)
			}
		}
	}
}

func (d *Dispatcher) Stop() {
	close(d.stopCh)
	<-d.stoppedCh
}

// DispatchOnce runs one cycle and returns how many messages it enqueued.
// A timer is marked fired only after its message is on the stream; a crash
// in between yields a duplicate message, which the engine ignores.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	now := d.now()
	fired, err := d.fireTimers(ctx, now)
	if err != nil {
		return fired, err
	}
	if d.cfg.StallAfter <= 0 {
		return fired, nil
	}
	refired, err := d.refireTimers(ctx, now)
	if err != nil {
		return fired + refired, err
	}
	kicked, err := d.kickStalled(ctx, now)
	return fired + refired + kicked, err
}

func (d *Dispatcher) fireTimers(ctx context.Context, now time.Time) (int, error) {
	count := 0
	err := d.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		timers, err := sp.WorkflowTimers().ListDue(ctx, now, d.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("listing due timers: %w", err)
		}
		for _, t := range timers {
			if err := d.producer.Enqueue(ctx, queue.RunMessage{
				TaskType: queue.TaskTypeTimerFired,
				RunID:    t.RunID,
				Step:     t.StepName,
			}); err != nil {
				return fmt.Errorf("enqueueing timer for run %d: %w", t.RunID, err)
			}
			if err := sp.WorkflowTimers().MarkFired(ctx, t.RunID, t.StepName, now); err != nil {
				return fmt.Errorf("marking timer fired: %w", err)
			}
			count++
		}
		return nil
	})
	if count > 0 {
		slog.InfoContext(ctx, "fired workflow timers", "count", count)
	}
	return count, err
}

// refireTimers re-sends timers that fired at least StallAfter ago but whose
// run is idle and still has not recorded the sleep. fired_at moves to now so
// the next attempt waits another StallAfter.
func (d *Dispatcher) refireTimers(ctx context.Context, now time.Time) (int, error) {
	count := 0
	err := d.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		timers, err := sp.WorkflowTimers().ListUnconsumed(ctx, now.Add(-d.cfg.StallAfter), now, d.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("listing unconsumed timers: %w", err)
		}
		for _, t := range timers {
			if err := d.producer.Enqueue(ctx, queue.RunMessage{
				TaskType: queue.TaskTypeTimerFired,
				RunID:    t.RunID,
				Step:     t.StepName,
			}); err != nil {
				return fmt.Errorf("re-enqueueing timer for run %d: %w", t.RunID, err)
			}
			if err := sp.WorkflowTimers().MarkFired(ctx, t.RunID, t.StepName, now); err != nil {
				return fmt.Errorf("marking timer re-fired: %w", err)
			}
			count++
		}
		return nil
	})
	if count > 0 {
		slog.WarnContext(ctx, "re-fired unconsumed workflow timers", "count", count)
	}
	return count, err
}

func (d *Dispatcher) kickStalled(ctx context.Context, now time.Time) (int, error) {
	count := 0
	err := d.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		runs, err := sp.WorkflowRuns().ListStalled(ctx, model.RunStateAssigned, now.Add(-d.cfg.StallAfter), d.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("listing stalled runs: %w", err)
		}
		for _, run := range runs {
			if err := d.producer.Enqueue(ctx, queue.RunMessage{
				TaskType: queue.TaskTypeWorkflowRun,
				RunID:    run.ID,
				TaskID:   run.TaskID,
			}); err != nil {
				return fmt.Errorf("enqueueing stalled run %d: %w", run.ID, err)
			}
			if err := sp.WorkflowRuns().Touch(ctx, run.ID); err != nil {
				return fmt.Errorf("touching run: %w", err)
			}
			count++
		}
		return nil
	})
	if count > 0 {
		slog.InfoContext(ctx, "re-enqueued stalled runs", "count", count)
	}
	return count, err
}
