// Package workflow runs durable, resumable workflows.
//
// A workflow handler is re-invoked from the top every time its run is
// executed. Steps that already completed return their recorded result
// instead of running again, and a sleep that has not elapsed persists a
// timer and suspends the run. Nothing is held in memory between invocations.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tasklane.app/server/common/id"
	"tasklane.app/server/common/logger"
	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/queue"
	"tasklane.app/server/internal/store"
)

// ErrSuspended is returned by Step.SleepUntil when the run must wait for a
// timer. Handlers return it unchanged.
var ErrSuspended = errors.New("workflow suspended")

var ErrUnknownWorkflow = errors.New("unknown workflow")

// Stores are the persistence the engine needs.
type Stores interface {
	WorkflowRuns() store.WorkflowRunStore
	WorkflowSteps() store.WorkflowStepStore
	WorkflowTimers() store.WorkflowTimerStore
}

// Handler drives one run and returns its outcome once finished.
type Handler func(ctx context.Context, step *Step, run *model.WorkflowRun) (string, error)

type Definition struct {
	Name         string
	InitialState model.RunState
	Handler      Handler
}

type Config struct {
	// Lease bounds how long one executor owns a run. Must exceed the longest
	// single invocation.
	Lease time.Duration
}

type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

type Engine struct {
	stores   Stores
	producer queue.Producer
	defs     map[string]Definition
	lease    time.Duration
	now      func() time.Time
}

func NewEngine(stores Stores, producer queue.Producer, cfg Config, opts ...Option) *Engine {
	lease := cfg.Lease
	if lease <= 0 {
		lease = 2 * time.Minute
	}
	e := &Engine{
		stores:   stores,
		producer: producer,
		defs:     make(map[string]Definition),
		lease:    lease,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Register(def Definition) {
	if def.InitialState == "" {
		def.InitialState = model.RunStateAssigned
	}
	e.defs[def.Name] = def
}

// Start creates the run for (workflow, taskID) if none exists and enqueues it.
// Repeated calls for the same task return the existing run with created=false
// and enqueue nothing.
func (e *Engine) Start(ctx context.Context, workflow string, taskID int64, origin string) (*model.WorkflowRun, bool, error) {
	def, ok := e.defs[workflow]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrUnknownWorkflow, workflow)
	}

	run := &model.WorkflowRun{
		ID:       id.New(),
		Workflow: def.Name,
		TaskID:   taskID,
		Origin:   origin,
		State:    def.InitialState,
	}
	created, err := e.stores.WorkflowRuns().CreateIfAbsent(ctx, run)
	if err != nil {
		return nil, false, fmt.Errorf("creating workflow run: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{RunID: &run.ID, TaskID: &taskID})
	if !created {
		slog.InfoContext(ctx, "workflow run already exists", "workflow", workflow)
		return run, false, nil
	}

	if err := e.producer.Enqueue(ctx, queue.RunMessage{
		TaskType: queue.TaskTypeWorkflowRun,
		RunID:    run.ID,
		TaskID:   taskID,
		TraceID:  logger.TraceIDFromContext(ctx),
	}); err != nil {
		// The run row is committed; the dispatcher re-kicks it.
		return run, true, fmt.Errorf("enqueueing workflow run: %w", err)
	}

	slog.InfoContext(ctx, "workflow run started", "workflow", workflow)
	return run, true, nil
}

// Execute drives one invocation of a run. It returns nil when the run
// finished, suspended, was already done, or is currently leased by another
// executor. Any other error leaves the run unfinished for a retry.
func (e *Engine) Execute(ctx context.Context, runID int64) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{RunID: &runID})
	runs := e.stores.WorkflowRuns()

	now := e.now()
	run, err := runs.Claim(ctx, runID, now, now.Add(e.lease))
	if errors.Is(err, store.ErrNotFound) {
		return e.explainUnclaimed(ctx, runID)
	}
	if err != nil {
		return fmt.Errorf("claiming workflow run: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{TaskID: &run.TaskID})

	def, ok := e.defs[run.Workflow]
	if !ok {
		e.release(ctx, run.ID)
		return fmt.Errorf("%w: %s", ErrUnknownWorkflow, run.Workflow)
	}

	step := &Step{engine: e, run: run}
	outcome, err := def.Handler(ctx, step, run)
	switch {
	case errors.Is(err, ErrSuspended):
		e.release(ctx, run.ID)
		slog.InfoContext(ctx, "workflow run suspended", "state", run.State)
		return nil
	case err != nil:
		e.release(ctx, run.ID)
		return err
	}

	if err := runs.Finish(ctx, run.ID, outcome); err != nil {
		e.release(ctx, run.ID)
		return fmt.Errorf("finishing workflow run: %w", err)
	}
	e.prune(ctx, run.ID)

	slog.InfoContext(ctx, "workflow run finished", "outcome", outcome)
	return nil
}

func (e *Engine) explainUnclaimed(ctx context.Context, runID int64) error {
	run, err := e.stores.WorkflowRuns().GetByID(ctx, runID)
	if errors.Is(err, store.ErrNotFound) {
		slog.WarnContext(ctx, "workflow run not found, dropping message")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading workflow run: %w", err)
	}
	if run.IsDone() {
		slog.DebugContext(ctx, "workflow run already done, skipping")
		return nil
	}
	// Someone else holds the lease. If they crash, the reclaimer redelivers
	// their message once the lease has expired. A timer message dropped here
	// is re-fired by the dispatcher after the lease is released.
	slog.InfoContext(ctx, "workflow run leased by another executor, skipping",
		"claimed_until", run.ClaimedUntil)
	return nil
}

// DeadLetter marks a run the queue has given up on, so automatic re-kicks
// and timer re-fires leave it alone.
func (e *Engine) DeadLetter(ctx context.Context, runID int64) error {
	if err := e.stores.WorkflowRuns().MarkDeadLettered(ctx, runID); err != nil {
		return fmt.Errorf("marking workflow run dead-lettered: %w", err)
	}
	return nil
}

func (e *Engine) release(ctx context.Context, runID int64) {
	if err := e.stores.WorkflowRuns().Release(context.WithoutCancel(ctx), runID); err != nil {
		slog.ErrorContext(ctx, "failed to release workflow run lease", "error", err)
	}
}

func (e *Engine) prune(ctx context.Context, runID int64) {
	if err := e.stores.WorkflowSteps().DeleteByRun(ctx, runID); err != nil {
		slog.WarnContext(ctx, "failed to prune workflow steps", "error", err)
	}
	if err := e.stores.WorkflowTimers().DeleteByRun(ctx, runID); err != nil {
		slog.WarnContext(ctx, "failed to prune workflow timers", "error", err)
	}
}
