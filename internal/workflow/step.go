package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tasklane.app/server/common/logger"
	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/store"
)

// Step is the handle a handler uses to run steps within one invocation.
type Step struct {
	engine *Engine
	run    *model.WorkflowRun
}

// Run returns the run being executed.
func (s *Step) Run() *model.WorkflowRun {
	return s.run
}

// Do runs fn once per (run, name). When a completion marker exists its
// recorded result is decoded and returned without calling fn. Otherwise fn's
// result is recorded before Do returns, so a crash after fn but before the
// record re-runs fn on the next invocation.
func Do[T any](ctx context.Context, s *Step, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	rec, err := s.engine.stores.WorkflowSteps().Get(ctx, s.run.ID, name)
	switch {
	case err == nil:
		var out T
		if err := json.Unmarshal(rec.Result, &out); err != nil {
			return zero, fmt.Errorf("decoding result of step %s: %w", name, err)
		}
		slog.DebugContext(ctx, "step already completed", "step", name)
		return out, nil
	case !errors.Is(err, store.ErrNotFound):
		return zero, fmt.Errorf("loading step %s: %w", name, err)
	}

	stepCtx := logger.WithLogFields(ctx, logger.LogFields{Step: &name})
	out, err := fn(stepCtx)
	if err != nil {
		return zero, fmt.Errorf("step %s: %w", name, err)
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return zero, fmt.Errorf("encoding result of step %s: %w", name, err)
	}
	if err := s.record(ctx, name, raw); err != nil {
		return zero, err
	}

	slog.InfoContext(stepCtx, "step completed")
	return out, nil
}

// SleepUntil pauses the run until at. It returns nil once the sleep has
// elapsed and ErrSuspended while it is still pending.
func (s *Step) SleepUntil(ctx context.Context, name string, at time.Time) error {
	_, err := s.engine.stores.WorkflowSteps().Get(ctx, s.run.ID, name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("loading step %s: %w", name, err)
	}

	timers := s.engine.stores.WorkflowTimers()
	elapsed := !s.engine.now().Before(at)
	if !elapsed {
		// A fired timer counts as elapsed even if this clock lags the dispatcher's.
		timer, err := timers.Get(ctx, s.run.ID, name)
		switch {
		case err == nil:
			elapsed = timer.FiredAt != nil
		case !errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("loading timer %s: %w", name, err)
		}
	}

	if elapsed {
		return s.record(ctx, name, []byte("null"))
	}

	if err := timers.Schedule(ctx, &model.Timer{
		RunID:    s.run.ID,
		StepName: name,
		ResumeAt: at,
	}); err != nil {
		return fmt.Errorf("scheduling timer %s: %w", name, err)
	}

	slog.InfoContext(ctx, "sleeping until", "step", name, "resume_at", at)
	return ErrSuspended
}

// Transition persists the run's state-machine state.
func (s *Step) Transition(ctx context.Context, state model.RunState) error {
	if s.run.State == state {
		return nil
	}
	if err := s.engine.stores.WorkflowRuns().UpdateState(ctx, s.run.ID, state); err != nil {
		return fmt.Errorf("transition to %s: %w", state, err)
	}
	s.run.State = state
	return nil
}

// Now is the engine clock, for handlers that compare against the current date.
func (s *Step) Now() time.Time {
	return s.engine.now()
}

func (s *Step) record(ctx context.Context, name string, result []byte) error {
	if err := s.engine.stores.WorkflowSteps().Record(ctx, &model.StepRecord{
		RunID:    s.run.ID,
		StepName: name,
		Result:   result,
	}); err != nil {
		return fmt.Errorf("recording step %s: %w", name, err)
	}
	return nil
}
