package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"tasklane.app/server/core/db/sqlc"
	"tasklane.app/server/internal/model"
)

type workflowRunStore struct {
	queries *sqlc.Queries
}

func newWorkflowRunStore(queries *sqlc.Queries) WorkflowRunStore {
	return &workflowRunStore{queries: queries}
}

func (s *workflowRunStore) CreateIfAbsent(ctx context.Context, run *model.WorkflowRun) (bool, error) {
	row, err := s.queries.CreateWorkflowRun(ctx, sqlc.CreateWorkflowRunParams{
		ID:       run.ID,
		Workflow: run.Workflow,
		TaskID:   run.TaskID,
		Origin:   run.Origin,
		State:    string(run.State),
	})
	if err == nil {
		*run = *toWorkflowRunModel(row)
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	// ON CONFLICT DO NOTHING returns no row; load the one that won.
	existing, err := s.queries.GetWorkflowRunByTask(ctx, sqlc.GetWorkflowRunByTaskParams{
		Workflow: run.Workflow,
		TaskID:   run.TaskID,
	})
	if err != nil {
		return false, err
	}
	*run = *toWorkflowRunModel(existing)
	return false, nil
}

func (s *workflowRunStore) GetByID(ctx context.Context, id int64) (*model.WorkflowRun, error) {
	row, err := s.queries.GetWorkflowRun(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toWorkflowRunModel(row), nil
}

func (s *workflowRunStore) Claim(ctx context.Context, id int64, now, until time.Time) (*model.WorkflowRun, error) {
	row, err := s.queries.ClaimWorkflowRun(ctx, sqlc.ClaimWorkflowRunParams{
		ClaimedUntil: toTimestamp(until),
		ID:           id,
		Now:          toTimestamp(now),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toWorkflowRunModel(row), nil
}

func (s *workflowRunStore) Release(ctx context.Context, id int64) error {
	return s.queries.ReleaseWorkflowRun(ctx, id)
}

func (s *workflowRunStore) UpdateState(ctx context.Context, id int64, state model.RunState) error {
	return s.queries.UpdateWorkflowRunState(ctx, sqlc.UpdateWorkflowRunStateParams{
		ID:    id,
		State: string(state),
	})
}

func (s *workflowRunStore) Finish(ctx context.Context, id int64, outcome string) error {
	return s.queries.FinishWorkflowRun(ctx, sqlc.FinishWorkflowRunParams{
		ID:      id,
		Outcome: &outcome,
	})
}

func (s *workflowRunStore) ListStalled(ctx context.Context, state model.RunState, before time.Time, limit int32) ([]model.WorkflowRun, error) {
	rows, err := s.queries.ListStalledWorkflowRuns(ctx, sqlc.ListStalledWorkflowRunsParams{
		State:   string(state),
		Before:  toTimestamp(before),
		MaxRows: limit,
	})
	if err != nil {
		return nil, err
	}
	result := make([]model.WorkflowRun, len(rows))
	for i, row := range rows {
		result[i] = *toWorkflowRunModel(row)
	}
	return result, nil
}

func (s *workflowRunStore) MarkDeadLettered(ctx context.Context, id int64) error {
	return s.queries.MarkWorkflowRunDeadLettered(ctx, id)
}

func (s *workflowRunStore) Touch(ctx context.Context, id int64) error {
	return s.queries.TouchWorkflowRun(ctx, id)
}

func toWorkflowRunModel(row sqlc.WorkflowRun) *model.WorkflowRun {
	return &model.WorkflowRun{
		ID:             row.ID,
		Workflow:       row.Workflow,
		TaskID:         row.TaskID,
		Origin:         row.Origin,
		State:          model.RunState(row.State),
		Outcome:        row.Outcome,
		ClaimedUntil:   toTimePointer(row.ClaimedUntil),
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
		FinishedAt:     toTimePointer(row.FinishedAt),
		DeadLetteredAt: toTimePointer(row.DeadLetteredAt),
	}
}

type workflowStepStore struct {
	queries *sqlc.Queries
}

func newWorkflowStepStore(queries *sqlc.Queries) WorkflowStepStore {
	return &workflowStepStore{queries: queries}
}

func (s *workflowStepStore) Get(ctx context.Context, runID int64, stepName string) (*model.StepRecord, error) {
	row, err := s.queries.GetWorkflowStep(ctx, sqlc.GetWorkflowStepParams{
		RunID:    runID,
		StepName: stepName,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &model.StepRecord{
		RunID:       row.RunID,
		StepName:    row.StepName,
		Result:      row.Result,
		CompletedAt: row.CompletedAt.Time,
	}, nil
}

// Record keeps the first marker for (run, step); later writes are ignored.
func (s *workflowStepStore) Record(ctx context.Context, record *model.StepRecord) error {
	result := []byte(record.Result)
	if len(result) == 0 {
		result = []byte("null")
	}
	return s.queries.RecordWorkflowStep(ctx, sqlc.RecordWorkflowStepParams{
		RunID:    record.RunID,
		StepName: record.StepName,
		Result:   result,
	})
}

func (s *workflowStepStore) DeleteByRun(ctx context.Context, runID int64) error {
	return s.queries.DeleteWorkflowSteps(ctx, runID)
}

type workflowTimerStore struct {
	queries *sqlc.Queries
}

func newWorkflowTimerStore(queries *sqlc.Queries) WorkflowTimerStore {
	return &workflowTimerStore{queries: queries}
}

func (s *workflowTimerStore) Schedule(ctx context.Context, timer *model.Timer) error {
	return s.queries.CreateWorkflowTimer(ctx, sqlc.CreateWorkflowTimerParams{
		RunID:    timer.RunID,
		StepName: timer.StepName,
		ResumeAt: toTimestamp(timer.ResumeAt),
	})
}

func (s *workflowTimerStore) Get(ctx context.Context, runID int64, stepName string) (*model.Timer, error) {
	row, err := s.queries.GetWorkflowTimer(ctx, sqlc.GetWorkflowTimerParams{
		RunID:    runID,
		StepName: stepName,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toTimerModel(row), nil
}

func (s *workflowTimerStore) ListDue(ctx context.Context, now time.Time, limit int32) ([]model.Timer, error) {
	rows, err := s.queries.ListDueWorkflowTimers(ctx, sqlc.ListDueWorkflowTimersParams{
		Now:     toTimestamp(now),
		MaxRows: limit,
	})
	if err != nil {
		return nil, err
	}
	result := make([]model.Timer, len(rows))
	for i, row := range rows {
		result[i] = *toTimerModel(row)
	}
	return result, nil
}

func (s *workflowTimerStore) ListUnconsumed(ctx context.Context, firedBefore, now time.Time, limit int32) ([]model.Timer, error) {
	rows, err := s.queries.ListUnconsumedWorkflowTimers(ctx, sqlc.ListUnconsumedWorkflowTimersParams{
		FiredBefore: toTimestamp(firedBefore),
		Now:         toTimestamp(now),
		MaxRows:     limit,
	})
	if err != nil {
		return nil, err
	}
	result := make([]model.Timer, len(rows))
	for i, row := range rows {
		result[i] = *toTimerModel(row)
	}
	return result, nil
}

func (s *workflowTimerStore) MarkFired(ctx context.Context, runID int64, stepName string, at time.Time) error {
	return s.queries.MarkWorkflowTimerFired(ctx, sqlc.MarkWorkflowTimerFiredParams{
		FiredAt:  toTimestamp(at),
		RunID:    runID,
		StepName: stepName,
	})
}

func (s *workflowTimerStore) DeleteByRun(ctx context.Context, runID int64) error {
	return s.queries.DeleteWorkflowTimers(ctx, runID)
}

func toTimerModel(row sqlc.WorkflowTimer) *model.Timer {
	return &model.Timer{
		RunID:    row.RunID,
		StepName: row.StepName,
		ResumeAt: row.ResumeAt.Time,
		FiredAt:  toTimePointer(row.FiredAt),
	}
}
