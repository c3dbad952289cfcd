package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"tasklane.app/server/core/db/sqlc"
	"tasklane.app/server/internal/model"
)

type taskStore struct {
	queries *sqlc.Queries
}

func newTaskStore(queries *sqlc.Queries) TaskStore {
	return &taskStore{queries: queries}
}

func (s *taskStore) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	row, err := s.queries.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toTaskModel(row), nil
}

func (s *taskStore) Create(ctx context.Context, task *model.Task) error {
	row, err := s.queries.CreateTask(ctx, sqlc.CreateTaskParams{
		ID:          task.ID,
		ProjectID:   task.ProjectID,
		Title:       task.Title,
		Description: task.Description,
		Type:        string(task.Type),
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		AssigneeID:  task.AssigneeID,
		DueDate:     toTimestamp(task.DueDate),
	})
	if err != nil {
		return err
	}
	*task = *toTaskModel(row)
	return nil
}

func (s *taskStore) Update(ctx context.Context, task *model.Task) error {
	row, err := s.queries.UpdateTask(ctx, sqlc.UpdateTaskParams{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Type:        string(task.Type),
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		AssigneeID:  task.AssigneeID,
		DueDate:     toTimestamp(task.DueDate),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	*task = *toTaskModel(row)
	return nil
}

func (s *taskStore) ListByIDs(ctx context.Context, ids []int64) ([]model.Task, error) {
	rows, err := s.queries.ListTasksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return toTaskModels(rows), nil
}

func (s *taskStore) ListByProject(ctx context.Context, projectID int64) ([]model.Task, error) {
	rows, err := s.queries.ListTasksByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return toTaskModels(rows), nil
}

func (s *taskStore) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	return s.queries.DeleteTasksByIDs(ctx, ids)
}

func toTaskModels(rows []sqlc.Task) []model.Task {
	result := make([]model.Task, len(rows))
	for i, row := range rows {
		result[i] = *toTaskModel(row)
	}
	return result
}

func toTaskModel(row sqlc.Task) *model.Task {
	return &model.Task{
		ID:          row.ID,
		ProjectID:   row.ProjectID,
		Title:       row.Title,
		Description: row.Description,
		Type:        model.TaskType(row.Type),
		Status:      model.TaskStatus(row.Status),
		Priority:    model.Priority(row.Priority),
		AssigneeID:  row.AssigneeID,
		DueDate:     row.DueDate.Time,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}
