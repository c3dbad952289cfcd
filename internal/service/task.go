package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tasklane.app/server/common/id"
	"tasklane.app/server/common/logger"
	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/notification"
	"tasklane.app/server/internal/policy"
	"tasklane.app/server/internal/store"
)

type CreateTaskInput struct {
	ProjectID   int64
	Title       string
	Description *string
	Type        model.TaskType
	Status      model.TaskStatus
	Priority    model.Priority
	AssigneeID  *string
	DueDate     string
}

// UpdateTaskInput is a partial update; nil fields are left unchanged. An
// empty AssigneeID clears the assignee.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Type        *model.TaskType
	Status      *model.TaskStatus
	Priority    *model.Priority
	AssigneeID  *string
	DueDate     *string
}

type TaskService interface {
	Create(ctx context.Context, actorID string, in CreateTaskInput, origin string) (*model.Task, error)
	Update(ctx context.Context, actorID string, taskID int64, in UpdateTaskInput) (*model.Task, error)
	Delete(ctx context.Context, actorID string, taskIDs []int64) (int64, error)
}

type taskService struct {
	txRunner TxRunner
	starter  WorkflowStarter
	appURL   string
	loc      *time.Location
}

func NewTaskService(txRunner TxRunner, starter WorkflowStarter, appURL string, loc *time.Location) TaskService {
	if loc == nil {
		loc = time.UTC
	}
	return &taskService{txRunner: txRunner, starter: starter, appURL: appURL, loc: loc}
}

func (s *taskService) Create(ctx context.Context, actorID string, in CreateTaskInput, origin string) (*model.Task, error) {
	if in.ProjectID == 0 {
		return nil, invalid("projectId is required")
	}
	task := &model.Task{
		ProjectID:   in.ProjectID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Type:        withDefault(in.Type, model.TaskTypeTask),
		Status:      withDefault(in.Status, model.TaskStatusTodo),
		Priority:    withDefault(in.Priority, model.PriorityMedium),
		AssigneeID:  emptyToNil(in.AssigneeID),
	}
	if strings.TrimSpace(in.DueDate) == "" {
		return nil, invalid("due_date is required")
	}
	due, err := ParseDate(in.DueDate, s.loc)
	if err != nil {
		return nil, invalid("invalid due_date %q", in.DueDate)
	}
	task.DueDate = due
	if err := validateTask(task); err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{ProjectID: &in.ProjectID, UserID: &actorID})

	err = s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		project, err := loadProjectForActor(ctx, sp, actorID, in.ProjectID)
		if err != nil {
			return err
		}
		if err := checkAssignee(ctx, sp, project.ID, task.AssigneeID); err != nil {
			return err
		}
		task.ID = id.New()
		if err := sp.Tasks().Create(ctx, task); err != nil {
			return fmt.Errorf("creating task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{TaskID: &task.ID})
	slog.InfoContext(ctx, "task created")

	if origin == "" {
		origin = s.appURL
	}
	if _, _, err := s.starter.Start(ctx, notification.WorkflowTaskAssignment, task.ID, origin); err != nil {
		// The task is committed; a run row that exists is re-kicked by the dispatcher.
		slog.ErrorContext(ctx, "failed to start task assignment workflow", "error", err)
	}

	return task, nil
}

func (s *taskService) Update(ctx context.Context, actorID string, taskID int64, in UpdateTaskInput) (*model.Task, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{TaskID: &taskID, UserID: &actorID})

	var task *model.Task
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		var err error
		task, err = sp.Tasks().GetByID(ctx, taskID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFound("Task not found")
			}
			return fmt.Errorf("loading task: %w", err)
		}

		project, err := loadProjectForActor(ctx, sp, actorID, task.ProjectID)
		if err != nil {
			return err
		}

		if in.Title != nil {
			task.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			task.Description = in.Description
		}
		if in.Type != nil {
			task.Type = *in.Type
		}
		if in.Status != nil {
			task.Status = *in.Status
		}
		if in.Priority != nil {
			task.Priority = *in.Priority
		}
		if in.DueDate != nil {
			due, err := ParseDate(*in.DueDate, s.loc)
			if err != nil {
				return invalid("invalid due_date %q", *in.DueDate)
			}
			task.DueDate = due
		}
		if in.AssigneeID != nil {
			task.AssigneeID = emptyToNil(in.AssigneeID)
			if err := checkAssignee(ctx, sp, project.ID, task.AssigneeID); err != nil {
				return err
			}
		}
		if err := validateTask(task); err != nil {
			return err
		}

		if err := sp.Tasks().Update(ctx, task); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFound("Task not found")
			}
			return fmt.Errorf("updating task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "task updated", "status", task.Status)
	return task, nil
}

// Delete removes tasks that all belong to one project.
func (s *taskService) Delete(ctx context.Context, actorID string, taskIDs []int64) (int64, error) {
	ids := uniqueIDs(taskIDs)
	if len(ids) == 0 {
		return 0, invalid("taskIds is required")
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{UserID: &actorID})

	var deleted int64
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		tasks, err := sp.Tasks().ListByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}
		if len(tasks) != len(ids) {
			return notFound("Task not found")
		}

		projectID := tasks[0].ProjectID
		for _, t := range tasks[1:] {
			if t.ProjectID != projectID {
				return invalid("tasks must belong to a single project")
			}
		}

		if _, err := loadProjectForActor(ctx, sp, actorID, projectID); err != nil {
			return err
		}

		deleted, err = sp.Tasks().DeleteByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("deleting tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "tasks deleted", "count", deleted)
	return deleted, nil
}

// ParseDate accepts an RFC 3339 timestamp or a YYYY-MM-DD date, the
// latter taken as midnight in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func checkAssignee(ctx context.Context, sp StoreProvider, projectID int64, assigneeID *string) error {
	if assigneeID == nil {
		return nil
	}
	members, err := sp.ProjectMembers().ListByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("listing project members: %w", err)
	}
	if !policy.IsProjectMember(*assigneeID, members) {
		return invalid("assignee is not a member of the project/workspace")
	}
	return nil
}

func validateTask(t *model.Task) error {
	if t.Title == "" {
		return invalid("title is required")
	}
	if !t.Type.IsValid() {
		return invalid("invalid type %q", t.Type)
	}
	if !t.Status.IsValid() {
		return invalid("invalid status %q", t.Status)
	}
	if !t.Priority.IsValid() {
		return invalid("invalid priority %q", t.Priority)
	}
	return nil
}

func withDefault[T ~string](v, fallback T) T {
	if v == "" {
		return fallback
	}
	return v
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, taskID := range ids {
		if taskID == 0 || seen[taskID] {
			continue
		}
		seen[taskID] = true
		out = append(out, taskID)
	}
	return out
}
