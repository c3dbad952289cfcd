// Package notification holds the email workflows triggered by task events.
package notification

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"tasklane.app/server/internal/mailer"
	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/store"
	"tasklane.app/server/internal/workflow"
)

const WorkflowTaskAssignment = "task-assignment"

const (
	StepSendAssignmentMail = "send-assignment-mail"
	StepWaitForDueDate     = "wait-for-the-due-date"
	StepCheckCompletion    = "check-if-task-is-completed"
	StepSendReminderMail   = "send-task-reminder-mail"
)

// Run outcomes.
const (
	OutcomeDueToday      = "DUE_TODAY"
	OutcomeSuppressed    = "SUPPRESSED"
	OutcomeReminded      = "REMINDED"
	OutcomeTargetMissing = "TARGET_MISSING"
)

var errTargetMissing = errors.New("task, assignee or project missing")

// Stores are the domain reads the workflow needs.
type Stores interface {
	Tasks() store.TaskStore
	Users() store.UserStore
	Projects() store.ProjectStore
}

type TaskAssignment struct {
	stores Stores
	mailer mailer.Mailer
	loc    *time.Location
}

func NewTaskAssignment(stores Stores, m mailer.Mailer, loc *time.Location) *TaskAssignment {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskAssignment{stores: stores, mailer: m, loc: loc}
}

func (w *TaskAssignment) Definition() workflow.Definition {
	return workflow.Definition{
		Name:         WorkflowTaskAssignment,
		InitialState: model.RunStateAssigned,
		Handler:      w.Run,
	}
}

type assignmentResult struct {
	Missing  bool      `json:"missing,omitempty"`
	DueDate  time.Time `json:"due_date"`
	DueToday bool      `json:"due_today"`
}

type completionResult struct {
	Missing bool `json:"missing,omitempty"`
	Done    bool `json:"done"`
}

type reminderResult struct {
	Missing bool `json:"missing,omitempty"`
}

// Run is the workflow handler:
// ASSIGNED -> WAITING_FOR_DUE_DATE -> CHECKING_COMPLETION -> REMINDED|SUPPRESSED -> DONE.
func (w *TaskAssignment) Run(ctx context.Context, step *workflow.Step, run *model.WorkflowRun) (string, error) {
	assigned, err := workflow.Do(ctx, step, StepSendAssignmentMail, func(ctx context.Context) (assignmentResult, error) {
		t, err := w.loadTarget(ctx, run.TaskID)
		if errors.Is(err, errTargetMissing) {
			return assignmentResult{Missing: true}, nil
		}
		if err != nil {
			return assignmentResult{}, err
		}
		if err := w.send(ctx, t, assignmentSubject(t.project), assignmentTmpl, run.Origin); err != nil {
			return assignmentResult{}, err
		}
		return assignmentResult{
			DueDate:  t.task.DueDate,
			DueToday: SameDay(t.task.DueDate, step.Now(), w.loc),
		}, nil
	})
	if err != nil {
		return "", err
	}
	if assigned.Missing {
		return w.missing(ctx, StepSendAssignmentMail), nil
	}
	if assigned.DueToday {
		return OutcomeDueToday, nil
	}

	if err := step.Transition(ctx, model.RunStateWaitingForDueDate); err != nil {
		return "", err
	}
	if err := step.SleepUntil(ctx, StepWaitForDueDate, assigned.DueDate); err != nil {
		return "", err
	}

	if err := step.Transition(ctx, model.RunStateCheckingCompletion); err != nil {
		return "", err
	}
	check, err := workflow.Do(ctx, step, StepCheckCompletion, func(ctx context.Context) (completionResult, error) {
		task, err := w.stores.Tasks().GetByID(ctx, run.TaskID)
		if errors.Is(err, store.ErrNotFound) {
			return completionResult{Missing: true}, nil
		}
		if err != nil {
			return completionResult{}, fmt.Errorf("loading task: %w", err)
		}
		return completionResult{Done: task.Status == model.TaskStatusDone}, nil
	})
	if err != nil {
		return "", err
	}
	if check.Missing {
		return w.missing(ctx, StepCheckCompletion), nil
	}
	if check.Done {
		if err := step.Transition(ctx, model.RunStateSuppressed); err != nil {
			return "", err
		}
		return OutcomeSuppressed, nil
	}

	if err := step.Transition(ctx, model.RunStateReminded); err != nil {
		return "", err
	}
	reminded, err := workflow.Do(ctx, step, StepSendReminderMail, func(ctx context.Context) (reminderResult, error) {
		t, err := w.loadTarget(ctx, run.TaskID)
		if errors.Is(err, errTargetMissing) {
			return reminderResult{Missing: true}, nil
		}
		if err != nil {
			return reminderResult{}, err
		}
		return reminderResult{}, w.send(ctx, t, reminderSubject(t.project), reminderTmpl, run.Origin)
	})
	if err != nil {
		return "", err
	}
	if reminded.Missing {
		return w.missing(ctx, StepSendReminderMail), nil
	}
	return OutcomeReminded, nil
}

func (w *TaskAssignment) missing(ctx context.Context, stepName string) string {
	slog.WarnContext(ctx, "notification target missing, finishing run", "step", stepName)
	return OutcomeTargetMissing
}

type target struct {
	task     *model.Task
	assignee *model.User
	project  *model.Project
}

// loadTarget reads the task with its assignee and project. Any of them
// missing yields errTargetMissing.
func (w *TaskAssignment) loadTarget(ctx context.Context, taskID int64) (*target, error) {
	task, err := w.stores.Tasks().GetByID(ctx, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errTargetMissing
	}
	if err != nil {
		return nil, fmt.Errorf("loading task: %w", err)
	}
	if task.AssigneeID == nil {
		return nil, errTargetMissing
	}

	assignee, err := w.stores.Users().GetByID(ctx, *task.AssigneeID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errTargetMissing
	}
	if err != nil {
		return nil, fmt.Errorf("loading assignee: %w", err)
	}

	project, err := w.stores.Projects().GetByID(ctx, task.ProjectID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errTargetMissing
	}
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}

	return &target{task: task, assignee: assignee, project: project}, nil
}

func (w *TaskAssignment) send(ctx context.Context, t *target, subject string, tmpl *template.Template, origin string) error {
	body, err := render(tmpl, newMailData(t, origin, w.loc))
	if err != nil {
		return err
	}
	return w.mailer.Send(ctx, mailer.Message{
		To:      t.assignee.Email,
		Subject: subject,
		Body:    body,
	})
}
