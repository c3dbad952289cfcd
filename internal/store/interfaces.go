package store

import (
	"context"
	"errors"
	"time"

	"tasklane.app/server/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// UserStore defines the contract for mirrored identity users
type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Upsert(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

// WorkspaceStore defines the contract for mirrored organizations
type WorkspaceStore interface {
	GetByID(ctx context.Context, id string) (*model.Workspace, error)
	Upsert(ctx context.Context, ws *model.Workspace) error
	Update(ctx context.Context, ws *model.Workspace) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]model.Workspace, error)
}

// WorkspaceMemberStore defines the contract for workspace memberships
type WorkspaceMemberStore interface {
	Get(ctx context.Context, workspaceID, userID string) (*model.WorkspaceMember, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]model.WorkspaceMember, error)
	Upsert(ctx context.Context, member *model.WorkspaceMember) error
}

type ProjectStore interface {
	GetByID(ctx context.Context, id int64) (*model.Project, error)
	Create(ctx context.Context, project *model.Project) error
	Update(ctx context.Context, project *model.Project) error
	ListByWorkspace(ctx context.Context, workspaceID string) ([]model.Project, error)
}

type ProjectMemberStore interface {
	ListByProject(ctx context.Context, projectID int64) ([]model.ProjectMember, error)
	Create(ctx context.Context, member *model.ProjectMember) error
}

type TaskStore interface {
	GetByID(ctx context.Context, id int64) (*model.Task, error)
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	ListByIDs(ctx context.Context, ids []int64) ([]model.Task, error)
	ListByProject(ctx context.Context, projectID int64) ([]model.Task, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}

// WorkflowRunStore persists workflow runs and their execution lease.
type WorkflowRunStore interface {
	// CreateIfAbsent inserts run unless one already exists for (workflow, task).
	// It reports whether this call created the row; run always holds the stored row.
	CreateIfAbsent(ctx context.Context, run *model.WorkflowRun) (bool, error)
	GetByID(ctx context.Context, id int64) (*model.WorkflowRun, error)
	// Claim takes the lease until `until` if the run is not DONE and no
	// unexpired lease exists. Returns ErrNotFound when the run cannot be claimed.
	Claim(ctx context.Context, id int64, now, until time.Time) (*model.WorkflowRun, error)
	Release(ctx context.Context, id int64) error
	UpdateState(ctx context.Context, id int64, state model.RunState) error
	Finish(ctx context.Context, id int64, outcome string) error
	// ListStalled locks runs in state untouched since before, skipping leased
	// and dead-lettered runs.
	ListStalled(ctx context.Context, state model.RunState, before time.Time, limit int32) ([]model.WorkflowRun, error)
	MarkDeadLettered(ctx context.Context, id int64) error
	Touch(ctx context.Context, id int64) error
}

// WorkflowStepStore persists step completion markers. Records are append-only.
type WorkflowStepStore interface {
	Get(ctx context.Context, runID int64, stepName string) (*model.StepRecord, error)
	Record(ctx context.Context, record *model.StepRecord) error
	DeleteByRun(ctx context.Context, runID int64) error
}

// WorkflowTimerStore persists durable sleeps.
type WorkflowTimerStore interface {
	Schedule(ctx context.Context, timer *model.Timer) error
	Get(ctx context.Context, runID int64, stepName string) (*model.Timer, error)
	// ListDue locks due, unfired timers; call it inside a transaction.
	ListDue(ctx context.Context, now time.Time, limit int32) ([]model.Timer, error)
	// ListUnconsumed locks timers fired before firedBefore whose run never
	// recorded the sleep: the run is not DONE, leased or dead-lettered.
	ListUnconsumed(ctx context.Context, firedBefore, now time.Time, limit int32) ([]model.Timer, error)
	MarkFired(ctx context.Context, runID int64, stepName string, at time.Time) error
	DeleteByRun(ctx context.Context, runID int64) error
}
