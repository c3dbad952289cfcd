package store

import (
	"tasklane.app/server/core/db/sqlc"
)

type Stores struct {
	queries *sqlc.Queries
}

func NewStores(queries *sqlc.Queries) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) Users() UserStore {
	return newUserStore(s.queries)
}

func (s *Stores) Workspaces() WorkspaceStore {
	return newWorkspaceStore(s.queries)
}

func (s *Stores) WorkspaceMembers() WorkspaceMemberStore {
	return newWorkspaceMemberStore(s.queries)
}

func (s *Stores) Projects() ProjectStore {
	return newProjectStore(s.queries)
}

func (s *Stores) ProjectMembers() ProjectMemberStore {
	return newProjectMemberStore(s.queries)
}

func (s *Stores) Tasks() TaskStore {
	return newTaskStore(s.queries)
}

func (s *Stores) WorkflowRuns() WorkflowRunStore {
	return newWorkflowRunStore(s.queries)
}

func (s *Stores) WorkflowSteps() WorkflowStepStore {
	return newWorkflowStepStore(s.queries)
}

func (s *Stores) WorkflowTimers() WorkflowTimerStore {
	return newWorkflowTimerStore(s.queries)
}
