package service

import (
	"context"
	"time"

	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/store"
)

// WorkflowStarter starts a workflow run for a task. *workflow.Engine satisfies it.
type WorkflowStarter interface {
	Start(ctx context.Context, workflow string, taskID int64, origin string) (*model.WorkflowRun, bool, error)
}

type Services struct {
	stores   *store.Stores
	txRunner TxRunner
	starter  WorkflowStarter
	appURL   string
	loc      *time.Location
}

func NewServices(stores *store.Stores, txRunner TxRunner, starter WorkflowStarter, appURL string, loc *time.Location) *Services {
	return &Services{
		stores:   stores,
		txRunner: txRunner,
		starter:  starter,
		appURL:   appURL,
		loc:      loc,
	}
}

func (s *Services) Projects() ProjectService {
	return NewProjectService(s.txRunner)
}

func (s *Services) Tasks() TaskService {
	return NewTaskService(s.txRunner, s.starter, s.appURL, s.loc)
}

func (s *Services) Workspaces() WorkspaceService {
	return NewWorkspaceService(s.stores)
}

func (s *Services) IdentitySync() IdentitySyncService {
	return NewIdentitySyncService(s.txRunner)
}
