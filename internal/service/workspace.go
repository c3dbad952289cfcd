package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"tasklane.app/server/internal/model"
)

// ProjectDetail is a project with its members and tasks.
type ProjectDetail struct {
	model.Project
	Members []model.ProjectMember `json:"members"`
	Tasks   []model.Task          `json:"tasks"`
}

// WorkspaceDetail is the snapshot the client workspace store loads.
type WorkspaceDetail struct {
	model.Workspace
	Members  []model.WorkspaceMember `json:"members"`
	Projects []ProjectDetail         `json:"projects"`
}

type WorkspaceService interface {
	ListForUser(ctx context.Context, userID string) ([]WorkspaceDetail, error)
}

type workspaceService struct {
	stores StoreProvider
}

func NewWorkspaceService(stores StoreProvider) WorkspaceService {
	return &workspaceService{stores: stores}
}

func (s *workspaceService) ListForUser(ctx context.Context, userID string) ([]WorkspaceDetail, error) {
	workspaces, err := s.stores.Workspaces().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing workspaces: %w", err)
	}

	result := make([]WorkspaceDetail, len(workspaces))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, ws := range workspaces {
		g.Go(func() error {
			detail, err := s.loadWorkspace(gctx, ws)
			if err != nil {
				return err
			}
			result[i] = *detail
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *workspaceService) loadWorkspace(ctx context.Context, ws model.Workspace) (*WorkspaceDetail, error) {
	members, err := s.stores.WorkspaceMembers().ListByWorkspace(ctx, ws.ID)
	if err != nil {
		return nil, fmt.Errorf("listing members of workspace %s: %w", ws.ID, err)
	}

	projects, err := s.stores.Projects().ListByWorkspace(ctx, ws.ID)
	if err != nil {
		return nil, fmt.Errorf("listing projects of workspace %s: %w", ws.ID, err)
	}

	details := make([]ProjectDetail, len(projects))
	for i, p := range projects {
		pm, err := s.stores.ProjectMembers().ListByProject(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("listing members of project %d: %w", p.ID, err)
		}
		tasks, err := s.stores.Tasks().ListByProject(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("listing tasks of project %d: %w", p.ID, err)
		}
		details[i] = ProjectDetail{Project: p, Members: pm, Tasks: tasks}
	}

	return &WorkspaceDetail{Workspace: ws, Members: members, Projects: details}, nil
}
