package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"tasklane.app/server/core/db/sqlc"
	"tasklane.app/server/internal/model"
)

type workspaceStore struct {
	queries *sqlc.Queries
}

func newWorkspaceStore(queries *sqlc.Queries) WorkspaceStore {
	return &workspaceStore{queries: queries}
}

func (s *workspaceStore) GetByID(ctx context.Context, id string) (*model.Workspace, error) {
	row, err := s.queries.GetWorkspace(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toWorkspaceModel(row), nil
}

func (s *workspaceStore) Upsert(ctx context.Context, ws *model.Workspace) error {
	row, err := s.queries.UpsertWorkspace(ctx, sqlc.UpsertWorkspaceParams{
		ID:       ws.ID,
		Name:     ws.Name,
		Slug:     ws.Slug,
		OwnerID:  ws.OwnerID,
		ImageUrl: ws.ImageURL,
	})
	if err != nil {
		return err
	}
	*ws = *toWorkspaceModel(row)
	return nil
}

func (s *workspaceStore) Update(ctx context.Context, ws *model.Workspace) error {
	row, err := s.queries.UpdateWorkspace(ctx, sqlc.UpdateWorkspaceParams{
		ID:       ws.ID,
		Name:     ws.Name,
		Slug:     ws.Slug,
		ImageUrl: ws.ImageURL,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	*ws = *toWorkspaceModel(row)
	return nil
}

// Delete cascades to memberships, projects and tasks. Unknown ids are a no-op.
func (s *workspaceStore) Delete(ctx context.Context, id string) error {
	return s.queries.DeleteWorkspace(ctx, id)
}

func (s *workspaceStore) ListByUser(ctx context.Context, userID string) ([]model.Workspace, error) {
	rows, err := s.queries.ListWorkspacesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]model.Workspace, len(rows))
	for i, row := range rows {
		result[i] = *toWorkspaceModel(row)
	}
	return result, nil
}

func toWorkspaceModel(row sqlc.Workspace) *model.Workspace {
	return &model.Workspace{
		ID:        row.ID,
		Name:      row.Name,
		Slug:      row.Slug,
		OwnerID:   row.OwnerID,
		ImageURL:  row.ImageUrl,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

type workspaceMemberStore struct {
	queries *sqlc.Queries
}

func newWorkspaceMemberStore(queries *sqlc.Queries) WorkspaceMemberStore {
	return &workspaceMemberStore{queries: queries}
}

func (s *workspaceMemberStore) Get(ctx context.Context, workspaceID, userID string) (*model.WorkspaceMember, error) {
	row, err := s.queries.GetWorkspaceMember(ctx, sqlc.GetWorkspaceMemberParams{
		WorkspaceID: workspaceID,
		UserID:      userID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toWorkspaceMemberModel(row), nil
}

func (s *workspaceMemberStore) ListByWorkspace(ctx context.Context, workspaceID string) ([]model.WorkspaceMember, error) {
	rows, err := s.queries.ListWorkspaceMembers(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	result := make([]model.WorkspaceMember, len(rows))
	for i, row := range rows {
		m := toWorkspaceMemberModel(row.WorkspaceMember)
		m.User = toUserModel(row.User)
		result[i] = *m
	}
	return result, nil
}

func (s *workspaceMemberStore) Upsert(ctx context.Context, member *model.WorkspaceMember) error {
	row, err := s.queries.UpsertWorkspaceMember(ctx, sqlc.UpsertWorkspaceMemberParams{
		UserID:      member.UserID,
		WorkspaceID: member.WorkspaceID,
		Role:        string(member.Role),
	})
	if err != nil {
		return err
	}
	user := member.User
	*member = *toWorkspaceMemberModel(row)
	member.User = user
	return nil
}

func toWorkspaceMemberModel(row sqlc.WorkspaceMember) *model.WorkspaceMember {
	return &model.WorkspaceMember{
		UserID:      row.UserID,
		WorkspaceID: row.WorkspaceID,
		Role:        model.Role(row.Role),
	}
}
