package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"tasklane.app/server/core/db/sqlc"
	"tasklane.app/server/internal/model"
)

type projectStore struct {
	queries *sqlc.Queries
}

func newProjectStore(queries *sqlc.Queries) ProjectStore {
	return &projectStore{queries: queries}
}

func (s *projectStore) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	row, err := s.queries.GetProject(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toProjectModel(row), nil
}

func (s *projectStore) Create(ctx context.Context, project *model.Project) error {
	row, err := s.queries.CreateProject(ctx, sqlc.CreateProjectParams{
		ID:          project.ID,
		WorkspaceID: project.WorkspaceID,
		Name:        project.Name,
		Description: project.Description,
		Status:      string(project.Status),
		Priority:    string(project.Priority),
		Progress:    project.Progress,
		TeamLead:    project.TeamLeadID,
		StartDate:   toNullableTimestamp(project.StartDate),
		EndDate:     toNullableTimestamp(project.EndDate),
	})
	if err != nil {
		return err
	}
	*project = *toProjectModel(row)
	return nil
}

func (s *projectStore) Update(ctx context.Context, project *model.Project) error {
	row, err := s.queries.UpdateProject(ctx, sqlc.UpdateProjectParams{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Status:      string(project.Status),
		Priority:    string(project.Priority),
		Progress:    project.Progress,
		StartDate:   toNullableTimestamp(project.StartDate),
		EndDate:     toNullableTimestamp(project.EndDate),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	*project = *toProjectModel(row)
	return nil
}

func (s *projectStore) ListByWorkspace(ctx context.Context, workspaceID string) ([]model.Project, error) {
	rows, err := s.queries.ListProjectsByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	result := make([]model.Project, len(rows))
	for i, row := range rows {
		result[i] = *toProjectModel(row)
	}
	return result, nil
}

func toProjectModel(row sqlc.Project) *model.Project {
	return &model.Project{
		ID:          row.ID,
		WorkspaceID: row.WorkspaceID,
		Name:        row.Name,
		Description: row.Description,
		Status:      model.ProjectStatus(row.Status),
		Priority:    model.Priority(row.Priority),
		Progress:    row.Progress,
		TeamLeadID:  row.TeamLead,
		StartDate:   toTimePointer(row.StartDate),
		EndDate:     toTimePointer(row.EndDate),
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

type projectMemberStore struct {
	queries *sqlc.Queries
}

func newProjectMemberStore(queries *sqlc.Queries) ProjectMemberStore {
	return &projectMemberStore{queries: queries}
}

func (s *projectMemberStore) ListByProject(ctx context.Context, projectID int64) ([]model.ProjectMember, error) {
	rows, err := s.queries.ListProjectMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	result := make([]model.ProjectMember, len(rows))
	for i, row := range rows {
		result[i] = model.ProjectMember{
			ProjectID: row.ProjectMember.ProjectID,
			UserID:    row.ProjectMember.UserID,
			User:      toUserModel(row.User),
		}
	}
	return result, nil
}

// Create returns the raw pgconn error on a duplicate (project, user) pair so
// callers can map SQLSTATE 23505.
func (s *projectMemberStore) Create(ctx context.Context, member *model.ProjectMember) error {
	row, err := s.queries.CreateProjectMember(ctx, sqlc.CreateProjectMemberParams{
		ProjectID: member.ProjectID,
		UserID:    member.UserID,
	})
	if err != nil {
		return err
	}
	member.ProjectID = row.ProjectID
	member.UserID = row.UserID
	return nil
}
