package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"tasklane.app/server/common/id"
	"tasklane.app/server/common/logger"
	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/policy"
	"tasklane.app/server/internal/store"
)

const pgUniqueViolation = "23505"

type CreateProjectInput struct {
	WorkspaceID   string
	Name          string
	Description   *string
	Status        model.ProjectStatus
	Priority      model.Priority
	Progress      int32
	TeamLeadEmail string
	TeamMembers   []string
	StartDate     *time.Time
	EndDate       *time.Time
}

// UpdateProjectInput is a partial update; nil fields are left unchanged.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Status      *model.ProjectStatus
	Priority    *model.Priority
	Progress    *int32
	StartDate   *time.Time
	EndDate     *time.Time
}

// ProjectWithMembers is a project and its members with their users.
type ProjectWithMembers struct {
	model.Project
	Members []model.ProjectMember `json:"members"`
}

type ProjectService interface {
	Create(ctx context.Context, actorID string, in CreateProjectInput) (*ProjectWithMembers, error)
	Update(ctx context.Context, actorID string, projectID int64, in UpdateProjectInput) (*model.Project, error)
	AddMember(ctx context.Context, actorID string, projectID int64, email string) (*model.ProjectMember, error)
}

type projectService struct {
	txRunner TxRunner
}

func NewProjectService(txRunner TxRunner) ProjectService {
	return &projectService{txRunner: txRunner}
}

func (s *projectService) Create(ctx context.Context, actorID string, in CreateProjectInput) (*ProjectWithMembers, error) {
	if err := validateProjectInput(&in); err != nil {
		return nil, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{WorkspaceID: &in.WorkspaceID, UserID: &actorID})

	var result *ProjectWithMembers
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if _, err := sp.Workspaces().GetByID(ctx, in.WorkspaceID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFound("Workspace Not Found")
			}
			return fmt.Errorf("loading workspace: %w", err)
		}

		wsMembers, err := sp.WorkspaceMembers().ListByWorkspace(ctx, in.WorkspaceID)
		if err != nil {
			return fmt.Errorf("listing workspace members: %w", err)
		}
		if !policy.CanActOnWorkspace(actorID, wsMembers, in.WorkspaceID, model.RoleAdmin) {
			return forbidden("You dont have permission to create project in this workspace")
		}

		project := &model.Project{
			ID:          id.New(),
			WorkspaceID: in.WorkspaceID,
			Name:        in.Name,
			Description: in.Description,
			Status:      in.Status,
			Priority:    in.Priority,
			Progress:    in.Progress,
			StartDate:   in.StartDate,
			EndDate:     in.EndDate,
		}

		wanted := make(map[string]bool, len(in.TeamMembers)+1)
		for _, email := range in.TeamMembers {
			wanted[normalizeEmail(email)] = true
		}
		if in.TeamLeadEmail != "" {
			lead, err := sp.Users().GetByEmail(ctx, normalizeEmail(in.TeamLeadEmail))
			switch {
			case err == nil:
				project.TeamLeadID = &lead.ID
				wanted[normalizeEmail(lead.Email)] = true
			case errors.Is(err, store.ErrNotFound):
				slog.WarnContext(ctx, "team lead not found, creating project without one")
			default:
				return fmt.Errorf("resolving team lead: %w", err)
			}
		}

		if err := sp.Projects().Create(ctx, project); err != nil {
			return fmt.Errorf("creating project: %w", err)
		}

		members := []model.ProjectMember{}
		for _, m := range wsMembers {
			if m.User == nil || !wanted[normalizeEmail(m.User.Email)] {
				continue
			}
			pm := model.ProjectMember{ProjectID: project.ID, UserID: m.UserID, User: m.User}
			if err := sp.ProjectMembers().Create(ctx, &pm); err != nil {
				return fmt.Errorf("adding project member: %w", err)
			}
			members = append(members, pm)
		}

		result = &ProjectWithMembers{Project: *project, Members: members}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "project created",
		"project_id", result.ID,
		"member_count", len(result.Members))
	return result, nil
}

func (s *projectService) Update(ctx context.Context, actorID string, projectID int64, in UpdateProjectInput) (*model.Project, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{ProjectID: &projectID, UserID: &actorID})

	var project *model.Project
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		var err error
		project, err = loadProjectForActor(ctx, sp, actorID, projectID)
		if err != nil {
			return err
		}

		if in.Name != nil {
			project.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			project.Description = in.Description
		}
		if in.Status != nil {
			project.Status = *in.Status
		}
		if in.Priority != nil {
			project.Priority = *in.Priority
		}
		if in.Progress != nil {
			project.Progress = *in.Progress
		}
		if in.StartDate != nil {
			project.StartDate = in.StartDate
		}
		if in.EndDate != nil {
			project.EndDate = in.EndDate
		}
		if err := validateProject(project); err != nil {
			return err
		}

		if err := sp.Projects().Update(ctx, project); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFound("Project not found")
			}
			return fmt.Errorf("updating project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "project updated")
	return project, nil
}

func (s *projectService) AddMember(ctx context.Context, actorID string, projectID int64, email string) (*model.ProjectMember, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, invalid("email is required")
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{ProjectID: &projectID, UserID: &actorID})

	var member *model.ProjectMember
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		project, err := loadProjectForActor(ctx, sp, actorID, projectID)
		if err != nil {
			return err
		}

		user, err := sp.Users().GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFound("User not found")
			}
			return fmt.Errorf("loading user: %w", err)
		}

		current, err := sp.ProjectMembers().ListByProject(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("listing project members: %w", err)
		}
		if policy.IsProjectMember(user.ID, current) {
			return conflict("user is already a member")
		}

		if _, err := sp.WorkspaceMembers().Get(ctx, project.WorkspaceID, user.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return invalid("user is not a member of the project's workspace")
			}
			return fmt.Errorf("checking workspace membership: %w", err)
		}

		member = &model.ProjectMember{ProjectID: project.ID, UserID: user.ID, User: user}
		if err := sp.ProjectMembers().Create(ctx, member); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return conflict("user is already a member")
			}
			return fmt.Errorf("adding project member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "project member added", "member_id", member.UserID)
	return member, nil
}

// loadProjectForActor fetches the project and checks that actorID may act on it.
func loadProjectForActor(ctx context.Context, sp StoreProvider, actorID string, projectID int64) (*model.Project, error) {
	project, err := sp.Projects().GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Project not found")
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}

	wsMembers, err := sp.WorkspaceMembers().ListByWorkspace(ctx, project.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing workspace members: %w", err)
	}
	if !policy.CanActOnProject(actorID, project, wsMembers) {
		return nil, forbidden("You dont have admin privileges")
	}
	return project, nil
}

func validateProjectInput(in *CreateProjectInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.WorkspaceID == "" {
		return invalid("workspaceId is required")
	}
	if in.Status == "" {
		in.Status = model.ProjectStatusPlanning
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	return validateProject(&model.Project{
		Name:      in.Name,
		Status:    in.Status,
		Priority:  in.Priority,
		Progress:  in.Progress,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
	})
}

func validateProject(p *model.Project) error {
	if p.Name == "" {
		return invalid("name is required")
	}
	if !p.Status.IsValid() {
		return invalid("invalid status %q", p.Status)
	}
	if !p.Priority.IsValid() {
		return invalid("invalid priority %q", p.Priority)
	}
	if p.Progress < 0 || p.Progress > 100 {
		return invalid("progress must be between 0 and 100")
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return invalid("end_date must not be before start_date")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
