package dto

import (
	"fmt"
	"time"

	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/service"
)

type CreateProjectRequest struct {
	WorkspaceID string              `json:"workspaceId" binding:"required"`
	Name        string              `json:"name" binding:"required,max=255"`
	Description *string             `json:"description,omitempty"`
	Status      model.ProjectStatus `json:"status,omitempty"`
	Priority    model.Priority      `json:"priority,omitempty"`
	Progress    int32               `json:"progress" binding:"min=0,max=100"`
	TeamLead    string              `json:"team_lead,omitempty" binding:"omitempty,email"`
	TeamMembers []string            `json:"team_members,omitempty" binding:"omitempty,dive,email"`
	StartDate   *string             `json:"start_date,omitempty"`
	EndDate     *string             `json:"end_date,omitempty"`
}

func (r CreateProjectRequest) ToInput(loc *time.Location) (service.CreateProjectInput, error) {
	start, err := parseOptionalDate("start_date", r.StartDate, loc)
	if err != nil {
		return service.CreateProjectInput{}, err
	}
	end, err := parseOptionalDate("end_date", r.EndDate, loc)
	if err != nil {
		return service.CreateProjectInput{}, err
	}

	return service.CreateProjectInput{
		WorkspaceID:   r.WorkspaceID,
		Name:          r.Name,
		Description:   r.Description,
		Status:        r.Status,
		Priority:      r.Priority,
		Progress:      r.Progress,
		TeamLeadEmail: r.TeamLead,
		TeamMembers:   r.TeamMembers,
		StartDate:     start,
		EndDate:       end,
	}, nil
}

type UpdateProjectRequest struct {
	Name        *string              `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Description *string              `json:"description,omitempty"`
	Status      *model.ProjectStatus `json:"status,omitempty"`
	Priority    *model.Priority      `json:"priority,omitempty"`
	Progress    *int32               `json:"progress,omitempty"`
	StartDate   *string              `json:"start_date,omitempty"`
	EndDate     *string              `json:"end_date,omitempty"`
}

func (r UpdateProjectRequest) ToInput(loc *time.Location) (service.UpdateProjectInput, error) {
	start, err := parseOptionalDate("start_date", r.StartDate, loc)
	if err != nil {
		return service.UpdateProjectInput{}, err
	}
	end, err := parseOptionalDate("end_date", r.EndDate, loc)
	if err != nil {
		return service.UpdateProjectInput{}, err
	}

	return service.UpdateProjectInput{
		Name:        r.Name,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		Progress:    r.Progress,
		StartDate:   start,
		EndDate:     end,
	}, nil
}

type AddProjectMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func parseOptionalDate(field string, raw *string, loc *time.Location) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := service.ParseDate(*raw, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &t, nil
}
