package dto

import (
	"fmt"
	"strconv"

	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/service"
)

type CreateTaskRequest struct {
	ProjectID   int64            `json:"projectId,string" binding:"required"`
	Title       string           `json:"title" binding:"required,max=255"`
	Description *string          `json:"description,omitempty"`
	Type        model.TaskType   `json:"type,omitempty"`
	Status      model.TaskStatus `json:"status,omitempty"`
	Priority    model.Priority   `json:"priority,omitempty"`
	AssigneeID  *string          `json:"assigneeId,omitempty"`
	DueDate     string           `json:"due_date"`
}

func (r CreateTaskRequest) ToInput() service.CreateTaskInput {
	return service.CreateTaskInput{
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		Description: r.Description,
		Type:        r.Type,
		Status:      r.Status,
		Priority:    r.Priority,
		AssigneeID:  r.AssigneeID,
		DueDate:     r.DueDate,
	}
}

// UpdateTaskRequest only changes the fields present in the body.
type UpdateTaskRequest struct {
	Title       *string           `json:"title,omitempty" binding:"omitempty,min=1,max=255"`
	Description *string           `json:"description,omitempty"`
	Type        *model.TaskType   `json:"type,omitempty"`
	Status      *model.TaskStatus `json:"status,omitempty"`
	Priority    *model.Priority   `json:"priority,omitempty"`
	AssigneeID  *string           `json:"assigneeId,omitempty"`
	DueDate     *string           `json:"due_date,omitempty"`
}

func (r UpdateTaskRequest) ToInput() service.UpdateTaskInput {
	return service.UpdateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		Type:        r.Type,
		Status:      r.Status,
		Priority:    r.Priority,
		AssigneeID:  r.AssigneeID,
		DueDate:     r.DueDate,
	}
}

type DeleteTasksRequest struct {
	TaskIDs []string `json:"taskIds"`
}

func (r DeleteTasksRequest) ParseIDs() ([]int64, error) {
	ids := make([]int64, 0, len(r.TaskIDs))
	for _, raw := range r.TaskIDs {
		taskID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid task id %q", raw)
		}
		ids = append(ids, taskID)
	}
	return ids, nil
}
