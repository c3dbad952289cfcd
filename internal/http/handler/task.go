package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tasklane.app/server/internal/http/dto"
	"tasklane.app/server/internal/http/middleware"
	"tasklane.app/server/internal/service"
)

type TaskHandler struct {
	taskService service.TaskService
}

func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// Create passes the request Origin through so the assignment email links
// back to the client that created the task.
func (h *TaskHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	task, err := h.taskService.Create(ctx, middleware.ActorID(ctx), req.ToInput(), c.GetHeader("Origin"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": task, "message": "Task Created Successfully"})
}

func (h *TaskHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	taskID, err := parseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	task, err := h.taskService.Update(ctx, middleware.ActorID(ctx), taskID, req.ToInput())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": task, "message": "Task Updated Successfully"})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.DeleteTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ids, err := req.ParseIDs()
	if err != nil {
		badRequest(c, err)
		return
	}

	deleted, err := h.taskService.Delete(ctx, middleware.ActorID(ctx), ids)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "message": "Task Deleted Successfully"})
}
