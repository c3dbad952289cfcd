package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tasklane.app/server/internal/http/dto"
	"tasklane.app/server/internal/http/middleware"
	"tasklane.app/server/internal/service"
)

type ProjectHandler struct {
	projectService service.ProjectService
	loc            *time.Location
}

func NewProjectHandler(projectService service.ProjectService, loc *time.Location) *ProjectHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ProjectHandler{projectService: projectService, loc: loc}
}

func (h *ProjectHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	in, err := req.ToInput(h.loc)
	if err != nil {
		badRequest(c, err)
		return
	}

	project, err := h.projectService.Create(ctx, middleware.ActorID(ctx), in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project, "message": "Project Created Successfully"})
}

func (h *ProjectHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	projectID, err := parseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	in, err := req.ToInput(h.loc)
	if err != nil {
		badRequest(c, err)
		return
	}

	project, err := h.projectService.Update(ctx, middleware.ActorID(ctx), projectID, in)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project, "message": "Project updated successfully"})
}

func (h *ProjectHandler) AddMember(c *gin.Context) {
	ctx := c.Request.Context()

	projectID, err := parseID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	var req dto.AddProjectMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	member, err := h.projectService.AddMember(ctx, middleware.ActorID(ctx), projectID, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": member, "message": "Member added successfully"})
}

func parseID(raw string) (int64, error) {
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed <= 0 {
		return 0, errors.New("invalid id")
	}
	return parsed, nil
}
