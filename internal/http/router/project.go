package router

import (
	"github.com/gin-gonic/gin"

	"tasklane.app/server/internal/http/handler"
)

func ProjectRouter(rg *gin.RouterGroup, h *handler.ProjectHandler) {
	rg.POST("", h.Create)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/members", h.AddMember)
}
