package router

import (
	"github.com/gin-gonic/gin"

	"tasklane.app/server/internal/http/handler"
)

func WorkspaceRouter(rg *gin.RouterGroup, h *handler.WorkspaceHandler) {
	rg.GET("", h.List)
}
