package router

import (
	"github.com/gin-gonic/gin"

	"tasklane.app/server/internal/http/handler"
)

func TaskRouter(rg *gin.RouterGroup, h *handler.TaskHandler) {
	rg.POST("", h.Create)
	rg.PUT("/:id", h.Update)
	rg.POST("/delete", h.Delete)
}
