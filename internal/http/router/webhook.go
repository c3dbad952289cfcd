package router

import (
	"github.com/gin-gonic/gin"

	"tasklane.app/server/internal/http/handler/webhook"
)

func WebhookRouter(rg *gin.RouterGroup, h *webhook.IdentityWebhookHandler) {
	rg.POST("/identity", h.HandleEvent)
}
