package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tasklane.app/server/internal/http/handler"
	"tasklane.app/server/internal/http/handler/webhook"
	"tasklane.app/server/internal/http/middleware"
	"tasklane.app/server/internal/service"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type RouterConfig struct {
	Verifier         middleware.TokenVerifier
	WebhookValidator webhook.PayloadValidator
	Location         *time.Location
	// Readiness is keyed by dependency name, e.g. "database".
	Readiness map[string]ReadinessCheck
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", readyHandler(cfg.Readiness))

	identityHandler := webhook.NewIdentityWebhookHandler(cfg.WebhookValidator, services.IdentitySync())
	WebhookRouter(router.Group("/webhooks"), identityHandler)

	v1 := router.Group("/api/v1", middleware.RequireAuth(cfg.Verifier))
	{
		projectHandler := handler.NewProjectHandler(services.Projects(), cfg.Location)
		ProjectRouter(v1.Group("/projects"), projectHandler)

		taskHandler := handler.NewTaskHandler(services.Tasks())
		TaskRouter(v1.Group("/tasks"), taskHandler)

		workspaceHandler := handler.NewWorkspaceHandler(services.Workspaces())
		WorkspaceRouter(v1.Group("/workspaces"), workspaceHandler)
	}
}

func readyHandler(checks map[string]ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		results := make(gin.H, len(checks))
		for name, check := range checks {
			if err := check(c.Request.Context()); err != nil {
				slog.WarnContext(c.Request.Context(), "readiness check failed",
					"dependency", name,
					"error", err)
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "unavailable"
		}
		c.JSON(status, gin.H{"status": state, "checks": results})
	}
}
