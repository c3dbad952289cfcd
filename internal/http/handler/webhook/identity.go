package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/workos/workos-go/v6/pkg/webhooks"

	"tasklane.app/server/common/logger"
	"tasklane.app/server/internal/service"
)

const SignatureHeader = "WorkOS-Signature"

// PayloadValidator checks a webhook signature header against the raw body
// and returns the body when it is authentic.
type PayloadValidator interface {
	ValidatePayload(signatureHeader string, body string) (string, error)
}

func NewWorkOSValidator(secret string) PayloadValidator {
	return webhooks.NewClient(secret)
}

type IdentityWebhookHandler struct {
	validator PayloadValidator
	sync      service.IdentitySyncService
}

func NewIdentityWebhookHandler(validator PayloadValidator, sync service.IdentitySyncService) *IdentityWebhookHandler {
	return &IdentityWebhookHandler{validator: validator, sync: sync}
}

// HandleEvent applies one identity-provider event. Failures other than bad
// input return 500 so the provider redelivers.
func (h *IdentityWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	signature := c.GetHeader(SignatureHeader)
	if signature == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing webhook signature"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to read request body"})
		return
	}

	payload, err := h.validator.ValidatePayload(signature, string(body))
	if err != nil {
		slog.WarnContext(ctx, "identity webhook signature rejected", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid webhook signature"})
		return
	}

	var event service.IdentityEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil || event.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventType: &event.Type,
		Component: "tasklane.webhook.identity",
	})

	slog.InfoContext(ctx, "identity webhook received", "event_id", event.ID)

	if err := h.sync.Handle(ctx, event); err != nil {
		if errors.Is(err, service.ErrValidation) {
			slog.WarnContext(ctx, "identity event rejected", "error", err, "event_id", event.ID)
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "identity event failed", "error", err, "event_id", event.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
