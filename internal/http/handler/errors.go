package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"

	"tasklane.app/server/internal/service"
)

// writeError maps service error kinds onto status codes. Anything else is a
// 500 carrying the database error code when there is one.
func writeError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	}

	if status != http.StatusInternalServerError {
		c.JSON(status, gin.H{"message": err.Error()})
		return
	}

	slog.ErrorContext(ctx, "request failed", "error", err)

	message := err.Error()
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		message = pgErr.Code
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": message})
}

func badRequest(c *gin.Context, err error) {
	slog.WarnContext(c.Request.Context(), "invalid request body", "error", err)
	c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
}
