package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tasklist/models"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: message})
}

// respondError maps a store or validation error to a status code. Faults are
// logged and answered with the generic message.
func (h *Handler) respondError(c *gin.Context, op string, err error, message string) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		badRequest(c, ve.Message)
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "Task not found"})
	case errors.Is(err, models.ErrUnsupported):
		c.JSON(http.StatusNotImplemented, errorResponse{Error: "Toggle is not supported by this store"})
	default:
		h.logger.ErrorContext(c.Request.Context(), "store operation failed", "op", op, "error", err)
		resp := errorResponse{Error: message}
		if h.opts.ExposeErrorDetails {
			resp.Details = err.Error()
		}
		c.JSON(http.StatusInternalServerError, resp)
	}
}
