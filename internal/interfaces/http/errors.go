package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkp-kub/bantuan-kub/internal/domain/workflow"
)

// statusFor maps the workflow error taxonomy to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrValidation), errors.Is(err, workflow.ErrNoItemsToDecide):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrPreconditionNotMet),
		errors.Is(err, workflow.ErrStageLocked),
		errors.Is(err, workflow.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrLocked):
		return http.StatusLocked
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error response. Internal details of storage
// failures stay in the log.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path, "request_id", c.GetString(requestIDKey))
		msg = "internal error"
		if errors.Is(err, workflow.ErrStorageFailure) {
			msg = "storage failure"
		}
	}

	var te *workflow.TransitionError
	if errors.As(err, &te) {
		msg = te.Message
	}

	c.JSON(status, Response{
		Success: false,
		Error:   msg,
		Code:    workflow.Code(err),
	})
}

// badRequest reports a request that could not be bound
func (h *Handlers) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   err.Error(),
		Code:    workflow.Code(workflow.ErrValidation),
	})
}
