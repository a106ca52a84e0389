package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"

	"github.com/imrishuroy/printeasy-orderflow/internal/admin"
	"github.com/imrishuroy/printeasy-orderflow/internal/apperror"
	"github.com/imrishuroy/printeasy-orderflow/internal/intake"
	"github.com/imrishuroy/printeasy-orderflow/internal/orders"
)

// writeError maps err onto a status and a JSON body listing every problem.
func writeError(c *gin.Context, err error) {
	status, kind := http.StatusInternalServerError, apperror.Kind(err)
	switch {
	case errors.Is(err, orders.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, orders.ErrInvalidTransition):
		status, kind = http.StatusConflict, "invalid_transition"
	case errors.Is(err, intake.ErrSubmissionInProgress):
		status, kind = http.StatusConflict, "submission_in_progress"
	case errors.Is(err, intake.ErrPreviousAttemptFailed):
		status, kind = http.StatusConflict, "previous_attempt_failed"
	case errors.Is(err, admin.ErrInvalidPassword):
		status, kind = http.StatusUnauthorized, "invalid_password"
	default:
		status = apperror.HTTPCode(err)
	}

	details := []string{}
	for _, e := range multierr.Errors(err) {
		details = append(details, e.Error())
	}
	c.AbortWithStatusJSON(status, gin.H{"error": kind, "details": details})
}
