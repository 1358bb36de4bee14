package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"relief-claims-api/apperrors"
)

var statusByKind = map[apperrors.Kind]int{
	apperrors.KindValidation:   http.StatusBadRequest,
	apperrors.KindForbidden:    http.StatusForbidden,
	apperrors.KindNotFound:     http.StatusNotFound,
	apperrors.KindConflict:     http.StatusConflict,
	apperrors.KindInvalidState: http.StatusUnprocessableEntity,
	apperrors.KindStorage:      http.StatusInternalServerError,
}

// respondError writes {error, code, retryable, fields}. Storage failures hide
// their cause from the client.
func respondError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal storage error"
		var appErr *apperrors.Error
		if errors.As(err, &appErr) && appErr.Message != "" {
			message = appErr.Message
		}
	}

	body := gin.H{
		"error":     message,
		"code":      kind.String(),
		"retryable": apperrors.Retryable(err),
	}
	if fields := apperrors.FieldsOf(err); len(fields) > 0 {
		body["fields"] = fields
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	respondError(c, apperrors.Validation(message))
}
