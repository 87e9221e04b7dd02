package response

import (
	"net/http"

	"course-studio/internal/platform/apierr"
	"course-studio/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Error renders err. Client-side *apierr.Error values keep their status and
// message; anything else is logged and hidden behind a 500.
func Error(c *gin.Context, log *logger.Logger, err error) {
	if e, ok := apierr.As(err); ok && e.Status < http.StatusInternalServerError {
		c.JSON(e.Status, ErrorEnvelope{Error: APIError{Message: e.Error(), Code: e.Code}})
		return
	}
	if log != nil {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(http.StatusInternalServerError, ErrorEnvelope{
		Error: APIError{Message: "internal error", Code: apierr.CodeInternal},
	})
}

// Invalid re-renders a form with its field errors. A failed validation is a
// normal outcome of a submission, so the status stays 200.
func Invalid(c *gin.Context, fields apierr.FieldErrors) {
	c.JSON(http.StatusOK, gin.H{"valid": false, "errors": fields})
}
