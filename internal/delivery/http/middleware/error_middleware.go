package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"portfolio-contact-backend/internal/delivery/http/response"
	"portfolio-contact-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error appended with c.Error. AppError
// messages are client-safe; the wrapped Err is only logged.
func ErrorHandler(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		reqID, _ := c.Get(response.RequestIDKey)

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Err != nil {
				log.Error("Request failed", "status", appErr.Code, "error", appErr.Err, "request_id", reqID)
			}
			response.Error(c, appErr.Code, appErr.Message, appErr.Details, nil)
			return
		}

		// Never expose internal error details to clients
		log.Error("Internal Server Error", "error", err, "request_id", reqID)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil, nil)
	}
}
