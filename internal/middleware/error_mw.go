package middleware

import (
	"log/slog"

	"propelize/internal/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorHandler translates the last error pushed with c.Error into a JSON
// response. It is the only place that maps failures to status codes.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		appErr, ok := apperr.As(err)
		if !ok {
			appErr = apperr.Internal(err)
		}

		if appErr.Kind == apperr.KindInternal {
			logger.ErrorContext(c.Request.Context(), "request failed",
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("request_id", c.GetString(RequestIDKey)),
				slog.Any("error", err),
			)
		}

		if c.Writer.Written() {
			return
		}

		body := gin.H{"message": appErr.Message}
		if appErr.Kind == apperr.KindInternal {
			body["message"] = apperr.InternalMessage
		}
		if len(appErr.Details) > 0 {
			body["errors"] = appErr.Details
		}
		c.JSON(appErr.Kind.Status(), body)
	}
}
