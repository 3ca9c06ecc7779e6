package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/api/dto"
)

// ErrorHandlerMiddleware logs errors attached to the context and replies
// with a generic 500 when the handler wrote nothing
func ErrorHandlerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		logger.Error("Request error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:     "Internal Server Error",
				Message:   "The simulator failed to handle the request",
				Timestamp: time.Now(),
			})
		}
	}
}
