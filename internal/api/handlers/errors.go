package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/api/dto"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
)

// respondError maps simulator errors to HTTP statuses:
// validation failures are 400, conflicts with the current state are 409.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	title := "Internal Server Error"

	switch {
	case simulator.IsValidationError(err):
		status = http.StatusBadRequest
		title = "Invalid request"
	case errors.Is(err, simulator.ErrDuplicateMessage):
		status = http.StatusConflict
		title = "Duplicate message"
	case errors.Is(err, simulator.ErrNothingInFlight):
		status = http.StatusConflict
		title = "No message processing"
	default:
		_ = c.Error(err)
	}

	c.JSON(status, dto.ErrorResponse{
		Error:     title,
		Message:   err.Error(),
		Timestamp: time.Now(),
	})
}

func badRequest(c *gin.Context, title, message string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:     title,
		Message:   message,
		Timestamp: time.Now(),
	})
}
