package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/api/dto"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/storage"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/pkg/utils"
)

// DefaultAuditLimit caps audit listings when no limit is given
const DefaultAuditLimit = 100

// AuditHandler serves the archive of processed and dead-lettered messages
type AuditHandler struct {
	repo storage.AuditRepository
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(repo storage.AuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// ListAudit godoc
// @Summary List archived messages
// @Description Messages that were processed or dead-lettered, newest first, with optional filters
// @Tags audit
// @Produce json
// @Param outcome query string false "processed or dead_lettered"
// @Param queue_type query string false "standard, fifo or dlq"
// @Param engine_id query string false "Engine instance ID"
// @Param start_time query string false "Start time in RFC3339 format" example("2025-01-18T00:00:00Z")
// @Param end_time query string false "End time in RFC3339 format" example("2025-01-18T23:59:59Z")
// @Param limit query int false "Maximum records (default 100)"
// @Success 200 {object} dto.AuditListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/simulator/audit [get]
func (h *AuditHandler) ListAudit(c *gin.Context) {
	filter := storage.AuditFilter{
		EngineID: c.Query("engine_id"),
		Limit:    DefaultAuditLimit,
	}

	if outcome := c.Query("outcome"); outcome != "" {
		switch storage.Outcome(outcome) {
		case storage.OutcomeProcessed, storage.OutcomeDeadLettered:
			filter.Outcome = storage.Outcome(outcome)
		default:
			badRequest(c, "Invalid outcome", "Use processed or dead_lettered. Got: "+outcome)
			return
		}
	}

	if queueType := c.Query("queue_type"); queueType != "" {
		kind, err := simulator.ParseQueueKind(queueType)
		if err != nil {
			badRequest(c, "Invalid queue_type", err.Error())
			return
		}
		filter.QueueKind = kind
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			badRequest(c, "Invalid limit", "limit must be a positive integer. Got: "+limitStr)
			return
		}
		filter.Limit = limit
	}

	if startTimeStr := c.Query("start_time"); startTimeStr != "" {
		startTime, err := utils.ParseTimestamp(startTimeStr)
		if err != nil {
			badRequest(c, "Invalid start_time format", "Use RFC3339 format (e.g., 2025-01-18T00:00:00Z). Got: "+startTimeStr)
			return
		}
		filter.StartTime = &startTime
	}

	if endTimeStr := c.Query("end_time"); endTimeStr != "" {
		endTime, err := utils.ParseTimestamp(endTimeStr)
		if err != nil {
			badRequest(c, "Invalid end_time format", "Use RFC3339 format (e.g., 2025-01-18T00:00:00Z). Got: "+endTimeStr)
			return
		}
		filter.EndTime = &endTime
	}

	if filter.StartTime != nil && filter.EndTime != nil && filter.StartTime.After(*filter.EndTime) {
		badRequest(c, "Invalid time range", "start_time must be before end_time")
		return
	}

	ctx := c.Request.Context()
	records, err := h.repo.List(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:     "Failed to retrieve audit records",
			Message:   "Internal server error occurred while fetching audit records",
			Timestamp: time.Now(),
		})
		return
	}

	stored, err := h.repo.Count(ctx)
	if err != nil {
		stored = int64(len(records))
	}

	c.JSON(http.StatusOK, dto.ToAuditListResponse(records, stored, filter))
}
