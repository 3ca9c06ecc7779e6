package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/api/dto"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
)

// Simulator is the engine surface the HTTP adapter drives
type Simulator interface {
	Enqueue(req simulator.EnqueueRequest) (simulator.MessageID, error)
	EnqueueBatch(req simulator.BatchRequest) ([]simulator.MessageID, error)
	Tick(now time.Time) simulator.TickResult
	SimulateFailure() (simulator.Message, error)
	Clear()
	SwitchQueue(kind simulator.QueueKind) error
	Snapshot() simulator.Snapshot
	Stats() simulator.Stats
	QueueKind() simulator.QueueKind
}

// SimulatorHandler handles simulator commands and queries
type SimulatorHandler struct {
	sim    Simulator
	logger *slog.Logger
	now    func() time.Time
}

// NewSimulatorHandler creates a new simulator handler
func NewSimulatorHandler(sim Simulator, logger *slog.Logger) *SimulatorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulatorHandler{
		sim:    sim,
		logger: logger.With("component", "simulator_handler"),
		now:    time.Now,
	}
}

// parseOptionalKind returns "" for an empty string, meaning the active queue
func parseOptionalKind(s string) (simulator.QueueKind, error) {
	if s == "" {
		return "", nil
	}
	return simulator.ParseQueueKind(s)
}

// GetSnapshot godoc
// @Summary Get simulator snapshot
// @Description Full state of the active queue: ready, in-flight and dead-letter messages plus counters
// @Tags simulator
// @Produce json
// @Success 200 {object} dto.SnapshotResponse
// @Router /api/v1/simulator/snapshot [get]
func (h *SimulatorHandler) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToSnapshotResponse(h.sim.Snapshot()))
}

// GetStats godoc
// @Summary Get counters
// @Tags simulator
// @Produce json
// @Success 200 {object} dto.StatsResponse
// @Router /api/v1/simulator/stats [get]
func (h *SimulatorHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToStatsResponse(h.sim.Stats()))
}

// ListQueues godoc
// @Summary List queue kinds
// @Description Title and properties of every queue kind, with the active one
// @Tags simulator
// @Produce json
// @Success 200 {object} dto.QueueListResponse
// @Router /api/v1/simulator/queues [get]
func (h *SimulatorHandler) ListQueues(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToQueueListResponse(h.sim.QueueKind()))
}

// SendMessage godoc
// @Summary Send a message
// @Description Send one message to the active queue. FIFO queues require message_group and reject duplicates.
// @Tags simulator
// @Accept json
// @Produce json
// @Param request body dto.SendMessageRequest true "Message"
// @Success 201 {object} dto.SendMessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/simulator/messages [post]
func (h *SimulatorHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	kind, err := parseOptionalKind(req.QueueType)
	if err != nil {
		respondError(c, err)
		return
	}

	id, err := h.sim.Enqueue(simulator.EnqueueRequest{
		Content:      req.Content,
		Kind:         kind,
		MessageGroup: req.MessageGroup,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SendMessageResponse{
		MessageID: string(id),
		QueueType: string(h.sim.QueueKind()),
		Timestamp: h.now(),
	})
}

// SendBatch godoc
// @Summary Send a batch of messages
// @Description Send count messages "<base_content> 1".."<base_content> <count>". All or nothing.
// @Tags simulator
// @Accept json
// @Produce json
// @Param request body dto.BatchRequest false "Batch"
// @Success 201 {object} dto.BatchResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/simulator/messages/batch [post]
func (h *SimulatorHandler) SendBatch(c *gin.Context) {
	var req dto.BatchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body", err.Error())
			return
		}
	}
	req = req.WithDefaults()

	kind, err := parseOptionalKind(req.QueueType)
	if err != nil {
		respondError(c, err)
		return
	}

	ids, err := h.sim.EnqueueBatch(simulator.BatchRequest{
		BaseContent:  req.BaseContent,
		Count:        *req.Count,
		Kind:         kind,
		MessageGroup: req.MessageGroup,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}

	c.JSON(http.StatusCreated, dto.BatchResponse{
		MessageIDs: out,
		Count:      len(out),
		QueueType:  string(h.sim.QueueKind()),
		Timestamp:  h.now(),
	})
}

// SimulateFailure godoc
// @Summary Force a processing failure
// @Description Fail the oldest in-flight message now; it is retried or dead-lettered
// @Tags simulator
// @Produce json
// @Success 200 {object} dto.FailureResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/simulator/failures [post]
func (h *SimulatorHandler) SimulateFailure(c *gin.Context) {
	msg, err := h.sim.SimulateFailure()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FailureResponse{
		Message: dto.ToMessageResponse(msg),
		Outcome: string(msg.Status),
	})
}

// Tick godoc
// @Summary Fire the dispatcher once
// @Description Complete every due in-flight message, then start processing at most one ready message
// @Tags simulator
// @Produce json
// @Success 200 {object} dto.TickResponse
// @Router /api/v1/simulator/tick [post]
func (h *SimulatorHandler) Tick(c *gin.Context) {
	res := h.sim.Tick(h.now())
	c.JSON(http.StatusOK, dto.ToTickResponse(res, h.sim.Stats()))
}

// Clear godoc
// @Summary Clear the active queue
// @Description Remove every message, dead letter and counter
// @Tags simulator
// @Produce json
// @Success 200 {object} dto.StatusResponse
// @Router /api/v1/simulator/clear [post]
func (h *SimulatorHandler) Clear(c *gin.Context) {
	h.sim.Clear()
	h.logger.Info("Queue cleared via API", "client_ip", c.ClientIP())

	c.JSON(http.StatusOK, dto.StatusResponse{
		Status:    "cleared",
		QueueType: string(h.sim.QueueKind()),
		Timestamp: h.now(),
	})
}

// SwitchQueue godoc
// @Summary Switch the active queue kind
// @Description Switching discards all messages, dead letters and counters
// @Tags simulator
// @Accept json
// @Produce json
// @Param request body dto.SwitchQueueRequest true "Queue kind"
// @Success 200 {object} dto.SnapshotResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/simulator/queue [put]
func (h *SimulatorHandler) SwitchQueue(c *gin.Context) {
	var req dto.SwitchQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err.Error())
		return
	}

	kind, err := simulator.ParseQueueKind(req.QueueType)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.sim.SwitchQueue(kind); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSnapshotResponse(h.sim.Snapshot()))
}
