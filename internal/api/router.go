package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/api/dto"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/api/handlers"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/api/middleware"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/storage"
)

// Dependencies are the collaborators the router wires into its handlers.
// Audit and Metrics are optional; their routes are only registered when set.
type Dependencies struct {
	Simulator        handlers.Simulator
	Events           handlers.EventSource
	Audit            storage.AuditRepository
	Metrics          http.Handler
	SubscriberBuffer int
	Logger           *slog.Logger
}

// Router manages API routing and handlers
type Router struct {
	engine           *gin.Engine
	logger           *slog.Logger
	deps             Dependencies
	simulatorHandler *handlers.SimulatorHandler
	eventsHandler    *handlers.EventsHandler
	auditHandler     *handlers.AuditHandler
}

// NewRouter creates a new API router with all handlers initialized
func NewRouter(deps Dependencies) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := &Router{
		engine:           gin.New(),
		logger:           logger.With("component", "api"),
		deps:             deps,
		simulatorHandler: handlers.NewSimulatorHandler(deps.Simulator, logger),
	}
	if deps.Events != nil {
		router.eventsHandler = handlers.NewEventsHandler(deps.Events, deps.SubscriberBuffer, logger)
	}
	if deps.Audit != nil {
		router.auditHandler = handlers.NewAuditHandler(deps.Audit)
	}

	router.setupMiddleware()
	router.setupRoutes()

	return router
}

// setupMiddleware configures global middleware
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.LoggingMiddleware(r.logger, "/health", "/metrics"))
	r.engine.Use(middleware.ErrorHandlerMiddleware(r.logger))

	// Recovery middleware (catch panics)
	r.engine.Use(gin.Recovery())
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.StatusResponse{
			Status:    "healthy",
			QueueType: string(r.deps.Simulator.QueueKind()),
			Timestamp: time.Now(),
		})
	})

	if r.deps.Metrics != nil {
		r.engine.GET("/metrics", gin.WrapH(r.deps.Metrics))
	}

	v1 := r.engine.Group("/api/v1")
	{
		sim := v1.Group("/simulator")
		{
			sim.GET("/snapshot", r.simulatorHandler.GetSnapshot)
			sim.GET("/stats", r.simulatorHandler.GetStats)
			sim.GET("/queues", r.simulatorHandler.ListQueues)
			sim.POST("/messages", r.simulatorHandler.SendMessage)
			sim.POST("/messages/batch", r.simulatorHandler.SendBatch)
			sim.POST("/failures", r.simulatorHandler.SimulateFailure)
			sim.POST("/tick", r.simulatorHandler.Tick)
			sim.POST("/clear", r.simulatorHandler.Clear)
			sim.PUT("/queue", r.simulatorHandler.SwitchQueue)

			if r.auditHandler != nil {
				sim.GET("/audit", r.auditHandler.ListAudit)
			}
			if r.eventsHandler != nil {
				sim.GET("/events", r.eventsHandler.StreamEvents)
				sim.GET("/ws", r.eventsHandler.WebSocket)
			}
		}
	}
}

// Engine returns the underlying Gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
