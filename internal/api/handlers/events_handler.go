package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/api/dto"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
)

const (
	keepaliveInterval = 30 * time.Second
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10

	// snapshotEventType names the first frame of every stream
	snapshotEventType = "snapshot"
)

// EventSource hands out engine event subscriptions
type EventSource interface {
	Subscribe(buffer int) *simulator.Subscription
	Unsubscribe(id string) bool
	Snapshot() simulator.Snapshot
}

// EventsHandler streams engine events over Server-Sent Events and WebSocket
type EventsHandler struct {
	source   EventSource
	buffer   int
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewEventsHandler creates a new events handler; buffer sizes each client's subscription
func NewEventsHandler(source EventSource, buffer int, logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{
		source: source,
		buffer: buffer,
		upgrader: websocket.Upgrader{
			// The simulator UI may be served from anywhere
			CheckOrigin:     func(_ *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With("component", "events_handler"),
	}
}

func snapshotFrame(snap simulator.Snapshot) dto.EventResponse {
	return dto.EventResponse{
		Type:      snapshotEventType,
		Log:       "Connected to " + snap.Descriptor.Title,
		QueueType: string(snap.QueueKind),
		At:        snap.TakenAt,
		Snapshot:  dto.ToSnapshotResponse(snap),
	}
}

// StreamEvents godoc
// @Summary Stream simulator events (SSE)
// @Description Server-Sent Events: a snapshot frame, then one event per state change
// @Tags events
// @Produce text/event-stream
// @Success 200 {object} dto.EventResponse
// @Router /api/v1/simulator/events [get]
func (h *EventsHandler) StreamEvents(c *gin.Context) {
	w := c.Writer
	flusher, ok := w.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	// The server's write timeout would otherwise cut long-lived streams.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("Cannot clear write deadline", "error", err)
	}

	sub := h.source.Subscribe(h.buffer)
	defer h.source.Unsubscribe(sub.ID)

	// Setup SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if err := writeSSE(w, snapshotEventType, 0, snapshotFrame(h.source.Snapshot())); err != nil {
		return
	}
	flusher.Flush()

	h.logger.Info("Event stream connected",
		"subscription_id", sub.ID,
		"client_ip", c.ClientIP(),
	)

	clientGone := c.Request.Context().Done()
	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if err := writeSSE(w, string(ev.Type), ev.Seq, dto.ToEventResponse(ev)); err != nil {
				h.logger.Warn("Failed to write event", "seq", ev.Seq, "error", err)
				return
			}
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()

		case <-clientGone:
			h.logger.Info("Event stream disconnected",
				"subscription_id", sub.ID,
				"dropped", sub.Dropped(),
			)
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, id uint64, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", id, event, data)
	return err
}

// WebSocket godoc
// @Summary Stream simulator events (WebSocket)
// @Description Same frames as the SSE stream, one JSON text message per event
// @Tags events
// @Router /api/v1/simulator/ws [get]
func (h *EventsHandler) WebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		h.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := h.source.Subscribe(h.buffer)
	defer h.source.Unsubscribe(sub.ID)

	h.logger.Info("WebSocket client connected",
		"subscription_id", sub.ID,
		"client_ip", c.ClientIP(),
	)

	// Reader: only control frames are expected; any read error ends the session.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(1024)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeWS(conn, snapshotFrame(h.source.Snapshot())); err != nil {
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	serverDone := c.Request.Context().Done()
	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return
			}
			if err := writeWS(conn, dto.ToEventResponse(ev)); err != nil {
				h.logger.Warn("Failed to write event", "seq", ev.Seq, "error", err)
				return
			}

		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case <-serverDone:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return

		case <-closed:
			h.logger.Info("WebSocket client disconnected",
				"subscription_id", sub.ID,
				"dropped", sub.Dropped(),
			)
			return
		}
	}
}

func writeWS(conn *websocket.Conn, payload any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(payload)
}
