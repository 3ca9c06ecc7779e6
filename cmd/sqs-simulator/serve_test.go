package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/api"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/config"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
)

func startTestServer(t *testing.T) (*config.Config, *http.Server, net.Listener, chan error) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine, err := simulator.NewEngine(simulator.DefaultConfig(), logger)
	require.NoError(t, err)

	router := api.NewRouter(api.Dependencies{
		Simulator:        engine,
		Events:           engine,
		SubscriberBuffer: 16,
		Logger:           logger,
	})

	cfg := config.Default()
	cfg.Server.ShutdownTimeout = 2 * time.Second
	srv := newHTTPServer(cfg, router.Engine())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()
	return cfg, srv, ln, served
}

func TestHTTPServer_ShutdownEndsEventStreams(t *testing.T) {
	cfg, srv, ln, served := startTestServer(t)

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/simulator/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Wait for the snapshot frame so the handler is inside its stream loop
	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "id: "), "unexpected first line %q", line)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	start := time.Now()
	require.NoError(t, srv.Shutdown(ctx))
	assert.Less(t, time.Since(start), cfg.Server.ShutdownTimeout)
	assert.ErrorIs(t, <-served, http.ErrServerClosed)

	// The stream is closed by the server rather than left hanging
	_, err = io.ReadAll(reader)
	assert.NoError(t, err)
}

func TestHTTPServer_ShutdownClosesWebSockets(t *testing.T) {
	cfg, srv, ln, served := startTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/api/v1/simulator/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	require.NoError(t, err, "expected snapshot frame")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.ErrorIs(t, <-served, http.ErrServerClosed)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error %v", err)
}
