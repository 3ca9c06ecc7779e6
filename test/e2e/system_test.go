package e2e

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/api"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/api/dto"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/client"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/metrics"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/mq"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/storage"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/storage/inmemory"
)

// Test configuration
const (
	MaxWaitDuration = 10 * time.Second
	PollInterval    = 20 * time.Millisecond
)

// stack is the serve wiring with millisecond timings
type stack struct {
	engine *simulator.Engine
	client *client.Client
	url    string
}

func startStack(t *testing.T, kind simulator.QueueKind, failureProbability float64) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())

	engine, err := simulator.NewEngine(simulator.Config{
		InitialQueue:       kind,
		MaxReceiveCount:    3,
		FailureProbability: failureProbability,
		ProcessingDuration: 30 * time.Millisecond,
		TickInterval:       10 * time.Millisecond,
		MaxInFlight:        2,
		Random:             simulator.NewSeededRandom(99),
	}, logger)
	require.NoError(t, err)

	bus := mq.NewInMemoryBus(mq.DefaultInMemoryBusConfig(), logger)
	require.NoError(t, bus.Start(ctx))

	repo := inmemory.NewAuditRepository()
	require.NoError(t, storage.NewRecorder(repo, logger).Register(ctx, bus))

	m, err := metrics.New(engine, logger)
	require.NoError(t, err)
	require.NoError(t, m.Register(ctx, bus))

	bridge := mq.NewBridge(engine, mq.FanoutPublisher{bus}, 1024, logger)
	require.NoError(t, bridge.Start(ctx))

	runner := simulator.NewRunner(engine, logger)
	require.NoError(t, runner.Start(ctx))

	router := api.NewRouter(api.Dependencies{
		Simulator:        engine,
		Events:           engine,
		Audit:            repo,
		Metrics:          m.Handler(),
		SubscriberBuffer: 64,
		Logger:           logger,
	})
	srv := httptest.NewServer(router.Engine())

	t.Cleanup(func() {
		srv.Close()
		runner.Stop()
		bridge.Stop()
		_ = bus.Close()
		cancel()
	})

	return &stack{
		engine: engine,
		client: client.New(client.Config{BaseURL: srv.URL}, logger),
		url:    srv.URL,
	}
}

// waitFor polls cond until it holds or MaxWaitDuration elapses
func waitFor(t *testing.T, what string, cond func() (bool, error)) {
	t.Helper()
	deadline := time.Now().Add(MaxWaitDuration)
	for time.Now().Before(deadline) {
		ok, err := cond()
		require.NoError(t, err)
		if ok {
			return
		}
		time.Sleep(PollInterval)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSystem_StandardQueueDrains(t *testing.T) {
	s := startStack(t, simulator.QueueStandard, 0)
	ctx := context.Background()

	health, err := s.client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)

	count := 5
	batch, err := s.client.Batch(ctx, dto.BatchRequest{BaseContent: "Order", Count: &count})
	require.NoError(t, err)
	require.Len(t, batch.MessageIDs, 5)

	waitFor(t, "all messages processed", func() (bool, error) {
		stats, err := s.client.Stats(ctx)
		return stats.Processed == 5, err
	})

	snap, err := s.client.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Ready)
	assert.Empty(t, snap.InFlight)
	assert.Empty(t, snap.DeadLetter)

	waitFor(t, "audit records", func() (bool, error) {
		list, err := s.client.Audit(ctx, client.AuditQuery{Outcome: "processed"})
		return list.Total == 5, err
	})
}

func TestSystem_FIFOOrderAndDeduplication(t *testing.T) {
	s := startStack(t, simulator.QueueFIFO, 0)
	ctx := context.Background()

	sub := s.engine.Subscribe(256)
	defer s.engine.Unsubscribe(sub.ID)

	var order []string
	for i := 1; i <= 3; i++ {
		sent, err := s.client.Send(ctx, dto.SendMessageRequest{
			Content:      fmt.Sprintf("Order #%d", i),
			MessageGroup: "orders",
		})
		require.NoError(t, err)
		order = append(order, sent.MessageID)
	}

	_, err := s.client.Send(ctx, dto.SendMessageRequest{Content: "Order #3", MessageGroup: "orders"})
	assert.True(t, client.IsStatus(err, http.StatusConflict), "duplicate of a pending message")

	_, err = s.client.Send(ctx, dto.SendMessageRequest{Content: "Order #1"})
	assert.True(t, client.IsStatus(err, http.StatusBadRequest), "FIFO requires a message group")

	var processed []string
	timeout := time.After(MaxWaitDuration)
	for len(processed) < 3 {
		select {
		case ev := <-sub.C:
			if ev.Type == simulator.EventMessageProcessed {
				processed = append(processed, string(ev.Message.ID))
			}
		case <-timeout:
			t.Fatalf("only %d of 3 messages processed", len(processed))
		}
	}
	assert.Equal(t, order, processed)

	waitFor(t, "audit records", func() (bool, error) {
		list, err := s.client.Audit(ctx, client.AuditQuery{Outcome: "processed", QueueType: "fifo"})
		return list.Total == 3, err
	})
}

func TestSystem_DeadLetterAfterMaxReceives(t *testing.T) {
	s := startStack(t, simulator.QueueDeadLetter, 1)
	ctx := context.Background()

	sent, err := s.client.Send(ctx, dto.SendMessageRequest{Content: "Poison pill"})
	require.NoError(t, err)

	waitFor(t, "message dead-lettered", func() (bool, error) {
		snap, err := s.client.Snapshot(ctx)
		return len(snap.DeadLetter) == 1, err
	})

	snap, err := s.client.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, sent.MessageID, snap.DeadLetter[0].ID)
	assert.Equal(t, 3, snap.DeadLetter[0].ReceiveCount)
	assert.Equal(t, snap.DeadLetter, snap.Visible)
	assert.Equal(t, int64(1), snap.Stats.Failed)

	waitFor(t, "dead-letter audit record", func() (bool, error) {
		list, err := s.client.Audit(ctx, client.AuditQuery{Outcome: "dead_lettered"})
		return list.Total == 1, err
	})

	waitFor(t, "dead-letter metrics", func() (bool, error) {
		resp, err := http.Get(s.url + "/metrics")
		if err != nil {
			return false, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return false, err
		}
		return strings.Contains(string(body), "sqs_simulator_messages_dead_lettered 1") &&
			strings.Contains(string(body), `sqs_simulator_events_total{type="message.dead_lettered"} 1`), nil
	})
}

func TestSystem_LiveDeployment(t *testing.T) {
	baseURL := os.Getenv("SIMULATOR_E2E_URL")
	if baseURL == "" {
		t.Skip("SIMULATOR_E2E_URL not set")
	}

	c := client.New(client.Config{BaseURL: baseURL}, nil)
	ctx := context.Background()

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)

	queues, err := c.Queues(ctx)
	require.NoError(t, err)
	assert.Len(t, queues.Queues, 3)
}
