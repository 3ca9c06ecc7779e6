package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/storage"
)

// MockSimulator implements Simulator for testing
type MockSimulator struct {
	EnqueueFunc         func(req simulator.EnqueueRequest) (simulator.MessageID, error)
	EnqueueBatchFunc    func(req simulator.BatchRequest) ([]simulator.MessageID, error)
	TickFunc            func(now time.Time) simulator.TickResult
	SimulateFailureFunc func() (simulator.Message, error)
	ClearFunc           func()
	SwitchQueueFunc     func(kind simulator.QueueKind) error
	SnapshotFunc        func() simulator.Snapshot
	StatsFunc           func() simulator.Stats
	Kind                simulator.QueueKind
}

func (m *MockSimulator) Enqueue(req simulator.EnqueueRequest) (simulator.MessageID, error) {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(req)
	}
	return "msg-1-0", nil
}

func (m *MockSimulator) EnqueueBatch(req simulator.BatchRequest) ([]simulator.MessageID, error) {
	if m.EnqueueBatchFunc != nil {
		return m.EnqueueBatchFunc(req)
	}
	return nil, nil
}

func (m *MockSimulator) Tick(now time.Time) simulator.TickResult {
	if m.TickFunc != nil {
		return m.TickFunc(now)
	}
	return simulator.TickResult{}
}

func (m *MockSimulator) SimulateFailure() (simulator.Message, error) {
	if m.SimulateFailureFunc != nil {
		return m.SimulateFailureFunc()
	}
	return simulator.Message{}, simulator.ErrNothingInFlight
}

func (m *MockSimulator) Clear() {
	if m.ClearFunc != nil {
		m.ClearFunc()
	}
}

func (m *MockSimulator) SwitchQueue(kind simulator.QueueKind) error {
	if m.SwitchQueueFunc != nil {
		return m.SwitchQueueFunc(kind)
	}
	m.Kind = kind
	return nil
}

func (m *MockSimulator) Snapshot() simulator.Snapshot {
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc()
	}
	return simulator.Snapshot{QueueKind: m.QueueKind(), Descriptor: simulator.Describe(m.QueueKind())}
}

func (m *MockSimulator) Stats() simulator.Stats {
	if m.StatsFunc != nil {
		return m.StatsFunc()
	}
	return simulator.Stats{}
}

func (m *MockSimulator) QueueKind() simulator.QueueKind {
	if m.Kind == "" {
		return simulator.QueueStandard
	}
	return m.Kind
}

// MockAuditRepository implements storage.AuditRepository for testing
type MockAuditRepository struct {
	StoreFunc func(ctx context.Context, record storage.AuditRecord) error
	ListFunc  func(ctx context.Context, filter storage.AuditFilter) ([]storage.AuditRecord, error)
	CountFunc func(ctx context.Context) (int64, error)
	Closed    bool
}

func (m *MockAuditRepository) Store(ctx context.Context, record storage.AuditRecord) error {
	if m.StoreFunc != nil {
		return m.StoreFunc(ctx, record)
	}
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter storage.AuditFilter) ([]storage.AuditRecord, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockAuditRepository) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *MockAuditRepository) Close(ctx context.Context) error {
	m.Closed = true
	return nil
}

func setupGinTest() (*gin.Engine, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	w := httptest.NewRecorder()
	return router, w
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedTime = time.Date(2025, 1, 18, 12, 0, 0, 0, time.UTC)
