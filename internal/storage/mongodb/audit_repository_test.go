package mongodb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/storage"
)

func TestNewAuditRepository_InvalidURI(t *testing.T) {
	_, err := NewAuditRepository("invalid://uri", "test", "audit")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to MongoDB")
}

func TestBuildFilter(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	tests := []struct {
		name   string
		filter storage.AuditFilter
		want   bson.M
	}{
		{"empty", storage.AuditFilter{}, bson.M{}},
		{
			"engine and outcome",
			storage.AuditFilter{EngineID: "e-1", Outcome: storage.OutcomeDeadLettered},
			bson.M{"engine_id": "e-1", "outcome": storage.OutcomeDeadLettered},
		},
		{
			"start only",
			storage.AuditFilter{StartTime: &start},
			bson.M{"recorded_at": bson.M{"$gte": start}},
		},
		{
			"range and kind",
			storage.AuditFilter{QueueKind: simulator.QueueFIFO, StartTime: &start, EndTime: &end},
			bson.M{"queue_kind": simulator.QueueFIFO, "recorded_at": bson.M{"$gte": start, "$lte": end}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildFilter(tt.filter))
		})
	}
}

func TestAuditRepository_Integration(t *testing.T) {
	repo, err := NewAuditRepository("mongodb://localhost:27017", "sqs_simulator_test", "audit")
	if err != nil {
		t.Skip("MongoDB not available:", err)
	}
	ctx := context.Background()
	defer repo.Close(ctx)
	defer repo.coll().Drop(ctx)

	engineID := fmt.Sprintf("engine-%d", time.Now().UnixNano())
	now := time.Now().UTC().Truncate(time.Millisecond)
	for i := 1; i <= 3; i++ {
		rec := storage.AuditRecord{
			ID:         fmt.Sprintf("%s:%d", engineID, i),
			EngineID:   engineID,
			MessageID:  simulator.MessageID(fmt.Sprintf("msg-%d-0", i)),
			Content:    fmt.Sprintf("Order #%d", i),
			QueueKind:  simulator.QueueStandard,
			Outcome:    storage.OutcomeProcessed,
			RecordedAt: now.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Store(ctx, rec))
		require.NoError(t, repo.Store(ctx, rec))
	}

	results, err := repo.List(ctx, storage.AuditFilter{EngineID: engineID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Order #3", results[0].Content)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, int64(3))
}
