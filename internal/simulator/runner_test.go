package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFastEngine(t *testing.T, kind QueueKind, failure float64) *Engine {
	t.Helper()

	engine, err := NewEngine(Config{
		InitialQueue:       kind,
		MaxReceiveCount:    3,
		FailureProbability: failure,
		ProcessingDuration: 20 * time.Millisecond,
		TickInterval:       10 * time.Millisecond,
		MaxInFlight:        1,
		Random:             NewSeededRandom(1),
	}, testLogger())
	require.NoError(t, err)
	return engine
}

func TestRunner_ProcessesQueue(t *testing.T) {
	engine := newFastEngine(t, QueueFIFO, 0)
	runner := NewRunner(engine, testLogger())

	_, err := engine.EnqueueBatch(BatchRequest{BaseContent: "job", Count: 3, MessageGroup: "g"})
	require.NoError(t, err)

	require.NoError(t, runner.Start(context.Background()))
	defer runner.Stop()

	require.Eventually(t, func() bool {
		return engine.Stats().Processed == 3
	}, 2*time.Second, 5*time.Millisecond)

	snap := engine.Snapshot()
	assert.Empty(t, snap.Ready)
	assert.Empty(t, snap.InFlight)
	assert.Empty(t, snap.DeadLetter)
}

func TestRunner_AlwaysFailingMessagesEndInDeadLetter(t *testing.T) {
	engine := newFastEngine(t, QueueStandard, 1)
	runner := NewRunner(engine, testLogger())

	_, err := engine.Enqueue(EnqueueRequest{Content: "poison"})
	require.NoError(t, err)

	require.NoError(t, runner.Start(context.Background()))
	defer runner.Stop()

	require.Eventually(t, func() bool {
		return len(engine.Snapshot().DeadLetter) == 1
	}, 2*time.Second, 5*time.Millisecond)

	dead := engine.Snapshot().DeadLetter[0]
	assert.Equal(t, 3, dead.ReceiveCount)
	assert.Equal(t, int64(1), engine.Stats().Failed)
}

func TestRunner_StartStop(t *testing.T) {
	engine := newFastEngine(t, QueueStandard, 0)
	runner := NewRunner(engine, testLogger())

	require.NoError(t, runner.Start(context.Background()))
	assert.True(t, runner.Running())
	assert.Error(t, runner.Start(context.Background()), "second start must fail")

	runner.Stop()
	assert.False(t, runner.Running())
	runner.Stop()

	// Nothing is dispatched once stopped.
	_, err := engine.Enqueue(EnqueueRequest{Content: "late"})
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, engine.Snapshot().Ready, 1)
}

func TestRunner_ContextCancellationStopsDispatch(t *testing.T) {
	engine := newFastEngine(t, QueueStandard, 0)
	runner := NewRunner(engine, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, runner.Start(ctx))
	cancel()
	defer runner.Stop()

	time.Sleep(30 * time.Millisecond)
	_, err := engine.Enqueue(EnqueueRequest{Content: "after-cancel"})
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, engine.Snapshot().Ready, 1)
}
