package mq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
)

// recordingPublisher is a Publisher test double with function fields
type recordingPublisher struct {
	mu        sync.Mutex
	messages  []*Message
	closed    int
	PublishFn func(ctx context.Context, msg *Message) error
	CloseFn   func() error
}

func (p *recordingPublisher) Publish(ctx context.Context, msg *Message) error {
	if p.PublishFn != nil {
		if err := p.PublishFn(ctx, msg); err != nil {
			return err
		}
	}
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	p.closed++
	p.mu.Unlock()
	if p.CloseFn != nil {
		return p.CloseFn()
	}
	return nil
}

func (p *recordingPublisher) published() []*Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Message(nil), p.messages...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBridgeEngine(t *testing.T) *simulator.Engine {
	t.Helper()

	cfg := simulator.DefaultConfig()
	cfg.InitialQueue = simulator.QueueFIFO
	cfg.FailureProbability = 0
	cfg.Random = simulator.NewSeededRandom(1)

	engine, err := simulator.NewEngine(cfg, quietLogger())
	require.NoError(t, err)
	return engine
}

func TestNewEventMessage(t *testing.T) {
	engine := newBridgeEngine(t)
	sub := engine.Subscribe(4)
	defer engine.Unsubscribe(sub.ID)

	_, err := engine.Enqueue(simulator.EnqueueRequest{Content: "Order #1", MessageGroup: "orders"})
	require.NoError(t, err)

	ev := <-sub.C
	msg, err := NewEventMessage(ev)
	require.NoError(t, err)

	assert.Equal(t, "sqs.simulator.message.enqueued", msg.Topic)
	assert.Equal(t, ev.At, msg.Timestamp)

	engineID, _ := msg.GetHeader(HeaderEngineID)
	assert.Equal(t, engine.ID(), engineID)
	kind, _ := msg.GetHeader(HeaderQueueKind)
	assert.Equal(t, "fifo", kind)
	seq, _ := msg.GetHeader(HeaderSeq)
	assert.Equal(t, "1", seq)

	decoded, err := DecodeEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, ev.Type, decoded.Type)
	require.NotNil(t, decoded.Message)
	assert.Equal(t, "Order #1", decoded.Message.Content)
	assert.Equal(t, "orders", decoded.Message.MessageGroup)
	assert.Len(t, decoded.Snapshot.Ready, 1)
}

func TestDecodeEvent_Malformed(t *testing.T) {
	_, err := DecodeEvent(&Message{ID: "x", Payload: []byte("{not json")})
	assert.Error(t, err)
}

func TestBridge_ForwardsEventsInOrder(t *testing.T) {
	engine := newBridgeEngine(t)
	pub := &recordingPublisher{}

	bridge := NewBridge(engine, pub, 16, quietLogger())
	require.NoError(t, bridge.Start(context.Background()))
	assert.Error(t, bridge.Start(context.Background()), "second start must fail")

	_, err := engine.Enqueue(simulator.EnqueueRequest{Content: "a", MessageGroup: "g"})
	require.NoError(t, err)
	engine.Tick(time.Now())
	engine.Clear()

	assert.Eventually(t, func() bool { return bridge.Forwarded() == 3 }, 2*time.Second, 10*time.Millisecond)
	bridge.Stop()
	bridge.Stop()

	msgs := pub.published()
	require.Len(t, msgs, 3)
	assert.Equal(t, TopicFor(simulator.EventMessageEnqueued), msgs[0].Topic)
	assert.Equal(t, TopicFor(simulator.EventProcessingStarted), msgs[1].Topic)
	assert.Equal(t, TopicFor(simulator.EventQueueCleared), msgs[2].Topic)

	// After Stop the engine no longer feeds the publisher.
	_, err = engine.Enqueue(simulator.EnqueueRequest{Content: "b", MessageGroup: "g"})
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, pub.published(), 3)
}

func TestBridge_PublishErrorsDoNotStopForwarding(t *testing.T) {
	engine := newBridgeEngine(t)

	var calls int
	var mu sync.Mutex
	pub := &recordingPublisher{
		PublishFn: func(ctx context.Context, msg *Message) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 1 {
				return errors.New("broker unavailable")
			}
			return nil
		},
	}

	bridge := NewBridge(engine, pub, 16, quietLogger())
	require.NoError(t, bridge.Start(context.Background()))
	defer bridge.Stop()

	_, err := engine.Enqueue(simulator.EnqueueRequest{Content: "a", MessageGroup: "g"})
	require.NoError(t, err)
	_, err = engine.Enqueue(simulator.EnqueueRequest{Content: "b", MessageGroup: "g"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return bridge.Forwarded() == 1 }, 2*time.Second, 10*time.Millisecond)
	msgs := pub.published()
	require.Len(t, msgs, 1)

	ev, err := DecodeEvent(msgs[0])
	require.NoError(t, err)
	assert.Equal(t, "b", ev.Message.Content)
}

func TestBridge_IntoInMemoryBus(t *testing.T) {
	engine := newBridgeEngine(t)
	bus := startBus(t, DefaultInMemoryBusConfig())

	received := make(chan simulator.Event, 8)
	require.NoError(t, bus.Subscribe(context.Background(), TopicFor(simulator.EventMessageEnqueued),
		func(ctx context.Context, msg *Message) error {
			ev, err := DecodeEvent(msg)
			if err != nil {
				return err
			}
			received <- ev
			return nil
		}))

	bridge := NewBridge(engine, bus, 16, quietLogger())
	require.NoError(t, bridge.Start(context.Background()))
	defer bridge.Stop()

	_, err := engine.Enqueue(simulator.EnqueueRequest{Content: "Order #9", MessageGroup: "g"})
	require.NoError(t, err)

	select {
	case ev := <-received:
		assert.Equal(t, "Order #9", ev.Message.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for bridged event")
	}
}

func TestFanoutPublisher(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{
		PublishFn: func(ctx context.Context, msg *Message) error { return errors.New("down") },
		CloseFn:   func() error { return errors.New("close failed") },
	}
	fanout := FanoutPublisher{ok, failing}

	msg, err := NewMessage("t", nil)
	require.NoError(t, err)

	err = fanout.Publish(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
	assert.Len(t, ok.published(), 1, "a failing publisher must not block the others")

	err = fanout.Close()
	require.Error(t, err)
	assert.Equal(t, 1, ok.closed)
	assert.Equal(t, 1, failing.closed)

	assert.NoError(t, FanoutPublisher{}.Publish(context.Background(), msg))
}

func TestNewRedisPublisher_Errors(t *testing.T) {
	_, err := NewRedisPublisher(RedisPublisherConfig{RedisURL: "://bad"}, quietLogger())
	assert.Error(t, err)

	_, err = NewRedisPublisher(RedisPublisherConfig{RedisURL: "redis://127.0.0.1:1/0"}, quietLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRedisConnection)
}

func TestRedisPublisher_Publish(t *testing.T) {
	pub, err := NewRedisPublisher(RedisPublisherConfig{
		RedisURL:    "redis://localhost:6379/15",
		HistoryKey:  "sqs.simulator.test.history",
		HistorySize: 2,
	}, quietLogger())
	if err != nil {
		t.Skip("Redis not available:", err)
	}
	defer pub.Close()

	ctx := context.Background()
	for _, topic := range []string{"a", "b", "c"} {
		msg, err := NewMessage(topic, nil)
		require.NoError(t, err)
		require.NoError(t, pub.Publish(ctx, msg))
	}

	history, err := pub.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "c", history[0].Topic)
	assert.Equal(t, int64(3), pub.Stats().TotalPublished)

	require.NoError(t, pub.Close())
	msg, _ := NewMessage("d", nil)
	assert.ErrorIs(t, pub.Publish(ctx, msg), ErrRedisPublisherClosed)
}

func TestNewNATSPublisher_ConnectionRefused(t *testing.T) {
	_, err := NewNATSPublisher(NATSPublisherConfig{
		URL:     "nats://127.0.0.1:1",
		Timeout: 200 * time.Millisecond,
	}, quietLogger())
	assert.Error(t, err)
}

func TestNATSPublisher_Publish(t *testing.T) {
	pub, err := NewNATSPublisher(NATSPublisherConfig{
		URL:           "nats://localhost:4222",
		SubjectPrefix: "test.",
		Timeout:       500 * time.Millisecond,
	}, quietLogger())
	if err != nil {
		t.Skip("NATS not available:", err)
	}

	msg, err := NewMessage(TopicFor(simulator.EventMessageEnqueued), map[string]string{"a": "b"})
	require.NoError(t, err)
	msg.WithHeader(HeaderSeq, "1")

	require.NoError(t, pub.Publish(context.Background(), msg))
	assert.Equal(t, int64(1), pub.Stats().TotalPublished)

	require.NoError(t, pub.Close())
	assert.ErrorIs(t, pub.Publish(context.Background(), msg), ErrNATSPublisherClosed)
}
