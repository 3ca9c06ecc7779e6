package mq

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
)

// Header keys set on every event envelope
const (
	HeaderEngineID  = "engine_id"
	HeaderEventType = "event_type"
	HeaderQueueKind = "queue_kind"
	HeaderSeq       = "seq"
)

// NewEventMessage wraps an engine event in a bus envelope
func NewEventMessage(ev simulator.Event) (*Message, error) {
	msg, err := NewMessage(TopicFor(ev.Type), ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event %d: %w", ev.Seq, err)
	}

	msg.Timestamp = ev.At
	msg.WithHeader(HeaderEngineID, ev.EngineID).
		WithHeader(HeaderEventType, string(ev.Type)).
		WithHeader(HeaderQueueKind, string(ev.QueueKind)).
		WithHeader(HeaderSeq, strconv.FormatUint(ev.Seq, 10))

	return msg, nil
}

// DecodeEvent extracts the engine event from an envelope
func DecodeEvent(msg *Message) (simulator.Event, error) {
	var ev simulator.Event
	if err := msg.Unmarshal(&ev); err != nil {
		return simulator.Event{}, fmt.Errorf("failed to decode event from %s: %w", msg.ID, err)
	}
	return ev, nil
}

// Bridge forwards every engine event to a Publisher
type Bridge struct {
	engine    *simulator.Engine
	publisher Publisher
	logger    *slog.Logger
	buffer    int

	mu  sync.Mutex
	sub *simulator.Subscription
	wg  sync.WaitGroup

	forwarded atomic.Int64
	failed    atomic.Int64
}

// NewBridge creates a bridge; buffer is the engine subscription buffer
func NewBridge(engine *simulator.Engine, publisher Publisher, buffer int, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		engine:    engine,
		publisher: publisher,
		buffer:    buffer,
		logger:    logger.With("component", "event_bridge"),
	}
}

// Start subscribes to the engine and forwards events until Stop
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sub != nil {
		return fmt.Errorf("event bridge is already running")
	}

	b.sub = b.engine.Subscribe(b.buffer)

	b.wg.Add(1)
	go b.forward(ctx, b.sub)

	b.logger.Info("Event bridge started", "subscription_id", b.sub.ID)
	return nil
}

// Stop unsubscribes and waits for the forwarder to exit
func (b *Bridge) Stop() {
	b.mu.Lock()
	sub := b.sub
	b.sub = nil
	b.mu.Unlock()

	if sub == nil {
		return
	}

	b.engine.Unsubscribe(sub.ID)
	b.wg.Wait()

	b.logger.Info("Event bridge stopped",
		"forwarded", b.forwarded.Load(),
		"failed", b.failed.Load(),
		"dropped", sub.Dropped(),
	)
}

// Forwarded returns how many events were published successfully
func (b *Bridge) Forwarded() int64 {
	return b.forwarded.Load()
}

func (b *Bridge) forward(ctx context.Context, sub *simulator.Subscription) {
	defer b.wg.Done()

	for ev := range sub.C {
		msg, err := NewEventMessage(ev)
		if err != nil {
			b.failed.Add(1)
			b.logger.Error("Failed to encode event", "seq", ev.Seq, "error", err)
			continue
		}

		if err := b.publisher.Publish(ctx, msg); err != nil {
			b.failed.Add(1)
			b.logger.Error("Failed to publish event",
				"seq", ev.Seq,
				"topic", msg.Topic,
				"error", err,
			)
			continue
		}
		b.forwarded.Add(1)
	}
}
