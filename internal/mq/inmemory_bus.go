package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	ErrBusClosed     = errors.New("event bus is closed")
	ErrBusNotStarted = errors.New("event bus is not started")
	ErrBusStopping   = errors.New("event bus is shutting down")
)

// InMemoryBus implements MessageQueue with a buffered channel and a bounded
// pool of handler goroutines. It carries simulator events to in-process
// consumers such as the audit recorder and the metrics collector.
type InMemoryBus struct {
	// subscribers maps topics (or TopicAll) to their handlers
	subscribers   map[string][]MessageHandler
	subscribersMu sync.RWMutex

	// messages is the channel for all published messages. Publishers hold
	// sendMu for reading while they send; Close holds it to close the channel.
	messages chan *Message
	sendMu   sync.RWMutex

	// wg tracks the dispatcher and active handlers
	wg sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	bufferSize int
	running    atomic.Bool
	closed     atomic.Bool

	totalPublished atomic.Int64
	totalDelivered atomic.Int64
	totalErrors    atomic.Int64

	// workerPool limits concurrent handler execution
	workerPool chan struct{}
	maxWorkers int

	logger *slog.Logger
}

// InMemoryBusConfig holds configuration for the bus
type InMemoryBusConfig struct {
	BufferSize int // Size of the message channel buffer
	MaxWorkers int // Maximum concurrent handlers
}

// DefaultInMemoryBusConfig returns default configuration
func DefaultInMemoryBusConfig() InMemoryBusConfig {
	return InMemoryBusConfig{
		BufferSize: 1000,
		MaxWorkers: 16,
	}
}

// NewInMemoryBus creates a new in-memory event bus
func NewInMemoryBus(config InMemoryBusConfig, logger *slog.Logger) *InMemoryBus {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 16
	}

	return &InMemoryBus{
		subscribers: make(map[string][]MessageHandler),
		messages:    make(chan *Message, config.BufferSize),
		bufferSize:  config.BufferSize,
		maxWorkers:  config.MaxWorkers,
		workerPool:  make(chan struct{}, config.MaxWorkers),
		logger:      logger.With("component", "event_bus"),
	}
}

// Start begins dispatching published messages
func (b *InMemoryBus) Start(ctx context.Context) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	if b.running.Swap(true) {
		return fmt.Errorf("event bus is already running")
	}

	b.ctx, b.cancel = context.WithCancel(ctx)

	b.wg.Add(1)
	go b.processMessages()

	b.logger.Info("Event bus started",
		"buffer_size", b.bufferSize,
		"max_workers", b.maxWorkers,
	)

	return nil
}

// Stop drains pending messages and waits for running handlers
func (b *InMemoryBus) Stop() error {
	if !b.running.Load() {
		return nil
	}

	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	b.running.Store(false)

	b.logger.Info("Event bus stopped",
		"total_published", b.totalPublished.Load(),
		"total_delivered", b.totalDelivered.Load(),
		"total_errors", b.totalErrors.Load(),
	)

	return nil
}

// Close stops the bus and releases the channel
func (b *InMemoryBus) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	if err := b.Stop(); err != nil {
		return err
	}

	b.sendMu.Lock()
	close(b.messages)
	b.sendMu.Unlock()
	return nil
}

// Publish enqueues a message for dispatch
func (b *InMemoryBus) Publish(ctx context.Context, msg *Message) error {
	b.sendMu.RLock()
	defer b.sendMu.RUnlock()

	if b.closed.Load() {
		return ErrBusClosed
	}
	if !b.running.Load() {
		return ErrBusNotStarted
	}

	select {
	case b.messages <- msg:
		b.totalPublished.Add(1)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish cancelled: %w", ctx.Err())
	case <-b.ctx.Done():
		return ErrBusStopping
	}
}

// Subscribe registers a handler for a topic; TopicAll receives every message
func (b *InMemoryBus) Subscribe(ctx context.Context, topic string, handler MessageHandler) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	b.subscribersMu.Lock()
	defer b.subscribersMu.Unlock()

	b.subscribers[topic] = append(b.subscribers[topic], handler)

	b.logger.Debug("Handler subscribed to topic",
		"topic", topic,
		"total_handlers", len(b.subscribers[topic]),
	)

	return nil
}

// Unsubscribe removes all handlers for a topic
func (b *InMemoryBus) Unsubscribe(topic string) error {
	b.subscribersMu.Lock()
	defer b.subscribersMu.Unlock()

	delete(b.subscribers, topic)
	return nil
}

// Stats returns current bus statistics
func (b *InMemoryBus) Stats() QueueStats {
	b.subscribersMu.RLock()
	activeSubscribers := len(b.subscribers)
	b.subscribersMu.RUnlock()

	return QueueStats{
		TotalPublished:    b.totalPublished.Load(),
		TotalDelivered:    b.totalDelivered.Load(),
		TotalErrors:       b.totalErrors.Load(),
		ActiveSubscribers: activeSubscribers,
		QueueDepth:        len(b.messages),
	}
}

func (b *InMemoryBus) processMessages() {
	defer b.wg.Done()

	for {
		select {
		case msg, ok := <-b.messages:
			if !ok {
				return
			}
			b.dispatchMessage(msg)

		case <-b.ctx.Done():
			b.drainMessages()
			return
		}
	}
}

func (b *InMemoryBus) handlersFor(topic string) []MessageHandler {
	b.subscribersMu.RLock()
	defer b.subscribersMu.RUnlock()

	handlers := make([]MessageHandler, 0, len(b.subscribers[topic])+len(b.subscribers[TopicAll]))
	handlers = append(handlers, b.subscribers[topic]...)
	if topic != TopicAll {
		handlers = append(handlers, b.subscribers[TopicAll]...)
	}
	return handlers
}

func (b *InMemoryBus) dispatchMessage(msg *Message) {
	handlers := b.handlersFor(msg.Topic)
	if len(handlers) == 0 {
		b.logger.Debug("No subscribers for topic",
			"topic", msg.Topic,
			"message_id", msg.ID,
		)
		return
	}

	for _, handler := range handlers {
		b.wg.Add(1)

		// Acquire worker slot (blocks if pool is full)
		b.workerPool <- struct{}{}

		go b.executeHandler(handler, msg)
	}
}

func (b *InMemoryBus) executeHandler(handler MessageHandler, msg *Message) {
	defer func() {
		b.wg.Done()
		<-b.workerPool

		if r := recover(); r != nil {
			b.totalErrors.Add(1)
			b.logger.Error("Handler panicked",
				"panic", r,
				"topic", msg.Topic,
				"message_id", msg.ID,
			)
		}
	}()

	// Handlers run with a live context even while the bus drains on shutdown.
	if err := handler(context.WithoutCancel(b.ctx), msg); err != nil {
		b.totalErrors.Add(1)
		b.logger.Error("Handler error",
			"error", err,
			"topic", msg.Topic,
			"message_id", msg.ID,
		)
	} else {
		b.totalDelivered.Add(1)
	}
}

func (b *InMemoryBus) drainMessages() {
	for {
		select {
		case msg, ok := <-b.messages:
			if !ok {
				return
			}
			b.dispatchMessage(msg)
		default:
			return
		}
	}
}
