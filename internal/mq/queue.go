package mq

import (
	"context"
	"strings"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
)

// TopicPrefix is prepended to every simulator event type
const TopicPrefix = "sqs.simulator."

// TopicAll subscribes a handler to every topic of an in-memory bus
const TopicAll = "*"

// TopicFor returns the bus topic for an engine event type
func TopicFor(t simulator.EventType) string {
	return TopicPrefix + string(t)
}

// EventTypeFromTopic is the inverse of TopicFor
func EventTypeFromTopic(topic string) (simulator.EventType, bool) {
	if !strings.HasPrefix(topic, TopicPrefix) {
		return "", false
	}
	return simulator.EventType(strings.TrimPrefix(topic, TopicPrefix)), true
}

// MessageHandler is a function that handles a message
// It receives the message and returns an error if processing fails
type MessageHandler func(ctx context.Context, msg *Message) error

// Publisher sends messages to a destination (in-memory bus, Redis, NATS)
type Publisher interface {
	// Publish sends a message; it must not block on slow consumers
	Publish(ctx context.Context, msg *Message) error

	// Close releases all resources
	Close() error
}

// MessageQueue is a Publisher that in-process consumers can subscribe to
type MessageQueue interface {
	Publisher

	// Subscribe registers a handler for messages on a specific topic, or TopicAll
	Subscribe(ctx context.Context, topic string, handler MessageHandler) error

	// Unsubscribe removes all handlers for a topic
	Unsubscribe(topic string) error

	// Start begins processing messages
	Start(ctx context.Context) error

	// Stop gracefully stops processing
	// Waits for in-flight handlers to complete
	Stop() error

	// Stats returns queue statistics
	Stats() QueueStats
}

// QueueStats represents statistics about the queue
type QueueStats struct {
	// TotalPublished is the total number of messages published
	TotalPublished int64 `json:"total_published"`

	// TotalDelivered is the total number of successful handler invocations
	TotalDelivered int64 `json:"total_delivered"`

	// TotalErrors is the total number of handler errors
	TotalErrors int64 `json:"total_errors"`

	// ActiveSubscribers is the current number of subscribed topics
	ActiveSubscribers int `json:"active_subscribers"`

	// QueueDepth is the current number of messages waiting to be dispatched
	QueueDepth int `json:"queue_depth"`
}
