package mq

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is the envelope published on the event bus
type Message struct {
	// ID is a unique identifier for this envelope
	ID string `json:"id"`

	// Topic is the routing key, e.g. "sqs.simulator.message.processed"
	Topic string `json:"topic"`

	// Payload is the JSON-encoded body
	Payload json.RawMessage `json:"payload"`

	// Headers carry routing metadata (engine_id, event_type, queue_kind, seq)
	Headers map[string]string `json:"headers,omitempty"`

	// Timestamp is when the underlying event happened
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a new message with the given topic and payload
// The payload is automatically marshaled to JSON
func NewMessage(topic string, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        uuid.New().String(),
		Topic:     topic,
		Payload:   data,
		Headers:   make(map[string]string),
		Timestamp: time.Now(),
	}, nil
}

// Unmarshal unmarshals the payload into the given interface
func (m *Message) Unmarshal(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}

// WithHeader adds a header to the message (fluent API)
func (m *Message) WithHeader(key, value string) *Message {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[key] = value
	return m
}

// GetHeader returns a header value
func (m *Message) GetHeader(key string) (string, bool) {
	val, ok := m.Headers[key]
	return val, ok
}
