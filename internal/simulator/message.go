package simulator

import (
	"fmt"
	"strings"
	"time"
)

// QueueKind identifies which queue variant the engine is simulating
type QueueKind string

const (
	// QueueStandard is an at-least-once queue with best-effort ordering
	QueueStandard QueueKind = "standard"

	// QueueFIFO is an ordered-per-group queue with content deduplication
	QueueFIFO QueueKind = "fifo"

	// QueueDeadLetter is the dead-letter queue view
	QueueDeadLetter QueueKind = "dlq"
)

// QueueKinds lists every supported kind in display order
var QueueKinds = []QueueKind{QueueStandard, QueueFIFO, QueueDeadLetter}

// ParseQueueKind converts user input into a QueueKind
func ParseQueueKind(s string) (QueueKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard":
		return QueueStandard, nil
	case "fifo", ".fifo":
		return QueueFIFO, nil
	case "dlq", "dead-letter", "deadletter":
		return QueueDeadLetter, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownQueueKind, s)
	}
}

// Valid reports whether k is one of the supported kinds
func (k QueueKind) Valid() bool {
	switch k {
	case QueueStandard, QueueFIFO, QueueDeadLetter:
		return true
	}
	return false
}

func (k QueueKind) String() string {
	return string(k)
}

// Status is the lifecycle state of a message
type Status string

const (
	StatusQueued       Status = "queued"
	StatusProcessing   Status = "processing"
	StatusFailed       Status = "failed"
	StatusProcessed    Status = "processed"
	StatusDeadLettered Status = "dead-letter"
)

// Terminal reports whether no further transitions are possible from s
func (s Status) Terminal() bool {
	return s == StatusProcessed || s == StatusDeadLettered
}

// MessageID uniquely identifies a message for the lifetime of an engine
type MessageID string

// Message is a single simulated queue message
type Message struct {
	// ID is assigned by the engine as msg-<seq>-<unix-ms>
	ID MessageID `json:"id" bson:"message_id"`

	// Content is the text payload
	Content string `json:"content" bson:"content"`

	// MessageGroup is set only for FIFO messages
	MessageGroup string `json:"message_group,omitempty" bson:"message_group,omitempty"`

	// CreatedAt is when the message was enqueued
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	// ReceiveCount is the number of processing attempts started
	ReceiveCount int `json:"receive_count" bson:"receive_count"`

	Status    Status    `json:"status" bson:"status"`
	QueueKind QueueKind `json:"queue_kind" bson:"queue_kind"`
}

func newMessageID(seq uint64, at time.Time) MessageID {
	return MessageID(fmt.Sprintf("msg-%d-%d", seq, at.UnixMilli()))
}
