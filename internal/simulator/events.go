package simulator

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// EventType names a state mutation
type EventType string

const (
	EventMessageEnqueued     EventType = "message.enqueued"
	EventBatchEnqueued       EventType = "batch.enqueued"
	EventProcessingStarted   EventType = "message.processing"
	EventMessageFailed       EventType = "message.failed"
	EventMessageProcessed    EventType = "message.processed"
	EventMessageDeadLettered EventType = "message.dead_lettered"
	EventQueueCleared        EventType = "queue.cleared"
	EventQueueSwitched       EventType = "queue.switched"
)

// Event is emitted after every state mutation and carries enough state to
// render the queue without asking the engine again.
type Event struct {
	Seq       uint64    `json:"seq"`
	Type      EventType `json:"type"`
	EngineID  string    `json:"engine_id"`
	QueueKind QueueKind `json:"queue_kind"`
	At        time.Time `json:"at"`

	// Message is the message the event is about, if any
	Message *Message `json:"message,omitempty"`

	// Batch holds the messages of a batch.enqueued event
	Batch []Message `json:"batch,omitempty"`

	// Forced is set when a failure came from SimulateFailure
	Forced bool `json:"forced,omitempty"`

	Snapshot Snapshot `json:"snapshot"`
}

// Describe renders the activity-log line for the event
func (ev Event) Describe() string {
	content := ""
	attempt := 0
	if ev.Message != nil {
		content = ev.Message.Content
		attempt = ev.Message.ReceiveCount
	}

	switch ev.Type {
	case EventMessageEnqueued:
		return "Message sent: " + content
	case EventBatchEnqueued:
		return fmt.Sprintf("Batch of %d messages sent", len(ev.Batch))
	case EventProcessingStarted:
		return "Processing: " + content
	case EventMessageFailed:
		if ev.Forced {
			return fmt.Sprintf("Simulated failure: %s (attempt %d)", content, attempt)
		}
		return fmt.Sprintf("Processing failed: %s (attempt %d)", content, attempt)
	case EventMessageDeadLettered:
		if ev.Forced {
			return "Message sent to DLQ after max retries: " + content
		}
		return "Message sent to DLQ: " + content
	case EventMessageProcessed:
		return "Successfully processed: " + content
	case EventQueueCleared:
		return "Queue cleared"
	case EventQueueSwitched:
		return "Switched to " + Describe(ev.QueueKind).Title
	default:
		return string(ev.Type)
	}
}

// Subscription receives engine events on C until it is unsubscribed
type Subscription struct {
	ID string
	C  <-chan Event

	ch      chan Event
	dropped atomic.Int64
}

// Dropped returns how many events were discarded because C was full
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Subscribe registers a new event subscriber with the given channel buffer
func (e *Engine) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}

	ch := make(chan Event, buffer)
	sub := &Subscription{
		ID: uuid.New().String(),
		C:  ch,
		ch: ch,
	}

	e.subsMu.Lock()
	e.subs[sub.ID] = sub
	total := len(e.subs)
	e.subsMu.Unlock()

	e.logger.Debug("Event subscriber registered",
		"subscription_id", sub.ID,
		"total_subscribers", total,
	)

	return sub
}

// Unsubscribe removes a subscriber and closes its channel
func (e *Engine) Unsubscribe(id string) bool {
	e.subsMu.Lock()
	sub, exists := e.subs[id]
	if exists {
		delete(e.subs, id)
		close(sub.ch)
	}
	e.subsMu.Unlock()

	if exists {
		e.logger.Debug("Event subscriber removed", "subscription_id", id)
	}
	return exists
}

// emitLocked builds the event and fans it out. Caller holds e.mu.
func (e *Engine) emitLocked(typ EventType, at time.Time, msg *Message, fill func(*Event)) {
	e.eventSeq++
	ev := Event{
		Seq:       e.eventSeq,
		Type:      typ,
		EngineID:  e.id,
		QueueKind: e.kind,
		At:        at,
		Snapshot:  e.snapshotLocked(at),
	}
	if msg != nil {
		m := *msg
		ev.Message = &m
	}
	if fill != nil {
		fill(&ev)
	}

	e.logger.Debug("Event emitted", "seq", ev.Seq, "type", string(ev.Type))

	e.subsMu.RLock()
	defer e.subsMu.RUnlock()

	for _, sub := range e.subs {
		select {
		case sub.ch <- ev:
		default:
			sub.dropped.Add(1)
			e.logger.Warn("Subscriber busy, event dropped",
				"subscription_id", sub.ID,
				"seq", ev.Seq,
				"type", string(ev.Type),
			)
		}
	}
}
