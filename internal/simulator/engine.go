package simulator

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Engine simulates the message lifecycle of a single active queue.
// All mutations are serialized by mu; events are fanned out to subscribers
// without blocking.
type Engine struct {
	id     string
	cfg    Config
	logger *slog.Logger

	mu         sync.Mutex
	kind       QueueKind
	ready      []*Message
	inFlight   []*inFlightEntry
	deadLetter []*Message
	stats      Stats
	nextSeq    uint64
	eventSeq   uint64

	subsMu sync.RWMutex
	subs   map[string]*Subscription
}

// inFlightEntry is a message being processed and the time its processing completes
type inFlightEntry struct {
	msg   *Message
	dueAt time.Time
}

// EnqueueRequest describes a single message to send
type EnqueueRequest struct {
	Content string

	// Kind must match the active queue; empty means the active queue
	Kind QueueKind

	// MessageGroup is required for FIFO and ignored otherwise
	MessageGroup string
}

// BatchRequest describes a batch of messages "<BaseContent> 1".."<BaseContent> <Count>"
type BatchRequest struct {
	BaseContent  string
	Count        int
	Kind         QueueKind
	MessageGroup string
}

// TickResult reports what a single Tick did
type TickResult struct {
	// Completed holds messages whose processing finished, with their final status
	Completed []Message

	// Dispatched is the message that started processing, if any
	Dispatched *Message
}

// NewEngine creates an engine with an empty queue of cfg.InitialQueue kind
func NewEngine(cfg Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		id:     uuid.New().String(),
		cfg:    cfg,
		kind:   cfg.InitialQueue,
		subs:   make(map[string]*Subscription),
		logger: logger.With("component", "simulator"),
	}

	e.logger.Info("Queue simulator created",
		"engine_id", e.id,
		"queue_kind", string(e.kind),
		"max_receive_count", cfg.MaxReceiveCount,
		"failure_probability", cfg.FailureProbability,
		"processing_duration", cfg.ProcessingDuration,
		"tick_interval", cfg.TickInterval,
		"max_in_flight", cfg.MaxInFlight,
	)

	return e, nil
}

// ID returns the engine instance identifier carried by every event
func (e *Engine) ID() string {
	return e.id
}

// Config returns the engine's global settings
func (e *Engine) Config() Config {
	return e.cfg
}

// QueueKind returns the active queue kind
func (e *Engine) QueueKind() QueueKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kind
}

// Enqueue validates and inserts a single message
func (e *Engine) Enqueue(req EnqueueRequest) (MessageID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	content := strings.TrimSpace(req.Content)
	group, err := e.validateLocked(content, req.Kind, req.MessageGroup)
	if err != nil {
		return "", err
	}

	if e.kind == QueueFIFO && e.isDuplicateLocked(content, group) {
		e.logger.Warn("Duplicate message detected and rejected",
			"content", content,
			"message_group", group,
		)
		return "", fmt.Errorf("%w: %q in group %q", ErrDuplicateMessage, content, group)
	}

	now := e.cfg.Clock()
	msg := e.newMessageLocked(content, group, now)
	e.insertLocked(msg)
	e.stats.Sent++

	e.logger.Info("Message sent",
		"message_id", string(msg.ID),
		"content", content,
		"queue_kind", string(e.kind),
	)
	e.emitLocked(EventMessageEnqueued, now, msg, nil)

	return msg.ID, nil
}

// EnqueueBatch inserts Count messages or none at all
func (e *Engine) EnqueueBatch(req BatchRequest) ([]MessageID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if req.Count < 1 || req.Count > e.cfg.MaxBatchSize {
		e.logger.Warn("Batch rejected", "error", ErrInvalidBatchSize, "count", req.Count)
		return nil, fmt.Errorf("%w: got %d, limit %d", ErrInvalidBatchSize, req.Count, e.cfg.MaxBatchSize)
	}

	base := strings.TrimSpace(req.BaseContent)
	group, err := e.validateLocked(base, req.Kind, req.MessageGroup)
	if err != nil {
		return nil, err
	}

	contents := make([]string, req.Count)
	for i := range contents {
		contents[i] = fmt.Sprintf("%s %d", base, i+1)
		if e.kind == QueueFIFO && e.isDuplicateLocked(contents[i], group) {
			e.logger.Warn("Batch rejected, duplicate message",
				"content", contents[i],
				"message_group", group,
			)
			return nil, fmt.Errorf("%w: %q in group %q", ErrDuplicateMessage, contents[i], group)
		}
	}

	now := e.cfg.Clock()
	ids := make([]MessageID, 0, req.Count)
	batch := make([]Message, 0, req.Count)
	for _, content := range contents {
		msg := e.newMessageLocked(content, group, now)
		e.insertLocked(msg)
		ids = append(ids, msg.ID)
		batch = append(batch, *msg)
	}
	e.stats.Sent += int64(req.Count)

	e.logger.Info("Batch of messages sent",
		"count", req.Count,
		"queue_kind", string(e.kind),
	)
	e.emitLocked(EventBatchEnqueued, now, nil, func(ev *Event) {
		ev.Batch = batch
	})

	return ids, nil
}

// Tick is one firing of the dispatch timer: it completes every in-flight
// message due at now, then starts processing at most one ready message.
func (e *Engine) Tick(now time.Time) TickResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := TickResult{Completed: e.completeDueLocked(now)}

	if len(e.inFlight) >= e.cfg.MaxInFlight {
		return res
	}

	msg := e.selectNextLocked()
	if msg == nil {
		return res
	}

	e.beginProcessingLocked(msg, now)
	dispatched := *msg
	res.Dispatched = &dispatched

	return res
}

// CompleteDue finishes every in-flight message whose processing time has
// elapsed at now. Messages removed by Clear or SwitchQueue are never completed.
func (e *Engine) CompleteDue(now time.Time) []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.completeDueLocked(now)
}

// SimulateFailure forces the oldest in-flight message to fail immediately
func (e *Engine) SimulateFailure() (Message, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.inFlight) == 0 {
		e.logger.Warn("No messages currently processing")
		return Message{}, ErrNothingInFlight
	}

	entry := e.inFlight[0]
	e.inFlight = e.inFlight[1:]
	e.resolveLocked(entry.msg, true, true, e.cfg.Clock())

	return *entry.msg, nil
}

// Clear empties every container and resets the counters
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetLocked()
	e.logger.Info("Queue cleared", "queue_kind", string(e.kind))
	e.emitLocked(EventQueueCleared, e.cfg.Clock(), nil, nil)
}

// SwitchQueue changes the active queue kind. Switching discards all
// messages, dead letters and counters.
func (e *Engine) SwitchQueue(kind QueueKind) error {
	if !kind.Valid() {
		e.logger.Warn("Queue switch rejected", "queue_kind", string(kind))
		return fmt.Errorf("%w: %q", ErrUnknownQueueKind, kind)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	previous := e.kind
	e.kind = kind
	e.resetLocked()

	e.logger.Info("Queue switched",
		"from", string(previous),
		"to", string(kind),
	)
	e.emitLocked(EventQueueSwitched, e.cfg.Clock(), nil, nil)

	return nil
}

// Snapshot returns a copy of the current state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(e.cfg.Clock())
}

// Stats returns the current counters
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine) snapshotLocked(at time.Time) Snapshot {
	inFlight := make([]Message, len(e.inFlight))
	for i, entry := range e.inFlight {
		inFlight[i] = *entry.msg
	}

	return Snapshot{
		EngineID:   e.id,
		QueueKind:  e.kind,
		Descriptor: Describe(e.kind),
		Ready:      copyMessages(e.ready),
		InFlight:   inFlight,
		DeadLetter: copyMessages(e.deadLetter),
		Stats:      e.stats,
		TakenAt:    at,
	}
}

// validateLocked checks content, kind and group and returns the group to store
func (e *Engine) validateLocked(content string, kind QueueKind, group string) (string, error) {
	if content == "" {
		e.logger.Warn("Message rejected", "error", ErrEmptyContent)
		return "", ErrEmptyContent
	}

	if kind != "" && kind != e.kind {
		e.logger.Warn("Message rejected",
			"error", ErrQueueMismatch,
			"requested", string(kind),
			"active", string(e.kind),
		)
		return "", fmt.Errorf("%w: requested %s, active %s", ErrQueueMismatch, kind, e.kind)
	}

	if e.kind != QueueFIFO {
		return "", nil
	}

	group = strings.TrimSpace(group)
	if group == "" {
		e.logger.Warn("Message rejected", "error", ErrMissingGroup)
		return "", ErrMissingGroup
	}
	return group, nil
}

// isDuplicateLocked reports whether an active FIFO message has the same content and group
func (e *Engine) isDuplicateLocked(content, group string) bool {
	matches := func(m *Message) bool {
		return m.QueueKind == QueueFIFO && m.Content == content && m.MessageGroup == group
	}

	for _, m := range e.ready {
		if matches(m) {
			return true
		}
	}
	for _, entry := range e.inFlight {
		if matches(entry.msg) {
			return true
		}
	}
	return false
}

func (e *Engine) newMessageLocked(content, group string, now time.Time) *Message {
	e.nextSeq++
	return &Message{
		ID:           newMessageID(e.nextSeq, now),
		Content:      content,
		MessageGroup: group,
		CreatedAt:    now,
		Status:       StatusQueued,
		QueueKind:    e.kind,
	}
}

// insertLocked places a new message: random position for standard queues,
// tail otherwise.
func (e *Engine) insertLocked(msg *Message) {
	if e.kind != QueueStandard {
		e.ready = append(e.ready, msg)
		return
	}

	idx := e.cfg.Random.Intn(len(e.ready) + 1)
	e.ready = append(e.ready, nil)
	copy(e.ready[idx+1:], e.ready[idx:])
	e.ready[idx] = msg
}

// selectNextLocked picks the next message to process without removing it
func (e *Engine) selectNextLocked() *Message {
	if len(e.ready) == 0 {
		return nil
	}

	if e.kind != QueueFIFO {
		return e.ready[0]
	}

	// Earliest-appearing group first, then that group's oldest ready message.
	firstGroup := e.ready[0].MessageGroup
	for _, m := range e.ready {
		if m.MessageGroup == firstGroup {
			return m
		}
	}
	return nil
}

func (e *Engine) beginProcessingLocked(msg *Message, now time.Time) {
	for i, m := range e.ready {
		if m.ID == msg.ID {
			e.ready = append(e.ready[:i], e.ready[i+1:]...)
			break
		}
	}

	msg.Status = StatusProcessing
	msg.ReceiveCount++
	e.inFlight = append(e.inFlight, &inFlightEntry{
		msg:   msg,
		dueAt: now.Add(e.cfg.ProcessingDuration),
	})

	e.logger.Info("Processing",
		"message_id", string(msg.ID),
		"content", msg.Content,
		"receive_count", msg.ReceiveCount,
	)
	e.emitLocked(EventProcessingStarted, now, msg, nil)
}

func (e *Engine) completeDueLocked(now time.Time) []Message {
	var completed []Message

	remaining := e.inFlight[:0]
	var due []*inFlightEntry
	for _, entry := range e.inFlight {
		if entry.dueAt.After(now) {
			remaining = append(remaining, entry)
			continue
		}
		due = append(due, entry)
	}
	e.inFlight = remaining

	for _, entry := range due {
		failed := e.cfg.Random.Float64() < e.cfg.FailureProbability
		e.resolveLocked(entry.msg, failed, false, now)
		completed = append(completed, *entry.msg)
	}

	return completed
}

// resolveLocked applies the outcome of a finished attempt. The message must
// already be removed from the in-flight list.
func (e *Engine) resolveLocked(msg *Message, failed, forced bool, now time.Time) {
	switch {
	case failed && msg.ReceiveCount < e.cfg.MaxReceiveCount:
		msg.Status = StatusFailed
		e.ready = append([]*Message{msg}, e.ready...)

		e.logger.Warn("Processing failed",
			"message_id", string(msg.ID),
			"content", msg.Content,
			"receive_count", msg.ReceiveCount,
			"forced", forced,
		)
		e.emitLocked(EventMessageFailed, now, msg, func(ev *Event) { ev.Forced = forced })

	case msg.ReceiveCount >= e.cfg.MaxReceiveCount:
		msg.Status = StatusDeadLettered
		e.deadLetter = append(e.deadLetter, msg)
		e.stats.Failed++

		e.logger.Error("Message sent to DLQ",
			"message_id", string(msg.ID),
			"content", msg.Content,
			"receive_count", msg.ReceiveCount,
			"forced", forced,
		)
		e.emitLocked(EventMessageDeadLettered, now, msg, func(ev *Event) { ev.Forced = forced })

	default:
		msg.Status = StatusProcessed
		e.stats.Processed++

		e.logger.Info("Successfully processed",
			"message_id", string(msg.ID),
			"content", msg.Content,
			"receive_count", msg.ReceiveCount,
		)
		e.emitLocked(EventMessageProcessed, now, msg, nil)
	}
}

func (e *Engine) resetLocked() {
	e.ready = nil
	e.inFlight = nil
	e.deadLetter = nil
	e.stats = Stats{}
}
