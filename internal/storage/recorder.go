package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/mq"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
)

// Recorder archives terminal message outcomes arriving on the event bus
type Recorder struct {
	repo   AuditRepository
	logger *slog.Logger

	stored atomic.Int64
	failed atomic.Int64
}

// NewRecorder creates a recorder writing to repo
func NewRecorder(repo AuditRepository, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		repo:   repo,
		logger: logger.With("component", "audit_recorder"),
	}
}

// Topics lists the bus topics the recorder consumes
func (r *Recorder) Topics() []string {
	return []string{
		mq.TopicFor(simulator.EventMessageProcessed),
		mq.TopicFor(simulator.EventMessageDeadLettered),
	}
}

// Register subscribes the recorder to its topics on the bus
func (r *Recorder) Register(ctx context.Context, bus mq.MessageQueue) error {
	for _, topic := range r.Topics() {
		if err := bus.Subscribe(ctx, topic, r.HandleMessage); err != nil {
			return fmt.Errorf("failed to subscribe audit recorder to %s: %w", topic, err)
		}
	}
	return nil
}

// HandleMessage is an mq.MessageHandler storing one audit record per outcome event
func (r *Recorder) HandleMessage(ctx context.Context, msg *mq.Message) error {
	ev, err := mq.DecodeEvent(msg)
	if err != nil {
		r.failed.Add(1)
		return err
	}

	record, err := RecordFromEvent(ev)
	if errors.Is(err, ErrNotAnOutcome) {
		return nil
	}
	if err != nil {
		r.failed.Add(1)
		return err
	}

	if err := r.repo.Store(ctx, record); err != nil {
		r.failed.Add(1)
		return fmt.Errorf("failed to store audit record %s: %w", record.ID, err)
	}

	r.stored.Add(1)
	r.logger.Debug("Audit record stored",
		"record_id", record.ID,
		"message_id", string(record.MessageID),
		"outcome", string(record.Outcome),
	)
	return nil
}

// Stored returns how many records were written
func (r *Recorder) Stored() int64 {
	return r.stored.Load()
}

// Failed returns how many events could not be archived
func (r *Recorder) Failed() int64 {
	return r.failed.Load()
}
