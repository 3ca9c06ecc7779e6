package storage

import (
	"fmt"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
)

// RecordFromEvent builds an audit record from a processed or dead-lettered event
func RecordFromEvent(ev simulator.Event) (AuditRecord, error) {
	var outcome Outcome
	switch ev.Type {
	case simulator.EventMessageProcessed:
		outcome = OutcomeProcessed
	case simulator.EventMessageDeadLettered:
		outcome = OutcomeDeadLettered
	default:
		return AuditRecord{}, fmt.Errorf("%w: %s", ErrNotAnOutcome, ev.Type)
	}

	if ev.Message == nil {
		return AuditRecord{}, fmt.Errorf("%w: %s event %d has no message", ErrInvalidRecord, ev.Type, ev.Seq)
	}
	if !ev.Message.Status.Terminal() {
		return AuditRecord{}, fmt.Errorf("%w: %s event %d carries %s message %s",
			ErrInvalidRecord, ev.Type, ev.Seq, ev.Message.Status, ev.Message.ID)
	}

	return AuditRecord{
		ID:           fmt.Sprintf("%s:%d", ev.EngineID, ev.Seq),
		EngineID:     ev.EngineID,
		MessageID:    ev.Message.ID,
		Content:      ev.Message.Content,
		MessageGroup: ev.Message.MessageGroup,
		QueueKind:    ev.Message.QueueKind,
		ReceiveCount: ev.Message.ReceiveCount,
		Outcome:      outcome,
		Forced:       ev.Forced,
		CreatedAt:    ev.Message.CreatedAt,
		RecordedAt:   ev.At,
	}, nil
}
