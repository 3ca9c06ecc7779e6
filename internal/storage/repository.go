package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
)

var (
	ErrInvalidRecord = errors.New("invalid audit record")
	ErrNotAnOutcome  = errors.New("event is not a terminal outcome")
)

// Outcome is the terminal status an audit record captures
type Outcome string

const (
	OutcomeProcessed    Outcome = "processed"
	OutcomeDeadLettered Outcome = "dead_lettered"
)

// AuditRecord is an archived copy of a message that left the simulation,
// either successfully processed or moved to the dead-letter queue.
type AuditRecord struct {
	// ID is "<engine id>:<event seq>" and is unique per engine event
	ID string `json:"id" bson:"_id"`

	EngineID     string              `json:"engine_id" bson:"engine_id"`
	MessageID    simulator.MessageID `json:"message_id" bson:"message_id"`
	Content      string              `json:"content" bson:"content"`
	MessageGroup string              `json:"message_group,omitempty" bson:"message_group,omitempty"`
	QueueKind    simulator.QueueKind `json:"queue_kind" bson:"queue_kind"`
	ReceiveCount int                 `json:"receive_count" bson:"receive_count"`
	Outcome      Outcome             `json:"outcome" bson:"outcome"`

	// Forced is set when the final attempt was a simulated failure
	Forced bool `json:"forced,omitempty" bson:"forced,omitempty"`

	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	RecordedAt time.Time `json:"recorded_at" bson:"recorded_at"`
}

// Validate checks the fields every repository relies on
func (r AuditRecord) Validate() error {
	if r.ID == "" || r.MessageID == "" {
		return ErrInvalidRecord
	}
	if r.Outcome != OutcomeProcessed && r.Outcome != OutcomeDeadLettered {
		return ErrInvalidRecord
	}
	return nil
}

// AuditFilter narrows List results. Zero values match everything.
type AuditFilter struct {
	EngineID  string
	Outcome   Outcome
	QueueKind simulator.QueueKind
	StartTime *time.Time
	EndTime   *time.Time

	// Limit caps the number of records returned; 0 means no limit
	Limit int
}

// Matches reports whether a record passes the filter
func (f AuditFilter) Matches(r AuditRecord) bool {
	if f.EngineID != "" && r.EngineID != f.EngineID {
		return false
	}
	if f.Outcome != "" && r.Outcome != f.Outcome {
		return false
	}
	if f.QueueKind != "" && r.QueueKind != f.QueueKind {
		return false
	}
	if f.StartTime != nil && r.RecordedAt.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && r.RecordedAt.After(*f.EndTime) {
		return false
	}
	return true
}

// AuditRepository defines the interface for audit archive storage
type AuditRepository interface {
	// Store persists a record; storing the same ID twice keeps one copy
	Store(ctx context.Context, record AuditRecord) error

	// List returns matching records, newest first
	List(ctx context.Context, filter AuditFilter) ([]AuditRecord, error)

	// Count returns the total number of records stored
	Count(ctx context.Context) (int64, error)

	// Close releases the underlying resources
	Close(ctx context.Context) error
}
