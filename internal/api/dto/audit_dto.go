package dto

import "time"

// AuditRecordResponse is an archived processed or dead-lettered message
type AuditRecordResponse struct {
	ID           string    `json:"id"`
	EngineID     string    `json:"engine_id"`
	MessageID    string    `json:"message_id" example:"msg-3-1737203696000"`
	Content      string    `json:"content" example:"Order #3"`
	MessageGroup string    `json:"message_group,omitempty"`
	QueueType    string    `json:"queue_type" example:"fifo"`
	ReceiveCount int       `json:"receive_count" example:"3"`
	Outcome      string    `json:"outcome" example:"dead_lettered"`
	Forced       bool      `json:"forced,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// AuditListResponse wraps audit records with metadata
type AuditListResponse struct {
	Records   []AuditRecordResponse `json:"records"`
	Total     int                   `json:"total" example:"25"`
	Stored    int64                 `json:"stored" example:"120"`
	StartTime *time.Time            `json:"start_time,omitempty"`
	EndTime   *time.Time            `json:"end_time,omitempty"`
}
