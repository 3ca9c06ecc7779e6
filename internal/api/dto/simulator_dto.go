package dto

import "time"

// Adapter-level batch defaults
const (
	DefaultBatchContent = "Batch Message"
	DefaultBatchGroup   = "batch-group"
	DefaultBatchCount   = 10
)

// SendMessageRequest sends a single message to the active queue
type SendMessageRequest struct {
	Content string `json:"content" example:"Order #1"`

	// QueueType must name the active queue when set
	QueueType    string `json:"queue_type,omitempty" example:"fifo"`
	MessageGroup string `json:"message_group,omitempty" example:"orders"`
}

// SendMessageResponse acknowledges an accepted message
type SendMessageResponse struct {
	MessageID string    `json:"message_id" example:"msg-1-1737203696000"`
	QueueType string    `json:"queue_type" example:"fifo"`
	Timestamp time.Time `json:"timestamp" example:"2025-01-18T12:34:56Z"`
}

// BatchRequest sends Count messages "<BaseContent> 1".."<BaseContent> <Count>".
// Omitted fields fall back to DefaultBatchContent, DefaultBatchGroup and DefaultBatchCount.
type BatchRequest struct {
	BaseContent  string `json:"base_content,omitempty" example:"Batch Message"`
	Count        *int   `json:"count,omitempty" example:"10"`
	QueueType    string `json:"queue_type,omitempty" example:"standard"`
	MessageGroup string `json:"message_group,omitempty" example:"batch-group"`
}

// BatchResponse lists the IDs of an accepted batch in send order
type BatchResponse struct {
	MessageIDs []string  `json:"message_ids"`
	Count      int       `json:"count" example:"10"`
	QueueType  string    `json:"queue_type" example:"standard"`
	Timestamp  time.Time `json:"timestamp" example:"2025-01-18T12:34:56Z"`
}

// SwitchQueueRequest selects the active queue kind
type SwitchQueueRequest struct {
	QueueType string `json:"queue_type" binding:"required" example:"dlq"`
}

// MessageResponse is a message as displayed in a queue view
type MessageResponse struct {
	ID           string    `json:"id" example:"msg-1-1737203696000"`
	Content      string    `json:"content" example:"Order #1"`
	MessageGroup string    `json:"message_group,omitempty" example:"orders"`
	CreatedAt    time.Time `json:"created_at" example:"2025-01-18T12:34:56Z"`
	ReceiveCount int       `json:"receive_count" example:"1"`
	Status       string    `json:"status" example:"processing"`
	QueueType    string    `json:"queue_type" example:"fifo"`
}

// StatsResponse are the counters of the active queue
type StatsResponse struct {
	Sent      int64 `json:"sent" example:"12"`
	Processed int64 `json:"processed" example:"9"`
	Failed    int64 `json:"failed" example:"1"`
}

// QueueDescriptorResponse describes a queue kind for display
type QueueDescriptorResponse struct {
	QueueType  string   `json:"queue_type" example:"fifo"`
	Title      string   `json:"title" example:"FIFO Queue (.fifo)"`
	Properties []string `json:"properties"`
}

// QueueListResponse lists every queue kind and marks the active one
type QueueListResponse struct {
	Queues []QueueDescriptorResponse `json:"queues"`
	Active string                    `json:"active" example:"standard"`
}

// SnapshotResponse is the full state needed to render the simulator
type SnapshotResponse struct {
	EngineID   string                  `json:"engine_id"`
	QueueType  string                  `json:"queue_type" example:"standard"`
	Queue      QueueDescriptorResponse `json:"queue"`
	Visible    []MessageResponse       `json:"visible"`
	Ready      []MessageResponse       `json:"ready"`
	InFlight   []MessageResponse       `json:"in_flight"`
	DeadLetter []MessageResponse       `json:"dead_letter"`
	Stats      StatsResponse           `json:"stats"`
	TakenAt    time.Time               `json:"taken_at"`
}

// TickResponse reports the outcome of one dispatcher firing
type TickResponse struct {
	Completed  []MessageResponse `json:"completed"`
	Dispatched *MessageResponse  `json:"dispatched,omitempty"`
	Stats      StatsResponse     `json:"stats"`
}

// FailureResponse reports the message a simulated failure hit
type FailureResponse struct {
	Message MessageResponse `json:"message"`
	Outcome string          `json:"outcome" example:"failed"`
}

// EventResponse is a state change pushed over SSE and WebSocket
type EventResponse struct {
	Seq       uint64            `json:"seq" example:"42"`
	Type      string            `json:"type" example:"message.processed"`
	Log       string            `json:"log" example:"Successfully processed: Order #1"`
	QueueType string            `json:"queue_type" example:"standard"`
	At        time.Time         `json:"at"`
	Message   *MessageResponse  `json:"message,omitempty"`
	Batch     []MessageResponse `json:"batch,omitempty"`
	Forced    bool              `json:"forced,omitempty"`
	Snapshot  SnapshotResponse  `json:"snapshot"`
}
