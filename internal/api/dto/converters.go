package dto

import (
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/storage"
)

// ToMessageResponse converts simulator.Message to dto.MessageResponse
func ToMessageResponse(m simulator.Message) MessageResponse {
	return MessageResponse{
		ID:           string(m.ID),
		Content:      m.Content,
		MessageGroup: m.MessageGroup,
		CreatedAt:    m.CreatedAt,
		ReceiveCount: m.ReceiveCount,
		Status:       string(m.Status),
		QueueType:    string(m.QueueKind),
	}
}

// ToMessageList converts a slice, never returning nil
func ToMessageList(msgs []simulator.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ToMessageResponse(m))
	}
	return out
}

// ToStatsResponse converts simulator.Stats
func ToStatsResponse(s simulator.Stats) StatsResponse {
	return StatsResponse{
		Sent:      s.Sent,
		Processed: s.Processed,
		Failed:    s.Failed,
	}
}

// ToQueueDescriptorResponse converts simulator.QueueDescriptor
func ToQueueDescriptorResponse(d simulator.QueueDescriptor) QueueDescriptorResponse {
	return QueueDescriptorResponse{
		QueueType:  string(d.Kind),
		Title:      d.Title,
		Properties: append([]string{}, d.Properties...),
	}
}

// ToQueueListResponse lists every descriptor with the active kind
func ToQueueListResponse(active simulator.QueueKind) QueueListResponse {
	descs := simulator.Descriptors()
	queues := make([]QueueDescriptorResponse, 0, len(descs))
	for _, d := range descs {
		queues = append(queues, ToQueueDescriptorResponse(d))
	}
	return QueueListResponse{Queues: queues, Active: string(active)}
}

// ToSnapshotResponse converts simulator.Snapshot
func ToSnapshotResponse(s simulator.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		EngineID:   s.EngineID,
		QueueType:  string(s.QueueKind),
		Queue:      ToQueueDescriptorResponse(s.Descriptor),
		Visible:    ToMessageList(s.Visible()),
		Ready:      ToMessageList(s.Ready),
		InFlight:   ToMessageList(s.InFlight),
		DeadLetter: ToMessageList(s.DeadLetter),
		Stats:      ToStatsResponse(s.Stats),
		TakenAt:    s.TakenAt,
	}
}

// ToTickResponse converts simulator.TickResult
func ToTickResponse(r simulator.TickResult, stats simulator.Stats) TickResponse {
	resp := TickResponse{
		Completed: ToMessageList(r.Completed),
		Stats:     ToStatsResponse(stats),
	}
	if r.Dispatched != nil {
		m := ToMessageResponse(*r.Dispatched)
		resp.Dispatched = &m
	}
	return resp
}

// ToEventResponse converts simulator.Event, including its activity-log line
func ToEventResponse(ev simulator.Event) EventResponse {
	resp := EventResponse{
		Seq:       ev.Seq,
		Type:      string(ev.Type),
		Log:       ev.Describe(),
		QueueType: string(ev.QueueKind),
		At:        ev.At,
		Forced:    ev.Forced,
		Snapshot:  ToSnapshotResponse(ev.Snapshot),
	}
	if ev.Message != nil {
		m := ToMessageResponse(*ev.Message)
		resp.Message = &m
	}
	if len(ev.Batch) > 0 {
		resp.Batch = ToMessageList(ev.Batch)
	}
	return resp
}

// ToAuditRecordResponse converts storage.AuditRecord
func ToAuditRecordResponse(r storage.AuditRecord) AuditRecordResponse {
	return AuditRecordResponse{
		ID:           r.ID,
		EngineID:     r.EngineID,
		MessageID:    string(r.MessageID),
		Content:      r.Content,
		MessageGroup: r.MessageGroup,
		QueueType:    string(r.QueueKind),
		ReceiveCount: r.ReceiveCount,
		Outcome:      string(r.Outcome),
		Forced:       r.Forced,
		CreatedAt:    r.CreatedAt,
		RecordedAt:   r.RecordedAt,
	}
}

// ToAuditListResponse converts a page of audit records
func ToAuditListResponse(records []storage.AuditRecord, stored int64, filter storage.AuditFilter) AuditListResponse {
	out := make([]AuditRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, ToAuditRecordResponse(r))
	}
	return AuditListResponse{
		Records:   out,
		Total:     len(out),
		Stored:    stored,
		StartTime: filter.StartTime,
		EndTime:   filter.EndTime,
	}
}

// WithDefaults fills omitted batch fields
func (r BatchRequest) WithDefaults() BatchRequest {
	if r.BaseContent == "" {
		r.BaseContent = DefaultBatchContent
	}
	if r.MessageGroup == "" {
		r.MessageGroup = DefaultBatchGroup
	}
	if r.Count == nil {
		n := DefaultBatchCount
		r.Count = &n
	}
	return r
}
