package simulator

import "time"

// Stats are the monotonic counters of the active queue
type Stats struct {
	Sent      int64 `json:"sent"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

// Snapshot is a read-only copy of the engine state for rendering
type Snapshot struct {
	EngineID   string          `json:"engine_id"`
	QueueKind  QueueKind       `json:"queue_kind"`
	Descriptor QueueDescriptor `json:"descriptor"`
	Ready      []Message       `json:"ready"`
	InFlight   []Message       `json:"in_flight"`
	DeadLetter []Message       `json:"dead_letter"`
	Stats      Stats           `json:"stats"`
	TakenAt    time.Time       `json:"taken_at"`
}

// Visible returns the list a queue view displays: the dead-letter list for
// the DLQ view and the ready list otherwise.
func (s Snapshot) Visible() []Message {
	if s.QueueKind == QueueDeadLetter {
		return s.DeadLetter
	}
	return s.Ready
}

// Locate returns the container holding id ("ready", "in_flight",
// "dead_letter") and how many containers hold it.
func (s Snapshot) Locate(id MessageID) (string, int) {
	where, hits := "", 0
	for name, list := range map[string][]Message{
		"ready":       s.Ready,
		"in_flight":   s.InFlight,
		"dead_letter": s.DeadLetter,
	} {
		for _, m := range list {
			if m.ID == id {
				where = name
				hits++
			}
		}
	}
	return where, hits
}

func copyMessages(src []*Message) []Message {
	out := make([]Message, len(src))
	for i, m := range src {
		out[i] = *m
	}
	return out
}
