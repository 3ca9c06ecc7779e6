package simulator

// QueueDescriptor is the display metadata for a queue kind
type QueueDescriptor struct {
	Kind       QueueKind `json:"kind"`
	Title      string    `json:"title"`
	Properties []string  `json:"properties"`
}

var descriptors = map[QueueKind]QueueDescriptor{
	QueueStandard: {
		Kind:  QueueStandard,
		Title: "Standard Queue",
		Properties: []string{
			"High Throughput",
			"At-least-once Delivery",
			"Best-effort Ordering",
		},
	},
	QueueFIFO: {
		Kind:  QueueFIFO,
		Title: "FIFO Queue (.fifo)",
		Properties: []string{
			"Exactly-once Processing",
			"Strict FIFO Ordering",
			"Message Deduplication",
			"Message Groups",
		},
	},
	QueueDeadLetter: {
		Kind:  QueueDeadLetter,
		Title: "Dead Letter Queue",
		Properties: []string{
			"Failed Message Storage",
			"Error Analysis",
			"Monitoring & Alerts",
			"Message Recovery",
		},
	},
}

// Describe returns the descriptor for k. Unknown kinds get a bare descriptor.
func Describe(k QueueKind) QueueDescriptor {
	d, ok := descriptors[k]
	if !ok {
		return QueueDescriptor{Kind: k, Title: string(k)}
	}
	d.Properties = append([]string(nil), d.Properties...)
	return d
}

// Descriptors returns the descriptors of all kinds in display order
func Descriptors() []QueueDescriptor {
	out := make([]QueueDescriptor, 0, len(QueueKinds))
	for _, k := range QueueKinds {
		out = append(out, Describe(k))
	}
	return out
}
