package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
)

// stateCollector reads a fresh snapshot on every scrape
type stateCollector struct {
	source SnapshotSource

	sent       *prometheus.Desc
	processed  *prometheus.Desc
	failed     *prometheus.Desc
	depth      *prometheus.Desc
	activeKind *prometheus.Desc
}

func newStateCollector(source SnapshotSource) *stateCollector {
	return &stateCollector{
		source: source,
		sent: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "messages_sent"),
			"Messages accepted by the active queue since the last clear or switch",
			nil, nil,
		),
		processed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "messages_processed"),
			"Messages processed successfully since the last clear or switch",
			nil, nil,
		),
		failed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "messages_dead_lettered"),
			"Messages moved to the dead-letter queue since the last clear or switch",
			nil, nil,
		),
		depth: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "queue_depth"),
			"Current number of messages per container",
			[]string{"container"}, nil,
		),
		activeKind: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "active_queue"),
			"Active queue kind (1 for the active kind, 0 otherwise)",
			[]string{"queue_kind"}, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *stateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sent
	ch <- c.processed
	ch <- c.failed
	ch <- c.depth
	ch <- c.activeKind
}

// Collect implements prometheus.Collector.
// The counters reset on Clear and SwitchQueue, so they are exported as gauges.
func (c *stateCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.source.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.sent, prometheus.GaugeValue, float64(snap.Stats.Sent))
	ch <- prometheus.MustNewConstMetric(c.processed, prometheus.GaugeValue, float64(snap.Stats.Processed))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.GaugeValue, float64(snap.Stats.Failed))

	ch <- prometheus.MustNewConstMetric(c.depth, prometheus.GaugeValue, float64(len(snap.Ready)), "ready")
	ch <- prometheus.MustNewConstMetric(c.depth, prometheus.GaugeValue, float64(len(snap.InFlight)), "in_flight")
	ch <- prometheus.MustNewConstMetric(c.depth, prometheus.GaugeValue, float64(len(snap.DeadLetter)), "dead_letter")

	for _, kind := range simulator.QueueKinds {
		v := 0.0
		if kind == snap.QueueKind {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.activeKind, prometheus.GaugeValue, v, string(kind))
	}
}
