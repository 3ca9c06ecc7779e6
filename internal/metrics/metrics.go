// Package metrics exposes simulator state and event throughput to Prometheus.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/mq"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
)

const namespace = "sqs_simulator"

// SnapshotSource is anything that can report the current simulator state
type SnapshotSource interface {
	Snapshot() simulator.Snapshot
}

// Metrics owns the registry and every simulator metric
type Metrics struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	logger   *slog.Logger
}

// New creates a registry holding the state collector, the event counter and
// the Go runtime collectors.
func New(source SnapshotSource, logger *slog.Logger) (*Metrics, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Total number of simulator events by type",
		}, []string{"type"}),
		logger: logger.With("component", "metrics"),
	}

	for _, c := range []prometheus.Collector{
		newStateCollector(source),
		m.events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Register subscribes the event counter to every topic on the bus
func (m *Metrics) Register(ctx context.Context, bus mq.MessageQueue) error {
	return bus.Subscribe(ctx, mq.TopicAll, m.HandleMessage)
}

// HandleMessage is an mq.MessageHandler counting events by type
func (m *Metrics) HandleMessage(ctx context.Context, msg *mq.Message) error {
	eventType, ok := mq.EventTypeFromTopic(msg.Topic)
	if !ok {
		m.logger.Debug("Ignoring non-simulator topic", "topic", msg.Topic)
		return nil
	}
	m.Observe(eventType)
	return nil
}

// Observe counts one event of the given type
func (m *Metrics) Observe(t simulator.EventType) {
	m.events.WithLabelValues(string(t)).Inc()
}
