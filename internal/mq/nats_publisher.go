package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

var ErrNATSPublisherClosed = errors.New("nats publisher is closed")

// NATSPublisher publishes simulator events on NATS subjects <prefix><topic>
type NATSPublisher struct {
	conn          *nats.Conn
	logger        *slog.Logger
	subjectPrefix string

	totalPublished atomic.Int64
	totalErrors    atomic.Int64
	closed         atomic.Bool
}

// NATSPublisherConfig configuration for the NATS publisher
type NATSPublisherConfig struct {
	URL           string
	SubjectPrefix string
	ClientName    string
	Timeout       time.Duration
}

// NewNATSPublisher connects to the NATS server
func NewNATSPublisher(config NATSPublisherConfig, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.URL == "" {
		config.URL = nats.DefaultURL
	}
	if config.ClientName == "" {
		config.ClientName = "sqs-simulator"
	}
	if config.Timeout == 0 {
		config.Timeout = 2 * time.Second
	}

	log := logger.With("component", "nats_publisher")

	conn, err := nats.Connect(config.URL,
		nats.Name(config.ClientName),
		nats.Timeout(config.Timeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info("NATS publisher initialized",
		"url", config.URL,
		"subject_prefix", config.SubjectPrefix,
	)

	return &NATSPublisher{
		conn:          conn,
		logger:        log,
		subjectPrefix: config.SubjectPrefix,
	}, nil
}

// Publish sends the message payload with its headers as NATS headers
func (p *NATSPublisher) Publish(ctx context.Context, msg *Message) error {
	if p.closed.Load() {
		return ErrNATSPublisherClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	out := nats.NewMsg(p.subjectPrefix + msg.Topic)
	out.Data = msg.Payload
	out.Header.Set("Nats-Msg-Id", msg.ID)
	for k, v := range msg.Headers {
		out.Header.Set(k, v)
	}

	if err := p.conn.PublishMsg(out); err != nil {
		p.totalErrors.Add(1)
		return fmt.Errorf("failed to publish to subject %s: %w", out.Subject, err)
	}

	p.totalPublished.Add(1)
	p.logger.Debug("Event published",
		"subject", out.Subject,
		"message_id", msg.ID,
	)

	return nil
}

// Stats returns publisher counters
func (p *NATSPublisher) Stats() QueueStats {
	return QueueStats{
		TotalPublished: p.totalPublished.Load(),
		TotalErrors:    p.totalErrors.Load(),
	}
}

// Close flushes pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.conn.Drain()
}
