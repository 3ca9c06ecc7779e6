package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRedisPublisherClosed = errors.New("redis publisher is closed")
	ErrRedisConnection      = errors.New("redis connection failed")
)

// RedisPublisher fans simulator events out over Redis pub/sub. It also keeps
// a capped history list so late-joining viewers can replay recent events.
type RedisPublisher struct {
	client        *redis.Client
	logger        *slog.Logger
	channelPrefix string
	historyKey    string
	historySize   int64

	totalPublished atomic.Int64
	totalErrors    atomic.Int64
	closed         atomic.Bool
}

// RedisPublisherConfig configuration for the Redis publisher
type RedisPublisherConfig struct {
	RedisURL      string
	ChannelPrefix string
	HistoryKey    string
	HistorySize   int64
	PoolSize      int
}

// NewRedisPublisher connects to Redis and verifies the connection
func NewRedisPublisher(config RedisPublisherConfig, logger *slog.Logger) (*RedisPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if config.HistoryKey == "" {
		config.HistoryKey = "sqs.simulator.history"
	}
	if config.HistorySize == 0 {
		config.HistorySize = 100
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.PoolSize = config.PoolSize

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrRedisConnection, err)
	}

	logger.Info("Redis publisher initialized",
		"redis_url", config.RedisURL,
		"channel_prefix", config.ChannelPrefix,
		"history_key", config.HistoryKey,
	)

	return &RedisPublisher{
		client:        client,
		logger:        logger.With("component", "redis_publisher"),
		channelPrefix: config.ChannelPrefix,
		historyKey:    config.HistoryKey,
		historySize:   config.HistorySize,
	}, nil
}

// Publish sends the message on channel <prefix><topic> and appends it to the history list
func (p *RedisPublisher) Publish(ctx context.Context, msg *Message) error {
	if p.closed.Load() {
		return ErrRedisPublisherClosed
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	channel := p.channelPrefix + msg.Topic

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, channel, data)
		pipe.LPush(ctx, p.historyKey, data)
		pipe.LTrim(ctx, p.historyKey, 0, p.historySize-1)
		return nil
	})
	if err != nil {
		p.totalErrors.Add(1)
		return fmt.Errorf("failed to publish to redis channel %s: %w", channel, err)
	}

	p.totalPublished.Add(1)
	p.logger.Debug("Event published",
		"channel", channel,
		"message_id", msg.ID,
	)

	return nil
}

// History returns up to n most recent messages, newest first
func (p *RedisPublisher) History(ctx context.Context, n int64) ([]*Message, error) {
	if n <= 0 {
		n = p.historySize
	}

	raw, err := p.client.LRange(ctx, p.historyKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read event history: %w", err)
	}

	out := make([]*Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			p.logger.Warn("Skipping malformed history entry", "error", err)
			continue
		}
		out = append(out, &msg)
	}
	return out, nil
}

// Stats returns publisher counters
func (p *RedisPublisher) Stats() QueueStats {
	return QueueStats{
		TotalPublished: p.totalPublished.Load(),
		TotalErrors:    p.totalErrors.Load(),
	}
}

// Close releases the Redis client
func (p *RedisPublisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.client.Close()
}
