package config

import "time"

// Default configuration values
const (
	// HTTP server defaults
	DefaultHost            = "0.0.0.0"
	DefaultAPIPort         = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Simulator defaults mirror the classroom demo
	DefaultQueueType          = "standard"
	DefaultMaxReceiveCount    = 3
	DefaultFailureProbability = 0.1
	DefaultProcessingDuration = 3 * time.Second
	DefaultTickInterval       = 2 * time.Second
	DefaultMaxInFlight        = 1
	DefaultMaxBatchSize       = 1000
	DefaultSubscriberBuffer   = 256
	DefaultAutoStart          = true

	// Event bus defaults
	DefaultBusBufferSize    = 1000
	DefaultBusWorkers       = 16
	DefaultRedisURL         = "redis://localhost:6379/0"
	DefaultRedisHistoryKey  = "sqs.simulator.history"
	DefaultRedisHistorySize = 100
	DefaultNATSURL          = "nats://localhost:4222"

	// Audit defaults
	DefaultAuditType       = "inmemory"
	DefaultMongoURI        = "mongodb://localhost:27017"
	DefaultMongoDatabase   = "sqs_simulator"
	DefaultMongoCollection = "audit"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Client defaults
	DefaultServerURL     = "http://localhost:8080"
	DefaultClientTimeout = 10 * time.Second
)

// Supported event publishers besides the in-process bus
const (
	PublisherRedis = "redis"
	PublisherNATS  = "nats"
)

// Supported audit repositories
const (
	AuditInMemory = "inmemory"
	AuditMongoDB  = "mongodb"
)
