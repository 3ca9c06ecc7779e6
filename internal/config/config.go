package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
)

// ConfigFileEnv names the environment variable pointing at a YAML config file
const ConfigFileEnv = "SIMULATOR_CONFIG"

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Events    EventsConfig    `yaml:"events"`
	Audit     AuditConfig     `yaml:"audit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SimulatorConfig holds the engine and runner settings
type SimulatorConfig struct {
	QueueType          string        `yaml:"queue_type"`
	MaxReceiveCount    int           `yaml:"max_receive_count"`
	FailureProbability float64       `yaml:"failure_probability"`
	ProcessingDuration time.Duration `yaml:"processing_duration"`
	TickInterval       time.Duration `yaml:"tick_interval"`
	MaxInFlight        int           `yaml:"max_in_flight"`
	MaxBatchSize       int           `yaml:"max_batch_size"`

	// Seed makes the run reproducible; 0 means a time-based seed
	Seed int64 `yaml:"seed"`

	// AutoStart starts the real-time runner with the server
	AutoStart bool `yaml:"auto_start"`

	SubscriberBuffer int `yaml:"subscriber_buffer"`
}

// EventsConfig holds event fan-out configuration
type EventsConfig struct {
	BusBufferSize int `yaml:"bus_buffer_size"`
	BusWorkers    int `yaml:"bus_workers"`

	// Publishers lists external destinations: "redis", "nats"
	Publishers []string `yaml:"publishers"`

	RedisURL         string `yaml:"redis_url"`
	RedisHistoryKey  string `yaml:"redis_history_key"`
	RedisHistorySize int64  `yaml:"redis_history_size"`
	NATSURL          string `yaml:"nats_url"`

	// SubjectPrefix is prepended to topics on external brokers
	SubjectPrefix string `yaml:"subject_prefix"`
}

// AuditConfig holds audit archive configuration
type AuditConfig struct {
	Type       string `yaml:"type"`
	MongoURI   string `yaml:"mongo_uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultAPIPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Simulator: SimulatorConfig{
			QueueType:          DefaultQueueType,
			MaxReceiveCount:    DefaultMaxReceiveCount,
			FailureProbability: DefaultFailureProbability,
			ProcessingDuration: DefaultProcessingDuration,
			TickInterval:       DefaultTickInterval,
			MaxInFlight:        DefaultMaxInFlight,
			MaxBatchSize:       DefaultMaxBatchSize,
			AutoStart:          DefaultAutoStart,
			SubscriberBuffer:   DefaultSubscriberBuffer,
		},
		Events: EventsConfig{
			BusBufferSize:    DefaultBusBufferSize,
			BusWorkers:       DefaultBusWorkers,
			RedisURL:         DefaultRedisURL,
			RedisHistoryKey:  DefaultRedisHistoryKey,
			RedisHistorySize: DefaultRedisHistorySize,
			NATSURL:          DefaultNATSURL,
		},
		Audit: AuditConfig{
			Type:       DefaultAuditType,
			MongoURI:   DefaultMongoURI,
			Database:   DefaultMongoDatabase,
			Collection: DefaultMongoCollection,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by path (or SIMULATOR_CONFIG when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	if path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvAsDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Simulator.QueueType = getEnv("QUEUE_TYPE", c.Simulator.QueueType)
	c.Simulator.MaxReceiveCount = getEnvAsInt("MAX_RECEIVE_COUNT", c.Simulator.MaxReceiveCount)
	c.Simulator.FailureProbability = getEnvAsFloat("FAILURE_PROBABILITY", c.Simulator.FailureProbability)
	c.Simulator.ProcessingDuration = getEnvAsDuration("PROCESSING_DURATION", c.Simulator.ProcessingDuration)
	c.Simulator.TickInterval = getEnvAsDuration("TICK_INTERVAL", c.Simulator.TickInterval)
	c.Simulator.MaxInFlight = getEnvAsInt("MAX_IN_FLIGHT", c.Simulator.MaxInFlight)
	c.Simulator.MaxBatchSize = getEnvAsInt("MAX_BATCH_SIZE", c.Simulator.MaxBatchSize)
	c.Simulator.Seed = int64(getEnvAsInt("SIMULATOR_SEED", int(c.Simulator.Seed)))
	c.Simulator.AutoStart = getEnvAsBool("SIMULATOR_AUTO_START", c.Simulator.AutoStart)
	c.Simulator.SubscriberBuffer = getEnvAsInt("SUBSCRIBER_BUFFER", c.Simulator.SubscriberBuffer)

	c.Events.BusBufferSize = getEnvAsInt("BUS_BUFFER_SIZE", c.Events.BusBufferSize)
	c.Events.BusWorkers = getEnvAsInt("BUS_WORKERS", c.Events.BusWorkers)
	c.Events.Publishers = getEnvAsList("EVENT_PUBLISHERS", c.Events.Publishers)
	c.Events.RedisURL = getEnv("REDIS_URL", c.Events.RedisURL)
	c.Events.RedisHistoryKey = getEnv("REDIS_HISTORY_KEY", c.Events.RedisHistoryKey)
	c.Events.RedisHistorySize = int64(getEnvAsInt("REDIS_HISTORY_SIZE", int(c.Events.RedisHistorySize)))
	c.Events.NATSURL = getEnv("NATS_URL", c.Events.NATSURL)
	c.Events.SubjectPrefix = getEnv("EVENT_SUBJECT_PREFIX", c.Events.SubjectPrefix)

	c.Audit.Type = getEnv("AUDIT_TYPE", c.Audit.Type)
	c.Audit.MongoURI = getEnv("MONGODB_URI", c.Audit.MongoURI)
	c.Audit.Database = getEnv("MONGODB_DATABASE", c.Audit.Database)
	c.Audit.Collection = getEnv("MONGODB_COLLECTION", c.Audit.Collection)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as float64 or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList gets a comma-separated environment variable or returns a default value
func getEnvAsList(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}

	out := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d", ErrInvalidConfig, c.Server.Port)
	}

	if _, err := simulator.ParseQueueKind(c.Simulator.QueueType); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.EngineConfig().Validate(); err != nil {
		return err
	}

	if c.Events.BusBufferSize <= 0 {
		return fmt.Errorf("%w: bus buffer size %d", ErrInvalidConfig, c.Events.BusBufferSize)
	}
	if c.Events.BusWorkers <= 0 {
		return fmt.Errorf("%w: bus workers %d", ErrInvalidConfig, c.Events.BusWorkers)
	}
	for _, p := range c.Events.Publishers {
		if p != PublisherRedis && p != PublisherNATS {
			return fmt.Errorf("%w: unknown event publisher %q", ErrInvalidConfig, p)
		}
	}

	switch c.Audit.Type {
	case AuditInMemory:
	case AuditMongoDB:
		if c.Audit.MongoURI == "" {
			return fmt.Errorf("%w: mongodb audit requires MONGODB_URI", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown audit type %q", ErrInvalidConfig, c.Audit.Type)
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Log.Format)
	}

	return nil
}

// HasPublisher reports whether an external publisher is enabled
func (c *Config) HasPublisher(name string) bool {
	for _, p := range c.Events.Publishers {
		if p == name {
			return true
		}
	}
	return false
}

// EngineConfig converts the simulator section to an engine configuration
func (c *Config) EngineConfig() simulator.Config {
	kind, _ := simulator.ParseQueueKind(c.Simulator.QueueType)

	cfg := simulator.Config{
		InitialQueue:       kind,
		MaxReceiveCount:    c.Simulator.MaxReceiveCount,
		FailureProbability: c.Simulator.FailureProbability,
		ProcessingDuration: c.Simulator.ProcessingDuration,
		TickInterval:       c.Simulator.TickInterval,
		MaxInFlight:        c.Simulator.MaxInFlight,
		MaxBatchSize:       c.Simulator.MaxBatchSize,
	}
	if c.Simulator.Seed != 0 {
		cfg.Random = simulator.NewSeededRandom(c.Simulator.Seed)
	}
	return cfg
}

// Address returns host:port for the HTTP listener
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalidConfig, level)
	}
}
