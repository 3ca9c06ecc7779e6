package simulator

import (
	"fmt"
	"time"
)

// Default simulation parameters, taken from the classroom demo
const (
	DefaultMaxReceiveCount    = 3
	DefaultFailureProbability = 0.1
	DefaultProcessingDuration = 3 * time.Second
	DefaultTickInterval       = 2 * time.Second
	DefaultMaxInFlight        = 1
	DefaultSubscriberBuffer   = 64
	DefaultMaxBatchSize       = 1000
)

// Config holds the engine's global settings. Clear and SwitchQueue never touch it.
type Config struct {
	// InitialQueue is the queue kind active after construction
	InitialQueue QueueKind

	// MaxReceiveCount is the attempt cap before a message is dead-lettered
	MaxReceiveCount int

	// FailureProbability is the chance that a processing attempt fails.
	// Zero is a valid value and is not replaced by the default.
	FailureProbability float64

	// ProcessingDuration is how long a message stays in flight
	ProcessingDuration time.Duration

	// TickInterval is the dispatch timer period used by Runner
	TickInterval time.Duration

	// MaxInFlight bounds the number of messages processed concurrently
	MaxInFlight int

	// MaxBatchSize caps the Count of a single EnqueueBatch call
	MaxBatchSize int

	// Random overrides the random source (tests pass a seeded one)
	Random RandomSource

	// Clock overrides time.Now for message timestamps
	Clock func() time.Time
}

// DefaultConfig returns the demo's settings
func DefaultConfig() Config {
	return Config{
		InitialQueue:       QueueStandard,
		MaxReceiveCount:    DefaultMaxReceiveCount,
		FailureProbability: DefaultFailureProbability,
		ProcessingDuration: DefaultProcessingDuration,
		TickInterval:       DefaultTickInterval,
		MaxInFlight:        DefaultMaxInFlight,
		MaxBatchSize:       DefaultMaxBatchSize,
	}
}

// withDefaults fills zero-valued fields except FailureProbability
func (c Config) withDefaults() Config {
	if c.InitialQueue == "" {
		c.InitialQueue = QueueStandard
	}
	if c.MaxReceiveCount == 0 {
		c.MaxReceiveCount = DefaultMaxReceiveCount
	}
	if c.ProcessingDuration == 0 {
		c.ProcessingDuration = DefaultProcessingDuration
	}
	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.MaxInFlight == 0 {
		c.MaxInFlight = DefaultMaxInFlight
	}
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.Random == nil {
		c.Random = newDefaultRandom()
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// Validate checks the ranges of every setting
func (c Config) Validate() error {
	if !c.InitialQueue.Valid() {
		return fmt.Errorf("%w: initial queue %q", ErrInvalidConfig, c.InitialQueue)
	}
	if c.MaxReceiveCount < 1 {
		return fmt.Errorf("%w: max receive count must be >= 1, got %d", ErrInvalidConfig, c.MaxReceiveCount)
	}
	if c.FailureProbability < 0 || c.FailureProbability > 1 {
		return fmt.Errorf("%w: failure probability must be in [0,1], got %v", ErrInvalidConfig, c.FailureProbability)
	}
	if c.ProcessingDuration <= 0 {
		return fmt.Errorf("%w: processing duration must be positive, got %v", ErrInvalidConfig, c.ProcessingDuration)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive, got %v", ErrInvalidConfig, c.TickInterval)
	}
	if c.MaxInFlight < 1 {
		return fmt.Errorf("%w: max in-flight must be >= 1, got %d", ErrInvalidConfig, c.MaxInFlight)
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("%w: max batch size must be >= 1, got %d", ErrInvalidConfig, c.MaxBatchSize)
	}
	return nil
}
