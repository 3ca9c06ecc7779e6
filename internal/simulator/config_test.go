package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero failure probability", func(c *Config) { c.FailureProbability = 0 }, false},
		{"certain failure", func(c *Config) { c.FailureProbability = 1 }, false},
		{"negative probability", func(c *Config) { c.FailureProbability = -0.1 }, true},
		{"probability above one", func(c *Config) { c.FailureProbability = 1.5 }, true},
		{"zero receive count", func(c *Config) { c.MaxReceiveCount = 0 }, true},
		{"negative duration", func(c *Config) { c.ProcessingDuration = -time.Second }, true},
		{"zero tick", func(c *Config) { c.TickInterval = 0 }, true},
		{"zero in-flight", func(c *Config) { c.MaxInFlight = 0 }, true},
		{"negative batch size", func(c *Config) { c.MaxBatchSize = -1 }, true},
		{"unknown queue", func(c *Config) { c.InitialQueue = "priority" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewEngine_FillsZeroValues(t *testing.T) {
	engine, err := NewEngine(Config{}, nil)
	assert.NoError(t, err)

	cfg := engine.Config()
	assert.Equal(t, QueueStandard, cfg.InitialQueue)
	assert.Equal(t, DefaultMaxReceiveCount, cfg.MaxReceiveCount)
	assert.Equal(t, 0.0, cfg.FailureProbability)
	assert.Equal(t, DefaultProcessingDuration, cfg.ProcessingDuration)
	assert.Equal(t, DefaultTickInterval, cfg.TickInterval)
	assert.Equal(t, DefaultMaxInFlight, cfg.MaxInFlight)
	assert.Equal(t, DefaultMaxBatchSize, cfg.MaxBatchSize)
	assert.NotNil(t, cfg.Random)
	assert.NotNil(t, cfg.Clock)
	assert.NotEmpty(t, engine.ID())
}

func TestNewEngine_RejectsInvalidConfig(t *testing.T) {
	_, err := NewEngine(Config{FailureProbability: 2}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDescriptors(t *testing.T) {
	all := Descriptors()
	assert.Len(t, all, 3)
	assert.Equal(t, "Standard Queue", all[0].Title)
	assert.Equal(t, "FIFO Queue (.fifo)", all[1].Title)
	assert.Contains(t, all[1].Properties, "Message Deduplication")
	assert.Equal(t, "Dead Letter Queue", all[2].Title)

	// Callers cannot alter the shared descriptor table.
	d := Describe(QueueStandard)
	d.Properties[0] = "changed"
	assert.Equal(t, "High Throughput", Describe(QueueStandard).Properties[0])
}
