package simulator

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 1, 18, 12, 0, 0, 0, time.UTC)

// scriptedRandom replays fixed values; when a script runs out Intn returns 0
// and Float64 returns 0.99 (a successful attempt for any probability below 0.99).
type scriptedRandom struct {
	ints   []int
	floats []float64
}

func (r *scriptedRandom) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func (r *scriptedRandom) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, kind QueueKind, mutate ...func(*Config)) *Engine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.InitialQueue = kind
	cfg.Random = &scriptedRandom{}
	cfg.Clock = func() time.Time { return baseTime }
	for _, m := range mutate {
		m(&cfg)
	}

	engine, err := NewEngine(cfg, testLogger())
	require.NoError(t, err)
	return engine
}

func contents(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}

// tickAt returns the time of the n-th dispatch timer firing
func tickAt(n int) time.Time {
	return baseTime.Add(time.Duration(n) * DefaultTickInterval)
}
