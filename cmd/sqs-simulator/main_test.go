package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runDemoArgs(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"demo"}, args...))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestDemo_Deterministic(t *testing.T) {
	args := []string{"--queue", "fifo", "--messages", "3", "--ticks", "15", "--seed", "42", "--failure-probability", "0.5"}

	first := runDemoArgs(t, args...)
	second := runDemoArgs(t, args...)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "FIFO Queue (.fifo)")
	assert.Contains(t, first, "Batch of 3 messages sent")
	assert.Contains(t, first, "Processing: Demo Message 1")
}

func TestDemo_NoFailures(t *testing.T) {
	out := runDemoArgs(t, "--queue", "standard", "--messages", "2", "--ticks", "10", "--failure-probability", "0")

	assert.Contains(t, out, "Successfully processed: Demo Message 1")
	assert.Contains(t, out, "Successfully processed: Demo Message 2")
	assert.Contains(t, out, "sent=2 processed=2 failed=0")
}

func TestDefaultServerURL(t *testing.T) {
	t.Setenv(ServerURLEnv, "")
	assert.Equal(t, "http://localhost:8080", defaultServerURL())

	t.Setenv(ServerURLEnv, "http://simulator:9090")
	assert.Equal(t, "http://simulator:9090", defaultServerURL())
}
