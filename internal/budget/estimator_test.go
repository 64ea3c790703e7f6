package budget

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcflow-dev/orc/internal/streamparse"
)

func TestShouldRestartOnContextPercent(t *testing.T) {
	e := New(Thresholds{ContextPercent: 80, ToolCallCount: 1000})
	e.RecordTokenStats(streamparse.TokenStats{InputTokens: 85_000, ContextWindow: 100_000})

	require.True(t, e.ShouldRestart())
}

func TestShouldRestartBelowThreshold(t *testing.T) {
	e := New(Thresholds{ContextPercent: 80, ToolCallCount: 1000})
	e.RecordTokenStats(streamparse.TokenStats{InputTokens: 10_000, ContextWindow: 100_000})

	require.False(t, e.ShouldRestart())
}

func TestShouldRestartOnToolCallFallback(t *testing.T) {
	e := New(Thresholds{ContextPercent: 80, ToolCallCount: 3})
	for i := 0; i < 3; i++ {
		e.RecordToolUse()
	}

	require.True(t, e.ShouldRestart())
}

func TestResetClearsState(t *testing.T) {
	e := New(DefaultThresholds)
	e.RecordToolUse()
	e.RecordTokenStats(streamparse.TokenStats{InputTokens: 1000, ContextWindow: 2000})

	e.Reset()

	require.False(t, e.ShouldRestart())
}
