// Package budget tracks a phase attempt's context-window consumption
// and decides when a cooperative restart is warranted.
package budget

import "github.com/arcflow-dev/orc/internal/streamparse"

// Thresholds configures when ShouldRestart trips.
type Thresholds struct {
	// ContextPercent is the fraction (0-100) of the context window that,
	// once consumed, triggers a restart.
	ContextPercent float64
	// ToolCallCount is a fallback trigger for workers whose stream never
	// reports usable token stats.
	ToolCallCount int
}

// DefaultThresholds mirrors the orchestrator's default config.
var DefaultThresholds = Thresholds{ContextPercent: 80.0, ToolCallCount: 100}

// Estimator accumulates token usage and tool-call counts for a single
// phase attempt.
type Estimator struct {
	thresholds   Thresholds
	toolCalls    int
	latestStats  streamparse.TokenStats
}

func New(thresholds Thresholds) *Estimator {
	return &Estimator{thresholds: thresholds}
}

// RecordToolUse counts one tool invocation toward the fallback trigger.
func (e *Estimator) RecordToolUse() {
	e.toolCalls++
}

// RecordTokenStats updates the estimator's view of the latest reported
// usage.
func (e *Estimator) RecordTokenStats(stats streamparse.TokenStats) {
	e.latestStats = stats
}

// ShouldRestart reports whether the current attempt has crossed either
// the context-percentage threshold (when a context window is known) or
// the tool-call count fallback.
func (e *Estimator) ShouldRestart() bool {
	if e.latestStats.ContextWindow > 0 {
		used := e.latestStats.InputTokens + e.latestStats.OutputTokens + e.latestStats.CacheReadTokens
		percent := float64(used) / float64(e.latestStats.ContextWindow) * 100
		if percent >= e.thresholds.ContextPercent {
			return true
		}
	}
	return e.toolCalls >= e.thresholds.ToolCallCount
}

// Reset clears accumulated state for a new attempt.
func (e *Estimator) Reset() {
	e.toolCalls = 0
	e.latestStats = streamparse.TokenStats{}
}
