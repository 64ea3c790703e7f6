package display

import "github.com/fatih/color"

// Box drawing characters
const (
	BoxTopLeft     = "┌"
	BoxTopRight    = "┐"
	BoxBottomLeft  = "└"
	BoxBottomRight = "┘"
	BoxHorizontal  = "─"
	BoxVertical    = "│"
	SectionBreak   = "━"
)

// Status symbols
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolResume  = "↻"
	SymbolPending = "○"
	SymbolPartial = "◐"
)

// Gutter markers distinguish orchestrator narration from worker output
// in the left margin of the log.
const (
	GutterWorker = "│"
	GutterDot    = "·"
)

// IndentWorker is the indentation for worker output.
const IndentWorker = "  "

// Theme holds all color functions for consistent styling
type Theme struct {
	// Orchestrator narration (prominent)
	OrcBorder func(a ...interface{}) string
	OrcLabel  func(a ...interface{}) string
	OrcText   func(a ...interface{}) string

	// Worker output (subdued)
	WorkerTimestamp func(a ...interface{}) string
	WorkerText      func(a ...interface{}) string
	WorkerToolCount func(a ...interface{}) string

	// Status indicators
	Success func(a ...interface{}) string
	Error   func(a ...interface{}) string
	Warning func(a ...interface{}) string
	Info    func(a ...interface{}) string

	// Structural elements
	Bold      func(a ...interface{}) string
	Dim       func(a ...interface{}) string
	Separator func(a ...interface{}) string
}

// DefaultTheme creates the default color theme
func DefaultTheme() *Theme {
	return &Theme{
		OrcBorder: color.New(color.FgCyan).SprintFunc(),
		OrcLabel:  color.New(color.FgCyan, color.Bold).SprintFunc(),
		OrcText:   color.New(color.FgWhite).SprintFunc(),

		// Worker output - dimmer/gray to distinguish from orchestrator lines
		WorkerTimestamp: color.New(color.FgHiBlack).SprintFunc(),
		WorkerText:      color.New(color.FgWhite).SprintFunc(),
		WorkerToolCount: color.New(color.FgHiBlack).SprintFunc(),

		// Status indicators
		Success: color.New(color.FgGreen).SprintFunc(),
		Error:   color.New(color.FgRed).SprintFunc(),
		Warning: color.New(color.FgYellow).SprintFunc(),
		Info:    color.New(color.FgCyan).SprintFunc(),

		// Structural
		Bold:      color.New(color.Bold).SprintFunc(),
		Dim:       color.New(color.FgHiBlack).SprintFunc(),
		Separator: color.New(color.FgCyan).SprintFunc(),
	}
}

// NoColorTheme creates a theme without colors (for --no-color flag or non-TTY)
func NoColorTheme() *Theme {
	identity := func(a ...interface{}) string {
		if len(a) == 0 {
			return ""
		}
		return a[0].(string)
	}
	return &Theme{
		OrcBorder:       identity,
		OrcLabel:        identity,
		OrcText:         identity,
		WorkerTimestamp: identity,
		WorkerText:      identity,
		WorkerToolCount: identity,
		Success:         identity,
		Error:           identity,
		Warning:         identity,
		Info:            identity,
		Bold:            identity,
		Dim:             identity,
		Separator:       identity,
	}
}
