// Package display provides unified output formatting for the orc CLI.
// It visually separates orchestrator narration from worker output.
package display

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// Display handles all CLI output with visual hierarchy
type Display struct {
	theme     *Theme
	termWidth int
	noColor   bool
}

// TokenStats holds token usage info for display
type TokenStats struct {
	TotalTokens int
	Threshold   int
}

// New creates a new Display instance
func New() *Display {
	return NewWithOptions(false)
}

// NewWithOptions creates a Display with configuration
func NewWithOptions(noColor bool) *Display {
	d := &Display{
		termWidth: getTerminalWidth(),
		noColor:   noColor,
	}
	if noColor {
		d.theme = NoColorTheme()
	} else {
		d.theme = DefaultTheme()
	}
	return d
}

// getTerminalWidth returns the terminal width, defaulting to 80
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 40 {
		return 80
	}
	if width > 120 {
		return 120 // Cap at 120 for readability
	}
	return width
}

// Box prints a boxed message with a custom title.
func (d *Display) Box(title string, lines ...string) {
	if len(lines) == 0 {
		return
	}

	width := d.termWidth - 2
	titleLen := len(title) + 4 // "─ TITLE "
	remainingWidth := width - titleLen

	topLine := BoxTopLeft + BoxHorizontal + " " + title + " " + strings.Repeat(BoxHorizontal, remainingWidth) + BoxTopRight
	fmt.Println(d.theme.OrcBorder(topLine))

	for _, line := range lines {
		paddedLine := d.padRight(line, width-2)
		fmt.Println(d.theme.OrcBorder(BoxVertical) + " " + d.theme.OrcText(paddedLine) + " " + d.theme.OrcBorder(BoxVertical))
	}

	bottomLine := BoxBottomLeft + strings.Repeat(BoxHorizontal, width) + BoxBottomRight
	fmt.Println(d.theme.OrcBorder(bottomLine))
}

// StatusLine prints a single-line status message (no box).
func (d *Display) StatusLine(symbol, message string) {
	timestamp := time.Now().Format("[15:04:05]")
	fmt.Printf("%s %s %s\n",
		d.theme.OrcBorder(timestamp),
		symbol,
		d.theme.OrcText(message))
}

// Success prints a success message with green checkmark
func (d *Display) Success(message string) {
	d.StatusLine(d.theme.Success(SymbolSuccess), message)
}

// Error prints an error message with red X
func (d *Display) Error(message string) {
	d.StatusLine(d.theme.Error(SymbolError), message)
}

// Warning prints a warning message with yellow triangle
func (d *Display) Warning(message string) {
	d.StatusLine(d.theme.Warning(SymbolWarning), message)
}

// Info prints an info message with cyan indicator
func (d *Display) Info(label, message string) {
	d.StatusLine(d.theme.Info(label+":"), message)
}

// Resume prints a resume/bailout message with cyan arrow
func (d *Display) Resume(message string) {
	d.StatusLine(d.theme.Info(SymbolResume), message)
}

// WorkerStart prints a header when the worker session begins.
func (d *Display) WorkerStart() {
	timestamp := time.Now().Format("[15:04:05]")
	fmt.Printf("  %s %s Sending to worker...\n",
		d.theme.Dim(timestamp),
		d.theme.WorkerTimestamp(GutterWorker))
}

// wrapText wraps text to specified width, returns at most 5 lines
func (d *Display) wrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		maxWidth = 80
	}

	text = strings.TrimSpace(text)
	if len(text) <= maxWidth {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len()+len(word)+1 > maxWidth {
			if currentLine.Len() > 0 {
				lines = append(lines, currentLine.String())
				currentLine.Reset()
			}
		}
		if currentLine.Len() > 0 {
			currentLine.WriteString(" ")
		}
		currentLine.WriteString(word)
	}
	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	// Limit to 5 lines
	if len(lines) > 5 {
		lines = lines[:5]
		if len(lines[4]) > maxWidth-3 {
			lines[4] = lines[4][:maxWidth-3]
		}
		lines[4] = lines[4] + "..."
	}

	return lines
}

// Worker prints worker output with left gutter indicator.
func (d *Display) Worker(text string, toolCount int) {
	timestamp := time.Now().Format("[15:04:05]")
	gutter := d.theme.WorkerTimestamp(GutterWorker)

	toolStr := ""
	if toolCount > 0 {
		toolStr = fmt.Sprintf(" %s", d.theme.WorkerToolCount(fmt.Sprintf("[%d]", toolCount)))
	}

	lines := d.wrapText(text, d.termWidth-20)

	for i, line := range lines {
		if i == 0 {
			fmt.Printf("  %s %s%s %s\n", gutter, d.theme.Dim(timestamp), toolStr, d.theme.WorkerText(line))
		} else {
			fmt.Printf("  %s %s%s\n", d.theme.WorkerTimestamp(GutterDot), strings.Repeat(" ", 10), d.theme.WorkerText(line))
		}
	}
}

// WorkerWithTokens prints worker output with token stats.
func (d *Display) WorkerWithTokens(text string, toolCount int, tokens TokenStats) {
	timestamp := time.Now().Format("[15:04:05]")
	gutter := d.theme.WorkerTimestamp(GutterWorker)

	toolStr := ""
	if toolCount > 0 {
		toolStr = fmt.Sprintf(" %s", d.theme.WorkerToolCount(fmt.Sprintf("[%d]", toolCount)))
	}

	tokenStr := fmt.Sprintf(" %s", d.theme.Dim(fmt.Sprintf("[%dK/%dK]", tokens.TotalTokens/1000, tokens.Threshold/1000)))

	lines := d.wrapText(text, d.termWidth-30)

	for i, line := range lines {
		if i == 0 {
			fmt.Printf("  %s %s%s%s %s\n", gutter, d.theme.Dim(timestamp), toolStr, tokenStr, d.theme.WorkerText(line))
		} else {
			fmt.Printf("  %s %s%s\n", d.theme.WorkerTimestamp(GutterDot), strings.Repeat(" ", 20), d.theme.WorkerText(line))
		}
	}
}

// WorkerDone prints a worker completion message (indented).
func (d *Display) WorkerDone(result string) {
	timestamp := time.Now().Format("[15:04:05]")
	line := fmt.Sprintf("%s%s %s %s",
		IndentWorker,
		d.theme.WorkerTimestamp(timestamp),
		d.theme.WorkerToolCount("[Done]"),
		d.theme.WorkerText(result))
	fmt.Println(line)
}

// PhaseBanner prints the banner marking which phase is now executing.
func (d *Display) PhaseBanner(id, title string, index, total int) {
	banner := fmt.Sprintf(">>> PHASE %s/%d: %s — %s <<<", id, total, title, "running")
	_ = index
	fmt.Printf("\n%s%s\n\n", IndentWorker, d.theme.OrcLabel(banner))
}

// SectionBreak prints a horizontal separator for phase boundaries.
func (d *Display) SectionBreak() {
	width := d.termWidth
	fmt.Println(d.theme.Separator(strings.Repeat(SectionBreak, width)))
}

// RunStart prints the run header.
func (d *Display) RunStart(planName string, phaseCount int) {
	d.SectionBreak()
	fmt.Println(d.theme.Bold(fmt.Sprintf("=== orc run: %s (%d phases) ===", planName, phaseCount)))
	d.SectionBreak()
}

// RunComplete prints the run completion message.
func (d *Display) RunComplete(completed int) {
	fmt.Printf("\n%s All phases complete.\n", d.theme.Success(SymbolSuccess))
	fmt.Printf("   %d phases completed.\n", completed)
}

// RunFailed prints the run failure message.
func (d *Display) RunFailed(phaseID string, err error) {
	fmt.Printf("\n%s Phase %s failed.\n", d.theme.Error(SymbolError), phaseID)
	if err != nil {
		fmt.Printf("   Error: %v\n", err)
	}
	fmt.Println("Run 'orc status' for details.")
}

// Tokens prints token usage stats in a status line.
func (d *Display) Tokens(total, input, output int) {
	line := fmt.Sprintf("Tokens: %d (in: %d, out: %d)", total, input, output)
	d.StatusLine(d.theme.Dim(""), line)
}

// Duration prints execution duration
func (d *Display) Duration(dur time.Duration) {
	fmt.Printf("   Duration: %s\n", dur.Round(time.Second))
}

// Theme returns the current theme for external use
func (d *Display) Theme() *Theme {
	return d.theme
}

// padRight pads a string to the specified width
func (d *Display) padRight(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Truncate truncates text to max length with ellipsis
func Truncate(s string, max int) string {
	s = CleanText(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// CleanText removes newlines and collapses spaces
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}
