// Package streamparse decodes the worker CLI's line-delimited
// stream-json output into display-ready events.
package streamparse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const defaultActiveAgent = "Debussy"

// TokenStats is token usage extracted from one assistant or result
// event. Assistant events carry a default 200,000-token context window;
// the final "result" event carries the model's reported window and is
// followed by a second TokenStats holding only the cost.
type TokenStats struct {
	InputTokens        int
	OutputTokens       int
	CacheReadTokens    int
	CacheCreationTokens int
	CostUSD            float64
	ContextWindow       int
}

// ToolUse is a single tool invocation surfaced by the worker.
type ToolUse struct {
	ID          string
	Name        string
	DisplayText string
}

// Callbacks receives parsed stream events. Any nil field is treated as
// a no-op.
type Callbacks struct {
	OnText       func(text string, newline bool)
	OnToolUse    func(tool ToolUse)
	OnToolResult func(toolUseID, content string)
	OnTokenStats func(stats TokenStats)
	OnAgentChange func(agent string)
}

// Parser consumes one worker session's raw JSONL output line by line.
type Parser struct {
	callbacks     Callbacks
	currentAgent  string
	pendingTasks  map[string]string // tool_use_id -> subagent_type
	debugWriter   io.Writer
}

// New creates a Parser. debugWriter, if non-nil, receives every raw
// line verbatim before it is parsed.
func New(callbacks Callbacks, debugWriter io.Writer) *Parser {
	return &Parser{
		callbacks:    callbacks,
		currentAgent: defaultActiveAgent,
		pendingTasks: map[string]string{},
		debugWriter:  debugWriter,
	}
}

// Run reads newline-delimited events from r until EOF or error.
func (p *Parser) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	for scanner.Scan() {
		p.ParseLine(scanner.Text())
	}
	return scanner.Err()
}

// ParseLine parses a single line of stream output. Non-JSON lines are
// surfaced as plain text.
func (p *Parser) ParseLine(line string) {
	if line == "" {
		return
	}
	if p.debugWriter != nil {
		fmt.Fprintln(p.debugWriter, line)
	}

	var event rawEvent
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		p.emitText(line, true)
		return
	}

	switch event.Type {
	case "assistant":
		p.handleAssistant(event)
	case "content_block_delta":
		p.handleContentBlockDelta(event)
	case "user":
		p.handleUser(event)
	case "result":
		p.handleResult(event)
	}
}

type rawEvent struct {
	Type    string          `json:"type"`
	Message *rawMessage     `json:"message,omitempty"`
	Delta   *rawDelta       `json:"delta,omitempty"`
	Result  string          `json:"result,omitempty"`
	Usage   *rawUsage       `json:"usage,omitempty"`
	ModelUsage map[string]rawModelUsage `json:"modelUsage,omitempty"`
	CostUSD *float64        `json:"total_cost_usd,omitempty"`
}

type rawMessage struct {
	Role    string          `json:"role"`
	Content []rawContent    `json:"content,omitempty"`
	Usage   *rawUsage       `json:"usage,omitempty"`
	Model   string          `json:"model,omitempty"`
}

type rawContent struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
}

type rawDelta struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type rawUsage struct {
	InputTokens             int `json:"input_tokens"`
	OutputTokens            int `json:"output_tokens"`
	CacheReadInputTokens    int `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
}

type rawModelUsage struct {
	ContextWindow int `json:"contextWindow"`
}

func (p *Parser) emitText(text string, newline bool) {
	if p.callbacks.OnText != nil {
		p.callbacks.OnText(text, newline)
	}
}

func (p *Parser) setActiveAgent(agent string) {
	if agent == p.currentAgent {
		return
	}
	p.currentAgent = agent
	if p.callbacks.OnAgentChange != nil {
		p.callbacks.OnAgentChange(agent)
	}
}

func (p *Parser) handleAssistant(event rawEvent) {
	if event.Message == nil {
		return
	}
	if event.Message.Usage != nil {
		p.reportUsage(*event.Message.Usage, 200_000, "")
	}
	for _, block := range event.Message.Content {
		switch block.Type {
		case "text":
			p.emitText(block.Text, true)
		case "tool_use":
			p.handleToolUse(block)
		}
	}
}

func (p *Parser) handleContentBlockDelta(event rawEvent) {
	if event.Delta == nil {
		return
	}
	if event.Delta.Type == "text_delta" {
		p.emitText(event.Delta.Text, false)
	}
}

func (p *Parser) handleUser(event rawEvent) {
	if event.Message == nil {
		return
	}
	for _, block := range event.Message.Content {
		if block.Type == "tool_result" {
			p.handleToolResult(block)
		}
	}
}

func (p *Parser) handleResult(event rawEvent) {
	var costUSD float64
	if event.CostUSD != nil {
		costUSD = *event.CostUSD
	}
	contextWindow := 200_000
	for _, mu := range event.ModelUsage {
		if mu.ContextWindow > 0 {
			contextWindow = mu.ContextWindow
			break
		}
	}
	if event.Usage != nil {
		p.reportUsage(*event.Usage, contextWindow, "")
	}
	if p.callbacks.OnTokenStats != nil {
		p.callbacks.OnTokenStats(TokenStats{CostUSD: costUSD, ContextWindow: contextWindow})
	}
	if event.Result != "" {
		p.emitText(event.Result, true)
	}
}

func (p *Parser) reportUsage(u rawUsage, contextWindow int, _ string) {
	if p.callbacks.OnTokenStats == nil {
		return
	}
	p.callbacks.OnTokenStats(TokenStats{
		InputTokens:         u.InputTokens,
		OutputTokens:        u.OutputTokens,
		CacheReadTokens:     u.CacheReadInputTokens,
		CacheCreationTokens: u.CacheCreationInputTokens,
		ContextWindow:       contextWindow,
	})
}

// toolDisplayText renders a short, tool-specific description the way
// the console display shows it, mirroring each tool's own summary
// format (filenames for file tools, truncated commands for Bash, etc).
func toolDisplayText(name string, input json.RawMessage) string {
	var fields map[string]any
	_ = json.Unmarshal(input, &fields)

	switch name {
	case "Read", "Write", "Edit":
		if p, ok := fields["file_path"].(string); ok {
			return filepath.Base(p)
		}
	case "Bash":
		if cmd, ok := fields["command"].(string); ok {
			return truncate(cmd, 60)
		}
	case "Glob", "Grep":
		if pat, ok := fields["pattern"].(string); ok {
			return pat
		}
	case "TodoWrite":
		if items, ok := fields["todos"].([]any); ok {
			return fmt.Sprintf("%d items", len(items))
		}
	case "Task":
		if desc, ok := fields["description"].(string); ok {
			return desc
		}
	}
	return name
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func (p *Parser) handleToolUse(block rawContent) {
	display := toolDisplayText(block.Name, block.Input)

	if block.Name == "Task" {
		var fields map[string]any
		_ = json.Unmarshal(block.Input, &fields)
		subagent, _ := fields["subagent_type"].(string)
		if subagent == "" {
			subagent = "general-purpose"
		}
		p.pendingTasks[block.ID] = subagent
		p.setActiveAgent(subagent)
	}

	if p.callbacks.OnToolUse != nil {
		p.callbacks.OnToolUse(ToolUse{ID: block.ID, Name: block.Name, DisplayText: display})
	}
}

func (p *Parser) handleToolResult(block rawContent) {
	if _, pending := p.pendingTasks[block.ToolUseID]; pending {
		delete(p.pendingTasks, block.ToolUseID)
		p.setActiveAgent(defaultActiveAgent)
	}

	if p.callbacks.OnToolResult != nil {
		p.callbacks.OnToolResult(block.ToolUseID, renderToolResultContent(block.Content))
	}
}

// renderToolResultContent extracts readable text from a tool_result's
// content field, which may be a bare string or a list of content
// blocks. Lines that are bare subagent metadata (e.g. "agentId: ...")
// are skipped.
func renderToolResultContent(raw json.RawMessage) string {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return stripMetadataLines(asString)
	}

	var blocks []rawContent
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var parts []string
		for _, b := range blocks {
			if b.Type == "text" && b.Text != "" {
				parts = append(parts, stripMetadataLines(b.Text))
			}
		}
		return strings.Join(parts, "\n")
	}

	return ""
}

func stripMetadataLines(s string) string {
	lines := strings.Split(s, "\n")
	var kept []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "agentId:") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
